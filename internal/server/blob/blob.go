// Package blob stores ciphertext blobs on local disk and hands out the
// upload and download URLs embedded in prepare and save responses. The
// URLs carry an unguessable per-file token, standing in for the signed
// URLs of a cloud object store.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps one file per blob token under a directory.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the blob directory if needed. baseURL is the
// externally reachable address of the server, e.g. "http://host:8000".
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// UploadURL returns the URL clients upload a blob to.
func (s *DiskStore) UploadURL(token string) string {
	return s.baseURL + "/blob/" + token
}

// DownloadURL returns the URL clients fetch a blob from.
func (s *DiskStore) DownloadURL(token string) string {
	return s.baseURL + "/blob/" + token
}

func (s *DiskStore) path(token string) string {
	// Tokens are server-minted UUIDs; the base name guard keeps a
	// malformed token from escaping the directory.
	return filepath.Join(s.dir, filepath.Base(token))
}

// Put writes a blob, replacing any previous content for the token.
func (s *DiskStore) Put(token string, r io.Reader) error {
	f, err := os.OpenFile(s.path(token), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write blob: %w", err)
	}
	return f.Close()
}

// Open returns a reader over a stored blob. os.ErrNotExist is passed
// through for missing blobs.
func (s *DiskStore) Open(token string) (io.ReadCloser, error) {
	return os.Open(s.path(token))
}

// Delete removes a stored blob. Deleting a missing blob is a no-op.
func (s *DiskStore) Delete(token string) error {
	err := os.Remove(s.path(token))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
)

// UploadBlob streams ciphertext to a signed upload URL using the
// two-phase resumable protocol: open a session with the declared length,
// then PUT the bytes to the returned location.
func (c *Client) UploadBlob(ctx context.Context, uploadURL string, blob []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build session request: %w", bberrors.ErrUpload, err)
	}
	req.Header.Set("x-goog-resumable", "start")
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("x-goog-content-length-range", fmt.Sprintf("0,%d", len(blob)))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: open upload session: %w", bberrors.ErrUpload, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: upload session refused with status %d", bberrors.ErrUpload, resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return fmt.Errorf("%w: upload session returned no location", bberrors.ErrUpload)
	}

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, location, bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("%w: build upload request: %w", bberrors.ErrUpload, err)
	}
	put.Header.Set("Content-Type", "text/plain")
	put.Header.Set("Content-Length", strconv.Itoa(len(blob)))

	resp, err = c.http.Do(put)
	if err != nil {
		return fmt.Errorf("%w: stream bytes: %w", bberrors.ErrUpload, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: upload rejected with status %d", bberrors.ErrUpload, resp.StatusCode)
	}
	return nil
}

// DownloadBlob fetches ciphertext from a signed download URL.
func (c *Client) DownloadBlob(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build download request: %w", bberrors.ErrDownload, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch ciphertext: %w", bberrors.ErrDownload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download rejected with status %d", bberrors.ErrDownload, resp.StatusCode)
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read ciphertext: %w", bberrors.ErrDownload, err)
	}
	return blob, nil
}

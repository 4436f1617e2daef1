// Package profile persists one user profile on disk: the key file, the
// session token, the sync record table, and the private directory of
// sync hardlinks. Every write replaces the target atomically via a temp
// file and rename, so an interrupted command never leaves a half-written
// table behind.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

const (
	keyFileName      = "keyfile.json"
	sessionFileName  = "session.str"
	syncInfoFileName = "syncinfo.json"
	syncsDirName     = "syncs"
)

// Dir resolves the profile directory: $BITBOX_CONFIG_FOLDER if set,
// otherwise ~/.bitbox.
func Dir() string {
	if dir := os.Getenv("BITBOX_CONFIG_FOLDER"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bitbox"
	}
	return filepath.Join(home, ".bitbox")
}

// Store reads and writes one profile directory.
type Store struct {
	dir string
}

// Open prepares the profile directory, creating it and the syncs
// subdirectory if missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, syncsDirName), 0o700); err != nil {
		return nil, fmt.Errorf("create profile directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SyncsDir returns the directory holding the internal sync hardlinks.
func (s *Store) SyncsDir() string {
	return filepath.Join(s.dir, syncsDirName)
}

// KeyInfo loads the stored credential record, or nil if the profile has
// not been set up.
func (s *Store) KeyInfo() (*models.KeyInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, keyFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read key file: %w", bberrors.ErrConfigParse, err)
	}
	var keyInfo models.KeyInfo
	if err := json.Unmarshal(data, &keyInfo); err != nil {
		return nil, fmt.Errorf("%w: parse key file: %w", bberrors.ErrConfigParse, err)
	}
	return &keyInfo, nil
}

// SetKeyInfo stores the credential record.
func (s *Store) SetKeyInfo(keyInfo models.KeyInfo) error {
	data, err := json.MarshalIndent(keyInfo, "", "  ")
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	return s.writeAtomic(keyFileName, data)
}

// Session loads the stored session token, or "" if none is saved.
func (s *Store) Session() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, sessionFileName))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: read session file: %w", bberrors.ErrConfigParse, err)
	}
	return string(data), nil
}

// SetSession stores the session token.
func (s *Store) SetSession(session string) error {
	return s.writeAtomic(sessionFileName, []byte(session))
}

// SyncInfo loads the sync record table. A missing table is empty, not an
// error.
func (s *Store) SyncInfo() ([]models.SyncRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, syncInfoFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read sync table: %w", bberrors.ErrConfigParse, err)
	}
	var records []models.SyncRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse sync table: %w", bberrors.ErrConfigParse, err)
	}
	return records, nil
}

// SetSyncInfo replaces the whole sync record table. The read-modify-
// write-replace cycle on the full table is the unit of atomicity.
func (s *Store) SetSyncInfo(records []models.SyncRecord) error {
	if records == nil {
		records = []models.SyncRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sync table: %w", err)
	}
	return s.writeAtomic(syncInfoFileName, data)
}

func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

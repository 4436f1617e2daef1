// Package sync keeps local files and their remote counterparts in step.
// Each synced file is identified by inode: a hardlink alias inside the
// profile's syncs directory pins the inode so the file stays reachable
// even if the user moves it, and lookups work by identity rather than
// path.
package sync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/client/profile"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// Table manages the sync record table and the hardlink aliases behind
// it. Every mutation rewrites the whole table atomically.
type Table struct {
	profile *profile.Store
}

// NewTable creates a Table over the given profile store.
func NewTable(p *profile.Store) *Table {
	return &Table{profile: p}
}

// Inode returns the filesystem identity of path.
func Inode(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("stat %s: no inode information", path)
	}
	return stat.Ino, nil
}

// AliasPath returns the hardlink alias backing a record.
func (t *Table) AliasPath(rec models.SyncRecord) string {
	return filepath.Join(t.profile.SyncsDir(), fmt.Sprintf("%s_%d", rec.FileID, rec.SyncID))
}

// Create registers path as synced with the given remote file. The file
// gains a hardlink alias in the syncs directory so its inode stays
// reachable. A path that is already synced reports ErrSyncExists.
func (t *Table) Create(path, fileID, lastHash string) (*models.SyncRecord, error) {
	inode, err := Inode(path)
	if err != nil {
		return nil, err
	}
	records, err := t.profile.SyncInfo()
	if err != nil {
		return nil, err
	}
	nextID := 1
	for _, rec := range records {
		if rec.Inode == inode {
			return nil, fmt.Errorf("%w: %s", bberrors.ErrSyncExists, path)
		}
		if rec.SyncID >= nextID {
			nextID = rec.SyncID + 1
		}
	}
	rec := models.SyncRecord{
		SyncID:   nextID,
		FileID:   fileID,
		LastHash: lastHash,
		Inode:    inode,
	}
	if err := os.Link(path, t.AliasPath(rec)); err != nil {
		return nil, fmt.Errorf("pin %s: %w", path, err)
	}
	if err := t.profile.SetSyncInfo(append(records, rec)); err != nil {
		os.Remove(t.AliasPath(rec))
		return nil, err
	}
	return &rec, nil
}

// Lookup finds the record for path by inode identity. A file that is
// not synced reports ErrSyncNotFound.
func (t *Table) Lookup(path string) (*models.SyncRecord, error) {
	inode, err := Inode(path)
	if err != nil {
		return nil, err
	}
	records, err := t.profile.SyncInfo()
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Inode == inode {
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", bberrors.ErrSyncNotFound, path)
}

// LookupByRemote returns every record tracking the given remote file.
func (t *Table) LookupByRemote(fileID string) ([]models.SyncRecord, error) {
	records, err := t.profile.SyncInfo()
	if err != nil {
		return nil, err
	}
	var matched []models.SyncRecord
	for _, rec := range records {
		if rec.FileID == fileID {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// Copy duplicates an existing record under a fresh sync ID and links
// newPath to the duplicate. The source alias is copied byte for byte so
// the new binding gets its own inode, seeded with the last synced
// content. Used when cloning a remote file whose content is already
// present locally, so no download is needed.
func (t *Table) Copy(syncID int, newPath string) (*models.SyncRecord, error) {
	records, err := t.profile.SyncInfo()
	if err != nil {
		return nil, err
	}
	var src *models.SyncRecord
	nextID := 1
	for i := range records {
		if records[i].SyncID == syncID {
			src = &records[i]
		}
		if records[i].SyncID >= nextID {
			nextID = records[i].SyncID + 1
		}
	}
	if src == nil {
		return nil, fmt.Errorf("%w: sync %d", bberrors.ErrSyncNotFound, syncID)
	}

	content, err := os.ReadFile(t.AliasPath(*src))
	if err != nil {
		return nil, fmt.Errorf("read alias for sync %d: %w", syncID, err)
	}
	rec := models.SyncRecord{
		SyncID:   nextID,
		FileID:   src.FileID,
		LastHash: src.LastHash,
	}
	alias := t.AliasPath(rec)
	if err := os.WriteFile(alias, content, 0o600); err != nil {
		return nil, fmt.Errorf("copy alias for sync %d: %w", syncID, err)
	}
	if err := os.Link(alias, newPath); err != nil {
		os.Remove(alias)
		return nil, fmt.Errorf("link %s: %w", newPath, err)
	}
	inode, err := Inode(alias)
	if err != nil {
		os.Remove(newPath)
		os.Remove(alias)
		return nil, err
	}
	rec.Inode = inode
	if err := t.profile.SetSyncInfo(append(records, rec)); err != nil {
		os.Remove(newPath)
		os.Remove(alias)
		return nil, err
	}
	return &rec, nil
}

// Update replaces the stored record with the same sync ID. Updating an
// unknown record reports ErrSyncNotFound.
func (t *Table) Update(rec models.SyncRecord) error {
	records, err := t.profile.SyncInfo()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].SyncID == rec.SyncID {
			records[i] = rec
			return t.profile.SetSyncInfo(records)
		}
	}
	return fmt.Errorf("%w: sync %d", bberrors.ErrSyncNotFound, rec.SyncID)
}

// Delete removes a record and its hardlink alias. Deleting an unknown
// sync ID is a no-op.
func (t *Table) Delete(syncID int) error {
	records, err := t.profile.SyncInfo()
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, rec := range records {
		if rec.SyncID == syncID {
			if err := os.Remove(t.AliasPath(rec)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("unpin sync %d: %w", syncID, err)
			}
			continue
		}
		kept = append(kept, rec)
	}
	return t.profile.SetSyncInfo(kept)
}

// DeleteByRemote removes every record tracking the given remote file,
// unlinking their aliases. Used for self-healing when the remote side
// is gone.
func (t *Table) DeleteByRemote(fileID string) error {
	records, err := t.profile.SyncInfo()
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, rec := range records {
		if rec.FileID == fileID {
			if err := os.Remove(t.AliasPath(rec)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("unpin sync %d: %w", rec.SyncID, err)
			}
			continue
		}
		kept = append(kept, rec)
	}
	return t.profile.SetSyncInfo(kept)
}

package sync

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/client/api"
	"github.com/trehansiddharth/bitbox-client/internal/crypto"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// Remote is the slice of the vault the engine reconciles against. The
// engine only reads from the server; pushing local content is a
// separate, deliberate operation.
type Remote interface {
	Info(ctx context.Context, fileID string, auth *api.Auth) (*models.FileInfo, error)
	Download(ctx context.Context, fileID string, auth *api.Auth) ([]byte, error)
}

// Engine reconciles synced files against their remote counterparts
// using a three-way hash comparison: the hash at the last successful
// sync, the hash of the local content now, and the hash the server
// holds.
type Engine struct {
	table   *Table
	remote  Remote
	log     *zap.Logger
	confirm func(path string) bool
}

// NewEngine creates an Engine. confirm is consulted whenever the local
// file has edits since the last sync; returning true lets the server
// version overwrite them. A nil confirm declines every overwrite.
func NewEngine(table *Table, remote Remote, log *zap.Logger, confirm func(path string) bool) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{table: table, remote: remote, log: log, confirm: confirm}
}

// Outcome reports what one reconciliation did.
type Outcome int

const (
	// Unchanged means both sides already hold the same content.
	Unchanged Outcome = iota
	// Pulled means the server content replaced the local file.
	Pulled
	// Skipped means local edits were kept, or the remote was busy, and
	// nothing was touched.
	Skipped
	// Detached means the remote file is gone and the record was removed.
	Detached
)

// SyncFile reconciles one synced file at path.
func (e *Engine) SyncFile(ctx context.Context, path string, auth *api.Auth) (Outcome, error) {
	rec, err := e.table.Lookup(path)
	if err != nil {
		return Unchanged, err
	}
	return e.syncRecord(ctx, *rec, path, auth)
}

func (e *Engine) syncRecord(ctx context.Context, rec models.SyncRecord, path string, auth *api.Auth) (Outcome, error) {
	info, err := e.remote.Info(ctx, rec.FileID, auth)
	if bberrors.IsCode(err, bberrors.CodeFileNotFound) {
		// The remote file is gone; drop the stale record.
		e.log.Info("remote file removed, detaching sync",
			zap.String("path", path), zap.String("fileId", rec.FileID))
		if derr := e.table.DeleteByRemote(rec.FileID); derr != nil {
			return Unchanged, derr
		}
		return Detached, nil
	}
	if err != nil {
		return Unchanged, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Unchanged, fmt.Errorf("read %s: %w", path, err)
	}
	localHash := crypto.HashContent(content)
	serverHash := info.Hash

	switch {
	case serverHash == localHash:
		// Both sides already hold the same content.
		return Unchanged, nil

	case localHash != rec.LastHash:
		// Local edits exist; server content overwrites them only with
		// explicit consent.
		if e.confirm == nil || !e.confirm(path) {
			e.log.Warn("local edits kept, skipping",
				zap.String("path", path), zap.String("fileId", rec.FileID))
			return Skipped, nil
		}
		return e.tryPull(ctx, &rec, path, auth)

	default:
		// Only the server side moved.
		return e.tryPull(ctx, &rec, path, auth)
	}
}

// tryPull pulls the server content, treating a remote mid-update as a
// non-fatal skip.
func (e *Engine) tryPull(ctx context.Context, rec *models.SyncRecord, path string, auth *api.Auth) (Outcome, error) {
	if err := e.pull(ctx, rec, path, auth); err != nil {
		if bberrors.IsCode(err, bberrors.CodeFileNotReady) {
			e.log.Warn("remote is being modified elsewhere, skipping",
				zap.String("path", path), zap.String("fileId", rec.FileID))
			return Skipped, nil
		}
		return Unchanged, err
	}
	return Pulled, nil
}

// pull writes the server content over the local file in place, so the
// inode and its aliases are preserved.
func (e *Engine) pull(ctx context.Context, rec *models.SyncRecord, path string, auth *api.Auth) error {
	content, err := e.remote.Download(ctx, rec.FileID, auth)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	rec.LastHash = crypto.HashContent(content)
	if err := e.table.Update(*rec); err != nil {
		return err
	}
	e.log.Info("pulled server changes",
		zap.String("path", path), zap.String("fileId", rec.FileID))
	return nil
}

// SyncDir walks dir and reconciles every synced file beneath it.
// Failures on individual files are logged and do not stop the walk; the
// count of files that were pulled is returned alongside the first error
// encountered, if any.
func (e *Engine) SyncDir(ctx context.Context, dir string, auth *api.Auth) (int, error) {
	modified := 0
	var firstErr error
	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		rec, err := e.table.Lookup(path)
		if err != nil {
			// Unsynced files are simply not ours to touch.
			return nil
		}
		outcome, err := e.syncRecord(ctx, *rec, path, auth)
		if err != nil {
			e.log.Error("sync failed", zap.String("path", path), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		if outcome == Pulled {
			modified++
		}
		return nil
	})
	if walkErr != nil {
		return modified, walkErr
	}
	return modified, firstErr
}

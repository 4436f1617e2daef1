package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// PostgresStorageRepository implements file metadata and key grant
// persistence against a PostgreSQL database.
type PostgresStorageRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresStorageRepository creates a new PostgresStorageRepository
// using the provided *sql.DB.
func NewPostgresStorageRepository(db *sql.DB) *PostgresStorageRepository {
	return &PostgresStorageRepository{DB: db}
}

const fileColumns = `f.id, f.name, f.owner, f.bytes, f.hash, f.last_modified, f.blob_token, k.encrypted_key`

func scanFile(row interface{ Scan(...any) error }) (models.FileInfo, string, error) {
	var info models.FileInfo
	var blobToken string
	err := row.Scan(&info.FileID, &info.Name, &info.Owner, &info.Bytes,
		&info.Hash, &info.LastModified, &blobToken, &info.EncryptedKey)
	return info, blobToken, err
}

// CreateFile inserts a pending file row together with the owner's
// wrapped content key, in one transaction.
func (s *PostgresStorageRepository) CreateFile(ctx context.Context, info models.FileInfo, blobToken string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO files (id, name, owner, bytes, hash, last_modified, blob_token, pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
	`, info.FileID, info.Name, info.Owner, info.Bytes, info.Hash, info.LastModified, blobToken)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO file_keys (file_id, username, encrypted_key) VALUES ($1, $2, $3)
	`, info.FileID, info.Owner, info.EncryptedKey)
	if err != nil {
		return fmt.Errorf("insert owner key: %w", err)
	}
	return tx.Commit()
}

// FileNameTaken reports whether the owner already has a live file with
// the given name.
func (s *PostgresStorageRepository) FileNameTaken(ctx context.Context, owner, name string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM files WHERE owner = $1 AND name = $2 AND pending = false)
	`, owner, name).Scan(&exists)
	return exists, err
}

// FileByName resolves a live file visible to viewer by name, optionally
// qualified by owner. sql.ErrNoRows means no such file is granted. An
// unqualified name matching files from more than one owner reports
// filename-not-specific.
func (s *PostgresStorageRepository) FileByName(ctx context.Context, viewer, name, owner string) (models.FileInfo, string, error) {
	if owner != "" {
		return scanFile(s.DB.QueryRowContext(ctx, `
			SELECT `+fileColumns+` FROM files f
			JOIN file_keys k ON k.file_id = f.id
			WHERE k.username = $1 AND f.name = $2 AND f.pending = false AND f.owner = $3
		`, viewer, name, owner))
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+fileColumns+` FROM files f
		JOIN file_keys k ON k.file_id = f.id
		WHERE k.username = $1 AND f.name = $2 AND f.pending = false
		LIMIT 2
	`, viewer, name)
	if err != nil {
		return models.FileInfo{}, "", fmt.Errorf("FileByName: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return models.FileInfo{}, "", err
		}
		return models.FileInfo{}, "", sql.ErrNoRows
	}
	info, blobToken, err := scanFile(rows)
	if err != nil {
		return models.FileInfo{}, "", err
	}
	if rows.Next() {
		return models.FileInfo{}, "", bberrors.NewServer("file by name", bberrors.CodeFilenameNotSpecific)
	}
	return info, blobToken, rows.Err()
}

// FileByID resolves a live file visible to viewer by ID. sql.ErrNoRows
// means the file does not exist or is not granted to viewer.
func (s *PostgresStorageRepository) FileByID(ctx context.Context, viewer, fileID string) (models.FileInfo, string, error) {
	return scanFile(s.DB.QueryRowContext(ctx, `
		SELECT `+fileColumns+` FROM files f
		JOIN file_keys k ON k.file_id = f.id
		WHERE k.username = $1 AND f.id = $2 AND f.pending = false
	`, viewer, fileID))
}

// FileOwner returns the owner of a file regardless of grants.
// sql.ErrNoRows means the file does not exist.
func (s *PostgresStorageRepository) FileOwner(ctx context.Context, fileID string) (string, error) {
	var owner string
	err := s.DB.QueryRowContext(ctx, `SELECT owner FROM files WHERE id = $1`, fileID).Scan(&owner)
	return owner, err
}

// FilesForUser fetches every live file granted to viewer, including the
// list of users each file is shared with.
func (s *PostgresStorageRepository) FilesForUser(ctx context.Context, viewer string) ([]models.FileInfo, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT f.id, f.name, f.owner, f.bytes, f.hash, f.last_modified, k.encrypted_key,
		       (SELECT array_agg(k2.username) FROM file_keys k2
		         WHERE k2.file_id = f.id AND k2.username <> f.owner)
		FROM files f
		JOIN file_keys k ON k.file_id = f.id
		WHERE k.username = $1 AND f.pending = false
		ORDER BY f.name
	`, viewer)
	if err != nil {
		return nil, fmt.Errorf("FilesForUser: %w", err)
	}
	defer rows.Close()

	var files []models.FileInfo
	for rows.Next() {
		var info models.FileInfo
		var sharedWith pq.StringArray
		if err := rows.Scan(&info.FileID, &info.Name, &info.Owner, &info.Bytes,
			&info.Hash, &info.LastModified, &info.EncryptedKey, &sharedWith); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		info.SharedWith = sharedWith
		files = append(files, info)
	}
	return files, rows.Err()
}

// SharedWith returns the usernames a file has been shared with, not
// counting the owner.
func (s *PostgresStorageRepository) SharedWith(ctx context.Context, fileID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT k.username FROM file_keys k
		JOIN files f ON f.id = k.file_id
		WHERE k.file_id = $1 AND k.username <> f.owner
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("SharedWith: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, username)
	}
	return users, rows.Err()
}

// UpdateInFlight reports whether a staged content update has not been
// finalized yet. sql.ErrNoRows means the file does not exist.
func (s *PostgresStorageRepository) UpdateInFlight(ctx context.Context, fileID string) (bool, error) {
	var staged bool
	err := s.DB.QueryRowContext(ctx, `
		SELECT staged_hash IS NOT NULL FROM files WHERE id = $1
	`, fileID).Scan(&staged)
	return staged, err
}

// StageUpdate records the size and hash of a pending content update.
func (s *PostgresStorageRepository) StageUpdate(ctx context.Context, fileID string, bytes int64, hash string) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE files SET staged_bytes = $2, staged_hash = $3 WHERE id = $1
	`, fileID, bytes, hash)
	return err
}

// Finalize makes a file live, promoting any staged content update.
func (s *PostgresStorageRepository) Finalize(ctx context.Context, fileID string, lastModified int64) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE files SET
			pending = false,
			bytes = COALESCE(staged_bytes, bytes),
			hash = COALESCE(staged_hash, hash),
			last_modified = $2,
			staged_bytes = NULL,
			staged_hash = NULL
		WHERE id = $1
	`, fileID, lastModified)
	return err
}

// AddKey grants a user access to a file by storing the content key
// wrapped for that user.
func (s *PostgresStorageRepository) AddKey(ctx context.Context, fileID, username, encryptedKey string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO file_keys (file_id, username, encrypted_key) VALUES ($1, $2, $3)
		ON CONFLICT (file_id, username) DO UPDATE SET encrypted_key = EXCLUDED.encrypted_key
	`, fileID, username, encryptedKey)
	return err
}

// DeleteFile removes a file row; grants cascade.
func (s *PostgresStorageRepository) DeleteFile(ctx context.Context, fileID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, fileID)
	return err
}

// Package repository provides persistence implementations for the
// bitbox services using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
)

// PostgresAuthRepository implements account, session, and recovery
// persistence against a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with
// the given database connection.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether a user with the specified username exists.
func (s *PostgresAuthRepository) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
		username,
	).Scan(&exists)
	return exists, err
}

// CreateUser registers a new user with its public key.
func (s *PostgresAuthRepository) CreateUser(ctx context.Context, username, publicKey string) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO users (username, public_key) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		username, publicKey,
	)
	return err
}

// GetPublicKey returns the PEM public key of a user. sql.ErrNoRows means
// the user is unknown.
func (s *PostgresAuthRepository) GetPublicKey(ctx context.Context, username string) (string, error) {
	var publicKey string
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT public_key FROM users WHERE username = $1`,
		username,
	).Scan(&publicKey)
	return publicKey, err
}

// SaveChallenge stores the expected answer of an outstanding login
// challenge, replacing any previous one for the user.
func (s *PostgresAuthRepository) SaveChallenge(ctx context.Context, username, answer string, expiresAt int64) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO challenges (username, answer, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET answer = EXCLUDED.answer, expires_at = EXCLUDED.expires_at
	`, username, answer, expiresAt)
	return err
}

// GetChallenge fetches the outstanding challenge answer for a user.
func (s *PostgresAuthRepository) GetChallenge(ctx context.Context, username string) (answer string, expiresAt int64, err error) {
	err = s.DB.QueryRowContext(
		ctx,
		`SELECT answer, expires_at FROM challenges WHERE username = $1`,
		username,
	).Scan(&answer, &expiresAt)
	return answer, expiresAt, err
}

// DeleteChallenge removes the outstanding challenge for a user.
func (s *PostgresAuthRepository) DeleteChallenge(ctx context.Context, username string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM challenges WHERE username = $1`, username)
	return err
}

// CreateSession stores a new session token.
func (s *PostgresAuthRepository) CreateSession(ctx context.Context, token, username string, expiresAt int64) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO sessions (token, username, expires_at) VALUES ($1, $2, $3)`,
		token, username, expiresAt,
	)
	return err
}

// GetSession resolves a session token to its user. sql.ErrNoRows means
// the token is unknown.
func (s *PostgresAuthRepository) GetSession(ctx context.Context, token string) (username string, expiresAt int64, err error) {
	err = s.DB.QueryRowContext(
		ctx,
		`SELECT username, expires_at FROM sessions WHERE token = $1`,
		token,
	).Scan(&username, &expiresAt)
	return username, expiresAt, err
}

// SaveOTCHash records the hash of a freshly minted one-time code.
func (s *PostgresAuthRepository) SaveOTCHash(ctx context.Context, username, otcHash string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO recovery (username, otc_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET otc_hash = EXCLUDED.otc_hash
	`, username, otcHash)
	return err
}

// SaveEscrow stores the escrowed private key blob for a user.
func (s *PostgresAuthRepository) SaveEscrow(ctx context.Context, username, blob string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO recovery (username, encrypted_private_key) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET encrypted_private_key = EXCLUDED.encrypted_private_key
	`, username, blob)
	return err
}

// GetRecovery fetches the escrow blob and one-time code hash for a
// user. sql.ErrNoRows means no recovery material exists.
func (s *PostgresAuthRepository) GetRecovery(ctx context.Context, username string) (blob, otcHash string, err error) {
	var nullBlob, nullHash sql.NullString
	err = s.DB.QueryRowContext(
		ctx,
		`SELECT encrypted_private_key, otc_hash FROM recovery WHERE username = $1`,
		username,
	).Scan(&nullBlob, &nullHash)
	if err != nil {
		return "", "", err
	}
	return nullBlob.String, nullHash.String, nil
}

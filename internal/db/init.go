package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY,
    public_key TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    owner TEXT REFERENCES users(username) ON DELETE CASCADE,
    bytes BIGINT NOT NULL,
    hash TEXT NOT NULL,
    last_modified BIGINT NOT NULL,
    blob_token TEXT NOT NULL,
    pending BOOLEAN NOT NULL DEFAULT TRUE,
    staged_bytes BIGINT,
    staged_hash TEXT
);

CREATE TABLE IF NOT EXISTS file_keys (
    file_id TEXT REFERENCES files(id) ON DELETE CASCADE,
    username TEXT REFERENCES users(username) ON DELETE CASCADE,
    encrypted_key TEXT NOT NULL,
    PRIMARY KEY (file_id, username)
);

CREATE TABLE IF NOT EXISTS challenges (
    username TEXT PRIMARY KEY REFERENCES users(username) ON DELETE CASCADE,
    answer TEXT NOT NULL,
    expires_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    username TEXT REFERENCES users(username) ON DELETE CASCADE,
    expires_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS recovery (
    username TEXT PRIMARY KEY REFERENCES users(username) ON DELETE CASCADE,
    otc_hash TEXT,
    encrypted_private_key TEXT
);
`

func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

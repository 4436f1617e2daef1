// Package bberrors defines the closed error taxonomy of the bitbox
// client: the server's wire error codes and the client-side sentinel
// errors. Callers match with errors.Is and bberrors.IsCode; no expected
// condition is ever reported through a panic or an untyped string.
package bberrors

import (
	"errors"
	"fmt"
)

// Code is a server-declared error code as it appears on the wire.
type Code string

const (
	CodeAuthenticationFailed Code = "authentication-failed"
	CodeUserNotFound         Code = "user-not-found"
	CodeUserExists           Code = "user-exists"
	CodeInvalidUsername      Code = "invalid-username"
	CodeInvalidPublicKey     Code = "invalid-public-key"
	CodeFileTooLarge         Code = "file-too-large"
	CodeFileExists           Code = "file-exists"
	CodeFileNotFound         Code = "file-not-found"
	CodeFilenameNotSpecific  Code = "filename-not-specific"
	CodeFileNotReady         Code = "file-not-ready"
	CodeRecoveryNotReady     Code = "recovery-not-ready"
	CodeInvalidOTC           Code = "invalid-otc"
	CodeInvalidNumBytes      Code = "invalid-num-bytes"
	CodeAccessDenied         Code = "access-denied"
	CodeInvalidVersion       Code = "invalid-version"
	CodeServerSideError      Code = "server-side-error"
)

// ServerError is an expected, server-declared failure of an API call.
type ServerError struct {
	// Code is the wire error code returned by the server.
	Code Code
	// Op names the API operation that failed.
	Op string
}

func (e *ServerError) Error() string {
	if e.Op == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// NewServer wraps a wire code in a ServerError.
func NewServer(op string, code Code) *ServerError {
	return &ServerError{Code: code, Op: op}
}

// IsCode reports whether err carries the given wire code.
func IsCode(err error, code Code) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Code == code
}

// CodeOf returns the wire code carried by err, or "" if err is not a
// server-declared failure.
func CodeOf(err error) Code {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Credential and identity errors.
var (
	// ErrDecryption indicates key material could not be decrypted with
	// the supplied password or personal key. Distinct from malformed
	// input: the data was well-formed but the key was wrong.
	ErrDecryption = errors.New("decryption failed: wrong password or key")

	// ErrAuthenticationFailed indicates the challenge/response exchange
	// or an established session was rejected, including after the single
	// transparent re-authentication retry.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrPrivateKeyEncrypted indicates the private key is encrypted and
	// no personal key was supplied.
	ErrPrivateKeyEncrypted = errors.New("private key is encrypted and no personal key was given")
)

// Recovery errors.
var (
	// ErrRecoveryNotReady indicates no escrow blob was ever pushed for
	// the user.
	ErrRecoveryNotReady = errors.New("no recovery key has been backed up for this user")

	// ErrInvalidOTC indicates the one-time code was wrong or garbled.
	ErrInvalidOTC = errors.New("invalid one-time code")
)

// Transfer errors.
var (
	// ErrUpload indicates the bulk ciphertext transfer failed.
	ErrUpload = errors.New("upload failed")

	// ErrDownload indicates the ciphertext fetch failed or the decrypted
	// content did not match the server-declared hash. A hash mismatch is
	// an integrity failure, never downgraded to success.
	ErrDownload = errors.New("download failed")
)

// Local state errors.
var (
	// ErrConfigParse indicates a corrupt credential, session, or sync
	// table file.
	ErrConfigParse = errors.New("failed to parse local configuration")

	// ErrSyncExists indicates the file's inode is already bound to a
	// sync record.
	ErrSyncExists = errors.New("file is already synchronized")

	// ErrSyncNotFound indicates no sync record is bound to the file.
	ErrSyncNotFound = errors.New("file is not synchronized with any remote")
)

// Server contract errors. Both are fatal and never retried.
var (
	// ErrInvalidVersion indicates client/server protocol skew.
	ErrInvalidVersion = errors.New("client version is no longer supported by the server")

	// ErrServerSide indicates an unexpected failure inside the server.
	ErrServerSide = errors.New("an error occurred on the server")
)

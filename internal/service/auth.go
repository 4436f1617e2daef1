// Package service provides business logic for account management,
// challenge/response authentication, storage, and key recovery,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/crypto"
	"github.com/trehansiddharth/bitbox-client/internal/otc"
)

// AuthRepository defines the persistence operations needed by the
// AuthService.
type AuthRepository interface {
	UserExists(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, username, publicKey string) error
	GetPublicKey(ctx context.Context, username string) (string, error)
	SaveChallenge(ctx context.Context, username, answer string, expiresAt int64) error
	GetChallenge(ctx context.Context, username string) (answer string, expiresAt int64, err error)
	DeleteChallenge(ctx context.Context, username string) error
	CreateSession(ctx context.Context, token, username string, expiresAt int64) error
	GetSession(ctx context.Context, token string) (username string, expiresAt int64, err error)
	SaveOTCHash(ctx context.Context, username, otcHash string) error
	SaveEscrow(ctx context.Context, username, blob string) error
	GetRecovery(ctx context.Context, username string) (blob, otcHash string, err error)
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9]+$`)

const (
	challengeTTL = 5 * time.Minute
	sessionTTL   = 24 * time.Hour
	challengeLen = 32
)

// AuthService implements registration, challenge/response login,
// session validation, and key recovery.
type AuthService struct {
	repo AuthRepository
}

// NewAuthService constructs an AuthService with the provided
// AuthRepository.
func NewAuthService(repo AuthRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Register creates an account for username with the given public key.
func (s *AuthService) Register(ctx context.Context, username, publicKey string) error {
	if !usernamePattern.MatchString(username) {
		return bberrors.NewServer("register", bberrors.CodeInvalidUsername)
	}
	if _, err := crypto.ImportPublicKey(publicKey); err != nil {
		return bberrors.NewServer("register", bberrors.CodeInvalidPublicKey)
	}
	exists, err := s.repo.UserExists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return bberrors.NewServer("register", bberrors.CodeUserExists)
	}
	return s.repo.CreateUser(ctx, username, publicKey)
}

// PublicKey returns the PEM public key of a user.
func (s *AuthService) PublicKey(ctx context.Context, username string) (string, error) {
	publicKey, err := s.repo.GetPublicKey(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", bberrors.NewServer("user info", bberrors.CodeUserNotFound)
	}
	return publicKey, err
}

// Challenge mints a random login challenge for username and returns it
// encrypted under the user's public key, hex encoded. Only the holder
// of the private key can produce the answer.
func (s *AuthService) Challenge(ctx context.Context, username string) (string, error) {
	publicKeyPEM, err := s.repo.GetPublicKey(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", bberrors.NewServer("challenge", bberrors.CodeUserNotFound)
	}
	if err != nil {
		return "", err
	}
	pub, err := crypto.ImportPublicKey(publicKeyPEM)
	if err != nil {
		return "", fmt.Errorf("stored public key: %w", err)
	}
	answer := make([]byte, challengeLen)
	if _, err := rand.Read(answer); err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}
	wrapped, err := crypto.Wrap(answer, pub)
	if err != nil {
		return "", fmt.Errorf("encrypt challenge: %w", err)
	}
	expiresAt := time.Now().Add(challengeTTL).Unix()
	if err := s.repo.SaveChallenge(ctx, username, hex.EncodeToString(answer), expiresAt); err != nil {
		return "", err
	}
	return hex.EncodeToString(wrapped), nil
}

// Login verifies a challenge answer and mints a session token. The
// challenge is consumed whether or not the answer matches.
func (s *AuthService) Login(ctx context.Context, username, challengeResponse string) (string, error) {
	answer, expiresAt, err := s.repo.GetChallenge(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", bberrors.NewServer("login", bberrors.CodeAuthenticationFailed)
	}
	if err != nil {
		return "", err
	}
	if err := s.repo.DeleteChallenge(ctx, username); err != nil {
		return "", err
	}
	if time.Now().Unix() > expiresAt || challengeResponse != answer {
		return "", bberrors.NewServer("login", bberrors.CodeAuthenticationFailed)
	}
	token := uuid.NewString()
	if err := s.repo.CreateSession(ctx, token, username, time.Now().Add(sessionTTL).Unix()); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateSession resolves a session token to its user.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (string, error) {
	username, expiresAt, err := s.repo.GetSession(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", bberrors.NewServer("session", bberrors.CodeAuthenticationFailed)
	}
	if err != nil {
		return "", err
	}
	if time.Now().Unix() > expiresAt {
		return "", bberrors.NewServer("session", bberrors.CodeAuthenticationFailed)
	}
	return username, nil
}

// GenerateOTC mints a one-time code for username and records its hash
// so a later recovery attempt can be validated. The code itself is
// returned as hex and never stored.
func (s *AuthService) GenerateOTC(ctx context.Context, username string) (string, error) {
	code, err := otc.Generate()
	if err != nil {
		return "", err
	}
	if err := s.repo.SaveOTCHash(ctx, username, crypto.HashContent([]byte(code))); err != nil {
		return "", err
	}
	return code, nil
}

// PushEscrow stores the encrypted private key blob for recovery.
func (s *AuthService) PushEscrow(ctx context.Context, username, blob string) error {
	return s.repo.SaveEscrow(ctx, username, blob)
}

// RecoverKeys releases the escrow blob for username. When otcCode is
// non-empty it must hash to the recorded value; an empty code only
// confirms that an escrow exists.
func (s *AuthService) RecoverKeys(ctx context.Context, username, otcCode string) (string, error) {
	exists, err := s.repo.UserExists(ctx, username)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", bberrors.NewServer("recover keys", bberrors.CodeUserNotFound)
	}
	blob, otcHash, err := s.repo.GetRecovery(ctx, username)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && blob == "") {
		return "", bberrors.NewServer("recover keys", bberrors.CodeRecoveryNotReady)
	}
	if err != nil {
		return "", err
	}
	if otcCode != "" && crypto.HashContent([]byte(otcCode)) != otcHash {
		return "", bberrors.NewServer("recover keys", bberrors.CodeInvalidOTC)
	}
	return blob, nil
}

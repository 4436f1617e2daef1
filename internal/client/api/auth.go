package api

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/crypto"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// KeySourceKind selects how the private key is decrypted when needed.
type KeySourceKind int

const (
	// RawImport imports an unencrypted private key directly.
	RawImport KeySourceKind = iota
	// PasswordProvided derives the personal key from a password supplied
	// up front.
	PasswordProvided
	// PromptOnDemand asks the Prompt callback for the password the first
	// time the key is actually needed.
	PromptOnDemand
)

// KeySource is the key-decryption strategy chosen at login time. It is a
// plain value rather than a captured closure so tests can inspect it.
type KeySource struct {
	Kind     KeySourceKind
	Password string
	// Prompt supplies the password for PromptOnDemand. The core performs
	// no console I/O itself; the caller wires in the prompt.
	Prompt func() (string, error)
}

func (s KeySource) password() (string, error) {
	switch s.Kind {
	case PasswordProvided:
		return s.Password, nil
	case PromptOnDemand:
		if s.Prompt == nil {
			return "", bberrors.ErrPrivateKeyEncrypted
		}
		return s.Prompt()
	default:
		return "", bberrors.ErrPrivateKeyEncrypted
	}
}

// Auth carries one command invocation's live session and lazy access to
// the decrypted private key. The key is decrypted at most once and the
// cached copy belongs exclusively to this Auth.
type Auth struct {
	// KeyInfo is the credential record the session was built from.
	KeyInfo models.KeyInfo

	session string
	source  KeySource
	cached  *rsa.PrivateKey
	persist func(session string) error
}

// Session returns the current session token.
func (a *Auth) Session() string {
	return a.session
}

// PrivateKey returns the decrypted private key, decrypting it on first
// use and caching it for the rest of the command.
func (a *Auth) PrivateKey() (*rsa.PrivateKey, error) {
	if a.cached != nil {
		return a.cached, nil
	}
	priv, err := DecryptPrivateKey(a.KeyInfo, a.source)
	if err != nil {
		return nil, err
	}
	a.cached = priv
	return priv, nil
}

// setSession installs a freshly established session and persists it via
// the session store callback, so the next invocation reuses it.
func (a *Auth) setSession(session string) {
	a.session = session
	if a.persist != nil {
		_ = a.persist(session)
	}
}

// Zero drops the cached private key at the end of the command.
func (a *Auth) Zero() {
	a.cached = nil
}

// DecryptPrivateKey resolves a KeyInfo to a usable private key using the
// given strategy. A wrong password reports ErrDecryption; malformed key
// material reports a plain error.
func DecryptPrivateKey(keyInfo models.KeyInfo, source KeySource) (*rsa.PrivateKey, error) {
	if !keyInfo.Encrypted {
		return crypto.ImportPrivateKey(keyInfo.PrivateKey)
	}
	password, err := source.password()
	if err != nil {
		return nil, err
	}
	personalKey := crypto.PersonalKeyFromPassword(password)
	blob, err := base64.StdEncoding.DecodeString(keyInfo.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decode private key blob: %w", bberrors.ErrConfigParse, err)
	}
	pemBytes, err := crypto.DecryptBlob(personalKey, blob)
	if err != nil {
		return nil, err
	}
	return crypto.ImportPrivateKey(string(pemBytes))
}

// EstablishSession runs the challenge/response exchange: fetch a random
// challenge encrypted under the user's public key, decrypt it with the
// private key, and trade the answer for a session token. Possession of
// the key is proven without ever transmitting it.
func (c *Client) EstablishSession(ctx context.Context, username string, priv *rsa.PrivateKey) (string, error) {
	challengeHex, err := c.text(ctx, "challenge", "/api/auth/login/challenge", models.ChallengeRequest{Username: username})
	if err != nil {
		return "", err
	}
	challenge, err := hex.DecodeString(challengeHex)
	if err != nil {
		return "", bberrors.ErrAuthenticationFailed
	}
	answer, err := crypto.Unwrap(challenge, priv)
	if err != nil {
		return "", bberrors.ErrAuthenticationFailed
	}

	resp, err := c.roundTrip(ctx, "POST", "/api/auth/login/login", models.LoginRequest{
		Username:          username,
		ChallengeResponse: hex.EncodeToString(answer),
		Version:           Version,
	}, "")
	if err != nil {
		return "", err
	}
	session := resp.Header.Get("Set-Cookie")
	if err := c.finish("login", resp, nil); err != nil {
		return "", err
	}
	if session == "" {
		return "", bberrors.ErrAuthenticationFailed
	}
	return session, nil
}

// Login builds an Auth for one command. A supplied session is trusted
// without touching the private key; the key is then decrypted lazily
// only if some later call needs it. With no session, the key is
// decrypted eagerly to establish one. persistSession may be nil.
func (c *Client) Login(ctx context.Context, keyInfo models.KeyInfo, source KeySource, session string, persistSession func(string) error) (*Auth, error) {
	auth := &Auth{
		KeyInfo: keyInfo,
		session: session,
		source:  source,
		persist: persistSession,
	}
	if session != "" {
		return auth, nil
	}
	priv, err := auth.PrivateKey()
	if err != nil {
		return nil, err
	}
	fresh, err := c.EstablishSession(ctx, keyInfo.Username, priv)
	if err != nil {
		return nil, err
	}
	auth.setSession(fresh)
	return auth, nil
}

// Package account manages the lifecycle of a user's key material:
// registration, key escrow backup under a one-time code, and recovery
// of the private key on a new machine.
package account

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/client/api"
	"github.com/trehansiddharth/bitbox-client/internal/crypto"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// Register generates a fresh keypair and registers the user with the
// server. When password is non-empty the stored private key is
// encrypted under the personal key derived from it; otherwise it is
// stored as plaintext PEM. The returned private key is live for the
// rest of the command.
func Register(ctx context.Context, client *api.Client, username, password string) (*models.KeyInfo, *rsa.PrivateKey, error) {
	priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	publicKey, err := crypto.ExportPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	privateKeyPEM := crypto.ExportPrivateKey(priv)

	stored := privateKeyPEM
	encrypted := false
	if password != "" {
		personalKey := crypto.PersonalKeyFromPassword(password)
		blob, err := crypto.EncryptBlob(personalKey, []byte(privateKeyPEM))
		if err != nil {
			return nil, nil, fmt.Errorf("encrypt private key: %w", err)
		}
		stored = base64.StdEncoding.EncodeToString(blob)
		encrypted = true
	}

	if err := client.RegisterUser(ctx, username, publicKey); err != nil {
		return nil, nil, err
	}

	return &models.KeyInfo{
		Username:   username,
		PublicKey:  publicKey,
		PrivateKey: stored,
		Encrypted:  encrypted,
	}, priv, nil
}

// Backup escrows the stored private key on the server, encrypted under
// a key derived from the one-time code. The blob pushed is the key
// material exactly as stored, so a password-protected key stays
// password-protected inside the escrow (double-wrapped).
func Backup(ctx context.Context, client *api.Client, otcCode string, auth *api.Auth) error {
	blob, err := crypto.EncryptWithPassphrase([]byte(auth.KeyInfo.PrivateKey), strings.ToLower(otcCode))
	if err != nil {
		return fmt.Errorf("encrypt escrow blob: %w", err)
	}
	return client.PushEncryptedKey(ctx, base64.StdEncoding.EncodeToString(blob), auth)
}

// FetchRecovery retrieves the escrow blob for username without
// attempting decryption.
func FetchRecovery(ctx context.Context, client *api.Client, username string) (*models.RecoveryKeyInfo, error) {
	blob, err := client.RecoverKeys(ctx, username, "")
	if err != nil {
		return nil, normalizeRecoveryErr(err)
	}
	return &models.RecoveryKeyInfo{Username: username, EncryptedPrivateKey: blob}, nil
}

// DecryptRecovery unlocks an escrow blob with the one-time code. If the
// plaintext turns out to be a password-encrypted key rather than a PEM
// private key, password() supplies the second secret. A wrong code
// reports ErrInvalidOTC; a wrong password reports ErrDecryption.
func DecryptRecovery(rec *models.RecoveryKeyInfo, otcCode string, password func() (string, error)) (*models.KeyInfo, *rsa.PrivateKey, error) {
	blob, err := base64.StdEncoding.DecodeString(rec.EncryptedPrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decode escrow blob: %w", bberrors.ErrConfigParse, err)
	}
	stored, err := crypto.DecryptWithPassphrase(blob, strings.ToLower(otcCode))
	if err != nil {
		return nil, nil, bberrors.ErrInvalidOTC
	}

	storedStr := string(stored)
	privateKeyPEM := storedStr
	encrypted := false
	if !crypto.IsPrivateKeyPEM(storedStr) {
		// Double-wrapped: the escrowed key was itself protected by the
		// personal key, so a second decryption is required.
		if password == nil {
			return nil, nil, bberrors.ErrPrivateKeyEncrypted
		}
		pw, err := password()
		if err != nil {
			return nil, nil, err
		}
		personalKey := crypto.PersonalKeyFromPassword(pw)
		inner, err := base64.StdEncoding.DecodeString(storedStr)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: decode inner key blob: %w", bberrors.ErrConfigParse, err)
		}
		pemBytes, err := crypto.DecryptBlob(personalKey, inner)
		if err != nil {
			return nil, nil, err
		}
		privateKeyPEM = string(pemBytes)
		encrypted = true
	}

	priv, err := crypto.ImportPrivateKey(privateKeyPEM)
	if err != nil {
		return nil, nil, err
	}
	publicKey, err := crypto.ExportPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, nil, err
	}

	return &models.KeyInfo{
		Username:   rec.Username,
		PublicKey:  publicKey,
		PrivateKey: storedStr,
		Encrypted:  encrypted,
	}, priv, nil
}

// Recover fetches and decrypts the escrow blob in one step, letting the
// server validate the one-time code before the blob is released.
func Recover(ctx context.Context, client *api.Client, username, otcCode string, password func() (string, error)) (*models.KeyInfo, *rsa.PrivateKey, error) {
	blob, err := client.RecoverKeys(ctx, username, strings.ToLower(otcCode))
	if err != nil {
		return nil, nil, normalizeRecoveryErr(err)
	}
	rec := &models.RecoveryKeyInfo{Username: username, EncryptedPrivateKey: blob}
	return DecryptRecovery(rec, otcCode, password)
}

// normalizeRecoveryErr maps the recovery wire codes onto the sentinels
// callers branch on during the multi-attempt recovery loop.
func normalizeRecoveryErr(err error) error {
	switch {
	case bberrors.IsCode(err, bberrors.CodeRecoveryNotReady):
		return bberrors.ErrRecoveryNotReady
	case bberrors.IsCode(err, bberrors.CodeInvalidOTC):
		return bberrors.ErrInvalidOTC
	default:
		return err
	}
}

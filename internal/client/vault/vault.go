// Package vault implements the envelope encryption engine on top of the
// server API: every file travels as AES-256-GCM ciphertext under a
// fresh content key, and the content key travels wrapped under RSA-OAEP
// for each reader. The server never sees a plaintext or an unwrapped
// key.
package vault

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/client/api"
	"github.com/trehansiddharth/bitbox-client/internal/crypto"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// API is the slice of the server client the vault depends on.
type API interface {
	UserInfo(ctx context.Context, username string) (*models.UserInfoResponse, error)
	PrepareStore(ctx context.Context, req models.PrepareStoreRequest, auth *api.Auth) (*models.PrepareStoreResponse, error)
	PrepareUpdate(ctx context.Context, req models.PrepareUpdateRequest, auth *api.Auth) (*models.PrepareUpdateResponse, error)
	Store(ctx context.Context, fileID string, auth *api.Auth) error
	Save(ctx context.Context, fileID string, auth *api.Auth) (*models.SaveResponse, error)
	Share(ctx context.Context, fileID string, recipientKeys map[string]string, auth *api.Auth) error
	Delete(ctx context.Context, fileID string, auth *api.Auth) error
	FileInfo(ctx context.Context, filename, owner string, auth *api.Auth) (*models.FileInfo, error)
	FileInfoByID(ctx context.Context, fileID string, auth *api.Auth) (*models.FileInfo, error)
	FilesInfo(ctx context.Context, auth *api.Auth) ([]models.FileInfo, error)
	UploadBlob(ctx context.Context, uploadURL string, blob []byte) error
	DownloadBlob(ctx context.Context, downloadURL string) ([]byte, error)
}

// Vault performs encrypted file operations against one server.
type Vault struct {
	api API
}

// New creates a Vault over the given API client.
func New(a API) *Vault {
	return &Vault{api: a}
}

// ParseRemotePath splits a remote file reference of the form
// "@owner/name" into its parts. A bare name returns an empty owner.
func ParseRemotePath(ref string) (owner, name string) {
	if strings.HasPrefix(ref, "@") {
		if i := strings.Index(ref, "/"); i > 0 {
			return ref[1:i], ref[i+1:]
		}
	}
	return "", ref
}

// Resolve looks up file metadata for a remote reference.
func (v *Vault) Resolve(ctx context.Context, ref string, auth *api.Auth) (*models.FileInfo, error) {
	owner, name := ParseRemotePath(ref)
	return v.api.FileInfo(ctx, name, owner, auth)
}

// List returns metadata for every file the caller owns or can read.
func (v *Vault) List(ctx context.Context, auth *api.Auth) ([]models.FileInfo, error) {
	return v.api.FilesInfo(ctx, auth)
}

// Upload encrypts content under a fresh key and stores it as a new file.
// When overwrite is set and the name is taken, the existing file is
// deleted and the store retried exactly once. Other refusals, including
// an oversized file, are never retried.
func (v *Vault) Upload(ctx context.Context, name string, content []byte, overwrite bool, auth *api.Auth) (string, error) {
	key, err := crypto.NewContentKey()
	if err != nil {
		return "", err
	}
	ciphertext, err := crypto.EncryptBlob(key, content)
	if err != nil {
		return "", fmt.Errorf("encrypt content: %w", err)
	}
	pub, err := crypto.ImportPublicKey(auth.KeyInfo.PublicKey)
	if err != nil {
		return "", err
	}
	wrapped, err := crypto.Wrap(key, pub)
	if err != nil {
		return "", fmt.Errorf("wrap content key: %w", err)
	}
	req := models.PrepareStoreRequest{
		Filename:             name,
		Bytes:                int64(len(ciphertext)),
		Hash:                 crypto.HashContent(content),
		PersonalEncryptedKey: hex.EncodeToString(wrapped),
	}

	prep, err := v.api.PrepareStore(ctx, req, auth)
	if bberrors.IsCode(err, bberrors.CodeFileExists) && overwrite {
		existing, ferr := v.api.FileInfo(ctx, name, "", auth)
		if ferr != nil {
			return "", ferr
		}
		if derr := v.api.Delete(ctx, existing.FileID, auth); derr != nil {
			return "", derr
		}
		prep, err = v.api.PrepareStore(ctx, req, auth)
	}
	if err != nil {
		return "", err
	}

	if err := v.api.UploadBlob(ctx, prep.UploadURL, ciphertext); err != nil {
		return "", err
	}
	if err := v.api.Store(ctx, prep.FileID, auth); err != nil {
		return "", err
	}
	return prep.FileID, nil
}

// Info returns file metadata by ID.
func (v *Vault) Info(ctx context.Context, fileID string, auth *api.Auth) (*models.FileInfo, error) {
	return v.api.FileInfoByID(ctx, fileID, auth)
}

// Download fetches and decrypts a file by ID. The plaintext hash is
// checked against the server's record and a mismatch fails closed.
func (v *Vault) Download(ctx context.Context, fileID string, auth *api.Auth) ([]byte, error) {
	save, err := v.api.Save(ctx, fileID, auth)
	if err != nil {
		return nil, err
	}
	ciphertext, err := v.api.DownloadBlob(ctx, save.DownloadURL)
	if err != nil {
		return nil, err
	}
	key, err := v.unwrapKey(save.EncryptedKey, auth)
	if err != nil {
		return nil, err
	}
	content, err := crypto.DecryptBlob(key, ciphertext)
	if err != nil {
		return nil, err
	}
	if save.Hash != "" && crypto.HashContent(content) != save.Hash {
		return nil, fmt.Errorf("%w: content hash mismatch", bberrors.ErrDownload)
	}
	return content, nil
}

// DownloadByRef resolves a remote reference and downloads it.
func (v *Vault) DownloadByRef(ctx context.Context, ref string, auth *api.Auth) (*models.FileInfo, []byte, error) {
	info, err := v.Resolve(ctx, ref, auth)
	if err != nil {
		return nil, nil, err
	}
	content, err := v.Download(ctx, info.FileID, auth)
	if err != nil {
		return nil, nil, err
	}
	return info, content, nil
}

// Update replaces a file's content, reusing its existing content key so
// previously shared recipients keep access. Unchanged content is
// detected by hash and skipped; the bool reports whether an upload
// happened.
func (v *Vault) Update(ctx context.Context, fileID string, content []byte, auth *api.Auth) (bool, error) {
	info, err := v.api.FileInfoByID(ctx, fileID, auth)
	if err != nil {
		return false, err
	}
	hash := crypto.HashContent(content)
	if info.Hash == hash {
		return false, nil
	}
	key, err := v.unwrapKey(info.EncryptedKey, auth)
	if err != nil {
		return false, err
	}
	ciphertext, err := crypto.EncryptBlob(key, content)
	if err != nil {
		return false, fmt.Errorf("encrypt content: %w", err)
	}
	prep, err := v.api.PrepareUpdate(ctx, models.PrepareUpdateRequest{
		FileID: fileID,
		Bytes:  int64(len(ciphertext)),
		Hash:   hash,
	}, auth)
	if err != nil {
		return false, err
	}
	if err := v.api.UploadBlob(ctx, prep.UploadURL, ciphertext); err != nil {
		return false, err
	}
	if err := v.api.Store(ctx, fileID, auth); err != nil {
		return false, err
	}
	return true, nil
}

// Share grants recipients read access by re-wrapping the content key
// under each recipient's public key. Every recipient is resolved before
// any key is submitted, so an unknown username leaves no partial grant.
func (v *Vault) Share(ctx context.Context, ref string, recipients []string, auth *api.Auth) error {
	info, err := v.Resolve(ctx, ref, auth)
	if err != nil {
		return err
	}
	pubs := make(map[string]string, len(recipients))
	for _, username := range recipients {
		userInfo, err := v.api.UserInfo(ctx, username)
		if err != nil {
			return fmt.Errorf("resolve recipient %s: %w", username, err)
		}
		pubs[username] = userInfo.PublicKey
	}
	key, err := v.unwrapKey(info.EncryptedKey, auth)
	if err != nil {
		return err
	}
	wrappedKeys := make(map[string]string, len(pubs))
	for username, publicKey := range pubs {
		pub, err := crypto.ImportPublicKey(publicKey)
		if err != nil {
			return fmt.Errorf("recipient %s public key: %w", username, err)
		}
		wrapped, err := crypto.Wrap(key, pub)
		if err != nil {
			return fmt.Errorf("wrap key for %s: %w", username, err)
		}
		wrappedKeys[username] = hex.EncodeToString(wrapped)
	}
	return v.api.Share(ctx, info.FileID, wrappedKeys, auth)
}

// Delete removes a remote file by reference.
func (v *Vault) Delete(ctx context.Context, ref string, auth *api.Auth) error {
	info, err := v.Resolve(ctx, ref, auth)
	if err != nil {
		return err
	}
	return v.api.Delete(ctx, info.FileID, auth)
}

// unwrapKey decodes the hex-encoded wrapped content key and unwraps it
// with the caller's private key.
func (v *Vault) unwrapKey(encryptedKey string, auth *api.Auth) ([]byte, error) {
	wrapped, err := hex.DecodeString(encryptedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed wrapped key", bberrors.ErrDecryption)
	}
	priv, err := auth.PrivateKey()
	if err != nil {
		return nil, err
	}
	return crypto.Unwrap(wrapped, priv)
}

package api

import (
	"context"
	"net/http"

	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// UserInfo fetches a user's public key.
func (c *Client) UserInfo(ctx context.Context, username string) (*models.UserInfoResponse, error) {
	var out models.UserInfoResponse
	err := c.post(ctx, "user info", "/api/info/user", models.UserInfoRequest{Username: username}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterUser registers a username with its public key.
func (c *Client) RegisterUser(ctx context.Context, username, publicKey string) error {
	return c.post(ctx, "register user", "/api/auth/register/user", models.RegisterUserRequest{
		Username:  username,
		PublicKey: publicKey,
		Version:   Version,
	}, nil)
}

// PrepareStore reserves a slot for a new file and returns its identity
// and upload URL.
func (c *Client) PrepareStore(ctx context.Context, req models.PrepareStoreRequest, auth *Auth) (*models.PrepareStoreResponse, error) {
	var out models.PrepareStoreResponse
	err := c.authed(ctx, "prepare store", http.MethodPost, "/api/storage/prepare-store", req, auth, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PrepareUpdate reserves an upload slot for new content of an existing
// file.
func (c *Client) PrepareUpdate(ctx context.Context, req models.PrepareUpdateRequest, auth *Auth) (*models.PrepareUpdateResponse, error) {
	var out models.PrepareUpdateResponse
	err := c.authed(ctx, "prepare update", http.MethodPost, "/api/storage/prepare-update", req, auth, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Store finalizes an upload, making the file available for download.
func (c *Client) Store(ctx context.Context, fileID string, auth *Auth) error {
	return c.authed(ctx, "store", http.MethodPost, "/api/storage/store", models.StoreRequest{FileID: fileID}, auth, nil)
}

// Save asks for a download URL plus the caller-wrapped content key.
func (c *Client) Save(ctx context.Context, fileID string, auth *Auth) (*models.SaveResponse, error) {
	var out models.SaveResponse
	err := c.authed(ctx, "save", http.MethodPost, "/api/storage/save", models.SaveRequest{FileID: fileID}, auth, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Share submits the content key re-wrapped for each recipient.
func (c *Client) Share(ctx context.Context, fileID string, recipientKeys map[string]string, auth *Auth) error {
	return c.authed(ctx, "share", http.MethodPost, "/api/storage/share", models.ShareRequest{
		FileID:                 fileID,
		RecipientEncryptedKeys: recipientKeys,
	}, auth, nil)
}

// Delete removes a remote file.
func (c *Client) Delete(ctx context.Context, fileID string, auth *Auth) error {
	return c.authed(ctx, "delete", http.MethodPost, "/api/storage/delete", models.DeleteRequest{FileID: fileID}, auth, nil)
}

// FileInfo resolves file metadata by name. owner may be empty when the
// name is unambiguous for the caller.
func (c *Client) FileInfo(ctx context.Context, filename, owner string, auth *Auth) (*models.FileInfo, error) {
	var out models.FileInfo
	err := c.authed(ctx, "file info", http.MethodPost, "/api/info/file", models.FileInfoRequest{
		Filename: filename,
		Owner:    owner,
	}, auth, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FileInfoByID resolves file metadata by file ID.
func (c *Client) FileInfoByID(ctx context.Context, fileID string, auth *Auth) (*models.FileInfo, error) {
	var out models.FileInfo
	err := c.authed(ctx, "file info", http.MethodPost, "/api/info/file", models.FileInfoRequest{FileID: fileID}, auth, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FilesInfo lists every file the caller owns or has been granted.
func (c *Client) FilesInfo(ctx context.Context, auth *Auth) ([]models.FileInfo, error) {
	var out []models.FileInfo
	err := c.authed(ctx, "files info", http.MethodGet, "/api/info/files", nil, auth, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateOTC asks the server to mint a one-time code for key escrow.
// The code comes back as a hex string.
func (c *Client) GenerateOTC(ctx context.Context, auth *Auth) (string, error) {
	return c.authedText(ctx, "generate otc", http.MethodGet, "/api/auth/recover/generate-otc", nil, auth)
}

// PushEncryptedKey escrows the OTC-encrypted private key blob.
func (c *Client) PushEncryptedKey(ctx context.Context, blob string, auth *Auth) error {
	return c.authed(ctx, "push encrypted key", http.MethodPost, "/api/auth/recover/push-encrypted-key", models.PushEncryptedKeyRequest{
		EncryptedPrivateKey: blob,
		Version:             Version,
	}, auth, nil)
}

// RecoverKeys fetches the escrow blob for username. When otc is empty
// the server only confirms an escrow exists.
func (c *Client) RecoverKeys(ctx context.Context, username, otcCode string) (string, error) {
	return c.text(ctx, "recover keys", "/api/auth/recover/recover-keys", models.RecoverKeysRequest{
		Username: username,
		OTC:      otcCode,
		Version:  Version,
	})
}

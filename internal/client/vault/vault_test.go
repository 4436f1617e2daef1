package vault

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/client/api"
	"github.com/trehansiddharth/bitbox-client/internal/crypto"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// mockAPI records calls and returns preconfigured results.
type mockAPI struct {
	UserInfoFunc      func(ctx context.Context, username string) (*models.UserInfoResponse, error)
	PrepareStoreFunc  func(ctx context.Context, req models.PrepareStoreRequest, auth *api.Auth) (*models.PrepareStoreResponse, error)
	PrepareUpdateFunc func(ctx context.Context, req models.PrepareUpdateRequest, auth *api.Auth) (*models.PrepareUpdateResponse, error)
	StoreFunc         func(ctx context.Context, fileID string, auth *api.Auth) error
	SaveFunc          func(ctx context.Context, fileID string, auth *api.Auth) (*models.SaveResponse, error)
	ShareFunc         func(ctx context.Context, fileID string, recipientKeys map[string]string, auth *api.Auth) error
	DeleteFunc        func(ctx context.Context, fileID string, auth *api.Auth) error
	FileInfoFunc      func(ctx context.Context, filename, owner string, auth *api.Auth) (*models.FileInfo, error)
	FileInfoByIDFunc  func(ctx context.Context, fileID string, auth *api.Auth) (*models.FileInfo, error)
	FilesInfoFunc     func(ctx context.Context, auth *api.Auth) ([]models.FileInfo, error)
	UploadBlobFunc    func(ctx context.Context, uploadURL string, blob []byte) error
	DownloadBlobFunc  func(ctx context.Context, downloadURL string) ([]byte, error)
}

func (m *mockAPI) UserInfo(ctx context.Context, username string) (*models.UserInfoResponse, error) {
	return m.UserInfoFunc(ctx, username)
}
func (m *mockAPI) PrepareStore(ctx context.Context, req models.PrepareStoreRequest, auth *api.Auth) (*models.PrepareStoreResponse, error) {
	return m.PrepareStoreFunc(ctx, req, auth)
}
func (m *mockAPI) PrepareUpdate(ctx context.Context, req models.PrepareUpdateRequest, auth *api.Auth) (*models.PrepareUpdateResponse, error) {
	return m.PrepareUpdateFunc(ctx, req, auth)
}
func (m *mockAPI) Store(ctx context.Context, fileID string, auth *api.Auth) error {
	return m.StoreFunc(ctx, fileID, auth)
}
func (m *mockAPI) Save(ctx context.Context, fileID string, auth *api.Auth) (*models.SaveResponse, error) {
	return m.SaveFunc(ctx, fileID, auth)
}
func (m *mockAPI) Share(ctx context.Context, fileID string, recipientKeys map[string]string, auth *api.Auth) error {
	return m.ShareFunc(ctx, fileID, recipientKeys, auth)
}
func (m *mockAPI) Delete(ctx context.Context, fileID string, auth *api.Auth) error {
	return m.DeleteFunc(ctx, fileID, auth)
}
func (m *mockAPI) FileInfo(ctx context.Context, filename, owner string, auth *api.Auth) (*models.FileInfo, error) {
	return m.FileInfoFunc(ctx, filename, owner, auth)
}
func (m *mockAPI) FileInfoByID(ctx context.Context, fileID string, auth *api.Auth) (*models.FileInfo, error) {
	return m.FileInfoByIDFunc(ctx, fileID, auth)
}
func (m *mockAPI) FilesInfo(ctx context.Context, auth *api.Auth) ([]models.FileInfo, error) {
	return m.FilesInfoFunc(ctx, auth)
}
func (m *mockAPI) UploadBlob(ctx context.Context, uploadURL string, blob []byte) error {
	return m.UploadBlobFunc(ctx, uploadURL, blob)
}
func (m *mockAPI) DownloadBlob(ctx context.Context, downloadURL string) ([]byte, error) {
	return m.DownloadBlobFunc(ctx, downloadURL)
}

func testAuth(t *testing.T) (*api.Auth, string) {
	t.Helper()
	priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	pubPEM, err := crypto.ExportPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("ExportPublicKey: %v", err)
	}
	auth := &api.Auth{KeyInfo: models.KeyInfo{
		Username:   "alice",
		PublicKey:  pubPEM,
		PrivateKey: crypto.ExportPrivateKey(priv),
	}}
	return auth, pubPEM
}

// wrapFor wraps a content key for the auth's public key, hex encoded
// the way the server stores it.
func wrapFor(t *testing.T, auth *api.Auth, key []byte) string {
	t.Helper()
	pub, err := crypto.ImportPublicKey(auth.KeyInfo.PublicKey)
	if err != nil {
		t.Fatalf("ImportPublicKey: %v", err)
	}
	wrapped, err := crypto.Wrap(key, pub)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	return hex.EncodeToString(wrapped)
}

func TestParseRemotePath(t *testing.T) {
	owner, name := ParseRemotePath("@bob/report.txt")
	if owner != "bob" || name != "report.txt" {
		t.Errorf("ParseRemotePath = (%q, %q); want (bob, report.txt)", owner, name)
	}
	owner, name = ParseRemotePath("report.txt")
	if owner != "" || name != "report.txt" {
		t.Errorf("ParseRemotePath = (%q, %q); want (, report.txt)", owner, name)
	}
}

func TestUploadStoresCiphertext(t *testing.T) {
	auth, _ := testAuth(t)
	content := []byte("plain content")

	var uploaded []byte
	var stored string
	m := &mockAPI{
		PrepareStoreFunc: func(ctx context.Context, req models.PrepareStoreRequest, _ *api.Auth) (*models.PrepareStoreResponse, error) {
			if req.Hash != crypto.HashContent(content) {
				t.Errorf("prepare hash = %q; want hash of plaintext", req.Hash)
			}
			if req.Bytes != int64(len(content))+28 {
				// 12-byte nonce plus 16-byte GCM tag
				t.Errorf("prepare bytes = %d; want ciphertext length %d", req.Bytes, len(content)+28)
			}
			return &models.PrepareStoreResponse{FileID: "f1", UploadURL: "u"}, nil
		},
		UploadBlobFunc: func(ctx context.Context, uploadURL string, blob []byte) error {
			uploaded = blob
			return nil
		},
		StoreFunc: func(ctx context.Context, fileID string, _ *api.Auth) error {
			stored = fileID
			return nil
		},
	}

	fileID, err := New(m).Upload(context.Background(), "notes.txt", content, false, auth)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if fileID != "f1" || stored != "f1" {
		t.Errorf("fileID = %q, stored = %q; want f1", fileID, stored)
	}
	if len(uploaded) == 0 || string(uploaded) == string(content) {
		t.Error("uploaded bytes are missing or not encrypted")
	}
}

func TestUploadOverwriteRetriesOnce(t *testing.T) {
	auth, _ := testAuth(t)
	prepares, deleted := 0, false
	m := &mockAPI{
		PrepareStoreFunc: func(ctx context.Context, req models.PrepareStoreRequest, _ *api.Auth) (*models.PrepareStoreResponse, error) {
			prepares++
			if prepares == 1 {
				return nil, bberrors.NewServer("prepare store", bberrors.CodeFileExists)
			}
			return &models.PrepareStoreResponse{FileID: "f2", UploadURL: "u"}, nil
		},
		FileInfoFunc: func(ctx context.Context, filename, owner string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: "f1", Name: filename}, nil
		},
		DeleteFunc: func(ctx context.Context, fileID string, _ *api.Auth) error {
			deleted = fileID == "f1"
			return nil
		},
		UploadBlobFunc: func(ctx context.Context, uploadURL string, blob []byte) error { return nil },
		StoreFunc:      func(ctx context.Context, fileID string, _ *api.Auth) error { return nil },
	}

	fileID, err := New(m).Upload(context.Background(), "notes.txt", []byte("x"), true, auth)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if fileID != "f2" {
		t.Errorf("fileID = %q; want f2", fileID)
	}
	if !deleted {
		t.Error("existing file was not deleted before the retry")
	}
	if prepares != 2 {
		t.Errorf("prepare called %d times; want 2", prepares)
	}
}

func TestUploadFileExistsWithoutOverwrite(t *testing.T) {
	auth, _ := testAuth(t)
	m := &mockAPI{
		PrepareStoreFunc: func(ctx context.Context, req models.PrepareStoreRequest, _ *api.Auth) (*models.PrepareStoreResponse, error) {
			return nil, bberrors.NewServer("prepare store", bberrors.CodeFileExists)
		},
	}
	_, err := New(m).Upload(context.Background(), "notes.txt", []byte("x"), false, auth)
	if !bberrors.IsCode(err, bberrors.CodeFileExists) {
		t.Errorf("Upload = %v; want code file-exists", err)
	}
}

func TestUploadFileTooLargeNeverRetried(t *testing.T) {
	auth, _ := testAuth(t)
	prepares := 0
	m := &mockAPI{
		PrepareStoreFunc: func(ctx context.Context, req models.PrepareStoreRequest, _ *api.Auth) (*models.PrepareStoreResponse, error) {
			prepares++
			return nil, bberrors.NewServer("prepare store", bberrors.CodeFileTooLarge)
		},
	}
	_, err := New(m).Upload(context.Background(), "big.bin", []byte("x"), true, auth)
	if !bberrors.IsCode(err, bberrors.CodeFileTooLarge) {
		t.Errorf("Upload = %v; want code file-too-large", err)
	}
	if prepares != 1 {
		t.Errorf("prepare called %d times; want 1", prepares)
	}
}

func TestDownloadRoundTrip(t *testing.T) {
	auth, _ := testAuth(t)
	content := []byte("the secret document")
	key, _ := crypto.NewContentKey()
	ciphertext, err := crypto.EncryptBlob(key, content)
	if err != nil {
		t.Fatalf("EncryptBlob: %v", err)
	}

	m := &mockAPI{
		SaveFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.SaveResponse, error) {
			return &models.SaveResponse{
				DownloadURL:  "d",
				EncryptedKey: wrapFor(t, auth, key),
				Hash:         crypto.HashContent(content),
			}, nil
		},
		DownloadBlobFunc: func(ctx context.Context, downloadURL string) ([]byte, error) {
			return ciphertext, nil
		},
	}

	back, err := New(m).Download(context.Background(), "f1", auth)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(back) != string(content) {
		t.Errorf("Download = %q; want %q", back, content)
	}
}

func TestDownloadHashMismatchFailsClosed(t *testing.T) {
	auth, _ := testAuth(t)
	key, _ := crypto.NewContentKey()
	ciphertext, _ := crypto.EncryptBlob(key, []byte("tampered content"))

	m := &mockAPI{
		SaveFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.SaveResponse, error) {
			return &models.SaveResponse{
				DownloadURL:  "d",
				EncryptedKey: wrapFor(t, auth, key),
				Hash:         crypto.HashContent([]byte("expected content")),
			}, nil
		},
		DownloadBlobFunc: func(ctx context.Context, downloadURL string) ([]byte, error) {
			return ciphertext, nil
		},
	}

	_, err := New(m).Download(context.Background(), "f1", auth)
	if !errors.Is(err, bberrors.ErrDownload) {
		t.Errorf("Download = %v; want ErrDownload", err)
	}
}

func TestUpdateShortCircuitsOnEqualHash(t *testing.T) {
	auth, _ := testAuth(t)
	content := []byte("unchanged")
	m := &mockAPI{
		FileInfoByIDFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: fileID, Hash: crypto.HashContent(content)}, nil
		},
	}
	changed, err := New(m).Update(context.Background(), "f1", content, auth)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if changed {
		t.Error("Update reported a transfer for unchanged content")
	}
}

func TestUpdateReusesContentKey(t *testing.T) {
	auth, _ := testAuth(t)
	key, _ := crypto.NewContentKey()
	newContent := []byte("version two")

	var uploaded []byte
	m := &mockAPI{
		FileInfoByIDFunc: func(ctx context.Context, fileID string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{
				FileID:       fileID,
				Hash:         crypto.HashContent([]byte("version one")),
				EncryptedKey: wrapFor(t, auth, key),
			}, nil
		},
		PrepareUpdateFunc: func(ctx context.Context, req models.PrepareUpdateRequest, _ *api.Auth) (*models.PrepareUpdateResponse, error) {
			if req.Hash != crypto.HashContent(newContent) {
				t.Errorf("staged hash = %q; want hash of new content", req.Hash)
			}
			return &models.PrepareUpdateResponse{UploadURL: "u"}, nil
		},
		UploadBlobFunc: func(ctx context.Context, uploadURL string, blob []byte) error {
			uploaded = blob
			return nil
		},
		StoreFunc: func(ctx context.Context, fileID string, _ *api.Auth) error { return nil },
	}

	changed, err := New(m).Update(context.Background(), "f1", newContent, auth)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !changed {
		t.Fatal("Update reported no transfer")
	}
	// The reused key must open the fresh ciphertext.
	back, err := crypto.DecryptBlob(key, uploaded)
	if err != nil {
		t.Fatalf("uploaded ciphertext not sealed under the existing key: %v", err)
	}
	if string(back) != string(newContent) {
		t.Errorf("ciphertext decrypts to %q; want %q", back, newContent)
	}
}

func TestShareResolvesAllRecipientsFirst(t *testing.T) {
	auth, _ := testAuth(t)
	key, _ := crypto.NewContentKey()
	shared := false
	m := &mockAPI{
		FileInfoFunc: func(ctx context.Context, filename, owner string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: "f1", EncryptedKey: wrapFor(t, auth, key)}, nil
		},
		UserInfoFunc: func(ctx context.Context, username string) (*models.UserInfoResponse, error) {
			if username == "ghost" {
				return nil, bberrors.NewServer("user info", bberrors.CodeUserNotFound)
			}
			return &models.UserInfoResponse{PublicKey: auth.KeyInfo.PublicKey}, nil
		},
		ShareFunc: func(ctx context.Context, fileID string, recipientKeys map[string]string, _ *api.Auth) error {
			shared = true
			return nil
		},
	}

	err := New(m).Share(context.Background(), "notes.txt", []string{"bob", "ghost"}, auth)
	if !bberrors.IsCode(err, bberrors.CodeUserNotFound) {
		t.Fatalf("Share = %v; want code user-not-found", err)
	}
	if shared {
		t.Error("share was submitted despite an unknown recipient")
	}
}

func TestShareWrapsKeyPerRecipient(t *testing.T) {
	auth, _ := testAuth(t)
	key, _ := crypto.NewContentKey()

	recipientPriv, _ := crypto.GenerateKeyPair()
	recipientPub, _ := crypto.ExportPublicKey(&recipientPriv.PublicKey)

	var granted map[string]string
	m := &mockAPI{
		FileInfoFunc: func(ctx context.Context, filename, owner string, _ *api.Auth) (*models.FileInfo, error) {
			return &models.FileInfo{FileID: "f1", EncryptedKey: wrapFor(t, auth, key)}, nil
		},
		UserInfoFunc: func(ctx context.Context, username string) (*models.UserInfoResponse, error) {
			return &models.UserInfoResponse{PublicKey: recipientPub}, nil
		},
		ShareFunc: func(ctx context.Context, fileID string, recipientKeys map[string]string, _ *api.Auth) error {
			granted = recipientKeys
			return nil
		},
	}

	if err := New(m).Share(context.Background(), "notes.txt", []string{"bob"}, auth); err != nil {
		t.Fatalf("Share: %v", err)
	}
	wrapped, err := hex.DecodeString(granted["bob"])
	if err != nil {
		t.Fatalf("granted key is not hex: %v", err)
	}
	back, err := crypto.Unwrap(wrapped, recipientPriv)
	if err != nil {
		t.Fatalf("recipient cannot unwrap the granted key: %v", err)
	}
	if string(back) != string(key) {
		t.Error("granted key differs from the file's content key")
	}
}

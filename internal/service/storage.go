package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// StorageRepository defines the persistence operations needed by the
// StorageService.
type StorageRepository interface {
	CreateFile(ctx context.Context, info models.FileInfo, blobToken string) error
	FileNameTaken(ctx context.Context, owner, name string) (bool, error)
	FileByName(ctx context.Context, viewer, name, owner string) (models.FileInfo, string, error)
	FileByID(ctx context.Context, viewer, fileID string) (models.FileInfo, string, error)
	FileOwner(ctx context.Context, fileID string) (string, error)
	FilesForUser(ctx context.Context, viewer string) ([]models.FileInfo, error)
	SharedWith(ctx context.Context, fileID string) ([]string, error)
	UpdateInFlight(ctx context.Context, fileID string) (bool, error)
	StageUpdate(ctx context.Context, fileID string, bytes int64, hash string) error
	Finalize(ctx context.Context, fileID string, lastModified int64) error
	AddKey(ctx context.Context, fileID, username, encryptedKey string) error
	DeleteFile(ctx context.Context, fileID string) error
}

// BlobStore abstracts the bulk ciphertext store behind upload and
// download URLs handed to clients.
type BlobStore interface {
	UploadURL(token string) string
	DownloadURL(token string) string
	Delete(token string) error
}

// StorageService implements file metadata and key grant business logic.
// It never sees plaintext or unwrapped content keys.
type StorageService struct {
	repo     StorageRepository
	blobs    BlobStore
	users    AuthRepository
	maxBytes int64
}

// NewStorageService constructs a StorageService. maxBytes caps the
// accepted ciphertext size.
func NewStorageService(repo StorageRepository, blobs BlobStore, users AuthRepository, maxBytes int64) *StorageService {
	return &StorageService{repo: repo, blobs: blobs, users: users, maxBytes: maxBytes}
}

func now() int64 {
	return time.Now().UnixMilli()
}

// PrepareStore reserves a slot for a new file owned by owner and
// returns its identity and upload URL. The file stays pending until
// Store finalizes it.
func (s *StorageService) PrepareStore(ctx context.Context, owner string, req models.PrepareStoreRequest) (*models.PrepareStoreResponse, error) {
	if req.Filename == "" {
		return nil, bberrors.NewServer("prepare store", bberrors.CodeFilenameNotSpecific)
	}
	if req.Bytes <= 0 {
		return nil, bberrors.NewServer("prepare store", bberrors.CodeInvalidNumBytes)
	}
	if req.Bytes > s.maxBytes {
		return nil, bberrors.NewServer("prepare store", bberrors.CodeFileTooLarge)
	}
	taken, err := s.repo.FileNameTaken(ctx, owner, req.Filename)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, bberrors.NewServer("prepare store", bberrors.CodeFileExists)
	}

	fileID := uuid.NewString()
	blobToken := uuid.NewString()
	err = s.repo.CreateFile(ctx, models.FileInfo{
		FileID:       fileID,
		Name:         req.Filename,
		Owner:        owner,
		Bytes:        req.Bytes,
		Hash:         req.Hash,
		LastModified: now(),
		EncryptedKey: req.PersonalEncryptedKey,
	}, blobToken)
	if err != nil {
		return nil, err
	}
	return &models.PrepareStoreResponse{
		FileID:    fileID,
		UploadURL: s.blobs.UploadURL(blobToken),
	}, nil
}

// PrepareUpdate stages new content for an existing file and returns the
// upload URL. Only the owner may update.
func (s *StorageService) PrepareUpdate(ctx context.Context, owner string, req models.PrepareUpdateRequest) (*models.PrepareUpdateResponse, error) {
	if req.Bytes <= 0 {
		return nil, bberrors.NewServer("prepare update", bberrors.CodeInvalidNumBytes)
	}
	if req.Bytes > s.maxBytes {
		return nil, bberrors.NewServer("prepare update", bberrors.CodeFileTooLarge)
	}
	info, blobToken, err := s.repo.FileByID(ctx, owner, req.FileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bberrors.NewServer("prepare update", bberrors.CodeFileNotFound)
	}
	if err != nil {
		return nil, err
	}
	if info.Owner != owner {
		return nil, bberrors.NewServer("prepare update", bberrors.CodeAccessDenied)
	}
	staged, err := s.repo.UpdateInFlight(ctx, req.FileID)
	if err != nil {
		return nil, err
	}
	if staged {
		return nil, bberrors.NewServer("prepare update", bberrors.CodeFileNotReady)
	}
	if err := s.repo.StageUpdate(ctx, req.FileID, req.Bytes, req.Hash); err != nil {
		return nil, err
	}
	return &models.PrepareUpdateResponse{UploadURL: s.blobs.UploadURL(blobToken)}, nil
}

// Store finalizes an upload, making the file content live.
func (s *StorageService) Store(ctx context.Context, owner, fileID string) error {
	fileOwner, err := s.repo.FileOwner(ctx, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return bberrors.NewServer("store", bberrors.CodeFileNotFound)
	}
	if err != nil {
		return err
	}
	if fileOwner != owner {
		return bberrors.NewServer("store", bberrors.CodeAccessDenied)
	}
	return s.repo.Finalize(ctx, fileID, now())
}

// Save returns a download URL plus the content key wrapped for viewer.
// A file whose content is being replaced is not served until the update
// finalizes, so readers never see new ciphertext under the old hash.
func (s *StorageService) Save(ctx context.Context, viewer, fileID string) (*models.SaveResponse, error) {
	info, blobToken, err := s.repo.FileByID(ctx, viewer, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bberrors.NewServer("save", bberrors.CodeFileNotFound)
	}
	if err != nil {
		return nil, err
	}
	staged, err := s.repo.UpdateInFlight(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if staged {
		return nil, bberrors.NewServer("save", bberrors.CodeFileNotReady)
	}
	return &models.SaveResponse{
		DownloadURL:  s.blobs.DownloadURL(blobToken),
		EncryptedKey: info.EncryptedKey,
		Hash:         info.Hash,
	}, nil
}

// Share grants recipients access to a file. Only the owner may share,
// and every recipient must exist; nothing is granted otherwise.
func (s *StorageService) Share(ctx context.Context, owner, fileID string, recipientKeys map[string]string) error {
	fileOwner, err := s.repo.FileOwner(ctx, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return bberrors.NewServer("share", bberrors.CodeFileNotFound)
	}
	if err != nil {
		return err
	}
	if fileOwner != owner {
		return bberrors.NewServer("share", bberrors.CodeAccessDenied)
	}
	for username := range recipientKeys {
		exists, err := s.users.UserExists(ctx, username)
		if err != nil {
			return err
		}
		if !exists {
			return bberrors.NewServer("share", bberrors.CodeUserNotFound)
		}
	}
	for username, encryptedKey := range recipientKeys {
		if err := s.repo.AddKey(ctx, fileID, username, encryptedKey); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a file, its grants, and its stored ciphertext. Only
// the owner may delete.
func (s *StorageService) Delete(ctx context.Context, owner, fileID string) error {
	fileOwner, err := s.repo.FileOwner(ctx, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return bberrors.NewServer("delete", bberrors.CodeFileNotFound)
	}
	if err != nil {
		return err
	}
	if fileOwner != owner {
		return bberrors.NewServer("delete", bberrors.CodeAccessDenied)
	}
	_, blobToken, err := s.repo.FileByID(ctx, owner, fileID)
	if err == nil {
		_ = s.blobs.Delete(blobToken)
	}
	return s.repo.DeleteFile(ctx, fileID)
}

// FileInfo resolves file metadata by name or ID for viewer.
func (s *StorageService) FileInfo(ctx context.Context, viewer string, req models.FileInfoRequest) (*models.FileInfo, error) {
	var info models.FileInfo
	var err error
	if req.FileID != "" {
		info, _, err = s.repo.FileByID(ctx, viewer, req.FileID)
	} else {
		info, _, err = s.repo.FileByName(ctx, viewer, req.Filename, req.Owner)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bberrors.NewServer("file info", bberrors.CodeFileNotFound)
	}
	if err != nil {
		return nil, err
	}
	info.SharedWith, err = s.repo.SharedWith(ctx, info.FileID)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// FilesInfo lists every file granted to viewer.
func (s *StorageService) FilesInfo(ctx context.Context, viewer string) ([]models.FileInfo, error) {
	files, err := s.repo.FilesForUser(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []models.FileInfo{}
	}
	return files, nil
}

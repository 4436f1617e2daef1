package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/trehansiddharth/bitbox-client/internal/middleware"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// StorageService defines the file metadata operations required by the
// HTTP handlers.
type StorageService interface {
	PrepareStore(ctx context.Context, owner string, req models.PrepareStoreRequest) (*models.PrepareStoreResponse, error)
	PrepareUpdate(ctx context.Context, owner string, req models.PrepareUpdateRequest) (*models.PrepareUpdateResponse, error)
	Store(ctx context.Context, owner, fileID string) error
	Save(ctx context.Context, viewer, fileID string) (*models.SaveResponse, error)
	Share(ctx context.Context, owner, fileID string, recipientKeys map[string]string) error
	Delete(ctx context.Context, owner, fileID string) error
	FileInfo(ctx context.Context, viewer string, req models.FileInfoRequest) (*models.FileInfo, error)
	FilesInfo(ctx context.Context, viewer string) ([]models.FileInfo, error)
}

// StorageHandler handles file storage and metadata requests. Every
// route is behind session authentication.
type StorageHandler struct {
	// StorageService performs the underlying storage operations.
	StorageService StorageService
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// PrepareStore reserves a slot for a new file.
func (h *StorageHandler) PrepareStore(w http.ResponseWriter, r *http.Request) {
	var req models.PrepareStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	owner := middleware.GetUserFromContext(r.Context())
	resp, err := h.StorageService.PrepareStore(r.Context(), owner, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resp)
}

// PrepareUpdate stages new content for an existing file.
func (h *StorageHandler) PrepareUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.PrepareUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileID == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	owner := middleware.GetUserFromContext(r.Context())
	resp, err := h.StorageService.PrepareUpdate(r.Context(), owner, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resp)
}

// Store finalizes an upload.
func (h *StorageHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req models.StoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileID == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	owner := middleware.GetUserFromContext(r.Context())
	if err := h.StorageService.Store(r.Context(), owner, req.FileID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Save answers with a download URL and the caller's wrapped key.
func (h *StorageHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileID == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	viewer := middleware.GetUserFromContext(r.Context())
	resp, err := h.StorageService.Save(r.Context(), viewer, req.FileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resp)
}

// Share grants recipients access to a file.
func (h *StorageHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req models.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileID == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	owner := middleware.GetUserFromContext(r.Context())
	if err := h.StorageService.Share(r.Context(), owner, req.FileID, req.RecipientEncryptedKeys); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Delete removes a file.
func (h *StorageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileID == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	owner := middleware.GetUserFromContext(r.Context())
	if err := h.StorageService.Delete(r.Context(), owner, req.FileID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// FileInfo resolves metadata for one file by name or ID.
func (h *StorageHandler) FileInfo(w http.ResponseWriter, r *http.Request) {
	var req models.FileInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	viewer := middleware.GetUserFromContext(r.Context())
	info, err := h.StorageService.FileInfo(r.Context(), viewer, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, info)
}

// FilesInfo lists every file visible to the caller.
func (h *StorageHandler) FilesInfo(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetUserFromContext(r.Context())
	files, err := h.StorageService.FilesInfo(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, files)
}

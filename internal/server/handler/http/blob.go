package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BlobStore defines the bulk ciphertext operations required by the
// blob handler.
type BlobStore interface {
	Put(token string, r io.Reader) error
	Open(token string) (io.ReadCloser, error)
}

// BlobHandler serves the upload and download URLs handed out by the
// storage service. Uploads follow the two-phase resumable protocol: a
// POST opens the session and answers 201 with a Location header, then a
// PUT to that location carries the bytes.
type BlobHandler struct {
	// Blobs is the underlying blob store.
	Blobs BlobStore
}

// Begin opens an upload session for a blob token.
func (h *BlobHandler) Begin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("x-goog-resumable") != "start" {
		http.Error(w, "resumable session required", http.StatusBadRequest)
		return
	}
	w.Header().Set("Location", r.URL.String())
	w.WriteHeader(http.StatusCreated)
}

// Upload stores the blob bytes.
func (h *BlobHandler) Upload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.Blobs.Put(token, r.Body); err != nil {
		http.Error(w, "store blob failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Download streams the blob bytes back.
func (h *BlobHandler) Download(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	blob, err := h.Blobs.Open(token)
	if err != nil {
		http.Error(w, "blob not found", http.StatusNotFound)
		return
	}
	defer blob.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, blob)
}

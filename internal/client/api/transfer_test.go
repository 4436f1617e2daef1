package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
)

// blobServer fakes a resumable object store: POST opens a session, PUT
// stores the bytes, GET returns them.
func blobServer(t *testing.T) (*httptest.Server, *[]byte) {
	t.Helper()
	var stored []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if r.Header.Get("x-goog-resumable") != "start" {
				http.Error(w, "no resumable header", http.StatusBadRequest)
				return
			}
			w.Header().Set("Location", "http://"+r.Host+"/blob")
			w.WriteHeader(http.StatusCreated)
		case http.MethodPut:
			data, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "read failed", http.StatusInternalServerError)
				return
			}
			stored = data
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			_, _ = w.Write(stored)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &stored
}

func TestUploadDownloadBlob(t *testing.T) {
	server, stored := blobServer(t)
	client := New(server.URL, server.Client())

	blob := []byte("ciphertext bytes")
	if err := client.UploadBlob(context.Background(), server.URL+"/blob", blob); err != nil {
		t.Fatalf("UploadBlob: %v", err)
	}
	if !bytes.Equal(*stored, blob) {
		t.Errorf("stored = %q; want %q", *stored, blob)
	}

	back, err := client.DownloadBlob(context.Background(), server.URL+"/blob")
	if err != nil {
		t.Fatalf("DownloadBlob: %v", err)
	}
	if !bytes.Equal(back, blob) {
		t.Errorf("downloaded = %q; want %q", back, blob)
	}
}

func TestUploadBlobSessionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	client := New(server.URL, server.Client())

	err := client.UploadBlob(context.Background(), server.URL+"/blob", []byte("x"))
	if !errors.Is(err, bberrors.ErrUpload) {
		t.Errorf("UploadBlob = %v; want ErrUpload", err)
	}
}

func TestDownloadBlobMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	client := New(server.URL, server.Client())

	_, err := client.DownloadBlob(context.Background(), server.URL+"/blob")
	if !errors.Is(err, bberrors.ErrDownload) {
		t.Errorf("DownloadBlob = %v; want ErrDownload", err)
	}
}

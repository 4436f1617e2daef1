package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/trehansiddharth/bitbox-client/internal/middleware"
	"github.com/trehansiddharth/bitbox-client/internal/models"
)

// AuthService defines the authentication and recovery operations
// required by the HTTP handlers.
type AuthService interface {
	Register(ctx context.Context, username, publicKey string) error
	PublicKey(ctx context.Context, username string) (string, error)
	Challenge(ctx context.Context, username string) (string, error)
	Login(ctx context.Context, username, challengeResponse string) (string, error)
	GenerateOTC(ctx context.Context, username string) (string, error)
	PushEscrow(ctx context.Context, username, blob string) error
	RecoverKeys(ctx context.Context, username, otcCode string) (string, error)
}

// AuthHandler handles registration, login, and key recovery requests.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// UserInfo answers with the public key of the requested user.
func (h *AuthHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	var req models.UserInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	publicKey, err := h.AuthService.PublicKey(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.UserInfoResponse{PublicKey: publicKey})
}

// Register creates a new account from a username and public key.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !versionSupported(req.Version) {
		writeVersionError(w)
		return
	}
	if err := h.AuthService.Register(r.Context(), req.Username, req.PublicKey); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Challenge answers with a login challenge encrypted under the user's
// public key, as hex text.
func (h *AuthHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	var req models.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	challenge, err := h.AuthService.Challenge(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(challenge))
}

// Login verifies a challenge answer and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !versionSupported(req.Version) {
		writeVersionError(w)
		return
	}
	token, err := h.AuthService.Login(r.Context(), req.Username, req.ChallengeResponse)
	if err != nil {
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusOK)
}

// GenerateOTC mints a one-time code for the authenticated user and
// answers with its hex form as text.
func (h *AuthHandler) GenerateOTC(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUserFromContext(r.Context())
	code, err := h.AuthService.GenerateOTC(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(code))
}

// PushEncryptedKey stores the escrowed private key blob for the
// authenticated user.
func (h *AuthHandler) PushEncryptedKey(w http.ResponseWriter, r *http.Request) {
	var req models.PushEncryptedKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EncryptedPrivateKey == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !versionSupported(req.Version) {
		writeVersionError(w)
		return
	}
	username := middleware.GetUserFromContext(r.Context())
	if err := h.AuthService.PushEscrow(r.Context(), username, req.EncryptedPrivateKey); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// RecoverKeys releases the escrow blob as text. This endpoint is
// unauthenticated; the one-time code, when given, gates the release.
func (h *AuthHandler) RecoverKeys(w http.ResponseWriter, r *http.Request) {
	var req models.RecoverKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !versionSupported(req.Version) {
		writeVersionError(w)
		return
	}
	blob, err := h.AuthService.RecoverKeys(r.Context(), req.Username, req.OTC)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(blob))
}

package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"

	"github.com/trehansiddharth/bitbox-client/internal/middleware"
)

// NewRouter constructs the HTTP handler serving the bitbox API.
//
// Routes:
//
//	POST /api/info/user                      → authHandler.UserInfo
//	POST /api/auth/register/user             → authHandler.Register
//	POST /api/auth/login/challenge           → authHandler.Challenge
//	POST /api/auth/login/login               → authHandler.Login
//	POST /api/auth/recover/recover-keys      → authHandler.RecoverKeys
//	GET  /api/auth/recover/generate-otc      → authHandler.GenerateOTC      (session)
//	POST /api/auth/recover/push-encrypted-key → authHandler.PushEncryptedKey (session)
//	POST /api/storage/*                      → storageHandler.*             (session)
//	POST /api/info/file, GET /api/info/files → storageHandler.*             (session)
//	POST/PUT/GET /blob/{token}               → blobHandler.*
//
// The blob routes back the upload and download URLs minted by the
// storage service and carry their own unguessable tokens instead of
// session auth.
func NewRouter(
	authHandler *AuthHandler,
	storageHandler *StorageHandler,
	blobHandler *BlobHandler,
	sessions middleware.SessionValidator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/info/user", authHandler.UserInfo)
		r.Post("/auth/register/user", authHandler.Register)
		r.Post("/auth/login/challenge", authHandler.Challenge)
		r.Post("/auth/login/login", authHandler.Login)
		r.Post("/auth/recover/recover-keys", authHandler.RecoverKeys)

		// Protected group: requires a valid session cookie
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(sessions))

			r.Get("/auth/recover/generate-otc", authHandler.GenerateOTC)
			r.Post("/auth/recover/push-encrypted-key", authHandler.PushEncryptedKey)

			r.Post("/storage/prepare-store", storageHandler.PrepareStore)
			r.Post("/storage/prepare-update", storageHandler.PrepareUpdate)
			r.Post("/storage/store", storageHandler.Store)
			r.Post("/storage/save", storageHandler.Save)
			r.Post("/storage/share", storageHandler.Share)
			r.Post("/storage/delete", storageHandler.Delete)

			r.Post("/info/file", storageHandler.FileInfo)
			r.Get("/info/files", storageHandler.FilesInfo)
		})
	})

	r.Route("/blob/{token}", func(r chi.Router) {
		r.Post("/", blobHandler.Begin)
		r.Put("/", blobHandler.Upload)
		r.Get("/", blobHandler.Download)
	})

	return r
}

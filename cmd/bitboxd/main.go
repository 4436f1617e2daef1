// Package main starts the bitbox server: configuration, logging,
// database, blob storage, repositories, services, and the HTTP router.
package main

import (
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/trehansiddharth/bitbox-client/internal/config"
	"github.com/trehansiddharth/bitbox-client/internal/db"
	"github.com/trehansiddharth/bitbox-client/internal/logger"
	"github.com/trehansiddharth/bitbox-client/internal/repository"
	"github.com/trehansiddharth/bitbox-client/internal/server/blob"
	"github.com/trehansiddharth/bitbox-client/internal/server/handler/http"
	"github.com/trehansiddharth/bitbox-client/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// orElse returns v if it is non-empty, otherwise fallback (cmp.Or
// equivalent; cmp.Or needs Go 1.22 and the local toolchain is 1.21).
func orElse(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", orElse(version, "N/A"))
	fmt.Printf("Build date: %s\n", orElse(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Clean expired sessions and challenges in the background.
	db.StartExpiryCleaner(context.Background(), postgresDB, time.Hour, zapLogger)

	// Initialize blob storage for ciphertext.
	blobs, err := blob.NewDiskStore(options.BlobDir, options.BaseURL)
	if err != nil {
		zapLogger.Fatal("cannot init blob storage", zap.Error(err))
	}

	// Initialize repositories for accounts and file metadata.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	storageRepo := repository.NewPostgresStorageRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo)
	storageService := service.NewStorageService(storageRepo, blobs, authRepo, options.MaxFileBytes)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService}
	storageHandler := &http.StorageHandler{StorageService: storageService}
	blobHandler := &http.BlobHandler{Blobs: blobs}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, storageHandler, blobHandler, authService, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Address,
		Handler: router,
	}

	zapLogger.Info("starting server", zap.String("addr", options.Address))
	if options.TLSCert != "" && options.TLSKey != "" {
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
}

// Package config provides configuration for the bitbox server from
// command-line flags, a .env file, environment variables, and an
// optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the server.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string

	// BaseURL is the externally reachable address embedded in upload and
	// download URLs.
	BaseURL string

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string

	// BlobDir is the directory ciphertext blobs are stored under.
	BlobDir string

	// MaxFileBytes caps the accepted ciphertext size.
	MaxFileBytes int64

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string
	TLSKey  string

	// Config is the path to the config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Address, "a", "localhost:8000", "run on ip:port server")
	flag.StringVar(&options.BaseURL, "b", "http://localhost:8000", "base url for blob links")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.BlobDir, "blobs", "blobs", "blob storage directory")
	flag.Int64Var(&options.MaxFileBytes, "max-bytes", 64<<20, "maximum ciphertext size in bytes")
	flag.StringVar(&options.TLSCert, "tls-cert", "", "path to TLS certificate")
	flag.StringVar(&options.TLSKey, "tls-key", "", "path to TLS key")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags, .env file, and environment
// variables into the Options struct.
func Parse() *Options {
	flag.Parse()

	// A missing .env file is fine; it only supplies defaults.
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Address = serverAddress
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		options.BaseURL = baseURL
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if blobDir := os.Getenv("BLOB_DIR"); blobDir != "" {
		options.BlobDir = blobDir
	}

	return options
}

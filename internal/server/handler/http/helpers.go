// Package http provides the HTTP handlers of the bitbox API.
package http

import (
	"net/http"
	"strings"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
)

// apiVersion is the protocol generation this server speaks. Clients
// announcing a different generation are rejected before any state
// changes.
const apiVersion = "0.1"

func versionSupported(version string) bool {
	return strings.HasPrefix(version, apiVersion+".")
}

// statusOf maps a wire error code to its HTTP status.
func statusOf(code bberrors.Code) int {
	switch code {
	case bberrors.CodeAuthenticationFailed:
		return http.StatusUnauthorized
	case bberrors.CodeAccessDenied:
		return http.StatusForbidden
	case bberrors.CodeUserNotFound, bberrors.CodeFileNotFound, bberrors.CodeRecoveryNotReady:
		return http.StatusNotFound
	case bberrors.CodeUserExists, bberrors.CodeFileExists, bberrors.CodeFileNotReady:
		return http.StatusConflict
	case bberrors.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case bberrors.CodeServerSideError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeError reports a failure as the bare wire error code. Unexpected
// errors collapse to server-side-error so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	code := bberrors.CodeOf(err)
	if code == "" {
		code = bberrors.CodeServerSideError
	}
	http.Error(w, string(code), statusOf(code))
}

func writeVersionError(w http.ResponseWriter) {
	http.Error(w, string(bberrors.CodeInvalidVersion), http.StatusBadRequest)
}

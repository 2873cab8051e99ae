package transport

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/pkg/logger"
)

// BaseHandler carries the response helpers every REST handler embeds.
type BaseHandler struct{}

func (h BaseHandler) WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L().Error("failed to encode response", "error", err)
	}
}

func (h BaseHandler) WriteError(w http.ResponseWriter, err error) {
	WriteAppError(w, err)
}

// WriteAppError renders any error as the standard error envelope,
// wrapping non-AppError values as opaque internal errors.
func WriteAppError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		logger.L().Error("unexpected error reached handler", "error", err)
		appErr = internal.NewInternalError("An unexpected error occurred", err)
	}

	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		logger.L().Error("failed to encode error response", "error", encodeErr)
	}
}

// ExtractTokenFromHeader pulls the bearer token out of an
// Authorization header, returning "" when absent or malformed.
func ExtractTokenFromHeader(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

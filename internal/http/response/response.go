// Package response writes JSON bodies and error shapes for handlers that sit
// outside the huma operation layer (multipart upload, media, middleware).
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

// MsgServerError is the body detail of every 5xx response.
const MsgServerError = "A server error occurred."

// Detail is the error body for everything except field validation.
type Detail struct {
	Detail string `json:"detail"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Success writes a 200 response.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes {"detail": message}.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, Detail{Detail: message}, logger)
}

// Fields writes a 400 with one message list per field.
func Fields(w http.ResponseWriter, fields domainerrors.FieldErrors, logger *slog.Logger) {
	JSON(w, http.StatusBadRequest, fields, logger)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, message, logger)
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}

// InternalError writes a 500 response without leaking the cause.
func InternalError(w http.ResponseWriter, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, MsgServerError, logger)
}

// HandleError writes the response matching err. Domain validation errors
// with field detail become {field:[msg]}; other domain and store errors keep
// their status with a detail message; anything else is a logged 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		switch {
		case len(domainErr.Fields) > 0:
			Fields(w, domainErr.Fields, logger)
		case domainErr.HTTPStatus() >= http.StatusInternalServerError:
			if logger != nil {
				logger.Error("Request failed", "error", err)
			}
			Error(w, domainErr.HTTPStatus(), MsgServerError, logger)
		default:
			Error(w, domainErr.HTTPStatus(), domainErr.Message, logger)
		}
		return
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) && storeErr.HTTPCode() < http.StatusInternalServerError {
		Error(w, storeErr.HTTPCode(), storeErr.Message, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	InternalError(w, logger)
}

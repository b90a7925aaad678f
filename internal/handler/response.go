package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/auth-service/internal/apperror"
)

// ErrorResponse is the error body every endpoint returns.
// A single {"detail": "..."} shape keeps client-side error handling uniform
// across 400, 401, and 404 responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is the acknowledgment body for signup, verification, and
// resend operations.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// writeJSON sends data with the given status. Headers must be set before
// the first body write, hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a service-layer error into an HTTP response.
//
// The service layer deals in apperror sentinels, not status codes; this is
// the single place where that taxonomy becomes HTTP. Validation and
// conflict both map to 400; the public contract reports duplicate
// registration as a bad request.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		}

		writeJSON(w, status, ErrorResponse{Detail: appErr.Message})
		return
	}

	// Unknown error: generic 500. The raw message may carry SQL or file
	// paths and stays out of the response.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "An internal error occurred"})
}

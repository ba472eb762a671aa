package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
)

// StatusFor maps an operation error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shareerr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shareerr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shareerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shareerr.ErrConflict), errors.Is(err, shareerr.ErrFolderExists):
		return http.StatusConflict
	case errors.Is(err, shareerr.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelWarn
	}

	h.logger.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)

	writeJSON(w, status, errorBody{Error: err.Error()})
}

// Package server exposes the share over HTTP: a JSON API, a live
// websocket feed, Prometheus metrics and the MCP endpoint.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sharefastly/sharefastly.github.io/internal/auth"
	"github.com/sharefastly/sharefastly.github.io/internal/events"
	"github.com/sharefastly/sharefastly.github.io/internal/metrics"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

// MuxConfig holds dependencies for building the HTTP mux.
type MuxConfig struct {
	Session     *syncer.Session
	Broadcaster *events.Broadcaster
	Keys        *auth.Store
	DeleteGuard *auth.DeleteGuard
	MCPHandler  http.Handler
	Logger      *slog.Logger

	// Now stamps relative ages. Defaults to time.Now.
	Now func() time.Time
}

// NewMux builds the HTTP handler. Reads are public; writes and the MCP
// endpoint require an API key.
func NewMux(cfg MuxConfig) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	h := &handlers{
		session: cfg.Session,
		events:  cfg.Broadcaster,
		guard:   cfg.DeleteGuard,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}

	keys := cfg.Keys
	if keys == nil {
		keys = auth.NewStore()
	}

	authMiddleware := auth.Middleware(keys, cfg.Logger)
	protect := func(fn http.HandlerFunc) http.Handler {
		return authMiddleware(fn)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /api/files", h.listFiles)
	mux.HandleFunc("GET /api/folders", h.listFolders)
	mux.HandleFunc("GET /api/files/{name}/content", h.content)
	mux.HandleFunc("GET /api/events", h.feed)
	mux.Handle("POST /api/files", protect(h.upload))
	mux.Handle("POST /api/notes", protect(h.createNote))
	mux.Handle("POST /api/folders", protect(h.createFolder))
	mux.Handle("DELETE /api/files/{name}", protect(h.deleteFile))
	mux.Handle("POST /api/refresh", protect(h.refresh))
	mux.Handle("GET /metrics", metrics.Handler())

	if cfg.MCPHandler != nil {
		mux.Handle("/mcp", authMiddleware(cfg.MCPHandler))
	}

	return metrics.Middleware(mux)
}

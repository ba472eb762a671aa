package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sharefastly/sharefastly.github.io/internal/auth"
	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	"github.com/sharefastly/sharefastly.github.io/internal/dropwatch"
	"github.com/sharefastly/sharefastly.github.io/internal/events"
	"github.com/sharefastly/sharefastly.github.io/internal/mcpserver"
	"github.com/sharefastly/sharefastly.github.io/internal/server"
)

// handler builds the HTTP API with the MCP endpoint mounted on it.
func (a *app) handler() (http.Handler, error) {
	keys, err := a.cfg.KeyStore()
	if err != nil {
		return nil, err
	}

	guard, err := auth.NewDeleteGuard(a.cfg.DeletePasswordHash)
	if err != nil {
		return nil, err
	}

	a.session.OnSnapshot(func(s *catalog.Snapshot) {
		a.hub.Publish(events.SnapshotEvent(s))
	})

	mcpServer := mcp.NewServer(
		&mcp.Implementation{Name: "sharefastly-mcp", Version: Version},
		nil,
	)
	mcpserver.RegisterTools(mcpServer, mcpserver.Deps{
		Session:     a.session,
		DeleteGuard: guard,
		Logger:      a.logger,
		Now:         a.now,
	})

	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	if keys.Len() == 0 {
		a.logger.Warn("no API_KEYS configured, writes over HTTP and MCP are refused")
	}

	if !guard.Enabled() {
		a.logger.Warn("no DELETE_PASSWORD_HASH configured, deletes are refused")
	}

	return server.NewMux(server.MuxConfig{
		Session:     a.session,
		Broadcaster: a.hub,
		Keys:        keys,
		DeleteGuard: guard,
		MCPHandler:  mcpHandler,
		Logger:      a.logger,
		Now:         a.now,
	}), nil
}

func (a *app) reportInterrupted() {
	recs, err := a.state.InterruptedUploads()
	if err != nil {
		a.logger.Warn("reading upload journal", slog.String("error", err.Error()))
		return
	}

	for _, r := range recs {
		a.logger.Warn("upload interrupted by a previous run",
			slog.String("name", r.Name),
			slog.String("state", string(r.State)),
			slog.Int("attempts", r.Attempts),
		)
	}
}

func newServeCommand(a *app) *cobra.Command {
	var watchDir, watchFolder string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, the live feed and the MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			handler, err := a.handler()
			if err != nil {
				return err
			}

			a.logger.Info("sharefastly starting",
				slog.String("version", Version),
				slog.String("source", a.cfg.Source()),
				slog.String("listen", a.cfg.ListenAddr),
			)

			var w *dropwatch.Watcher
			if watchDir != "" {
				w, err = a.newDropWatcher(watchDir, watchFolder, func(ctx context.Context) {
					_, _ = a.session.AfterWrite(ctx)
				})
				if err != nil {
					return err
				}
			}

			a.reportInterrupted()
			a.session.Refresh(ctx)

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return server.ListenAndServe(gctx, a.cfg.ListenAddr, handler, a.logger)
			})

			g.Go(func() error {
				return a.session.Run(gctx, a.cfg.RefreshInterval)
			})

			if w != nil {
				g.Go(func() error {
					if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
						return fmt.Errorf("drop watcher: %w", err)
					}

					return nil
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&watchDir, "watch", "", "also upload files dropped into this directory")
	cmd.Flags().StringVar(&watchFolder, "watch-folder", "", "folder for files from --watch")

	return cmd
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sharefastly/sharefastly.github.io/internal/config"
	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
	"github.com/sharefastly/sharefastly.github.io/internal/events"
	"github.com/sharefastly/sharefastly.github.io/internal/logging"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
	"github.com/sharefastly/sharefastly.github.io/internal/remote"
	"github.com/sharefastly/sharefastly.github.io/internal/state"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

// app holds what commands share. Commands annotated offline never open
// it; every other command gets a loaded config, the state database and
// a session before it runs.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	format string

	loadConfig func() (*config.Config, error)
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time

	cfg     *config.Config
	logger  *slog.Logger
	state   *state.State
	hub     *events.Broadcaster
	ctl     *syncer.Controller
	session *syncer.Session
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:         in,
		out:        out,
		errOut:     errOut,
		format:     formatTable,
		loadConfig: config.Load,
		now:        time.Now,
	}
}

func (a *app) open() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a.cfg = cfg
	a.logger = logging.New(a.errOut, cfg.Environment, cfg.LogLevel)

	st, err := state.LoadAt(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}

	a.state = st

	client, err := remote.NewClient(cfg.Remote(), a.httpClient)
	if err != nil {
		return fmt.Errorf("creating remote client: %w", err)
	}

	opts := cfg.SyncOptions()
	opts.Now = a.now

	if a.sleep != nil {
		opts.Sleep = a.sleep
	}

	a.hub = events.NewBroadcaster()
	a.ctl = syncer.New(syncer.Config{
		Store:   client,
		Codec:   cfg.Codec(),
		Options: opts,
		Journal: st,
		OnStatus: func(us syncer.UploadStatus) {
			a.hub.Publish(events.UploadEvent(us))
		},
	}, a.logger)

	a.session = syncer.NewSession(syncer.SessionConfig{
		Controller: a.ctl,
		Cache:      st,
		Source:     cfg.Source(),
	}, a.logger)

	a.logger.Debug("opened",
		slog.String("source", cfg.Source()),
		slog.String("state", cfg.StatePath),
	)

	return nil
}

func (a *app) close() {
	if a.state != nil {
		_ = a.state.Close()
		a.state = nil
	}
}

// refresh lists the remote and warns when the listing failed.
func (a *app) refresh(ctx context.Context) error {
	snap := a.session.Refresh(ctx)
	if snap.Degraded {
		return fmt.Errorf("%w: listing %s failed", shareerr.ErrAPIRequest, a.cfg.Source())
	}

	return nil
}

// folderArg resolves a --folder value. An empty value falls back to the
// folder chosen with "use", then to the aggregate folder.
func (a *app) folderArg(arg string) (string, error) {
	if arg == "" && a.state != nil {
		arg = a.state.ActiveFolder()
	}

	id := naming.ResolveFolder(arg)
	if id == "" {
		return "", fmt.Errorf("%w: invalid folder %q", shareerr.ErrInvalidInput, arg)
	}

	return id, nil
}

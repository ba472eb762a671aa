// Package syncer drives every write to the remote store and turns
// listings into snapshots. Uploads run through a retrying state machine;
// deletes and folder creation are single attempts. Because the remote
// listing is eventually consistent, callers wait out a settle delay
// (Settle, Resync, Session.AfterWrite) before listing again after a write.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
	"github.com/sharefastly/sharefastly.github.io/internal/metrics"
	"github.com/sharefastly/sharefastly.github.io/internal/models"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
	"github.com/sharefastly/sharefastly.github.io/internal/remote"
)

const (
	DefaultMaxRetries  = 3
	DefaultRetryBase   = 2 * time.Second
	DefaultConcurrency = 3
	DefaultSettleDelay = time.Second

	// maxCollisionTries bounds the "(n)" probe loop.
	maxCollisionTries = 1000
)

// Options tunes retry, concurrency and timing. Sleep and Now are
// injectable so the state machine can be tested without real timers.
type Options struct {
	MaxRetries  int
	RetryBase   time.Duration
	Concurrency int
	SettleDelay time.Duration

	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
	NewID func() string
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		MaxRetries:  DefaultMaxRetries,
		RetryBase:   DefaultRetryBase,
		Concurrency: DefaultConcurrency,
		SettleDelay: DefaultSettleDelay,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}

	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}

	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}

	if o.Now == nil {
		o.Now = time.Now
	}

	if o.NewID == nil {
		o.NewID = uuid.NewString
	}

	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Journal persists upload transitions. state.State implements it.
type Journal interface {
	RecordUpload(rec models.UploadRecord) error
}

// Config holds the dependencies of a Controller.
type Config struct {
	Store   remote.Store
	Codec   naming.Codec
	Options Options
	Journal Journal

	// OnStatus, if set, observes every upload transition. It is called
	// from batch goroutines and must be safe for concurrent use.
	OnStatus func(UploadStatus)
}

// Controller performs remote writes and listings.
type Controller struct {
	store    remote.Store
	codec    naming.Codec
	opts     Options
	journal  Journal
	onStatus func(UploadStatus)
	logger   *slog.Logger
}

// New creates a Controller. Zero Options fields fall back to safe values;
// start from DefaultOptions for production timing.
func New(cfg Config, logger *slog.Logger) *Controller {
	return &Controller{
		store:    cfg.Store,
		codec:    cfg.Codec,
		opts:     cfg.Options.withDefaults(),
		journal:  cfg.Journal,
		onStatus: cfg.OnStatus,
		logger:   logger,
	}
}

// Codec returns the codec names are encoded with.
func (c *Controller) Codec() naming.Codec {
	return c.codec
}

// SettleDelay returns the wait required between a write and a listing
// that should observe it.
func (c *Controller) SettleDelay() time.Duration {
	return c.opts.SettleDelay
}

// Settle waits out the settle delay.
func (c *Controller) Settle(ctx context.Context) error {
	return c.opts.Sleep(ctx, c.opts.SettleDelay)
}

// FetchListStrict lists the remote directory and returns any failure.
func (c *Controller) FetchListStrict(ctx context.Context) ([]models.RawEntry, error) {
	start := time.Now()

	entries, err := c.store.List(ctx)

	metrics.RecordList(err == nil, time.Since(start))

	if err != nil {
		c.logger.Warn("listing remote directory",
			slog.String("error", err.Error()),
			slog.Bool("transient", remote.IsTransient(err)),
		)

		return nil, fmt.Errorf("listing: %w", err)
	}

	return entries, nil
}

// FetchList lists the remote directory. Any failure degrades to an empty
// list; use FetchListStrict to tell an outage from an empty directory.
func (c *Controller) FetchList(ctx context.Context) []models.RawEntry {
	entries, err := c.FetchListStrict(ctx)
	if err != nil {
		return []models.RawEntry{}
	}

	return entries
}

// Resync settles and then lists. It only fails if ctx ends while settling.
func (c *Controller) Resync(ctx context.Context) ([]models.RawEntry, error) {
	if err := c.Settle(ctx); err != nil {
		return nil, err
	}

	return c.FetchList(ctx), nil
}

// ReadContent downloads an entry's raw bytes. Entries without a download
// URL are re-read from the store first.
func (c *Controller) ReadContent(ctx context.Context, e catalog.Entry) ([]byte, error) {
	rawURL := e.Raw.DownloadURL
	if rawURL == "" {
		fresh, err := c.store.Stat(ctx, e.Raw.Name)
		if err != nil {
			return nil, fmt.Errorf("resolving download URL for %s: %w", e.Raw.Name, err)
		}

		rawURL = fresh.DownloadURL
	}

	if rawURL == "" {
		return nil, fmt.Errorf("%w: %s has no download URL", shareerr.ErrNotFound, e.Raw.Name)
	}

	body, err := c.store.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", e.Raw.Name, err)
	}

	return body, nil
}

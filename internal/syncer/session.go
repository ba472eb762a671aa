package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	"github.com/sharefastly/sharefastly.github.io/internal/metrics"
	"github.com/sharefastly/sharefastly.github.io/internal/models"
)

// ListingCache keeps the last good listing. state.State implements it.
type ListingCache interface {
	SaveListing(source string, entries []models.RawEntry, fetchedAt time.Time) error
}

// SessionConfig holds the dependencies of a Session.
type SessionConfig struct {
	Controller *Controller
	Cache      ListingCache
	// Source keys the listing cache, typically owner/repo/dir@branch.
	Source string
}

// Session holds the current snapshot shared by every surface. Snapshots
// are immutable; Refresh swaps in a new one and notifies listeners.
type Session struct {
	ctl    *Controller
	cache  ListingCache
	source string
	logger *slog.Logger

	// refreshMu serializes refreshes so an older listing never replaces
	// a newer one.
	refreshMu sync.Mutex

	mu        sync.RWMutex
	snap      *catalog.Snapshot
	listeners []func(*catalog.Snapshot)
}

// NewSession creates a session holding an empty snapshot.
func NewSession(cfg SessionConfig, logger *slog.Logger) *Session {
	return &Session{
		ctl:    cfg.Controller,
		cache:  cfg.Cache,
		source: cfg.Source,
		logger: logger,
		snap:   catalog.Empty(),
	}
}

// Controller returns the controller used for writes.
func (s *Session) Controller() *Controller {
	return s.ctl
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (s *Session) Snapshot() *catalog.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap
}

// OnSnapshot registers fn to receive every new snapshot. fn runs on the
// refreshing goroutine and should not block.
func (s *Session) OnSnapshot(fn func(*catalog.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
}

// Refresh lists the remote directory and publishes the reconciled
// snapshot. A failed listing publishes an empty snapshot marked Degraded;
// the cache keeps the last good listing. If ctx ends during the listing
// the current snapshot is returned and nothing is published.
func (s *Session) Refresh(ctx context.Context) *catalog.Snapshot {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	codec := s.ctl.Codec()
	now := s.ctl.opts.Now()

	raws, err := s.ctl.FetchListStrict(ctx)
	if err != nil && ctx.Err() != nil {
		s.logger.Debug("refresh abandoned", slog.String("error", ctx.Err().Error()))
		return s.Snapshot()
	}

	var snap *catalog.Snapshot
	if err != nil {
		snap = catalog.Empty()
		snap.Degraded = true
	} else {
		snap = catalog.Reconcile(raws, codec)

		if s.cache != nil {
			if cerr := s.cache.SaveListing(s.source, raws, now); cerr != nil {
				s.logger.Warn("caching listing", slog.String("error", cerr.Error()))
			}
		}
	}

	snap.FetchedAt = now

	s.mu.Lock()
	s.snap = snap
	listeners := append([]func(*catalog.Snapshot){}, s.listeners...)
	s.mu.Unlock()

	metrics.SetSnapshot(len(snap.Global), len(snap.ByFolder), snap.Degraded)

	s.logger.Debug("snapshot refreshed",
		slog.Int("entries", len(snap.Global)),
		slog.Int("folders", len(snap.ByFolder)),
		slog.Bool("degraded", snap.Degraded),
	)

	for _, fn := range listeners {
		fn(snap)
	}

	return snap
}

// AfterWrite waits out the settle delay and then refreshes. It returns
// the current snapshot unchanged if ctx ends while settling.
func (s *Session) AfterWrite(ctx context.Context) (*catalog.Snapshot, error) {
	if err := s.ctl.Settle(ctx); err != nil {
		return s.Snapshot(), err
	}

	return s.Refresh(ctx), nil
}

// Run refreshes every interval until ctx is cancelled. A non-positive
// interval disables the loop.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Package dropwatch uploads files placed in a local drop directory. Each
// file is uploaded once; the ledger remembers its size and mtime so only
// new or changed files go out again.
package dropwatch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sharefastly/sharefastly.github.io/internal/metrics"
	"github.com/sharefastly/sharefastly.github.io/internal/state"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

const (
	// debounceInterval is how often pending events are checked.
	debounceInterval = 500 * time.Millisecond

	// defaultQuiet is how long a file must go without events before it
	// is uploaded.
	defaultQuiet = 300 * time.Millisecond

	// maxFileSize matches the upload cap of the HTTP API.
	maxFileSize = 100 << 20
)

// Config holds the dependencies of a Watcher.
type Config struct {
	Dir      string
	FolderID string
	Uploader Uploader
	Ledger   Ledger

	// Quiet overrides the settle time of a changed file.
	Quiet time.Duration

	// AfterUpload runs once after each batch with at least one success.
	AfterUpload func(ctx context.Context)
}

// Watcher uploads new and changed files in a flat drop directory.
// Subdirectories are ignored.
type Watcher struct {
	dir      string
	folderID string
	uploader Uploader
	ledger   Ledger
	quiet    time.Duration
	after    func(ctx context.Context)
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a watcher. The directory is made absolute so ledger keys
// stay stable across working directories.
func New(cfg Config, logger *slog.Logger) (*Watcher, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving drop dir: %w", err)
	}

	quiet := cfg.Quiet
	if quiet <= 0 {
		quiet = defaultQuiet
	}

	return &Watcher{
		dir:      dir,
		folderID: cfg.FolderID,
		uploader: cfg.Uploader,
		ledger:   cfg.Ledger,
		quiet:    quiet,
		after:    cfg.AfterUpload,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Dir returns the absolute drop directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Watch sweeps the directory once and then uploads files as they settle.
// It blocks until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	w.logger.Info("drop watcher started",
		slog.String("dir", w.dir),
		slog.String("folder", w.folderID),
	)

	if _, err := w.Sweep(ctx); err != nil {
		return err
	}

	pending := make(map[string]time.Time)

	ticker := time.NewTicker(debounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed unexpectedly")
			}

			if ignored(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				pending[event.Name] = time.Now()
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				delete(pending, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed unexpectedly")
			}

			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			now := time.Now()

			var ready []string

			for path, t := range pending {
				if now.Sub(t) < w.quiet {
					continue
				}

				delete(pending, path)
				ready = append(ready, path)
			}

			if len(ready) > 0 {
				sort.Strings(ready)
				w.upload(ctx, ready)
			}
		}
	}
}

// Sweep uploads every file in the directory that the ledger has not seen
// at its current size and mtime. It returns the number uploaded.
func (w *Watcher) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("reading drop dir: %w", err)
	}

	var paths []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		paths = append(paths, filepath.Join(w.dir, e.Name()))
	}

	return w.upload(ctx, paths), nil
}

type candidate struct {
	rel  string
	info fs.FileInfo
}

func (w *Watcher) upload(ctx context.Context, paths []string) int {
	var (
		cands []candidate
		items []syncer.Item
	)

	for _, path := range paths {
		c, content, ok := w.prepare(path)
		if !ok {
			continue
		}

		cands = append(cands, c)
		items = append(items, syncer.Item{
			FileName: c.rel,
			Content:  content,
			FolderID: w.folderID,
		})
	}

	if len(items) == 0 {
		return 0
	}

	metrics.RecordDropQueued(len(items))

	results := w.uploader.UploadBatch(ctx, items)

	uploaded := 0

	for i, res := range results {
		c := cands[i]

		if res.Err != nil {
			w.logger.Warn("drop upload failed",
				slog.String("path", c.rel),
				slog.String("error", res.Err.Error()),
			)

			continue
		}

		uploaded++

		df := state.DropFile{
			Path:       c.rel,
			Size:       c.info.Size(),
			MTime:      c.info.ModTime().UnixMilli(),
			RemoteName: res.Name,
			UploadedAt: w.now(),
		}
		if err := w.ledger.SetDropFile(w.dir, df); err != nil {
			w.logger.Warn("recording drop file",
				slog.String("path", c.rel),
				slog.String("error", err.Error()),
			)
		}

		w.logger.Info("drop file uploaded",
			slog.String("path", c.rel),
			slog.String("name", res.Name),
		)
	}

	if uploaded > 0 && w.after != nil {
		w.after(ctx)
	}

	return uploaded
}

// prepare stats and reads path, reporting false for anything that should
// not be uploaded.
func (w *Watcher) prepare(path string) (candidate, []byte, bool) {
	if ignored(path) {
		return candidate{}, nil, false
	}

	info, err := os.Lstat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("stat failed", slog.String("path", path), slog.String("error", err.Error()))
		}

		return candidate{}, nil, false
	}

	if !info.Mode().IsRegular() {
		return candidate{}, nil, false
	}

	rel := filepath.Base(path)

	if info.Size() > maxFileSize {
		w.logger.Warn("drop file too large", slog.String("path", rel), slog.Int64("size", info.Size()))
		return candidate{}, nil, false
	}

	seen, err := w.ledger.GetDropFile(w.dir, rel)
	if err != nil {
		w.logger.Warn("reading drop ledger", slog.String("path", rel), slog.String("error", err.Error()))
	}

	if seen != nil && seen.Size == info.Size() && seen.MTime == info.ModTime().UnixMilli() {
		return candidate{}, nil, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("reading drop file", slog.String("path", rel), slog.String("error", err.Error()))
		return candidate{}, nil, false
	}

	return candidate{rel: rel, info: info}, content, true
}

// Uploaded returns the ledger of this directory keyed by file name.
func (w *Watcher) Uploaded() (map[string]state.DropFile, error) {
	return w.ledger.AllDropFiles(w.dir)
}

// ignored reports paths that are never uploaded: hidden files and editor
// temp files.
func ignored(path string) bool {
	name := filepath.Base(path)

	switch {
	case strings.HasPrefix(name, "."):
		return true
	case strings.HasSuffix(name, "~"), strings.HasSuffix(name, ".swp"), strings.HasSuffix(name, ".tmp"):
		return true
	case strings.HasSuffix(name, ".crdownload"), strings.HasSuffix(name, ".part"):
		return true
	}

	return false
}

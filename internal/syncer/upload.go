package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
	"github.com/sharefastly/sharefastly.github.io/internal/metrics"
	"github.com/sharefastly/sharefastly.github.io/internal/models"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

// UploadStatus is one transition of an upload.
type UploadStatus struct {
	ID      string
	Name    string
	State   models.UploadState
	Attempt int
	Err     error
}

// Item is one file of a batch upload. FileName is the user-facing name;
// the stored name is derived from it.
type Item struct {
	FileName   string
	Content    []byte
	FolderID   string
	OnProgress func(float64)
}

// Result is the outcome of one batch item. Name is the stored name that
// was attempted, empty if the item failed before one was chosen.
type Result struct {
	FileName string
	Name     string
	Entry    *models.RawEntry
	Err      error
}

// Upload writes content under name, retrying failed attempts. The k-th
// retry waits k times the retry base. Cancellation stops the machine at
// once; any other failure is retried until MaxRetries is spent, after
// which the returned error wraps errors.ErrUploadFailed and the last
// cause.
func (c *Controller) Upload(ctx context.Context, name string, content []byte, onProgress func(float64)) (*models.RawEntry, error) {
	now := c.opts.Now()
	rec := models.UploadRecord{
		ID:        c.opts.NewID(),
		Name:      name,
		Size:      int64(len(content)),
		StartedAt: now,
	}

	start := time.Now()

	metrics.UploadStarted()
	defer metrics.UploadDone()

	c.transition(&rec, models.UploadPending, nil)

	var lastErr error

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.transition(&rec, models.UploadRetrying, lastErr)
			metrics.RecordUploadRetry()

			if err := c.opts.Sleep(ctx, time.Duration(attempt)*c.opts.RetryBase); err != nil {
				lastErr = err
				break
			}
		}

		rec.Attempts = attempt + 1
		c.transition(&rec, models.UploadUploading, nil)

		entry, err := c.store.Put(ctx, name, content, onProgress)
		if err == nil {
			c.transition(&rec, models.UploadCompleted, nil)
			metrics.RecordUpload(len(content), true, time.Since(start))

			c.logger.Info("upload completed",
				slog.String("name", name),
				slog.Int("attempts", rec.Attempts),
				slog.Int("bytes", len(content)),
			)

			return entry, nil
		}

		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}

		if attempt >= c.opts.MaxRetries {
			break
		}

		c.logger.Warn("upload attempt failed",
			slog.String("name", name),
			slog.Int("attempt", rec.Attempts),
			slog.String("error", err.Error()),
		)
	}

	c.transition(&rec, models.UploadFailed, lastErr)
	metrics.RecordUpload(len(content), false, time.Since(start))

	c.logger.Error("upload failed",
		slog.String("name", name),
		slog.Int("attempts", rec.Attempts),
		slog.String("error", lastErr.Error()),
	)

	return nil, fmt.Errorf("%w: %s after %d attempts: %w", shareerr.ErrUploadFailed, name, rec.Attempts, lastErr)
}

func (c *Controller) transition(rec *models.UploadRecord, st models.UploadState, err error) {
	rec.State = st
	rec.UpdatedAt = c.opts.Now()
	rec.Error = ""

	if err != nil {
		rec.Error = err.Error()
	}

	if c.journal != nil {
		if jerr := c.journal.RecordUpload(*rec); jerr != nil {
			c.logger.Warn("recording upload transition",
				slog.String("id", rec.ID),
				slog.String("state", string(st)),
				slog.String("error", jerr.Error()),
			)
		}
	}

	if c.onStatus != nil {
		c.onStatus(UploadStatus{
			ID:      rec.ID,
			Name:    rec.Name,
			State:   st,
			Attempt: rec.Attempts,
			Err:     err,
		})
	}
}

// ResolveCollision returns name if it is free, otherwise the first free
// WithCounter variant. The probe is best effort: a concurrent writer can
// still take the name before the upload lands. A probe that fails for any
// reason other than absence aborts resolution.
func (c *Controller) ResolveCollision(ctx context.Context, name string) (string, error) {
	taken, err := c.store.Exists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("probing %s: %w", name, err)
	}

	if !taken {
		return name, nil
	}

	for n := 1; n <= maxCollisionTries; n++ {
		candidate := c.codec.WithCounter(name, n)

		taken, err := c.store.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probing %s: %w", candidate, err)
		}

		if !taken {
			c.logger.Debug("name collision resolved",
				slog.String("name", name),
				slog.String("resolved", candidate),
			)

			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: no free name for %s after %d tries", shareerr.ErrConflict, name, maxCollisionTries)
}

// validFolder reports whether id may appear as the folder segment of a
// new name.
func validFolder(id string) bool {
	return id == "" || id == naming.AllFolder || naming.IsMarker(id)
}

// displayName derives a storable display name from a user file name:
// path components and separator tokens are removed.
func displayName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}

	return strings.TrimSpace(naming.StripSeparator(base))
}

func (c *Controller) prepare(ctx context.Context, item Item) (string, error) {
	if !validFolder(item.FolderID) {
		return "", fmt.Errorf("%w: %q is not a folder id", shareerr.ErrInvalidInput, item.FolderID)
	}

	display := displayName(item.FileName)
	if display == "" {
		return "", fmt.Errorf("%w: empty file name", shareerr.ErrInvalidInput)
	}

	name := c.codec.Encode(c.opts.Now(), item.FolderID, display)

	return c.ResolveCollision(ctx, name)
}

func (c *Controller) uploadItem(ctx context.Context, item Item) Result {
	res := Result{FileName: item.FileName}

	name, err := c.prepare(ctx, item)
	if err != nil {
		res.Err = err
		return res
	}

	res.Name = name
	res.Entry, res.Err = c.Upload(ctx, name, item.Content, item.OnProgress)

	return res
}

// UploadFile stores one file in a folder: it encodes the name from the
// current time, resolves collisions and uploads with retries.
func (c *Controller) UploadFile(ctx context.Context, item Item) (*models.RawEntry, error) {
	res := c.uploadItem(ctx, item)
	return res.Entry, res.Err
}

// UploadBatch uploads items with at most Concurrency in flight. Each
// item probes and writes serially; a failed item does not stop the
// others. Results are in input order.
func (c *Controller) UploadBatch(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))

	var g errgroup.Group

	g.SetLimit(c.opts.Concurrency)

	for i, item := range items {
		g.Go(func() error {
			results[i] = c.uploadItem(ctx, item)
			return nil
		})
	}

	_ = g.Wait()

	return results
}

// CreateNote stores text as a note. The title is optional; an untitled
// note uses the short name form.
func (c *Controller) CreateNote(ctx context.Context, title, content, folderID string) (*models.RawEntry, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: note content is empty", shareerr.ErrInvalidInput)
	}

	if !validFolder(folderID) {
		return nil, fmt.Errorf("%w: %q is not a folder id", shareerr.ErrInvalidInput, folderID)
	}

	display := ""
	if t := naming.Sanitize(title); t != "" {
		display = t + "." + naming.NoteExt
	}

	name, err := c.ResolveCollision(ctx, c.codec.Encode(c.opts.Now(), folderID, display))
	if err != nil {
		return nil, err
	}

	return c.Upload(ctx, name, []byte(content), nil)
}

package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sharefastly/sharefastly.github.io/internal/metrics"
)

// Delete removes name in two phases: it reads the current sha, then
// deletes at that sha. There is no retry. A concurrent change between the
// phases surfaces as errors.ErrConflict.
func (c *Controller) Delete(ctx context.Context, name string) error {
	entry, err := c.store.Stat(ctx, name)
	if err != nil {
		metrics.RecordDelete(false)
		return fmt.Errorf("fetching sha for %s: %w", name, err)
	}

	if err := c.store.Delete(ctx, name, entry.SHA); err != nil {
		metrics.RecordDelete(false)
		return fmt.Errorf("deleting %s: %w", name, err)
	}

	metrics.RecordDelete(true)
	c.logger.Info("deleted", slog.String("name", name))

	return nil
}

// DeleteSummary counts the outcome of DeleteAll.
type DeleteSummary struct {
	Deleted int
	Failed  int
	Errors  []error
}

// DeleteAll deletes names one at a time. Failures are counted and do not
// stop the run; once ctx ends the remaining names count as failed.
func (c *Controller) DeleteAll(ctx context.Context, names []string) DeleteSummary {
	var sum DeleteSummary

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			remaining := len(names) - i
			sum.Failed += remaining
			sum.Errors = append(sum.Errors, fmt.Errorf("%d deletes skipped: %w", remaining, err))

			break
		}

		if err := c.Delete(ctx, name); err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, err)

			continue
		}

		sum.Deleted++
	}

	return sum
}

package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
	"github.com/sharefastly/sharefastly.github.io/internal/models"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

// CreateFolder creates a folder marker for a user-supplied label. The
// label is sanitized; an empty result is rejected, as is a folder already
// known to snap. The marker is written once, without retries.
func (c *Controller) CreateFolder(ctx context.Context, label string, snap *catalog.Snapshot) (*models.RawEntry, error) {
	id := naming.FolderID(label)
	if id == "" {
		return nil, fmt.Errorf("%w: folder name %q has no usable characters", shareerr.ErrInvalidInput, label)
	}

	if id == naming.AllFolder {
		return nil, fmt.Errorf("%w: %q is reserved", shareerr.ErrInvalidInput, naming.FolderLabel(id))
	}

	if snap != nil && snap.HasFolder(id) {
		return nil, fmt.Errorf("%w: %s", shareerr.ErrFolderExists, naming.FolderLabel(id))
	}

	entry, err := c.store.Put(ctx, id, []byte{}, nil)
	if err != nil {
		if errors.Is(err, shareerr.ErrConflict) {
			return nil, fmt.Errorf("%w: %s: %w", shareerr.ErrFolderExists, naming.FolderLabel(id), err)
		}

		return nil, fmt.Errorf("creating folder %s: %w", id, err)
	}

	c.logger.Info("folder created", slog.String("folder", id))

	return entry, nil
}

// Package remote talks to the GitHub repository contents API that serves
// as the only persistent store for shared files.
package remote

import (
	"context"

	"github.com/sharefastly/sharefastly.github.io/internal/models"
)

//go:generate mockgen -source=store.go -destination=mock_store.go -package=remote

// Store is the set of remote operations the sync controller needs. The
// listing is eventually consistent: a write may not show up in a List
// issued immediately afterwards.
type Store interface {
	// List returns every file in the configured directory.
	List(ctx context.Context) ([]models.RawEntry, error)

	// Stat returns the current entry for name, or an error wrapping
	// errors.ErrNotFound.
	Stat(ctx context.Context, name string) (*models.RawEntry, error)

	// Exists probes for name. Only a 404 counts as absent; other
	// failures are returned as errors.
	Exists(ctx context.Context, name string) (bool, error)

	// Put creates name with content. progress, if non-nil, receives the
	// fraction of the request body sent so far.
	Put(ctx context.Context, name string, content []byte, progress func(float64)) (*models.RawEntry, error)

	// Delete removes name. sha must be the entry's current version.
	Delete(ctx context.Context, name, sha string) error

	// Fetch downloads raw bytes from an entry's download URL.
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

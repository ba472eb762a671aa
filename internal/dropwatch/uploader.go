package dropwatch

import (
	"context"

	"github.com/sharefastly/sharefastly.github.io/internal/state"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

//go:generate mockgen -source=uploader.go -destination=mock_uploader.go -package=dropwatch

// Uploader stores a batch of files. *syncer.Controller implements it.
type Uploader interface {
	UploadBatch(ctx context.Context, items []syncer.Item) []syncer.Result
}

// Ledger remembers which drop files were already uploaded.
// *state.State implements it.
type Ledger interface {
	GetDropFile(dir, path string) (*state.DropFile, error)
	SetDropFile(dir string, df state.DropFile) error
	AllDropFiles(dir string) (map[string]state.DropFile, error)
}

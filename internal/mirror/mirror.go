// Package mirror exports the virtual folders of a snapshot to a real
// directory tree. Each named folder becomes a subdirectory named by its
// slug; entries without a folder land in the root.
package mirror

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"

	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

const (
	dirPerm  = fs.FileMode(0o755)
	filePerm = fs.FileMode(0o644)

	defaultConcurrency = 3

	// noteExt replaces the note extension on export so notes open in
	// ordinary editors.
	noteExt = ".txt"
)

// Reader downloads entry content. *syncer.Controller implements it.
type Reader interface {
	ReadContent(ctx context.Context, e catalog.Entry) ([]byte, error)
}

// Options controls a pull.
type Options struct {
	Dest string

	// FolderID restricts the export to one folder, written directly into
	// Dest. Empty or the aggregate folder exports everything.
	FolderID string

	Concurrency int
}

// File is one planned export: the entry and its path relative to Dest.
type File struct {
	Entry catalog.Entry
	Path  string
}

// Summary counts the outcome of a pull.
type Summary struct {
	Written int
	Skipped int
	Failed  int
	Errors  []error
}

// Plan lays out the export of snap. It is deterministic: entries keep
// snapshot order and a name taken earlier in a directory gets a counter.
func Plan(snap *catalog.Snapshot, folderID string) (dirs []string, files []File) {
	all := folderID == "" || folderID == naming.AllFolder

	if all {
		for _, f := range snap.Folders()[1:] {
			dirs = append(dirs, DirName(f.ID))
		}
	}

	taken := make(map[string]bool)

	for _, e := range catalog.FilterForFolder(snap, folderID) {
		dir := ""
		if all && e.FolderID != naming.AllFolder {
			dir = DirName(e.FolderID)
		}

		rel := uniquePath(taken, dir, FileName(e))
		files = append(files, File{Entry: e, Path: rel})
	}

	return dirs, files
}

// DirName maps a folder id to a directory name.
func DirName(folderID string) string {
	if s := slug.Make(naming.FolderLabel(folderID)); s != "" {
		return s
	}

	return "folder"
}

// FileName is the local name of an entry. Notes get a .txt extension;
// path separators are replaced.
func FileName(e catalog.Entry) string {
	name := e.DisplayName
	if e.Kind == catalog.Note {
		name = e.Title()
		if name == "" {
			name = catalog.UntitledNote
		}

		name += noteExt
	}

	name = strings.NewReplacer("/", "-", `\`, "-").Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		name = "untitled"
	}

	return name
}

func uniquePath(taken map[string]bool, dir, name string) string {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 2; taken[strings.ToLower(candidate)]; n++ {
		candidate = filepath.Join(dir, stem+" ("+strconv.Itoa(n)+")"+ext)
	}

	taken[strings.ToLower(candidate)] = true

	return candidate
}

// Pull writes the planned export under opts.Dest. Files already present
// with the remote size are skipped. Failures are counted and do not stop
// the run; only a failure to create Dest is returned.
func Pull(ctx context.Context, r Reader, snap *catalog.Snapshot, opts Options, logger *slog.Logger) (Summary, error) {
	var sum Summary

	if err := os.MkdirAll(opts.Dest, dirPerm); err != nil {
		return sum, fmt.Errorf("creating %s: %w", opts.Dest, err)
	}

	dirs, files := Plan(snap, opts.FolderID)

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(opts.Dest, d), dirPerm); err != nil {
			return sum, fmt.Errorf("creating %s: %w", d, err)
		}
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	g.SetLimit(limit)

	for _, f := range files {
		g.Go(func() error {
			wrote, err := pullFile(ctx, r, opts.Dest, f)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				sum.Failed++
				sum.Errors = append(sum.Errors, fmt.Errorf("%s: %w", f.Path, err))
				logger.Warn("pull failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			case wrote:
				sum.Written++
				logger.Debug("pulled", slog.String("path", f.Path))
			default:
				sum.Skipped++
			}

			return nil
		})
	}

	_ = g.Wait()

	logger.Info("pull finished",
		slog.String("dest", opts.Dest),
		slog.Int("written", sum.Written),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
	)

	return sum, nil
}

func pullFile(ctx context.Context, r Reader, dest string, f File) (bool, error) {
	abs := filepath.Join(dest, f.Path)

	if info, err := os.Stat(abs); err == nil && info.Size() == f.Entry.Raw.Size {
		return false, nil
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	content, err := r.ReadContent(ctx, f.Entry)
	if err != nil {
		return false, err
	}

	if err := writeAtomic(abs, content); err != nil {
		return false, err
	}

	if ts := f.Entry.Timestamp; ts != nil {
		_ = os.Chtimes(abs, *ts, *ts)
	}

	return true, nil
}

func writeAtomic(abs string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".pull-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

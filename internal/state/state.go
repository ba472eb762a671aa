package state

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sharefastly/sharefastly.github.io/internal/models"
)

const (
	// stateDirPerm is the permission mode for the state directory (~/.sharefastly/).
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database file.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second
)

var (
	appBucket       = []byte("app")
	activeFolderKey = []byte("active_folder")
	uploadsBucket   = []byte("uploads")
)

func listingKey(source string) []byte {
	return []byte("listing:" + source)
}

func dropBucket(dir string) []byte {
	return []byte("drop:" + dir)
}

// CachedListing is the last successful directory listing for a source.
type CachedListing struct {
	Source    string            `json:"source"`
	FetchedAt time.Time         `json:"fetched_at"`
	Entries   []models.RawEntry `json:"entries"`
}

// DropFile tracks a file in a watched drop folder that has already been
// handed to the uploader. A change in size or mtime makes it eligible
// again.
type DropFile struct {
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	MTime      int64     `json:"mtime"`
	RemoteName string    `json:"remote_name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// State wraps a bbolt database for all persistent application state.
type State struct {
	db *bolt.DB
}

// Load opens the state database at ~/.sharefastly/state.db, creating it
// if it does not exist.
func Load() (*State, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	return LoadAt(path)
}

// LoadAt opens a state database at the given path, creating it if it
// does not exist. Useful for tests that need an isolated database.
func LoadAt(path string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(appBucket); err != nil {
			return err
		}

		_, err := tx.CreateBucketIfNotExists(uploadsBucket)

		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing state db: %w", err)
	}

	return &State{db: db}, nil
}

// Close closes the database.
func (s *State) Close() error {
	return s.db.Close()
}

// --- Preferences ---

// ActiveFolder returns the persisted folder selection, or empty string.
func (s *State) ActiveFolder() string {
	var id string

	_ = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(appBucket).Get(activeFolderKey); v != nil {
			id = string(v)
		}

		return nil
	})

	return id
}

// SetActiveFolder persists the folder selection.
func (s *State) SetActiveFolder(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(activeFolderKey, []byte(id))
	})
}

// --- Listing cache ---

// SaveListing stores entries as the last good listing for source.
func (s *State) SaveListing(source string, entries []models.RawEntry, fetchedAt time.Time) error {
	if entries == nil {
		entries = []models.RawEntry{}
	}

	data, err := json.Marshal(CachedListing{Source: source, FetchedAt: fetchedAt, Entries: entries})
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(listingKey(source), data)
	})
}

// Listing returns the cached listing for source, or nil if none exists.
func (s *State) Listing(source string) (*CachedListing, error) {
	var cl *CachedListing

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appBucket).Get(listingKey(source))
		if v == nil {
			return nil
		}

		cl = &CachedListing{}

		return json.Unmarshal(v, cl)
	})

	return cl, err
}

// --- Upload journal ---

// RecordUpload writes rec, replacing any record with the same ID.
func (s *State) RecordUpload(rec models.UploadRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("upload record id is required")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		return tx.Bucket(uploadsBucket).Put([]byte(rec.ID), data)
	})
}

// Upload returns the journal record with id, or nil if not found.
func (s *State) Upload(id string) (*models.UploadRecord, error) {
	var rec *models.UploadRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(uploadsBucket).Get([]byte(id))
		if v == nil {
			return nil
		}

		rec = &models.UploadRecord{}

		return json.Unmarshal(v, rec)
	})

	return rec, err
}

// Uploads returns every journal record, most recently updated first.
func (s *State) Uploads() ([]models.UploadRecord, error) {
	var recs []models.UploadRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(uploadsBucket).ForEach(func(k, v []byte) error {
			var rec models.UploadRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}

			recs = append(recs, rec)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].UpdatedAt.After(recs[j].UpdatedAt)
	})

	return recs, nil
}

// InterruptedUploads returns records left in a non-terminal state, which
// means the process stopped mid-upload.
func (s *State) InterruptedUploads() ([]models.UploadRecord, error) {
	all, err := s.Uploads()
	if err != nil {
		return nil, err
	}

	var out []models.UploadRecord

	for _, rec := range all {
		if !rec.State.Terminal() {
			out = append(out, rec)
		}
	}

	return out, nil
}

// PruneUploads removes terminal records last updated before cutoff and
// returns how many were removed.
func (s *State) PruneUploads(cutoff time.Time) (int, error) {
	removed := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(uploadsBucket)

		var stale [][]byte

		err := b.ForEach(func(k, v []byte) error {
			var rec models.UploadRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}

			if rec.State.Terminal() && rec.UpdatedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}

			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		removed = len(stale)

		return nil
	})

	return removed, err
}

// --- Drop folder ledger ---

// GetDropFile returns the ledger entry for path in dir, or nil if not found.
func (s *State) GetDropFile(dir, path string) (*DropFile, error) {
	var df *DropFile

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(dropBucket(dir))
		if b == nil {
			return nil
		}

		v := b.Get([]byte(path))
		if v == nil {
			return nil
		}

		df = &DropFile{}

		return json.Unmarshal(v, df)
	})

	return df, err
}

// SetDropFile persists the ledger entry for a file in dir.
func (s *State) SetDropFile(dir string, df DropFile) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(dropBucket(dir))
		if err != nil {
			return err
		}

		data, err := json.Marshal(df)
		if err != nil {
			return err
		}

		return b.Put([]byte(df.Path), data)
	})
}

// DeleteDropFile removes the ledger entry for path in dir.
func (s *State) DeleteDropFile(dir, path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(dropBucket(dir))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(path))
	})
}

// AllDropFiles returns every ledger entry for dir, keyed by path.
func (s *State) AllDropFiles(dir string) (map[string]DropFile, error) {
	result := make(map[string]DropFile)

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(dropBucket(dir))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var df DropFile
			if err := json.Unmarshal(v, &df); err != nil {
				return err
			}

			result[string(k)] = df

			return nil
		})
	})

	return result, err
}

// DefaultPath returns ~/.sharefastly/state.db.
func DefaultPath() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}

	return filepath.Join(dir, ".sharefastly", "state.db"), nil
}

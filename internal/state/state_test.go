package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharefastly/sharefastly.github.io/internal/models"
)

func testDB(t *testing.T) *State {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := LoadAt(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

const testSource = "acme/share/files@main"

// --- LoadAt / Close ---

func TestLoadAt_CreatesDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "state.db")
	s, err := LoadAt(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, stateFilePerm, info.Mode().Perm())
}

func TestLoadAt_ReopensExistingDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	s1, err := LoadAt(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.SetActiveFolder("work-folder"))
	require.NoError(t, s1.Close())

	s2, err := LoadAt(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	assert.Equal(t, "work-folder", s2.ActiveFolder())
}

// --- Preferences ---

func TestActiveFolder_EmptyByDefault(t *testing.T) {
	s := testDB(t)
	assert.Equal(t, "", s.ActiveFolder())
}

func TestSetActiveFolder_Overwrite(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.SetActiveFolder("a-folder"))
	require.NoError(t, s.SetActiveFolder("b-folder"))
	assert.Equal(t, "b-folder", s.ActiveFolder())
}

// --- Listing cache ---

func TestListing_MissingReturnsNil(t *testing.T) {
	s := testDB(t)
	cl, err := s.Listing(testSource)
	require.NoError(t, err)
	assert.Nil(t, cl)
}

func TestSaveListing_RoundTrip(t *testing.T) {
	s := testDB(t)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := []models.RawEntry{
		{Name: "work-folder", SHA: "a", DownloadURL: "https://raw/work-folder"},
		{Name: "05-14-02-03-2024_-_-work-folder_-_-x.txt", SHA: "b", Size: 12},
	}

	require.NoError(t, s.SaveListing(testSource, entries, at))

	cl, err := s.Listing(testSource)
	require.NoError(t, err)
	require.NotNil(t, cl)
	assert.Equal(t, testSource, cl.Source)
	assert.True(t, at.Equal(cl.FetchedAt))
	assert.Equal(t, entries, cl.Entries)
}

func TestSaveListing_ScopedBySource(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.SaveListing("a", []models.RawEntry{{Name: "one"}}, time.Now()))
	require.NoError(t, s.SaveListing("b", []models.RawEntry{{Name: "two"}}, time.Now()))

	cl, err := s.Listing("a")
	require.NoError(t, err)
	require.Len(t, cl.Entries, 1)
	assert.Equal(t, "one", cl.Entries[0].Name)
}

func TestSaveListing_EmptyIsNotNil(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.SaveListing(testSource, nil, time.Now()))

	cl, err := s.Listing(testSource)
	require.NoError(t, err)
	require.NotNil(t, cl)
	assert.NotNil(t, cl.Entries)
	assert.Empty(t, cl.Entries)
}

// --- Upload journal ---

func record(id string, st models.UploadState, updated time.Time) models.UploadRecord {
	return models.UploadRecord{
		ID:        id,
		Name:      "05-14-02-03-2024_-_-ALL-folder_-_-" + id + ".txt",
		State:     st,
		StartedAt: updated.Add(-time.Second),
		UpdatedAt: updated,
	}
}

func TestRecordUpload_RequiresID(t *testing.T) {
	s := testDB(t)
	assert.Error(t, s.RecordUpload(models.UploadRecord{Name: "x"}))
}

func TestRecordUpload_RewritesOnTransition(t *testing.T) {
	s := testDB(t)
	now := time.Now().UTC()

	rec := record("u1", models.UploadPending, now)
	require.NoError(t, s.RecordUpload(rec))

	rec.State = models.UploadRetrying
	rec.Attempts = 2
	rec.Error = "503"
	require.NoError(t, s.RecordUpload(rec))

	got, err := s.Upload("u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.UploadRetrying, got.State)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, "503", got.Error)

	all, err := s.Uploads()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpload_Missing(t *testing.T) {
	s := testDB(t)
	got, err := s.Upload("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUploads_NewestFirst(t *testing.T) {
	s := testDB(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordUpload(record("old", models.UploadCompleted, base)))
	require.NoError(t, s.RecordUpload(record("new", models.UploadCompleted, base.Add(time.Hour))))
	require.NoError(t, s.RecordUpload(record("mid", models.UploadFailed, base.Add(time.Minute))))

	all, err := s.Uploads()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "mid", all[1].ID)
	assert.Equal(t, "old", all[2].ID)
}

func TestInterruptedUploads(t *testing.T) {
	s := testDB(t)
	now := time.Now().UTC()

	require.NoError(t, s.RecordUpload(record("done", models.UploadCompleted, now)))
	require.NoError(t, s.RecordUpload(record("failed", models.UploadFailed, now)))
	require.NoError(t, s.RecordUpload(record("stuck", models.UploadUploading, now)))
	require.NoError(t, s.RecordUpload(record("waiting", models.UploadRetrying, now)))

	got, err := s.InterruptedUploads()
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, r := range got {
		ids[r.ID] = true
	}

	assert.Equal(t, map[string]bool{"stuck": true, "waiting": true}, ids)
}

func TestPruneUploads_KeepsRecentAndUnfinished(t *testing.T) {
	s := testDB(t)
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordUpload(record("old-done", models.UploadCompleted, cutoff.Add(-time.Hour))))
	require.NoError(t, s.RecordUpload(record("old-failed", models.UploadFailed, cutoff.Add(-time.Hour))))
	require.NoError(t, s.RecordUpload(record("old-stuck", models.UploadUploading, cutoff.Add(-time.Hour))))
	require.NoError(t, s.RecordUpload(record("new-done", models.UploadCompleted, cutoff.Add(time.Hour))))

	n, err := s.PruneUploads(cutoff)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := s.Uploads()
	require.NoError(t, err)
	require.Len(t, all, 2)

	for _, r := range all {
		assert.Contains(t, []string{"old-stuck", "new-done"}, r.ID)
	}
}

// --- Drop folder ledger ---

func TestDropFile_CRUD(t *testing.T) {
	s := testDB(t)
	dir := "/home/user/Drop"

	got, err := s.GetDropFile(dir, "a.txt")
	require.NoError(t, err)
	assert.Nil(t, got, "missing bucket reads as absent")

	df := DropFile{Path: "a.txt", Size: 10, MTime: 1700000000, RemoteName: "remote-a", UploadedAt: time.Now().UTC()}
	require.NoError(t, s.SetDropFile(dir, df))

	got, err = s.GetDropFile(dir, "a.txt")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), got.Size)
	assert.Equal(t, "remote-a", got.RemoteName)

	all, err := s.AllDropFiles(dir)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteDropFile(dir, "a.txt"))

	got, err = s.GetDropFile(dir, "a.txt")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDropFile_ScopedByDir(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.SetDropFile("/one", DropFile{Path: "x"}))

	all, err := s.AllDropFiles("/two")
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, s.DeleteDropFile("/two", "x"), "deleting from a missing bucket is a no-op")
}

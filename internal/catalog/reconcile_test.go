package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharefastly/sharefastly.github.io/internal/models"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

func raws(names ...string) []models.RawEntry {
	out := make([]models.RawEntry, len(names))
	for i, n := range names {
		out[i] = raw(n)
	}

	return out
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Raw.Name
	}

	return out
}

// --- Reconcile ---

func TestReconcile_WorkedExample(t *testing.T) {
	snap := Reconcile(raws(
		"05-14-02-03-2024_-_-ALL-folder_-_-notes.txt",
		"work-folder",
		"bad name.txt",
	), codec)

	require.Len(t, snap.Global, 2)
	assert.Equal(t, File, snap.Global[0].Kind)
	assert.Equal(t, "notes.txt", snap.Global[0].DisplayName)
	assert.Equal(t, naming.AllFolder, snap.Global[0].FolderID)
	assert.Equal(t, Orphan, snap.Global[1].Kind)
	assert.Equal(t, "bad name.txt", snap.Global[1].DisplayName)

	require.Contains(t, snap.ByFolder, "work-folder")
	assert.Equal(t, 0, snap.ByFolder["work-folder"].MemberCount)
	assert.Equal(t, "work", snap.ByFolder["work-folder"].Label)
	assert.NotNil(t, snap.ByFolder["work-folder"].Marker)
	assert.NotContains(t, snap.ByFolder, naming.AllFolder)
}

func TestReconcile_SortsNewestFirstWithStableTies(t *testing.T) {
	snap := Reconcile(raws(
		"00-10-01-01-2024_-_-a-folder_-_-old.txt",
		"orphan-one",
		"30-12-05-06-2024_-_-a-folder_-_-newest.txt",
		"00-11-01-01-2024_-_-b-folder_-_-tie-first.txt",
		"orphan-two",
		"00-11-01-01-2024_-_-b-folder_-_-tie-second.txt",
	), codec)

	assert.Equal(t, []string{
		"30-12-05-06-2024_-_-a-folder_-_-newest.txt",
		"00-11-01-01-2024_-_-b-folder_-_-tie-first.txt",
		"00-11-01-01-2024_-_-b-folder_-_-tie-second.txt",
		"00-10-01-01-2024_-_-a-folder_-_-old.txt",
		"orphan-one",
		"orphan-two",
	}, names(snap.Global))
}

func TestReconcile_GlobalNonIncreasing(t *testing.T) {
	snap := Reconcile(raws(
		"00-10-01-01-2020_-_-a-folder_-_-1",
		"??",
		"00-10-01-01-2030_-_-a-folder_-_-2",
		"x-folder",
		"00-10-01-01-2025_-_-a-folder.post",
		"",
		"00-10-01-01-2021_-_-b-folder_-_-3",
	), codec)

	seenUndated := false

	for i, e := range snap.Global {
		assert.NotEqual(t, FolderMarker, e.Kind)

		if e.Timestamp == nil {
			seenUndated = true
			continue
		}

		assert.False(t, seenUndated, "dated entry after an undated one at %d", i)

		if i > 0 && snap.Global[i-1].Timestamp != nil {
			assert.False(t, e.Timestamp.After(*snap.Global[i-1].Timestamp), "order broken at %d", i)
		}
	}
}

func TestReconcile_CountsPerFolder(t *testing.T) {
	snap := Reconcile(raws(
		"work-folder",
		"00-10-01-01-2024_-_-work-folder_-_-a.txt",
		"00-10-02-01-2024_-_-work-folder.post",
		"00-10-03-01-2024_-_-trip-folder_-_-b.jpg",
		"00-10-04-01-2024_-_-ALL-folder_-_-c.txt",
		"mystery",
	), codec)

	assert.Equal(t, 2, snap.ByFolder["work-folder"].MemberCount)
	assert.Equal(t, 1, snap.ByFolder["trip-folder"].MemberCount)
	assert.Nil(t, snap.ByFolder["trip-folder"].Marker, "referenced only, no marker")
	assert.Len(t, snap.ByFolder, 2)

	sum := 0
	for _, f := range snap.ByFolder {
		sum += f.MemberCount
	}

	assert.Equal(t, 3, sum)
	assert.Len(t, snap.Global, 5, "orphans and ungrouped entries are not attributed to named folders")
}

func TestReconcile_AllFolderMarkerIgnored(t *testing.T) {
	snap := Reconcile(raws("ALL-folder"), codec)
	assert.Empty(t, snap.ByFolder)
	assert.Empty(t, snap.Global)
}

func TestReconcile_DuplicateMarkersKeepFirst(t *testing.T) {
	snap := Reconcile([]models.RawEntry{
		{Name: "work-folder", SHA: "first"},
		{Name: "work-folder", SHA: "second"},
	}, codec)

	require.Contains(t, snap.ByFolder, "work-folder")
	assert.Equal(t, "first", snap.ByFolder["work-folder"].Marker.Raw.SHA)
}

func TestReconcile_Empty(t *testing.T) {
	snap := Reconcile(nil, codec)
	assert.NotNil(t, snap.Global)
	assert.Empty(t, snap.Global)
	assert.Empty(t, snap.ByFolder)

	folders := snap.Folders()
	require.Len(t, folders, 1)
	assert.Equal(t, naming.AllFolder, folders[0].ID)
	assert.Equal(t, 0, folders[0].MemberCount)
}

// --- Marker survival ---

func TestReconcile_MarkerSurvivesLastFileDeletion(t *testing.T) {
	before := Reconcile(raws(
		"work-folder",
		"00-10-01-01-2024_-_-work-folder_-_-a.txt",
		"00-10-01-01-2024_-_-temp-folder_-_-b.txt",
	), codec)
	require.Equal(t, 1, before.ByFolder["work-folder"].MemberCount)
	require.Contains(t, before.ByFolder, "temp-folder")

	after := Reconcile(raws("work-folder"), codec)
	require.Contains(t, after.ByFolder, "work-folder")
	assert.Equal(t, 0, after.ByFolder["work-folder"].MemberCount)
	assert.NotContains(t, after.ByFolder, "temp-folder")
}

// --- Folders ---

func TestFolders_AllFirstThenByCount(t *testing.T) {
	snap := Reconcile(raws(
		"empty-folder",
		"00-10-01-01-2024_-_-big-folder_-_-1",
		"00-10-01-01-2024_-_-big-folder_-_-2",
		"00-10-01-01-2024_-_-big-folder_-_-3",
		"00-10-01-01-2024_-_-mid-folder_-_-1",
		"00-10-01-01-2024_-_-also-folder_-_-1",
		"orphan",
	), codec)

	folders := snap.Folders()

	ids := make([]string, len(folders))
	for i, f := range folders {
		ids[i] = f.ID
	}

	assert.Equal(t, []string{naming.AllFolder, "big-folder", "also-folder", "mid-folder", "empty-folder"}, ids)
	assert.Equal(t, AllLabel, folders[0].Label)
	assert.Equal(t, 6, folders[0].MemberCount, "aggregate counts every non-marker entry")
}

func TestHasFolder(t *testing.T) {
	snap := Reconcile(raws("a-folder"), codec)
	assert.True(t, snap.HasFolder("a-folder"))
	assert.True(t, snap.HasFolder(naming.AllFolder))
	assert.False(t, snap.HasFolder("b-folder"))
}

func TestLookup(t *testing.T) {
	snap := Reconcile(raws("a-folder", "00-10-01-01-2024_-_-a-folder_-_-x.txt"), codec)

	e, ok := snap.Lookup("00-10-01-01-2024_-_-a-folder_-_-x.txt")
	require.True(t, ok)
	assert.Equal(t, "x.txt", e.DisplayName)

	_, ok = snap.Lookup("a-folder")
	assert.False(t, ok, "markers are not entries")
}

// --- FilterForFolder ---

func TestFilterForFolder(t *testing.T) {
	snap := Reconcile(raws(
		"work-folder",
		"00-10-01-01-2024_-_-work-folder_-_-a.txt",
		"00-10-02-01-2024_-_-home-folder_-_-b.txt",
		"00-10-03-01-2024_-_-work-folder_-_-c.txt",
		"orphan",
	), codec)

	work := FilterForFolder(snap, "work-folder")
	require.Len(t, work, 2)

	for _, e := range work {
		assert.Equal(t, "work-folder", e.FolderID)
	}

	assert.Equal(t, "c.txt", work[0].DisplayName)

	all := FilterForFolder(snap, naming.AllFolder)
	assert.Equal(t, snap.Global, all)

	assert.Equal(t, snap.Global, FilterForFolder(snap, ""))
	assert.Empty(t, FilterForFolder(snap, "missing-folder"))
}

func TestFilterForFolder_ReturnsCopy(t *testing.T) {
	snap := Reconcile(raws("00-10-01-01-2024_-_-a-folder_-_-x.txt"), codec)

	all := FilterForFolder(snap, naming.AllFolder)
	all[0].DisplayName = "mutated"

	assert.Equal(t, "x.txt", snap.Global[0].DisplayName)
}

func TestEmpty(t *testing.T) {
	snap := Empty()
	assert.Empty(t, snap.Global)
	assert.False(t, snap.Degraded)
	assert.True(t, snap.FetchedAt.Equal(time.Time{}))
}

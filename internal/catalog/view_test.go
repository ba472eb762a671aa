package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

func viewFixture() *Snapshot {
	return Reconcile(raws(
		"work-folder",
		"00-10-05-01-2024_-_-work-folder_-_-quarterly report.pdf",
		"00-10-04-01-2024_-_-home-folder_-_-holiday.jpg",
		"00-10-03-01-2024_-_-work-folder_-_-pdf tips.post",
		"00-10-02-01-2024_-_-work-folder_-_-budget.xlsx",
		"00-10-01-01-2024_-_-home-folder.post",
		"stray report.txt",
	), codec)
}

func TestView_ZeroValueShowsEverything(t *testing.T) {
	snap := viewFixture()

	var v View
	assert.Equal(t, naming.AllFolder, v.Folder())
	assert.Equal(t, names(snap.Global), names(v.Visible(snap)))
}

func TestView_FolderSelection(t *testing.T) {
	snap := viewFixture()

	v := View{}.WithFolder("home-folder")
	got := v.Visible(snap)
	require.Len(t, got, 2)

	for _, e := range got {
		assert.Equal(t, "home-folder", e.FolderID)
	}
}

func TestView_SwitchingFolderRecomputes(t *testing.T) {
	snap := viewFixture()

	v := View{}.WithFolder("work-folder")
	work := v.Visible(snap)

	v = v.WithFolder("home-folder")
	home := v.Visible(snap)

	for _, e := range home {
		assert.NotEqual(t, "work-folder", e.FolderID, "stale entry leaked across folders")
	}

	assert.Len(t, work, 3)
	assert.Len(t, home, 2)
}

func TestView_SubstringSearchKeepsOrder(t *testing.T) {
	snap := viewFixture()

	got := View{Search: "REPORT"}.Visible(snap)
	assert.Equal(t, []string{
		"00-10-05-01-2024_-_-work-folder_-_-quarterly report.pdf",
		"stray report.txt",
	}, names(got))
}

func TestView_SearchByTypeKeyword(t *testing.T) {
	snap := viewFixture()

	got := View{Search: "img"}.Visible(snap)
	require.Len(t, got, 1)
	assert.Equal(t, "holiday.jpg", got[0].DisplayName)
}

func TestView_NotesMatchOnTitleOnly(t *testing.T) {
	snap := viewFixture()

	got := View{Search: "pdf"}.Visible(snap)

	var displayNames []string
	for _, e := range got {
		displayNames = append(displayNames, e.DisplayName)
	}

	assert.Contains(t, displayNames, "quarterly report.pdf")
	assert.Contains(t, displayNames, "pdf tips.post", "title contains pdf")

	got = View{Search: "post"}.Visible(snap)
	for _, e := range got {
		assert.NotEqual(t, Note, e.Kind, "note extension is not searchable: %s", e.Raw.Name)
	}
}

func TestView_FuzzyMatch(t *testing.T) {
	snap := viewFixture()

	got := View{Search: "quartrly"}.Visible(snap)
	require.Len(t, got, 1)
	assert.Equal(t, "quarterly report.pdf", got[0].DisplayName)
}

func TestView_NoMatch(t *testing.T) {
	snap := viewFixture()
	assert.Empty(t, View{Search: "zzzzzz"}.Visible(snap))
}

func TestView_LongQueryFallsBackToSubstring(t *testing.T) {
	snap := viewFixture()

	long := strings.Repeat("q", maxFuzzyQuery+5)
	assert.NotPanics(t, func() {
		assert.Empty(t, View{Search: long}.Visible(snap))
	})
}

func TestView_SearchWithinFolder(t *testing.T) {
	snap := viewFixture()

	got := View{ActiveFolder: "home-folder", Search: "report"}.Visible(snap)
	assert.Empty(t, got)
}

func TestView_DoesNotMutateSnapshot(t *testing.T) {
	snap := viewFixture()
	before := names(snap.Global)

	_ = View{Search: "report"}.Visible(snap)

	assert.Equal(t, before, names(snap.Global))
}

package catalog

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

const (
	// fuzzyThreshold is the highest Bitap score still counted as a match:
	// 0.0 demands an exact match, 1.0 matches anything.
	fuzzyThreshold = 0.35

	// fuzzyDistance is large enough that where a match occurs in the name
	// barely affects its score.
	fuzzyDistance = 1000

	// maxFuzzyQuery is the Bitap pattern limit. Longer queries fall back
	// to substring matching alone.
	maxFuzzyQuery = 32
)

// View is the current folder selection and search text. The zero value
// shows every entry.
type View struct {
	ActiveFolder string `json:"active_folder"`
	Search       string `json:"search"`
}

// Folder returns the active folder id, defaulting to the aggregate one.
func (v View) Folder() string {
	if v.ActiveFolder == "" {
		return naming.AllFolder
	}

	return v.ActiveFolder
}

// WithFolder returns a copy of v showing folderID.
func (v View) WithFolder(folderID string) View {
	v.ActiveFolder = folderID
	return v
}

// WithSearch returns a copy of v filtered by query.
func (v View) WithSearch(query string) View {
	v.Search = query
	return v
}

// Visible returns the entries of the active folder that match the search
// text, in chronological order. It is recomputed from s on every call.
func (v View) Visible(s *Snapshot) []Entry {
	entries := FilterForFolder(s, v.Folder())

	query := strings.ToLower(strings.TrimSpace(v.Search))
	if query == "" {
		return entries
	}

	m := newMatcher(query)
	out := entries[:0]

	for _, e := range entries {
		if m.match(searchText(e)) {
			out = append(out, e)
		}
	}

	return out
}

// searchText is what a query is matched against: a note's title, or
// another entry's display name, extension and type label.
func searchText(e Entry) string {
	if e.Kind == Note {
		return strings.ToLower(e.Title())
	}

	return strings.ToLower(e.DisplayName + " " + e.Extension + " " + e.TypeLabel())
}

type matcher struct {
	query string
	dmp   *diffmatchpatch.DiffMatchPatch
}

func newMatcher(query string) *matcher {
	m := &matcher{query: query}

	if len(query) <= maxFuzzyQuery {
		m.dmp = diffmatchpatch.New()
		m.dmp.MatchThreshold = fuzzyThreshold
		m.dmp.MatchDistance = fuzzyDistance
	}

	return m
}

func (m *matcher) match(text string) bool {
	if text == "" {
		return false
	}

	if strings.Contains(text, m.query) {
		return true
	}

	if m.dmp == nil {
		return false
	}

	return m.dmp.MatchMain(text, m.query, 0) >= 0
}

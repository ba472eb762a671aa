package catalog

import (
	"sort"
	"time"

	"github.com/sharefastly/sharefastly.github.io/internal/models"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

// AllLabel is the display label of the synthetic aggregate folder.
const AllLabel = "All"

// Folder is a virtual folder derived from a listing. It exists because a
// marker object names it, or because at least one entry references it.
type Folder struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	MemberCount int    `json:"member_count" yaml:"member_count"`
	Marker      *Entry `json:"marker,omitempty" yaml:"-"`
}

// Snapshot is the reconciled view of one listing. It is rebuilt from
// scratch for every listing and not modified afterwards.
type Snapshot struct {
	// Global holds every non-marker entry, newest first. Entries without
	// a timestamp follow all dated ones in listing order.
	Global []Entry `json:"global"`

	// ByFolder holds named folders only. The aggregate folder is not
	// included; see Folders.
	ByFolder map[string]*Folder `json:"by_folder"`

	FetchedAt time.Time `json:"fetched_at"`

	// Degraded is set when the listing that produced this snapshot
	// failed and the snapshot is empty for that reason alone.
	Degraded bool `json:"degraded"`
}

// Reconcile classifies raws and builds the snapshot.
func Reconcile(raws []models.RawEntry, codec naming.Codec) *Snapshot {
	snap := &Snapshot{
		Global:   make([]Entry, 0, len(raws)),
		ByFolder: make(map[string]*Folder),
	}

	var markers []Entry

	for _, raw := range raws {
		e := Classify(raw, codec)
		if e.Kind == FolderMarker {
			markers = append(markers, e)
			continue
		}

		snap.Global = append(snap.Global, e)

		if e.FolderID == naming.AllFolder {
			continue
		}

		f := snap.folder(e.FolderID)
		f.MemberCount++
	}

	for i := range markers {
		id := markers[i].Raw.Name
		if id == naming.AllFolder {
			continue
		}

		f := snap.folder(id)
		if f.Marker == nil {
			f.Marker = &markers[i]
		}
	}

	sort.SliceStable(snap.Global, func(i, j int) bool {
		return newer(snap.Global[i], snap.Global[j])
	})

	return snap
}

func (s *Snapshot) folder(id string) *Folder {
	f, ok := s.ByFolder[id]
	if !ok {
		f = &Folder{ID: id, Label: naming.FolderLabel(id)}
		s.ByFolder[id] = f
	}

	return f
}

// newer orders dated entries before undated ones and dated entries by
// timestamp descending.
func newer(a, b Entry) bool {
	switch {
	case a.Timestamp == nil:
		return false
	case b.Timestamp == nil:
		return true
	default:
		return a.Timestamp.After(*b.Timestamp)
	}
}

// Empty returns a snapshot with no entries, as produced from an empty
// listing.
func Empty() *Snapshot {
	return &Snapshot{
		Global:   []Entry{},
		ByFolder: map[string]*Folder{},
	}
}

// Folders returns the directory: the aggregate folder first, then named
// folders by member count descending, ties by label.
func (s *Snapshot) Folders() []Folder {
	named := make([]Folder, 0, len(s.ByFolder))
	for _, f := range s.ByFolder {
		named = append(named, *f)
	}

	sort.Slice(named, func(i, j int) bool {
		if named[i].MemberCount != named[j].MemberCount {
			return named[i].MemberCount > named[j].MemberCount
		}

		if named[i].Label != named[j].Label {
			return named[i].Label < named[j].Label
		}

		return named[i].ID < named[j].ID
	})

	out := make([]Folder, 0, len(named)+1)
	out = append(out, Folder{
		ID:          naming.AllFolder,
		Label:       AllLabel,
		MemberCount: len(s.Global),
	})

	return append(out, named...)
}

// HasFolder reports whether id names the aggregate folder or a folder in
// the snapshot.
func (s *Snapshot) HasFolder(id string) bool {
	if id == naming.AllFolder {
		return true
	}

	_, ok := s.ByFolder[id]

	return ok
}

// Lookup finds a non-marker entry by its remote name.
func (s *Snapshot) Lookup(name string) (Entry, bool) {
	for _, e := range s.Global {
		if e.Raw.Name == name {
			return e, true
		}
	}

	return Entry{}, false
}

// FilterForFolder returns the entries of folderID in chronological
// order, or every entry for the aggregate folder. An empty id means the
// aggregate folder. The result is a fresh slice.
func FilterForFolder(s *Snapshot, folderID string) []Entry {
	if folderID == "" || folderID == naming.AllFolder {
		out := make([]Entry, len(s.Global))
		copy(out, s.Global)

		return out
	}

	out := make([]Entry, 0)

	for _, e := range s.Global {
		if e.FolderID == folderID {
			out = append(out, e)
		}
	}

	return out
}

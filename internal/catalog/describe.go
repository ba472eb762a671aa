package catalog

import (
	"time"

	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

// UntitledNote is the title shown for notes saved without one.
const UntitledNote = "Untitled note"

// FileInfo is an Entry as shown to a user at a given instant. Age is
// relative to that instant and must not be cached.
type FileInfo struct {
	Name        string     `json:"name" yaml:"name"`
	Title       string     `json:"title" yaml:"title"`
	Kind        string     `json:"kind" yaml:"kind"`
	FolderID    string     `json:"folder_id" yaml:"folder_id"`
	Folder      string     `json:"folder" yaml:"folder"`
	Extension   string     `json:"extension,omitempty" yaml:"extension,omitempty"`
	Type        string     `json:"type" yaml:"type"`
	Preview     string     `json:"preview" yaml:"preview"`
	Size        int64      `json:"size" yaml:"size"`
	SizeLabel   string     `json:"size_label" yaml:"size_label"`
	Created     *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Age         string     `json:"age" yaml:"age"`
	DownloadURL string     `json:"download_url,omitempty" yaml:"download_url,omitempty"`
}

// Describe builds the FileInfo of e at now.
func Describe(e Entry, now time.Time) FileInfo {
	folder := AllLabel
	if e.FolderID != naming.AllFolder && e.FolderID != "" {
		folder = naming.FolderLabel(e.FolderID)
	}

	title := e.Title()
	if title == "" && e.Kind == Note {
		title = UntitledNote
	}

	return FileInfo{
		Name:        e.Raw.Name,
		Title:       title,
		Kind:        e.Kind.String(),
		FolderID:    e.FolderID,
		Folder:      folder,
		Extension:   e.Extension,
		Type:        e.TypeLabel(),
		Preview:     e.PreviewKind(),
		Size:        e.Raw.Size,
		SizeLabel:   FormatSize(e.Raw.Size),
		Created:     e.Timestamp,
		Age:         e.RelativeLabel(now),
		DownloadURL: e.Raw.DownloadURL,
	}
}

// DescribeAll describes entries in order.
func DescribeAll(entries []Entry, now time.Time) []FileInfo {
	out := make([]FileInfo, len(entries))
	for i, e := range entries {
		out[i] = Describe(e, now)
	}

	return out
}

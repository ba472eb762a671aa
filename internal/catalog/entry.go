// Package catalog turns a flat remote listing into structured entries,
// folders and chronological views.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/sharefastly/sharefastly.github.io/internal/models"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

// Kind classifies a listed object.
type Kind int

const (
	File Kind = iota
	Note
	FolderMarker
	Orphan
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Note:
		return "note"
	case FolderMarker:
		return "folder_marker"
	default:
		return "orphan"
	}
}

// MarshalText encodes the kind by name so JSON and YAML output stay
// readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnknownDate is the relative label given to entries without a parsable
// timestamp.
const UnknownDate = "Unknown date"

// Entry is a classified listing entry. It is built once per listing and
// never modified.
type Entry struct {
	Raw         models.RawEntry `json:"raw"`
	Kind        Kind            `json:"kind"`
	Timestamp   *time.Time      `json:"timestamp"`
	DisplayName string          `json:"display_name"`
	Extension   string          `json:"extension"`
	FolderID    string          `json:"folder_id"`
}

// Classify derives an Entry from a raw listing entry. It accepts any
// name, including empty and malformed ones.
func Classify(raw models.RawEntry, codec naming.Codec) Entry {
	shape := codec.Decode(raw.Name)

	e := Entry{
		Raw:      raw,
		FolderID: naming.AllFolder,
	}

	switch shape.Kind {
	case naming.Marker:
		epoch := time.Unix(0, 0).UTC()
		e.Kind = FolderMarker
		e.Timestamp = &epoch
		e.DisplayName = shape.DisplayName
	case naming.Dated:
		ts := shape.Time
		e.Timestamp = &ts
		e.DisplayName = shape.DisplayName
		e.Extension = Extension(shape.DisplayName)
		e.FolderID = shape.FolderID

		e.Kind = File
		if e.Extension == naming.NoteExt {
			e.Kind = Note
		}
	case naming.UntitledNote:
		ts := shape.Time
		e.Kind = Note
		e.Timestamp = &ts
		e.Extension = naming.NoteExt
		e.FolderID = shape.FolderID
	default:
		e.Kind = Orphan
		e.DisplayName = raw.Name
		e.Extension = Extension(raw.Name)
	}

	return e
}

// Extension returns the lowercased text after the last dot of name, or
// "" when there is none.
func Extension(name string) string {
	dot := strings.LastIndex(name, ".")
	if dot < 0 || dot == len(name)-1 {
		return ""
	}

	return strings.ToLower(name[dot+1:])
}

// Title is the display name of a note without its pseudo-extension. For
// other kinds it is the display name unchanged.
func (e Entry) Title() string {
	if e.Kind != Note {
		return e.DisplayName
	}

	dot := strings.LastIndex(e.DisplayName, ".")
	if dot < 0 {
		return e.DisplayName
	}

	return e.DisplayName[:dot]
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerMonth  = 2592000
	secondsPerYear   = 31536000
)

// RelativeLabel describes how long ago the entry was created relative to
// now. It must be computed at display time, never stored.
func (e Entry) RelativeLabel(now time.Time) string {
	switch {
	case e.Kind == FolderMarker:
		return ""
	case e.Timestamp == nil:
		return UnknownDate
	}

	elapsed := int64(now.Sub(*e.Timestamp) / time.Second)

	switch {
	case elapsed < secondsPerMinute:
		return "now"
	case elapsed < secondsPerHour:
		return fmt.Sprintf("%d min ago", elapsed/secondsPerMinute)
	case elapsed < secondsPerDay:
		return ago(elapsed/secondsPerHour, "hour")
	case elapsed < secondsPerMonth:
		return ago(elapsed/secondsPerDay, "day")
	case elapsed < secondsPerYear:
		return ago(elapsed/secondsPerMonth, "month")
	default:
		return ago(elapsed/secondsPerYear, "year")
	}
}

func ago(n int64, unit string) string {
	if n > 1 {
		unit += "s"
	}

	return fmt.Sprintf("%d %s ago", n, unit)
}

var typeLabels = map[string]string{
	"pdf":  "PDF",
	"doc":  "DOC",
	"docx": "DOC",
	"txt":  "TXT",
	"rtf":  "RTF",
	"xls":  "XLS",
	"xlsx": "XLS",
	"csv":  "CSV",
	"ppt":  "PPT",
	"pptx": "PPT",
	"jpg":  "IMG",
	"jpeg": "IMG",
	"png":  "IMG",
	"gif":  "GIF",
	"bmp":  "IMG",
	"tiff": "IMG",
	"webp": "IMG",
	"svg":  "SVG",
	"mp3":  "AUD",
	"wav":  "AUD",
	"ogg":  "AUD",
	"m4a":  "AUD",
	"mp4":  "VID",
	"avi":  "VID",
	"mov":  "VID",
	"wmv":  "VID",
	"webm": "VID",
	"zip":  "ZIP",
	"rar":  "RAR",
	"7z":   "ZIP",
	"html": "CODE",
	"css":  "CODE",
	"js":   "CODE",
	"ts":   "CODE",
	"py":   "CODE",
	"java": "CODE",
	"go":   "CODE",
	"tex":  "TEX",
	"bib":  "TEX",
	"epub": "BOOK",
	"mobi": "BOOK",
	"json": "JSON",
	"xml":  "XML",
	"post": "NOTE",
}

// TypeLabel returns a short uppercase label for an extension.
func TypeLabel(ext string) string {
	if label, ok := typeLabels[strings.ToLower(ext)]; ok {
		return label
	}

	return "FILE"
}

// TypeLabel returns the label for the entry's extension.
func (e Entry) TypeLabel() string {
	if e.Kind == FolderMarker {
		return "FOLDER"
	}

	return TypeLabel(e.Extension)
}

// Preview kinds.
const (
	PreviewImage       = "image"
	PreviewVideo       = "video"
	PreviewAudio       = "audio"
	PreviewText        = "text"
	PreviewPDF         = "pdf"
	PreviewPost        = "post"
	PreviewUnsupported = "unsupported"
)

var previewKinds = func() map[string]string {
	m := make(map[string]string)

	add := func(kind string, exts ...string) {
		for _, ext := range exts {
			if _, taken := m[ext]; !taken {
				m[ext] = kind
			}
		}
	}

	add(PreviewPost, "post")
	add(PreviewImage, "jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "ico")
	add(PreviewVideo, "mp4", "webm", "ogg", "mov")
	add(PreviewAudio, "mp3", "wav", "ogg", "aac", "m4a")
	add(PreviewText, "txt", "json", "md", "csv", "xml", "html", "css", "js", "ts", "jsx", "tsx",
		"py", "java", "c", "cpp", "h", "hpp", "sh", "bash", "yml", "yaml", "toml", "ini", "cfg",
		"conf", "log", "sql", "php", "rb", "go", "rs", "swift", "kt", "scala", "r", "pl", "lua",
		"dart", "vue", "svelte")
	add(PreviewPDF, "pdf")

	return m
}()

// PreviewKind reports how a client can render the entry inline.
func (e Entry) PreviewKind() string {
	if kind, ok := previewKinds[e.Extension]; ok {
		return kind
	}

	return PreviewUnsupported
}

// IsTextual reports whether the entry's content can be shown as text.
func (e Entry) IsTextual() bool {
	kind := e.PreviewKind()
	return kind == PreviewText || kind == PreviewPost
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with binary units, two decimals and
// trailing zeros trimmed: 0 Bytes, 512 Bytes, 1.5 KB.
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}

	value := float64(n)
	unit := 0

	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")

	return s + " " + sizeUnits[unit]
}

// Package naming encodes and decodes the flat object names that carry a
// timestamp, a virtual folder and a display name in a single string.
//
// Three shapes are recognised:
//
//	mm-HH-DD-MM-YYYY_-_-<folder>_-_-<display name>   dated entry
//	mm-HH-DD-MM-YYYY_-_-<folder>.post                untitled note
//	<label>-folder                                   folder marker
//
// Anything else is an orphan. Decoding is total: it never panics and
// never returns an error.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// Separator splits the segments of a dated name.
	Separator = "_-_-"

	// FolderSuffix marks a zero-byte folder marker object.
	FolderSuffix = "-folder"

	// NoteExt is the pseudo-extension given to inline text notes.
	NoteExt = "post"

	// AllFolder is the sentinel folder id for entries that belong to no
	// named folder. It is also the id of the synthetic aggregate folder.
	AllFolder = "ALL-folder"

	// timeLayout is minute-hour-day-month-year. The minute-first order
	// is part of the wire format.
	timeLayout = "04-15-02-01-2006"
)

var datedPrefix = regexp.MustCompile(`^(\d{2}-\d{2}-\d{2}-\d{2}-\d{4})` + regexp.QuoteMeta(Separator))

// Kind identifies which shape a name decoded to.
type Kind int

const (
	Orphan Kind = iota
	Dated
	UntitledNote
	Marker
)

func (k Kind) String() string {
	switch k {
	case Dated:
		return "dated"
	case UntitledNote:
		return "untitled_note"
	case Marker:
		return "marker"
	default:
		return "orphan"
	}
}

// Shape is the structured form of a name. Time is only meaningful for
// Dated and UntitledNote. For a Marker, FolderID is the full marker name
// and DisplayName is its label.
type Shape struct {
	Kind        Kind
	Time        time.Time
	FolderID    string
	DisplayName string
}

// Codec encodes and decodes names in a fixed time zone. The zero value
// uses the local zone.
//
// Names carry wall-clock time without an offset, so a zone with daylight
// saving time cannot round-trip the repeated hour when clocks go back: such
// a name decodes to either occurrence of that wall-clock time. UTC and
// fixed zones round-trip every minute.
type Codec struct {
	Location *time.Location
}

func (c Codec) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}

	return c.Location
}

// Encode produces the dated form of a name. An empty displayName yields
// the untitled note form. folderID is stored in its canonical form (see
// CanonicalFolder), which is what Decode returns.
func (c Codec) Encode(t time.Time, folderID, displayName string) string {
	folderID = CanonicalFolder(folderID)

	stamp := t.In(c.location()).Format(timeLayout)
	if displayName == "" {
		return stamp + Separator + folderID + "." + NoteExt
	}

	return stamp + Separator + folderID + Separator + displayName
}

// Decode parses name into its shape. Timestamps with out-of-range fields
// (month 13, minute 60, 30 February) do not parse, and such names fall
// through to the remaining shapes.
func (c Codec) Decode(name string) Shape {
	var (
		stamp   time.Time
		rest    string
		stamped bool
	)

	if m := datedPrefix.FindStringSubmatch(name); m != nil {
		t, err := time.ParseInLocation(timeLayout, m[1], c.location())
		if err == nil {
			stamp, rest, stamped = t, name[len(m[0]):], true
		}
	}

	if stamped {
		if folder, display, ok := strings.Cut(rest, Separator); ok {
			return Shape{
				Kind:        Dated,
				Time:        stamp,
				FolderID:    folderOrAll(folder),
				DisplayName: display,
			}
		}
	}

	if IsMarker(name) {
		return Shape{
			Kind:        Marker,
			FolderID:    name,
			DisplayName: FolderLabel(name),
		}
	}

	if stamped && strings.HasSuffix(rest, "."+NoteExt) {
		return Shape{
			Kind:     UntitledNote,
			Time:     stamp,
			FolderID: folderOrAll(strings.TrimSuffix(rest, "."+NoteExt)),
		}
	}

	return Shape{Kind: Orphan, FolderID: AllFolder, DisplayName: name}
}

// CanonicalFolder returns the folder segment Encode writes for id.
// Separator tokens are removed and trailing "_-" pairs are trimmed, since
// either would move the segment boundary on decode. An id with nothing
// left is AllFolder.
func CanonicalFolder(id string) string {
	id = StripSeparator(id)
	for strings.HasSuffix(id, "_-") {
		id = strings.TrimSuffix(id, "_-")
	}

	return folderOrAll(id)
}

func folderOrAll(id string) string {
	if id == "" {
		return AllFolder
	}

	return id
}

// IsMarker reports whether name is a folder marker: it ends in the
// folder suffix, has a non-empty label and contains no separator.
func IsMarker(name string) bool {
	return len(name) > len(FolderSuffix) &&
		strings.HasSuffix(name, FolderSuffix) &&
		!strings.Contains(name, Separator)
}

// MarkerName returns the marker object name for a folder label.
func MarkerName(label string) string {
	return label + FolderSuffix
}

// FolderID returns the marker name for a user-supplied folder label, or
// "" when nothing usable remains after sanitizing. Trailing '_' and '-'
// are trimmed when they would run into the suffix and form a separator.
func FolderID(label string) string {
	clean := Sanitize(label)
	if strings.Contains(MarkerName(clean), Separator) {
		clean = strings.TrimSpace(strings.TrimRight(clean, "_-"))
	}

	if clean == "" {
		return ""
	}

	return MarkerName(clean)
}

// ResolveFolder accepts a folder id or a user label and returns the
// folder id. Empty input and the aggregate label select AllFolder.
func ResolveFolder(arg string) string {
	arg = strings.TrimSpace(arg)

	switch {
	case arg == "", arg == AllFolder, strings.EqualFold(arg, "all"):
		return AllFolder
	case IsMarker(arg):
		return arg
	}

	return FolderID(arg)
}

// FolderLabel strips the folder suffix from a folder id.
func FolderLabel(id string) string {
	return strings.TrimSuffix(id, FolderSuffix)
}

var disallowed = regexp.MustCompile(`[^a-zA-Z0-9\-_\s]`)

// Sanitize cleans a user-supplied folder name or note title. Accented
// letters are folded to their base letter, every other character outside
// letters, digits, '-', '_' and whitespace is dropped, and separator
// tokens are removed.
func Sanitize(s string) string {
	s = foldMarks(strings.TrimSpace(s))
	s = disallowed.ReplaceAllString(s, "")

	return strings.TrimSpace(StripSeparator(s))
}

func foldMarks(s string) string {
	decomposed := norm.NFKD.String(s)

	var b strings.Builder

	b.Grow(len(decomposed))

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}

		b.WriteRune(r)
	}

	return norm.NFC.String(b.String())
}

// StripSeparator removes every separator token from s, including tokens
// that only appear once an earlier one is removed.
func StripSeparator(s string) string {
	for strings.Contains(s, Separator) {
		s = strings.ReplaceAll(s, Separator, "")
	}

	return s
}

// WithCounter inserts "(n)" before the extension of a name's display
// segment. An untitled note is rewritten to the dated form with display
// name "(n).post" so its folder segment survives.
func (c Codec) WithCounter(name string, n int) string {
	suffix := fmt.Sprintf("(%d)", n)

	shape := c.Decode(name)
	switch shape.Kind {
	case UntitledNote:
		return strings.TrimSuffix(name, "."+NoteExt) + Separator + suffix + "." + NoteExt
	case Dated:
		start := len(name) - len(shape.DisplayName)
		return name[:start] + insertBeforeExt(shape.DisplayName, suffix)
	default:
		return insertBeforeExt(name, suffix)
	}
}

func insertBeforeExt(name, suffix string) string {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return name + suffix
	}

	return name[:dot] + suffix + name[dot:]
}

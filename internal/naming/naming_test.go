package naming

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var utc = Codec{Location: time.UTC}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

// --- Encode ---

func TestEncode_MinuteFirstLayout(t *testing.T) {
	got := utc.Encode(at(2024, time.March, 2, 14, 5), "work-folder", "report.pdf")
	assert.Equal(t, "05-14-02-03-2024_-_-work-folder_-_-report.pdf", got)
}

func TestEncode_EmptyDisplayNameIsUntitledNote(t *testing.T) {
	got := utc.Encode(at(2024, time.December, 31, 23, 59), "work-folder", "")
	assert.Equal(t, "59-23-31-12-2024_-_-work-folder.post", got)
}

func TestEncode_EmptyFolderUsesSentinel(t *testing.T) {
	got := utc.Encode(at(2024, time.January, 1, 0, 0), "", "a.txt")
	assert.Equal(t, "00-00-01-01-2024_-_-ALL-folder_-_-a.txt", got)
}

func TestEncode_ConvertsToCodecZone(t *testing.T) {
	c := Codec{Location: time.FixedZone("UTC+2", 2*60*60)}
	got := c.Encode(at(2024, time.July, 1, 10, 30), "f-folder", "x.txt")
	assert.True(t, strings.HasPrefix(got, "30-12-01-07-2024"), got)
}

func TestEncode_CanonicalizesFolder(t *testing.T) {
	stamp := at(2024, time.March, 2, 14, 5)

	tests := []struct {
		in, want string
	}{
		{"", AllFolder},
		{"x_-", "x"},
		{"x_-_-_-", "x"},
		{"_-", AllFolder},
		{"a_-_-b-folder", "ab-folder"},
		{"x_", "x_"},
		{"x-", "x-"},
		{"x_-_", "x_-_"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalFolder(tt.in))

			s := utc.Decode(utc.Encode(stamp, tt.in, "_-a.txt"))
			assert.Equal(t, Dated, s.Kind)
			assert.Equal(t, tt.want, s.FolderID)
			assert.Equal(t, "_-a.txt", s.DisplayName)

			note := utc.Decode(utc.Encode(stamp, tt.in, ""))
			assert.Equal(t, UntitledNote, note.Kind)
			assert.Equal(t, tt.want, note.FolderID)
		})
	}
}

// --- Decode ---

func TestDecode_Dated(t *testing.T) {
	s := utc.Decode("05-14-02-03-2024_-_-work-folder_-_-report.pdf")
	assert.Equal(t, Dated, s.Kind)
	assert.Equal(t, at(2024, time.March, 2, 14, 5), s.Time)
	assert.Equal(t, "work-folder", s.FolderID)
	assert.Equal(t, "report.pdf", s.DisplayName)
}

func TestDecode_DatedDisplayNameEndingInPost(t *testing.T) {
	s := utc.Decode("05-14-02-03-2024_-_-work-folder_-_-ideas.post")
	assert.Equal(t, Dated, s.Kind)
	assert.Equal(t, "ideas.post", s.DisplayName)
}

func TestDecode_UntitledNote(t *testing.T) {
	s := utc.Decode("59-23-31-12-2024_-_-work-folder.post")
	assert.Equal(t, UntitledNote, s.Kind)
	assert.Equal(t, "work-folder", s.FolderID)
	assert.Equal(t, "", s.DisplayName)
	assert.Equal(t, at(2024, time.December, 31, 23, 59), s.Time)
}

func TestDecode_Marker(t *testing.T) {
	s := utc.Decode("work-folder")
	assert.Equal(t, Marker, s.Kind)
	assert.Equal(t, "work-folder", s.FolderID)
	assert.Equal(t, "work", s.DisplayName)
}

func TestDecode_EmptyFolderSegmentIsSentinel(t *testing.T) {
	s := utc.Decode("05-14-02-03-2024_-__-_-a.txt")
	assert.Equal(t, Orphan, s.Kind, "malformed separator run")

	s = utc.Decode("05-14-02-03-2024_-_-_-_-a.txt")
	assert.Equal(t, Dated, s.Kind)
	assert.Equal(t, AllFolder, s.FolderID)
	assert.Equal(t, "a.txt", s.DisplayName)
}

func TestDecode_Orphans(t *testing.T) {
	names := []string{
		"",
		"bad name.txt",
		"_-_-",
		"_-_-_-_-_-_-",
		"-folder",
		"x_-_-y-folder",
		"13-99-02-03-2024_-_-f_-_-a.txt",
		"05-14-30-02-2024_-_-f_-_-a.txt",
		"05-14-02-13-2024_-_-f_-_-a.txt",
		"60-14-02-03-2024_-_-f_-_-a.txt",
		"05-14-02-03-2024_-_-only-one-separator.txt",
		"5-14-02-03-2024_-_-f_-_-a.txt",
		"05-14-02-03-24_-_-f_-_-a.txt",
		strings.Repeat("x", 100000),
		strings.Repeat(Separator, 1000),
	}

	for _, name := range names {
		short := name
		if len(short) > 40 {
			short = short[:40]
		}

		t.Run(short, func(t *testing.T) {
			var s Shape

			assert.NotPanics(t, func() { s = utc.Decode(name) })
			assert.Equal(t, Orphan, s.Kind)
			assert.Equal(t, AllFolder, s.FolderID)
		})
	}
}

func TestDecode_MarkerWithoutStamp(t *testing.T) {
	s := utc.Decode("archive-folder")
	assert.Equal(t, Marker, s.Kind)
}

// --- Round trip ---

func TestRoundTrip_Table(t *testing.T) {
	tests := []struct {
		folder, display string
	}{
		{"work-folder", "report.pdf"},
		{"work-folder", ""},
		{"my stuff-folder", "photo 1.JPG"},
		{"x", "no-extension"},
		{"x", ".hidden"},
		{"a-folder", "ends.post"},
		{"a-folder", "dots.in.name.tar.gz"},
		{"ünïcode-folder", "Übersicht.md"},
		{"a-folder", "-folder"},
	}

	stamp := at(2023, time.November, 9, 7, 3)

	for _, tt := range tests {
		t.Run(tt.folder+"/"+tt.display, func(t *testing.T) {
			name := utc.Encode(stamp, tt.folder, tt.display)
			s := utc.Decode(name)

			assert.Equal(t, stamp, s.Time)
			assert.Equal(t, tt.folder, s.FolderID)
			assert.Equal(t, tt.display, s.DisplayName)

			if tt.display == "" {
				assert.Equal(t, UntitledNote, s.Kind)
			} else {
				assert.Equal(t, Dated, s.Kind)
			}
		})
	}
}

func TestRoundTrip_DaylightSavingZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	c := Codec{Location: ny}

	for _, stamp := range []time.Time{
		at(2024, time.January, 15, 12, 0),
		at(2024, time.July, 4, 16, 45),
		at(2024, time.March, 10, 7, 30),
		at(2024, time.November, 3, 8, 0),
	} {
		s := c.Decode(c.Encode(stamp, "f-folder", "a.txt"))
		assert.True(t, stamp.Equal(s.Time), "%s decoded as %s", stamp, s.Time.UTC())
	}

	// 01:30 occurs twice on 2024-11-03. Either occurrence reads back with
	// the same wall clock, possibly an hour off.
	for _, repeated := range []time.Time{at(2024, time.November, 3, 5, 30), at(2024, time.November, 3, 6, 30)} {
		s := c.Decode(c.Encode(repeated, "f-folder", "a.txt"))
		assert.Equal(t, repeated.In(ny).Format(timeLayout), s.Time.Format(timeLayout))

		off := repeated.Sub(s.Time)
		assert.Contains(t, []time.Duration{-time.Hour, 0, time.Hour}, off)
	}
}

func TestRoundTrip_Random(t *testing.T) {
	alphabet := []rune("abcXYZ019 _-.()éü/\\")
	rng := rand.New(rand.NewSource(42))

	randString := func(n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}

		return StripSeparator(b.String())
	}

	for i := 0; i < 500; i++ {
		stamp := time.Date(1000+rng.Intn(8999), time.Month(1+rng.Intn(12)), 1+rng.Intn(28),
			rng.Intn(24), rng.Intn(60), rng.Intn(60), 0, time.UTC)
		folder := randString(1 + rng.Intn(12))
		if folder == "" || strings.HasSuffix(folder, "_-") {
			folder += "f"
		}

		display := randString(rng.Intn(16))

		name := utc.Encode(stamp, folder, display)
		s := utc.Decode(name)

		require.Equal(t, stamp.Truncate(time.Minute), s.Time, "name %q", name)

		if display == "" {
			require.Equal(t, UntitledNote, s.Kind, "name %q", name)
		} else {
			require.Equal(t, Dated, s.Kind, "name %q", name)
			require.Equal(t, display, s.DisplayName, "name %q", name)
		}

		require.Equal(t, folder, s.FolderID, "name %q", name)
	}
}

// --- Sanitize ---

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Work Stuff  ", "Work Stuff"},
		{"a/b\\c:d*e?", "abcde"},
		{"café", "cafe"},
		{"under_score-dash", "under_score-dash"},
		{"a_-_-b", "ab"},
		{"a_-_-_-_-b", "ab"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "Sanitize(%q)", tt.in)
	}
}

func TestStripSeparator_Nested(t *testing.T) {
	got := StripSeparator("_-_" + Separator + "-")
	assert.NotContains(t, got, Separator)
}

// --- Markers ---

func TestIsMarker(t *testing.T) {
	assert.True(t, IsMarker("work-folder"))
	assert.True(t, IsMarker(AllFolder))
	assert.False(t, IsMarker("-folder"))
	assert.False(t, IsMarker("work"))
	assert.False(t, IsMarker("a_-_-work-folder"))
}

func TestMarkerName_FolderLabel(t *testing.T) {
	assert.Equal(t, "Trips 2024-folder", MarkerName("Trips 2024"))
	assert.Equal(t, "Trips 2024", FolderLabel("Trips 2024-folder"))
	assert.Equal(t, "plain", FolderLabel("plain"))
}

// --- WithCounter ---

func TestWithCounter_Dated(t *testing.T) {
	name := "05-14-02-03-2024_-_-work-folder_-_-report.pdf"
	assert.Equal(t, "05-14-02-03-2024_-_-work-folder_-_-report(1).pdf", utc.WithCounter(name, 1))
	assert.Equal(t, "05-14-02-03-2024_-_-work-folder_-_-report(2).pdf", utc.WithCounter(name, 2))
}

func TestWithCounter_DottedFolderUntouched(t *testing.T) {
	name := "05-14-02-03-2024_-_-v1.2-folder_-_-README"
	assert.Equal(t, "05-14-02-03-2024_-_-v1.2-folder_-_-README(3)", utc.WithCounter(name, 3))
}

func TestWithCounter_UntitledNoteKeepsFolder(t *testing.T) {
	name := "05-14-02-03-2024_-_-work-folder.post"
	got := utc.WithCounter(name, 1)
	assert.Equal(t, "05-14-02-03-2024_-_-work-folder_-_-(1).post", got)

	s := utc.Decode(got)
	assert.Equal(t, Dated, s.Kind)
	assert.Equal(t, "work-folder", s.FolderID)
}

func TestWithCounter_Plain(t *testing.T) {
	assert.Equal(t, "notes(1).txt", utc.WithCounter("notes.txt", 1))
	assert.Equal(t, "Makefile(12)", utc.WithCounter("Makefile", 12))
}

func TestKind_String(t *testing.T) {
	for _, k := range []Kind{Orphan, Dated, UntitledNote, Marker} {
		assert.NotEmpty(t, k.String())
	}

	assert.Equal(t, "orphan", fmt.Sprint(Kind(99)))
}

// --- FolderID ---

func TestFolderID(t *testing.T) {
	tests := map[string]string{
		"Work":          "Work-folder",
		"  my trip  ":   "my trip-folder",
		"café!":         "cafe-folder",
		"a_-_":          "a-folder",
		"x_-_-y":        "xy-folder",
		"!!!":           "",
		"":              "",
		"a_-_-":         "a-folder",
		"2024-archive_": "2024-archive_-folder",
	}

	for in, want := range tests {
		got := FolderID(in)
		assert.Equal(t, want, got, "FolderID(%q)", in)

		if got != "" {
			assert.True(t, IsMarker(got), "FolderID(%q) must be a marker", in)
		}
	}
}

func TestResolveFolder(t *testing.T) {
	tests := map[string]string{
		"":            AllFolder,
		"  ":          AllFolder,
		"ALL":         AllFolder,
		"all":         AllFolder,
		AllFolder:     AllFolder,
		"work-folder": "work-folder",
		"work":        "work-folder",
		"Team Docs!":  "Team Docs-folder",
		"???":         "",
	}

	for in, want := range tests {
		assert.Equal(t, want, ResolveFolder(in), "ResolveFolder(%q)", in)
	}
}

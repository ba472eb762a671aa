package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sharefastly/sharefastly.github.io/internal/models"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

func TestDescribe_File(t *testing.T) {
	codec := naming.Codec{Location: time.UTC}
	created := time.Date(2024, time.March, 2, 14, 5, 0, 0, time.UTC)
	raw := models.RawEntry{
		Name:        codec.Encode(created, "work-folder", "report.pdf"),
		Size:        1536,
		DownloadURL: "https://raw/x",
	}

	info := Describe(Classify(raw, codec), created.Add(3*time.Hour))

	assert.Equal(t, raw.Name, info.Name)
	assert.Equal(t, "report.pdf", info.Title)
	assert.Equal(t, "file", info.Kind)
	assert.Equal(t, "work-folder", info.FolderID)
	assert.Equal(t, "work", info.Folder)
	assert.Equal(t, "pdf", info.Extension)
	assert.Equal(t, "PDF", info.Type)
	assert.Equal(t, PreviewPDF, info.Preview)
	assert.Equal(t, "1.5 KB", info.SizeLabel)
	assert.Equal(t, "3 hours ago", info.Age)
	assert.True(t, created.Equal(*info.Created))
	assert.Equal(t, "https://raw/x", info.DownloadURL)
}

func TestDescribe_NotesAndOrphans(t *testing.T) {
	codec := naming.Codec{Location: time.UTC}
	now := time.Date(2024, time.March, 2, 14, 5, 0, 0, time.UTC)

	titled := Describe(Classify(models.RawEntry{Name: codec.Encode(now, "", "Ideas.post")}, codec), now)
	assert.Equal(t, "Ideas", titled.Title)
	assert.Equal(t, AllLabel, titled.Folder)
	assert.Equal(t, "now", titled.Age)

	untitled := Describe(Classify(models.RawEntry{Name: codec.Encode(now, "", "")}, codec), now)
	assert.Equal(t, "note", untitled.Kind)
	assert.Equal(t, UntitledNote, untitled.Title)

	orphan := Describe(Classify(models.RawEntry{Name: "README.md"}, codec), now)
	assert.Equal(t, "orphan", orphan.Kind)
	assert.Equal(t, UnknownDate, orphan.Age)
	assert.Nil(t, orphan.Created)
}

func TestDescribeAll_KeepsOrder(t *testing.T) {
	codec := naming.Codec{Location: time.UTC}
	entries := []Entry{
		Classify(models.RawEntry{Name: "b.txt"}, codec),
		Classify(models.RawEntry{Name: "a.txt"}, codec),
	}

	got := DescribeAll(entries, time.Now())
	assert.Equal(t, "b.txt", got[0].Name)
	assert.Equal(t, "a.txt", got[1].Name)
	assert.Empty(t, DescribeAll(nil, time.Now()))
}

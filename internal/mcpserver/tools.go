// Package mcpserver registers MCP tools that expose the share. It adapts
// the sync session to the MCP SDK's tool handler interface.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sharefastly/sharefastly.github.io/internal/auth"
	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

// defaultReadBytes caps share_read output unless max_bytes is given.
const defaultReadBytes = 64 << 10

// Deps holds what the tools operate on.
type Deps struct {
	Session     *syncer.Session
	DeleteGuard *auth.DeleteGuard
	Logger      *slog.Logger

	// Now stamps relative ages. Defaults to time.Now.
	Now func() time.Time
}

type tools struct {
	Deps
}

// RegisterTools adds all share tools to the given MCP server.
func RegisterTools(server *mcp.Server, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	t := &tools{Deps: deps}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share_list",
		Description: "List shared files, newest first. Optionally restrict to one folder (label or id) and filter by a fuzzy search over names and types. Returns name, title, folder, type and age for each file. No content.",
	}, t.list)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share_folders",
		Description: "List folders with member counts. The first entry is the aggregate folder holding every file.",
	}, t.folders)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share_read",
		Description: "Read the content of a note or text file by its stored name (from share_list). Binary files are refused. Output is capped at max_bytes.",
	}, t.read)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share_note",
		Description: "Save a text note. The title is optional; the note is stamped with the current time and stored in the given folder, or in no folder.",
	}, t.note)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share_upload",
		Description: "Upload a file given as base64. A name already taken gets a (n) counter. Failed attempts are retried.",
	}, t.upload)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share_create_folder",
		Description: "Create an empty folder. The name is cleaned to letters, digits, spaces, '-' and '_'.",
	}, t.createFolder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share_delete",
		Description: "Delete a file by its stored name. Requires the delete password.",
	}, t.deleteFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share_refresh",
		Description: "Re-read the remote listing after waiting for recent writes to settle.",
	}, t.refresh)
}

// --- Input types ---
// The MCP SDK infers JSON schema from these struct types via jsonschema tags.

// ListInput holds parameters for share_list.
type ListInput struct {
	Folder string `json:"folder,omitempty" jsonschema:"folder label or id, defaults to all files"`
	Query  string `json:"query,omitempty" jsonschema:"fuzzy search text"`
}

// FoldersInput has no parameters.
type FoldersInput struct{}

// ReadInput holds parameters for share_read.
type ReadInput struct {
	Name     string `json:"name" jsonschema:"required,stored file name"`
	MaxBytes int    `json:"max_bytes,omitempty" jsonschema:"maximum bytes of content to return, defaults to 65536"`
}

// NoteInput holds parameters for share_note.
type NoteInput struct {
	Title   string `json:"title,omitempty" jsonschema:"optional note title"`
	Content string `json:"content" jsonschema:"required,note text"`
	Folder  string `json:"folder,omitempty" jsonschema:"folder label or id"`
}

// UploadInput holds parameters for share_upload.
type UploadInput struct {
	Filename      string `json:"filename" jsonschema:"required,file name including extension"`
	ContentBase64 string `json:"content_base64" jsonschema:"required,file content, standard base64"`
	Folder        string `json:"folder,omitempty" jsonschema:"folder label or id"`
}

// FolderInput holds parameters for share_create_folder.
type FolderInput struct {
	Name string `json:"name" jsonschema:"required,folder name"`
}

// DeleteInput holds parameters for share_delete.
type DeleteInput struct {
	Name     string `json:"name" jsonschema:"required,stored file name"`
	Password string `json:"password" jsonschema:"required,delete password"`
}

// RefreshInput has no parameters.
type RefreshInput struct{}

// --- Results ---

// ListResult is returned by share_list.
type ListResult struct {
	Folder   string             `json:"folder"`
	Query    string             `json:"query,omitempty"`
	Total    int                `json:"total"`
	Degraded bool               `json:"degraded"`
	Files    []catalog.FileInfo `json:"files"`
}

// FolderInfo describes one folder.
type FolderInfo struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	MemberCount int    `json:"member_count"`
}

// FoldersResult is returned by share_folders and share_refresh.
type FoldersResult struct {
	Degraded  bool         `json:"degraded"`
	Total     int          `json:"total"`
	FetchedAt time.Time    `json:"fetched_at"`
	Folders   []FolderInfo `json:"folders"`
}

// ReadResult is returned by share_read.
type ReadResult struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Size      int    `json:"size"`
	Truncated bool   `json:"truncated"`
}

// WriteResult is returned by tools that store an object.
type WriteResult struct {
	Name string `json:"name"`
}

// DeleteResult is returned by share_delete.
type DeleteResult struct {
	Deleted string `json:"deleted"`
}

// --- Handlers ---

func (t *tools) list(_ context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, *ListResult, error) {
	snap := t.Session.Snapshot()
	view := catalog.View{ActiveFolder: naming.ResolveFolder(input.Folder), Search: input.Query}
	files := catalog.DescribeAll(view.Visible(snap), t.Now())

	result := &ListResult{
		Folder:   view.Folder(),
		Query:    input.Query,
		Total:    len(files),
		Degraded: snap.Degraded,
		Files:    files,
	}

	return textResult(result), result, nil
}

func foldersResult(snap *catalog.Snapshot) *FoldersResult {
	folders := snap.Folders()

	result := &FoldersResult{
		Degraded:  snap.Degraded,
		Total:     len(snap.Global),
		FetchedAt: snap.FetchedAt,
		Folders:   make([]FolderInfo, len(folders)),
	}

	for i, f := range folders {
		result.Folders[i] = FolderInfo{ID: f.ID, Label: f.Label, MemberCount: f.MemberCount}
	}

	return result
}

func (t *tools) folders(_ context.Context, _ *mcp.CallToolRequest, _ FoldersInput) (*mcp.CallToolResult, *FoldersResult, error) {
	result := foldersResult(t.Session.Snapshot())
	return textResult(result), result, nil
}

func (t *tools) read(ctx context.Context, _ *mcp.CallToolRequest, input ReadInput) (*mcp.CallToolResult, *ReadResult, error) {
	entry, ok := t.Session.Snapshot().Lookup(input.Name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", shareerr.ErrNotFound, input.Name)
	}

	if !entry.IsTextual() {
		return nil, nil, fmt.Errorf("%w: %s is %s, not text", shareerr.ErrInvalidInput, input.Name, entry.TypeLabel())
	}

	body, err := t.Session.Controller().ReadContent(ctx, entry)
	if err != nil {
		return nil, nil, err
	}

	limit := input.MaxBytes
	if limit <= 0 {
		limit = defaultReadBytes
	}

	result := &ReadResult{
		Name:  input.Name,
		Title: catalog.Describe(entry, t.Now()).Title,
		Size:  len(body),
	}

	if len(body) > limit {
		body = body[:limit]
		for len(body) > 0 && !utf8.Valid(body) {
			body = body[:len(body)-1]
		}

		result.Truncated = true
	}

	result.Content = string(body)

	return textResult(result), result, nil
}

func (t *tools) note(ctx context.Context, _ *mcp.CallToolRequest, input NoteInput) (*mcp.CallToolResult, *WriteResult, error) {
	folderID, err := resolveFolder(input.Folder)
	if err != nil {
		return nil, nil, err
	}

	entry, err := t.Session.Controller().CreateNote(ctx, input.Title, input.Content, folderID)
	if err != nil {
		return nil, nil, err
	}

	t.afterWrite(ctx)

	result := &WriteResult{Name: entry.Name}

	return textResult(result), result, nil
}

func (t *tools) upload(ctx context.Context, _ *mcp.CallToolRequest, input UploadInput) (*mcp.CallToolResult, *WriteResult, error) {
	folderID, err := resolveFolder(input.Folder)
	if err != nil {
		return nil, nil, err
	}

	content, err := base64.StdEncoding.DecodeString(input.ContentBase64)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: content_base64: %w", shareerr.ErrInvalidInput, err)
	}

	entry, err := t.Session.Controller().UploadFile(ctx, syncer.Item{
		FileName: input.Filename,
		Content:  content,
		FolderID: folderID,
	})
	if err != nil {
		return nil, nil, err
	}

	t.afterWrite(ctx)

	result := &WriteResult{Name: entry.Name}

	return textResult(result), result, nil
}

func (t *tools) createFolder(ctx context.Context, _ *mcp.CallToolRequest, input FolderInput) (*mcp.CallToolResult, *FolderInfo, error) {
	entry, err := t.Session.Controller().CreateFolder(ctx, input.Name, t.Session.Snapshot())
	if err != nil {
		return nil, nil, err
	}

	t.afterWrite(ctx)

	result := &FolderInfo{ID: entry.Name, Label: naming.FolderLabel(entry.Name)}

	return textResult(result), result, nil
}

func (t *tools) deleteFile(ctx context.Context, _ *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, *DeleteResult, error) {
	if err := t.DeleteGuard.Check(input.Password); err != nil {
		t.Logger.Warn("mcp: delete refused", slog.String("name", input.Name))
		return nil, nil, err
	}

	if err := t.Session.Controller().Delete(ctx, input.Name); err != nil {
		return nil, nil, err
	}

	t.afterWrite(ctx)

	result := &DeleteResult{Deleted: input.Name}

	return textResult(result), result, nil
}

func (t *tools) refresh(ctx context.Context, _ *mcp.CallToolRequest, _ RefreshInput) (*mcp.CallToolResult, *FoldersResult, error) {
	snap, err := t.Session.AfterWrite(ctx)
	if err != nil {
		return nil, nil, err
	}

	result := foldersResult(snap)

	return textResult(result), result, nil
}

func (t *tools) afterWrite(ctx context.Context) {
	if _, err := t.Session.AfterWrite(ctx); err != nil {
		t.Logger.Debug("mcp: refresh after write skipped", slog.String("error", err.Error()))
	}
}

func resolveFolder(arg string) (string, error) {
	id := naming.ResolveFolder(arg)
	if id == "" {
		return "", fmt.Errorf("%w: invalid folder %q", shareerr.ErrInvalidInput, arg)
	}

	return id, nil
}

// textResult builds a CallToolResult with JSON text content from any value.
// This provides the unstructured content alongside the structured output
// that the SDK populates automatically.
func textResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error marshaling result: %v", err)}},
			IsError: true,
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

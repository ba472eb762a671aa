package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/sharefastly/sharefastly.github.io/internal/auth"
	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
	"github.com/sharefastly/sharefastly.github.io/internal/events"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

const (
	// maxUploadBytes caps a multipart batch.
	maxUploadBytes = 100 << 20

	// multipartMemory is held in memory before parts spill to disk.
	multipartMemory = 32 << 20

	maxJSONBytes = 1 << 20

	// DeletePasswordHeader carries the delete password.
	DeletePasswordHeader = "X-Delete-Password"
)

type handlers struct {
	session *syncer.Session
	events  *events.Broadcaster
	guard   *auth.DeleteGuard
	logger  *slog.Logger
	now     func() time.Time
}

// FileList is the response of GET /api/files.
type FileList struct {
	Folder    string             `json:"folder"`
	Query     string             `json:"query,omitempty"`
	Total     int                `json:"total"`
	Degraded  bool               `json:"degraded"`
	FetchedAt time.Time          `json:"fetched_at"`
	Files     []catalog.FileInfo `json:"files"`
}

// FolderList is the response of GET /api/folders.
type FolderList struct {
	Degraded bool             `json:"degraded"`
	Folders  []catalog.Folder `json:"folders"`
}

// UploadResult is one file of a batch upload response.
type UploadResult struct {
	File  string `json:"file"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error,omitempty"`
}

// NoteRequest is the body of POST /api/notes.
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Folder  string `json:"folder"`
}

// FolderRequest is the body of POST /api/folders.
type FolderRequest struct {
	Name string `json:"name"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listFiles(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	view := catalog.View{
		ActiveFolder: naming.ResolveFolder(r.URL.Query().Get("folder")),
		Search:       r.URL.Query().Get("q"),
	}

	files := catalog.DescribeAll(view.Visible(snap), h.now())

	writeJSON(w, http.StatusOK, FileList{
		Folder:    view.Folder(),
		Query:     view.Search,
		Total:     len(files),
		Degraded:  snap.Degraded,
		FetchedAt: snap.FetchedAt,
		Files:     files,
	})
}

func (h *handlers) listFolders(w http.ResponseWriter, _ *http.Request) {
	snap := h.session.Snapshot()

	writeJSON(w, http.StatusOK, FolderList{
		Degraded: snap.Degraded,
		Folders:  snap.Folders(),
	})
}

// ContentType returns the media type served for an entry's bytes.
func ContentType(e catalog.Entry) string {
	if e.Kind == catalog.Note {
		return "text/plain; charset=utf-8"
	}

	if e.Extension != "" {
		if ct := mime.TypeByExtension("." + e.Extension); ct != "" {
			return ct
		}
	}

	if e.IsTextual() {
		return "text/plain; charset=utf-8"
	}

	return "application/octet-stream"
}

func (h *handlers) content(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	entry, ok := h.session.Snapshot().Lookup(name)
	if !ok {
		h.fail(w, r, fmt.Errorf("%w: %s", shareerr.ErrNotFound, name))
		return
	}

	body, err := h.session.Controller().ReadContent(r.Context(), entry)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", ContentType(entry))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", shareerr.ErrInvalidInput, err))
		return
	}

	defer func() { _ = r.MultipartForm.RemoveAll() }()

	folderID := naming.ResolveFolder(r.FormValue("folder"))
	if folderID == "" {
		h.fail(w, r, fmt.Errorf("%w: invalid folder %q", shareerr.ErrInvalidInput, r.FormValue("folder")))
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		h.fail(w, r, fmt.Errorf("%w: no file parts", shareerr.ErrInvalidInput))
		return
	}

	items := make([]syncer.Item, 0, len(headers))

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.fail(w, r, fmt.Errorf("opening %s: %w", fh.Filename, err))
			return
		}

		content, err := io.ReadAll(f)
		_ = f.Close()

		if err != nil {
			h.fail(w, r, fmt.Errorf("reading %s: %w", fh.Filename, err))
			return
		}

		items = append(items, syncer.Item{FileName: fh.Filename, Content: content, FolderID: folderID})
	}

	results := h.session.Controller().UploadBatch(r.Context(), items)

	out := make([]UploadResult, len(results))

	var (
		succeeded int
		firstErr  error
	)

	for i, res := range results {
		out[i] = UploadResult{File: res.FileName, Name: res.Name}

		if res.Err != nil {
			out[i].Error = res.Err.Error()
			if firstErr == nil {
				firstErr = res.Err
			}

			continue
		}

		succeeded++
	}

	if succeeded > 0 {
		h.afterWrite(r)
	}

	status := http.StatusCreated
	if succeeded == 0 {
		status = StatusFor(firstErr)
	}

	writeJSON(w, status, map[string]any{"uploaded": succeeded, "results": out})
}

func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding request: %w", shareerr.ErrInvalidInput, err)
	}

	return nil
}

func (h *handlers) createNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := decodeJSON(r, w, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	folderID := naming.ResolveFolder(req.Folder)
	if folderID == "" {
		h.fail(w, r, fmt.Errorf("%w: invalid folder %q", shareerr.ErrInvalidInput, req.Folder))
		return
	}

	entry, err := h.session.Controller().CreateNote(r.Context(), req.Title, req.Content, folderID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.afterWrite(r)

	writeJSON(w, http.StatusCreated, map[string]string{"name": entry.Name})
}

func (h *handlers) createFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if err := decodeJSON(r, w, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.session.Controller().CreateFolder(r.Context(), req.Name, h.session.Snapshot())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.afterWrite(r)

	writeJSON(w, http.StatusCreated, catalog.Folder{
		ID:    entry.Name,
		Label: naming.FolderLabel(entry.Name),
	})
}

func (h *handlers) deleteFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.guard.Check(r.Header.Get(DeletePasswordHeader)); err != nil {
		h.logger.Warn("delete refused",
			slog.String("name", name),
			slog.String("user_id", auth.RequestUserID(r.Context())),
		)
		h.fail(w, r, err)

		return
	}

	if err := h.session.Controller().Delete(r.Context(), name); err != nil {
		h.fail(w, r, err)
		return
	}

	h.afterWrite(r)

	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.AfterWrite(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewSummary(snap, "", h.now()))
}

// afterWrite refreshes the session so the response and the feed reflect
// the write. A failed refresh leaves the write itself successful.
func (h *handlers) afterWrite(r *http.Request) {
	if _, err := h.session.AfterWrite(r.Context()); err != nil {
		h.logger.Debug("refresh after write skipped", slog.String("error", err.Error()))
	}
}

// Package remotetest provides an in-memory fake of the GitHub contents
// API for tests that exercise remote.Client end to end.
package remotetest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/sharefastly/sharefastly.github.io/internal/remote"
)

const (
	Owner  = "acme"
	Repo   = "share"
	Dir    = "files"
	Branch = "main"
)

type object struct {
	content []byte
	sha     string
}

type failure struct {
	remaining int
	status    int
}

// Server is a fake contents API backed by a map.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	objects    map[string]*object
	version    int
	calls      map[string]int
	failures   map[string]*failure
	listTokens []string
	listHeader []string
	listStatus int
	listBody   string
	commits    []string
	putBodies  []string
}

// NewServer starts a fake contents API and stops it when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		objects:  make(map[string]*object),
		calls:    make(map[string]int),
		failures: make(map[string]*failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)

	return s
}

// Config returns a remote.Config pointing at the fake.
func (s *Server) Config() remote.Config {
	return remote.Config{
		Owner:   Owner,
		Repo:    Repo,
		Dir:     Dir,
		Branch:  Branch,
		Token:   "test-token",
		BaseURL: s.URL + "/",
	}
}

// Client returns a remote.Client bound to the fake.
func (s *Server) Client(t *testing.T) *remote.Client {
	t.Helper()

	c, err := remote.NewClient(s.Config(), s.Server.Client())
	if err != nil {
		t.Fatalf("creating remote client: %v", err)
	}

	return c
}

// Seed stores an object directly.
func (s *Server) Seed(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store(name, content)
}

func (s *Server) store(name string, content []byte) *object {
	s.version++
	h := sha1.Sum(append([]byte(fmt.Sprintf("%d:", s.version)), content...))
	obj := &object{content: append([]byte(nil), content...), sha: hex.EncodeToString(h[:])}
	s.objects[name] = obj

	return obj
}

// Remove deletes an object directly, simulating another writer.
func (s *Server) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, name)
}

// Names returns stored object names in listing order.
func (s *Server) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortedNames()
}

func (s *Server) sortedNames() []string {
	names := make([]string, 0, len(s.objects))
	for n := range s.objects {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Content returns the stored bytes for name.
func (s *Server) Content(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[name]
	if !ok {
		return nil, false
	}

	return append([]byte(nil), obj.content...), true
}

// SHA returns the current version of name.
func (s *Server) SHA(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj, ok := s.objects[name]; ok {
		return obj.sha
	}

	return ""
}

// FailNext makes the next n requests with method fail with status.
func (s *Server) FailNext(method string, n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[method] = &failure{remaining: n, status: status}
}

// SetListResponse overrides the listing with a fixed status and body.
// A zero status restores normal behaviour.
func (s *Server) SetListResponse(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listStatus = status
	s.listBody = body
}

// Calls returns how many requests with method reached the contents
// endpoints, including failed ones.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[method]
}

// ListTokens returns the cache-busting token of every listing request.
func (s *Server) ListTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.listTokens...)
}

// ListIfNoneMatch returns the If-None-Match header presence of every
// listing request as "present" or "absent".
func (s *Server) ListIfNoneMatch() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.listHeader...)
}

// Commits returns the commit messages of every write, in order.
func (s *Server) Commits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.commits...)
}

// PutBodies returns the raw JSON body of every PUT, in order.
func (s *Server) PutBodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.putBodies...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if name, ok := strings.CutPrefix(r.URL.Path, "/raw/"); ok {
		s.serveRaw(w, name)
		return
	}

	prefix := "/repos/" + Owner + "/" + Repo + "/contents/" + Dir
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	rest := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[r.Method]++

	if f := s.failures[r.Method]; f != nil && f.remaining > 0 {
		f.remaining--
		writeError(w, f.status, "injected failure")

		return
	}

	switch {
	case r.Method == http.MethodGet && rest == "":
		s.list(w, r)
	case r.Method == http.MethodGet:
		s.stat(w, rest)
	case r.Method == http.MethodPut:
		s.put(w, r, rest)
	case r.Method == http.MethodDelete:
		s.remove(w, r, rest)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) entryJSON(name string, obj *object) map[string]any {
	return map[string]any{
		"type":         "file",
		"name":         name,
		"path":         Dir + "/" + name,
		"sha":          obj.sha,
		"size":         len(obj.content),
		"download_url": s.URL + "/raw/" + url.PathEscape(name),
		"html_url":     "https://github.com/" + Owner + "/" + Repo + "/blob/" + Branch + "/" + Dir + "/" + url.PathEscape(name),
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.listTokens = append(s.listTokens, r.URL.Query().Get("_"))

	if _, ok := r.Header["If-None-Match"]; ok {
		s.listHeader = append(s.listHeader, "present")
	} else {
		s.listHeader = append(s.listHeader, "absent")
	}

	if s.listStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.listStatus)
		_, _ = w.Write([]byte(s.listBody))

		return
	}

	out := make([]map[string]any, 0, len(s.objects))
	for _, name := range s.sortedNames() {
		out = append(out, s.entryJSON(name, s.objects[name]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) stat(w http.ResponseWriter, name string) {
	obj, ok := s.objects[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	entry := s.entryJSON(name, obj)
	entry["encoding"] = "base64"
	entry["content"] = base64.StdEncoding.EncodeToString(obj.content)

	writeJSON(w, http.StatusOK, entry)
}

type writeBody struct {
	Message string  `json:"message"`
	Content *string `json:"content"`
	SHA     string  `json:"sha"`
	Branch  string  `json:"branch"`
}

func (s *Server) put(w http.ResponseWriter, r *http.Request, name string) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Problems reading body")
		return
	}

	s.putBodies = append(s.putBodies, string(raw))

	var body writeBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}

	// The contents API rejects a missing or null content field.
	if body.Content == nil {
		writeError(w, http.StatusUnprocessableEntity, `Invalid request. "content" wasn't supplied.`)
		return
	}

	content, err := base64.StdEncoding.DecodeString(*body.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, "content is not valid Base64")
		return
	}

	if existing, ok := s.objects[name]; ok && body.SHA != existing.sha {
		writeError(w, http.StatusUnprocessableEntity, `Invalid request. "sha" wasn't supplied.`)
		return
	}

	s.commits = append(s.commits, body.Message)
	obj := s.store(name, content)

	writeJSON(w, http.StatusCreated, map[string]any{
		"content": s.entryJSON(name, obj),
		"commit":  map[string]any{"sha": "commit-" + obj.sha, "message": body.Message},
	})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request, name string) {
	var body writeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}

	obj, ok := s.objects[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	if body.SHA != obj.sha {
		writeError(w, http.StatusConflict, fmt.Sprintf("%s does not match %s", name, body.SHA))
		return
	}

	s.commits = append(s.commits, body.Message)
	delete(s.objects, name)

	writeJSON(w, http.StatusOK, map[string]any{"content": nil})
}

func (s *Server) serveRaw(w http.ResponseWriter, escaped string) {
	name, err := url.PathUnescape(escaped)
	if err != nil {
		name = escaped
	}

	s.mu.Lock()
	obj, ok := s.objects[name]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "404: Not Found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(obj.content)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"message":           msg,
		"documentation_url": "https://docs.github.com/rest",
	})
}

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/rs/xid"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
	"github.com/sharefastly/sharefastly.github.io/internal/models"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com/"

	// httpClientTimeout is the timeout for the default HTTP client used
	// when no custom client is provided.
	httpClientTimeout = 30 * time.Second

	// maxFetchBytes caps raw downloads. The contents API refuses files
	// larger than this anyway.
	maxFetchBytes = 100 << 20
)

// Config identifies the repository directory that holds shared files.
type Config struct {
	Owner   string
	Repo    string
	Dir     string
	Branch  string
	Token   string
	BaseURL string
}

// Client implements Store against the GitHub contents API.
type Client struct {
	gh         *github.Client
	httpClient *http.Client
	owner      string
	repo       string
	dir        string
	branch     string
}

var _ Store = (*Client)(nil)

// NewClient creates a contents API client. If httpClient is nil, a
// client with a 30-second timeout is created, authenticated with
// cfg.Token when one is set.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("%w: owner and repo are required", shareerr.ErrInvalidInput)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpClientTimeout}

		if cfg.Token != "" {
			ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
			httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
			httpClient.Timeout = httpClientTimeout
		}
	}

	gh := github.NewClient(httpClient)

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}

	gh.BaseURL = u

	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}

	return &Client{
		gh:         gh,
		httpClient: httpClient,
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		dir:        strings.Trim(cfg.Dir, "/"),
		branch:     branch,
	}, nil
}

// contentsPath builds the escaped contents path for name, or for the
// directory itself when name is empty.
func (c *Client) contentsPath(name string) string {
	segments := []string{"repos", url.PathEscape(c.owner), url.PathEscape(c.repo), "contents"}

	if c.dir != "" {
		for _, s := range strings.Split(c.dir, "/") {
			segments = append(segments, url.PathEscape(s))
		}
	}

	if name != "" {
		segments = append(segments, url.PathEscape(name))
	}

	return strings.Join(segments, "/")
}

// List fetches the directory listing. Every call carries a unique query
// token and an empty If-None-Match header so no cache can answer it. A
// missing directory is an empty listing.
func (c *Client) List(ctx context.Context) ([]models.RawEntry, error) {
	q := url.Values{}
	q.Set("ref", c.branch)
	q.Set("_", xid.New().String())

	req, err := c.gh.NewRequest(http.MethodGet, c.contentsPath("")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating list request: %w", err)
	}

	req.Header.Set("If-None-Match", "")
	req.Header.Set("Cache-Control", "no-cache")

	var buf bytes.Buffer

	resp, err := c.gh.Do(ctx, req, &buf)
	if err != nil {
		err = classify("listing "+c.dir, resp, err)
		if errors.Is(err, shareerr.ErrNotFound) {
			return []models.RawEntry{}, nil
		}

		return nil, err
	}

	return parseListing(buf.Bytes())
}

// parseListing decodes a contents listing, keeping only file entries.
func parseListing(body []byte) ([]models.RawEntry, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: listing is not valid JSON", shareerr.ErrAPIResponse)
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%w: listing is not an array", shareerr.ErrAPIResponse)
	}

	entries := make([]models.RawEntry, 0, len(parsed.Array()))

	for _, item := range parsed.Array() {
		if t := item.Get("type").String(); t != "" && t != "file" {
			continue
		}

		var e models.RawEntry
		if err := json.Unmarshal([]byte(item.Raw), &e); err != nil {
			return nil, fmt.Errorf("%w: decoding listing entry: %w", shareerr.ErrAPIResponse, err)
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// Stat fetches the current entry for name.
func (c *Client) Stat(ctx context.Context, name string) (*models.RawEntry, error) {
	req, err := c.gh.NewRequest(http.MethodGet, c.contentsPath(name)+"?ref="+url.QueryEscape(c.branch), nil)
	if err != nil {
		return nil, fmt.Errorf("creating stat request: %w", err)
	}

	var content github.RepositoryContent

	resp, err := c.gh.Do(ctx, req, &content)
	if err != nil {
		return nil, classify("stat "+name, resp, err)
	}

	return entryFromContent(&content), nil
}

// Exists reports whether name is present. Only a 404 counts as absent;
// any other failure is returned so callers never guess.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	_, err := c.Stat(ctx, name)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, shareerr.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Put creates name with content on the configured branch. Nil content
// is sent as an empty file.
func (c *Client) Put(ctx context.Context, name string, content []byte, progress func(float64)) (*models.RawEntry, error) {
	if content == nil {
		content = []byte{}
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String("Add " + name),
		Content: content,
		Branch:  github.String(c.branch),
	}

	req, err := c.gh.NewRequest(http.MethodPut, c.contentsPath(name), opts)
	if err != nil {
		return nil, fmt.Errorf("creating put request: %w", err)
	}

	if progress != nil && req.Body != nil {
		req.Body = &progressReader{rc: req.Body, total: req.ContentLength, report: progress}
	}

	var out github.RepositoryContentResponse

	resp, err := c.gh.Do(ctx, req, &out)
	if err != nil {
		return nil, classify("uploading "+name, resp, err)
	}

	if progress != nil {
		progress(1)
	}

	if out.Content == nil {
		return &models.RawEntry{Name: name, Size: int64(len(content))}, nil
	}

	return entryFromContent(out.Content), nil
}

// Delete removes name at version sha. A stale sha is reported as
// errors.ErrConflict.
func (c *Client) Delete(ctx context.Context, name, sha string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String("Delete " + name),
		SHA:     github.String(sha),
		Branch:  github.String(c.branch),
	}

	req, err := c.gh.NewRequest(http.MethodDelete, c.contentsPath(name), opts)
	if err != nil {
		return fmt.Errorf("creating delete request: %w", err)
	}

	resp, err := c.gh.Do(ctx, req, nil)
	if err != nil {
		return classify("deleting "+name, resp, err)
	}

	return nil
}

// Fetch downloads the raw bytes behind a download URL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty download URL", shareerr.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating fetch request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetching content: %w", ctx.Err())
		}

		return nil, &TransientError{Err: fmt.Errorf("fetching content: %w: %w", shareerr.ErrAPIRequest, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetching content: %w", shareerr.ErrNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("fetching content: %w (status %d): %s",
			shareerr.ErrAPIRequest, resp.StatusCode, sanitizeResponseBody(body))
		if isTransientStatus(resp.StatusCode) {
			return nil, &TransientError{Err: err}
		}

		return nil, err
	}

	return body, nil
}

func entryFromContent(rc *github.RepositoryContent) *models.RawEntry {
	return &models.RawEntry{
		Name:        rc.GetName(),
		SHA:         rc.GetSHA(),
		DownloadURL: rc.GetDownloadURL(),
		Size:        int64(rc.GetSize()),
		HTMLURL:     rc.GetHTMLURL(),
	}
}

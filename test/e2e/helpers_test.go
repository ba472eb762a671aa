package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sharefastly/sharefastly.github.io/internal/auth"
	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	"github.com/sharefastly/sharefastly.github.io/internal/events"
	"github.com/sharefastly/sharefastly.github.io/internal/mcpserver"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
	"github.com/sharefastly/sharefastly.github.io/internal/remote/remotetest"
	"github.com/sharefastly/sharefastly.github.io/internal/server"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

const (
	testAPIKey   = "sf_0123456789abcdef0123456789abcdef"
	testPassword = "e2e-delete-password"
	reportName   = "00-09-01-03-2024_-_-work-folder_-_-report.txt"
)

// harness holds the full stack: a fake contents API behind the real
// client, controller and session, served over HTTP with MCP mounted.
type harness struct {
	URL    string
	GitHub *remotetest.Server
	Client *http.Client
}

// newHarness seeds a fake share and starts an httptest server wired the
// way serve wires production.
func newHarness(t *testing.T) *harness {
	t.Helper()

	gh := remotetest.NewServer(t)
	gh.Seed("work-folder", nil)
	gh.Seed(reportName, []byte("quarterly numbers"))
	gh.Seed("00-08-01-03-2024_-_-ALL-folder_-_-Ideas.post", []byte("ship it"))

	logger := slog.New(slog.DiscardHandler)

	opts := syncer.DefaultOptions()
	opts.MaxRetries = 1
	opts.SettleDelay = 0
	opts.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	hub := events.NewBroadcaster()

	ctl := syncer.New(syncer.Config{
		Store:   gh.Client(t),
		Codec:   naming.Codec{Location: time.UTC},
		Options: opts,
		OnStatus: func(us syncer.UploadStatus) {
			hub.Publish(events.UploadEvent(us))
		},
	}, logger)

	session := syncer.NewSession(syncer.SessionConfig{Controller: ctl}, logger)
	session.OnSnapshot(func(s *catalog.Snapshot) {
		hub.Publish(events.SnapshotEvent(s))
	})
	session.Refresh(t.Context())

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	guard, err := auth.NewDeleteGuard(string(hash))
	require.NoError(t, err)

	keys := auth.NewStore()
	keys.RegisterAPIKey("e2e", testAPIKey)

	mcpServer := mcp.NewServer(
		&mcp.Implementation{Name: "sharefastly-e2e", Version: "test"},
		nil,
	)
	mcpserver.RegisterTools(mcpServer, mcpserver.Deps{
		Session:     session,
		DeleteGuard: guard,
		Logger:      logger,
	})

	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	ts := httptest.NewServer(server.NewMux(server.MuxConfig{
		Session:     session,
		Broadcaster: hub,
		Keys:        keys,
		DeleteGuard: guard,
		MCPHandler:  mcpHandler,
		Logger:      logger,
	}))
	t.Cleanup(ts.Close)

	return &harness{
		URL:    ts.URL,
		GitHub: gh,
		Client: ts.Client(),
	}
}

// mcpSession creates an MCP client session authenticated with the given
// API key. Uses the MCP SDK's StreamableClientTransport with a custom
// HTTP RoundTripper that injects the Authorization header.
func (h *harness) mcpSession(t *testing.T, key string) (*mcp.ClientSession, error) {
	t.Helper()

	transport := &mcp.StreamableClientTransport{
		Endpoint: h.URL + "/mcp",
		HTTPClient: &http.Client{
			Transport: &bearerTransport{
				token: key,
				base:  h.Client.Transport,
			},
		},
		DisableStandaloneSSE: true,
	}

	client := mcp.NewClient(
		&mcp.Implementation{Name: "e2e-test-client", Version: "test"},
		nil,
	)

	session, err := client.Connect(t.Context(), transport, nil)
	if err != nil {
		return nil, err
	}

	t.Cleanup(func() { _ = session.Close() })

	return session, nil
}

// callTool calls a tool and decodes its JSON text content into dest.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, dest any) *mcp.CallToolResult {
	t.Helper()

	result, err := session.CallTool(t.Context(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)

	if dest != nil && !result.IsError {
		require.NoError(t, json.Unmarshal([]byte(extractTextContent(t, result)), dest))
	}

	return result
}

// extractTextContent returns the text from the first TextContent in a
// CallToolResult.
func extractTextContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}

	t.Fatal("no TextContent in result")

	return ""
}

// doGet performs a GET request with t.Context().
func (h *harness) doGet(t *testing.T, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, h.URL+path, nil)
	require.NoError(t, err)

	resp, err := h.Client.Do(req)
	require.NoError(t, err)

	return resp
}

// uploadFiles posts a multipart batch with the API key.
func (h *harness) uploadFiles(t *testing.T, folder string, files map[string]string) *http.Response {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("folder", folder))

	for name, content := range files {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)

		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, h.URL+"/api/files", &body)
	require.NoError(t, err)

	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	resp, err := h.Client.Do(req)
	require.NoError(t, err)

	return resp
}

// dialFeed opens the live feed websocket.
func (h *harness) dialFeed(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(t.Context(), "ws"+strings.TrimPrefix(h.URL, "http")+"/api/events", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })

	return conn
}

// feedMessage is the union of feed summaries and upload events.
type feedMessage struct {
	Type   string `json:"type"`
	Total  int    `json:"total"`
	Folder string `json:"folder"`
	Files  []struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	} `json:"files"`
	Upload *struct {
		Name  string `json:"name"`
		State string `json:"state"`
	} `json:"upload"`
}

// readUntil reads feed messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(feedMessage) bool) feedMessage {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)

		var msg feedMessage
		require.NoError(t, json.Unmarshal(data, &msg))

		if match(msg) {
			return msg
		}
	}
}

// bearerTransport is an http.RoundTripper that injects a Bearer token
// into every request's Authorization header.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (bt *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+bt.token)

	return bt.base.RoundTrip(req)
}

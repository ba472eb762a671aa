package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/tidwall/gjson"

	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	"github.com/sharefastly/sharefastly.github.io/internal/events"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

const feedWriteTimeout = 10 * time.Second

// Summary is the feed message sent for every snapshot. Files is set only
// after the client subscribed to a folder.
type Summary struct {
	Type      string             `json:"type"`
	Folders   []catalog.Folder   `json:"folders"`
	Total     int                `json:"total"`
	Degraded  bool               `json:"degraded"`
	FetchedAt time.Time          `json:"fetched_at"`
	Folder    string             `json:"folder,omitempty"`
	Files     []catalog.FileInfo `json:"files,omitempty"`
}

// NewSummary summarizes snap, including the entries of folderID when it
// is not empty.
func NewSummary(snap *catalog.Snapshot, folderID string, now time.Time) Summary {
	s := Summary{
		Type:      events.EventSnapshot,
		Folders:   snap.Folders(),
		Total:     len(snap.Global),
		Degraded:  snap.Degraded,
		FetchedAt: snap.FetchedAt,
		Folder:    folderID,
	}

	if folderID != "" {
		s.Files = catalog.DescribeAll(catalog.FilterForFolder(snap, folderID), now)
	}

	return s
}

// feed streams snapshot summaries and upload transitions over a
// websocket. Clients send {"op":"subscribe","folder":"..."} to also
// receive a folder's entries.
func (h *handlers) feed(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		http.Error(w, "feed disabled", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Debug("feed: accept failed", slog.String("error", err.Error()))
		return
	}

	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.events.Subscribe()
	defer h.events.Unsubscribe(sub)

	folders := make(chan string, 1)

	go h.readSubscriptions(ctx, cancel, conn, folders)

	folder := ""

	if err := h.send(ctx, conn, NewSummary(h.session.Snapshot(), folder, h.now())); err != nil {
		return
	}

	for {
		var msg any

		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case folder = <-folders:
			msg = NewSummary(h.session.Snapshot(), folder, h.now())
		case e, ok := <-sub:
			if !ok {
				return
			}

			if e.Type == events.EventSnapshot && e.Snapshot != nil {
				msg = NewSummary(e.Snapshot, folder, h.now())
			} else {
				msg = e
			}
		}

		if err := h.send(ctx, conn, msg); err != nil {
			return
		}
	}
}

// readSubscriptions forwards subscribe requests to folders. Only the
// latest unread request is kept.
func (h *handlers) readSubscriptions(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, folders chan string) {
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				h.logger.Debug("feed: read failed", slog.String("error", err.Error()))
			}

			return
		}

		if !gjson.ValidBytes(data) || gjson.GetBytes(data, "op").Str != "subscribe" {
			continue
		}

		folder := naming.ResolveFolder(gjson.GetBytes(data, "folder").Str)

		select {
		case <-folders:
		default:
		}

		select {
		case folders <- folder:
		case <-ctx.Done():
			return
		}
	}
}

func (h *handlers) send(ctx context.Context, conn *websocket.Conn, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()

	return conn.Write(writeCtx, websocket.MessageText, data)
}

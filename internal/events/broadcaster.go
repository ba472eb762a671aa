// Package events fans snapshot and upload notifications out to live
// subscribers such as websocket clients.
package events

import (
	"sync"
	"time"

	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	"github.com/sharefastly/sharefastly.github.io/internal/metrics"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

const (
	EventSnapshot = "snapshot"
	EventUpload   = "upload"
)

// subscriberBuffer is the number of events a subscriber may lag behind
// before further events are dropped for it.
const subscriberBuffer = 64

// Upload describes one upload transition.
type Upload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Attempt int    `json:"attempt"`
	Error   string `json:"error,omitempty"`
}

// Event is a change notification. Snapshot is set for snapshot events
// and Upload for upload events.
type Event struct {
	Type      string            `json:"type"`
	Snapshot  *catalog.Snapshot `json:"-"`
	Upload    *Upload           `json:"upload,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// SnapshotEvent wraps a freshly published snapshot.
func SnapshotEvent(s *catalog.Snapshot) Event {
	return Event{Type: EventSnapshot, Snapshot: s}
}

// UploadEvent converts an upload transition.
func UploadEvent(st syncer.UploadStatus) Event {
	u := &Upload{
		ID:      st.ID,
		Name:    st.Name,
		State:   string(st.State),
		Attempt: st.Attempt,
	}

	if st.Err != nil {
		u.Error = st.Err.Error()
	}

	return Event{Type: EventUpload, Upload: u}
}

// Broadcaster manages subscribers and publishes events to them.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe adds a subscriber and returns its channel. The caller must
// call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	n := len(b.subscribers)
	b.mu.Unlock()

	metrics.SetFeedSubscribers(n)

	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Unsubscribing
// twice is a no-op.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	n := len(b.subscribers)
	b.mu.Unlock()

	metrics.SetFeedSubscribers(n)
}

// Publish sends e to every subscriber without blocking. Slow consumers
// miss events.
func (b *Broadcaster) Publish(e Event) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}

	metrics.RecordFeedEvent(e.Type)
}

// Count returns the number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers)
}

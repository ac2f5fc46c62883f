package events

import (
	"context"
	"sync"
	"time"

	"wordcheck.org/internal/records"
)

// Change kinds.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// RecordEvent describes one mutation of the record store.
type RecordEvent struct {
	Seq        uint64         `json:"seq"`
	Type       string         `json:"type"`
	Collection string         `json:"collection"`
	ID         int64          `json:"id"`
	Record     records.Record `json:"record,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Hub fan-outs record events to all active subscribers (SSE clients).
type Hub struct {
	mu   sync.RWMutex
	subs map[int]chan RecordEvent
	next int
	seq  uint64
	now  func() time.Time
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan RecordEvent), now: time.Now}
}

// Subscribe registers a subscriber and returns a channel which will receive events.
// The channel is closed when the provided context ends.
func (h *Hub) Subscribe(ctx context.Context) <-chan RecordEvent {
	ch := make(chan RecordEvent, 16)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish stamps evt with the next sequence number and fan-outs it.
// Slow subscribers miss events instead of blocking the writer.
func (h *Hub) Publish(evt RecordEvent) {
	h.mu.Lock()
	h.seq++
	evt.Seq = h.seq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = h.now().UTC()
	}
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	h.mu.Unlock()
}

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// sseReplaySize is the number of recent events kept for Last-Event-ID
	// replay.
	sseReplaySize = 512

	// sseClientBuffer is the per-client channel capacity. Events for a full
	// client are dropped.
	sseClientBuffer = 64

	// sseKeepaliveInterval is how often a comment line is written to idle
	// streams.
	sseKeepaliveInterval = 15 * time.Second
)

// sseEvent is a single audit event as sent to SSE clients.
type sseEvent struct {
	ID    uint64
	Topic string
	Data  []byte // JSON-encoded payload
}

// sseHub fans router events out to connected SSE clients and remembers the
// most recent ones for reconnecting clients.
type sseHub struct {
	nextID atomic.Uint64

	mu      sync.RWMutex
	clients map[*sseClient]struct{}

	replayMu sync.Mutex
	replay   []sseEvent // ring of up to cap(replay) events
	head     int        // index of the oldest event once the ring is full
}

type sseClient struct {
	topics []string // NATS-style patterns; empty matches everything
	ch     chan *sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{
		clients: make(map[*sseClient]struct{}),
		replay:  make([]sseEvent, 0, sseReplaySize),
	}
}

// broadcast assigns the next event id, stores the event for replay and
// delivers it to every matching client without blocking.
func (h *sseHub) broadcast(topic string, payload []byte) {
	evt := sseEvent{ID: h.nextID.Add(1), Topic: topic, Data: payload}

	h.replayMu.Lock()
	if len(h.replay) < cap(h.replay) {
		h.replay = append(h.replay, evt)
	} else {
		h.replay[h.head] = evt
		h.head = (h.head + 1) % len(h.replay)
	}
	h.replayMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.matches(topic) {
			continue
		}
		select {
		case c.ch <- &evt:
		default:
		}
	}
}

func (h *sseHub) subscribe(topics []string) *sseClient {
	c := &sseClient{topics: topics, ch: make(chan *sseEvent, sseClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// eventsSince returns the stored events with ID > lastID, oldest first.
func (h *sseHub) eventsSince(lastID uint64) []sseEvent {
	h.replayMu.Lock()
	defer h.replayMu.Unlock()

	var out []sseEvent
	n := len(h.replay)
	for i := range n {
		evt := h.replay[(h.head+i)%n]
		if evt.ID > lastID {
			out = append(out, evt)
		}
	}
	return out
}

func (c *sseClient) matches(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, pattern := range c.topics {
		if matchTopicPattern(pattern, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic against a pattern where
// "*" matches one segment and a trailing ">" matches one or more.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")

	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}
	return len(patParts) == len(topParts)
}

// handleEventStream handles GET /v1/events/stream. Optional ?topics=a,b
// filters by pattern; a Last-Event-ID header replays missed events.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var topics []string
	for _, t := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}

	client := s.sseHub.subscribe(topics)
	defer s.sseHub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if lastID, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		for _, evt := range s.sseHub.eventsSince(lastID) {
			if client.matches(evt.Topic) {
				writeSSEEvent(w, &evt)
			}
		}
		flusher.Flush()
	}

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}

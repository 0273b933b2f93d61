package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"cskg-agent-be/internal/pkg/logger"
)

// Snapshot reads the current state of a run. final reports that the run
// will not change again; ok is false when the run is unknown.
type Snapshot func() (payload interface{}, final bool, ok bool)

// Message is one outbound frame. The connection is closed after a Final
// message is written.
type Message struct {
	Data  []byte
	Final bool
}

type registration struct {
	client   *Client
	snapshot Snapshot
	added    chan struct{}
}

// Hub fans run updates out to the websocket clients watching each run.
type Hub struct {
	// run id -> watching clients
	clients map[string]map[*Client]struct{}

	register   chan registration
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan registration),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run owns registration until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for runID, watchers := range h.clients {
				for c := range watchers {
					close(c.Send)
				}
				delete(h.clients, runID)
			}
			close(h.done)
			h.mu.Unlock()
			return

		case reg := <-h.register:
			h.add(reg)
			close(reg.added)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}

// add reads the snapshot while holding the write lock, so every Publish for
// the run either happened before the snapshot or is queued after it.
func (h *Hub) add(reg registration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client := reg.client
	if h.clients[client.RunID] == nil {
		h.clients[client.RunID] = make(map[*Client]struct{})
	}
	h.clients[client.RunID][client] = struct{}{}

	if reg.snapshot == nil {
		return
	}
	payload, final, ok := reg.snapshot()
	if !ok {
		h.remove(client)
		return
	}
	data, err := encodeUpdate(payload)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode run snapshot", map[string]interface{}{"error": err.Error()})
		h.remove(client)
		return
	}
	client.Send <- Message{Data: data, Final: final}
	if final {
		// nothing else will be published for this run
		delete(h.clients[client.RunID], client)
		if len(h.clients[client.RunID]) == 0 {
			delete(h.clients, client.RunID)
		}
	}
	h.logger.Debug("Hub", "Client registered", map[string]interface{}{"run_id": client.RunID, "final": final})
}

// remove drops client and closes its Send channel. Callers hold h.mu.
func (h *Hub) remove(client *Client) {
	watchers, ok := h.clients[client.RunID]
	if !ok {
		return
	}
	if _, ok := watchers[client]; ok {
		delete(watchers, client)
		close(client.Send)
	}
	if len(watchers) == 0 {
		delete(h.clients, client.RunID)
	}
}

// Register hands client to the hub and returns once the snapshot is queued
// as its first message. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client, snapshot Snapshot) bool {
	reg := registration{client: client, snapshot: snapshot, added: make(chan struct{})}
	select {
	case h.register <- reg:
		<-reg.added
		return true
	case <-h.done:
		return false
	}
}

// Unregister never blocks after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish sends payload to everyone watching runID. Slow clients miss
// intermediate updates rather than block the caller; a final update that
// does not fit closes the client instead.
func (h *Hub) Publish(runID string, payload interface{}, final bool) {
	data, err := encodeUpdate(payload)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode run update", map[string]interface{}{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[runID] {
		select {
		case client.Send <- Message{Data: data, Final: final}:
			if final {
				delete(h.clients[runID], client)
			}
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"run_id": runID})
			if final {
				h.remove(client)
			}
		}
	}
	if len(h.clients[runID]) == 0 {
		delete(h.clients, runID)
	}
}

func (h *Hub) watchers(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[runID])
}

func encodeUpdate(payload interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type": "run_update",
		"data": payload,
	})
}

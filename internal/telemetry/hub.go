package telemetry

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const maxClients = 32

// Hub tracks connected diagnostics clients. The simulation goroutine only
// ever touches it through Broadcast, Watches and ClientCount, all of which
// take the read lock; connection churn goes through the register channels
// and is serialized by Run.
type Hub struct {
	log *zap.Logger

	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
	}
}

// Run processes register/unregister events until ctx is cancelled, then
// closes every remaining client send channel so their write pumps exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("telemetry client connected",
				zap.String("remote", client.remoteAddr),
				zap.Int("clients", n))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("telemetry client disconnected",
				zap.String("remote", client.remoteAddr),
				zap.Int("clients", n))

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast hands a pre-marshaled frame to every client. Slow clients
// drop the frame rather than stall the caller.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.Send(data)
	}
}

// ClientWatch pairs a client with its current watch region so the
// simulation can assemble per-client actor frames.
type ClientWatch struct {
	Client *Client
	Watch  WatchMsg
	Narrow bool // false = full-world feed
}

// Watches snapshots every client's watch state.
func (h *Hub) Watches() []ClientWatch {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return nil
	}
	out := make([]ClientWatch, 0, len(h.clients))
	for client := range h.clients {
		w, narrow := client.watchRegion()
		out = append(out, ClientWatch{Client: client, Watch: w, Narrow: narrow})
	}
	return out
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

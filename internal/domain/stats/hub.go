package stats

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/pkg/metrics"
)

// PushInterval is how often subscribers receive a snapshot.
const PushInterval = 5 * time.Second

// Connection is one statistics subscriber.
type Connection struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Snapshotter produces the payload pushed to subscribers.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Hub fans a periodic snapshot out to every connected subscriber.
type Hub struct {
	source   Snapshotter
	interval time.Duration

	mu          sync.RWMutex
	connections map[*Connection]bool

	register   chan *Connection
	unregister chan *Connection
	done       chan struct{}
}

func NewHub(source Snapshotter) *Hub {
	return &Hub{
		source:      source,
		interval:    PushInterval,
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		done:        make(chan struct{}),
	}
}

// Run serves registrations and pushes snapshots until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn] = true
			n := len(h.connections)
			h.mu.Unlock()
			metrics.SetStatsSubscribers(n)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn]; ok {
				delete(h.connections, conn)
				close(conn.Send)
			}
			n := len(h.connections)
			h.mu.Unlock()
			metrics.SetStatsSubscribers(n)

		case <-ticker.C:
			h.push(ctx)
		}
	}
}

// Register adds a subscriber. After the hub stopped the connection's send
// channel is closed right away.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a subscriber and closes its send channel.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) push(ctx context.Context) {
	if h.Subscribers() == 0 {
		return
	}

	snap, err := h.source.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build statistics snapshot")
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode statistics snapshot")
		return
	}
	h.Broadcast(payload)
}

// Broadcast queues payload for every subscriber. Slow subscribers miss the
// message instead of blocking the hub.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.connections {
		select {
		case conn.Send <- payload:
		default:
			log.Debug().Msg("Statistics subscriber is slow, dropping snapshot")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		close(conn.Send)
		delete(h.connections, conn)
	}
	metrics.SetStatsSubscribers(0)
}

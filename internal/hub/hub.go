package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nepcscore/services/live-scoring/internal/client"
	"github.com/nepcscore/services/live-scoring/pkg/models"
)

const (
	broadcastBuffer = 1000
	metricsInterval = 30 * time.Second
)

// Metrics is a point-in-time view of the hub
type Metrics struct {
	ActiveClients     int   `json:"active_clients"`
	TotalConnections  int64 `json:"total_connections"`
	TotalMessages     int64 `json:"total_messages"`
	DroppedMessages   int64 `json:"dropped_messages"`
	BroadcastCapacity int   `json:"broadcast_capacity"`
	BroadcastUsage    int   `json:"broadcast_usage"`
}

// Hub tracks connected viewers and fans scoring events out to them.
// Membership changes and broadcasts are serialized through Run.
type Hub struct {
	clients   map[*client.Client]struct{}
	clientsMu sync.RWMutex

	events     chan models.ScoringEvent
	register   chan *client.Client
	unregister chan *client.Client

	// closed once Run has shut down
	done chan struct{}

	counters   Metrics
	countersMu sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client.Client]struct{}),
		events:     make(chan models.ScoringEvent, broadcastBuffer),
		register:   make(chan *client.Client),
		unregister: make(chan *client.Client),
		done:       make(chan struct{}),
	}
}

// Run serves register, unregister and broadcast requests until ctx ends,
// then closes every remaining client.
func (h *Hub) Run(ctx context.Context) {
	fmt.Println("✓ Hub started")

	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case event := <-h.events:
			h.fanOut(event)
		}
	}
}

// Register adds a client. It returns immediately once the hub has stopped.
func (h *Hub) Register(c *client.Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

// Unregister removes and closes a client
func (h *Hub) Unregister(c *client.Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a scoring event. The event is dropped if the queue is full.
func (h *Hub) Broadcast(event models.ScoringEvent) {
	select {
	case h.events <- event:
	default:
		fmt.Printf("⚠️  Broadcast buffer full, dropping %s event for session %s\n", event.Type, event.SessionID)
	}
}

func (h *Hub) add(c *client.Client) {
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.count(func(m *Metrics) { m.TotalConnections++ })
	fmt.Printf("client %s connected (total: %d)\n", c.ID, total)
}

func (h *Hub) remove(c *client.Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.clientsMu.Unlock()

	c.Close()
	if ok {
		fmt.Printf("client %s disconnected (total: %d)\n", c.ID, total)
	}
}

// fanOut delivers one event to every matching client. A client whose
// buffer is full is removed on the spot.
func (h *Hub) fanOut(event models.ScoringEvent) {
	h.clientsMu.RLock()
	targets := make([]*client.Client, 0, len(h.clients))
	for c := range h.clients {
		if c.MatchesFilter(event) {
			targets = append(targets, c)
		}
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypeScoreUpdate,
		Payload:   event,
		Timestamp: time.Now(),
	}

	var sent, dropped int64
	for _, c := range targets {
		if c.TrySend(message) {
			sent++
			continue
		}
		dropped++
		fmt.Printf("⚠️  client %s too slow, disconnecting\n", c.ID)
		h.remove(c)
	}

	h.count(func(m *Metrics) {
		m.TotalMessages += sent
		m.DroppedMessages += dropped
	})
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() Metrics {
	h.countersMu.Lock()
	m := h.counters
	h.countersMu.Unlock()

	m.ActiveClients = h.GetClientCount()
	m.BroadcastCapacity = cap(h.events)
	m.BroadcastUsage = len(h.events)
	return m
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	fmt.Printf("🛑 Shutting down hub (%d active clients)\n", len(h.clients))
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
	h.clientsMu.Unlock()

	close(h.done)
}

func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := h.GetMetrics()
			fmt.Printf("📊 Hub Metrics: clients=%d connections=%d messages=%d dropped=%d\n",
				m.ActiveClients, m.TotalConnections, m.TotalMessages, m.DroppedMessages)
		}
	}
}

func (h *Hub) count(update func(m *Metrics)) {
	h.countersMu.Lock()
	defer h.countersMu.Unlock()
	update(&h.counters)
}

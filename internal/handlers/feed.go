package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nepcscore/services/live-scoring/internal/client"
	"github.com/nepcscore/services/live-scoring/internal/hub"
	"github.com/nepcscore/services/live-scoring/pkg/contracts"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Viewers are read-only; any origin may watch
		return true
	},
}

// FeedHandler serves the read-only live score feed
type FeedHandler struct {
	hub       *hub.Hub
	snapshots contracts.SnapshotReader
	ctx       context.Context
}

// NewFeedHandler creates a feed handler. ctx bounds the lifetime of every
// viewer connection, not the upgrade request.
func NewFeedHandler(ctx context.Context, h *hub.Hub, snapshots contracts.SnapshotReader) *FeedHandler {
	return &FeedHandler{
		hub:       h,
		snapshots: snapshots,
		ctx:       ctx,
	}
}

// Routes mounts the feed endpoints on mux
func (h *FeedHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWebSocket)
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/metrics", h.HandleMetrics)
}

// HandleWebSocket upgrades HTTP connections to WebSocket
func (h *FeedHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("⚠️  WebSocket upgrade error: %v\n", err)
		return
	}

	clientID := uuid.New().String()
	c := client.NewClient(clientID, conn, h.hub, h.snapshots)

	h.hub.Register(c)

	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	fmt.Printf("✓ WebSocket connection established: %s\n", clientID)
}

// HandleHealth returns service health
func (h *FeedHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"timestamp":      time.Now().UTC(),
		"service":        "score-feed",
		"active_clients": h.hub.GetClientCount(),
	})
}

// HandleMetrics returns hub metrics
func (h *FeedHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.hub.GetMetrics())
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nepcscore/services/live-scoring/internal/cache"
	"github.com/nepcscore/services/live-scoring/pkg/contracts"
	"github.com/nepcscore/services/live-scoring/pkg/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Viewers only send small control messages
	maxMessageSize = 1024

	sendBufferSize  = 256
	snapshotTimeout = 2 * time.Second
)

// Hub is the part of the broadcast hub a client talks back to
type Hub interface {
	Unregister(client *Client)
}

// Client is one viewer connected to the live feed.
//
// Send is never closed. Close shuts the client down, after which TrySend
// reports false and WritePump exits.
type Client struct {
	ID string

	// Send buffers outbound messages for WritePump
	Send chan models.ServerMessage

	conn      *websocket.Conn
	hub       Hub
	snapshots contracts.SnapshotReader

	done      chan struct{}
	closeOnce sync.Once

	filter   models.SubscriptionFilter
	filterMu sync.RWMutex

	stats   models.ConnectionStats
	statsMu sync.Mutex
}

// NewClient creates a viewer. snapshots may be nil, in which case
// subscribing sends no initial state.
func NewClient(id string, conn *websocket.Conn, hub Hub, snapshots contracts.SnapshotReader) *Client {
	return &Client{
		ID:        id,
		Send:      make(chan models.ServerMessage, sendBufferSize),
		conn:      conn,
		hub:       hub,
		snapshots: snapshots,
		done:      make(chan struct{}),
		stats: models.ConnectionStats{
			ClientID:    id,
			ConnectedAt: time.Now(),
			BufferSize:  sendBufferSize,
		},
	}
}

// Close marks the client finished. Safe to call more than once and from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once the client has been closed
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// TrySend queues msg without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) TrySend(msg models.ServerMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.Send <- msg:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// push wraps a payload in a timestamped server message
func (c *Client) push(msgType string, payload interface{}) bool {
	return c.TrySend(models.ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

// ReadPump reads control messages from the viewer until the connection
// drops, the client is closed or ctx ends.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for ctx.Err() == nil {
		var msg models.ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("client %s unexpected close: %v\n", c.ID, err)
			}
			return
		}

		c.recordActivity(false)
		c.HandleMessage(ctx, msg)
	}
}

// WritePump delivers queued messages and keeps the connection alive with pings
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.writeClose()
			return

		case <-c.done:
			c.writeClose()
			return

		case message := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				fmt.Printf("client %s write error: %v\n", c.ID, err)
				return
			}
			c.recordActivity(true)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeClose() {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// SetFilter replaces the client's subscription filter
func (c *Client) SetFilter(filter models.SubscriptionFilter) {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	c.filter = filter
}

// GetFilter returns the client's current filter
func (c *Client) GetFilter() models.SubscriptionFilter {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.filter
}

// MatchesFilter reports whether event falls inside the subscription.
// Each non-empty list must contain the event's value; an empty filter
// accepts everything.
func (c *Client) MatchesFilter(event models.ScoringEvent) bool {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()

	return allows(c.filter.Sports, event.Sport) &&
		allows(c.filter.Matches, event.MatchID) &&
		allows(c.filter.Sessions, event.SessionID)
}

// GetStats returns connection statistics
func (c *Client) GetStats() models.ConnectionStats {
	c.statsMu.Lock()
	stats := c.stats
	c.statsMu.Unlock()

	stats.BufferUtilization = float64(len(c.Send)) / float64(sendBufferSize) * 100.0
	return stats
}

// HandleMessage acts on one control message from the viewer
func (c *Client) HandleMessage(ctx context.Context, msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageTypeSubscribe:
		c.subscribe(ctx, msg.Payload)
	case models.MessageTypeUnsubscribe:
		c.SetFilter(models.SubscriptionFilter{})
		fmt.Printf("client %s unsubscribed\n", c.ID)
	case models.MessageTypeHeartbeat:
		c.push(models.MessageTypeHeartbeat, c.GetStats())
	default:
		c.push(models.MessageTypeError, models.ErrorMessage{
			Code:    "unknown_message_type",
			Message: fmt.Sprintf("unknown message type: %s", msg.Type),
		})
	}
}

// subscribe installs the new filter, then sends the cached state of each
// named session so a late joiner sees the current score at once
func (c *Client) subscribe(ctx context.Context, payload map[string]interface{}) {
	filter, err := parseFilter(payload)
	if err != nil {
		c.push(models.MessageTypeError, models.ErrorMessage{Code: "invalid_filter", Message: err.Error()})
		return
	}

	c.SetFilter(filter)
	fmt.Printf("client %s subscribed: sports=%v matches=%v sessions=%v\n",
		c.ID, filter.Sports, filter.Matches, filter.Sessions)

	if c.snapshots == nil {
		return
	}
	for _, id := range filter.Sessions {
		if state, ok := c.readSnapshot(ctx, id); ok {
			c.push(models.MessageTypeSnapshot, models.SnapshotPayload{SessionID: id, State: *state})
		}
	}
}

func (c *Client) readSnapshot(ctx context.Context, sessionID string) (*models.DisplayState, bool) {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	state, err := c.snapshots.ReadSnapshot(ctx, sessionID)
	switch {
	case err == nil:
		return state, true
	case errors.Is(err, cache.ErrSnapshotNotFound):
	default:
		fmt.Printf("⚠️  client %s snapshot read failed for %s: %v\n", c.ID, sessionID, err)
	}
	return nil, false
}

func parseFilter(payload map[string]interface{}) (models.SubscriptionFilter, error) {
	var filter models.SubscriptionFilter

	raw, err := json.Marshal(payload)
	if err != nil {
		return filter, fmt.Errorf("failed to parse filter")
	}
	if err := json.Unmarshal(raw, &filter); err != nil {
		return filter, fmt.Errorf("failed to parse filter")
	}
	return filter, nil
}

func (c *Client) recordActivity(sent bool) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	if sent {
		c.stats.MessagesSent++
	} else {
		c.stats.MessagesReceived++
	}
	c.stats.LastMessageAt = time.Now()
}

func allows(wanted []string, value string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		if w == value {
			return true
		}
	}
	return false
}

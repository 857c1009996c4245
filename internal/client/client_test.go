package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nepcscore/services/live-scoring/internal/cache"
	"github.com/nepcscore/services/live-scoring/internal/client"
	"github.com/nepcscore/services/live-scoring/pkg/models"
)

// MockHub implements the Hub interface for testing
type MockHub struct {
	unregisteredClients []*client.Client
}

func (m *MockHub) Unregister(c *client.Client) {
	m.unregisteredClients = append(m.unregisteredClients, c)
}

// MockSnapshots serves display states from a map
type MockSnapshots struct {
	states map[string]models.DisplayState
	err    error
}

func (m *MockSnapshots) ReadSnapshot(ctx context.Context, sessionID string) (*models.DisplayState, error) {
	if m.err != nil {
		return nil, m.err
	}
	state, ok := m.states[sessionID]
	if !ok {
		return nil, cache.ErrSnapshotNotFound
	}
	return &state, nil
}

func event(sport, matchID, sessionID string) models.ScoringEvent {
	return models.ScoringEvent{Sport: sport, MatchID: matchID, SessionID: sessionID, Type: models.EventRuns}
}

func TestClient_MatchesFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   models.SubscriptionFilter
		event    models.ScoringEvent
		expected bool
	}{
		{
			name:     "empty filter matches everything",
			filter:   models.SubscriptionFilter{},
			event:    event("cricket", "m1", "s1"),
			expected: true,
		},
		{
			name:     "sport filter matches",
			filter:   models.SubscriptionFilter{Sports: []string{"cricket"}},
			event:    event("cricket", "m1", "s1"),
			expected: true,
		},
		{
			name:     "sport filter doesn't match",
			filter:   models.SubscriptionFilter{Sports: []string{"football"}},
			event:    event("cricket", "m1", "s1"),
			expected: false,
		},
		{
			name:     "match filter matches",
			filter:   models.SubscriptionFilter{Matches: []string{"m1", "m2"}},
			event:    event("cricket", "m1", "s1"),
			expected: true,
		},
		{
			name:     "match filter doesn't match",
			filter:   models.SubscriptionFilter{Matches: []string{"m2"}},
			event:    event("cricket", "m1", "s1"),
			expected: false,
		},
		{
			name:     "session filter matches",
			filter:   models.SubscriptionFilter{Sessions: []string{"s1"}},
			event:    event("cricket", "m1", "s1"),
			expected: true,
		},
		{
			name:     "session filter doesn't match",
			filter:   models.SubscriptionFilter{Sessions: []string{"s2"}},
			event:    event("cricket", "m1", "s1"),
			expected: false,
		},
		{
			name: "all filters must match",
			filter: models.SubscriptionFilter{
				Sports:   []string{"cricket"},
				Matches:  []string{"m1"},
				Sessions: []string{"s2"},
			},
			event:    event("cricket", "m1", "s1"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := client.NewClient("test-client", nil, &MockHub{}, nil)
			c.SetFilter(tt.filter)

			if got := c.MatchesFilter(tt.event); got != tt.expected {
				t.Errorf("MatchesFilter() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClient_TrySend(t *testing.T) {
	c := client.NewClient("test-client", nil, &MockHub{}, nil)

	sent := 0
	for c.TrySend(models.ServerMessage{Type: models.MessageTypeScoreUpdate}) {
		sent++
		if sent > 1000 {
			t.Fatal("TrySend never reported a full buffer")
		}
	}

	if sent != cap(c.Send) {
		t.Errorf("sent %d messages before full, want %d", sent, cap(c.Send))
	}

	stats := c.GetStats()
	if stats.BufferUtilization != 100.0 {
		t.Errorf("BufferUtilization = %v, want 100", stats.BufferUtilization)
	}
}

func TestClient_SubscribeSendsSnapshots(t *testing.T) {
	snapshots := &MockSnapshots{states: map[string]models.DisplayState{
		"s1": {TotalScore: 11, Wickets: 1, Score: "11/1", Overs: "0.4"},
	}}
	c := client.NewClient("test-client", nil, &MockHub{}, snapshots)

	c.HandleMessage(context.Background(), models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"sessions": []interface{}{"s1", "unknown"}},
	})

	filter := c.GetFilter()
	if len(filter.Sessions) != 2 || filter.Sessions[0] != "s1" {
		t.Errorf("unexpected filter %+v", filter)
	}

	if len(c.Send) != 1 {
		t.Fatalf("expected 1 snapshot message, got %d", len(c.Send))
	}

	msg := <-c.Send
	if msg.Type != models.MessageTypeSnapshot {
		t.Errorf("message type = %s, want %s", msg.Type, models.MessageTypeSnapshot)
	}
	payload, ok := msg.Payload.(models.SnapshotPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", msg.Payload)
	}
	if payload.SessionID != "s1" || payload.State.Score != "11/1" {
		t.Errorf("unexpected snapshot %+v", payload)
	}
}

func TestClient_SubscribeSnapshotErrorIsSkipped(t *testing.T) {
	c := client.NewClient("test-client", nil, &MockHub{}, &MockSnapshots{err: errors.New("redis down")})

	c.HandleMessage(context.Background(), models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"sessions": []interface{}{"s1"}},
	})

	if len(c.Send) != 0 {
		t.Errorf("expected no messages, got %d", len(c.Send))
	}
	if got := c.GetFilter().Sessions; len(got) != 1 {
		t.Errorf("filter should still be applied, got %v", got)
	}
}

func TestClient_Unsubscribe(t *testing.T) {
	c := client.NewClient("test-client", nil, &MockHub{}, nil)
	c.SetFilter(models.SubscriptionFilter{Sessions: []string{"s1"}})

	c.HandleMessage(context.Background(), models.ClientMessage{Type: models.MessageTypeUnsubscribe})

	if !c.MatchesFilter(event("cricket", "m9", "s9")) {
		t.Error("cleared filter should match everything")
	}
}

func TestClient_UnknownMessageType(t *testing.T) {
	c := client.NewClient("test-client", nil, &MockHub{}, nil)

	c.HandleMessage(context.Background(), models.ClientMessage{Type: "bogus"})
	c.HandleMessage(context.Background(), models.ClientMessage{Type: models.MessageTypeHeartbeat})

	if len(c.Send) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(c.Send))
	}
	if msg := <-c.Send; msg.Type != models.MessageTypeError {
		t.Errorf("first message type = %s, want error", msg.Type)
	}
	if msg := <-c.Send; msg.Type != models.MessageTypeHeartbeat {
		t.Errorf("second message type = %s, want heartbeat", msg.Type)
	}
}

func TestClient_SendAfterClose(t *testing.T) {
	snapshots := &MockSnapshots{states: map[string]models.DisplayState{"s1": {Score: "4/0"}}}
	c := client.NewClient("test-client", nil, &MockHub{}, snapshots)

	c.Close()
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}

	if c.TrySend(models.ServerMessage{Type: models.MessageTypeScoreUpdate}) {
		t.Error("TrySend after Close should report false")
	}

	// The read pump may still deliver viewer messages after the hub has closed the client
	ctx := context.Background()
	c.HandleMessage(ctx, models.ClientMessage{Type: models.MessageTypeHeartbeat})
	c.HandleMessage(ctx, models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"sessions": []interface{}{"s1"}},
	})
	c.HandleMessage(ctx, models.ClientMessage{Type: "bogus"})

	if len(c.Send) != 0 {
		t.Errorf("expected nothing queued after Close, got %d", len(c.Send))
	}
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nepcscore/services/live-scoring/pkg/models"
	"github.com/redis/go-redis/v9"
)

// TTL constants
const (
	LiveSessionTTL  = 6 * time.Hour
	EndedSessionTTL = 30 * time.Minute
)

// ActiveSessionsKey is the set of sessions currently being scored
const ActiveSessionsKey = "score:sessions:active"

// ErrSnapshotNotFound is returned when no snapshot is cached for a session
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotKey returns the key holding a session's latest display state
func SnapshotKey(sessionID string) string {
	return fmt.Sprintf("score:session:%s:state", sessionID)
}

// RedisWriter keeps the latest display state of every session in Redis
type RedisWriter struct {
	client *redis.Client
}

// NewRedisWriter creates a new Redis writer
func NewRedisWriter(client *redis.Client) *RedisWriter {
	return &RedisWriter{
		client: client,
	}
}

// Record stores the state carried by a scoring event. An ended session
// keeps its last snapshot for a short while and leaves the active set.
func (w *RedisWriter) Record(ctx context.Context, event models.ScoringEvent) error {
	data, err := json.Marshal(event.State)
	if err != nil {
		return fmt.Errorf("marshaling display state: %w", err)
	}

	pipe := w.client.Pipeline()
	if event.Type == models.EventSessionEnded {
		pipe.Set(ctx, SnapshotKey(event.SessionID), data, EndedSessionTTL)
		pipe.SRem(ctx, ActiveSessionsKey, event.SessionID)
	} else {
		pipe.Set(ctx, SnapshotKey(event.SessionID), data, LiveSessionTTL)
		pipe.SAdd(ctx, ActiveSessionsKey, event.SessionID)
		pipe.Expire(ctx, ActiveSessionsKey, LiveSessionTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", event.SessionID, err)
	}
	return nil
}

// ReadSnapshot retrieves the latest display state of a session
func (w *RedisWriter) ReadSnapshot(ctx context.Context, sessionID string) (*models.DisplayState, error) {
	data, err := w.client.Get(ctx, SnapshotKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	var state models.DisplayState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshaling display state: %w", err)
	}

	return &state, nil
}

// ReadActiveSessions lists the sessions currently being scored
func (w *RedisWriter) ReadActiveSessions(ctx context.Context) ([]string, error) {
	return w.client.SMembers(ctx, ActiveSessionsKey).Result()
}

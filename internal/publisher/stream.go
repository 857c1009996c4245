package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nepcscore/services/live-scoring/pkg/models"
	"github.com/redis/go-redis/v9"
)

// streamMaxLen caps each sport stream; trimming is approximate
const streamMaxLen = 10000

// StreamKey returns the stream a sport's score updates are published to
func StreamKey(sport string) string {
	if sport == "" {
		sport = models.DefaultSport
	}
	return fmt.Sprintf("scores.updates.%s", sport)
}

// StreamPublisher publishes scoring events to Redis streams
type StreamPublisher struct {
	client *redis.Client
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{
		client: client,
	}
}

// Record publishes a scoring event to the sport-specific stream
func (p *StreamPublisher) Record(ctx context.Context, event models.ScoringEvent) error {
	streamKey := StreamKey(event.Sport)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling scoring event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":       string(data),
			"session_id": event.SessionID,
			"type":       string(event.Type),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing to stream %s: %w", streamKey, err)
	}

	return nil
}

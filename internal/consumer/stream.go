package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nepcscore/services/live-scoring/internal/config"
	"github.com/nepcscore/services/live-scoring/pkg/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Batch size for reading messages
	batchSize = 100

	// Block duration when waiting for new messages
	blockDuration = 1 * time.Second
)

// Broadcaster fans a scoring event out to viewers
type Broadcaster interface {
	Broadcast(event models.ScoringEvent)
}

// StreamConsumer consumes scoring events from Redis Streams
type StreamConsumer struct {
	redis        *redis.Client
	hub          Broadcaster
	streamConfig config.StreamConfig
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(redisClient *redis.Client, hub Broadcaster, streamConfig config.StreamConfig) *StreamConsumer {
	return &StreamConsumer{
		redis:        redisClient,
		hub:          hub,
		streamConfig: streamConfig,
	}
}

// Start consumes every configured stream until ctx is cancelled
func (sc *StreamConsumer) Start(ctx context.Context) error {
	fmt.Println("✓ Stream consumer started")

	streams := sc.streamConfig.GetAllStreams()
	fmt.Printf("  📡 Configured streams: %v\n", streams)

	for _, stream := range streams {
		sc.createConsumerGroup(ctx, stream)
	}

	for _, stream := range streams {
		go sc.consumeStream(ctx, stream)
	}

	<-ctx.Done()
	return nil
}

// createConsumerGroup creates a consumer group for a stream, tolerating one that already exists
func (sc *StreamConsumer) createConsumerGroup(ctx context.Context, stream string) {
	err := sc.redis.XGroupCreateMkStream(ctx, stream, sc.streamConfig.ConsumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		fmt.Printf("⚠️  Failed to create consumer group for %s: %v\n", stream, err)
	}
}

func (sc *StreamConsumer) consumeStream(ctx context.Context, stream string) {
	fmt.Printf("  📡 Consuming stream: %s\n", stream)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			streams, err := sc.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    sc.streamConfig.ConsumerGroup,
				Consumer: sc.streamConfig.ConsumerID,
				Streams:  []string{stream, ">"},
				Count:    batchSize,
				Block:    blockDuration,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				fmt.Printf("⚠️  Stream read error (%s): %v\n", stream, err)
				time.Sleep(1 * time.Second)
				continue
			}

			for _, s := range streams {
				for _, message := range s.Messages {
					sc.processMessage(ctx, s.Stream, message)
				}
			}
		}
	}
}

// processMessage broadcasts one stream entry and acknowledges it.
// Malformed entries are acknowledged and dropped.
func (sc *StreamConsumer) processMessage(ctx context.Context, stream string, msg redis.XMessage) {
	event, err := DecodeEvent(msg.Values)
	if err != nil {
		fmt.Printf("⚠️  Skipping message %s in %s: %v\n", msg.ID, stream, err)
		sc.ackMessage(ctx, stream, msg.ID)
		return
	}

	fmt.Printf("📤 Broadcasting score: session=%s seq=%d type=%s score=%s overs=%s\n",
		event.SessionID, event.Sequence, event.Type, event.State.Score, event.State.Overs)

	sc.hub.Broadcast(event)
	sc.ackMessage(ctx, stream, msg.ID)
}

// DecodeEvent extracts the scoring event from a stream entry's "data" field
func DecodeEvent(values map[string]interface{}) (models.ScoringEvent, error) {
	var event models.ScoringEvent

	data, ok := values["data"].(string)
	if !ok {
		return event, fmt.Errorf("missing data field")
	}

	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return event, fmt.Errorf("parsing scoring event: %w", err)
	}

	if event.SessionID == "" {
		return event, fmt.Errorf("scoring event has no session id")
	}

	return event, nil
}

func (sc *StreamConsumer) ackMessage(ctx context.Context, stream string, messageID string) {
	err := sc.redis.XAck(ctx, stream, sc.streamConfig.ConsumerGroup, messageID).Err()
	if err != nil {
		fmt.Printf("⚠️  Failed to ack message %s in %s: %v\n", messageID, stream, err)
	}
}

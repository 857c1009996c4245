package contracts

import (
	"context"

	"github.com/nepcscore/services/live-scoring/pkg/models"
)

// EventSink receives every scoring event a session applies.
// Implementations must not mutate the event.
type EventSink interface {
	Record(ctx context.Context, event models.ScoringEvent) error
}

// SnapshotReader reads the latest cached display state of a session
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, sessionID string) (*models.DisplayState, error)
}

package scoring

import (
	"errors"
	"fmt"

	"github.com/nepcscore/services/live-scoring/pkg/models"
)

var (
	ErrUnknownEvent = errors.New("unknown event type")
	ErrNoStartEvent = errors.New("event log does not begin with session_started")
)

// Apply dispatches a scoring event onto the session operations.
// Start and end events carry no state change.
func Apply(s *Session, event models.ScoringEvent) (models.Advisory, error) {
	switch event.Type {
	case models.EventRuns:
		return models.AdvisoryNone, s.RecordRuns(event.PlayerID, event.Runs)
	case models.EventWicket:
		return s.RecordWicket(event.PlayerID)
	case models.EventExtras:
		return models.AdvisoryNone, s.AdjustExtras(event.Delta)
	case models.EventBatterAdded:
		return models.AdvisoryNone, s.AddBatter(event.PlayerID, event.Name)
	case models.EventBowlerChanged:
		return models.AdvisoryNone, s.SetBowler(event.PlayerID, event.Name)
	case models.EventSessionStarted, models.EventSessionEnded:
		return models.AdvisoryNone, nil
	default:
		return models.AdvisoryNone, fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
	}
}

// Replay rebuilds a session from its event log. The first event must be the
// session_started event carrying the lineup; the rest are applied in order.
func Replay(events []models.ScoringEvent) (*Session, error) {
	if len(events) == 0 || events[0].Type != models.EventSessionStarted {
		return nil, ErrNoStartEvent
	}

	var lineup models.Lineup
	if events[0].Lineup != nil {
		lineup = *events[0].Lineup
	}

	s, err := New(lineup)
	if err != nil {
		return nil, err
	}

	for _, ev := range events[1:] {
		if _, err := Apply(s, ev); err != nil {
			return nil, fmt.Errorf("replaying event %d (%s): %w", ev.Sequence, ev.Type, err)
		}
	}
	return s, nil
}

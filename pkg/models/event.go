package models

import "time"

// EventType identifies what a scoring event did to a session
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventRuns           EventType = "runs"
	EventWicket         EventType = "wicket"
	EventExtras         EventType = "extras"
	EventBatterAdded    EventType = "batter_added"
	EventBowlerChanged  EventType = "bowler_changed"
	EventSessionEnded   EventType = "session_ended"
)

// Advisory is the informational prompt raised after a wicket.
// It never blocks further input.
type Advisory string

const (
	AdvisoryNone        Advisory = ""
	AdvisoryNextBatter  Advisory = "select_next_batter"
	AdvisoryInningsOver Advisory = "innings_over"
)

// DefaultSport is the sport key used for stream names when none is given
const DefaultSport = "cricket"

// ScoringEvent is one applied scoring action together with the state it produced
type ScoringEvent struct {
	SessionID  string       `json:"session_id"`
	MatchID    string       `json:"match_id,omitempty"`
	Sport      string       `json:"sport"`
	Sequence   int64        `json:"sequence"`
	Type       EventType    `json:"type"`
	PlayerID   string       `json:"player_id,omitempty"`
	Name       string       `json:"name,omitempty"`
	Runs       int          `json:"runs,omitempty"`
	Delta      int          `json:"delta,omitempty"`
	Advisory   Advisory     `json:"advisory,omitempty"`
	Lineup     *Lineup      `json:"lineup,omitempty"` // session_started only
	State      DisplayState `json:"state"`
	OccurredAt time.Time    `json:"occurred_at"`
}

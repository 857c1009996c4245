package models

// StartSessionRequest opens a new scoring session.
// Empty batters or bowler fall back to the placeholder lineup.
type StartSessionRequest struct {
	MatchID string      `json:"match_id"`
	Sport   string      `json:"sport,omitempty"`
	Batters []PlayerRef `json:"batters,omitempty"`
	Bowler  *PlayerRef  `json:"bowler,omitempty"`
}

// RunsRequest is sent by the run buttons (0, 1, 2, 3, 4, 6)
type RunsRequest struct {
	PlayerID string `json:"player_id"`
	Runs     int    `json:"runs"`
}

// WicketRequest is sent by the wicket button
type WicketRequest struct {
	PlayerID string `json:"player_id"`
}

// ExtrasRequest is sent by the extras +/- buttons
type ExtrasRequest struct {
	Delta int `json:"delta"`
}

// SessionResponse is returned by every state-changing endpoint
type SessionResponse struct {
	SessionID string       `json:"session_id"`
	Sequence  int64        `json:"sequence"`
	Advisory  Advisory     `json:"advisory,omitempty"`
	State     DisplayState `json:"state"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Package ledger stores applied scoring events in Postgres so a session can
// be replayed after the scoring screen is gone.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nepcscore/services/live-scoring/pkg/models"
)

// Schema creates the event table. Safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS scoring_events (
	id           BIGSERIAL PRIMARY KEY,
	session_id   TEXT        NOT NULL,
	match_id     TEXT        NOT NULL DEFAULT '',
	sport        TEXT        NOT NULL,
	sequence     BIGINT      NOT NULL,
	event_type   TEXT        NOT NULL,
	player_id    TEXT        NOT NULL DEFAULT '',
	player_name  TEXT        NOT NULL DEFAULT '',
	runs         INTEGER     NOT NULL DEFAULT 0,
	delta        INTEGER     NOT NULL DEFAULT 0,
	advisory     TEXT        NOT NULL DEFAULT '',
	lineup       JSONB,
	state        JSONB       NOT NULL,
	occurred_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (session_id, sequence)
);
CREATE INDEX IF NOT EXISTS idx_scoring_events_occurred_at ON scoring_events (occurred_at DESC);
`

// SessionSummary is one row of the recent sessions listing
type SessionSummary struct {
	SessionID string
	MatchID   string
	Sport     string
	Events    int64
	LastScore string
	LastOvers string
	Ended     bool
}

// Ledger writes scoring events to the scoring_events table
type Ledger struct {
	db *sql.DB
}

// New creates a new ledger
func New(db *sql.DB) *Ledger {
	return &Ledger{
		db: db,
	}
}

// EnsureSchema creates the table and indexes if they are missing
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record inserts one scoring event
func (l *Ledger) Record(ctx context.Context, event models.ScoringEvent) error {
	state, err := json.Marshal(event.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	var lineup []byte
	if event.Lineup != nil {
		lineup, err = json.Marshal(event.Lineup)
		if err != nil {
			return fmt.Errorf("failed to marshal lineup: %w", err)
		}
	}

	query := `
		INSERT INTO scoring_events (
			session_id, match_id, sport, sequence, event_type,
			player_id, player_name, runs, delta, advisory,
			lineup, state, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_id, sequence) DO NOTHING
	`

	_, err = l.db.ExecContext(ctx, query,
		event.SessionID,
		event.MatchID,
		event.Sport,
		event.Sequence,
		string(event.Type),
		event.PlayerID,
		event.Name,
		event.Runs,
		event.Delta,
		string(event.Advisory),
		nullableJSON(lineup),
		string(state),
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scoring event: %w", err)
	}

	return nil
}

// ListEvents returns a session's events in sequence order
func (l *Ledger) ListEvents(ctx context.Context, sessionID string) ([]models.ScoringEvent, error) {
	query := `
		SELECT session_id, match_id, sport, sequence, event_type,
		       player_id, player_name, runs, delta, advisory,
		       lineup, state, occurred_at
		FROM scoring_events
		WHERE session_id = $1
		ORDER BY sequence
	`

	rows, err := l.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.ScoringEvent
	for rows.Next() {
		var (
			ev       models.ScoringEvent
			typ      string
			advisory string
			lineup   []byte
			state    []byte
		)
		err := rows.Scan(
			&ev.SessionID,
			&ev.MatchID,
			&ev.Sport,
			&ev.Sequence,
			&typ,
			&ev.PlayerID,
			&ev.Name,
			&ev.Runs,
			&ev.Delta,
			&advisory,
			&lineup,
			&state,
			&ev.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		ev.Type = models.EventType(typ)
		ev.Advisory = models.Advisory(advisory)
		if len(lineup) > 0 {
			ev.Lineup = &models.Lineup{}
			if err := json.Unmarshal(lineup, ev.Lineup); err != nil {
				return nil, fmt.Errorf("failed to unmarshal lineup of event %d: %w", ev.Sequence, err)
			}
		}
		if err := json.Unmarshal(state, &ev.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state of event %d: %w", ev.Sequence, err)
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// ListSessions returns the most recently active sessions
func (l *Ledger) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT DISTINCT ON (session_id)
		       session_id, match_id, sport, sequence,
		       state->>'score' AS score, state->>'overs' AS overs,
		       event_type = 'session_ended' AS ended, occurred_at
		FROM scoring_events
		ORDER BY session_id, sequence DESC
	`
	query = `SELECT session_id, match_id, sport, sequence, score, overs, ended
		FROM (` + query + `) latest
		ORDER BY occurred_at DESC
		LIMIT $1`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.SessionID, &s.MatchID, &s.Sport, &s.Events, &s.LastScore, &s.LastOvers, &s.Ended); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// nullableJSON passes JSON as text so lib/pq does not send it as bytea
func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

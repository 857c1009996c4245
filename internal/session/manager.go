// Package session keeps the live scoring sessions of one process and hands
// every applied event to the configured sink.
package session

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nepcscore/services/live-scoring/internal/scoring"
	"github.com/nepcscore/services/live-scoring/pkg/contracts"
	"github.com/nepcscore/services/live-scoring/pkg/models"
)

// ErrSessionNotFound is returned for unknown or ended sessions
var ErrSessionNotFound = errors.New("session not found")

// sinkTimeout bounds how long one event may spend in the sink
const sinkTimeout = 5 * time.Second

// Result is what a scoring operation hands back to the caller
type Result struct {
	SessionID string
	Sequence  int64
	Advisory  models.Advisory
	State     models.DisplayState
}

// liveSession is one session plus the bookkeeping needed to number its events
type liveSession struct {
	mu        sync.Mutex
	id        string
	matchID   string
	sport     string
	startedAt time.Time
	sequence  int64
	ended     bool
	scoring   *scoring.Session
}

// Manager owns the live sessions keyed by session ID
type Manager struct {
	sink contracts.EventSink
	now  func() time.Time

	sessions   map[string]*liveSession
	sessionsMu sync.RWMutex
}

// NewManager creates a session manager that emits events to sink
func NewManager(sink contracts.EventSink) *Manager {
	return &Manager{
		sink:     sink,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
	}
}

// Start opens a new session and emits its session_started event
func (m *Manager) Start(ctx context.Context, req models.StartSessionRequest) (Result, error) {
	lineup := models.Lineup{Batters: req.Batters}
	if req.Bowler != nil {
		lineup.Bowler = *req.Bowler
	}

	sc, err := scoring.New(lineup)
	if err != nil {
		return Result{}, err
	}

	sport := req.Sport
	if sport == "" {
		sport = models.DefaultSport
	}

	ls := &liveSession{
		id:        uuid.New().String(),
		matchID:   req.MatchID,
		sport:     sport,
		startedAt: m.now(),
		scoring:   sc,
	}

	// held until session_started is emitted so no event can overtake it
	ls.mu.Lock()
	defer ls.mu.Unlock()

	m.sessionsMu.Lock()
	m.sessions[ls.id] = ls
	m.sessionsMu.Unlock()

	// record the lineup actually used so replay never depends on defaults
	used := lineupOf(sc)

	log.Printf("[session %s] started for match %q", ls.id, ls.matchID)
	return m.emit(ctx, ls, models.ScoringEvent{Type: models.EventSessionStarted, Lineup: &used}), nil
}

// RecordRuns credits runs off one delivery
func (m *Manager) RecordRuns(ctx context.Context, sessionID, playerID string, runs int) (Result, error) {
	return m.apply(ctx, sessionID, models.ScoringEvent{Type: models.EventRuns, PlayerID: playerID, Runs: runs})
}

// RecordWicket dismisses a batter
func (m *Manager) RecordWicket(ctx context.Context, sessionID, playerID string) (Result, error) {
	return m.apply(ctx, sessionID, models.ScoringEvent{Type: models.EventWicket, PlayerID: playerID})
}

// AdjustExtras moves the extras count by delta
func (m *Manager) AdjustExtras(ctx context.Context, sessionID string, delta int) (Result, error) {
	return m.apply(ctx, sessionID, models.ScoringEvent{Type: models.EventExtras, Delta: delta})
}

// AddBatter brings a new batter in
func (m *Manager) AddBatter(ctx context.Context, sessionID, playerID, name string) (Result, error) {
	return m.apply(ctx, sessionID, models.ScoringEvent{Type: models.EventBatterAdded, PlayerID: playerID, Name: name})
}

// SetBowler replaces the current bowler
func (m *Manager) SetBowler(ctx context.Context, sessionID, playerID, name string) (Result, error) {
	return m.apply(ctx, sessionID, models.ScoringEvent{Type: models.EventBowlerChanged, PlayerID: playerID, Name: name})
}

// Display returns the current display state of a session
func (m *Manager) Display(sessionID string) (models.DisplayState, error) {
	ls, err := m.get(sessionID)
	if err != nil {
		return models.DisplayState{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.scoring.DisplayState(), nil
}

// List returns the IDs of all live sessions, oldest first
func (m *Manager) List() []string {
	m.sessionsMu.RLock()
	live := make([]*liveSession, 0, len(m.sessions))
	for _, ls := range m.sessions {
		live = append(live, ls)
	}
	m.sessionsMu.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		if live[i].startedAt.Equal(live[j].startedAt) {
			return live[i].id < live[j].id
		}
		return live[i].startedAt.Before(live[j].startedAt)
	})

	ids := make([]string, len(live))
	for i, ls := range live {
		ids[i] = ls.id
	}
	return ids
}

// End discards a session and emits its session_ended event
func (m *Manager) End(ctx context.Context, sessionID string) (Result, error) {
	m.sessionsMu.Lock()
	ls, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.sessionsMu.Unlock()

	if !ok {
		return Result{}, ErrSessionNotFound
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.ended = true
	log.Printf("[session %s] ended at %s after %d events", ls.id, ls.scoring.DisplayState().Score, ls.sequence)
	return m.emit(ctx, ls, models.ScoringEvent{Type: models.EventSessionEnded}), nil
}

// apply runs one event against a session under its lock
func (m *Manager) apply(ctx context.Context, sessionID string, event models.ScoringEvent) (Result, error) {
	ls, err := m.get(sessionID)
	if err != nil {
		return Result{}, err
	}
	return m.applyTo(ctx, ls, event)
}

// applyTo rejects the event if End won the race for ls since it was looked up
func (m *Manager) applyTo(ctx context.Context, ls *liveSession, event models.ScoringEvent) (Result, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.ended {
		return Result{}, ErrSessionNotFound
	}

	advisory, err := scoring.Apply(ls.scoring, event)
	if err != nil {
		return Result{}, err
	}
	event.Advisory = advisory

	return m.emit(ctx, ls, event), nil
}

// emit numbers an applied event and sends it to the sink. Sink failures are
// logged; the event stays applied. Callers hold ls.mu.
func (m *Manager) emit(ctx context.Context, ls *liveSession, event models.ScoringEvent) Result {
	ls.sequence++

	event.SessionID = ls.id
	event.MatchID = ls.matchID
	event.Sport = ls.sport
	event.Sequence = ls.sequence
	event.State = ls.scoring.DisplayState()
	event.OccurredAt = m.now().UTC()

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	if err := m.sink.Record(sinkCtx, event); err != nil {
		log.Printf("[session %s] sink error on event %d (%s): %v", ls.id, event.Sequence, event.Type, err)
	}

	return Result{
		SessionID: ls.id,
		Sequence:  event.Sequence,
		Advisory:  event.Advisory,
		State:     event.State,
	}
}

func (m *Manager) get(sessionID string) (*liveSession, error) {
	m.sessionsMu.RLock()
	defer m.sessionsMu.RUnlock()

	ls, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls, nil
}

// lineupOf captures the players a freshly created session started with
func lineupOf(s *scoring.Session) models.Lineup {
	lineup := models.Lineup{
		Batters: make([]models.PlayerRef, len(s.Batting)),
		Bowler:  models.PlayerRef{PlayerID: s.Bowler.PlayerID, Name: s.Bowler.Name},
	}
	for i, b := range s.Batting {
		lineup.Batters[i] = models.PlayerRef{PlayerID: b.PlayerID, Name: b.Name}
	}
	return lineup
}

package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nepcscore/services/live-scoring/internal/scoring"
	"github.com/nepcscore/services/live-scoring/internal/session"
	"github.com/nepcscore/services/live-scoring/pkg/models"
)

// MockSink collects events and optionally fails
type MockSink struct {
	mu          sync.Mutex
	events      []models.ScoringEvent
	shouldError bool
}

func (m *MockSink) Record(ctx context.Context, event models.ScoringEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldError {
		return errors.New("sink down")
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockSink) Events() []models.ScoringEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ScoringEvent(nil), m.events...)
}

func startSession(t *testing.T, m *session.Manager) string {
	t.Helper()
	res, err := m.Start(context.Background(), models.StartSessionRequest{MatchID: "npl-2024-final"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return res.SessionID
}

func TestManager_StartEmitsLineup(t *testing.T) {
	sink := &MockSink{}
	m := session.NewManager(sink)

	res, err := m.Start(context.Background(), models.StartSessionRequest{
		MatchID: "m1",
		Batters: []models.PlayerRef{{PlayerID: "rohit", Name: "Rohit Paudel"}, {PlayerID: "dipendra", Name: "Dipendra Airee"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SessionID == "" || res.Sequence != 1 {
		t.Errorf("unexpected result %+v", res)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Type != models.EventSessionStarted || ev.Sport != models.DefaultSport || ev.MatchID != "m1" {
		t.Errorf("unexpected start event %+v", ev)
	}
	if ev.Lineup == nil || len(ev.Lineup.Batters) != 2 || ev.Lineup.Bowler.PlayerID != "b1" {
		t.Errorf("lineup not captured with defaults: %+v", ev.Lineup)
	}
}

func TestManager_Scenario(t *testing.T) {
	sink := &MockSink{}
	m := session.NewManager(sink)
	ctx := context.Background()
	id := startSession(t, m)

	if _, err := m.RecordRuns(ctx, id, "p1", 4); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RecordRuns(ctx, id, "p1", 1); err != nil {
		t.Fatal(err)
	}
	res, err := m.RecordWicket(ctx, id, "p2")
	if err != nil {
		t.Fatal(err)
	}
	if res.Advisory != models.AdvisoryNextBatter {
		t.Errorf("advisory = %q", res.Advisory)
	}
	res, err = m.RecordRuns(ctx, id, "p1", 6)
	if err != nil {
		t.Fatal(err)
	}

	if res.State.Score != "11/1" || res.State.Bowler.Wickets != 1 {
		t.Errorf("state = %s bowler wickets %d", res.State.Score, res.State.Bowler.Wickets)
	}
	if res.Sequence != 5 {
		t.Errorf("sequence = %d, want 5", res.Sequence)
	}

	events := sink.Events()
	for i, ev := range events {
		if ev.Sequence != int64(i+1) {
			t.Errorf("event %d has sequence %d", i, ev.Sequence)
		}
		if ev.SessionID != id {
			t.Errorf("event %d has session %s", i, ev.SessionID)
		}
	}

	replayed, err := scoring.Replay(events)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if got := replayed.DisplayState(); got.Score != res.State.Score || got.Overs != res.State.Overs {
		t.Errorf("replay %s at %s, live %s at %s", got.Score, got.Overs, res.State.Score, res.State.Overs)
	}
}

func TestManager_RejectedEventIsNotEmitted(t *testing.T) {
	sink := &MockSink{}
	m := session.NewManager(sink)
	ctx := context.Background()
	id := startSession(t, m)

	if _, err := m.RecordRuns(ctx, id, "p1", 5); !errors.Is(err, scoring.ErrInvalidRuns) {
		t.Errorf("expected ErrInvalidRuns, got %v", err)
	}
	if _, err := m.AdjustExtras(ctx, id, 3); !errors.Is(err, scoring.ErrInvalidDelta) {
		t.Errorf("expected ErrInvalidDelta, got %v", err)
	}
	if n := len(sink.Events()); n != 1 {
		t.Errorf("expected only the start event, got %d events", n)
	}

	res, err := m.AdjustExtras(ctx, id, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sequence != 2 {
		t.Errorf("rejected events consumed sequence numbers: %d", res.Sequence)
	}
}

func TestManager_SinkFailureDoesNotFailScoring(t *testing.T) {
	sink := &MockSink{shouldError: true}
	m := session.NewManager(sink)
	ctx := context.Background()
	id := startSession(t, m)

	res, err := m.RecordRuns(ctx, id, "p2", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State.TotalScore != 2 {
		t.Errorf("total = %d, want 2", res.State.TotalScore)
	}
}

func TestManager_UnknownSession(t *testing.T) {
	m := session.NewManager(&MockSink{})
	ctx := context.Background()

	if _, err := m.RecordRuns(ctx, "nope", "p1", 1); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("RecordRuns: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := m.Display("nope"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Display: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := m.End(ctx, "nope"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("End: expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_EndDiscardsSession(t *testing.T) {
	sink := &MockSink{}
	m := session.NewManager(sink)
	ctx := context.Background()
	id := startSession(t, m)
	other := startSession(t, m)

	if got := m.List(); len(got) != 2 {
		t.Fatalf("List = %v", got)
	}

	res, err := m.End(ctx, id)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if res.Sequence != 2 {
		t.Errorf("end sequence = %d, want 2", res.Sequence)
	}

	if got := m.List(); len(got) != 1 || got[0] != other {
		t.Errorf("List after End = %v", got)
	}
	if _, err := m.AddBatter(ctx, id, "p3", "Batter 3"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after End, got %v", err)
	}

	events := sink.Events()
	last := events[len(events)-1]
	if last.Type != models.EventSessionEnded || last.SessionID != id {
		t.Errorf("unexpected last event %+v", last)
	}
}

func TestManager_ConcurrentButtonPresses(t *testing.T) {
	sink := &MockSink{}
	m := session.NewManager(sink)
	ctx := context.Background()
	id := startSession(t, m)

	const presses = 60
	var wg sync.WaitGroup
	for i := 0; i < presses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.RecordRuns(ctx, id, "p1", 1); err != nil {
				t.Errorf("RecordRuns: %v", err)
			}
		}()
	}
	wg.Wait()

	state, err := m.Display(id)
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalScore != presses {
		t.Errorf("total = %d, want %d", state.TotalScore, presses)
	}
	if state.Overs != "10.0" {
		t.Errorf("overs = %s, want 10.0", state.Overs)
	}

	seen := make(map[int64]bool)
	for _, ev := range sink.Events() {
		if seen[ev.Sequence] {
			t.Errorf("duplicate sequence %d", ev.Sequence)
		}
		seen[ev.Sequence] = true
	}
	if len(seen) != presses+1 {
		t.Errorf("sink saw %d events, want %d", len(seen), presses+1)
	}
}

func TestManager_BowlerChangeAndNewBatter(t *testing.T) {
	m := session.NewManager(&MockSink{})
	ctx := context.Background()
	id := startSession(t, m)

	if _, err := m.RecordWicket(ctx, id, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddBatter(ctx, id, "p3", "Batter 3"); err != nil {
		t.Fatal(err)
	}
	res, err := m.SetBowler(ctx, id, "b2", "Bowler 2")
	if err != nil {
		t.Fatal(err)
	}

	if res.State.Bowler.PlayerID != "b2" {
		t.Errorf("bowler = %s, want b2", res.State.Bowler.PlayerID)
	}
	if len(res.State.Batters) != 2 {
		t.Errorf("not-out batters = %d, want 2", len(res.State.Batters))
	}
	if _, err := m.AddBatter(ctx, id, "p3", "again"); !errors.Is(err, scoring.ErrDuplicatePlayer) {
		t.Errorf("expected ErrDuplicatePlayer, got %v", err)
	}
}

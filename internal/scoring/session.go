// Package scoring holds the score-entry session: the in-memory innings tally
// a scorer edits one button press at a time.
package scoring

import (
	"errors"
	"fmt"

	"github.com/nepcscore/services/live-scoring/pkg/models"
)

// BallsPerOver is the number of deliveries that complete an over
const BallsPerOver = 6

// inningsOverAt is the pre-wicket count from which the advisory switches
// from "select next batter" to "innings over".
const inningsOverAt = 9

var (
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrPlayerOut       = errors.New("player is already out")
	ErrInvalidRuns     = errors.New("runs must be one of 0, 1, 2, 3, 4, 6")
	ErrInvalidDelta    = errors.New("extras delta must be +1 or -1")
	ErrDuplicatePlayer = errors.New("player already in batting order")
	ErrMissingPlayer   = errors.New("player id is required")
)

// Session is the exclusively owned state of one score-entry screen visit.
// It is not safe for concurrent use; callers serialize access.
type Session struct {
	Innings models.InningsTotal
	Batting []models.BattingFigure
	Bowler  models.BowlingFigure
}

// DefaultLineup returns the placeholder players a session starts with
// when the scorer has not picked any.
func DefaultLineup() models.Lineup {
	return models.Lineup{
		Batters: []models.PlayerRef{
			{PlayerID: "p1", Name: "Batter 1"},
			{PlayerID: "p2", Name: "Batter 2"},
		},
		Bowler: models.PlayerRef{PlayerID: "b1", Name: "Bowler 1"},
	}
}

// New creates a session at 0/0 after 0.0 overs. Missing batters or a missing
// bowler are filled from DefaultLineup.
func New(lineup models.Lineup) (*Session, error) {
	lineup = withDefaults(lineup)

	s := &Session{
		Batting: make([]models.BattingFigure, 0, len(lineup.Batters)),
	}
	for _, b := range lineup.Batters {
		if err := s.AddBatter(b.PlayerID, b.Name); err != nil {
			return nil, fmt.Errorf("lineup: %w", err)
		}
	}
	if err := s.SetBowler(lineup.Bowler.PlayerID, lineup.Bowler.Name); err != nil {
		return nil, fmt.Errorf("lineup: %w", err)
	}
	return s, nil
}

// withDefaults fills the empty parts of a lineup with placeholders
func withDefaults(lineup models.Lineup) models.Lineup {
	def := DefaultLineup()
	if len(lineup.Batters) == 0 {
		lineup.Batters = def.Batters
	}
	if lineup.Bowler.PlayerID == "" {
		lineup.Bowler = def.Bowler
	}
	return lineup
}

// RecordRuns credits runs off one delivery to a not-out batter.
//
// The ball count only moves for scoring shots: a dot ball entered with the
// "0" button leaves Balls unchanged. The over/ball counter advances either way.
func (s *Session) RecordRuns(playerID string, runs int) error {
	if !validRuns(runs) {
		return fmt.Errorf("%w: got %d", ErrInvalidRuns, runs)
	}

	b, err := s.batter(playerID)
	if err != nil {
		return err
	}

	b.Runs += runs
	if runs != 0 {
		b.Balls++
	}
	switch runs {
	case 4:
		b.Fours++
	case 6:
		b.Sixes++
	}

	s.Innings.TotalScore = max(0, s.Innings.TotalScore+runs)
	s.advanceDelivery()
	return nil
}

// RecordWicket dismisses a not-out batter and credits the current bowler.
// The returned advisory tells the scorer what to do next; it does not stop
// further input.
func (s *Session) RecordWicket(playerID string) (models.Advisory, error) {
	b, err := s.batter(playerID)
	if err != nil {
		return models.AdvisoryNone, err
	}

	before := s.Innings.Wickets

	b.IsOut = true
	s.Innings.Wickets++
	s.Bowler.Wickets++
	s.advanceDelivery()

	if before < inningsOverAt {
		return models.AdvisoryNextBatter, nil
	}
	return models.AdvisoryInningsOver, nil
}

// AdjustExtras moves the extras count by one, never below zero.
// Extras are not added to the total and do not use up a delivery.
func (s *Session) AdjustExtras(delta int) error {
	if delta != 1 && delta != -1 {
		return fmt.Errorf("%w: got %d", ErrInvalidDelta, delta)
	}
	s.Innings.Extras = max(0, s.Innings.Extras+delta)
	return nil
}

// AddBatter appends a new batter to the order, typically after a wicket.
func (s *Session) AddBatter(playerID, name string) error {
	if playerID == "" {
		return ErrMissingPlayer
	}
	for _, b := range s.Batting {
		if b.PlayerID == playerID {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, playerID)
		}
	}
	s.Batting = append(s.Batting, models.BattingFigure{PlayerID: playerID, Name: name})
	return nil
}

// SetBowler replaces the current bowler with a fresh figure.
// Nothing rotates bowlers automatically at the end of an over.
func (s *Session) SetBowler(playerID, name string) error {
	if playerID == "" {
		return ErrMissingPlayer
	}
	s.Bowler = models.BowlingFigure{PlayerID: playerID, Name: name}
	return nil
}

// DisplayState returns what the scoring screen renders. The batter slice is
// a copy; mutating it does not touch the session.
func (s *Session) DisplayState() models.DisplayState {
	notOut := make([]models.BattingFigure, 0, len(s.Batting))
	for _, b := range s.Batting {
		if !b.IsOut {
			notOut = append(notOut, b)
		}
	}

	return models.DisplayState{
		TotalScore:  s.Innings.TotalScore,
		Wickets:     s.Innings.Wickets,
		CurrentOver: s.Innings.CurrentOver,
		CurrentBall: s.Innings.CurrentBall,
		Batters:     notOut,
		Bowler:      s.Bowler,
		Extras:      s.Innings.Extras,
		Score:       models.ScoreLabel(s.Innings.TotalScore, s.Innings.Wickets),
		Overs:       models.OversLabel(s.Innings.CurrentOver, s.Innings.CurrentBall),
	}
}

// advanceDelivery moves the ball/over counter by one delivery
func (s *Session) advanceDelivery() {
	if s.Innings.CurrentBall == BallsPerOver-1 {
		s.Innings.CurrentOver++
		s.Innings.CurrentBall = 0
		s.Bowler.Overs++
		return
	}
	s.Innings.CurrentBall++
}

// batter finds a not-out batter by ID
func (s *Session) batter(playerID string) (*models.BattingFigure, error) {
	for i := range s.Batting {
		if s.Batting[i].PlayerID != playerID {
			continue
		}
		if s.Batting[i].IsOut {
			return nil, fmt.Errorf("%w: %s", ErrPlayerOut, playerID)
		}
		return &s.Batting[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
}

func validRuns(runs int) bool {
	switch runs {
	case 0, 1, 2, 3, 4, 6:
		return true
	}
	return false
}

package models

import "fmt"

// BattingFigure is one batter's line in the innings
type BattingFigure struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Runs     int    `json:"runs"`
	Balls    int    `json:"balls"`
	Fours    int    `json:"fours"`
	Sixes    int    `json:"sixes"`
	IsOut    bool   `json:"is_out"`
}

// BowlingFigure is the current bowler's line
type BowlingFigure struct {
	PlayerID     string `json:"player_id"`
	Name         string `json:"name"`
	Overs        int    `json:"overs"`
	Maidens      int    `json:"maidens"`
	RunsConceded int    `json:"runs_conceded"`
	Wickets      int    `json:"wickets"`
}

// InningsTotal holds the team tally and the over/ball counter
type InningsTotal struct {
	TotalScore  int `json:"total_score"`
	Wickets     int `json:"wickets"`
	Extras      int `json:"extras"`
	CurrentOver int `json:"current_over"`
	CurrentBall int `json:"current_ball"` // 0..5
}

// PlayerRef names a player when building a lineup
type PlayerRef struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// Lineup is the set of players a session starts with
type Lineup struct {
	Batters []PlayerRef `json:"batters"`
	Bowler  PlayerRef   `json:"bowler"`
}

// DisplayState is the read-only view rendered by the scoring screen
type DisplayState struct {
	TotalScore  int             `json:"total_score"`
	Wickets     int             `json:"wickets"`
	CurrentOver int             `json:"current_over"`
	CurrentBall int             `json:"current_ball"`
	Batters     []BattingFigure `json:"batters"` // not-out only
	Bowler      BowlingFigure   `json:"bowler"`
	Extras      int             `json:"extras"`
	Score       string          `json:"score"` // "11/1"
	Overs       string          `json:"overs"` // "0.3"
}

// ScoreLabel formats a total and wicket count the way the scoreboard shows it
func ScoreLabel(total, wickets int) string {
	return fmt.Sprintf("%d/%d", total, wickets)
}

// OversLabel formats the over/ball counter as "over.ball"
func OversLabel(over, ball int) string {
	return fmt.Sprintf("%d.%d", over, ball)
}

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nepcscore/services/live-scoring/internal/scoring"
	"github.com/nepcscore/services/live-scoring/pkg/models"
	"github.com/spf13/cobra"
)

// tally: apply button presses to a fresh session with the placeholder lineup.
func tallyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tally <press>...",
		Short: "Score button presses offline",
		Long: `Score button presses against a fresh session and print the result.

Presses:
  runs:<player>:<0|1|2|3|4|6>
  wicket:<player>
  extras:<+1|-1>
  batter:<player>[:<name>]
  bowler:<player>[:<name>]`,
		Example: "  scorectl tally runs:p1:4 runs:p1:1 wicket:p2 runs:p1:6 extras:+1",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scoring.New(scoring.DefaultLineup())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				event, err := ParsePress(arg)
				if err != nil {
					return err
				}
				advisory, err := scoring.Apply(s, event)
				if err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				if advisory != models.AdvisoryNone {
					fmt.Fprintf(out, "%s: %s\n", arg, advisory)
				}
			}

			printState(out, s.DisplayState())
			return nil
		},
	}
}

// ParsePress turns a press token like "runs:p1:4" into a scoring event
func ParsePress(token string) (models.ScoringEvent, error) {
	parts := strings.SplitN(token, ":", 3)
	kind := parts[0]

	switch kind {
	case "runs":
		if len(parts) != 3 {
			return models.ScoringEvent{}, fmt.Errorf("%q: want runs:<player>:<runs>", token)
		}
		runs, err := strconv.Atoi(parts[2])
		if err != nil {
			return models.ScoringEvent{}, fmt.Errorf("%q: runs must be a number", token)
		}
		return models.ScoringEvent{Type: models.EventRuns, PlayerID: parts[1], Runs: runs}, nil

	case "wicket":
		if len(parts) != 2 {
			return models.ScoringEvent{}, fmt.Errorf("%q: want wicket:<player>", token)
		}
		return models.ScoringEvent{Type: models.EventWicket, PlayerID: parts[1]}, nil

	case "extras":
		if len(parts) != 2 {
			return models.ScoringEvent{}, fmt.Errorf("%q: want extras:<+1|-1>", token)
		}
		delta, err := strconv.Atoi(parts[1])
		if err != nil {
			return models.ScoringEvent{}, fmt.Errorf("%q: delta must be +1 or -1", token)
		}
		return models.ScoringEvent{Type: models.EventExtras, Delta: delta}, nil

	case "batter", "bowler":
		if len(parts) < 2 {
			return models.ScoringEvent{}, fmt.Errorf("%q: want %s:<player>[:<name>]", token, kind)
		}
		event := models.ScoringEvent{Type: models.EventBatterAdded, PlayerID: parts[1]}
		if kind == "bowler" {
			event.Type = models.EventBowlerChanged
		}
		if len(parts) == 3 {
			event.Name = parts[2]
		}
		return event, nil
	}

	return models.ScoringEvent{}, fmt.Errorf("%q: unknown press %q", token, kind)
}

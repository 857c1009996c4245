package commands

import (
	"context"
	"fmt"

	"github.com/nepcscore/services/live-scoring/internal/scoring"
	"github.com/spf13/cobra"
)

// replay: rebuild a session from the ledger and check it against the last
// state the service recorded.
func replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <session-id>",
		Short: "Rebuild a session from the event ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			l, closeDB, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			events, err := l.ListEvents(ctx, args[0])
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return fmt.Errorf("no events recorded for session %s", args[0])
			}

			s, err := scoring.Replay(events)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Replayed %d events for session %s\n", len(events), args[0])

			state := s.DisplayState()
			if last := events[len(events)-1].State; last.Score != state.Score || last.Overs != state.Overs {
				fmt.Fprintf(out, "⚠️  recorded state %s at %s differs from replay\n", last.Score, last.Overs)
			}

			printState(out, state)
			return nil
		},
	}
}

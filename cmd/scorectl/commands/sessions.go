package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/nepcscore/services/live-scoring/internal/cache"
	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	var (
		limit int
		live  bool
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent sessions in the event ledger",
		Long: `List recent sessions in the event ledger.

With --live, list the sessions the Redis cache currently marks as active
instead; no ledger is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			if live {
				return listLive(ctx, cmd)
			}

			l, closeDB, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			summaries, err := l.ListSessions(ctx, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tMATCH\tSPORT\tEVENTS\tSCORE\tOVERS\tSTATUS")
			for _, s := range summaries {
				status := "live"
				if s.Ended {
					status = "ended"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					s.SessionID, s.MatchID, s.Sport, s.Events, s.LastScore, s.LastOvers, status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions to list")
	cmd.Flags().BoolVar(&live, "live", false, "list active sessions from the Redis cache")
	return cmd
}

func listLive(ctx context.Context, cmd *cobra.Command) error {
	client, err := openRedis(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	w := cache.NewRedisWriter(client)
	ids, err := w.ReadActiveSessions(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSCORE\tOVERS")
	for _, id := range ids {
		state, err := w.ReadSnapshot(ctx, id)
		if err != nil {
			// snapshot expired between the two reads
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", id, state.Score, state.Overs)
	}
	return tw.Flush()
}

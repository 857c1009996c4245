package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nepcscore/services/live-scoring/internal/config"
	"github.com/nepcscore/services/live-scoring/internal/ledger"
	"github.com/nepcscore/services/live-scoring/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const commandTimeout = 10 * time.Second

var (
	redisURL  string
	ledgerDSN string
)

func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the scorectl command tree
func NewRootCmd() *cobra.Command {
	cfg := config.LoadConfig()

	root := &cobra.Command{
		Use:          "scorectl",
		Short:        "Inspect and replay nepCscore scoring sessions",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&redisURL, "redis", cfg.Redis.URL, "Redis URL holding cached session state")
	root.PersistentFlags().StringVar(&ledgerDSN, "ledger", cfg.Postgres.DSN, "Postgres DSN of the event ledger")

	root.AddCommand(tallyCmd(), showCmd(), replayCmd(), sessionsCmd())
	return root
}

func openRedis(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

func openLedger(ctx context.Context) (*ledger.Ledger, func() error, error) {
	if ledgerDSN == "" {
		return nil, nil, fmt.Errorf("no ledger configured. use --ledger or LEDGER_DSN")
	}
	db, err := ledger.Open(ctx, ledgerDSN)
	if err != nil {
		return nil, nil, err
	}
	return ledger.New(db), db.Close, nil
}

// printState renders a display state the way the scoring screen lays it out
func printState(out io.Writer, state models.DisplayState) {
	fmt.Fprintf(out, "Score %s  Overs %s  Extras %d\n\n", state.Score, state.Overs, state.Extras)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BATTER\tR\tB\t4s\t6s")
	for _, b := range state.Batters {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", b.Name, b.Runs, b.Balls, b.Fours, b.Sixes)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "BOWLER\tO\tM\tR\tW")
	fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n",
		state.Bowler.Name, state.Bowler.Overs, state.Bowler.Maidens, state.Bowler.RunsConceded, state.Bowler.Wickets)
	tw.Flush()
}

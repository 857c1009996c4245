package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/nepcscore/services/live-scoring/internal/cache"
	"github.com/spf13/cobra"
)

// show: read a live session's snapshot from the Redis cache.
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the cached state of a live session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			client, err := openRedis(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			state, err := cache.NewRedisWriter(client).ReadSnapshot(ctx, args[0])
			if errors.Is(err, cache.ErrSnapshotNotFound) {
				return fmt.Errorf("no cached state for session %s", args[0])
			}
			if err != nil {
				return err
			}

			printState(cmd.OutOrStdout(), *state)
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/stash/pkg/session"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock <entity> <id>",
	Short: "Take the pessimistic lock of an entity",
	Long: `Acquires the lock of <entity>[<id>], holds it for --hold and releases it.
The entity must be listed under "entities" in the configuration.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hold, _ := cmd.Flags().GetDuration("hold")
		return withSession(cmd, func(ctx context.Context, s *session.Session) error {
			handle, err := s.LockKey(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "locked %s\n", handle)

			if hold > 0 {
				select {
				case <-time.After(hold):
				case <-ctx.Done():
				}
			}
			if err := s.Unlock(ctx, handle); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "released %s\n", handle)
			return nil
		})
	},
}

func init() {
	lockCmd.Flags().Duration("hold", 0, "How long to keep the lock before releasing it")
	rootCmd.AddCommand(lockCmd)
}

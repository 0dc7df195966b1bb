package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/stash/pkg/session"
	"github.com/spf13/cobra"
)

var kvCmd = &cobra.Command{
	Use:   "kv",
	Short: "Work with raw keys through a session's key/value view",
}

// kvRun adapts a key/value operation to a cobra RunE.
func kvRun(fn func(ctx context.Context, cmd *cobra.Command, kv *session.KeyValue, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session.Session) error {
			kv, err := s.KeyValue()
			if err != nil {
				return err
			}
			return fn(ctx, cmd, kv, args)
		})
	}
}

var kvGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored at key",
	Args:  cobra.ExactArgs(1),
	RunE: kvRun(func(ctx context.Context, cmd *cobra.Command, kv *session.KeyValue, args []string) error {
		value, ok := kv.Get(ctx, args[0])
		if !ok {
			return fmt.Errorf("key %q not found", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	}),
}

var kvPutCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "Store value at key and print the previous value, if any",
	Args:  cobra.ExactArgs(2),
	RunE: kvRun(func(ctx context.Context, cmd *cobra.Command, kv *session.KeyValue, args []string) error {
		if previous, ok := kv.Put(ctx, args[0], args[1]); ok {
			fmt.Fprintln(cmd.OutOrStdout(), previous)
		}
		return nil
	}),
}

var kvRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove keys",
	Args:  cobra.MinimumNArgs(1),
	RunE: kvRun(func(ctx context.Context, cmd *cobra.Command, kv *session.KeyValue, args []string) error {
		removed := 0
		for _, key := range args {
			if kv.Remove(ctx, key) {
				removed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d removed\n", removed)
		return nil
	}),
}

var kvKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every key in the database",
	Args:  cobra.NoArgs,
	RunE: kvRun(func(ctx context.Context, cmd *cobra.Command, kv *session.KeyValue, _ []string) error {
		keys := kv.Keys(ctx)
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	}),
}

var kvSizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Print the number of keys in the database",
	Args:  cobra.NoArgs,
	RunE: kvRun(func(ctx context.Context, cmd *cobra.Command, kv *session.KeyValue, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), kv.Size(ctx))
		return nil
	}),
}

var kvClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every key in the database",
	Args:  cobra.NoArgs,
	RunE: kvRun(func(ctx context.Context, cmd *cobra.Command, kv *session.KeyValue, _ []string) error {
		if force, _ := cmd.Flags().GetBool("yes"); !force {
			return fmt.Errorf("refusing to clear the database without --yes")
		}
		kv.Clear(ctx)
		return nil
	}),
}

func init() {
	kvClearCmd.Flags().Bool("yes", false, "Confirm clearing the database")
	kvCmd.AddCommand(kvGetCmd, kvPutCmd, kvRmCmd, kvKeysCmd, kvSizeCmd, kvClearCmd)
	rootCmd.AddCommand(kvCmd)
}

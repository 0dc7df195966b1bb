package main

import (
	"fmt"

	"github.com/aretw0/stash"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stash",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stash version %s\n", stash.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

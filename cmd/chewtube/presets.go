package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/chewtube/pkg/source"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List bundled videos that allow embedded playback",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, p := range source.Presets() {
			fmt.Fprintf(out, "%-18s %s\n", p.Name, source.WatchURL(p.ID))
		}
		fmt.Fprintf(out, "%-18s %s\n", "Local (safe mode)", source.LocalVideoURL)
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

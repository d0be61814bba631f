package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/chewtube/pkg/source"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Extract the video id and embed URL from a YouTube link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		lookupFlag, _ := cmd.Flags().GetBool("lookup")
		if !lookupFlag {
			r, err := source.Resolve(args[0])
			if err != nil {
				return err
			}
			return enc.Encode(r)
		}

		l, err := source.NewLookup(cmd.Context(), source.LookupConfig{APIKey: cfg.YouTube.APIKey})
		if err != nil {
			return fmt.Errorf("lookup: %w", err)
		}
		v, err := l.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return enc.Encode(v)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().Bool("lookup", false, "Fetch title and embeddability from the YouTube Data API")
}

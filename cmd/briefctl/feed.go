package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed <url>",
		Short: "Queue a summarization job for each item of an RSS or Atom feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			mode, _ := cmd.Flags().GetString("mode")
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 || limit > 50 {
				return fmt.Errorf("--limit must be between 1 and 50")
			}

			res, err := c.IngestFeed(cmd.Context(), args[0], mode, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d queued, %d skipped\n", res.Feed, len(res.Submitted), len(res.Skipped))
			for _, s := range res.Submitted {
				fmt.Fprintf(out, "  %s  %s\n", s.ID, s.Title)
			}
			for _, s := range res.Skipped {
				fmt.Fprintf(out, "  skipped  %s (%s)\n", s.Title, s.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringP("mode", "m", "", "summary mode for every item")
	cmd.Flags().IntP("limit", "n", 0, "maximum items to ingest (kernel default when 0)")
	return cmd
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cs, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cs.Close()

			stats, err := cs.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "sessions: %d\nmessages: %d\n",
				stats.TotalSessions, stats.TotalMessages); err != nil {
				return err
			}
			for _, pc := range stats.ByProvider {
				if _, err := fmt.Fprintf(out, "  %s: %d sessions\n", pc.ProviderID, pc.Count); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

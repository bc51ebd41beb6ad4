// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List captured sessions",
		RunE:  runSessions,
	}
	cmd.Flags().String("provider", "", "filter by provider id")
	return cmd
}

func runSessions(cmd *cobra.Command, _ []string) error {
	_, cs, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer cs.Close()

	providerID, _ := cmd.Flags().GetString("provider")
	sessions, err := cs.ListSessions(cmd.Context(), providerID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		_, err = fmt.Fprintln(out, "no sessions")
		return err
	}
	for _, s := range sessions {
		if _, err := fmt.Fprintf(out, "%s\t%s\t%s\t%d messages\t%s\n",
			s.ID, s.ProviderID, s.Title, s.MessageCount,
			s.UpdatedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

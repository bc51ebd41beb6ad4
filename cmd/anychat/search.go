// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search captured message content",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, cs, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer cs.Close()

	query := strings.Join(args, " ")
	msgs, err := cs.SearchMessages(cmd.Context(), query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(msgs) == 0 {
		_, err = fmt.Fprintln(out, "no matches")
		return err
	}
	for _, m := range msgs {
		content := truncate(m.Content, 120)
		if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", m.SessionID, m.Role, content); err != nil {
			return err
		}
	}
	return nil
}

// truncate shortens s to at most max runes, cutting on a rune boundary so
// multibyte characters are never split.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

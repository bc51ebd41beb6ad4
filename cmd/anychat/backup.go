// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anychat-dev/anychat/internal/backup"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage store backups",
	}
	cmd.AddCommand(newBackupNowCmd(), newBackupListCmd())
	return cmd
}

func newBackupNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Write a backup snapshot immediately",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cs, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cs.Close()

			m := backup.NewManager(cs, cfg.Backup.Dir, nil,
				backup.WithRetention(cfg.Backup.Retention))
			path, err := m.Export(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backup snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cs, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cs.Close()

			m := backup.NewManager(cs, cfg.Backup.Dir, nil)
			snaps, err := m.ListSnapshots()
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no backups")
				return err
			}
			for _, snap := range snaps {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\n", snap.Name, snap.Size); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

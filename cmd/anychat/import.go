// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anychat-dev/anychat/internal/importer"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <chatgpt|json> <file>",
		Short: "Import a chat archive",
		Long:  "Import a ChatGPT data export (conversations.json) or a generic flat JSON archive into the local store.",
		Args:  cobra.ExactArgs(2),
		RunE:  runImport,
	}
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	format, file := args[0], args[1]

	data, err := os.ReadFile(file)
	if err != nil {
		return anyerr.Errorf(anyerr.CodeImportReadFailure, "reading %s: %w", file, err)
	}

	_, cs, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer cs.Close()

	im := importer.New(cs, nil)

	var res *importer.Result
	switch format {
	case "chatgpt":
		res, err = im.ImportChatGPT(cmd.Context(), data)
	case "json":
		res, err = im.ImportFlat(cmd.Context(), data)
	default:
		return anyerr.Errorf(anyerr.CodeCLIInputInvalid, "unknown import format %q (want chatgpt or json)", format)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "imported %d sessions, %d messages\n",
		res.SessionsImported, res.MessagesImported); err != nil {
		return err
	}
	for _, msg := range res.Errors {
		if _, err := fmt.Fprintf(out, "error: %s\n", msg); err != nil {
			return err
		}
	}
	return nil
}

// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Lantern is a terminal client for streaming document Q&A: it opens a
// framed answer stream, renders tokens as they arrive, and keeps a
// resumable local record of the conversation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanternai/lantern/cmd/lantern/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		return nil
	}
}

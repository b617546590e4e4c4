// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanternai/lantern/cmd/lantern/config"
	"github.com/lanternai/lantern/pkg/chat"
	"github.com/lanternai/lantern/pkg/history"
	"github.com/lanternai/lantern/pkg/logging"
	"github.com/lanternai/lantern/pkg/transport"
)

// --- Global Command Variables ---
var (
	documentID string
	sessionID  string
	baseURL    string
	userID     string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "lantern",
		Short: "A cli for streaming document Q&A sessions",
		Long: `Lantern connects to a streaming answer service and renders
responses token by token, with page-level source citations and
resumable conversation history.`,
	}

	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session against a document",
		RunE:  runChatCommand,
	}

	historyCmd = &cobra.Command{
		Use:   "history [session_id]",
		Short: "Print the stored messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryCommand,
	}
)

func init() {
	chatCmd.Flags().StringVarP(&documentID, "document", "d", "", "document id to converse about (required)")
	chatCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id to resume")
	chatCmd.Flags().StringVar(&baseURL, "base-url", "", "answer service base URL (overrides config)")
	chatCmd.Flags().StringVar(&userID, "user", "", "user id for persisted messages (overrides config)")
	chatCmd.MarkFlagRequired("document")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
}

// newLogger builds the CLI logger from config plus the verbose flag.
func newLogger() *logging.Logger {
	level := logging.ParseLevel(config.Global.Logging.Level)
	if verbose {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{
		Level:   level,
		LogDir:  config.Global.Logging.Dir,
		Service: "cli",
		JSON:    config.Global.Logging.JSON,
	})
}

// runChatCommand wires config, transport, store, coordinator, and UI
// into the interactive loop.
func runChatCommand(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Close()
	slogger := logger.Slog()

	resolvedBase := config.Global.Server.BaseURL
	if baseURL != "" {
		resolvedBase = baseURL
	}
	resolvedUser := config.Global.UserID
	if userID != "" {
		resolvedUser = userID
	}

	var timeout time.Duration
	if config.Global.Server.TimeoutSeconds > 0 {
		timeout = time.Duration(config.Global.Server.TimeoutSeconds) * time.Second
	}
	client := transport.New(transport.Config{
		BaseURL: resolvedBase,
		Timeout: timeout,
		Logger:  slogger,
	})

	store, storeWarning := openStore(slogger)
	if store != nil {
		defer store.Close()
	}

	var coordStore chat.HistoryStore = store
	if store == nil {
		coordStore = nopStore{}
	}

	ui := NewChatUI(os.Stdout)
	coordinator, err := chat.New(chat.Config{
		Opener:     client,
		Store:      coordStore,
		DocumentID: documentID,
		UserID:     resolvedUser,
		SessionID:  sessionID,
		Observer:   ui.Observe,
		Logger:     slogger,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	resumed := 0
	if sessionID != "" {
		resumed, err = coordinator.ActivateSession(ctx, sessionID)
		if err != nil {
			ui.Warning("could not load session history, starting fresh")
		}
	}

	ui.Banner(documentID, sessionID, resumed)
	if storeWarning != "" {
		ui.Warning(storeWarning)
	}
	if resumed > 0 {
		ui.PrintHistory(coordinator.History())
	}

	runner := NewChatRunner(coordinator, NewInputReader(os.Stdin), ui, slogger)
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	fmt.Println()
	return nil
}

// runHistoryCommand dumps a stored session without contacting the
// server.
func runHistoryCommand(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Close()

	store, warning := openStore(logger.Slog())
	if store == nil {
		return fmt.Errorf("history unavailable: %s", warning)
	}
	defer store.Close()

	messages, err := store.GetHistory(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("read session %s: %w", args[0], err)
	}
	if len(messages) == 0 {
		fmt.Printf("no messages stored for session %s\n", args[0])
		return nil
	}

	NewChatUI(os.Stdout).PrintHistory(messages)
	return nil
}

// openStore opens the configured SQLite store. Persistence problems
// degrade to a display-only session rather than refusing to chat.
func openStore(logger *slog.Logger) (*history.Store, string) {
	if config.Global.History.Disabled {
		return nil, "history persistence disabled in config"
	}
	path := logging.ExpandPath(config.Global.History.Path)
	store, err := history.Open(path, logger)
	if err != nil {
		logger.Warn("history store unavailable, continuing without persistence", "error", err)
		return nil, "history store unavailable, this session will not be saved"
	}
	return store, ""
}

// nopStore satisfies the coordinator when persistence is off.
type nopStore struct{}

func (nopStore) SaveMessage(context.Context, string, chat.Message, string) error { return nil }
func (nopStore) GetHistory(context.Context, string) ([]chat.Message, error)      { return nil, nil }

var _ chat.HistoryStore = nopStore{}

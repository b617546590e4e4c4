// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"context"
	"log/slog"
)

// =============================================================================
// History Store Interface
// =============================================================================

// HistoryStore is the conversation record as this engine consumes it:
// exactly two operations. The storage engine behind it is swappable
// (pkg/history ships a SQLite implementation).
type HistoryStore interface {
	// SaveMessage persists one Message under the given session. It is
	// called exactly once per persisted Message: the user turn
	// immediately on submit, the assistant turn only at done, the
	// error turn on transport failure.
	SaveMessage(ctx context.Context, userID string, msg Message, sessionID string) error

	// GetHistory returns every Message of the session, oldest first.
	GetHistory(ctx context.Context, sessionID string) ([]Message, error)
}

// =============================================================================
// History Loader
// =============================================================================

// HistoryLoader hydrates prior turns when a session becomes active.
//
// Load runs to completion (or failure) before new turns begin, and its
// failure must not prevent new turns from starting: it degrades to an
// empty history and a surfaced warning.
type HistoryLoader struct {
	store  HistoryStore
	logger *slog.Logger
}

// NewHistoryLoader creates a loader over the given store. A nil logger
// falls back to slog.Default.
func NewHistoryLoader(store HistoryStore, logger *slog.Logger) *HistoryLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryLoader{store: store, logger: logger}
}

// Load fetches the session's prior turns, oldest first. On failure it
// returns an empty history along with the error so the caller can
// surface a warning and continue.
func (l *HistoryLoader) Load(ctx context.Context, sessionID string) ([]Message, error) {
	if sessionID == "" {
		return nil, nil
	}

	messages, err := l.store.GetHistory(ctx, sessionID)
	if err != nil {
		l.logger.Warn("failed to load session history, starting empty",
			"session_id", sessionID,
			"error", err,
		)
		return nil, err
	}

	l.logger.Debug("session history loaded",
		"session_id", sessionID,
		"messages", len(messages),
	)
	return messages, nil
}

// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package history persists conversation turns in a local SQLite
// database, one row per Message. The engine only ever needs two
// operations (append a message, read a session oldest-first), so the
// schema is a single table with a session index.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lanternai/lantern/pkg/chat"
	"github.com/lanternai/lantern/pkg/stream"
)

// =============================================================================
// Schema
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	user_id     TEXT NOT NULL DEFAULT '',
	role        TEXT NOT NULL,
	content     TEXT NOT NULL,
	document_id TEXT NOT NULL DEFAULT '',
	sources     TEXT NOT NULL DEFAULT '',
	is_error    INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);
`

// =============================================================================
// Store
// =============================================================================

// Store is a chat.HistoryStore backed by a local SQLite file. Safe
// for concurrent use; database/sql serializes access to the single
// connection the pure-Go driver hands out.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the database at path, creating parent
// directories and the schema as needed. A nil logger falls back to
// slog.Default.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	logger.Debug("history store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMessage appends one Message to the session's record.
func (s *Store) SaveMessage(ctx context.Context, userID string, msg chat.Message, sessionID string) error {
	sources, err := encodeSources(msg.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, user_id, role, content, document_id, sources, is_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, sessionID, userID, string(msg.Role), msg.Content,
		msg.DocumentID, sources, boolToInt(msg.IsError), msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetHistory returns every Message of the session, oldest first.
// Rowid breaks ties for messages persisted in the same millisecond.
func (s *Store) GetHistory(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, document_id, sources, is_error, created_at
		 FROM messages
		 WHERE session_id = ?
		 ORDER BY created_at ASC, rowid ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var (
			msg     chat.Message
			role    string
			sources string
			isError int
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &msg.DocumentID, &sources, &isError, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.Role = chat.Role(role)
		msg.IsError = isError != 0
		if msg.Sources, err = decodeSources(sources); err != nil {
			// A corrupt sources blob loses citations, not the turn.
			s.logger.Warn("dropping unreadable sources for message",
				"message_id", msg.ID,
				"error", err,
			)
			msg.Sources = nil
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session history: %w", err)
	}
	return messages, nil
}

// =============================================================================
// Helpers
// =============================================================================

func encodeSources(sources []stream.Source) (string, error) {
	if len(sources) == 0 {
		return "", nil
	}
	data, err := json.Marshal(sources)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeSources(encoded string) ([]stream.Source, error) {
	if encoded == "" {
		return nil, nil
	}
	var sources []stream.Source
	if err := json.Unmarshal([]byte(encoded), &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ chat.HistoryStore = (*Store)(nil)

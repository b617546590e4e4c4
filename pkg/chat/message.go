// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package chat turns the decoded answer stream into finished,
// persisted conversational turns.
//
// It owns the pieces between the wire and the history store: the
// reducer that folds events into transient turn state, the session id
// lifecycle, the history loader, and the turn coordinator's state
// machine. Rendering is delegated to observers; decoding lives in
// pkg/stream; bytes come from pkg/transport.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/lanternai/lantern/pkg/stream"
)

// =============================================================================
// Roles
// =============================================================================

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// =============================================================================
// Message
// =============================================================================

// Message is one persisted conversational turn. A Message is created
// once, by user submit or by finalization, and never mutated after it
// is persisted.
//
// Persistence ordering invariant: a user Message is saved before the
// network call begins; an assistant Message is saved only after a
// terminal event, never partially.
type Message struct {
	ID         string          `json:"id"`
	Role       Role            `json:"role"`
	Content    string          `json:"content"`
	Timestamp  int64           `json:"timestamp"` // Unix ms
	DocumentID string          `json:"documentId"`
	Sources    []stream.Source `json:"sources,omitempty"` // assistant-only
	IsError    bool            `json:"isError,omitempty"`
}

// NewUserMessage builds the persisted record of a user submission.
func NewUserMessage(documentID, content string) Message {
	return Message{
		ID:         uuid.New().String(),
		Role:       RoleUser,
		Content:    content,
		Timestamp:  time.Now().UnixMilli(),
		DocumentID: documentID,
	}
}

// =============================================================================
// Streaming Turn
// =============================================================================

// StreamingTurn is the transient, in-progress representation of an
// assistant turn. It exists only between the first decoded event and
// the terminal event or cancellation, and is either promoted to a
// Message or discarded. It is never partially saved.
//
// Content is append-only; Sources is replaced wholesale by each
// sources event.
type StreamingTurn struct {
	ID          string          `json:"id"`
	Content     string          `json:"content"`
	Sources     []stream.Source `json:"sources,omitempty"`
	IsStreaming bool            `json:"isStreaming"`
}

// newStreamingTurn creates the transient turn at stream start.
func newStreamingTurn() *StreamingTurn {
	return &StreamingTurn{
		ID:          uuid.New().String(),
		IsStreaming: true,
	}
}

// snapshot returns a copy safe to hand to observers while the turn
// keeps mutating.
func (t *StreamingTurn) snapshot() StreamingTurn {
	copied := *t
	if t.Sources != nil {
		copied.Sources = make([]stream.Source, len(t.Sources))
		copy(copied.Sources, t.Sources)
	}
	return copied
}

// finalize promotes the turn into an immutable assistant Message
// scoped to the given document.
func (t *StreamingTurn) finalize(documentID string) Message {
	return Message{
		ID:         t.ID,
		Role:       RoleAssistant,
		Content:    t.Content,
		Timestamp:  time.Now().UnixMilli(),
		DocumentID: documentID,
		Sources:    t.Sources,
	}
}

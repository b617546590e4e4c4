// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stream decodes the answer stream produced by the Lantern backend.
//
// The wire format is a byte stream of newline-delimited frames, each of
// the form "data: <json>\n". The JSON payload is a tagged union with a
// "type" discriminator:
//
//	{"type":"content","content":"<delta text>"}
//	{"type":"sources","sources":[{"pageNumber":2,"content":"...","confidence":0.91}]}
//	{"type":"done"}
//
// This package only decodes. Accumulation, persistence, and turn state
// live in pkg/chat.
package stream

// EventType discriminates the frame payload variants.
type EventType string

const (
	// EventContent carries one delta of answer text.
	EventContent EventType = "content"

	// EventSources carries the full source list for the turn.
	// A later sources frame replaces an earlier one; frames never merge.
	EventSources EventType = "sources"

	// EventDone marks the terminal frame of a turn. No frames for the
	// same turn may be processed after it.
	EventDone EventType = "done"
)

// IsTerminal reports whether the event type ends the stream.
func (t EventType) IsTerminal() bool {
	return t == EventDone
}

// Known reports whether the type is one of the closed union variants.
// Unknown types are preserved through parsing so callers can log and
// ignore them (forward compatibility).
func (t EventType) Known() bool {
	switch t {
	case EventContent, EventSources, EventDone:
		return true
	default:
		return false
	}
}

// Source is one retrieved passage cited by the answer.
type Source struct {
	PageNumber int     `json:"pageNumber"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// Event is one decoded frame from the answer stream.
//
// Id and CreatedAt are assigned at parse time for audit trails; Index is
// assigned by the Reader in arrival order.
type Event struct {
	Id        string    `json:"id,omitempty"`
	CreatedAt int64     `json:"created_at,omitempty"`
	Index     int       `json:"index"`
	Type      EventType `json:"type"`
	Content   string    `json:"content,omitempty"`
	Sources   []Source  `json:"sources,omitempty"`
}

// IsTerminal reports whether this event ends the stream.
func (e Event) IsTerminal() bool {
	return e.Type.IsTerminal()
}

// Callback is invoked by a Reader for each decoded event, in arrival
// order. Returning a non-nil error stops the read loop.
type Callback func(Event) error

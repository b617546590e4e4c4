// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Frame Parser Interface
// =============================================================================

// Parser parses one decoded line into an Event.
//
// Line handling:
//   - Empty lines: nil, nil (frame delimiter)
//   - Comment lines (":"): nil, nil (ignored)
//   - Data lines ("data: " or "data:"): JSON payload parsed
//   - Any other line: nil, nil (ignored; only data lines are candidates)
//
// A JSON parse failure is returned as an error for the caller to log
// and skip. One bad line must never abort the decode loop, so Parser
// implementations report the failure rather than remembering it.
//
// Implementations are stateless and safe for concurrent use.
type Parser interface {
	// ParseLine parses a single line, without its trailing newline.
	ParseLine(line string) (*Event, error)

	// ParseRawJSON parses a payload that already has the frame prefix
	// stripped. Assigns a fresh Id and CreatedAt.
	ParseRawJSON(data []byte) (*Event, error)
}

// framePrefix marks candidate event lines on the wire.
const framePrefix = "data: "

// =============================================================================
// Frame Parser Implementation
// =============================================================================

type frameParser struct{}

// NewParser creates a stateless frame parser.
//
// Example:
//
//	parser := NewParser()
//	event, _ := parser.ParseLine(`data: {"type":"content","content":"Hi"}`)
func NewParser() Parser {
	return &frameParser{}
}

// ParseLine parses a single frame line.
func (p *frameParser) ParseLine(line string) (*Event, error) {
	line = strings.TrimSpace(line)

	// Empty lines are frame delimiters.
	if line == "" {
		return nil, nil
	}

	// Comments start with ":".
	if strings.HasPrefix(line, ":") {
		return nil, nil
	}

	if strings.HasPrefix(line, framePrefix) {
		return p.ParseRawJSON([]byte(strings.TrimPrefix(line, framePrefix)))
	}

	// Some servers omit the space after the colon.
	if strings.HasPrefix(line, "data:") {
		return p.ParseRawJSON([]byte(strings.TrimPrefix(line, "data:")))
	}

	// Not a data line. Ignored, never an error.
	return nil, nil
}

// ParseRawJSON parses a JSON payload into an Event.
//
// Unknown "type" values survive parsing unchanged so the reducer can
// log and ignore them; missing fields decode to zero values.
func (p *frameParser) ParseRawJSON(data []byte) (*Event, error) {
	var raw struct {
		Type    string   `json:"type"`
		Content string   `json:"content"`
		Sources []Source `json:"sources"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	return &Event{
		Id:        uuid.New().String(),
		CreatedAt: time.Now().UnixMilli(),
		Type:      EventType(raw.Type),
		Content:   raw.Content,
		Sources:   raw.Sources,
	}, nil
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ Parser = (*frameParser)(nil)

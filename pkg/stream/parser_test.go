// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"testing"
)

// =============================================================================
// Frame Parser Tests
// =============================================================================

func TestNewParser(t *testing.T) {
	if NewParser() == nil {
		t.Fatal("NewParser() returned nil")
	}
}

// -----------------------------------------------------------------------------
// ParseLine Tests - Data Lines
// -----------------------------------------------------------------------------

func TestParser_ParseLine_ContentEvent(t *testing.T) {
	parser := NewParser()

	event, err := parser.ParseLine(`data: {"type":"content","content":"Hello"}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil {
		t.Fatal("expected event, got nil")
	}
	if event.Id == "" {
		t.Error("expected Id to be set")
	}
	if event.CreatedAt == 0 {
		t.Error("expected CreatedAt to be set")
	}
	if event.Type != EventContent {
		t.Errorf("expected Type %v, got %v", EventContent, event.Type)
	}
	if event.Content != "Hello" {
		t.Errorf("expected Content 'Hello', got %q", event.Content)
	}
	if event.IsTerminal() {
		t.Error("content event must not be terminal")
	}
}

func TestParser_ParseLine_SourcesEvent(t *testing.T) {
	parser := NewParser()

	event, err := parser.ParseLine(`data: {"type":"sources","sources":[{"pageNumber":2,"content":"passage","confidence":0.91}]}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != EventSources {
		t.Errorf("expected Type %v, got %v", EventSources, event.Type)
	}
	if len(event.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(event.Sources))
	}
	src := event.Sources[0]
	if src.PageNumber != 2 {
		t.Errorf("expected PageNumber 2, got %d", src.PageNumber)
	}
	if src.Content != "passage" {
		t.Errorf("expected Content 'passage', got %q", src.Content)
	}
	if src.Confidence != 0.91 {
		t.Errorf("expected Confidence 0.91, got %v", src.Confidence)
	}
}

func TestParser_ParseLine_DoneEvent(t *testing.T) {
	parser := NewParser()

	event, err := parser.ParseLine(`data: {"type":"done"}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != EventDone {
		t.Errorf("expected Type %v, got %v", EventDone, event.Type)
	}
	if !event.IsTerminal() {
		t.Error("done event must be terminal")
	}
}

func TestParser_ParseLine_DataPrefixWithoutSpace(t *testing.T) {
	parser := NewParser()

	event, err := parser.ParseLine(`data:{"type":"done"}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil || event.Type != EventDone {
		t.Errorf("expected done event, got %+v", event)
	}
}

// -----------------------------------------------------------------------------
// ParseLine Tests - Ignored Lines
// -----------------------------------------------------------------------------

func TestParser_ParseLine_IgnoredLines(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"comment", ": keepalive"},
		{"event field", "event: message"},
		{"plain text", "not a frame"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := parser.ParseLine(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event != nil {
				t.Errorf("expected nil event for %q, got %+v", tt.line, event)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ParseLine Tests - Malformed and Unknown Payloads
// -----------------------------------------------------------------------------

func TestParser_ParseLine_MalformedJSON(t *testing.T) {
	parser := NewParser()

	event, err := parser.ParseLine(`data: {"type":"content","content":`)

	if err == nil {
		t.Fatal("expected parse error for truncated JSON")
	}
	if event != nil {
		t.Errorf("expected nil event on parse error, got %+v", event)
	}
}

func TestParser_ParseLine_UnknownTypePreserved(t *testing.T) {
	parser := NewParser()

	event, err := parser.ParseLine(`data: {"type":"heartbeat"}`)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil {
		t.Fatal("expected event, got nil")
	}
	if event.Type != EventType("heartbeat") {
		t.Errorf("expected raw type preserved, got %v", event.Type)
	}
	if event.Type.Known() {
		t.Error("heartbeat must not be a known type")
	}
	if event.IsTerminal() {
		t.Error("unknown type must not be terminal")
	}
}

func TestEventType_Known(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      bool
	}{
		{EventContent, true},
		{EventSources, true},
		{EventDone, true},
		{EventType("status"), false},
		{EventType(""), false},
	}

	for _, tt := range tests {
		if got := tt.eventType.Known(); got != tt.want {
			t.Errorf("EventType(%q).Known() = %v, want %v", tt.eventType, got, tt.want)
		}
	}
}

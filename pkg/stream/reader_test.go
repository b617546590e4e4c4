// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// =============================================================================
// Test Helpers
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// byteDribbler yields its payload n bytes at a time to exercise chunk
// boundary handling.
type byteDribbler struct {
	data []byte
	n    int
}

func (r *byteDribbler) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.n
	if n > len(r.data) {
		n = len(r.data)
	}
	copied := copy(p, r.data[:n])
	r.data = r.data[copied:]
	return copied, nil
}

func collectEvents(t *testing.T, r io.Reader) []Event {
	t.Helper()
	var events []Event
	reader := NewReader(NewParser(), discardLogger())
	err := reader.Read(context.Background(), r, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return events
}

// =============================================================================
// Frame Reader Tests
// =============================================================================

func TestReader_OrderedDelivery(t *testing.T) {
	body := "data: {\"type\":\"content\",\"content\":\"The \"}\n" +
		"data: {\"type\":\"content\",\"content\":\"paper argues X.\"}\n" +
		"data: {\"type\":\"sources\",\"sources\":[{\"pageNumber\":2,\"content\":\"p\",\"confidence\":0.91}]}\n" +
		"data: {\"type\":\"done\"}\n"

	events := collectEvents(t, strings.NewReader(body))

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	wantTypes := []EventType{EventContent, EventContent, EventSources, EventDone}
	for i, ev := range events {
		if ev.Type != wantTypes[i] {
			t.Errorf("event %d: type = %v, want %v", i, ev.Type, wantTypes[i])
		}
		if ev.Index != i {
			t.Errorf("event %d: index = %d", i, ev.Index)
		}
	}
	if got := events[0].Content + events[1].Content; got != "The paper argues X." {
		t.Errorf("content deltas = %q", got)
	}
}

func TestReader_TinyChunks(t *testing.T) {
	body := "data: {\"type\":\"content\",\"content\":\"naïve café\"}\n" +
		"data: {\"type\":\"done\"}\n"

	// 1-byte reads guarantee every multi-byte rune straddles a chunk.
	events := collectEvents(t, &byteDribbler{data: []byte(body), n: 1})

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Content != "naïve café" {
		t.Errorf("content = %q, want %q", events[0].Content, "naïve café")
	}
}

func TestReader_StopsAtTerminalEvent(t *testing.T) {
	body := "data: {\"type\":\"done\"}\n" +
		"data: {\"type\":\"content\",\"content\":\"late\"}\n"

	events := collectEvents(t, strings.NewReader(body))

	if len(events) != 1 {
		t.Fatalf("expected delivery to stop at done, got %d events", len(events))
	}
	if events[0].Type != EventDone {
		t.Errorf("expected done, got %v", events[0].Type)
	}
}

func TestReader_MalformedLineSkipped(t *testing.T) {
	body := "data: {\"type\":\"content\",\"content\":\"a\"}\n" +
		"data: {broken json\n" +
		"data: {\"type\":\"content\",\"content\":\"b\"}\n" +
		"data: {\"type\":\"done\"}\n"

	events := collectEvents(t, strings.NewReader(body))

	// The delivered sequence is identical to one without the bad line,
	// and indexes stay contiguous.
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if got := events[0].Content + events[1].Content; got != "ab" {
		t.Errorf("content = %q, want %q", got, "ab")
	}
	for i, ev := range events {
		if ev.Index != i {
			t.Errorf("event %d: index = %d", i, ev.Index)
		}
	}
}

func TestReader_FlushesPartialTrailingLineAtEOF(t *testing.T) {
	// Final frame lacks its newline; EOF must still deliver it.
	body := "data: {\"type\":\"content\",\"content\":\"tail\"}"

	events := collectEvents(t, strings.NewReader(body))

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Content != "tail" {
		t.Errorf("content = %q, want %q", events[0].Content, "tail")
	}
}

func TestReader_EOFWithoutDone(t *testing.T) {
	body := "data: {\"type\":\"content\",\"content\":\"partial answer\"}\n"

	reader := NewReader(NewParser(), discardLogger())
	var events []Event
	err := reader.Read(context.Background(), strings.NewReader(body), func(ev Event) error {
		events = append(events, ev)
		return nil
	})

	// EOF is a clean completion at this layer; the coordinator decides
	// what an absent done frame means.
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestReader_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewReader(NewParser(), discardLogger())
	delivered := 0
	err := reader.Read(ctx, strings.NewReader("data: {\"type\":\"done\"}\n"), func(Event) error {
		delivered++
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if delivered != 0 {
		t.Errorf("expected no events after cancellation, got %d", delivered)
	}
}

func TestReader_CallbackErrorStopsLoop(t *testing.T) {
	body := "data: {\"type\":\"content\",\"content\":\"a\"}\n" +
		"data: {\"type\":\"content\",\"content\":\"b\"}\n"

	sentinel := errors.New("stop")
	reader := NewReader(NewParser(), discardLogger())
	delivered := 0
	err := reader.Read(context.Background(), strings.NewReader(body), func(Event) error {
		delivered++
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if delivered != 1 {
		t.Errorf("expected 1 delivery, got %d", delivered)
	}
}

func TestReader_ReadErrorPropagated(t *testing.T) {
	boom := errors.New("connection reset")
	reader := NewReader(NewParser(), discardLogger())

	err := reader.Read(context.Background(), &failingReader{err: boom}, func(Event) error {
		return nil
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
}

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

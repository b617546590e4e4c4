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
)

// =============================================================================
// Stream Reader Interface
// =============================================================================

// Reader drives one response body to completion, invoking a callback
// for each decoded event in arrival order.
//
// The stream is considered complete when:
//   - a terminal event (done) is decoded
//   - EOF is reached (the held partial line is flushed first)
//   - the context is cancelled
//   - the callback returns an error
//
// A single Read call owns its LineDecoder; the Reader itself holds no
// per-stream state and may be reused across turns.
//
// Example:
//
//	reader := NewReader(NewParser(), logger)
//	err := reader.Read(ctx, resp.Body, func(ev stream.Event) error {
//	    fmt.Print(ev.Content)
//	    return nil
//	})
type Reader interface {
	Read(ctx context.Context, r io.Reader, callback Callback) error
}

// =============================================================================
// Frame Reader
// =============================================================================

// readChunkSize is the transport read granularity. Cancellation is
// polled once per chunk, so smaller chunks cancel faster at the cost
// of more syscalls.
const readChunkSize = 4096

type frameReader struct {
	parser Parser
	logger *slog.Logger
}

// NewReader creates a Reader over the given parser. A nil logger
// falls back to slog.Default.
func NewReader(parser Parser, logger *slog.Logger) Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &frameReader{parser: parser, logger: logger}
}

// Read pulls byte chunks from r and decodes them into events.
//
// The cancellation token is checked before acting on each new chunk;
// once cancelled, no further events are delivered. A line that fails
// to parse is logged and skipped, so the delivered event sequence is
// the same whether or not malformed lines are interleaved.
func (fr *frameReader) Read(ctx context.Context, r io.Reader, callback Callback) error {
	decoder := NewLineDecoder()
	buf := make([]byte, readChunkSize)
	index := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			// Re-check after a potentially long blocking read.
			if err := ctx.Err(); err != nil {
				return err
			}
			done, err := fr.deliverLines(decoder.Feed(buf[:n]), &index, callback)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return fr.finishAtEOF(ctx, decoder, &index, callback)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return readErr
		}
	}
}

// deliverLines parses each completed line and invokes the callback.
// Returns done=true when a terminal event was delivered.
func (fr *frameReader) deliverLines(lines []string, index *int, callback Callback) (bool, error) {
	for _, line := range lines {
		event, err := fr.parser.ParseLine(line)
		if err != nil {
			// One malformed frame never aborts the stream.
			fr.logger.Warn("skipping malformed stream frame",
				"error", err,
				"line_length", len(line),
			)
			continue
		}
		if event == nil {
			continue
		}

		event.Index = *index
		*index++

		if err := callback(*event); err != nil {
			return false, err
		}
		if event.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

// finishAtEOF flushes the held partial line through the parser before
// reporting completion. A final frame without a trailing newline is
// still a frame.
func (fr *frameReader) finishAtEOF(ctx context.Context, decoder *LineDecoder, index *int, callback Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !decoder.Pending() {
		return nil
	}
	_, err := fr.deliverLines([]string{decoder.Flush()}, index, callback)
	return err
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ Reader = (*frameReader)(nil)

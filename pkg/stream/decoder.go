// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"bytes"
	"strings"
)

// =============================================================================
// Line Decoder
// =============================================================================

// LineDecoder turns an ordered sequence of byte chunks into complete
// lines. Chunk boundaries may fall anywhere, including inside a
// multi-byte UTF-8 rune: splitting happens at the byte level on '\n',
// which never occurs inside a multi-byte sequence, so a rune straddling
// two chunks is reassembled in the held buffer before its line is
// emitted.
//
// A LineDecoder carries state between calls and is not safe for
// concurrent use. One decoder serves exactly one response body.
type LineDecoder struct {
	// rest holds the bytes of the last, not yet terminated line.
	rest []byte
}

// NewLineDecoder creates a decoder with an empty carry buffer.
func NewLineDecoder() *LineDecoder {
	return &LineDecoder{}
}

// Feed appends a chunk and returns every line completed by it, in
// order, without the terminating newline. A trailing "\r" is stripped
// so both "\n" and "\r\n" framing decode identically. Bytes after the
// last newline are held and prefixed onto the next chunk.
func (d *LineDecoder) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}

	d.rest = append(d.rest, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(d.rest, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(d.rest[:i]), "\r")
		lines = append(lines, line)
		d.rest = d.rest[i+1:]
	}

	return lines
}

// Flush returns the held partial line, if any, and resets the decoder.
// Call it once when the chunk source signals completion: a final frame
// without a terminating newline is still a frame.
func (d *LineDecoder) Flush() string {
	if len(d.rest) == 0 {
		return ""
	}
	line := strings.TrimSuffix(string(d.rest), "\r")
	d.rest = nil
	return line
}

// Pending reports whether the decoder is holding a partial line.
func (d *LineDecoder) Pending() bool {
	return len(d.rest) > 0
}

// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"log/slog"

	"github.com/lanternai/lantern/pkg/stream"
)

// =============================================================================
// Stream Reducer
// =============================================================================

// Reducer folds decoded events into the transient StreamingTurn,
// one event at a time, in arrival order.
//
// Per-event rules:
//   - content: appended to the accumulated text. Never replaced,
//     never reordered.
//   - sources: replaces the source list wholesale. Last writer wins;
//     lists never merge.
//   - done: a no-op here. The terminal transition belongs to the
//     coordinator, which snapshots the turn at that instant.
//   - anything else: ignored for forward compatibility, logged once
//     per occurrence.
//
// Applying the same ordered event sequence always yields the same
// final content, including when malformed lines were dropped upstream:
// those are simply absent from the sequence.
type Reducer struct {
	logger *slog.Logger
}

// NewReducer creates a Reducer. A nil logger falls back to
// slog.Default.
func NewReducer(logger *slog.Logger) *Reducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reducer{logger: logger}
}

// Apply folds one event into the turn.
func (r *Reducer) Apply(turn *StreamingTurn, ev stream.Event) {
	switch ev.Type {
	case stream.EventContent:
		turn.Content += ev.Content

	case stream.EventSources:
		turn.Sources = ev.Sources

	case stream.EventDone:
		// Terminal transition handled by the coordinator.

	default:
		r.logger.Debug("ignoring unknown stream event type",
			"type", string(ev.Type),
			"index", ev.Index,
		)
	}
}

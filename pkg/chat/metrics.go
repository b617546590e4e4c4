// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metrics
// =============================================================================

// Turn outcome labels.
const (
	outcomeFinalized = "finalized"
	outcomeCancelled = "cancelled"
	outcomeErrored   = "errored"
)

var (
	// turnOutcomes counts completed turns by terminal state.
	turnOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lantern",
		Subsystem: "chat",
		Name:      "turn_outcomes_total",
		Help:      "Completed turns by terminal state (finalized, cancelled, errored).",
	}, []string{"outcome"})

	// persistFailures counts best-effort saves that did not stick.
	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lantern",
		Subsystem: "chat",
		Name:      "persist_failures_total",
		Help:      "History store writes that failed and were absorbed as warnings.",
	})
)

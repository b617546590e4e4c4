// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lanternai/lantern/pkg/chat"
)

// =============================================================================
// Input Abstraction
// =============================================================================

// InputReader abstracts stdin so the chat loop can be tested with
// scripted input.
type InputReader interface {
	// ReadLine blocks for one line of input, without the trailing
	// newline. Returns io.EOF when input is exhausted.
	ReadLine() (string, error)
}

type bufioInputReader struct {
	scanner *bufio.Scanner
}

// NewInputReader wraps r in a line-oriented InputReader.
func NewInputReader(r io.Reader) InputReader {
	return &bufioInputReader{scanner: bufio.NewScanner(r)}
}

func (b *bufioInputReader) ReadLine() (string, error) {
	if !b.scanner.Scan() {
		if err := b.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return b.scanner.Text(), nil
}

var _ InputReader = (*bufioInputReader)(nil)

// =============================================================================
// Chat Loop
// =============================================================================

// turnEngine is the slice of the coordinator the loop needs.
// *chat.Coordinator satisfies it; tests substitute a scripted engine.
type turnEngine interface {
	Submit(ctx context.Context, message string) error
	Cancel()
	State() chat.State
}

// ChatRunner owns the interactive loop: prompt, submit, render,
// repeat. Signal handling maps the first Ctrl+C during a streaming
// turn to cancellation of that turn only; at the prompt it ends the
// session.
type ChatRunner struct {
	coordinator turnEngine
	input       InputReader
	ui          *ChatUI
	logger      *slog.Logger
}

// NewChatRunner assembles a runner around an already configured
// coordinator.
func NewChatRunner(coordinator turnEngine, input InputReader, ui *ChatUI, logger *slog.Logger) *ChatRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatRunner{
		coordinator: coordinator,
		input:       input,
		ui:          ui,
		logger:      logger,
	}
}

// Run executes the loop until the user types "exit"/"quit", input hits
// EOF, or the context is cancelled. Turn failures are rendered and the
// loop continues; only loop-level failures return an error.
func (r *ChatRunner) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Interrupts cancel the in-flight turn; when the coordinator is
	// idle they fall through to session exit below.
	interrupted := make(chan struct{}, 1)
	go func() {
		for range sigCh {
			if r.coordinator.State() != chat.StateIdle {
				r.coordinator.Cancel()
				continue
			}
			select {
			case interrupted <- struct{}{}:
			default:
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-interrupted:
			return nil
		default:
		}

		r.ui.Prompt()
		line, err := r.input.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		text := strings.TrimSpace(line)
		switch {
		case text == "":
			continue
		case text == "exit" || text == "quit":
			return nil
		}

		if err := r.coordinator.Submit(ctx, text); err != nil {
			// Already rendered by the observer; log the detail and
			// keep the session alive.
			r.logger.Debug("turn ended with error", "error", err)
		}
	}
}

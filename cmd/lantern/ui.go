// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lanternai/lantern/pkg/chat"
)

// =============================================================================
// Palette
// =============================================================================

// Lantern brand colors: warm amber on dark, like the object.
var (
	ColorAmberBright = lipgloss.Color("#FFC94A") // Highlights, the flame
	ColorAmber       = lipgloss.Color("#F2A33C") // Primary brand color
	ColorAmberDeep   = lipgloss.Color("#C97E2B") // Borders, accents
	ColorEmber       = lipgloss.Color("#8C5A22") // Subtle accents

	ColorSlate   = lipgloss.Color("#4A4A55") // Muted text
	ColorWarning = lipgloss.Color("#F4D03F") // Gold for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(ColorAmberBright)
	stylePrompt   = lipgloss.NewStyle().Bold(true).Foreground(ColorAmber)
	styleMuted    = lipgloss.NewStyle().Foreground(ColorSlate)
	styleWarning  = lipgloss.NewStyle().Foreground(ColorWarning)
	styleError    = lipgloss.NewStyle().Foreground(ColorError)
	styleSources  = lipgloss.NewStyle().Foreground(ColorAmberDeep)
	styleSourceHd = lipgloss.NewStyle().Bold(true).Foreground(ColorEmber)
)

// =============================================================================
// Chat UI
// =============================================================================

// ChatUI renders the live streaming conversation to a terminal. It is
// driven as a chat.Observer: content deltas print as they arrive,
// sources and notices print at turn boundaries.
//
// Not safe for concurrent observers; the coordinator delivers updates
// from a single goroutine.
type ChatUI struct {
	out io.Writer

	// printed tracks how much of the in-flight turn's content has
	// already been written, so each snapshot only emits the delta.
	printed int
}

// NewChatUI creates a UI writing to out.
func NewChatUI(out io.Writer) *ChatUI {
	return &ChatUI{out: out}
}

// Banner prints the session header.
func (ui *ChatUI) Banner(documentID, sessionID string, resumedTurns int) {
	fmt.Fprintln(ui.out, styleTitle.Render("Lantern"))
	fmt.Fprintln(ui.out, styleMuted.Render(fmt.Sprintf("document: %s", documentID)))
	if resumedTurns > 0 {
		fmt.Fprintln(ui.out, styleMuted.Render(
			fmt.Sprintf("resumed session %s (%d prior messages)", sessionID, resumedTurns)))
	}
	fmt.Fprintln(ui.out, styleMuted.Render(`type "exit" to quit, Ctrl+C to cancel a streaming answer`))
	fmt.Fprintln(ui.out)
}

// Prompt prints the input prompt.
func (ui *ChatUI) Prompt() {
	fmt.Fprint(ui.out, stylePrompt.Render("you> "))
}

// PrintHistory replays prior turns when a session is resumed.
func (ui *ChatUI) PrintHistory(messages []chat.Message) {
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			fmt.Fprintln(ui.out, stylePrompt.Render("you> ")+msg.Content)
		case chat.RoleAssistant:
			if msg.IsError {
				fmt.Fprintln(ui.out, styleError.Render(msg.Content))
			} else {
				fmt.Fprintln(ui.out, msg.Content)
			}
		}
		fmt.Fprintln(ui.out)
	}
}

// Warning prints a non-fatal notice, e.g. a failed history load.
func (ui *ChatUI) Warning(msg string) {
	fmt.Fprintln(ui.out, styleWarning.Render(msg))
}

// Observe is the chat.Observer wired into the coordinator.
func (ui *ChatUI) Observe(update chat.TurnUpdate) {
	switch update.Phase {
	case chat.PhaseUserSaved:
		ui.printed = 0
		fmt.Fprint(ui.out, styleMuted.Render("thinking..."))

	case chat.PhaseStreaming:
		ui.printDelta(update.Turn)

	case chat.PhaseFinalized:
		fmt.Fprintln(ui.out)
		if update.Message != nil && len(update.Message.Sources) > 0 {
			ui.printSources(update.Message)
		}
		fmt.Fprintln(ui.out)

	case chat.PhaseCancelled:
		fmt.Fprintln(ui.out)
		fmt.Fprintln(ui.out, styleMuted.Render("(cancelled)"))
		fmt.Fprintln(ui.out)

	case chat.PhaseErrored:
		fmt.Fprintln(ui.out)
		if update.Message != nil {
			fmt.Fprintln(ui.out, styleError.Render(update.Message.Content))
		}
		fmt.Fprintln(ui.out)
	}
}

// printDelta writes only the content the previous snapshot didn't
// have. Content is append-only, so the prefix never changes.
func (ui *ChatUI) printDelta(turn *chat.StreamingTurn) {
	if turn == nil {
		return
	}
	if ui.printed == 0 {
		// Clear the thinking indicator before the first token.
		fmt.Fprint(ui.out, "\r\033[K")
	}
	if len(turn.Content) > ui.printed {
		fmt.Fprint(ui.out, turn.Content[ui.printed:])
		ui.printed = len(turn.Content)
	}
}

func (ui *ChatUI) printSources(msg *chat.Message) {
	fmt.Fprintln(ui.out)
	fmt.Fprintln(ui.out, styleSourceHd.Render("Sources:"))
	for _, src := range msg.Sources {
		excerpt := src.Content
		if runes := []rune(excerpt); len(runes) > 80 {
			excerpt = string(runes[:77]) + "..."
		}
		excerpt = strings.ReplaceAll(excerpt, "\n", " ")
		fmt.Fprintln(ui.out, styleSources.Render(
			fmt.Sprintf("  p.%d (%.0f%%) %s", src.PageNumber, src.Confidence*100, excerpt)))
	}
}

// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lanternai/lantern/pkg/stream"
	"github.com/lanternai/lantern/pkg/transport"
)

// =============================================================================
// Errors and Constants
// =============================================================================

var (
	// ErrTurnInFlight is returned when Submit is called while another
	// turn is between Idle states. The caller should disable input
	// rather than queue: turns are never interleaved.
	ErrTurnInFlight = errors.New("a turn is already in flight")

	// ErrEmptyMessage is returned for input that trims to nothing.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoAnswer is raised when the stream closes before a single
	// event was decoded.
	ErrNoAnswer = errors.New("stream ended before any event")
)

// ErrorReply is the fixed user-facing content of a synthesized error
// turn. The error turn IS persisted so the conversation record
// reflects the failed attempt.
const ErrorReply = "I'm sorry, something went wrong while answering your question. Please try again."

// =============================================================================
// States and Observer Contract
// =============================================================================

// State is the coordinator's externally visible position in the turn
// state machine. The terminal states (Finalized, Cancelled, Errored)
// are momentary: they always return the coordinator to Idle, which is
// why only the resting states appear here; terminal outcomes are
// reported through TurnUpdate phases.
type State string

const (
	StateIdle           State = "idle"
	StateAwaitingStream State = "awaiting_stream"
	StateStreaming      State = "streaming"
)

// TurnPhase tags a TurnUpdate delivered to observers.
type TurnPhase string

const (
	// PhaseUserSaved: the user Message was persisted and the stream is
	// being opened.
	PhaseUserSaved TurnPhase = "user_saved"

	// PhaseStreaming: the transient turn changed; Turn carries a
	// snapshot for live rendering.
	PhaseStreaming TurnPhase = "streaming"

	// PhaseFinalized: the assistant Message was built and persisted.
	PhaseFinalized TurnPhase = "finalized"

	// PhaseCancelled: the turn was discarded on user cancellation.
	// Nothing was persisted and no error is surfaced.
	PhaseCancelled TurnPhase = "cancelled"

	// PhaseErrored: a synthesized error Message was persisted; Err
	// carries the cause for a transient notification.
	PhaseErrored TurnPhase = "errored"
)

// TurnUpdate is one state-change notification. Exactly one of Turn or
// Message is set depending on the phase; both may be nil for
// PhaseCancelled.
type TurnUpdate struct {
	Phase   TurnPhase
	Turn    *StreamingTurn
	Message *Message
	Err     error
}

// Observer receives turn state changes for live rendering. Called
// from the goroutine driving Submit; implementations must not call
// back into the Coordinator.
type Observer func(TurnUpdate)

// StreamOpener abstracts the Transport for testing. Production code
// passes *transport.Transport.
type StreamOpener interface {
	Open(ctx context.Context, req transport.Request) (io.ReadCloser, context.CancelFunc, error)
}

// =============================================================================
// Coordinator
// =============================================================================

// Config assembles a Coordinator. Opener, Store, and DocumentID are
// required.
type Config struct {
	Opener     StreamOpener
	Store      HistoryStore
	DocumentID string
	UserID     string
	SessionID  string        // resume an existing session (optional)
	Reader     stream.Reader // custom frame reader (optional)
	Observer   Observer      // live rendering hook (optional)
	Logger     *slog.Logger  // default: slog.Default
}

// Coordinator orchestrates one request/response turn at a time for a
// document-scoped conversation: it persists the user turn, opens the
// transport, drives the reducer over decoded events, and finalizes or
// discards the result.
//
// # State machine
//
//	Idle → AwaitingStream → Streaming → Finalized → Idle
//	Idle → AwaitingStream → Cancelled → Idle
//	Idle → AwaitingStream → Errored   → Idle
//
// # Thread safety
//
// Submit is synchronous and single-flight: a second Submit while a
// turn is in flight fails with ErrTurnInFlight and never opens a
// second transport. Cancel and the accessors may be called from any
// goroutine. Reducer folds and state transitions are serialized under
// one mutex, so observers always see consistent snapshots.
//
// # Limitations
//
//   - One document per Coordinator; changing documents means a new
//     Coordinator (and a new session).
//   - Persistence is best-effort: a failed save is absorbed as a
//     warning and does not block the turn's display (the content was
//     already computed).
type Coordinator struct {
	opener  StreamOpener
	reader  stream.Reader
	reducer *Reducer
	loader  *HistoryLoader
	store   HistoryStore

	documentID string
	userID     string
	observer   Observer
	logger     *slog.Logger

	mu            sync.Mutex
	state         State
	sessionID     string
	cancel        context.CancelFunc
	userCancelled bool
	turn          *StreamingTurn
	history       []Message
}

// New creates a Coordinator in the Idle state.
func New(config Config) (*Coordinator, error) {
	if config.Opener == nil {
		return nil, errors.New("chat: Config.Opener is required")
	}
	if config.Store == nil {
		return nil, errors.New("chat: Config.Store is required")
	}
	if config.DocumentID == "" {
		return nil, errors.New("chat: Config.DocumentID is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reader := config.Reader
	if reader == nil {
		reader = stream.NewReader(stream.NewParser(), logger)
	}

	return &Coordinator{
		opener:     config.Opener,
		reader:     reader,
		reducer:    NewReducer(logger),
		loader:     NewHistoryLoader(config.Store, logger),
		store:      config.Store,
		documentID: config.DocumentID,
		userID:     config.UserID,
		observer:   config.Observer,
		logger:     logger,
		state:      StateIdle,
		sessionID:  config.SessionID,
	}, nil
}

// =============================================================================
// Accessors
// =============================================================================

// State returns the coordinator's current resting state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the active session id, empty before the first
// submitted turn.
func (c *Coordinator) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// History returns a copy of the loaded and accumulated conversation,
// oldest first.
func (c *Coordinator) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

// =============================================================================
// Session Activation
// =============================================================================

// ActivateSession makes the given session current and hydrates its
// prior turns. It must complete before new turns begin. A load
// failure degrades to an empty history: the error is returned for a
// surfaced warning, but the coordinator stays usable.
func (c *Coordinator) ActivateSession(ctx context.Context, sessionID string) (int, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return 0, ErrTurnInFlight
	}
	c.sessionID = sessionID
	c.history = nil
	c.mu.Unlock()

	messages, err := c.loader.Load(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("load history: %w", err)
	}

	c.mu.Lock()
	c.history = messages
	c.mu.Unlock()
	return len(messages), nil
}

// =============================================================================
// Cancellation
// =============================================================================

// Cancel requests the in-flight turn to stop. Cancellation is
// cooperative: the token only asks the transport to stop, and the
// decode loop exits before acting on its next chunk. The in-progress
// StreamingTurn is discarded, the already persisted user Message is
// left untouched, and no error is surfaced. Cancel is a no-op when no
// turn is in flight.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	if cancel != nil {
		c.userCancelled = true
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// Submit - One Turn End to End
// =============================================================================

// Submit runs one conversational turn to its terminal state and
// returns after the coordinator is Idle again.
//
// Side effects, in order: the user Message is persisted before the
// network call begins; the transport opens with a fresh cancellation
// token; the first decoded event instantiates the StreamingTurn; each
// content/sources event folds into it; a done event (or end of
// stream, see below) promotes the snapshot into a persisted assistant
// Message, exactly once.
//
// A stream that closes without a done frame finalizes the accumulated
// answer as an implied done, with a warning logged. Dropping a fully
// streamed answer because the terminal frame was lost would discard
// user-visible work.
//
// Returns nil on Finalized and Cancelled; the wrapped cause on
// Errored (the synthesized error Message is persisted either way).
func (c *Coordinator) Submit(ctx context.Context, message string) error {
	text := strings.TrimSpace(message)
	if text == "" {
		return ErrEmptyMessage
	}

	// Idle → AwaitingStream. Rejected, not queued, while in flight.
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	c.state = StateAwaitingStream
	c.userCancelled = false
	c.sessionID = ResolveSessionID(c.sessionID, c.documentID)
	sessionID := c.sessionID
	turnCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	c.logger.Debug("turn started",
		"session_id", sessionID,
		"document_id", c.documentID,
		"message_length", len(text),
	)

	// Persist the user turn before the network call begins.
	userMsg := NewUserMessage(c.documentID, text)
	c.persist(ctx, userMsg, sessionID)
	c.appendHistory(userMsg)
	c.notify(TurnUpdate{Phase: PhaseUserSaved, Message: &userMsg})

	body, transportCancel, err := c.opener.Open(turnCtx, transport.Request{
		Message:    text,
		DocumentID: c.documentID,
		SessionID:  sessionID,
		UserID:     c.userID,
	})
	if err != nil {
		return c.concludeFailure(ctx, sessionID, err)
	}
	defer transportCancel()
	defer body.Close()

	doneSeen := false
	readErr := c.reader.Read(turnCtx, body, func(ev stream.Event) error {
		c.mu.Lock()
		// AwaitingStream → Streaming on the first decoded event.
		if c.turn == nil {
			c.turn = newStreamingTurn()
			c.state = StateStreaming
		}
		if ev.Type == stream.EventDone {
			doneSeen = true
			c.mu.Unlock()
			return nil // the reader stops at terminal events
		}
		c.reducer.Apply(c.turn, ev)
		snap := c.turn.snapshot()
		c.mu.Unlock()

		c.notify(TurnUpdate{Phase: PhaseStreaming, Turn: &snap})
		return nil
	})
	if readErr != nil {
		return c.concludeFailure(ctx, sessionID, readErr)
	}

	return c.concludeSuccess(ctx, sessionID, doneSeen)
}

// =============================================================================
// Terminal Transitions
// =============================================================================

// concludeSuccess handles Streaming → Finalized: the persisted
// assistant Message is built from the snapshot at the instant the
// terminal event arrived, saved exactly once, and the StreamingTurn
// is discarded.
func (c *Coordinator) concludeSuccess(ctx context.Context, sessionID string, doneSeen bool) error {
	c.mu.Lock()
	turn := c.turn
	c.turn = nil
	c.state = StateIdle
	c.cancel = nil
	c.mu.Unlock()

	if turn == nil {
		return c.failTurn(ctx, sessionID, ErrNoAnswer)
	}

	if !doneSeen {
		c.logger.Warn("stream closed without done frame, finalizing accumulated answer",
			"session_id", sessionID,
			"content_length", len(turn.Content),
		)
	}

	final := turn.finalize(c.documentID)
	c.persist(ctx, final, sessionID)
	c.appendHistory(final)
	turnOutcomes.WithLabelValues(outcomeFinalized).Inc()

	c.logger.Info("turn finalized",
		"session_id", sessionID,
		"message_id", final.ID,
		"content_length", len(final.Content),
		"sources", len(final.Sources),
	)
	c.notify(TurnUpdate{Phase: PhaseFinalized, Message: &final})
	return nil
}

// concludeFailure routes a failed turn to Cancelled or Errored.
func (c *Coordinator) concludeFailure(ctx context.Context, sessionID string, cause error) error {
	c.mu.Lock()
	cancelled := c.userCancelled || errors.Is(cause, context.Canceled)
	c.turn = nil
	c.state = StateIdle
	c.cancel = nil
	c.mu.Unlock()

	if cancelled {
		// Not an error: discard transient state only. The user
		// Message already persisted stays in history.
		turnOutcomes.WithLabelValues(outcomeCancelled).Inc()
		c.logger.Info("turn cancelled", "session_id", sessionID)
		c.notify(TurnUpdate{Phase: PhaseCancelled})
		return nil
	}

	return c.failTurn(ctx, sessionID, cause)
}

// failTurn handles the Errored transition: a synthesized assistant
// Message with the fixed apology IS persisted, unlike the cancelled
// path, so the conversation record reflects the failed attempt.
func (c *Coordinator) failTurn(ctx context.Context, sessionID string, cause error) error {
	errMsg := Message{
		ID:         uuid.New().String(),
		Role:       RoleAssistant,
		Content:    ErrorReply,
		Timestamp:  time.Now().UnixMilli(),
		DocumentID: c.documentID,
		IsError:    true,
	}
	c.persist(ctx, errMsg, sessionID)
	c.appendHistory(errMsg)
	turnOutcomes.WithLabelValues(outcomeErrored).Inc()

	c.logger.Error("turn failed",
		"session_id", sessionID,
		"error", cause,
	)
	c.notify(TurnUpdate{Phase: PhaseErrored, Message: &errMsg, Err: cause})
	return fmt.Errorf("turn failed: %w", cause)
}

// =============================================================================
// Internal Helpers
// =============================================================================

// persist saves a Message best-effort. A failed save is a warning,
// never a blocker: the display already has the computed content.
func (c *Coordinator) persist(ctx context.Context, msg Message, sessionID string) {
	if err := c.store.SaveMessage(ctx, c.userID, msg, sessionID); err != nil {
		persistFailures.Inc()
		c.logger.Warn("failed to persist message",
			"session_id", sessionID,
			"message_id", msg.ID,
			"role", string(msg.Role),
			"error", err,
		)
	}
}

func (c *Coordinator) appendHistory(msg Message) {
	c.mu.Lock()
	c.history = append(c.history, msg)
	c.mu.Unlock()
}

func (c *Coordinator) notify(update TurnUpdate) {
	if c.observer != nil {
		c.observer(update)
	}
}

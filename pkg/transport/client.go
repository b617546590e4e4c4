// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package transport issues the streaming question request against the
// Lantern backend and hands the caller a cancellable byte-chunk source
// bound to the response body.
//
// The package knows nothing about frames or turns; it produces bytes
// and a cancellation handle, pkg/stream decodes, pkg/chat coordinates.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// =============================================================================
// HTTP Client Abstraction
// =============================================================================

// HTTPClient abstracts the HTTP operations the transport needs.
// Production code uses a real http.Client; tests inject mocks.
type HTTPClient interface {
	// Post sends an HTTP POST request with the given body.
	Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error)

	// Get sends an HTTP GET request.
	Get(ctx context.Context, url string) (*http.Response, error)
}

// defaultHTTPClient wraps http.Client to implement HTTPClient.
type defaultHTTPClient struct {
	client *http.Client
}

func (c *defaultHTTPClient) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")
	return c.client.Do(req)
}

func (c *defaultHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

// =============================================================================
// Request and Errors
// =============================================================================

// Request is the JSON body of one streaming question.
type Request struct {
	Message    string `json:"message"`
	DocumentID string `json:"documentId"`
	SessionID  string `json:"sessionId"`
	UserID     string `json:"userId"`
}

// StatusError reports a non-success HTTP status from the streaming
// endpoint, with the response body captured for diagnosis. A response
// like this carries no frames and is fatal for the turn.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Body)
}

// =============================================================================
// Transport
// =============================================================================

// streamPath is the backend's streaming answer endpoint.
const streamPath = "/v1/chat/stream"

// defaultTimeout bounds one whole streamed answer, not one read.
const defaultTimeout = 5 * time.Minute

// Config configures a Transport. Only BaseURL is required.
type Config struct {
	BaseURL string        // Backend URL without trailing slash (required)
	Timeout time.Duration // Whole-stream timeout (default: 5 minutes)
	Logger  *slog.Logger  // Structured logger (default: slog.Default)
}

// Transport opens streaming requests. It is stateless and safe for
// concurrent use; single-flight per conversation is enforced by the
// turn coordinator, not here.
type Transport struct {
	client  HTTPClient
	baseURL string
	logger  *slog.Logger
}

// New creates a Transport with a production HTTP client.
func New(config Config) *Transport {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return NewWithClient(&defaultHTTPClient{
		client: &http.Client{Timeout: timeout},
	}, config)
}

// NewWithClient creates a Transport with an injected HTTP client.
// Use this constructor for testing with mocks.
func NewWithClient(client HTTPClient, config Config) *Transport {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		client:  client,
		baseURL: config.BaseURL,
		logger:  logger,
	}
}

// Open issues the streaming POST and returns the response body as a
// pull-based chunk source plus the cancellation handle for this turn.
//
// Invoking the returned cancel aborts the in-flight request; subsequent
// reads on the body fail with a context error. The caller owns both:
// close the body when done and call cancel to release the request
// context even on the success path.
//
// A non-2xx status or an absent body is a hard failure. The status and
// body text are captured into a *StatusError; the stream is never
// silently continued.
func (t *Transport) Open(ctx context.Context, req Request) (io.ReadCloser, context.CancelFunc, error) {
	reqCtx, cancel := context.WithCancel(ctx)

	payload, err := json.Marshal(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	targetURL := t.baseURL + streamPath
	t.logger.Debug("opening answer stream",
		"url", targetURL,
		"document_id", req.DocumentID,
		"session_id", req.SessionID,
		"message_length", len(req.Message),
	)

	resp, err := t.client.Post(reqCtx, targetURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		cancel()
		t.logger.Error("streaming HTTP request failed",
			"url", targetURL,
			"error", err,
		)
		return nil, nil, fmt.Errorf("http post: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		body := readErrorBody(resp.Body)
		t.logger.Error("streaming endpoint returned error status",
			"url", targetURL,
			"status_code", resp.StatusCode,
			"response_body", body,
		)
		return nil, nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	if resp.Body == nil {
		defer cancel()
		t.logger.Error("streaming endpoint returned no body",
			"url", targetURL,
			"status_code", resp.StatusCode,
		)
		return nil, nil, &StatusError{StatusCode: resp.StatusCode, Body: "response body missing"}
	}

	return resp.Body, cancel, nil
}

// readErrorBody drains a failed response's body for the error message,
// closing it on the way out. Read failures degrade to a placeholder.
func readErrorBody(body io.ReadCloser) string {
	if body == nil {
		return "response body missing"
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil {
		return fmt.Sprintf("failed to read response body: %v", err)
	}
	return string(data)
}

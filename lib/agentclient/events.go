// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/netutil"
)

// Subscribe opens the server's event stream. The stream lives until
// ctx is cancelled, the server closes it, or Close is called.
func (c *Client) Subscribe(ctx context.Context) (*EventStream, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL("/event", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("agentclient: failed to create event request: %w", err)
	}
	request.Header.Set("Accept", "text/event-stream")
	request.Header.Set("Cache-Control", "no-cache")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("agentclient: opening event stream: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer response.Body.Close()
		return nil, decodeError(response)
	}
	return NewEventStream(response.Body, c.logger), nil
}

// EventStream reads events from an SSE body.
type EventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  *slog.Logger
}

// NewEventStream wraps an SSE body. Subscribe uses it for the live
// stream; it is exported for replaying captured streams.
func NewEventStream(body io.ReadCloser, logger *slog.Logger) *EventStream {
	if logger == nil {
		logger = slog.Default()
	}
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), netutil.MaxEventSize)
	return &EventStream{body: body, scanner: scanner, logger: logger}
}

// Next blocks until the next complete event. It returns io.EOF when
// the server ends the stream cleanly; a trailing message without its
// terminating blank line is discarded.
func (s *EventStream) Next() (agentapi.Event, error) {
	var data []string
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if len(data) == 0 {
				continue
			}
			payload := strings.Join(data, "\n")
			data = data[:0]
			event, ok := s.decode(payload)
			if !ok {
				continue
			}
			return event, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		if field == "data" {
			data = append(data, strings.TrimPrefix(value, " "))
		}
	}
	if err := s.scanner.Err(); err != nil {
		return agentapi.Event{}, fmt.Errorf("agentclient: reading event stream: %w", err)
	}
	return agentapi.Event{}, io.EOF
}

func (s *EventStream) decode(payload string) (agentapi.Event, bool) {
	var event agentapi.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		s.logger.Debug("dropping malformed event", "error", err, "size", len(payload))
		return agentapi.Event{}, false
	}
	if event.Type == "" {
		s.logger.Debug("dropping event without type")
		return agentapi.Event{}, false
	}
	return event, true
}

// Close releases the connection. A blocked Next returns an error.
func (s *EventStream) Close() error {
	return s.body.Close()
}

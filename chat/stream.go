// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/miloira/line-web/lib/netutil"
)

// StreamOptions configures the event stream.
type StreamOptions struct {
	// ClientType identifies the client platform to the feed. Default
	// "PC".
	ClientType string
	// DeviceType is forwarded verbatim; the production feed accepts an
	// empty value.
	DeviceType string
	// PingSeconds is the requested keep-alive interval. Default 60.
	PingSeconds int
	// ReconnectDelay is the fixed pause between a stream failure and the
	// next connection attempt. Default 500ms.
	ReconnectDelay time.Duration
}

func (o *StreamOptions) applyDefaults() {
	if o.ClientType == "" {
		o.ClientType = "PC"
	}
	if o.PingSeconds == 0 {
		o.PingSeconds = 60
	}
	if o.ReconnectDelay == 0 {
		o.ReconnectDelay = 500 * time.Millisecond
	}
}

// Run connects to the bot's event feed and dispatches events to the
// registered handlers until ctx is canceled. Every failure, including
// token acquisition, a dropped connection, a malformed frame, and a
// server-signaled invalid token, is retried indefinitely: a fresh
// streaming token is acquired, idle connections are discarded, and the
// stream reopens after options.ReconnectDelay. The only return value is
// ctx.Err().
//
// On reconnect the stream resumes from the last event id this process
// observed; when it has seen none yet, the server's record from the
// token response is used. Resume is best effort, events can still be
// lost across a gap.
func (b *Bot) Run(ctx context.Context, options StreamOptions) error {
	options.applyDefaults()
	logger := b.session.client.logger

	// Carried across reconnects. Empty until the first event arrives.
	lastEventID := ""

	for {
		if err := ctx.Err(); err != nil {
			b.dispatcher.wait()
			return err
		}

		err := b.streamOnce(ctx, options, &lastEventID)
		if ctx.Err() != nil {
			b.dispatcher.wait()
			return ctx.Err()
		}

		logger.Warn("event stream interrupted, reconnecting",
			"bot_id", b.descriptor.BotID,
			"last_event_id", lastEventID,
			"delay", options.ReconnectDelay,
			"error", err,
		)
		// Drop pooled connections so the retry dials fresh instead of
		// reusing a connection the server may have half-closed.
		b.session.client.CloseIdleConnections()

		select {
		case <-ctx.Done():
			b.dispatcher.wait()
			return ctx.Err()
		case <-time.After(options.ReconnectDelay):
		}
	}
}

// streamOnce runs one streaming connection to completion: acquire a
// token, open the feed, and dispatch frames until the connection ends
// or a frame fails to parse. It always returns a non-nil error; a
// cleanly closed stream is still a disconnect to retry.
func (b *Bot) streamOnce(ctx context.Context, options StreamOptions, lastEventID *string) error {
	token, err := b.StreamingToken(ctx)
	if err != nil {
		return err
	}

	// The local record of the last dispatched event outranks the
	// server's: after a mid-stream drop the token response may predate
	// events this process already handled.
	resumeFrom := *lastEventID
	if resumeFrom == "" {
		resumeFrom = token.LastEventID
	}

	connectionID := uuid.NewString()
	logger := b.session.client.logger.With("connection_id", connectionID)

	query := url.Values{
		"token":      {token.Token},
		"deviceType": {options.DeviceType},
		"clientType": {options.ClientType},
		"pingSecs":   {strconv.Itoa(options.PingSeconds)},
	}
	if resumeFrom != "" {
		query.Set("lastEventId", resumeFrom)
	}
	requestURL := b.session.client.streamingURL + "/api/v2/sse?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("chat: creating stream request: %w", err)
	}
	request.Header.Set("Accept", "text/event-stream")
	b.session.decorate(request)

	response, err := b.session.client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("chat: connecting event stream: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &PlatformError{
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}

	logger.Info("event stream connected",
		"bot_id", b.descriptor.BotID,
		"last_event_id", resumeFrom,
	)

	scanner := bufio.NewScanner(response.Body)
	scanner.Buffer(make([]byte, 64*1024), int(netutil.MaxResponseSize))
	scanner.Split(splitFrames)

	for scanner.Scan() {
		event, err := parseFrame(scanner.Text())
		if err != nil {
			return err
		}

		*lastEventID = event.ID
		logger.Debug("event received",
			"event", event.Name,
			"sub_event", event.SubEvent,
			"event_id", event.ID,
		)
		// Every frame is dispatched, including the token-invalidation
		// one: handlers subscribed to it must see it before the engine
		// tears the connection down.
		b.dispatcher.dispatch(ctx, event)

		if event.Name == "fail" && event.SubEvent == "invalid_token" {
			return ErrInvalidToken
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("chat: reading event stream: %w", err)
	}
	return fmt.Errorf("chat: event stream closed by server")
}

// splitFrames is a bufio.SplitFunc yielding one blank-line-delimited
// frame per token, delimiter excluded.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// parseFrame parses one feed frame into an Event. A frame carries at
// least three prefixed lines:
//
//	id: <event id>
//	event: <event name>
//	data: <JSON payload, or the literal "ping">
//
// Lines past the third are ignored. The keep-alive payload "ping"
// parses to an empty map so keep-alives flow through dispatch like any
// other event.
func parseFrame(frame string) (Event, error) {
	lines := strings.Split(strings.TrimRight(frame, "\n"), "\n")
	if len(lines) < 3 {
		return Event{}, fmt.Errorf("chat: malformed stream frame (%d lines): %q", len(lines), frame)
	}

	id, ok := strings.CutPrefix(lines[0], "id:")
	if !ok {
		return Event{}, fmt.Errorf("chat: stream frame missing id line: %q", frame)
	}
	name, ok := strings.CutPrefix(lines[1], "event:")
	if !ok {
		return Event{}, fmt.Errorf("chat: stream frame missing event line: %q", frame)
	}
	data, ok := strings.CutPrefix(lines[2], "data:")
	if !ok {
		return Event{}, fmt.Errorf("chat: stream frame missing data line: %q", frame)
	}

	event := Event{
		ID:   strings.TrimSpace(id),
		Name: strings.TrimSpace(name),
	}

	payload := strings.TrimSpace(data)
	if payload == "ping" {
		payload = "{}"
	}
	if err := json.Unmarshal([]byte(payload), &event.Data); err != nil {
		return Event{}, fmt.Errorf("chat: parsing stream frame payload: %w", err)
	}
	if sub, ok := event.Data["subEvent"].(string); ok {
		event.SubEvent = sub
	}
	return event, nil
}

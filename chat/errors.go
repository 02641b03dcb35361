// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PlatformError represents a non-2xx response from the platform.
// Callers can use errors.As to extract the structured information:
//
//	var platformErr *chat.PlatformError
//	if errors.As(err, &platformErr) {
//	    if platformErr.StatusCode == http.StatusUnauthorized { ... }
//	}
type PlatformError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
	// Code is the platform error code, when the body carried one.
	Code string `json:"code"`
	// Message is the human-readable error description, when present.
	Message string `json:"message"`
	// Body is the raw response body, kept for endpoints whose error
	// shape does not match the common code/message form.
	Body string `json:"-"`
}

func (e *PlatformError) Error() string {
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("chat: platform error %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("chat: platform returned status %d: %s", e.StatusCode, e.Body)
}

// LoginError is the terminal construction-time failure raised when a
// credential provider's login does not produce a usable credential.
// Provider carries the provider's self-description (with secrets
// redacted) so the failing variant is identifiable from the error
// alone.
type LoginError struct {
	Provider string
	Err      error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("chat: login failed via %s: %v", e.Provider, e.Err)
}

func (e *LoginError) Unwrap() error { return e.Err }

// BotNotExistsError reports an empty bot roster: the operator account
// administers no bots at all.
type BotNotExistsError struct{}

func (e *BotNotExistsError) Error() string {
	return "chat: account has no bots"
}

// BotNotFoundError reports that the requested bot name matched no
// roster entry, or that the roster payload was structurally unusable.
// Roster carries the full payload for diagnostics.
type BotNotFoundError struct {
	Name   string
	Roster json.RawMessage
}

func (e *BotNotFoundError) Error() string {
	return fmt.Sprintf("chat: bot %q not found in roster: %s", e.Name, e.Roster)
}

// ErrInvalidToken signals that the platform invalidated the streaming
// token mid-stream (event "fail" with sub-event "invalid_token"). It is
// recoverable: the streaming engine catches it, logs it, and acquires a
// fresh token.
var ErrInvalidToken = errors.New("chat: streaming token invalidated by server")

// ErrSubEventWithoutEvent is returned by Handle when a sub-event name
// is given without an event name. Sub-event keys only exist under an
// event.
var ErrSubEventWithoutEvent = errors.New("chat: sub-event registration requires an event name")

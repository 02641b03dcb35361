// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth implements the login flows that produce a session
// credential for the LINE Official Account chat platform.
//
// Four provider variants exist, all normalizing to the same
// [Credential] pair so the chat package never needs to know which flow
// ran:
//
//   - [CookieProvider]: extracts the pair from a raw cookie header
//     string copied out of an authenticated browser.
//   - [PasswordProvider]: performs the email/password login exchange
//     against the account service.
//   - [QRProvider]: drives the QR-code handshake. Known-incomplete: the
//     observed flow never yields session credentials, so Login returns
//     an empty Credential after the scan completes.
//   - [BrowserProvider]: harvests cookies from an externally driven
//     browser context once it has navigated past the login domains.
//
// Providers report which required field a flow failed to produce via
// [*MissingFieldError]; the chat package wraps that into its terminal
// login failure with the provider's Describe() string attached.
package auth

import (
	"context"
	"fmt"
	"strings"
)

// Credential is the normalized result of a login flow: the platform
// session cookie value and the XSRF token carried on every
// authenticated call. Produced once per login attempt and immutable
// afterwards.
type Credential struct {
	// Session is the value of the "ses" cookie.
	Session string
	// XSRFToken is the anti-forgery token sent as both the XSRF-TOKEN
	// cookie and the x-xsrf-token header.
	XSRFToken string
}

// Provider is a login strategy. Implementations either return a
// complete Credential or an error; callers must not use a Credential
// from a failed Login.
type Provider interface {
	// Login runs the flow. Blocking variants (QR scan wait, browser
	// polling) honor ctx cancellation.
	Login(ctx context.Context) (Credential, error)

	// Describe returns a human-readable description of the variant and
	// its construction arguments, with secrets redacted. Used in login
	// failure diagnostics.
	Describe() string
}

// MissingFieldError reports a login flow that completed its HTTP
// exchanges without producing a required credential field.
type MissingFieldError struct {
	// Field is the missing cookie or payload field, e.g. "ses" or
	// "XSRF-TOKEN".
	Field string
	// Stage identifies where in the flow the field was expected.
	Stage string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("auth: %s missing required field %q", e.Stage, e.Field)
}

// ParseCookieString parses a raw "key=value; key=value" cookie header
// string into a map. Values may contain "="; only the first one
// separates key from value. Malformed items (no "=") are an error.
func ParseCookieString(raw string) (map[string]string, error) {
	cookies := make(map[string]string)
	for _, item := range strings.Split(raw, "; ") {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("auth: malformed cookie item %q", item)
		}
		cookies[key] = value
	}
	return cookies, nil
}

// Default endpoints for the production platform. Every provider allows
// overriding these so tests can point at a local server.
const (
	DefaultAccountURL = "https://account.line.biz"
	DefaultChatURL    = "https://chat.line.biz"
	DefaultAccessURL  = "https://access.line.me"
	DefaultManagerURL = "https://manager.line.biz"
)

// csrfTokenResponse is the body of GET {chat}/api/v1/csrfToken.
type csrfTokenResponse struct {
	Token string `json:"token"`
}

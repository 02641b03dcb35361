// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"fmt"
)

// CookieProvider logs in from a raw cookie header string copied out of
// an already-authenticated browser session. It performs no network
// calls: the "ses" and "XSRF-TOKEN" cookies are the credential.
type CookieProvider struct {
	cookies string
}

// NewCookieProvider creates a provider from a raw "key=value; key=value"
// cookie header string.
func NewCookieProvider(cookies string) *CookieProvider {
	return &CookieProvider{cookies: cookies}
}

// Login parses the cookie string and extracts the credential pair.
// A missing "ses" or "XSRF-TOKEN" cookie is a *MissingFieldError.
func (p *CookieProvider) Login(ctx context.Context) (Credential, error) {
	cookies, err := ParseCookieString(p.cookies)
	if err != nil {
		return Credential{}, err
	}

	session, ok := cookies["ses"]
	if !ok {
		return Credential{}, &MissingFieldError{Field: "ses", Stage: "cookie string"}
	}
	token, ok := cookies["XSRF-TOKEN"]
	if !ok {
		return Credential{}, &MissingFieldError{Field: "XSRF-TOKEN", Stage: "cookie string"}
	}

	return Credential{Session: session, XSRFToken: token}, nil
}

// Describe returns the variant name with the cookie values redacted:
// session cookies are as sensitive as passwords.
func (p *CookieProvider) Describe() string {
	return fmt.Sprintf("CookieProvider(cookies=<redacted, %d bytes>)", len(p.cookies))
}

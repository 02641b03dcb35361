// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakePage is a PageContext whose location advances through a scripted
// sequence, one step per poll.
type fakePage struct {
	mu        sync.Mutex
	locations []string
	cookies   map[string]string
}

func (p *fakePage) Location() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	location := p.locations[0]
	if len(p.locations) > 1 {
		p.locations = p.locations[1:]
	}
	return location
}

func (p *fakePage) Cookies() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cookies
}

func TestBrowserProviderLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/csrfToken" {
			t.Errorf("unexpected request path %q", r.URL.Path)
		}
		session, err := r.Cookie("ses")
		if err != nil || session.Value != "browser-session" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"token":"browser-token"}`))
	}))
	defer server.Close()

	page := &fakePage{
		locations: []string{
			"https://account.example/login",
			"https://access.example/qr",
			"https://console.example/chat/",
		},
		cookies: map[string]string{"ses": "browser-session", "other": "x"},
	}
	provider, err := NewBrowserProvider(BrowserConfig{
		Page:         page,
		ChatURL:      server.URL,
		LoginDomains: []string{"https://account.example", "https://access.example"},
		PollInterval: time.Millisecond,
		HTTPClient:   server.Client(),
	})
	if err != nil {
		t.Fatalf("NewBrowserProvider failed: %v", err)
	}

	credential, err := provider.Login(context.Background())
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if credential.Session != "browser-session" {
		t.Errorf("Session = %q, want %q", credential.Session, "browser-session")
	}
	if credential.XSRFToken != "browser-token" {
		t.Errorf("XSRFToken = %q, want %q", credential.XSRFToken, "browser-token")
	}
}

func TestBrowserProviderMissingSessionCookie(t *testing.T) {
	page := &fakePage{
		locations: []string{"https://console.example/chat/"},
		cookies:   map[string]string{"other": "x"},
	}
	provider, err := NewBrowserProvider(BrowserConfig{
		Page:         page,
		LoginDomains: []string{"https://account.example"},
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBrowserProvider failed: %v", err)
	}

	_, err = provider.Login(context.Background())
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("Login error = %v, want *MissingFieldError", err)
	}
	if missing.Field != "ses" {
		t.Errorf("missing field = %q, want %q", missing.Field, "ses")
	}
}

func TestBrowserProviderCanceledWait(t *testing.T) {
	page := &fakePage{
		// Never leaves the login domain.
		locations: []string{"https://account.example/login"},
		cookies:   map[string]string{},
	}
	provider, err := NewBrowserProvider(BrowserConfig{
		Page:         page,
		LoginDomains: []string{"https://account.example"},
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBrowserProvider failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = provider.Login(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Login error = %v, want deadline exceeded", err)
	}
}

func TestBrowserProviderRequiresPage(t *testing.T) {
	if _, err := NewBrowserProvider(BrowserConfig{}); err == nil {
		t.Fatal("expected error for nil Page")
	}
}

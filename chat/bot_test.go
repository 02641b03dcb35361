// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// rosterServer serves a fixed body for the bot roster endpoint.
func rosterServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/bots" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("noFilter"); got != "true" {
			t.Errorf("noFilter = %q, want %q", got, "true")
		}
		if got := r.URL.Query().Get("limit"); got != "1000" {
			t.Errorf("limit = %q, want %q", got, "1000")
		}
		w.Write([]byte(body))
	}))
}

func TestBotResolution(t *testing.T) {
	server := rosterServer(t, `{"list":[
		{"botId":"B1","basicSearchId":"S1","name":"first"},
		{"botId":"B2","basicSearchId":"S2","name":"target"},
		{"botId":"B3","basicSearchId":"S3","name":"target"}
	]}`)
	defer server.Close()

	session := newTestSession(t, server)
	bot, err := session.Bot(context.Background(), "target")
	if err != nil {
		t.Fatalf("Bot failed: %v", err)
	}

	// First exact match wins over the duplicate.
	descriptor := bot.Descriptor()
	if descriptor.BotID != "B2" {
		t.Errorf("BotID = %q, want %q", descriptor.BotID, "B2")
	}
	if descriptor.BasicSearchID != "S2" {
		t.Errorf("BasicSearchID = %q, want %q", descriptor.BasicSearchID, "S2")
	}
	if bot.Session() != session {
		t.Error("Session() should return the resolving session")
	}
}

func TestBotResolutionEmptyRoster(t *testing.T) {
	server := rosterServer(t, `{"list":[]}`)
	defer server.Close()

	session := newTestSession(t, server)
	_, err := session.Bot(context.Background(), "target")

	var notExists *BotNotExistsError
	if !errors.As(err, &notExists) {
		t.Fatalf("error = %v, want *BotNotExistsError", err)
	}
}

func TestBotResolutionNoMatch(t *testing.T) {
	server := rosterServer(t, `{"list":[{"botId":"B1","name":"other"}]}`)
	defer server.Close()

	session := newTestSession(t, server)
	_, err := session.Bot(context.Background(), "target")

	var notFound *BotNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *BotNotFoundError", err)
	}
	if notFound.Name != "target" {
		t.Errorf("Name = %q, want %q", notFound.Name, "target")
	}
	if !strings.Contains(string(notFound.Roster), "other") {
		t.Error("Roster should carry the raw payload")
	}
}

func TestBotResolutionMissingListKey(t *testing.T) {
	server := rosterServer(t, `{"unexpected":"shape"}`)
	defer server.Close()

	session := newTestSession(t, server)
	_, err := session.Bot(context.Background(), "target")

	// A structurally unusable roster is not-found, never not-exists:
	// not-exists asserts the account has no bots, which an unreadable
	// payload cannot establish.
	var notFound *BotNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *BotNotFoundError", err)
	}
}

func TestStreamingToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/bots", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"list":[{"botId":"B1","basicSearchId":"S1","name":"target"}]}`))
	})
	mux.HandleFunc("POST /api/v1/bots/B1/streamingApiToken", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"streamingApiToken":"stream-token","lastEventId":"42"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	session := newTestSession(t, server)
	bot, err := session.Bot(context.Background(), "target")
	if err != nil {
		t.Fatalf("Bot failed: %v", err)
	}

	token, err := bot.StreamingToken(context.Background())
	if err != nil {
		t.Fatalf("StreamingToken failed: %v", err)
	}
	if token.Token != "stream-token" {
		t.Errorf("Token = %q, want %q", token.Token, "stream-token")
	}
	if token.LastEventID != "42" {
		t.Errorf("LastEventID = %q, want %q", token.LastEventID, "42")
	}
}

func TestStreamingTokenMissingToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/bots", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"list":[{"botId":"B1","name":"target"}]}`))
	})
	mux.HandleFunc("POST /api/v1/bots/B1/streamingApiToken", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	session := newTestSession(t, server)
	bot, err := session.Bot(context.Background(), "target")
	if err != nil {
		t.Fatalf("Bot failed: %v", err)
	}

	if _, err := bot.StreamingToken(context.Background()); err == nil {
		t.Fatal("expected error for a token response without a token")
	}
}

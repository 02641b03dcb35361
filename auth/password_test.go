// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// passwordServer fakes the full four-stage password exchange on one
// host serving as both the account and chat service.
func passwordServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("redirectUri") == "" {
			t.Error("pre-login request missing redirectUri")
		}
		http.SetCookie(w, &http.Cookie{Name: "RSESSION", Value: "pre-session"})
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "pre-token"})
		// The production endpoint redirects to the login form; the
		// provider must not follow it.
		w.Header().Set("Location", "/login/form")
		w.WriteHeader(http.StatusFound)
	})

	mux.HandleFunc("POST /api/login/email", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-XSRF-TOKEN"); got != "pre-token" {
			t.Errorf("login POST X-XSRF-TOKEN = %q, want %q", got, "pre-token")
		}
		if _, err := r.Cookie("RSESSION"); err != nil {
			t.Error("login POST missing RSESSION cookie")
		}
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding login body: %v", err)
		}
		if body.Email != "operator@example.com" || body.Password != "hunter2" {
			t.Errorf("login body = %+v", body)
		}
		http.SetCookie(w, &http.Cookie{Name: "ses", Value: "new-session", Path: "/"})
		w.Write([]byte(`{}`))
	})

	mux.HandleFunc("GET /api/v1/csrfToken", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("ses")
		if err != nil || cookie.Value != "new-session" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"token":"fresh-token"}`))
	})

	return httptest.NewServer(mux)
}

func TestPasswordProviderLogin(t *testing.T) {
	server := passwordServer(t)
	defer server.Close()

	provider, err := NewPasswordProvider(PasswordConfig{
		Username:   "operator@example.com",
		Password:   "hunter2",
		AccountURL: server.URL,
		ChatURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	credential, err := provider.Login(context.Background())
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if credential.Session != "new-session" {
		t.Errorf("Session = %q, want %q", credential.Session, "new-session")
	}
	if credential.XSRFToken != "fresh-token" {
		t.Errorf("XSRFToken = %q, want %q", credential.XSRFToken, "fresh-token")
	}
}

func TestPasswordProviderMissingPreLoginCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No cookies at all.
		w.Write([]byte("login page"))
	}))
	defer server.Close()

	provider, err := NewPasswordProvider(PasswordConfig{
		Username:   "operator@example.com",
		Password:   "hunter2",
		AccountURL: server.URL,
		ChatURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	_, err = provider.Login(context.Background())
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("Login error = %v, want *MissingFieldError", err)
	}
	if missing.Field != "RSESSION" {
		t.Errorf("missing field = %q, want %q", missing.Field, "RSESSION")
	}
}

func TestPasswordProviderRejectedCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "RSESSION", Value: "pre-session"})
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "pre-token"})
	})
	mux.HandleFunc("POST /api/login/email", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"AUTHENTICATION_FAILED"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider, err := NewPasswordProvider(PasswordConfig{
		Username:   "operator@example.com",
		Password:   "wrong",
		AccountURL: server.URL,
		ChatURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	_, err = provider.Login(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected credentials")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestPasswordProviderNoSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "RSESSION", Value: "pre-session"})
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "pre-token"})
	})
	mux.HandleFunc("POST /api/login/email", func(w http.ResponseWriter, r *http.Request) {
		// 2xx but no ses cookie, e.g. a pending 2FA challenge.
		w.Write([]byte(`{"nextStep":"PIN"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider, err := NewPasswordProvider(PasswordConfig{
		Username:   "operator@example.com",
		Password:   "hunter2",
		AccountURL: server.URL,
		ChatURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
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

func TestPasswordProviderRequiresCredentials(t *testing.T) {
	if _, err := NewPasswordProvider(PasswordConfig{Password: "x"}); err == nil {
		t.Error("expected error for missing username")
	}
	if _, err := NewPasswordProvider(PasswordConfig{Username: "x"}); err == nil {
		t.Error("expected error for missing password")
	}
}

func TestPasswordProviderDescribeRedacts(t *testing.T) {
	provider, err := NewPasswordProvider(PasswordConfig{
		Username: "operator@example.com",
		Password: "hunter2",
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	description := provider.Describe()
	if strings.Contains(description, "hunter2") {
		t.Errorf("Describe leaked the password: %q", description)
	}
	if !strings.Contains(description, "operator@example.com") {
		t.Errorf("Describe should name the account: %q", description)
	}
}

// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/miloira/line-web/lib/netutil"
)

// PageContext is the surface of an externally driven browser or
// automation session the BrowserProvider harvests credentials from.
// The caller owns navigation: the context must already be pointed at
// the console before Login is called, and the operator (or automation)
// completes the login interactively.
type PageContext interface {
	// Location returns the context's current URL.
	Location() string
	// Cookies returns all cookies visible to the context, keyed by name.
	Cookies() map[string]string
}

// BrowserConfig holds configuration for creating a BrowserProvider.
type BrowserConfig struct {
	// Page is the browser context to harvest. Required.
	Page PageContext

	// ChatURL overrides the chat service base URL used for the token
	// fetch. Empty uses DefaultChatURL.
	ChatURL string
	// LoginDomains are URL prefixes the context sits on while login is
	// still in progress. Login polls until Location leaves all of them.
	// Empty uses the account and access services.
	LoginDomains []string
	// PollInterval is the delay between Location checks. Zero uses one
	// second, matching the console's own polling cadence.
	PollInterval time.Duration

	// HTTPClient is used for the token fetch. If nil, http.DefaultClient.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// BrowserProvider extracts a credential from an already-authenticated
// browser context: it waits for the context to navigate past the login
// and access domains, harvests its cookies, and fetches a CSRF token
// using them.
type BrowserProvider struct {
	page         PageContext
	chatURL      string
	loginDomains []string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewBrowserProvider creates a provider over an external browser context.
func NewBrowserProvider(config BrowserConfig) (*BrowserProvider, error) {
	if config.Page == nil {
		return nil, fmt.Errorf("auth: Page is required")
	}
	chatURL := strings.TrimRight(config.ChatURL, "/")
	if chatURL == "" {
		chatURL = DefaultChatURL
	}
	loginDomains := config.LoginDomains
	if len(loginDomains) == 0 {
		loginDomains = []string{DefaultAccountURL, DefaultAccessURL}
	}
	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserProvider{
		page:         config.Page,
		chatURL:      chatURL,
		loginDomains: loginDomains,
		pollInterval: pollInterval,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// Login waits for the context to leave the login domains, harvests its
// cookies, and fetches the CSRF token with them.
func (p *BrowserProvider) Login(ctx context.Context) (Credential, error) {
	if err := p.waitForConsole(ctx); err != nil {
		return Credential{}, err
	}

	cookies := p.page.Cookies()
	session, ok := cookies["ses"]
	if !ok {
		return Credential{}, &MissingFieldError{Field: "ses", Stage: "browser cookies"}
	}

	token, err := p.fetchToken(ctx, cookies)
	if err != nil {
		return Credential{}, err
	}

	p.logger.Info("browser login complete")
	return Credential{Session: session, XSRFToken: token}, nil
}

// waitForConsole polls the context's location until it leaves every
// login domain, meaning the platform has redirected to the console.
func (p *BrowserProvider) waitForConsole(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		location := p.page.Location()
		onLoginDomain := false
		for _, domain := range p.loginDomains {
			if strings.HasPrefix(location, domain) {
				onLoginDomain = true
				break
			}
		}
		if !onLoginDomain {
			return nil
		}
		p.logger.Debug("waiting for browser login", "location", location)

		select {
		case <-ctx.Done():
			return fmt.Errorf("auth: waiting for browser login: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// fetchToken fetches the CSRF token from the chat service using the
// harvested browser cookies.
func (p *BrowserProvider) fetchToken(ctx context.Context, cookies map[string]string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.chatURL+"/api/v1/csrfToken", nil)
	if err != nil {
		return "", fmt.Errorf("auth: creating csrf token request: %w", err)
	}
	for name, value := range cookies {
		request.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	response, err := p.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("auth: csrf token request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("auth: csrf token fetch returned status %d: %s",
			response.StatusCode, netutil.ErrorBody(response.Body))
	}
	var parsed csrfTokenResponse
	if err := netutil.DecodeResponse(response.Body, &parsed); err != nil {
		return "", fmt.Errorf("auth: parsing csrf token response: %w", err)
	}
	if parsed.Token == "" {
		return "", &MissingFieldError{Field: "token", Stage: "csrfToken response"}
	}
	return parsed.Token, nil
}

// Describe returns the variant name. Harvested cookies never appear in
// diagnostics.
func (p *BrowserProvider) Describe() string {
	return "BrowserProvider(page=<browser context>)"
}

// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/miloira/line-web/auth"
)

// defaultClientVersion is the x-oa-chat-client-version header value the
// official web console sends; the platform rejects requests without it.
const defaultClientVersion = "20230404142351"

// defaultUserAgent matches a desktop Chrome build. The chat API is
// served to browsers only, so the client presents as one.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// ChatURL is the chat service base URL. Empty uses the production
	// host. Tests point this at a local server.
	ChatURL string
	// ManagerURL is the account-manager service base URL.
	ManagerURL string
	// StreamingURL is the SSE event feed base URL.
	StreamingURL string

	// ClientVersion overrides the x-oa-chat-client-version header.
	ClientVersion string
	// UserAgent overrides the user-agent header.
	UserAgent string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used. The streaming connection shares it, so it must not carry
	// a global timeout.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// defaultStreamingURL is the production SSE feed host.
const defaultStreamingURL = "https://chat-streaming-api.line.biz"

// Client is an unauthenticated platform client. It holds the service
// base URLs and HTTP transport shared by every Session derived from it.
type Client struct {
	chatURL       string
	managerURL    string
	streamingURL  string
	clientVersion string
	userAgent     string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates a new unauthenticated platform client.
func NewClient(config ClientConfig) (*Client, error) {
	chatURL := strings.TrimRight(config.ChatURL, "/")
	if chatURL == "" {
		chatURL = auth.DefaultChatURL
	}
	managerURL := strings.TrimRight(config.ManagerURL, "/")
	if managerURL == "" {
		managerURL = auth.DefaultManagerURL
	}
	streamingURL := strings.TrimRight(config.StreamingURL, "/")
	if streamingURL == "" {
		streamingURL = defaultStreamingURL
	}
	for _, base := range []string{chatURL, managerURL, streamingURL} {
		if _, err := url.Parse(base); err != nil {
			return nil, fmt.Errorf("chat: invalid base URL %q: %w", base, err)
		}
	}

	clientVersion := config.ClientVersion
	if clientVersion == "" {
		clientVersion = defaultClientVersion
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		chatURL:       chatURL,
		managerURL:    managerURL,
		streamingURL:  streamingURL,
		clientVersion: clientVersion,
		userAgent:     userAgent,
		httpClient:    httpClient,
		logger:        logger,
	}, nil
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. The streaming engine calls this after a
// stream error so the reconnect opens a fresh TCP connection instead of
// reusing a poisoned pooled one.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Login runs the provider's flow and builds an authenticated Session
// from the resulting credential. A provider failure is terminal and
// surfaces as *LoginError carrying the provider's description.
func (c *Client) Login(ctx context.Context, provider auth.Provider) (*Session, error) {
	credential, err := provider.Login(ctx)
	if err != nil {
		return nil, &LoginError{Provider: provider.Describe(), Err: err}
	}

	c.logger.Info("logged in", "provider", provider.Describe())
	return &Session{
		client:        c,
		sessionCookie: credential.Session,
		xsrfToken:     credential.XSRFToken,
	}, nil
}

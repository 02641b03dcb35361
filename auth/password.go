// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/miloira/line-web/lib/netutil"
)

// PasswordConfig holds configuration for creating a PasswordProvider.
type PasswordConfig struct {
	// Username is the operator's login email address.
	Username string
	// Password is the operator's password.
	Password string

	// AccountURL overrides the account service base URL. Empty uses
	// DefaultAccountURL. Tests point this at a local server.
	AccountURL string
	// ChatURL overrides the chat service base URL used for the final
	// token fetch. Empty uses DefaultChatURL.
	ChatURL string
	// RedirectURI is the post-login redirect target sent on the
	// pre-login page request. Empty uses DefaultManagerURL + "/".
	RedirectURI string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used. The provider never installs a cookie jar on this client;
	// it builds its own per-login jar.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// PasswordProvider performs the email/password login exchange:
//
//  1. GET the login page unauthenticated to obtain the pre-login
//     RSESSION and XSRF-TOKEN cookies.
//  2. POST the credentials to /api/login/email carrying those as
//     request cookies and the X-XSRF-TOKEN header.
//  3. Read the resulting "ses" session cookie from the jar.
//  4. Fetch a fresh XSRF token from the chat service's csrfToken
//     endpoint, authenticated by the new session cookie.
//
// A field missing at any stage is a *MissingFieldError: the flow has no
// partial-success mode.
type PasswordProvider struct {
	username    string
	password    string
	accountURL  string
	chatURL     string
	redirectURI string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewPasswordProvider creates a provider for email/password login.
func NewPasswordProvider(config PasswordConfig) (*PasswordProvider, error) {
	if config.Username == "" {
		return nil, fmt.Errorf("auth: username is required")
	}
	if config.Password == "" {
		return nil, fmt.Errorf("auth: password is required")
	}

	accountURL := strings.TrimRight(config.AccountURL, "/")
	if accountURL == "" {
		accountURL = DefaultAccountURL
	}
	chatURL := strings.TrimRight(config.ChatURL, "/")
	if chatURL == "" {
		chatURL = DefaultChatURL
	}
	redirectURI := config.RedirectURI
	if redirectURI == "" {
		redirectURI = DefaultManagerURL + "/"
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PasswordProvider{
		username:    config.Username,
		password:    config.Password,
		accountURL:  accountURL,
		chatURL:     chatURL,
		redirectURI: redirectURI,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// loginRequest is the body of POST {account}/api/login/email. The
// stayLoggedIn and gRecaptchaResponse values are fixed: the client
// never requests a persistent login and never answers a captcha.
type loginRequest struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	StayLoggedIn       bool   `json:"stayLoggedIn"`
	GRecaptchaResponse string `json:"gRecaptchaResponse"`
}

// Login runs the four-stage exchange described on PasswordProvider.
func (p *PasswordProvider) Login(ctx context.Context) (Credential, error) {
	rsession, preToken, err := p.preLoginCookies(ctx)
	if err != nil {
		return Credential{}, err
	}

	// The login POST and the final token fetch share one cookie jar so
	// the "ses" cookie set by the account service is presented to the
	// chat service, mirroring a browser session.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return Credential{}, fmt.Errorf("auth: creating cookie jar: %w", err)
	}
	accountBase, err := url.Parse(p.accountURL)
	if err != nil {
		return Credential{}, fmt.Errorf("auth: invalid account URL %q: %w", p.accountURL, err)
	}
	jar.SetCookies(accountBase, []*http.Cookie{
		{Name: "RSESSION", Value: rsession},
		{Name: "XSRF-TOKEN", Value: preToken},
	})
	client := &http.Client{
		Transport: p.httpClient.Transport,
		Timeout:   p.httpClient.Timeout,
		Jar:       jar,
	}

	if err := p.postCredentials(ctx, client, preToken); err != nil {
		return Credential{}, err
	}

	session, err := p.sessionCookie(jar)
	if err != nil {
		return Credential{}, err
	}

	token, err := p.freshToken(ctx, client)
	if err != nil {
		return Credential{}, err
	}

	p.logger.Info("password login complete", "username", p.username)
	return Credential{Session: session, XSRFToken: token}, nil
}

// preLoginCookies fetches the login page without authentication and
// extracts the transient RSESSION and XSRF-TOKEN cookies from the
// response. Redirects are not followed: the cookies of interest are set
// on the first response.
func (p *PasswordProvider) preLoginCookies(ctx context.Context) (rsession, token string, err error) {
	requestURL := p.accountURL + "/login?" + url.Values{"redirectUri": {p.redirectURI}}.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("auth: creating pre-login request: %w", err)
	}

	client := &http.Client{
		Transport: p.httpClient.Transport,
		Timeout:   p.httpClient.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	response, err := client.Do(request)
	if err != nil {
		return "", "", fmt.Errorf("auth: pre-login request failed: %w", err)
	}
	defer response.Body.Close()

	for _, cookie := range response.Cookies() {
		switch cookie.Name {
		case "RSESSION":
			rsession = cookie.Value
		case "XSRF-TOKEN":
			token = cookie.Value
		}
	}
	if rsession == "" {
		return "", "", &MissingFieldError{Field: "RSESSION", Stage: "pre-login response"}
	}
	if token == "" {
		return "", "", &MissingFieldError{Field: "XSRF-TOKEN", Stage: "pre-login response"}
	}
	return rsession, token, nil
}

// postCredentials submits the email/password form.
func (p *PasswordProvider) postCredentials(ctx context.Context, client *http.Client, preToken string) error {
	body, err := json.Marshal(loginRequest{
		Email:    p.username,
		Password: p.password,
	})
	if err != nil {
		return fmt.Errorf("auth: encoding login request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.accountURL+"/api/login/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("auth: creating login request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-XSRF-TOKEN", preToken)

	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("auth: login request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("auth: login rejected with status %d: %s",
			response.StatusCode, netutil.ErrorBody(response.Body))
	}
	return nil
}

// sessionCookie reads the "ses" cookie the login POST left in the jar.
// The cookie may be scoped to either the account or the chat host
// depending on the Set-Cookie domain, so both are checked.
func (p *PasswordProvider) sessionCookie(jar http.CookieJar) (string, error) {
	for _, base := range []string{p.accountURL, p.chatURL} {
		parsed, err := url.Parse(base)
		if err != nil {
			continue
		}
		for _, cookie := range jar.Cookies(parsed) {
			if cookie.Name == "ses" {
				return cookie.Value, nil
			}
		}
	}
	return "", &MissingFieldError{Field: "ses", Stage: "login response cookies"}
}

// freshToken fetches the post-login XSRF token. The pre-login token is
// rotated by the platform once the session is established, so the
// credential must carry this fresh value.
func (p *PasswordProvider) freshToken(ctx context.Context, client *http.Client) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.chatURL+"/api/v1/csrfToken", nil)
	if err != nil {
		return "", fmt.Errorf("auth: creating csrf token request: %w", err)
	}
	response, err := client.Do(request)
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

// Describe returns the variant name with the password redacted.
func (p *PasswordProvider) Describe() string {
	return fmt.Sprintf("PasswordProvider(username=%q, password=<redacted>)", p.username)
}

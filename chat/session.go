// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"

	"github.com/miloira/line-web/lib/netutil"
)

// Session is an authenticated transport context: the session cookie and
// XSRF token from a completed login, applied to every request alongside
// the client's fixed version and user-agent headers.
//
// A Session is shared read-mostly: the streaming engine and any number
// of concurrent REST calls use it simultaneously. The only mutation is
// SetXSRFToken, which applies a platform-rotated token atomically; the
// base login flows never exercise it.
type Session struct {
	client *Client

	mu            sync.RWMutex
	sessionCookie string
	xsrfToken     string
}

// XSRFToken returns the current XSRF token.
func (s *Session) XSRFToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.xsrfToken
}

// SetXSRFToken replaces the XSRF token. Used when the platform rotates
// the token mid-session; requests in flight keep the value they were
// built with.
func (s *Session) SetXSRFToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xsrfToken = token
}

// decorate applies the authenticated transport state to a request.
func (s *Session) decorate(request *http.Request) {
	s.mu.RLock()
	token, session := s.xsrfToken, s.sessionCookie
	s.mu.RUnlock()

	request.Header.Set("x-oa-chat-client-version", s.client.clientVersion)
	request.Header.Set("x-xsrf-token", token)
	request.Header.Set("user-agent", s.client.userAgent)
	request.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
	request.AddCookie(&http.Cookie{Name: "ses", Value: session})
}

// doRequest performs an authenticated JSON API request and returns the
// response body. On 2xx, returns the body. On 4xx/5xx, returns a
// *PlatformError. query and requestBody may be nil.
//
// Request URLs are built by string concatenation: every path segment
// this client sends is a platform-assigned opaque identifier that needs
// no escaping, and url.URL re-encoding has bitten the path-building
// approach before.
func (s *Session) doRequest(ctx context.Context, method, base, path string, query url.Values, requestBody any) ([]byte, error) {
	requestURL := base + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("chat: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("chat: creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	s.decorate(request)

	response, err := s.client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("chat: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("chat: reading response body: %w", err)
	}
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	platformErr := &PlatformError{StatusCode: response.StatusCode, Body: string(responseBody)}
	// Best effort: many error responses carry a code/message pair, but
	// not all. The raw body is kept either way.
	_ = json.Unmarshal(responseBody, platformErr)
	return nil, platformErr
}

// doRaw performs an authenticated GET for binary content (media
// previews). The full URL is given by the caller since preview content
// lives on dedicated hosts.
func (s *Session) doRaw(ctx context.Context, requestURL string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("chat: creating request: %w", err)
	}
	s.decorate(request)

	response, err := s.client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("chat: request to %s failed: %w", requestURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &PlatformError{
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}
	return netutil.ReadResponse(response.Body)
}

// doUpload performs an authenticated multipart file upload.
func (s *Session) doUpload(ctx context.Context, base, path, filename string, file io.Reader) ([]byte, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("chat: creating multipart form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("chat: buffering upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("chat: finalizing multipart form: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, &buffer)
	if err != nil {
		return nil, fmt.Errorf("chat: creating upload request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	s.decorate(request)

	response, err := s.client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("chat: upload to %s failed: %w", path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("chat: reading upload response: %w", err)
	}
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}
	platformErr := &PlatformError{StatusCode: response.StatusCode, Body: string(responseBody)}
	_ = json.Unmarshal(responseBody, platformErr)
	return nil, platformErr
}

// getJSON is doRequest for GETs returning a pass-through JSON body.
func (s *Session) getJSON(ctx context.Context, base, path string, query url.Values) (json.RawMessage, error) {
	return s.doRequest(ctx, http.MethodGet, base, path, query, nil)
}

// Me returns the operator account information.
func (s *Session) Me(ctx context.Context) (*Account, error) {
	body, err := s.doRequest(ctx, http.MethodGet, s.client.chatURL, "/api/v1/me", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chat: fetching account: %w", err)
	}
	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("chat: parsing account response: %w", err)
	}
	account.Raw = body
	return &account, nil
}

// CSRFToken fetches the current XSRF token from the platform. Callers
// that detect token rotation pair this with SetXSRFToken.
func (s *Session) CSRFToken(ctx context.Context) (string, error) {
	body, err := s.doRequest(ctx, http.MethodGet, s.client.chatURL, "/api/v1/csrfToken", nil, nil)
	if err != nil {
		return "", fmt.Errorf("chat: fetching csrf token: %w", err)
	}
	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("chat: parsing csrf token response: %w", err)
	}
	return parsed.Token, nil
}

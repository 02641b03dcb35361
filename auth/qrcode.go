// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/miloira/line-web/lib/netutil"
)

// qrChannelID is the OAuth channel the official web console uses for
// QR login. The QR session and wait endpoints both require it.
const qrChannelID = "1576775644"

// QRConfig holds configuration for creating a QRProvider.
type QRConfig struct {
	// Dir is the directory qrcode.png is written to. Empty means the
	// current directory. Created if it does not exist.
	Dir string

	// AccessURL overrides the access service base URL. Empty uses
	// DefaultAccessURL. Tests point this at a local server.
	AccessURL string

	// Open is invoked with the written QR image path so the operator
	// can scan it. Nil uses the platform's default opener (xdg-open,
	// open, or start). Tests replace it with a no-op.
	Open func(path string) error

	// HTTPClient is used for all requests. If nil, http.DefaultClient.
	// The wait request long-polls until the operator scans, so the
	// client must not carry a short timeout.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// QRProvider drives the QR-code login handshake: it requests a QR
// session, downloads the code image, writes it to disk, opens it for
// the operator to scan, and long-polls the wait endpoint until the
// scan completes.
//
// Known-incomplete variant: the observed flow ends at the wait
// endpoint without yielding session credentials, so Login returns an
// empty Credential. Callers must treat the result as provisional; a
// session built from it cannot authenticate.
type QRProvider struct {
	dir        string
	accessURL  string
	open       func(path string) error
	httpClient *http.Client
	logger     *slog.Logger
}

// NewQRProvider creates a provider for the QR-code handshake.
func NewQRProvider(config QRConfig) *QRProvider {
	dir := config.Dir
	if dir == "" {
		dir = "."
	}
	accessURL := strings.TrimRight(config.AccessURL, "/")
	if accessURL == "" {
		accessURL = DefaultAccessURL
	}
	open := config.Open
	if open == nil {
		open = openFile
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QRProvider{
		dir:        dir,
		accessURL:  accessURL,
		open:       open,
		httpClient: httpClient,
		logger:     logger,
	}
}

// qrSessionResponse is the body of GET {access}/qrlogin/v1/session.
type qrSessionResponse struct {
	QRCodePath string `json:"qrCodePath"`
}

// Login runs the handshake. The returned Credential is always empty;
// see the QRProvider doc comment.
func (p *QRProvider) Login(ctx context.Context) (Credential, error) {
	codePath, err := p.qrSession(ctx)
	if err != nil {
		return Credential{}, err
	}
	// The session token is the last segment of the QR image path and
	// doubles as the qrSes cookie on the image and wait requests.
	qrSes := path.Base(codePath)

	image, err := p.fetchImage(ctx, codePath, qrSes)
	if err != nil {
		return Credential{}, err
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return Credential{}, fmt.Errorf("auth: creating qrcode directory: %w", err)
	}
	imagePath := filepath.Join(p.dir, "qrcode.png")
	if err := os.WriteFile(imagePath, image, 0o644); err != nil {
		return Credential{}, fmt.Errorf("auth: writing qrcode image: %w", err)
	}
	p.logger.Info("qr code written, waiting for scan", "path", imagePath)

	if err := p.open(imagePath); err != nil {
		return Credential{}, fmt.Errorf("auth: opening qrcode image: %w", err)
	}

	if err := p.wait(ctx, qrSes); err != nil {
		return Credential{}, err
	}

	p.logger.Warn("qr login handshake finished without credentials; the resulting session is unauthenticated")
	return Credential{}, nil
}

// qrSession requests a QR session descriptor and returns the QR image
// path. The state nonce in the return URI is fresh per attempt.
func (p *QRProvider) qrSession(ctx context.Context) (string, error) {
	returnURI := "/oauth2/v2.1/authorize/consent?" + url.Values{
		"response_type": {"code"},
		"client_id":     {qrChannelID},
		"redirect_uri":  {DefaultAccountURL + "/login/line-callback"},
		"scope":         {"profile"},
		"state":         {uuid.NewString()},
	}.Encode()
	requestURL := p.accessURL + "/qrlogin/v1/session?" + url.Values{
		"channelId": {qrChannelID},
		"returnUri": {returnURI},
	}.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("auth: creating qr session request: %w", err)
	}
	response, err := p.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("auth: qr session request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("auth: qr session returned status %d: %s",
			response.StatusCode, netutil.ErrorBody(response.Body))
	}
	var parsed qrSessionResponse
	if err := netutil.DecodeResponse(response.Body, &parsed); err != nil {
		return "", fmt.Errorf("auth: parsing qr session response: %w", err)
	}
	if parsed.QRCodePath == "" {
		return "", &MissingFieldError{Field: "qrCodePath", Stage: "qr session response"}
	}
	return parsed.QRCodePath, nil
}

// fetchImage downloads the QR code image, authenticated by the qrSes
// cookie embedded in the image path.
func (p *QRProvider) fetchImage(ctx context.Context, codePath, qrSes string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.accessURL+codePath, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: creating qr image request: %w", err)
	}
	request.AddCookie(&http.Cookie{Name: "qrSes", Value: qrSes})

	response, err := p.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("auth: qr image request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("auth: qr image returned status %d: %s",
			response.StatusCode, netutil.ErrorBody(response.Body))
	}
	return netutil.ReadResponse(response.Body)
}

// wait long-polls the wait endpoint until the operator scans the code.
// The server holds the connection; cancellation comes from ctx.
func (p *QRProvider) wait(ctx context.Context, qrSes string) error {
	requestURL := p.accessURL + "/qrlogin/v1/qr/wait?" + url.Values{
		"channelId": {qrChannelID},
	}.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("auth: creating qr wait request: %w", err)
	}
	request.AddCookie(&http.Cookie{Name: "qrSes", Value: qrSes})

	response, err := p.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("auth: qr wait request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("auth: qr wait returned status %d: %s",
			response.StatusCode, netutil.ErrorBody(response.Body))
	}
	return nil
}

// Describe returns the variant name and the image directory. Nothing
// here is secret.
func (p *QRProvider) Describe() string {
	return fmt.Sprintf("QRProvider(dir=%q)", p.dir)
}

// openFile opens a file with the platform's default viewer.
func openFile(path string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path).Start()
	case "darwin":
		return exec.Command("open", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}

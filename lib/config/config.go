// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for line-web commands.
//
// Configuration is loaded from a single file specified by:
//   - LINE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The config file is the
// single source of truth; environment variables do not override values.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthMethod selects which login flow a command runs.
type AuthMethod string

const (
	// Cookie logs in with a cookie string captured from a browser.
	Cookie AuthMethod = "cookie"
	// Password logs in with business-account email and password.
	Password AuthMethod = "password"
	// QRCode logs in by writing a QR image for a phone to scan.
	QRCode AuthMethod = "qrcode"
)

// Config is the master configuration for a line-web command.
type Config struct {
	// Auth configures the login flow.
	Auth AuthConfig `yaml:"auth"`

	// Bot is the exact display name of the bot to operate.
	Bot string `yaml:"bot"`

	// Endpoints overrides the production service URLs. Empty fields use
	// the production hosts; set these only against a test deployment.
	Endpoints EndpointsConfig `yaml:"endpoints"`

	// Streaming configures the event feed connection.
	Streaming StreamingConfig `yaml:"streaming"`
}

// AuthConfig configures the login flow.
type AuthConfig struct {
	// Method selects the flow: cookie, password, or qrcode.
	Method AuthMethod `yaml:"method"`

	// Cookies is the raw browser cookie string (cookie method).
	Cookies string `yaml:"cookies"`

	// Username and Password are business-account credentials (password
	// method).
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// QRCodeDir is where the QR image is written (qrcode method).
	// Default: the current directory.
	QRCodeDir string `yaml:"qrcode_dir"`
}

// EndpointsConfig overrides service base URLs.
type EndpointsConfig struct {
	Chat      string `yaml:"chat"`
	Manager   string `yaml:"manager"`
	Streaming string `yaml:"streaming"`
}

// StreamingConfig configures the event feed connection.
type StreamingConfig struct {
	// ClientType identifies the client platform to the feed.
	// Default: PC.
	ClientType string `yaml:"client_type"`

	// DeviceType is forwarded verbatim; empty is accepted.
	DeviceType string `yaml:"device_type"`

	// PingSecs is the requested keep-alive interval in seconds.
	// Default: 60.
	PingSecs int `yaml:"ping_secs"`

	// ReconnectDelay is the pause between a stream failure and the next
	// connection attempt, in Go duration syntax. Default: 500ms.
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// Default returns the default configuration. The defaults ensure all
// optional fields have usable zero-values; auth and bot are still
// required from the file.
func Default() *Config {
	return &Config{
		Auth: AuthConfig{
			QRCodeDir: ".",
		},
		Streaming: StreamingConfig{
			ClientType:     "PC",
			PingSecs:       60,
			ReconnectDelay: 500 * time.Millisecond,
		},
	}
}

// Load loads configuration from the LINE_CONFIG environment variable.
//
// There are no fallbacks - if LINE_CONFIG is not set, this fails. This
// keeps configuration deterministic with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("LINE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("LINE_CONFIG environment variable not set; " +
			"set it to the path of your line-web.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path and validates
// it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Auth.Method {
	case Cookie:
		if c.Auth.Cookies == "" {
			errs = append(errs, fmt.Errorf("auth.cookies is required for the cookie method"))
		}
	case Password:
		if c.Auth.Username == "" {
			errs = append(errs, fmt.Errorf("auth.username is required for the password method"))
		}
		if c.Auth.Password == "" {
			errs = append(errs, fmt.Errorf("auth.password is required for the password method"))
		}
	case QRCode:
		// QRCodeDir defaults to the current directory.
	case "":
		errs = append(errs, fmt.Errorf("auth.method is required (cookie, password, or qrcode)"))
	default:
		errs = append(errs, fmt.Errorf("invalid auth.method: %s", c.Auth.Method))
	}

	if c.Bot == "" {
		errs = append(errs, fmt.Errorf("bot is required"))
	}

	if c.Streaming.PingSecs < 0 {
		errs = append(errs, fmt.Errorf("streaming.ping_secs must not be negative"))
	}
	if c.Streaming.ReconnectDelay < 0 {
		errs = append(errs, fmt.Errorf("streaming.reconnect_delay must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

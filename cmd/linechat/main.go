// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

// linechat connects to a LINE Official Account chat console, resolves a
// bot by name, enables chat on it, and streams its events to the log
// until interrupted. It doubles as the reference wiring for the chat
// package: config-driven provider selection, login, roster resolution,
// handler registration, and the reconnecting event loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/miloira/line-web/auth"
	"github.com/miloira/line-web/chat"
	"github.com/miloira/line-web/lib/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var botName string
	var verbose bool

	flagSet := pflag.NewFlagSet("linechat", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $LINE_CONFIG)")
	flagSet.StringVar(&botName, "bot", "", "bot display name (overrides the config file)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every streamed event")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if botName == "" {
		botName = cfg.Bot
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}

	client, err := chat.NewClient(chat.ClientConfig{
		ChatURL:      cfg.Endpoints.Chat,
		ManagerURL:   cfg.Endpoints.Manager,
		StreamingURL: cfg.Endpoints.Streaming,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := client.Login(ctx, provider)
	if err != nil {
		return err
	}

	account, err := session.Me(ctx)
	if err != nil {
		return err
	}
	logger.Info("authenticated", "user_id", account.UserID, "name", account.Name)

	bot, err := session.Bot(ctx, botName)
	if err != nil {
		return err
	}

	// Manual replies require chat mode; switch it on up front so sends
	// from handlers are not rejected.
	if _, err := bot.EnableChat(ctx, true); err != nil {
		return fmt.Errorf("enabling chat mode: %w", err)
	}

	if err := registerHandlers(bot, logger); err != nil {
		return err
	}

	err = bot.Run(ctx, chat.StreamOptions{
		ClientType:     cfg.Streaming.ClientType,
		DeviceType:     cfg.Streaming.DeviceType,
		PingSeconds:    cfg.Streaming.PingSecs,
		ReconnectDelay: cfg.Streaming.ReconnectDelay,
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

func buildProvider(cfg *config.Config, logger *slog.Logger) (auth.Provider, error) {
	switch cfg.Auth.Method {
	case config.Cookie:
		return auth.NewCookieProvider(cfg.Auth.Cookies), nil
	case config.Password:
		return auth.NewPasswordProvider(auth.PasswordConfig{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
			Logger:   logger,
		})
	case config.QRCode:
		return auth.NewQRProvider(auth.QRConfig{
			Dir:    cfg.Auth.QRCodeDir,
			Logger: logger,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported auth method: %s", cfg.Auth.Method)
	}
}

// registerHandlers wires the logging handlers: one wildcard handler at
// debug level and one message handler that surfaces chat activity at
// info level.
func registerHandlers(bot *chat.Bot, logger *slog.Logger) error {
	err := bot.Handle("", "", func(ctx context.Context, event chat.Event) {
		logger.Debug("event",
			"name", event.Name,
			"sub_event", event.SubEvent,
			"event_id", event.ID,
		)
	})
	if err != nil {
		return err
	}

	return bot.Handle("chat", "message", func(ctx context.Context, event chat.Event) {
		payload, _ := event.Data["payload"].(map[string]any)
		logger.Info("message",
			"chat_id", payload["chatId"],
			"message", payload["message"],
		)
	})
}

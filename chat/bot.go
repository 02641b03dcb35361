// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Bot is a handle on one managed bot: the resolved descriptor plus the
// session it was resolved on. All bot-scoped REST calls and the
// streaming engine hang off it. A client holds exactly one Bot for its
// lifetime; the handler registry is populated during setup and then
// read-only while streaming.
type Bot struct {
	session    *Session
	descriptor BotDescriptor
	dispatcher *dispatcher
}

// Descriptor returns the resolved bot descriptor.
func (b *Bot) Descriptor() BotDescriptor {
	return b.descriptor
}

// Session returns the session the bot was resolved on.
func (b *Bot) Session() *Session {
	return b.session
}

// Bot resolves a bot by exact name from the operator's roster.
//
// Resolution policy: an empty roster is *BotNotExistsError; a roster
// without a usable "list" key, or with no entry of the requested name,
// is *BotNotFoundError carrying the raw roster payload. The first
// exact match wins; duplicate names beyond the first are ignored.
func (s *Session) Bot(ctx context.Context, name string) (*Bot, error) {
	query := url.Values{
		"noFilter": {"true"},
		"limit":    {"1000"},
	}
	body, err := s.doRequest(ctx, http.MethodGet, s.client.chatURL, "/api/v1/bots", query, nil)
	if err != nil {
		return nil, fmt.Errorf("chat: fetching bot roster: %w", err)
	}

	var roster botList
	if err := json.Unmarshal(body, &roster); err != nil || roster.List == nil {
		return nil, &BotNotFoundError{Name: name, Roster: body}
	}
	if len(*roster.List) == 0 {
		return nil, &BotNotExistsError{}
	}

	for _, entry := range *roster.List {
		var descriptor BotDescriptor
		if err := json.Unmarshal(entry, &descriptor); err != nil {
			continue
		}
		if descriptor.Name == name {
			descriptor.Raw = entry
			s.client.logger.Info("resolved bot",
				"name", descriptor.Name,
				"bot_id", descriptor.BotID,
			)
			return &Bot{
				session:    s,
				descriptor: descriptor,
				dispatcher: newDispatcher(s.client.logger),
			}, nil
		}
	}
	return nil, &BotNotFoundError{Name: name, Roster: body}
}

// chatPath builds a chat-service path under this bot.
func (b *Bot) chatPath(version, suffix string) string {
	return "/api/" + version + "/bots/" + b.descriptor.BotID + suffix
}

// managerPath builds a manager-service path under this bot.
func (b *Bot) managerPath(suffix string) string {
	return "/api/bots/" + b.descriptor.BasicSearchID + suffix
}

// StreamingToken acquires a fresh short-lived token scoped to this bot
// for one streaming connection.
func (b *Bot) StreamingToken(ctx context.Context) (*StreamingToken, error) {
	body, err := b.session.doRequest(ctx, http.MethodPost, b.session.client.chatURL,
		b.chatPath("v1", "/streamingApiToken"), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chat: acquiring streaming token: %w", err)
	}
	var token StreamingToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("chat: parsing streaming token response: %w", err)
	}
	if token.Token == "" {
		return nil, fmt.Errorf("chat: streaming token response missing token: %s", body)
	}
	return &token, nil
}

// SetStreamingState reports the connection's idle state to the
// platform, keyed by the connection id the stream assigned.
func (b *Bot) SetStreamingState(ctx context.Context, connectionID int, idle bool) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v1", "/streaming/state"), nil, map[string]any{
			"connectionId": connectionID,
			"idle":         idle,
		})
}

// formatBool renders a boolean the way the platform's query parameters
// expect it.
func formatBool(v bool) string {
	return strconv.FormatBool(v)
}

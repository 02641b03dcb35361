// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat is a programmatic client for the LINE Official Account
// chat console: the REST API the web console speaks plus its streaming
// event feed.
//
// The package provides three core types. [Client] is an unauthenticated
// platform client holding the service base URLs and HTTP transport; its
// Login method runs an [auth.Provider] flow and returns an
// authenticated [Session]. Session applies the session cookie, XSRF
// token, client-version and user-agent headers to every request, and
// exposes the account-level operations (Me, CSRFToken) plus bot roster
// resolution.
//
// [Bot] is a handle on one managed bot resolved by exact name from the
// roster. It carries the full bot-scoped REST surface (contacts, chats,
// messages, tags, follow-ups, saved replies, response settings, and the
// rest) and the streaming engine: Handle registers event handlers by
// name, optionally narrowed by the payload's subEvent field or widened
// to all events, and Run connects to the SSE feed and dispatches frames
// to them until the context is canceled, reconnecting on every failure.
//
// Messaging operations (SendText, SendSticker, SendFile, SendCard,
// SendCallInvite) arm the conversation's manual-chat mode before each
// send and tag the message with a composite send id for correlation.
// SendText additionally translates inline [EM:<productId>,id=<emojiId>]
// markers into positioned emoji metadata.
//
// All API errors surface as [*PlatformError] with the HTTP status and
// the platform's code/message pair when present. Request URLs are built
// by string concatenation rather than url.URL: every path segment the
// client sends is a platform-assigned opaque identifier.
package chat

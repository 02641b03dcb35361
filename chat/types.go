// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import "encoding/json"

// Account is the operator account returned by the /me endpoint.
type Account struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`

	// Raw is the full response body; the platform returns more fields
	// than this client models.
	Raw json.RawMessage `json:"-"`
}

// BotDescriptor identifies one managed bot from the roster. BotID keys
// the chat-service endpoints, BasicSearchID keys the manager-service
// endpoints.
type BotDescriptor struct {
	BotID         string `json:"botId"`
	BasicSearchID string `json:"basicSearchId"`
	Name          string `json:"name"`

	// Raw is the full roster entry.
	Raw json.RawMessage `json:"-"`
}

// botList is the body of GET /api/v1/bots. List is a pointer so a
// structurally absent "list" key is distinguishable from an empty
// roster; the two produce different errors.
type botList struct {
	List *[]json.RawMessage `json:"list"`
}

// StreamingToken is the short-lived credential for one streaming
// connection, re-acquired on every (re)connect and never persisted.
type StreamingToken struct {
	// Token authorizes the SSE connection.
	Token string `json:"streamingApiToken"`
	// LastEventID, when present, is the server's record of the last
	// event delivered to this bot, used to resume after a gap.
	LastEventID string `json:"lastEventId"`
}

// Event is one parsed frame from the event feed. Events are transient:
// constructed per frame, handed to the dispatcher, then discarded.
type Event struct {
	// ID is the platform-assigned event id, forwarded as lastEventId on
	// reconnect for best-effort resume.
	ID string
	// Name is the event name from the "event:" line.
	Name string
	// SubEvent is the payload's "subEvent" field, empty when absent.
	SubEvent string
	// Data is the parsed JSON payload. A keep-alive frame parses to an
	// empty map.
	Data map[string]any
}

// SendResult correlates an outbound message with its delivery
// acknowledgement.
type SendResult struct {
	// SendID is the client-generated composite id attached to the send.
	SendID string
	// Body is the platform's response to the send call.
	Body json.RawMessage
}

// ContactsOptions controls the contact listing query.
type ContactsOptions struct {
	Query       string
	Next        string
	SortKey     string // DISPLAY_NAME, FRIEND_TYPE, LAST_TALKED_AT
	SortOrder   string // ASC or DESC
	ExcludeSpam bool
	Limit       int
}

// ChatsOptions controls the chat listing query.
type ChatsOptions struct {
	FolderType           string // ALL, INBOX, UNREAD, FOLLOW_UP, DONE, ASSIGNED, SPAM
	TagIDs               string
	AutoTagIDs           string
	Limit                int
	Next                 string
	PrioritizePinnedChat bool
}

// SavedRepliesOptions controls the saved-reply listing query.
type SavedRepliesOptions struct {
	Query                      string
	SortKey                    string
	Page                       int
	PageSize                   int
	ExcludeUsernamePlaceholder bool
}

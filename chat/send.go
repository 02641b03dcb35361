// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// manualChatWindow is how far forward the manual-chat override expiry
// is armed on each gated send, expressed in the platform's millisecond
// epoch. The observed console client adds this raw value to a
// millisecond timestamp; kept as observed.
const manualChatWindow = 3600

// sendIDRandomBound bounds the random discriminator in send ids.
const sendIDRandomBound = 100_000_000

// makeSendID builds the composite client-side correlation id for one
// outbound message: conversation id, send time in integer
// milliseconds, and a random discriminator, joined by underscores. The
// discriminator keeps ids distinct when two sends land in the same
// millisecond. A new id is produced per call; the id is correlation
// only, never deduplication.
func makeSendID(contactID string) string {
	return contactID +
		"_" + strconv.FormatInt(time.Now().UnixMilli(), 10) +
		"_" + strconv.Itoa(rand.IntN(sendIDRandomBound))
}

// SetManualChat places a conversation into manually-controlled mode
// with a forward expiry window from now. Every gated send calls this
// unconditionally before sending, re-arming the window each time; the
// call is not idempotent-safe against overlap.
func (b *Bot) SetManualChat(ctx context.Context, contactID string) error {
	_, err := b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v2", "/chats/"+contactID+"/useManualChat"), nil, map[string]any{
			"expiresAt": time.Now().UnixMilli() + manualChatWindow,
		})
	if err != nil {
		return fmt.Errorf("chat: arming manual chat mode: %w", err)
	}
	return nil
}

// send posts one message payload to a conversation, tagging it with a
// fresh send id.
func (b *Bot) send(ctx context.Context, contactID string, payload map[string]any) (*SendResult, error) {
	sendID := makeSendID(contactID)
	payload["sendId"] = sendID

	body, err := b.session.doRequest(ctx, http.MethodPost, b.session.client.chatURL,
		b.chatPath("v1", "/messages/"+contactID+"/send"), nil, payload)
	if err != nil {
		return nil, err
	}
	return &SendResult{SendID: sendID, Body: body}, nil
}

// TextMessageOptions adjusts SendText behavior.
type TextMessageOptions struct {
	// Escape sends the text verbatim, skipping emoji marker extraction.
	Escape bool
	// QuoteToken quotes an earlier message when non-empty.
	QuoteToken string
}

// SendText sends a text message. Unless options.Escape is set, inline
// emoji markers of the form [EM:<productId>,id=<emojiId>] are replaced
// by placeholder characters and sent as positioned emojis. The target
// conversation is placed in manual-chat mode first.
func (b *Bot) SendText(ctx context.Context, contactID, text string, options *TextMessageOptions) (*SendResult, error) {
	if options == nil {
		options = &TextMessageOptions{}
	}

	payload := map[string]any{
		"type": "text",
		"text": text,
	}
	if !options.Escape {
		if emojis, substituted := extractEmojis(text); emojis != nil {
			payload["text"] = substituted
			payload["emojis"] = emojis
		}
	}
	if options.QuoteToken != "" {
		payload["quoteToken"] = options.QuoteToken
	}

	if err := b.SetManualChat(ctx, contactID); err != nil {
		return nil, err
	}
	return b.send(ctx, contactID, payload)
}

// SendEmojiText sends a text message with an explicit emoji list whose
// indexes the caller computed. An empty non-nil list is a validation
// error, raised before any request is made.
func (b *Bot) SendEmojiText(ctx context.Context, contactID, text string, emojis []Emoji) (*SendResult, error) {
	if emojis != nil && len(emojis) == 0 {
		return nil, fmt.Errorf("chat: emojis must not be empty")
	}

	payload := map[string]any{
		"type": "text",
		"text": text,
	}
	if emojis != nil {
		payload["emojis"] = emojis
	}

	if err := b.SetManualChat(ctx, contactID); err != nil {
		return nil, err
	}
	return b.send(ctx, contactID, payload)
}

// SendSticker sends a sticker message.
func (b *Bot) SendSticker(ctx context.Context, contactID string, packageID, stickerID int, quoteToken string) (*SendResult, error) {
	payload := map[string]any{
		"type":      "sticker",
		"packageId": packageID,
		"stickerId": stickerID,
	}
	if quoteToken != "" {
		payload["quoteToken"] = quoteToken
	}

	if err := b.SetManualChat(ctx, contactID); err != nil {
		return nil, err
	}
	return b.send(ctx, contactID, payload)
}

// SendCard sends a prepared card-type message by id.
func (b *Bot) SendCard(ctx context.Context, contactID, cardTypeMessageID string) (*SendResult, error) {
	if err := b.SetManualChat(ctx, contactID); err != nil {
		return nil, err
	}
	return b.send(ctx, contactID, map[string]any{
		"type":              "cardType",
		"cardTypeMessageId": cardTypeMessageID,
	})
}

// SendCallInvite sends a voice-call invitation.
func (b *Bot) SendCallInvite(ctx context.Context, contactID string) (*SendResult, error) {
	if err := b.SetManualChat(ctx, contactID); err != nil {
		return nil, err
	}
	return b.send(ctx, contactID, map[string]any{"type": "callGuide"})
}

// uploadFileResponse is the body of the uploadFile endpoint.
type uploadFileResponse struct {
	ContentMessageToken string `json:"contentMessageToken"`
}

// SendFile uploads a file to a conversation and sends it. The upload
// yields a content token which the bulk-send call turns into the
// delivered message.
func (b *Bot) SendFile(ctx context.Context, contactID, filename string, file io.Reader) (*SendResult, error) {
	if err := b.SetManualChat(ctx, contactID); err != nil {
		return nil, err
	}

	uploadBody, err := b.session.doUpload(ctx, b.session.client.chatURL,
		b.chatPath("v1", "/messages/"+contactID+"/uploadFile"), filename, file)
	if err != nil {
		return nil, fmt.Errorf("chat: uploading file: %w", err)
	}
	var upload uploadFileResponse
	if err := json.Unmarshal(uploadBody, &upload); err != nil {
		return nil, fmt.Errorf("chat: parsing upload response: %w", err)
	}
	if upload.ContentMessageToken == "" {
		return nil, fmt.Errorf("chat: upload response missing contentMessageToken: %s", uploadBody)
	}

	sendID := makeSendID(contactID)
	body, err := b.session.doRequest(ctx, http.MethodPost, b.session.client.chatURL,
		b.chatPath("v1", "/messages/"+contactID+"/bulkSendFiles"), nil, map[string]any{
			"items": []map[string]any{{
				"contentMessageToken": upload.ContentMessageToken,
				"sendId":              sendID,
			}},
		})
	if err != nil {
		return nil, err
	}
	return &SendResult{SendID: sendID, Body: body}, nil
}

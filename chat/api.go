// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

// The REST accessor surface: stateless request/response wrappers around
// the platform's bot-management endpoints. Each call sends one request
// and returns the parsed body; results pass through as raw JSON since
// the platform's payload shapes are wide, undocumented, and mostly
// displayed rather than interpreted.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// defaultContentURL serves chat media previews.
const defaultContentURL = "https://chat-content.line.biz"

// defaultProfileURL serves contact profile images.
const defaultProfileURL = "https://profile.line-scdn.net"

// Contacts lists the bot's contacts.
func (b *Bot) Contacts(ctx context.Context, options ContactsOptions) (json.RawMessage, error) {
	if options.SortKey == "" {
		options.SortKey = "DISPLAY_NAME"
	}
	if options.SortOrder == "" {
		options.SortOrder = "ASC"
	}
	if options.Limit == 0 {
		options.Limit = 20
	}
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/contacts"), url.Values{
		"query":       {options.Query},
		"sortKey":     {options.SortKey},
		"sortOrder":   {options.SortOrder},
		"excludeSpam": {formatBool(options.ExcludeSpam)},
		"next":        {options.Next},
		"limit":       {strconv.Itoa(options.Limit)},
	})
}

// Messages fetches the message history of one conversation. backward
// is the pagination cursor from a previous page; empty starts at the
// newest messages.
func (b *Bot) Messages(ctx context.Context, contactID, backward string) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL,
		b.chatPath("v2", "/messages/"+contactID), url.Values{"backward": {backward}})
}

// Chats lists conversations in a folder.
func (b *Bot) Chats(ctx context.Context, options ChatsOptions) (json.RawMessage, error) {
	if options.FolderType == "" {
		options.FolderType = "ALL"
	}
	if options.Limit == 0 {
		options.Limit = 25
	}
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v2", "/chats"), url.Values{
		"folderType":           {options.FolderType},
		"tagIds":               {options.TagIDs},
		"autoTagIds":           {options.AutoTagIDs},
		"limit":                {strconv.Itoa(options.Limit)},
		"next":                 {options.Next},
		"prioritizePinnedChat": {formatBool(options.PrioritizePinnedChat)},
	})
}

// DeleteChat deletes a conversation.
func (b *Bot) DeleteChat(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodDelete, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID), nil, nil)
}

// MuteChat disables sound notifications for a conversation.
func (b *Bot) MuteChat(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/mute/pc"), nil, nil)
}

// UnmuteChat re-enables sound notifications for a conversation.
func (b *Bot) UnmuteChat(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodDelete, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/mute/pc"), nil, nil)
}

// ManualChat reports a conversation's manual-chat override state.
func (b *Bot) ManualChat(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL,
		b.chatPath("v2", "/chats/"+contactID+"/useManualChat"), nil)
}

// ClearManualChat removes a conversation's manual-chat override.
func (b *Bot) ClearManualChat(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodDelete, b.session.client.chatURL,
		b.chatPath("v2", "/chats/"+contactID+"/useManualChat"), nil, nil)
}

// Tags lists the bot's contact tags.
func (b *Bot) Tags(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/tags"), nil)
}

// AddTag creates a contact tag.
func (b *Bot) AddTag(ctx context.Context, name string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPost, b.session.client.chatURL,
		b.chatPath("v1", "/tags"), nil, map[string]any{"name": name})
}

// Tag fetches one tag.
func (b *Bot) Tag(ctx context.Context, tagID string) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/tags/"+tagID), nil)
}

// AutoTags lists the platform-assigned automatic tags.
func (b *Bot) AutoTags(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/autoTags"), nil)
}

// TagContact attaches a tag to a contact.
func (b *Bot) TagContact(ctx context.Context, contactID, tagID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/tags/"+tagID), nil, nil)
}

// UntagContact removes a tag from a contact.
func (b *Bot) UntagContact(ctx context.Context, contactID, tagID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodDelete, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/tags/"+tagID), nil, nil)
}

// MarkAsRead marks a conversation read up to the given message.
func (b *Bot) MarkAsRead(ctx context.Context, contactID, messageID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/markAsRead"), nil, map[string]any{"messageId": messageID})
}

// FollowUp flags a conversation for follow-up.
func (b *Bot) FollowUp(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/followUp"), nil, nil)
}

// ClearFollowUp removes the follow-up flag.
func (b *Bot) ClearFollowUp(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodDelete, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/followUp"), nil, nil)
}

// MarkDone marks a conversation as handled.
func (b *Bot) MarkDone(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/done"), nil, nil)
}

// SetNickname sets the operator-visible nickname of a contact.
func (b *Bot) SetNickname(ctx context.Context, contactID, nickname string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/nickname"), nil, map[string]any{"nickname": nickname})
}

// Pin pins a conversation to the top of the chat list.
func (b *Bot) Pin(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/pin"), nil, nil)
}

// Unpin unpins a conversation.
func (b *Bot) Unpin(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodDelete, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/pin"), nil, nil)
}

// SetTyping reports a typing indicator in a conversation.
func (b *Bot) SetTyping(ctx context.Context, contactID string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.chatURL,
		b.chatPath("v1", "/chats/"+contactID+"/typing"), nil, nil)
}

// ContentPreview fetches a chat media preview by content hash.
func (b *Bot) ContentPreview(ctx context.Context, contentHash string) ([]byte, error) {
	return b.session.doRaw(ctx, defaultContentURL+"/bot/"+b.descriptor.BotID+"/"+contentHash)
}

// ProfilePreview fetches a contact profile image by content hash.
func (b *Bot) ProfilePreview(ctx context.Context, contentHash string) ([]byte, error) {
	return b.session.doRaw(ctx, defaultProfileURL+"/"+contentHash)
}

// Stickers lists the sticker sets the bot owns.
func (b *Bot) Stickers(ctx context.Context, nextToken string) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL,
		b.chatPath("v1", "/stickers/owned"), url.Values{"nextToken": {nextToken}})
}

// CardTypeMessages lists the bot's prepared card messages.
func (b *Bot) CardTypeMessages(ctx context.Context, limit int) (json.RawMessage, error) {
	if limit == 0 {
		limit = 25
	}
	return b.session.getJSON(ctx, b.session.client.chatURL,
		b.chatPath("v1", "/cardTypeMessages"), url.Values{"limit": {strconv.Itoa(limit)}})
}

// Coupons lists the bot's coupons.
func (b *Bot) Coupons(ctx context.Context, page, pageSize int) (json.RawMessage, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 25
	}
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/coupons"), url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	})
}

// SavedReplies lists the bot's canned replies.
func (b *Bot) SavedReplies(ctx context.Context, options SavedRepliesOptions) (json.RawMessage, error) {
	if options.SortKey == "" {
		options.SortKey = "CREATED_AT"
	}
	if options.Page == 0 {
		options.Page = 1
	}
	if options.PageSize == 0 {
		options.PageSize = 25
	}
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v2", "/savedReplies"), url.Values{
		"query":                      {options.Query},
		"sortKey":                    {options.SortKey},
		"page":                       {strconv.Itoa(options.Page)},
		"pageSize":                   {strconv.Itoa(options.PageSize)},
		"excludeUsernamePlaceholder": {formatBool(options.ExcludeUsernamePlaceholder)},
	})
}

// WhitelistDomains lists domains permitted in rich content.
func (b *Bot) WhitelistDomains(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, "/api/v1/whitelistDomains", nil)
}

// Now returns the platform server time.
func (b *Bot) Now(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, "/api/v1/clock/now", nil)
}

// AvailableFeatures reports which console features the bot can use.
func (b *Bot) AvailableFeatures(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/availableFeatures"), nil)
}

// Owners lists the bot's owning accounts.
func (b *Bot) Owners(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/owners"), nil)
}

// SearchLimitationStats reports remaining contact-search quota.
func (b *Bot) SearchLimitationStats(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/searchLimitationStats"), nil)
}

// CallSettings reports the bot's call configuration.
func (b *Bot) CallSettings(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/settings/call"), nil)
}

// ReservationSettings reports the bot's reservation configuration.
func (b *Bot) ReservationSettings(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/settings/reservation"), nil)
}

// PCSettings reports the operator's desktop console preferences. The
// endpoint is account-scoped (keyed by the session, not the bot) but
// lives on the chat service alongside the other settings accessors.
func (b *Bot) PCSettings(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, "/api/v1/me/settings/pc", nil)
}

// ChatMode reports the bot's response-mode configuration.
func (b *Bot) ChatMode(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v3", "/settings/chatMode"), nil)
}

// ChatModeSchedules reports the response-mode schedule.
func (b *Bot) ChatModeSchedules(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v1", "/settings/chatModeSchedules"), nil)
}

// Banner fetches the console's web banner content.
func (b *Bot) Banner(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.chatURL, b.chatPath("v2", "/banner/web"), nil)
}

// Manager-service accessors, keyed by the bot's basic search id.

// EnableChat toggles the chat feature for the bot. The runner enables
// it once after bot resolution; a bot with chat disabled receives no
// events.
func (b *Bot) EnableChat(ctx context.Context, enabled bool) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPost, b.session.client.managerURL,
		"/api/v1/bots/"+b.descriptor.BasicSearchID+"/responseSettings/enabledChat",
		nil, map[string]any{"enabled": enabled})
}

// EnableWelcomeMessage toggles the friend-greeting message.
func (b *Bot) EnableWelcomeMessage(ctx context.Context, enabled bool) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPost, b.session.client.managerURL,
		b.managerPath("/responseSettings/enabledWelcomeMessage"), nil, map[string]any{"enabled": enabled})
}

// EnableWebhook toggles webhook delivery.
func (b *Bot) EnableWebhook(ctx context.Context, enabled bool) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPost, b.session.client.managerURL,
		b.managerPath("/responseSettings/enabledWebhook"), nil, map[string]any{"enabled": enabled})
}

// EnableBusinessHours toggles the business-hours response schedule.
func (b *Bot) EnableBusinessHours(ctx context.Context, enabled bool) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.managerURL,
		"/api/v2/bots/"+b.descriptor.BasicSearchID+"/chatModeSettings/enabledBusinessHours",
		nil, map[string]any{"enabled": enabled})
}

// SetChatModeInBusinessHours sets the response mode during business
// hours: MANUAL, AUTO_RESPONSE, SMART_RESPONSE, or
// AUTO_AND_SMART_RESPONSE.
func (b *Bot) SetChatModeInBusinessHours(ctx context.Context, chatMode string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.managerURL,
		"/api/v2/bots/"+b.descriptor.BasicSearchID+"/chatModeSettings/chatModeInBusinessHours",
		nil, map[string]any{"chatMode": chatMode})
}

// SetChatModeOutsideBusinessHours sets the response mode outside
// business hours. MANUAL is not accepted here.
func (b *Bot) SetChatModeOutsideBusinessHours(ctx context.Context, chatMode string) (json.RawMessage, error) {
	return b.session.doRequest(ctx, http.MethodPut, b.session.client.managerURL,
		"/api/v2/bots/"+b.descriptor.BasicSearchID+"/chatModeSettings/chatModeOutsideBusinessHours",
		nil, map[string]any{"chatMode": chatMode})
}

// UnreadChatCount reports the number of unread conversations.
func (b *Bot) UnreadChatCount(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/unreadChatCount"), nil)
}

// Notifications fetches the console notification feed.
func (b *Bot) Notifications(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL,
		b.managerPath("/notifications/v2/list"), url.Values{"count": {"1"}})
}

// CMSUsers lists console users with access to the bot.
func (b *Bot) CMSUsers(ctx context.Context, page int) (json.RawMessage, error) {
	if page == 0 {
		page = 1
	}
	return b.session.getJSON(ctx, b.session.client.managerURL,
		b.managerPath("/cmsUsers"), url.Values{"page": {strconv.Itoa(page)}})
}

// Groups lists console permission groups.
func (b *Bot) Groups(ctx context.Context, page, size int) (json.RawMessage, error) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = 10
	}
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/groups"), url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	})
}

// PrimaryChannel reports the bot's Messaging API channel.
func (b *Bot) PrimaryChannel(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/primaryChannel"), nil)
}

// Applicant reports the account that registered the bot.
func (b *Bot) Applicant(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/applicant"), nil)
}

// ProfileStatus reports the bot's public profile status.
func (b *Bot) ProfileStatus(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/profileStatus"), nil)
}

// VerificationStatus reports the bot's account verification state.
func (b *Bot) VerificationStatus(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/verification/status"), nil)
}

// GroupTalk reports whether the bot can join group chats.
func (b *Bot) GroupTalk(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/groupTalk"), nil)
}

// RestrictChatMenu reports the chat media-file restriction setting.
func (b *Bot) RestrictChatMenu(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/restrictChatMenu"), nil)
}

// CMSUserRole reports the operator's console role on the bot.
func (b *Bot) CMSUserRole(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/cmsUserRole"), nil)
}

// StatusBarSetting reports the console status-bar configuration.
func (b *Bot) StatusBarSetting(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/statusbar/setting"), nil)
}

// LegalCountry reports the bot's registered legal country.
func (b *Bot) LegalCountry(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/legalCountry"), nil)
}

// LegalCountries lists the countries available for legal registration.
func (b *Bot) LegalCountries(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/legalCountries"), nil)
}

// Spot reports the bot's location (spot) registration.
func (b *Bot) Spot(ctx context.Context) (json.RawMessage, error) {
	return b.session.getJSON(ctx, b.session.client.managerURL, b.managerPath("/spot"), nil)
}

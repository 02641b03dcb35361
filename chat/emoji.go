// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"regexp"
	"unicode/utf8"
)

// Emoji is one inline emoji in an outbound text message, positioned by
// byte index into the placeholder-substituted text.
type Emoji struct {
	ProductID string `json:"productId"`
	EmojiID   string `json:"emojiId"`
	Length    int    `json:"length"`
	Index     int    `json:"index"`
}

// emojiMarker matches the inline marker form [EM:<productId>,id=<emojiId>].
var emojiMarker = regexp.MustCompile(`\[EM:(\w+),id=(\w+)\]`)

// emojiPlaceholder replaces each marker in the sent text; the platform
// renders the emoji at the placeholder's position.
const emojiPlaceholder = "$"

// extractEmojis finds every emoji marker in text and returns the emoji
// list plus the text with each marker replaced by one placeholder
// character.
//
// Each emoji's Index addresses the post-substitution string in code
// points, not bytes: the platform positions emojis by character, so a
// byte offset drifts as soon as any non-ASCII text precedes a marker.
// The k-th marker's index is its original code-point offset minus the
// cumulative code-point reduction from the k-1 substitutions before
// it, tracked as a running gap. Getting this arithmetic wrong corrupts
// emoji placement in the delivered message. Returns (nil, text) when
// no marker exists.
func extractEmojis(text string) ([]Emoji, string) {
	matches := emojiMarker.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, text
	}

	emojis := make([]Emoji, 0, len(matches))
	gap := 0
	for _, match := range matches {
		start, end := match[0], match[1]
		emojis = append(emojis, Emoji{
			ProductID: text[match[2]:match[3]],
			EmojiID:   text[match[4]:match[5]],
			Length:    utf8.RuneCountInString(emojiPlaceholder),
			Index:     utf8.RuneCountInString(text[:start]) - gap,
		})
		// Each substitution shrinks the string by the marker's
		// code-point count minus the single placeholder character. The
		// marker syntax is ASCII, so this equals its byte length, but
		// counting runes keeps the two offsets in the same unit.
		gap += utf8.RuneCountInString(text[start:end]) - utf8.RuneCountInString(emojiPlaceholder)
	}

	return emojis, emojiMarker.ReplaceAllString(text, emojiPlaceholder)
}

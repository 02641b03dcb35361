// Copyright 2026 The Line-Web Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"reflect"
	"testing"
)

func TestExtractEmojisNoMarkers(t *testing.T) {
	emojis, text := extractEmojis("plain text")
	if emojis != nil {
		t.Errorf("emojis = %v, want nil", emojis)
	}
	if text != "plain text" {
		t.Errorf("text = %q, want unchanged", text)
	}
}

func TestExtractEmojisSingleMarker(t *testing.T) {
	emojis, text := extractEmojis("hello [EM:prod1,id=emoji1] world")
	if text != "hello $ world" {
		t.Errorf("text = %q, want %q", text, "hello $ world")
	}
	want := []Emoji{{ProductID: "prod1", EmojiID: "emoji1", Length: 1, Index: 6}}
	if !reflect.DeepEqual(emojis, want) {
		t.Errorf("emojis = %+v, want %+v", emojis, want)
	}
}

func TestExtractEmojisMultipleMarkers(t *testing.T) {
	emojis, text := extractEmojis("[EM:p1,id=e1]ab[EM:p2,id=e2]c[EM:p3,id=e3]")
	if text != "$ab$c$" {
		t.Errorf("text = %q, want %q", text, "$ab$c$")
	}

	// Each index addresses the substituted string, so later markers are
	// shifted left by the length the earlier substitutions removed.
	want := []Emoji{
		{ProductID: "p1", EmojiID: "e1", Length: 1, Index: 0},
		{ProductID: "p2", EmojiID: "e2", Length: 1, Index: 3},
		{ProductID: "p3", EmojiID: "e3", Length: 1, Index: 5},
	}
	if !reflect.DeepEqual(emojis, want) {
		t.Errorf("emojis = %+v, want %+v", emojis, want)
	}

	// Cross-check: each placeholder in the substituted text sits at a
	// reported index.
	for _, emoji := range want {
		if text[emoji.Index] != '$' {
			t.Errorf("text[%d] = %q, want placeholder", emoji.Index, text[emoji.Index])
		}
	}
}

func TestExtractEmojisAdjacentMarkers(t *testing.T) {
	emojis, text := extractEmojis("[EM:p1,id=e1][EM:p2,id=e2]")
	if text != "$$" {
		t.Errorf("text = %q, want %q", text, "$$")
	}
	if len(emojis) != 2 || emojis[0].Index != 0 || emojis[1].Index != 1 {
		t.Errorf("emojis = %+v", emojis)
	}
}

func TestExtractEmojisNonASCIIText(t *testing.T) {
	// Indices count code points: "あい" is two characters but six
	// bytes, and the platform addresses by character.
	emojis, text := extractEmojis("あい[EM:p1,id=e1]う[EM:p2,id=e2]")
	if text != "あい$う$" {
		t.Errorf("text = %q, want %q", text, "あい$う$")
	}

	want := []Emoji{
		{ProductID: "p1", EmojiID: "e1", Length: 1, Index: 2},
		{ProductID: "p2", EmojiID: "e2", Length: 1, Index: 4},
	}
	if !reflect.DeepEqual(emojis, want) {
		t.Errorf("emojis = %+v, want %+v", emojis, want)
	}

	// Cross-check against the substituted string's runes.
	runes := []rune(text)
	for _, emoji := range want {
		if runes[emoji.Index] != '$' {
			t.Errorf("rune at %d = %q, want placeholder", emoji.Index, runes[emoji.Index])
		}
	}
}

func TestExtractEmojisIgnoresMalformedMarkers(t *testing.T) {
	emojis, text := extractEmojis("[EM:p1] and [EM:,id=] stay literal")
	if emojis != nil {
		t.Errorf("emojis = %v, want nil", emojis)
	}
	if text != "[EM:p1] and [EM:,id=] stay literal" {
		t.Errorf("text = %q, want unchanged", text)
	}
}

package deckimport

import (
	"reflect"
	"testing"
)

func TestParseReply_DeckSideboardAndExplanation(t *testing.T) {
	reply := "Deck\n4 Mountain\n2 Shock\n\nSideboard\n1 Negate\n\nThis deck is aggressive."

	result := ParseReply(reply)

	if !result.OK() {
		t.Fatalf("expected a deck, got kind %v", result.Kind)
	}
	wantMain := []DeckEntry{{4, "Mountain"}, {2, "Shock"}}
	if !reflect.DeepEqual(result.Deck.MainDeck, wantMain) {
		t.Errorf("MainDeck = %v, want %v", result.Deck.MainDeck, wantMain)
	}
	wantSide := []DeckEntry{{1, "Negate"}}
	if !reflect.DeepEqual(result.Deck.Sideboard, wantSide) {
		t.Errorf("Sideboard = %v, want %v", result.Deck.Sideboard, wantSide)
	}
	if result.Deck.Explanation != "This deck is aggressive." {
		t.Errorf("Explanation = %q", result.Deck.Explanation)
	}
}

func TestParseReply_NoDeck(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "empty", reply: ""},
		{name: "prose only", reply: "I would build an aggressive red deck.\nWant me to list it?"},
		{name: "entries without header", reply: "4 Mountain\n2 Shock"},
		{name: "header without entries", reply: "Deck\nSorry, I cannot help with that."},
		{name: "sideboard only", reply: "Sideboard\n1 Negate"},
		{name: "header inside prose", reply: "Here is my deck\n4 Mountain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseReply(tt.reply)
			if result.Kind != KindNoDeckFound {
				t.Errorf("Kind = %v, want no_deck_found", result.Kind)
			}
			if result.Deck != nil {
				t.Errorf("Deck should be nil, got %+v", result.Deck)
			}
			if result.OK() {
				t.Error("OK() should be false")
			}
		})
	}
}

func TestParseReply_EntryFormats(t *testing.T) {
	reply := `deck
4x Lightning Bolt
04 Shock
1X Goblin Guide
  3   Fireblast  
2 Borborygmos 2
1 Ral, Crackling Wit
0 Nothing Here`

	result := ParseReply(reply)
	if !result.OK() {
		t.Fatal("expected a deck")
	}

	want := []DeckEntry{
		{4, "Lightning Bolt"},
		{4, "Shock"},
		{1, "Goblin Guide"},
		{3, "Fireblast"},
		{2, "Borborygmos 2"},
		{1, "Ral, Crackling Wit"},
	}
	if !reflect.DeepEqual(result.Deck.MainDeck, want) {
		t.Errorf("MainDeck = %v, want %v", result.Deck.MainDeck, want)
	}
	// "0 Nothing Here" is not an entry, so it starts the explanation.
	if result.Deck.Explanation != "0 Nothing Here" {
		t.Errorf("Explanation = %q", result.Deck.Explanation)
	}
}

func TestParseReply_PreambleAndDecorations(t *testing.T) {
	reply := `Sure! Here's a mono-red list built from your pool.

=====
DECK
-----
20 Mountain
4 Shock
---

Sideboard
3 Smash to Smithereens

Key ideas:
- Burn face early
- Keep the curve low`

	result := ParseReply(reply)
	if !result.OK() {
		t.Fatal("expected a deck")
	}

	if len(result.Deck.MainDeck) != 2 {
		t.Errorf("MainDeck = %v", result.Deck.MainDeck)
	}
	if !reflect.DeepEqual(result.Deck.Sideboard, []DeckEntry{{3, "Smash to Smithereens"}}) {
		t.Errorf("Sideboard = %v", result.Deck.Sideboard)
	}
	want := "Key ideas:\n- Burn face early\n- Keep the curve low"
	if result.Deck.Explanation != want {
		t.Errorf("Explanation = %q, want %q", result.Deck.Explanation, want)
	}
}

func TestParseReply_NoSideboardIsAbsent(t *testing.T) {
	result := ParseReply("Deck\n4 Mountain\n")
	if !result.OK() {
		t.Fatal("expected a deck")
	}
	if result.Deck.Sideboard != nil {
		t.Errorf("Sideboard = %v, want nil", result.Deck.Sideboard)
	}
	if result.Deck.Explanation != "" {
		t.Errorf("Explanation = %q, want empty", result.Deck.Explanation)
	}
}

func TestParseReply_CommentBetweenSectionsBecomesExplanation(t *testing.T) {
	// Known limitation: prose between the sections ends list parsing.
	reply := "Deck\n4 Mountain\nThe sideboard is for control matchups.\nSideboard\n1 Negate"

	result := ParseReply(reply)
	if !result.OK() {
		t.Fatal("expected a deck")
	}
	if result.Deck.Sideboard != nil {
		t.Errorf("Sideboard = %v, want nil", result.Deck.Sideboard)
	}
	want := "The sideboard is for control matchups.\nSideboard\n1 Negate"
	if result.Deck.Explanation != want {
		t.Errorf("Explanation = %q, want %q", result.Deck.Explanation, want)
	}
}

func TestParseReply_SideboardNoiseIsSkipped(t *testing.T) {
	reply := "Deck\n4 Mountain\nSideboard\n(for the mirror)\n2 Duress\n"

	result := ParseReply(reply)
	if !result.OK() {
		t.Fatal("expected a deck")
	}
	if !reflect.DeepEqual(result.Deck.Sideboard, []DeckEntry{{2, "Duress"}}) {
		t.Errorf("Sideboard = %v", result.Deck.Sideboard)
	}
	if result.Deck.Explanation != "" {
		t.Errorf("Explanation = %q, want empty", result.Deck.Explanation)
	}
	if !reflect.DeepEqual(result.Skipped, []string{"(for the mirror)"}) {
		t.Errorf("Skipped = %v", result.Skipped)
	}
}

func TestParseReply_WindowsLineEndings(t *testing.T) {
	result := ParseReply("Deck\r\n4 Mountain\r\n2 Shock\r\n")
	if !result.OK() {
		t.Fatal("expected a deck")
	}
	if !reflect.DeepEqual(result.Deck.MainDeck, []DeckEntry{{4, "Mountain"}, {2, "Shock"}}) {
		t.Errorf("MainDeck = %v", result.Deck.MainDeck)
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want tokenKind
	}{
		{"", tokenBlank},
		{"   ", tokenBlank},
		{"Deck", tokenDeckHeader},
		{"  DECK  ", tokenDeckHeader},
		{"Sideboard", tokenSideboardHeader},
		{"Deck:", tokenText},
		{"My Deck", tokenText},
		{"----", tokenDecorative},
		{"====", tokenDecorative},
		{"-=-=", tokenText},
		{"4 Shock", tokenEntry},
		{"4x Shock", tokenEntry},
		{"4xShock", tokenText},
		{"4", tokenText},
		{"x4 Shock", tokenText},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := classifyLine(tt.line).kind; got != tt.want {
				t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestResultKind_String(t *testing.T) {
	if KindOK.String() != "ok" || KindNoDeckFound.String() != "no_deck_found" {
		t.Error("unexpected kind strings")
	}
}

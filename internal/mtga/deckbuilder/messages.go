package deckbuilder

import (
	"fmt"
	"strings"

	"github.com/mrheathv/mtg-deck-builder/internal/llm"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
)

const systemPrompt = `You are an expert Magic: The Gathering deck builder.
Build decks only from the cards you are given. Respect the requested colors.
Always write the deck list in this exact format:

Deck
<count> <card name>
<count> <card name>

Sideboard
<count> <card name>

Put exactly one card per line as a number, a space and the card name, with no bullets or bold text.
The "Deck" and "Sideboard" lines must appear alone on their own lines. The sideboard is optional.
After the list, leave a blank line and explain the strategy in a few short paragraphs.`

var colorNames = map[cards.Color]string{
	cards.White:     "White",
	cards.Blue:      "Blue",
	cards.Black:     "Black",
	cards.Red:       "Red",
	cards.Green:     "Green",
	cards.Colorless: "Colorless",
}

// describeColors renders a selection for the model, e.g. "Red, Green and colorless cards".
func describeColors(sel cards.ColorSelection) string {
	if len(sel) == 0 {
		return "any colors"
	}
	names := make([]string, 0, len(sel))
	for _, c := range sel.Colors() {
		names = append(names, colorNames[c])
	}
	return strings.Join(names, ", ")
}

// BuildRequestMessages returns the opening conversation for a deck request: the system
// instructions and a user message carrying the card pool, the color choice and the request.
func BuildRequestMessages(cardBlock string, sel cards.ColorSelection, request string) []llm.ChatMessage {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Colors: %s\n\n", describeColors(sel))
	sb.WriteString("Available cards (name | mana cost | type | rarity):\n\n")
	sb.WriteString(cardBlock)
	sb.WriteString("\n")
	sb.WriteString("Request: ")
	sb.WriteString(strings.TrimSpace(request))
	sb.WriteString("\n\n")
	sb.WriteString("Reply with a line containing only \"Deck\", then one \"count name\" line per card. ")
	sb.WriteString("If you suggest a sideboard, put a line containing only \"Sideboard\" before it. ")
	sb.WriteString("Use card names exactly as listed above.")

	return []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: sb.String()},
	}
}

// Package deckbuilder turns a filtered card catalog into model requests and model replies into decks.
package deckbuilder

import (
	"fmt"
	"strings"

	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
)

// Category is the prompt grouping of a card.
type Category string

const (
	CategoryCreature     Category = "Creature"
	CategoryInstant      Category = "Instant"
	CategorySorcery      Category = "Sorcery"
	CategoryEnchantment  Category = "Enchantment"
	CategoryArtifact     Category = "Artifact"
	CategoryPlaneswalker Category = "Planeswalker"
	CategoryBattle       Category = "Battle"
	CategoryLand         Category = "Land"
	CategoryOther        Category = "Other"
)

// categoryOrder is both the keyword test order and the output order.
var categoryOrder = []Category{
	CategoryCreature,
	CategoryInstant,
	CategorySorcery,
	CategoryEnchantment,
	CategoryArtifact,
	CategoryPlaneswalker,
	CategoryBattle,
	CategoryLand,
}

var renderOrder = append(append([]Category{}, categoryOrder...), CategoryOther)

// Categorize returns the first category whose keyword appears in the type line, or Other.
// "Artifact Creature" is a Creature; "Enchantment Land" is an Enchantment.
func Categorize(typeLine string) Category {
	for _, c := range categoryOrder {
		if strings.Contains(typeLine, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// RenderCardBlock groups the named cards by category and renders them as
//
//	## Creature (2)
//	Goblin Guide | {R} | Creature — Goblin Scout | rare
//
// with categories in fixed order, empty ones omitted. Names not in the catalog are skipped.
func RenderCardBlock(catalog *cards.Catalog, names []string) string {
	groups := make(map[Category][]*cards.Card, len(categoryOrder)+1)
	for _, name := range names {
		card, ok := catalog.Lookup(name)
		if !ok {
			continue
		}
		c := Categorize(card.TypeLine)
		groups[c] = append(groups[c], card)
	}

	var sb strings.Builder
	for _, c := range renderOrder {
		members := groups[c]
		if len(members) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## %s (%d)\n", c, len(members))
		for _, card := range members {
			fmt.Fprintf(&sb, "%s | %s | %s | %s\n", card.Name, card.ManaCost, card.TypeLine, card.Rarity)
		}
	}
	return sb.String()
}

package deckbuilder

import (
	"math"
	"strconv"
	"strings"

	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckimport"
)

// CurveKeys are the mana curve buckets in display order. "7+" holds everything at 7 or more.
var CurveKeys = []string{"0", "1", "2", "3", "4", "5", "6", "7+"}

// Stats summarizes a main deck against the catalog.
type Stats struct {
	TotalCards        int            `json:"total_cards"`
	Creatures         int            `json:"creatures"`
	Spells            int            `json:"spells"`
	Lands             int            `json:"lands"`
	UnrecognizedCards int            `json:"unrecognized_cards"`
	Curve             map[string]int `json:"curve"`
	Unrecognized      []string       `json:"unrecognized"`
}

// ComputeStats counts the main deck. Every entry counts toward TotalCards; entries missing
// from the catalog are listed in Unrecognized and are not classified or placed on the curve,
// so the curve sums to TotalCards - Lands - UnrecognizedCards.
func ComputeStats(mainDeck []deckimport.DeckEntry, catalog *cards.Catalog) *Stats {
	stats := &Stats{
		Curve:        make(map[string]int, len(CurveKeys)),
		Unrecognized: []string{},
	}
	for _, k := range CurveKeys {
		stats.Curve[k] = 0
	}

	for _, entry := range mainDeck {
		stats.TotalCards += entry.Count

		card, ok := catalog.Lookup(entry.Name)
		if !ok {
			stats.Unrecognized = append(stats.Unrecognized, entry.Name)
			stats.UnrecognizedCards += entry.Count
			continue
		}

		switch {
		case strings.Contains(card.TypeLine, "Land"):
			stats.Lands += entry.Count
			continue
		case strings.Contains(card.TypeLine, "Creature"):
			stats.Creatures += entry.Count
		default:
			stats.Spells += entry.Count
		}

		stats.Curve[curveKey(card.CMC)] += entry.Count
	}

	return stats
}

// curveKey buckets a mana value: floor, clamped to 0..7, with 7 shown as "7+".
func curveKey(cmc float64) string {
	bucket := int(math.Floor(cmc))
	if bucket < 0 || math.IsNaN(cmc) {
		bucket = 0
	}
	if bucket >= 7 {
		return "7+"
	}
	return strconv.Itoa(bucket)
}

package deckbuilder

import (
	"math"
	"reflect"
	"testing"

	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckimport"
)

func TestComputeStats_SingleSpell(t *testing.T) {
	catalog := testCatalog(t)

	stats := ComputeStats([]deckimport.DeckEntry{{Count: 2, Name: "Shock"}}, catalog)

	if stats.TotalCards != 2 || stats.Spells != 2 || stats.Creatures != 0 || stats.Lands != 0 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	want := map[string]int{"0": 0, "1": 2, "2": 0, "3": 0, "4": 0, "5": 0, "6": 0, "7+": 0}
	if !reflect.DeepEqual(stats.Curve, want) {
		t.Errorf("Curve = %v, want %v", stats.Curve, want)
	}
}

func TestComputeStats_MixedDeck(t *testing.T) {
	catalog := testCatalog(t)
	main := []deckimport.DeckEntry{
		{Count: 4, Name: "Mountain"},
		{Count: 2, Name: "Goblin Guide"},
		{Count: 1, Name: "Ornithopter"},
		{Count: 1, Name: "Emrakul, the Aeons Torn"},
		{Count: 2, Name: "Fable of the Mirror-Breaker"},
		{Count: 3, Name: "Made Up Card"},
	}

	stats := ComputeStats(main, catalog)

	if stats.TotalCards != 13 {
		t.Errorf("TotalCards = %d, want 13", stats.TotalCards)
	}
	if stats.Lands != 4 {
		t.Errorf("Lands = %d, want 4", stats.Lands)
	}
	if stats.Creatures != 4 {
		t.Errorf("Creatures = %d, want 4", stats.Creatures)
	}
	if stats.Spells != 2 {
		t.Errorf("Spells = %d, want 2", stats.Spells)
	}
	if stats.UnrecognizedCards != 3 || !reflect.DeepEqual(stats.Unrecognized, []string{"Made Up Card"}) {
		t.Errorf("unrecognized = %d %v", stats.UnrecognizedCards, stats.Unrecognized)
	}
	if stats.Curve["0"] != 1 || stats.Curve["1"] != 2 || stats.Curve["3"] != 2 || stats.Curve["7+"] != 1 {
		t.Errorf("Curve = %v", stats.Curve)
	}

	sum := 0
	for _, k := range CurveKeys {
		sum += stats.Curve[k]
	}
	if want := stats.TotalCards - stats.Lands - stats.UnrecognizedCards; sum != want {
		t.Errorf("curve sum = %d, want %d", sum, want)
	}
	if stats.Creatures+stats.Spells != sum {
		t.Errorf("creatures + spells = %d, curve sum = %d", stats.Creatures+stats.Spells, sum)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil, testCatalog(t))

	if stats.TotalCards != 0 || len(stats.Unrecognized) != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(stats.Curve) != len(CurveKeys) {
		t.Errorf("curve should carry every bucket, got %v", stats.Curve)
	}
}

func TestCurveKey(t *testing.T) {
	tests := []struct {
		cmc  float64
		want string
	}{
		{0, "0"},
		{0.5, "0"},
		{1, "1"},
		{6.9, "6"},
		{7, "7+"},
		{16, "7+"},
		{-1, "0"},
		{math.NaN(), "0"},
	}

	for _, tt := range tests {
		if got := curveKey(tt.cmc); got != tt.want {
			t.Errorf("curveKey(%v) = %q, want %q", tt.cmc, got, tt.want)
		}
	}
}

package deckimport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
)

// ImportedCard is one line of a user-pasted deck list.
type ImportedCard struct {
	DeckEntry
	SetCode string `json:"set_code,omitempty"` // from "4 Lightning Bolt (M21) 123"
	Board   string `json:"board"`              // "main" or "sideboard"
}

// ImportResult contains the result of parsing a pasted deck list.
type ImportResult struct {
	Mainboard    []*ImportedCard `json:"mainboard"`
	Sideboard    []*ImportedCard `json:"sideboard"`
	Unrecognized []string        `json:"unrecognized,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// Deck converts the import into a ParsedDeck, dropping set codes.
func (r *ImportResult) Deck() *ParsedDeck {
	deck := &ParsedDeck{MainDeck: make([]DeckEntry, 0, len(r.Mainboard))}
	for _, c := range r.Mainboard {
		deck.MainDeck = append(deck.MainDeck, c.DeckEntry)
	}
	for _, c := range r.Sideboard {
		deck.Sideboard = append(deck.Sideboard, c.DeckEntry)
	}
	return deck
}

// Parser handles deck lists pasted by the user in Arena or plain text format.
type Parser struct {
	catalog *cards.Catalog
}

// NewParser creates a new import parser. A nil catalog disables name checks.
func NewParser(catalog *cards.Catalog) *Parser {
	return &Parser{catalog: catalog}
}

var (
	// "4 Lightning Bolt (M21) 123" or "4 Lightning Bolt"
	arenaLine = regexp.MustCompile(`^(\d+)\s+([^(]+?)(?:\s+\(([A-Za-z0-9]+)\)(?:\s+(\S+))?)?$`)
	// "4 Card Name" or "4x Card Name"
	plainCountFirst = regexp.MustCompile(`^(\d+)x?\s+(.+)$`)
	// "Card Name x4"
	plainCountLast = regexp.MustCompile(`^(.+?)\s+x(\d+)$`)
)

// Parse tries Arena format first and falls back to plain text.
func (p *Parser) Parse(input string) (*ImportResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty import string")
	}

	if result := p.ParseArenaFormat(input); len(result.Mainboard) > 0 && len(result.Warnings) == 0 {
		return result, nil
	}

	if result := p.ParsePlainText(input); len(result.Mainboard) > 0 {
		return result, nil
	}

	return nil, fmt.Errorf("unable to parse deck format")
}

// ParseArenaFormat parses the MTGA export format:
//
//	Deck
//	4 Lightning Bolt (M21) 123
//	2 Shock (M21) 124
//
//	Sideboard
//	2 Duress (M21) 95
//
// The first empty line after the main deck also starts the sideboard.
func (p *Parser) ParseArenaFormat(input string) *ImportResult {
	result := newImportResult()
	board := "main"

	for i, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.EqualFold(line, "deck"):
			continue
		case strings.EqualFold(line, "sideboard"):
			board = "sideboard"
			continue
		case line == "":
			if board == "main" && len(result.Mainboard) > 0 {
				board = "sideboard"
			}
			continue
		}

		matches := arenaLine.FindStringSubmatch(line)
		if matches == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Line %d: Could not parse '%s'", i+1, line))
			continue
		}

		quantity, err := strconv.Atoi(matches[1])
		if err != nil || quantity <= 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Line %d: Invalid quantity '%s'", i+1, matches[1]))
			continue
		}

		p.add(result, &ImportedCard{
			DeckEntry: DeckEntry{Count: quantity, Name: strings.TrimSpace(matches[2])},
			SetCode:   strings.ToUpper(matches[3]),
			Board:     board,
		})
	}

	return result
}

// ParsePlainText parses simple card lists: "4 Lightning Bolt", "4x Lightning Bolt"
// or "Lightning Bolt x4". A line starting with "sideboard" switches boards.
func (p *Parser) ParsePlainText(input string) *ImportResult {
	result := newImportResult()
	board := "main"

	for i, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(strings.ToLower(line), "sideboard") {
			board = "sideboard"
			continue
		}

		var quantity int
		var name string
		if m := plainCountFirst.FindStringSubmatch(line); m != nil {
			quantity, _ = strconv.Atoi(m[1])
			name = m[2]
		} else if m := plainCountLast.FindStringSubmatch(line); m != nil {
			quantity, _ = strconv.Atoi(m[2])
			name = m[1]
		}

		if quantity <= 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Line %d: Could not parse '%s'", i+1, line))
			continue
		}

		p.add(result, &ImportedCard{
			DeckEntry: DeckEntry{Count: quantity, Name: strings.TrimSpace(name)},
			Board:     board,
		})
	}

	return result
}

func newImportResult() *ImportResult {
	return &ImportResult{
		Mainboard: make([]*ImportedCard, 0),
		Sideboard: make([]*ImportedCard, 0),
	}
}

// add appends the card to its board and records names missing from the catalog.
func (p *Parser) add(result *ImportResult, card *ImportedCard) {
	if card.Board == "main" {
		result.Mainboard = append(result.Mainboard, card)
	} else {
		result.Sideboard = append(result.Sideboard, card)
	}

	if p.catalog == nil {
		return
	}
	if _, ok := p.catalog.Lookup(card.Name); !ok {
		result.Unrecognized = append(result.Unrecognized, card.Name)
	}
}

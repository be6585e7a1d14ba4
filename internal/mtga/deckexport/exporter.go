package deckexport

import (
	"fmt"
	"strings"

	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckimport"
)

// ExportFormat represents the format to export the deck in.
type ExportFormat string

const (
	FormatArena       ExportFormat = "arena"       // "Deck" / "Sideboard" sections, re-parseable
	FormatPlainText   ExportFormat = "plaintext"   // Simple text list (4x Card Name)
	FormatMTGO        ExportFormat = "mtgo"        // MTGO format
	FormatMTGGoldfish ExportFormat = "mtggoldfish" // MTGGoldfish format
)

// ExportOptions controls deck export behavior.
type ExportOptions struct {
	Format         ExportFormat
	Name           string // Deck name, used for headers and the filename
	IncludeHeaders bool   // Plain text only: name comment and section labels
}

// DeckExport represents an exported deck.
type DeckExport struct {
	Content  string       `json:"content"`
	Format   ExportFormat `json:"format"`
	Filename string       `json:"filename"`
}

// Export renders the deck in the requested format.
func Export(deck *deckimport.ParsedDeck, options *ExportOptions) (*DeckExport, error) {
	if deck == nil {
		return nil, fmt.Errorf("deck is nil")
	}

	if options == nil {
		options = &ExportOptions{Format: FormatArena}
	}

	var content string
	ext := "txt"

	switch options.Format {
	case FormatArena, "":
		content = RenderArena(deck)
	case FormatPlainText:
		content = renderPlainText(deck, options)
	case FormatMTGO:
		content = renderMTGO(deck)
		ext = "dek"
	case FormatMTGGoldfish:
		content = renderMTGGoldfish(deck)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", options.Format)
	}

	format := options.Format
	if format == "" {
		format = FormatArena
	}

	return &DeckExport{
		Content:  content,
		Format:   format,
		Filename: fmt.Sprintf("%s.%s", sanitizeFilename(options.Name), ext),
	}, nil
}

// RenderArena renders the deck text consumed by deckimport.ParseReply:
// a "Deck" header, one "count name" per line, a blank line, then an optional
// "Sideboard" section.
func RenderArena(deck *deckimport.ParsedDeck) string {
	var sb strings.Builder

	sb.WriteString("Deck\n")
	writeEntries(&sb, deck.MainDeck, "")
	sb.WriteString("\n")

	if len(deck.Sideboard) > 0 {
		sb.WriteString("Sideboard\n")
		writeEntries(&sb, deck.Sideboard, "")
	}

	return sb.String()
}

// renderPlainText renders "4x Card Name" lines.
func renderPlainText(deck *deckimport.ParsedDeck, options *ExportOptions) string {
	var sb strings.Builder

	if options.IncludeHeaders {
		if options.Name != "" {
			fmt.Fprintf(&sb, "// %s\n\n", options.Name)
		}
		sb.WriteString("Mainboard:\n")
	}

	for _, e := range deck.MainDeck {
		fmt.Fprintf(&sb, "%dx %s\n", e.Count, e.Name)
	}

	if len(deck.Sideboard) > 0 {
		sb.WriteString("\n")
		if options.IncludeHeaders {
			sb.WriteString("Sideboard:\n")
		}
		for _, e := range deck.Sideboard {
			fmt.Fprintf(&sb, "%dx %s\n", e.Count, e.Name)
		}
	}

	return sb.String()
}

// renderMTGO marks sideboard lines with an "SB:" prefix.
func renderMTGO(deck *deckimport.ParsedDeck) string {
	var sb strings.Builder

	writeEntries(&sb, deck.MainDeck, "")
	if len(deck.Sideboard) > 0 {
		sb.WriteString("\n")
		writeEntries(&sb, deck.Sideboard, "SB: ")
	}

	return sb.String()
}

// renderMTGGoldfish renders the main deck with a headed sideboard.
func renderMTGGoldfish(deck *deckimport.ParsedDeck) string {
	var sb strings.Builder

	writeEntries(&sb, deck.MainDeck, "")
	if len(deck.Sideboard) > 0 {
		sb.WriteString("\nSideboard\n")
		writeEntries(&sb, deck.Sideboard, "")
	}

	return sb.String()
}

func writeEntries(sb *strings.Builder, entries []deckimport.DeckEntry, prefix string) {
	for _, e := range entries {
		fmt.Fprintf(sb, "%s%d %s\n", prefix, e.Count, e.Name)
	}
}

// sanitizeFilename removes invalid characters from filename.
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if len(result) > 100 {
		result = result[:100]
	}
	if result == "" {
		result = "deck"
	}
	return result
}

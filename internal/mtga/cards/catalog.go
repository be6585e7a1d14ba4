package cards

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards/fuzzy"
	"github.com/mrheathv/mtg-deck-builder/internal/storage"
)

// CatalogSource supplies representative catalog rows, one per card identity.
type CatalogSource interface {
	GetCatalogRows(ctx context.Context, lang string) ([]*storage.CatalogRow, error)
}

// Catalog is a read-only index of cards keyed by name.
type Catalog struct {
	byName map[string]*Card
	names  []string
}

// DefaultedField records a sub-field that could not be decoded and was replaced by an empty value.
type DefaultedField struct {
	Card  string `json:"card"`
	Field string `json:"field"`
	Cause string `json:"cause"`
}

// LoadReport describes non-fatal conditions encountered while building a catalog.
type LoadReport struct {
	Rows            int              `json:"rows"`
	Cards           int              `json:"cards"`
	DuplicateRows   int              `json:"duplicate_rows"`
	NameCollisions  []string         `json:"name_collisions,omitempty"`
	DefaultedFields []DefaultedField `json:"defaulted_fields,omitempty"`
}

// LoadCatalog fetches rows from src and indexes them. A source error is returned;
// field-level problems only show up in the report.
func LoadCatalog(ctx context.Context, src CatalogSource, lang string) (*Catalog, *LoadReport, error) {
	rows, err := src.GetCatalogRows(ctx, lang)
	if err != nil {
		return nil, nil, fmt.Errorf("load card catalog: %w", err)
	}
	catalog, report := NewCatalog(rows)
	return catalog, report, nil
}

// NewCatalog indexes rows by name. The first row seen for each identity wins; rows
// without an identity are keyed by name. Name order follows row order.
func NewCatalog(rows []*storage.CatalogRow) (*Catalog, *LoadReport) {
	c := &Catalog{
		byName: make(map[string]*Card, len(rows)),
		names:  make([]string, 0, len(rows)),
	}
	report := &LoadReport{Rows: len(rows)}
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		if row == nil {
			continue
		}
		identity := row.OracleID
		if identity == "" {
			identity = "name:" + row.Name
		}
		if seen[identity] {
			report.DuplicateRows++
			continue
		}
		seen[identity] = true

		if _, exists := c.byName[row.Name]; exists {
			report.NameCollisions = append(report.NameCollisions, row.Name)
			continue
		}

		card := &Card{
			Name:       row.Name,
			OracleID:   row.OracleID,
			TypeLine:   row.TypeLine,
			ManaCost:   row.ManaCost,
			CMC:        row.CMC,
			Rarity:     row.Rarity,
			OracleText: row.OracleText,
		}
		card.ColorIdentity = decodeStringList(row.ColorIdentity, row.Name, "color_identity", report)
		card.Keywords = decodeStringList(row.Keywords, row.Name, "keywords", report)

		c.byName[card.Name] = card
		c.names = append(c.names, card.Name)
	}

	report.Cards = len(c.names)
	return c, report
}

// decodeStringList decodes a JSON array of strings. NULL yields an empty list silently;
// malformed JSON yields an empty list and a report entry.
func decodeStringList(raw *string, cardName, field string, report *LoadReport) []string {
	if raw == nil || *raw == "" || *raw == "null" {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal([]byte(*raw), &values); err != nil {
		report.DefaultedFields = append(report.DefaultedFields, DefaultedField{
			Card:  cardName,
			Field: field,
			Cause: err.Error(),
		})
		return []string{}
	}
	if values == nil {
		return []string{}
	}
	return values
}

// Lookup returns the card with the given name.
func (c *Catalog) Lookup(name string) (*Card, bool) {
	if c == nil {
		return nil, false
	}
	card, ok := c.byName[name]
	return card, ok
}

// Names returns all card names in catalog order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Search returns up to limit catalog names similar to query, best first.
func (c *Catalog) Search(query string, limit int) []fuzzy.Match {
	if c == nil {
		return nil
	}
	opts := fuzzy.DefaultSearchOptions()
	opts.MaxResults = limit
	return fuzzy.Search(query, c.names, opts)
}

package cards

import (
	"fmt"
	"strings"
)

// Color is a single color-identity symbol.
type Color string

const (
	White     Color = "W"
	Blue      Color = "U"
	Black     Color = "B"
	Red       Color = "R"
	Green     Color = "G"
	Colorless Color = "C" // selection marker: colorless cards permitted
)

// colorOrder is the canonical WUBRG order, colorless last.
var colorOrder = []Color{White, Blue, Black, Red, Green, Colorless}

// ColorSelection is a set of selected colors. The empty selection means no filter.
type ColorSelection map[Color]bool

// NewColorSelection builds a selection from the given colors.
func NewColorSelection(colors ...Color) ColorSelection {
	sel := make(ColorSelection, len(colors))
	for _, c := range colors {
		sel[c] = true
	}
	return sel
}

// ParseColorSelection parses symbols such as "RG", "w,u,c" or "B G". Symbols are
// case-insensitive; commas and whitespace are ignored.
func ParseColorSelection(s string) (ColorSelection, error) {
	sel := make(ColorSelection)
	for _, r := range strings.ToUpper(s) {
		switch r {
		case ',', ' ', '\t':
			continue
		}
		c := Color(string(r))
		if !c.valid() {
			return nil, fmt.Errorf("invalid color symbol %q", r)
		}
		sel[c] = true
	}
	return sel, nil
}

func (c Color) valid() bool {
	for _, known := range colorOrder {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the selection in canonical order, e.g. "URC".
func (s ColorSelection) String() string {
	var sb strings.Builder
	for _, c := range colorOrder {
		if s[c] {
			sb.WriteString(string(c))
		}
	}
	return sb.String()
}

// Colors returns the selected colors in canonical order.
func (s ColorSelection) Colors() []Color {
	out := make([]Color, 0, len(s))
	for _, c := range colorOrder {
		if s[c] {
			out = append(out, c)
		}
	}
	return out
}

// Allows reports whether a card may appear in a deck built from this selection.
//
// Basic lands are always allowed and an empty selection allows everything. Otherwise a
// colorless card needs the colorless marker, unless no actual color was selected, and a
// colored card needs every symbol of its identity to be selected.
func (s ColorSelection) Allows(card *Card) bool {
	if card.IsBasicLand() {
		return true
	}
	if len(s) == 0 {
		return true
	}

	wantColorless := s[Colorless]
	wubrg := 0
	for c, on := range s {
		if on && c != Colorless {
			wubrg++
		}
	}

	if card.IsColorless() {
		return wantColorless || wubrg == 0
	}

	for _, symbol := range card.ColorIdentity {
		c := Color(strings.ToUpper(symbol))
		if c == Colorless || !s[c] {
			return false
		}
	}
	return true
}

// FilterByColors returns the names of catalog cards allowed by sel, in catalog order.
func FilterByColors(catalog *Catalog, sel ColorSelection) []string {
	names := catalog.Names()
	filtered := make([]string, 0, len(names))
	for _, name := range names {
		card, ok := catalog.Lookup(name)
		if !ok {
			continue
		}
		if sel.Allows(card) {
			filtered = append(filtered, name)
		}
	}
	return filtered
}

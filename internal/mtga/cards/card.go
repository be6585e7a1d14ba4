package cards

import "strings"

// Card is the catalog's view of a Magic card: one record per unique name.
type Card struct {
	Name          string   `json:"name"`
	OracleID      string   `json:"oracle_id,omitempty"`
	ColorIdentity []string `json:"color_identity"`
	TypeLine      string   `json:"type_line"`
	ManaCost      string   `json:"mana_cost"`
	CMC           float64  `json:"cmc"`
	Rarity        string   `json:"rarity"`
	OracleText    string   `json:"oracle_text,omitempty"`
	Keywords      []string `json:"keywords"`
}

// IsBasicLand reports whether the card's supertypes mark it as a basic land.
// Only the part of the type line before the subtype dash is considered, so
// "Basic Snow Land — Forest" qualifies and a card merely mentioning basics in a subtype does not.
func (c *Card) IsBasicLand() bool {
	types := strings.ToLower(supertypePart(c.TypeLine))
	return strings.Contains(types, "basic") && strings.Contains(types, "land")
}

// IsColorless reports whether the card has an empty color identity.
func (c *Card) IsColorless() bool {
	return len(c.ColorIdentity) == 0
}

func supertypePart(typeLine string) string {
	for _, sep := range []string{"—", " - "} {
		if i := strings.Index(typeLine, sep); i >= 0 {
			return typeLine[:i]
		}
	}
	return typeLine
}

// ScryfallCard is the subset of Scryfall's card object used by the catalog importer.
type ScryfallCard struct {
	ID              string   `json:"id"`
	OracleID        string   `json:"oracle_id"`
	Name            string   `json:"name"`
	Lang            string   `json:"lang"`
	ReleasedAt      string   `json:"released_at"`
	Layout          string   `json:"layout"`
	ManaCost        string   `json:"mana_cost"`
	CMC             float64  `json:"cmc"`
	TypeLine        string   `json:"type_line"`
	OracleText      string   `json:"oracle_text,omitempty"`
	ColorIdentity   []string `json:"color_identity"`
	Keywords        []string `json:"keywords"`
	Set             string   `json:"set"`
	CollectorNumber string   `json:"collector_number"`
	Rarity          string   `json:"rarity"`
	CardFaces       []struct {
		ManaCost   string `json:"mana_cost"`
		TypeLine   string `json:"type_line"`
		OracleText string `json:"oracle_text"`
	} `json:"card_faces,omitempty"`
}

// FrontManaCost returns the mana cost, falling back to the front face for multi-faced cards.
func (sc *ScryfallCard) FrontManaCost() string {
	if sc.ManaCost == "" && len(sc.CardFaces) > 0 {
		return sc.CardFaces[0].ManaCost
	}
	return sc.ManaCost
}

// FullOracleText returns the oracle text, joining faces for multi-faced cards.
func (sc *ScryfallCard) FullOracleText() string {
	if sc.OracleText != "" || len(sc.CardFaces) == 0 {
		return sc.OracleText
	}
	texts := make([]string, 0, len(sc.CardFaces))
	for _, f := range sc.CardFaces {
		texts = append(texts, f.OracleText)
	}
	return strings.Join(texts, "\n//\n")
}

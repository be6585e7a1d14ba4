package handlers

import (
	"errors"
	"net/http"

	"github.com/mrheathv/mtg-deck-builder/internal/api/response"
	"github.com/mrheathv/mtg-deck-builder/internal/events"
	"github.com/mrheathv/mtg-deck-builder/internal/metrics"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards/fuzzy"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckbuilder"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckimport"
)

// DeckBuilder is the engine behind the catalog, session and deck endpoints.
// It is implemented by *deckbuilder.Builder.
type DeckBuilder interface {
	Catalog() *cards.Catalog
	FilterCards(sel cards.ColorSelection) ([]string, error)
	PromptBlock(sel cards.ColorSelection) (string, error)
	Lookup(name string) (*cards.Card, error)
	SearchCards(query string, limit int) ([]fuzzy.Match, error)
	NewSession(sel cards.ColorSelection) (*deckbuilder.Session, error)
	GetSession(id string) (*deckbuilder.Session, error)
	DeleteSession(id string) error
	ParseDeck(text string) (*deckimport.ParseResult, *deckbuilder.Stats, error)
	ComputeStats(mainDeck []deckimport.DeckEntry) (*deckbuilder.Stats, error)
	SessionCount() int
	Metrics() *metrics.DeckMetrics
	Events() *events.EventDispatcher
}

// writeBuilderError maps engine errors onto HTTP statuses.
func writeBuilderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deckbuilder.ErrNoCatalog):
		response.ServiceUnavailable(w, err)
	case errors.Is(err, deckbuilder.ErrSessionNotFound), errors.Is(err, deckbuilder.ErrCardNotFound):
		response.NotFound(w, err)
	case errors.Is(err, deckbuilder.ErrBusy):
		response.Conflict(w, err)
	case errors.Is(err, deckbuilder.ErrEmptyRequest):
		response.BadRequest(w, err)
	case errors.Is(err, deckbuilder.ErrServiceCall):
		response.BadGateway(w, err)
	default:
		response.InternalError(w, err)
	}
}

// parseColors reads a color selection such as "RG" from the query string.
func parseColors(r *http.Request) (cards.ColorSelection, error) {
	return cards.ParseColorSelection(r.URL.Query().Get("colors"))
}

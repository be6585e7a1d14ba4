package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mrheathv/mtg-deck-builder/internal/api/response"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckbuilder"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckexport"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckimport"
)

// DeckHandler handles stateless deck text requests.
type DeckHandler struct {
	builder DeckBuilder
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(builder DeckBuilder) *DeckHandler {
	return &DeckHandler{builder: builder}
}

// DeckTextRequest carries deck text to parse or import.
type DeckTextRequest struct {
	Text string `json:"text"`
}

// ParseDeckResponse is the result of parsing a model reply.
type ParseDeckResponse struct {
	Result   *deckimport.ParseResult `json:"result"`
	Stats    *deckbuilder.Stats      `json:"stats,omitempty"`
	DeckText string                  `json:"deck_text,omitempty"`
}

// ParseDeck parses text in the model reply format and computes stats when a deck is found.
func (h *DeckHandler) ParseDeck(w http.ResponseWriter, r *http.Request) {
	var req DeckTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	result, stats, err := h.builder.ParseDeck(req.Text)
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	resp := &ParseDeckResponse{Result: result, Stats: stats}
	if result.OK() {
		resp.DeckText = deckexport.RenderArena(result.Deck)
	}
	response.Success(w, resp)
}

// ImportDeckResponse is the result of importing a pasted deck list.
type ImportDeckResponse struct {
	Import *deckimport.ImportResult `json:"import"`
	Stats  *deckbuilder.Stats       `json:"stats"`
}

// ImportDeck parses a deck list pasted in Arena or plain text format.
func (h *DeckHandler) ImportDeck(w http.ResponseWriter, r *http.Request) {
	var req DeckTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	catalog := h.builder.Catalog()
	if catalog == nil {
		writeBuilderError(w, deckbuilder.ErrNoCatalog)
		return
	}

	result, err := deckimport.NewParser(catalog).Parse(req.Text)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	stats := deckbuilder.ComputeStats(result.Deck().MainDeck, catalog)
	response.Success(w, &ImportDeckResponse{Import: result, Stats: stats})
}

// ExportDeckRequest represents a request to export a deck.
type ExportDeckRequest struct {
	Deck           *deckimport.ParsedDeck  `json:"deck"`
	Format         deckexport.ExportFormat `json:"format"`
	Name           string                  `json:"name"`
	IncludeHeaders bool                    `json:"include_headers"`
}

// ExportDeck renders a deck in one of the supported text formats.
func (h *DeckHandler) ExportDeck(w http.ResponseWriter, r *http.Request) {
	var req ExportDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	if req.Deck == nil || len(req.Deck.MainDeck) == 0 {
		response.BadRequest(w, errors.New("deck with a main deck is required"))
		return
	}

	export, err := deckexport.Export(req.Deck, &deckexport.ExportOptions{
		Format:         req.Format,
		Name:           req.Name,
		IncludeHeaders: req.IncludeHeaders,
	})
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	response.Success(w, export)
}

// StatsRequest carries a main deck to analyze.
type StatsRequest struct {
	MainDeck []deckimport.DeckEntry `json:"main_deck"`
}

// GetStats computes stats for a main deck against the catalog.
func (h *DeckHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	for _, entry := range req.MainDeck {
		if entry.Count <= 0 {
			response.BadRequest(w, errors.New("card counts must be positive"))
			return
		}
	}

	stats, err := h.builder.ComputeStats(req.MainDeck)
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	response.Success(w, stats)
}

package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mrheathv/mtg-deck-builder/internal/api/response"
)

// CatalogHandler handles card catalog API requests.
type CatalogHandler struct {
	builder DeckBuilder
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(builder DeckBuilder) *CatalogHandler {
	return &CatalogHandler{builder: builder}
}

// ListCards returns the names of cards allowed by the colors query parameter.
// page and page_size paginate the list; without them every name is returned.
func (h *CatalogHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	sel, err := parseColors(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	names, err := h.builder.FilterCards(sel)
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	pageStr := r.URL.Query().Get("page")
	if pageStr == "" {
		response.Success(w, names)
		return
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		response.BadRequest(w, errors.New("page must be a positive integer"))
		return
	}
	pageSize := 100
	if s := r.URL.Query().Get("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			pageSize = n
		}
	}

	start := (page - 1) * pageSize
	if start > len(names) {
		start = len(names)
	}
	end := start + pageSize
	if end > len(names) {
		end = len(names)
	}

	response.Paginated(w, names[start:end], page, pageSize, len(names))
}

// GetCard returns a card by exact name.
func (h *CatalogHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		response.BadRequest(w, errors.New("card name is required"))
		return
	}

	card, err := h.builder.Lookup(name)
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	response.Success(w, card)
}

// SearchCards returns catalog names close to the q query parameter, best first.
func (h *CatalogHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, errors.New("query parameter q is required"))
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}

	matches, err := h.builder.SearchCards(query, limit)
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	response.Success(w, matches)
}

// GetPrompt returns the card block sent to the model for the colors query parameter.
func (h *CatalogHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	sel, err := parseColors(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	block, err := h.builder.PromptBlock(sel)
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	response.Success(w, map[string]string{
		"colors": sel.String(),
		"prompt": block,
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mrheathv/mtg-deck-builder/internal/api/response"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckbuilder"
)

// SessionHandler handles deck-building conversation requests.
type SessionHandler struct {
	builder DeckBuilder
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(builder DeckBuilder) *SessionHandler {
	return &SessionHandler{builder: builder}
}

// SessionView is the API representation of a session.
type SessionView struct {
	ID        string            `json:"id"`
	Colors    string            `json:"colors"`
	CreatedAt time.Time         `json:"created_at"`
	Busy      bool              `json:"busy"`
	Turn      *deckbuilder.Turn `json:"turn,omitempty"`
}

func newSessionView(s *deckbuilder.Session) *SessionView {
	return &SessionView{
		ID:        s.ID,
		Colors:    s.Selection.String(),
		CreatedAt: s.CreatedAt,
		Busy:      s.Busy(),
		Turn:      s.Current(),
	}
}

// CreateSessionRequest represents a request to open a session.
type CreateSessionRequest struct {
	Colors string `json:"colors"`
}

// CreateSession opens a session for a color selection.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, errors.New("invalid request body"))
			return
		}
	}

	sel, err := cards.ParseColorSelection(req.Colors)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	session, err := h.builder.NewSession(sel)
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	response.Created(w, newSessionView(session))
}

// GetSession returns a session and its latest turn.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.builder.GetSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	response.Success(w, newSessionView(session))
}

// DeleteSession closes a session.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.builder.DeleteSession(chi.URLParam(r, "sessionID")); err != nil {
		writeBuilderError(w, err)
		return
	}

	response.NoContent(w)
}

// SendMessageRequest represents a user message in a session.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage sends a request to the model and returns the processed reply.
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	session, err := h.builder.GetSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	turn, err := session.Send(r.Context(), req.Content)
	if err != nil {
		writeBuilderError(w, err)
		return
	}

	response.Success(w, turn)
}

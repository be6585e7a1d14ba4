package deckbuilder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrheathv/mtg-deck-builder/internal/events"
	"github.com/mrheathv/mtg-deck-builder/internal/llm"
	"github.com/mrheathv/mtg-deck-builder/internal/metrics"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckexport"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckimport"
)

var (
	// ErrBusy is returned when a session already has a request in flight.
	ErrBusy = errors.New("a deck request is already in progress")

	// ErrServiceCall wraps failures of the text-generation service.
	ErrServiceCall = errors.New("text generation request failed")

	// ErrEmptyRequest is returned for blank user messages.
	ErrEmptyRequest = errors.New("request is empty")
)

// ChatClient sends a conversation to the text-generation service.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.ChatMessage) (*llm.ChatResponse, error)
}

// Turn is the outcome of one model reply. Deck, Stats, DeckText and Suggestions are
// set only when a deck was recognized in the reply.
type Turn struct {
	Reply       string                  `json:"reply"`
	Result      *deckimport.ParseResult `json:"result"`
	Deck        *deckimport.ParsedDeck  `json:"deck,omitempty"`
	Stats       *Stats                  `json:"stats,omitempty"`
	DeckText    string                  `json:"deck_text,omitempty"`
	Suggestions map[string][]string     `json:"suggestions,omitempty"` // unrecognized name -> close catalog names
	At          time.Time               `json:"at"`
}

// HasDeck reports whether the turn carries a parsed deck.
func (t *Turn) HasDeck() bool {
	return t != nil && t.Deck != nil
}

// Session is one deck-building conversation over a fixed catalog and color selection.
// At most one request is in flight; each reply replaces the previous turn.
type Session struct {
	ID        string               `json:"id"`
	Selection cards.ColorSelection `json:"-"`
	CreatedAt time.Time            `json:"created_at"`

	catalog   *cards.Catalog
	cardBlock string
	client    ChatClient
	logger    *slog.Logger
	metrics   *metrics.DeckMetrics
	events    *events.EventDispatcher

	busy   atomic.Bool
	closed atomic.Bool

	mu      sync.RWMutex
	history []llm.ChatMessage
	current *Turn
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Current returns the latest turn, or nil before the first reply.
func (s *Session) Current() *Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// History returns a copy of the conversation so far.
func (s *Session) History() []llm.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]llm.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// Send adds the user's request to the conversation and processes the reply.
//
// The first request carries the card pool; later ones refine the same conversation.
// If the service call fails the request is dropped from the history and the previous
// turn is kept. A reply without a deck still becomes the current turn, with no deck.
func (s *Session) Send(ctx context.Context, request string) (*Turn, error) {
	if strings.TrimSpace(request) == "" {
		return nil, ErrEmptyRequest
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.metrics.BusyRejections.Add(1)
		return nil, ErrBusy
	}
	defer s.busy.Store(false)

	s.mu.RLock()
	pending := make([]llm.ChatMessage, len(s.history), len(s.history)+2)
	copy(pending, s.history)
	s.mu.RUnlock()

	followUp := len(pending) > 0
	if !followUp {
		pending = append(pending, BuildRequestMessages(s.cardBlock, s.Selection, request)...)
	} else {
		pending = append(pending, llm.ChatMessage{Role: llm.RoleUser, Content: request})
	}

	s.events.Dispatch(events.New(events.SessionRequestStarted, s.ID, events.RequestStartedEvent{
		Request:  request,
		FollowUp: followUp,
	}))

	s.metrics.Requests.Add(1)
	start := time.Now()
	resp, err := s.client.Chat(ctx, pending)
	s.metrics.ChatLatency.Record(time.Since(start))
	if err != nil {
		s.metrics.RequestErrors.Add(1)
		s.logger.Warn("deck request failed", "session", s.ID, "error", err)
		s.events.Dispatch(events.New(events.SessionRequestFailed, s.ID, events.RequestFailedEvent{Error: err.Error()}))
		return nil, fmt.Errorf("%w: %w", ErrServiceCall, err)
	}

	parseStart := time.Now()
	turn := s.processReply(resp.Message.Content)
	s.metrics.ParseLatency.Record(time.Since(parseStart))
	unrecognized := 0
	if turn.Stats != nil {
		unrecognized = turn.Stats.UnrecognizedCards
	}
	s.metrics.RecordReply(turn.HasDeck(), unrecognized)

	s.mu.Lock()
	s.history = append(pending, llm.ChatMessage{Role: llm.RoleAssistant, Content: resp.Message.Content})
	s.current = turn
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.logger.Info("deck reply processed",
		"session", s.ID,
		"result", turn.Result.Kind.String(),
		"duration", elapsed,
	)
	if turn.Stats != nil && len(turn.Stats.Unrecognized) > 0 {
		s.logger.Warn("reply contains unrecognized cards", "session", s.ID, "cards", turn.Stats.Unrecognized)
	}

	summary := events.TurnEvent{
		Result:     turn.Result.Kind.String(),
		HasDeck:    turn.HasDeck(),
		DurationMS: elapsed.Milliseconds(),
	}
	if turn.Stats != nil {
		summary.TotalCards = turn.Stats.TotalCards
		summary.Unrecognized = turn.Stats.Unrecognized
	}
	s.events.Dispatch(events.New(events.SessionTurn, s.ID, summary))

	return turn, nil
}

// processReply parses a reply and derives stats and deck text when a deck was found.
func (s *Session) processReply(reply string) *Turn {
	turn := &Turn{
		Reply:  reply,
		Result: deckimport.ParseReply(reply),
		At:     time.Now(),
	}
	if !turn.Result.OK() {
		return turn
	}

	turn.Deck = turn.Result.Deck
	turn.Stats = ComputeStats(turn.Deck.MainDeck, s.catalog)
	turn.DeckText = deckexport.RenderArena(turn.Deck)
	turn.Suggestions = suggest(s.catalog, turn.Stats.Unrecognized)
	return turn
}

// suggestionLimit caps the alternatives offered per unrecognized name.
const suggestionLimit = 3

// suggest maps each unrecognized name to similar catalog names. Names without any
// close match are left out.
func suggest(catalog *cards.Catalog, unrecognized []string) map[string][]string {
	if len(unrecognized) == 0 {
		return nil
	}
	out := make(map[string][]string, len(unrecognized))
	for _, name := range unrecognized {
		matches := catalog.Search(name, suggestionLimit)
		if len(matches) == 0 {
			continue
		}
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		out[name] = names
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

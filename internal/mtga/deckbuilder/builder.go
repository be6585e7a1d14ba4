package deckbuilder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/mrheathv/mtg-deck-builder/internal/events"
	"github.com/mrheathv/mtg-deck-builder/internal/metrics"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards/fuzzy"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckimport"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoCatalog is returned when no catalog has been loaded yet.
	ErrNoCatalog = errors.New("card catalog not loaded")

	// ErrCardNotFound is returned by Lookup for names missing from the catalog.
	ErrCardNotFound = errors.New("card not found")
)

// Config configures a Builder.
type Config struct {
	// SessionTTL is how long an idle session is kept. Every access extends it.
	SessionTTL time.Duration

	// PromptCacheTTL is how long a rendered card block is reused for the same colors.
	PromptCacheTTL time.Duration
}

// DefaultConfig returns the default builder configuration.
func DefaultConfig() *Config {
	return &Config{
		SessionTTL:     2 * time.Hour,
		PromptCacheTTL: 30 * time.Minute,
	}
}

// Builder owns the active catalog and the open deck-building sessions.
type Builder struct {
	catalog  atomic.Pointer[cards.Catalog]
	client   ChatClient
	config   *Config
	logger   *slog.Logger
	metrics  *metrics.DeckMetrics
	events   *events.EventDispatcher
	prompts  *cache.Cache
	sessions *cache.Cache
}

// NewBuilder creates a builder. The catalog may be nil and set later with SetCatalog.
func NewBuilder(catalog *cards.Catalog, client ChatClient, config *Config, logger *slog.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &Builder{
		client:   client,
		config:   config,
		logger:   logger,
		metrics:  metrics.NewDeckMetrics(),
		events:   events.NewEventDispatcher(logger),
		prompts:  cache.New(config.PromptCacheTTL, config.PromptCacheTTL),
		sessions: cache.New(config.SessionTTL, time.Minute),
	}
	// go-cache calls OnEvicted for explicit deletes too; DeleteSession marks the session first.
	b.sessions.OnEvicted(func(id string, v interface{}) {
		reason := "expired"
		if s, ok := v.(*Session); ok && s.closed.Load() {
			reason = "deleted"
		}
		logger.Debug("session closed", "session", id, "reason", reason)
		b.events.Dispatch(events.New(events.SessionClosed, id, events.SessionClosedEvent{Reason: reason}))
	})
	if catalog != nil {
		b.catalog.Store(catalog)
	}
	return b
}

// Metrics returns the builder's request metrics.
func (b *Builder) Metrics() *metrics.DeckMetrics {
	return b.metrics
}

// Events returns the dispatcher session and catalog events are raised on.
func (b *Builder) Events() *events.EventDispatcher {
	return b.events
}

// Catalog returns the active catalog, or nil if none is loaded.
func (b *Builder) Catalog() *cards.Catalog {
	return b.catalog.Load()
}

// SetCatalog replaces the active catalog. Open sessions keep the catalog they started with.
func (b *Builder) SetCatalog(catalog *cards.Catalog) {
	b.catalog.Store(catalog)
	b.prompts.Flush()
	b.logger.Info("catalog replaced", "cards", catalog.Len())
	b.events.Dispatch(events.New(events.CatalogReplaced, "", events.CatalogReplacedEvent{Cards: catalog.Len()}))
}

func (b *Builder) requireCatalog() (*cards.Catalog, error) {
	catalog := b.catalog.Load()
	if catalog == nil {
		return nil, ErrNoCatalog
	}
	return catalog, nil
}

// FilterCards returns the names of cards allowed by the selection, in catalog order.
func (b *Builder) FilterCards(sel cards.ColorSelection) ([]string, error) {
	catalog, err := b.requireCatalog()
	if err != nil {
		return nil, err
	}
	return cards.FilterByColors(catalog, sel), nil
}

// PromptBlock returns the rendered card block for a selection, cached per selection.
func (b *Builder) PromptBlock(sel cards.ColorSelection) (string, error) {
	catalog, err := b.requireCatalog()
	if err != nil {
		return "", err
	}
	return b.promptBlock(catalog, sel), nil
}

func (b *Builder) promptBlock(catalog *cards.Catalog, sel cards.ColorSelection) string {
	// Keyed by catalog too, so a block rendered during a catalog swap is never served for the new one.
	key := fmt.Sprintf("%p:%s", catalog, sel.String())
	if cached, ok := b.prompts.Get(key); ok {
		b.metrics.RecordPromptCache(true)
		return cached.(string)
	}
	b.metrics.RecordPromptCache(false)
	block := RenderCardBlock(catalog, cards.FilterByColors(catalog, sel))
	b.prompts.SetDefault(key, block)
	return block
}

// Lookup finds a card in the active catalog.
func (b *Builder) Lookup(name string) (*cards.Card, error) {
	catalog, err := b.requireCatalog()
	if err != nil {
		return nil, err
	}
	card, ok := catalog.Lookup(name)
	if !ok {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// SearchCards returns up to limit catalog names close to query, best first.
func (b *Builder) SearchCards(query string, limit int) ([]fuzzy.Match, error) {
	catalog, err := b.requireCatalog()
	if err != nil {
		return nil, err
	}
	return catalog.Search(query, limit), nil
}

// ParseDeck parses free text as a model reply and, when a deck is found, computes its stats.
func (b *Builder) ParseDeck(text string) (*deckimport.ParseResult, *Stats, error) {
	catalog, err := b.requireCatalog()
	if err != nil {
		return nil, nil, err
	}
	result := deckimport.ParseReply(text)
	if !result.OK() {
		return result, nil, nil
	}
	return result, ComputeStats(result.Deck.MainDeck, catalog), nil
}

// ComputeStats computes stats for a main deck against the active catalog.
func (b *Builder) ComputeStats(mainDeck []deckimport.DeckEntry) (*Stats, error) {
	catalog, err := b.requireCatalog()
	if err != nil {
		return nil, err
	}
	return ComputeStats(mainDeck, catalog), nil
}

// NewSession opens a conversation for the selection over a snapshot of the active catalog.
func (b *Builder) NewSession(sel cards.ColorSelection) (*Session, error) {
	catalog, err := b.requireCatalog()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        uuid.NewString(),
		Selection: sel,
		CreatedAt: time.Now(),
		catalog:   catalog,
		cardBlock: b.promptBlock(catalog, sel),
		client:    b.client,
		logger:    b.logger,
		metrics:   b.metrics,
		events:    b.events,
	}
	b.sessions.SetDefault(session.ID, session)
	b.metrics.SessionsCreated.Add(1)
	b.events.Dispatch(events.New(events.SessionCreated, session.ID, events.SessionCreatedEvent{Colors: sel.String()}))

	b.logger.Info("session created", "session", session.ID, "colors", sel.String())
	return session, nil
}

// GetSession returns an open session and extends its lifetime.
func (b *Builder) GetSession(id string) (*Session, error) {
	v, ok := b.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session := v.(*Session)
	b.sessions.SetDefault(id, session)
	return session, nil
}

// DeleteSession closes a session.
func (b *Builder) DeleteSession(id string) error {
	v, ok := b.sessions.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	v.(*Session).closed.Store(true)
	b.sessions.Delete(id)
	return nil
}

// SessionCount returns the number of open sessions.
func (b *Builder) SessionCount() int {
	return b.sessions.ItemCount()
}

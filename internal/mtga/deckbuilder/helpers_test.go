package deckbuilder

import (
	"context"
	"sync"
	"testing"

	"github.com/mrheathv/mtg-deck-builder/internal/llm"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
	"github.com/mrheathv/mtg-deck-builder/internal/storage"
)

func strPtr(s string) *string {
	return &s
}

func testCatalog(t *testing.T) *cards.Catalog {
	t.Helper()
	rows := []*storage.CatalogRow{
		{OracleID: "o1", Name: "Counterspell", ColorIdentity: strPtr(`["U"]`), TypeLine: "Instant", ManaCost: "{U}{U}", CMC: 2, Rarity: "common"},
		{OracleID: "o8", Name: "Emrakul, the Aeons Torn", ColorIdentity: strPtr(`[]`), TypeLine: "Legendary Creature — Eldrazi", ManaCost: "{15}", CMC: 15, Rarity: "mythic"},
		{OracleID: "o10", Name: "Fable of the Mirror-Breaker", ColorIdentity: strPtr(`["R"]`), TypeLine: "Enchantment — Saga", ManaCost: "{2}{R}", CMC: 3, Rarity: "rare"},
		{OracleID: "o2", Name: "Forest", ColorIdentity: strPtr(`["G"]`), TypeLine: "Basic Land — Forest", Rarity: "common"},
		{OracleID: "o3", Name: "Goblin Guide", ColorIdentity: strPtr(`["R"]`), TypeLine: "Creature — Goblin Scout", ManaCost: "{R}", CMC: 1, Rarity: "rare"},
		{OracleID: "o4", Name: "Lightning Helix", ColorIdentity: strPtr(`["R","W"]`), TypeLine: "Instant", ManaCost: "{R}{W}", CMC: 2, Rarity: "uncommon"},
		{OracleID: "o5", Name: "Mountain", ColorIdentity: strPtr(`["R"]`), TypeLine: "Basic Land — Mountain", Rarity: "common"},
		{OracleID: "o9", Name: "Ornithopter", ColorIdentity: strPtr(`[]`), TypeLine: "Artifact Creature — Thopter", ManaCost: "{0}", CMC: 0, Rarity: "uncommon"},
		{OracleID: "o6", Name: "Shock", ColorIdentity: strPtr(`["R"]`), TypeLine: "Instant", ManaCost: "{R}", CMC: 1, Rarity: "common"},
		{OracleID: "o7", Name: "Sol Ring", ColorIdentity: strPtr(`[]`), TypeLine: "Artifact", ManaCost: "{1}", CMC: 1, Rarity: "uncommon"},
	}
	c, report := cards.NewCatalog(rows)
	if len(report.DefaultedFields) != 0 {
		t.Fatalf("unexpected defaulted fields: %+v", report.DefaultedFields)
	}
	return c
}

// fakeClient replays canned replies and records every conversation it was sent.
type fakeClient struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]llm.ChatMessage
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeClient) Chat(ctx context.Context, messages []llm.ChatMessage) (*llm.ChatResponse, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sent := make([]llm.ChatMessage, len(messages))
	copy(sent, messages)
	f.calls = append(f.calls, sent)

	if f.err != nil {
		return nil, f.err
	}
	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return &llm.ChatResponse{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: reply}}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

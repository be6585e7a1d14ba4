package importer

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
	"github.com/mrheathv/mtg-deck-builder/internal/storage"
)

type memoryStore struct {
	mu      sync.Mutex
	batches [][]*storage.CardPrinting
	err     error
}

func (m *memoryStore) SaveCardPrintings(_ context.Context, printings []*storage.CardPrinting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	batch := make([]*storage.CardPrinting, len(printings))
	copy(batch, printings)
	m.batches = append(m.batches, batch)
	return nil
}

func (m *memoryStore) all() []*storage.CardPrinting {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*storage.CardPrinting
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

const bulkArray = `[
  {"id":"p1","oracle_id":"o1","name":"Shock","lang":"en","layout":"normal","mana_cost":"{R}","cmc":1,"type_line":"Instant","color_identity":["R"],"keywords":[],"set":"m21","collector_number":"159","rarity":"common","released_at":"2020-07-03"},
  {"id":"p2","oracle_id":"o2","name":"Goblin","lang":"en","layout":"token","type_line":"Token Creature — Goblin","color_identity":["R"]},
  {"id":"p3","oracle_id":"o3","name":"Delver of Secrets // Insectile Aberration","lang":"en","layout":"transform","cmc":1,"type_line":"Creature — Human Wizard // Creature — Human Insect","color_identity":["U"],"set":"isd","collector_number":"51","rarity":"common","card_faces":[{"mana_cost":"{U}","type_line":"Creature — Human Wizard","oracle_text":"Look at the top card."},{"mana_cost":"","type_line":"Creature — Human Insect","oracle_text":"Flying"}]},
  {"id":"p4","oracle_id":"o4","name":"Wastes","lang":"en","layout":"normal","cmc":0,"type_line":"Basic Land","set":"ogw","collector_number":"183","rarity":"common"}
]`

func TestDefaultBulkImportOptions(t *testing.T) {
	opts := DefaultBulkImportOptions()

	if opts.BatchSize != 500 {
		t.Errorf("Expected batch size 500, got %d", opts.BatchSize)
	}
	if opts.Progress != nil {
		t.Error("Expected no progress callback by default")
	}
}

func TestImport_JSONArray(t *testing.T) {
	store := &memoryStore{}
	bi := NewBulkImporter(store, BulkImportOptions{BatchSize: 2})

	stats, err := bi.Import(context.Background(), strings.NewReader(bulkArray))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if stats.TotalCards != 4 || stats.ImportedCards != 3 || stats.SkippedCards != 1 || stats.ErrorCards != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(store.batches) != 2 {
		t.Errorf("expected 2 batches, got %d", len(store.batches))
	}

	printings := store.all()
	delver := printings[1]
	if delver.ManaCost == nil || *delver.ManaCost != "{U}" {
		t.Errorf("front face mana cost not used: %v", delver.ManaCost)
	}
	if delver.OracleText == nil || !strings.Contains(*delver.OracleText, "Flying") {
		t.Errorf("face oracle text not joined: %v", delver.OracleText)
	}

	wastes := printings[2]
	if wastes.ColorIdentity != nil {
		t.Errorf("missing color identity should be NULL, got %q", *wastes.ColorIdentity)
	}
}

func TestImport_GzipJSONLines(t *testing.T) {
	lines := `{"id":"p1","oracle_id":"o1","name":"Shock","lang":"en","layout":"normal","type_line":"Instant","color_identity":["R"]}

not json at all
{"id":"p2","oracle_id":"o2","name":"Opt","lang":"en","layout":"normal","type_line":"Instant","color_identity":["U"]}
`
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(lines)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	progress := 0
	store := &memoryStore{}
	bi := NewBulkImporter(store, BulkImportOptions{Progress: func(n int) { progress = n }})

	stats, err := bi.Import(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if stats.TotalCards != 3 || stats.ImportedCards != 2 || stats.ErrorCards != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if progress != 2 {
		t.Errorf("progress = %d, want 2", progress)
	}
}

func TestImport_Empty(t *testing.T) {
	bi := NewBulkImporter(&memoryStore{}, DefaultBulkImportOptions())

	stats, err := bi.Import(context.Background(), strings.NewReader("  \n"))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.TotalCards != 0 {
		t.Errorf("expected no cards, got %+v", stats)
	}
}

func TestImport_StoreError(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	bi := NewBulkImporter(store, DefaultBulkImportOptions())

	if _, err := bi.Import(context.Background(), strings.NewReader(bulkArray)); err == nil {
		t.Error("expected store error to be returned")
	}
}

func TestImport_TruncatedArray(t *testing.T) {
	bi := NewBulkImporter(&memoryStore{}, DefaultBulkImportOptions())

	if _, err := bi.Import(context.Background(), strings.NewReader(`[{"id":"p1","name":"Shock"`)); err == nil {
		t.Error("expected error for truncated array")
	}
}

func TestConvertToPrinting(t *testing.T) {
	card := &cards.ScryfallCard{
		ID:              "test-id",
		OracleID:        "oracle",
		Name:            "Test Card",
		Lang:            "en",
		ManaCost:        "{1}{U}",
		CMC:             2.0,
		TypeLine:        "Creature - Test",
		ColorIdentity:   []string{"U"},
		Keywords:        []string{"Flying"},
		Rarity:          "rare",
		Set:             "tst",
		CollectorNumber: "001",
		ReleasedAt:      "2024-01-01",
	}

	p := ConvertToPrinting(card)

	if p.ID != "test-id" || p.OracleID != "oracle" || p.Name != "Test Card" {
		t.Errorf("identity fields not copied: %+v", p)
	}
	if p.ColorIdentity == nil || *p.ColorIdentity != `["U"]` {
		t.Errorf("ColorIdentity = %v", p.ColorIdentity)
	}
	if p.Keywords == nil || *p.Keywords != `["Flying"]` {
		t.Errorf("Keywords = %v", p.Keywords)
	}
	if p.OracleText != nil {
		t.Errorf("empty oracle text should be NULL, got %q", *p.OracleText)
	}
	if p.SetCode != "tst" || p.CMC != 2.0 {
		t.Errorf("unexpected printing: %+v", p)
	}
}

func TestWatch_ReimportsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cards.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &memoryStore{}
	bi := NewBulkImporter(store, DefaultBulkImportOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	imported := make(chan *ImportStats, 1)
	done := make(chan error, 1)
	go func() {
		done <- bi.Watch(ctx, path, 50*time.Millisecond, func(s *ImportStats) {
			select {
			case imported <- s:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(bulkArray), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case stats := <-imported:
		if stats.ImportedCards != 3 {
			t.Errorf("ImportedCards = %d, want 3", stats.ImportedCards)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for re-import")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

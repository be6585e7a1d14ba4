package cards

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mrheathv/mtg-deck-builder/internal/storage"
)

func strPtr(s string) *string {
	return &s
}

func testRows() []*storage.CatalogRow {
	return []*storage.CatalogRow{
		{OracleID: "o1", Name: "Counterspell", ColorIdentity: strPtr(`["U"]`), TypeLine: "Instant", ManaCost: "{U}{U}", CMC: 2, Rarity: "common"},
		{OracleID: "o2", Name: "Forest", ColorIdentity: strPtr(`["G"]`), TypeLine: "Basic Land — Forest", Rarity: "common"},
		{OracleID: "o3", Name: "Goblin Guide", ColorIdentity: strPtr(`["R"]`), TypeLine: "Creature — Goblin Scout", ManaCost: "{R}", CMC: 1, Rarity: "rare", Keywords: strPtr(`["Haste"]`)},
		{OracleID: "o4", Name: "Lightning Helix", ColorIdentity: strPtr(`["R","W"]`), TypeLine: "Instant", ManaCost: "{R}{W}", CMC: 2, Rarity: "uncommon"},
		{OracleID: "o5", Name: "Mountain", ColorIdentity: strPtr(`["R"]`), TypeLine: "Basic Land — Mountain", Rarity: "common"},
		{OracleID: "o6", Name: "Shock", ColorIdentity: strPtr(`["R"]`), TypeLine: "Instant", ManaCost: "{R}", CMC: 1, Rarity: "common"},
		{OracleID: "o7", Name: "Sol Ring", ColorIdentity: strPtr(`[]`), TypeLine: "Artifact", ManaCost: "{1}", CMC: 1, Rarity: "uncommon"},
		{OracleID: "o8", Name: "Wastes", ColorIdentity: nil, TypeLine: "Basic Land", Rarity: "common"},
	}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, report := NewCatalog(testRows())
	if len(report.DefaultedFields) != 0 {
		t.Fatalf("unexpected defaulted fields: %+v", report.DefaultedFields)
	}
	return c
}

func TestNewCatalog(t *testing.T) {
	c := testCatalog(t)

	if c.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", c.Len())
	}

	card, ok := c.Lookup("Goblin Guide")
	if !ok {
		t.Fatal("expected Goblin Guide in catalog")
	}
	if !reflect.DeepEqual(card.Keywords, []string{"Haste"}) {
		t.Errorf("Keywords = %v", card.Keywords)
	}
	if card.CMC != 1 || card.ManaCost != "{R}" {
		t.Errorf("unexpected card %+v", card)
	}

	wastes, _ := c.Lookup("Wastes")
	if wastes.ColorIdentity == nil || len(wastes.ColorIdentity) != 0 {
		t.Errorf("NULL color identity should decode to empty slice, got %#v", wastes.ColorIdentity)
	}

	if _, ok := c.Lookup("Black Lotus"); ok {
		t.Error("unexpected card found")
	}
}

func TestNewCatalog_DedupByIdentity(t *testing.T) {
	rows := []*storage.CatalogRow{
		{OracleID: "bolt", Name: "Lightning Bolt", TypeLine: "Instant", Rarity: "common"},
		{OracleID: "bolt", Name: "Lightning Bolt", TypeLine: "Instant", Rarity: "uncommon"},
		{OracleID: "bolt", Name: "Blitzschlag", TypeLine: "Spontanzauber"},
		{OracleID: "other", Name: "Lightning Bolt", TypeLine: "Instant"},
		{Name: "Token Thing", TypeLine: "Token"},
		{Name: "Token Thing", TypeLine: "Token"},
	}

	c, report := NewCatalog(rows)

	if got := c.Names(); !reflect.DeepEqual(got, []string{"Lightning Bolt", "Token Thing"}) {
		t.Errorf("Names() = %v", got)
	}
	card, _ := c.Lookup("Lightning Bolt")
	if card.Rarity != "common" {
		t.Errorf("first-seen row should win, got rarity %q", card.Rarity)
	}
	if report.DuplicateRows != 3 {
		t.Errorf("DuplicateRows = %d, want 3", report.DuplicateRows)
	}
	if !reflect.DeepEqual(report.NameCollisions, []string{"Lightning Bolt"}) {
		t.Errorf("NameCollisions = %v", report.NameCollisions)
	}
}

func TestNewCatalog_Reproducible(t *testing.T) {
	a, _ := NewCatalog(testRows())
	b, _ := NewCatalog(testRows())
	if !reflect.DeepEqual(a.Names(), b.Names()) {
		t.Error("repeated loads should produce identical name order")
	}
}

func TestNewCatalog_MalformedFieldsDefault(t *testing.T) {
	rows := []*storage.CatalogRow{
		{OracleID: "x", Name: "Broken", ColorIdentity: strPtr(`{"R":true}`), Keywords: strPtr(`[1,2`), TypeLine: "Instant"},
		{OracleID: "y", Name: "Null Json", ColorIdentity: strPtr(`null`), Keywords: strPtr(""), TypeLine: "Sorcery"},
	}

	c, report := NewCatalog(rows)

	if c.Len() != 2 {
		t.Fatalf("malformed fields must not drop rows, Len() = %d", c.Len())
	}
	broken, _ := c.Lookup("Broken")
	if len(broken.ColorIdentity) != 0 || len(broken.Keywords) != 0 {
		t.Errorf("expected empty defaults, got %+v", broken)
	}
	if len(report.DefaultedFields) != 2 {
		t.Fatalf("DefaultedFields = %+v, want 2 entries", report.DefaultedFields)
	}
	if report.DefaultedFields[0].Field != "color_identity" || report.DefaultedFields[1].Field != "keywords" {
		t.Errorf("unexpected defaulted fields %+v", report.DefaultedFields)
	}
}

func TestCatalog_NamesReturnsCopy(t *testing.T) {
	c := testCatalog(t)
	names := c.Names()
	names[0] = "mutated"
	if c.Names()[0] == "mutated" {
		t.Error("Names() must not expose internal slice")
	}
}

type stubSource struct {
	rows []*storage.CatalogRow
	err  error
	lang string
}

func (s *stubSource) GetCatalogRows(_ context.Context, lang string) ([]*storage.CatalogRow, error) {
	s.lang = lang
	return s.rows, s.err
}

func TestLoadCatalog(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		src := &stubSource{rows: testRows()}
		c, report, err := LoadCatalog(context.Background(), src, "en")
		if err != nil {
			t.Fatalf("LoadCatalog() error = %v", err)
		}
		if src.lang != "en" {
			t.Errorf("lang = %q", src.lang)
		}
		if c.Len() != 8 || report.Cards != 8 || report.Rows != 8 {
			t.Errorf("unexpected sizes: catalog %d, report %+v", c.Len(), report)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		storeErr := errors.New("disk gone")
		_, _, err := LoadCatalog(context.Background(), &stubSource{err: storeErr}, "en")
		if !errors.Is(err, storeErr) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})
}

func TestCatalog_Search(t *testing.T) {
	c := testCatalog(t)

	matches := c.Search("goblin guid", 3)
	if len(matches) == 0 || matches[0].Name != "Goblin Guide" {
		t.Fatalf("expected Goblin Guide first, got %+v", matches)
	}

	if got := c.Search("zzzzzzzz", 3); len(got) != 0 {
		t.Errorf("expected no matches, got %+v", got)
	}

	var nilCatalog *Catalog
	if got := nilCatalog.Search("shock", 3); got != nil {
		t.Errorf("nil catalog should return nil, got %+v", got)
	}
}

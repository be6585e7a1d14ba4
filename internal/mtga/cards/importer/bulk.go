// Package importer loads Scryfall bulk card data into the catalog store.
package importer

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
	"github.com/mrheathv/mtg-deck-builder/internal/storage"
)

// PrintingStore persists card printings.
type PrintingStore interface {
	SaveCardPrintings(ctx context.Context, printings []*storage.CardPrinting) error
}

// BulkImporter handles importing card data from Scryfall bulk files.
type BulkImporter struct {
	store   PrintingStore
	options BulkImportOptions
}

// BulkImportOptions configures the bulk import process.
type BulkImportOptions struct {
	// BatchSize is the number of cards to insert per transaction.
	BatchSize int

	// Progress is an optional callback, called after each batch with the running total.
	Progress func(imported int)

	// Logger receives per-card decode errors and the import summary.
	Logger *slog.Logger
}

// DefaultBulkImportOptions returns sensible default options.
func DefaultBulkImportOptions() BulkImportOptions {
	return BulkImportOptions{
		BatchSize: 500,
	}
}

// NewBulkImporter creates a new bulk importer.
func NewBulkImporter(store PrintingStore, options BulkImportOptions) *BulkImporter {
	if options.BatchSize <= 0 {
		options.BatchSize = DefaultBulkImportOptions().BatchSize
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &BulkImporter{
		store:   store,
		options: options,
	}
}

// ImportStats contains statistics about the import process.
type ImportStats struct {
	TotalCards    int
	ImportedCards int
	SkippedCards  int
	ErrorCards    int
	Duration      time.Duration
}

// skippedLayouts are card objects in bulk data that never belong in a deck.
var skippedLayouts = map[string]bool{
	"token":              true,
	"double_faced_token": true,
	"emblem":             true,
	"art_series":         true,
	"vanguard":           true,
	"scheme":             true,
	"planar":             true,
}

// ImportFile imports a bulk file. Both a JSON array and JSON lines are accepted,
// optionally gzip-compressed.
func (bi *BulkImporter) ImportFile(ctx context.Context, path string) (*ImportStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return bi.Import(ctx, file)
}

// Import imports bulk data from r.
func (bi *BulkImporter) Import(ctx context.Context, r io.Reader) (*ImportStats, error) {
	start := time.Now()

	br := bufio.NewReaderSize(r, 64*1024)
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gzReader, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer func() { _ = gzReader.Close() }()
		br = bufio.NewReaderSize(gzReader, 64*1024)
	}

	first, err := firstNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &ImportStats{Duration: time.Since(start)}, nil
		}
		return nil, fmt.Errorf("failed to read bulk data: %w", err)
	}

	b := newBatcher(ctx, bi)
	if first == '[' {
		err = bi.decodeArray(ctx, br, b)
	} else {
		err = bi.decodeLines(ctx, br, b)
	}
	if err == nil {
		err = b.flush()
	}

	b.stats.Duration = time.Since(start)
	if err != nil {
		return b.stats, err
	}

	bi.options.Logger.Info("bulk import complete",
		"total", b.stats.TotalCards,
		"imported", b.stats.ImportedCards,
		"skipped", b.stats.SkippedCards,
		"errors", b.stats.ErrorCards,
		"duration", b.stats.Duration,
	)
	return b.stats, nil
}

// firstNonSpace peeks past leading whitespace and returns the next byte without consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c, br.UnreadByte()
	}
}

// decodeArray streams the elements of a top-level JSON array.
func (bi *BulkImporter) decodeArray(ctx context.Context, r io.Reader, b *batcher) error {
	dec := json.NewDecoder(r)
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read array start: %w", err)
	}

	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var card cards.ScryfallCard
		if err := dec.Decode(&card); err != nil {
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				return fmt.Errorf("failed to decode card %d: %w", b.stats.TotalCards+1, err)
			}
			b.decodeError(err)
			continue
		}
		if err := b.add(&card); err != nil {
			return err
		}
	}

	return nil
}

// decodeLines reads one card object per line.
func (bi *BulkImporter) decodeLines(ctx context.Context, r io.Reader, b *batcher) error {
	scanner := bufio.NewScanner(r)
	// Some cards have very long oracle text.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var card cards.ScryfallCard
		if err := json.Unmarshal(line, &card); err != nil {
			b.decodeError(err)
			continue
		}
		if err := b.add(&card); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// batcher accumulates converted printings and writes them in batches.
type batcher struct {
	ctx   context.Context
	bi    *BulkImporter
	batch []*storage.CardPrinting
	stats *ImportStats
}

func newBatcher(ctx context.Context, bi *BulkImporter) *batcher {
	return &batcher{
		ctx:   ctx,
		bi:    bi,
		batch: make([]*storage.CardPrinting, 0, bi.options.BatchSize),
		stats: &ImportStats{},
	}
}

func (b *batcher) decodeError(err error) {
	b.stats.TotalCards++
	b.stats.ErrorCards++
	b.bi.options.Logger.Debug("skipping undecodable card", "index", b.stats.TotalCards, "error", err)
}

func (b *batcher) add(card *cards.ScryfallCard) error {
	b.stats.TotalCards++

	if card.ID == "" || card.Name == "" || skippedLayouts[card.Layout] {
		b.stats.SkippedCards++
		return nil
	}

	b.batch = append(b.batch, ConvertToPrinting(card))
	if len(b.batch) >= b.bi.options.BatchSize {
		return b.flush()
	}
	return nil
}

func (b *batcher) flush() error {
	if len(b.batch) == 0 {
		return nil
	}
	if err := b.bi.store.SaveCardPrintings(b.ctx, b.batch); err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	b.stats.ImportedCards += len(b.batch)
	if b.bi.options.Progress != nil {
		b.bi.options.Progress(b.stats.ImportedCards)
	}
	b.batch = b.batch[:0]
	return nil
}

// ConvertToPrinting converts a Scryfall card to a stored printing.
// Multi-faced cards take their mana cost from the front face and join the faces' oracle text.
func ConvertToPrinting(card *cards.ScryfallCard) *storage.CardPrinting {
	return &storage.CardPrinting{
		ID:              card.ID,
		OracleID:        card.OracleID,
		Name:            card.Name,
		Lang:            card.Lang,
		ReleasedAt:      nullable(card.ReleasedAt),
		ColorIdentity:   jsonList(card.ColorIdentity),
		TypeLine:        frontTypeLine(card),
		ManaCost:        nullable(card.FrontManaCost()),
		CMC:             card.CMC,
		Rarity:          nullable(card.Rarity),
		OracleText:      nullable(card.FullOracleText()),
		Keywords:        jsonList(card.Keywords),
		SetCode:         card.Set,
		CollectorNumber: card.CollectorNumber,
	}
}

func frontTypeLine(card *cards.ScryfallCard) string {
	if card.TypeLine == "" && len(card.CardFaces) > 0 {
		return card.CardFaces[0].TypeLine
	}
	return card.TypeLine
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// jsonList encodes a string list as a JSON array. A nil list is stored as NULL.
func jsonList(list []string) *string {
	if list == nil {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

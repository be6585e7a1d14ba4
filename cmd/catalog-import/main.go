// Package main imports Scryfall bulk card data into the catalog database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mrheathv/mtg-deck-builder/internal/config"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards/importer"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards/scryfall"
	"github.com/mrheathv/mtg-deck-builder/internal/storage"
	"github.com/mrheathv/mtg-deck-builder/internal/version"
)

var (
	dbPath    = flag.String("db", "", "Catalog database path (default: ~/.mtg-deck-builder/catalog.db)")
	file      = flag.String("file", "", "Scryfall bulk data file (JSON array or JSON lines, optionally gzipped)")
	batchSize = flag.Int("batch-size", 500, "Cards per insert transaction")
	download  = flag.String("download", "", "Download this Scryfall bulk type (e.g. oracle_cards) to -file before importing")
	watch     = flag.Bool("watch", false, "Keep running and re-import when the file changes")
	verbose   = flag.Bool("verbose", false, "Verbose logging")
)

func main() {
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: catalog-import -file <bulk.json> [-download oracle_cards] [-db <path>] [-watch]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	finalDBPath := *dbPath
	if finalDBPath == "" {
		resolved, err := config.DefaultConfig().ResolveDBPath()
		if err != nil {
			log.Fatalf("Failed to resolve database path: %v", err)
		}
		finalDBPath = resolved
	}
	if err := os.MkdirAll(filepath.Dir(finalDBPath), 0o755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	dbConfig := storage.DefaultConfig(finalDBPath)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	store := storage.NewService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bi := importer.NewBulkImporter(store, importer.BulkImportOptions{
		BatchSize: *batchSize,
		Logger:    logger,
		Progress: func(imported int) {
			if *verbose {
				fmt.Printf("\rImported: %d", imported)
			}
		},
	})

	if *download != "" {
		fmt.Printf("Downloading Scryfall %s bulk data to %s\n", *download, *file)
		client := scryfall.NewClient(scryfall.WithLogger(logger))
		bulk, err := client.DownloadBulkFile(ctx, *download, *file)
		if err != nil {
			log.Fatalf("Download failed: %v", err)
		}
		fmt.Printf("  Bulk data updated at: %s\n", bulk.UpdatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Printf("catalog-import %s\n", version.String())
	fmt.Printf("Importing %s into %s\n", *file, finalDBPath)
	stats, err := bi.ImportFile(ctx, *file)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	printStats(stats)

	total, err := store.CountCardPrintings(ctx)
	if err == nil {
		fmt.Printf("  Printings in catalog: %d\n", total)
	}

	if !*watch {
		return
	}

	fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	if err := bi.Watch(ctx, *file, importer.DefaultDebounce, printStats); err != nil {
		log.Fatalf("Watch failed: %v", err)
	}
}

func printStats(stats *importer.ImportStats) {
	fmt.Printf("\nImport complete:\n")
	fmt.Printf("  Total cards: %d\n", stats.TotalCards)
	fmt.Printf("  Imported: %d\n", stats.ImportedCards)
	fmt.Printf("  Skipped: %d\n", stats.SkippedCards)
	fmt.Printf("  Errors: %d\n", stats.ErrorCards)
	fmt.Printf("  Total time: %.2fs\n", stats.Duration.Seconds())
}

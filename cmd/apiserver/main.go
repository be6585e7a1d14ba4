// Package main runs the deck builder REST API.
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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/mrheathv/mtg-deck-builder/internal/api"
	"github.com/mrheathv/mtg-deck-builder/internal/config"
	"github.com/mrheathv/mtg-deck-builder/internal/llm"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/cards/importer"
	"github.com/mrheathv/mtg-deck-builder/internal/mtga/deckbuilder"
	"github.com/mrheathv/mtg-deck-builder/internal/storage"
	"github.com/mrheathv/mtg-deck-builder/internal/version"
)

var (
	configPath = flag.String("config", "", "Config file (default: ~/.mtg-deck-builder/config.toml)")
	envFile    = flag.String("env-file", ".env", "Optional .env file with DECKBUILDER_* overrides")
	port       = flag.Int("port", 0, "API server port (overrides config)")
	dbPath     = flag.String("db-path", "", "Catalog database path (overrides config)")
	bulkFile   = flag.String("bulk-file", "", "Scryfall bulk file to watch and re-import (overrides config)")
)

func main() {
	flag.Parse()

	fmt.Printf("MTG Deck Builder - REST API Server %s\n", version.String())
	fmt.Println("==================================")
	fmt.Println()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load %s: %v", *envFile, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelInfo
	if cfg.App.DebugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	finalDBPath, err := cfg.ResolveDBPath()
	if err != nil {
		log.Fatalf("Failed to resolve database path: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(finalDBPath), 0o755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	fmt.Printf("Database: %s\n", finalDBPath)

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

	builder := deckbuilder.NewBuilder(nil, chatClient(ctx, cfg, logger), builderConfig(cfg), logger)
	if err := reloadCatalog(ctx, store, cfg.Catalog.Language, builder, logger); err != nil {
		log.Printf("Warning: catalog not loaded: %v", err)
	}

	server := api.NewServer(&api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, builder)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})

	if cfg.Catalog.BulkFile != "" {
		bi := importer.NewBulkImporter(store, importer.BulkImportOptions{Logger: logger})
		g.Go(func() error {
			return bi.Watch(gctx, cfg.Catalog.BulkFile, importer.DefaultDebounce, func(stats *importer.ImportStats) {
				if err := reloadCatalog(gctx, store, cfg.Catalog.Language, builder, logger); err != nil {
					logger.Error("catalog reload failed", "error", err)
				}
			})
		})
		fmt.Printf("Watching bulk file: %s\n", cfg.Catalog.BulkFile)
	}

	fmt.Println()
	fmt.Printf("API server running at http://localhost:%d\n", cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if err := g.Wait(); err != nil {
		log.Printf("Server error: %v", err)
	}

	fmt.Println("API server stopped.")
}

// loadConfig reads the config file, then applies environment and flag overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Catalog.DBPath = *dbPath
	}
	if *bulkFile != "" {
		cfg.Catalog.BulkFile = *bulkFile
	}

	return cfg, cfg.Validate()
}

func llmConfig(cfg *config.Config) *llm.Config {
	timeout, _ := cfg.GetLLMTimeout()
	return &llm.Config{
		Endpoint:          cfg.LLM.Endpoint,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
		RequestTimeout:    timeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}
}

// chatClient builds the client for the configured provider.
func chatClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) deckbuilder.ChatClient {
	if cfg.LLM.Provider != config.ProviderOllama {
		fmt.Printf("Text generation: %s (%s)\n", cfg.LLM.Endpoint, cfg.LLM.Model)
		return llm.NewClient(llmConfig(cfg))
	}

	ollamaCfg := llm.DefaultOllamaConfig()
	ollamaCfg.BaseURL = cfg.LLM.OllamaURL
	ollamaCfg.Model = cfg.LLM.Model
	ollamaCfg.Temperature = cfg.LLM.Temperature
	ollamaCfg.MaxTokens = cfg.LLM.MaxTokens
	if timeout, err := cfg.GetLLMTimeout(); err == nil {
		ollamaCfg.InferenceTimeout = timeout
	}
	client := llm.NewOllamaClient(ollamaCfg)

	status := client.CheckAvailability(ctx)
	if !status.Available || !status.ModelReady {
		logger.Warn("ollama not ready", "url", ollamaCfg.BaseURL, "model", ollamaCfg.Model, "error", status.Error)
	} else {
		logger.Info("ollama ready", "version", status.Version, "model", ollamaCfg.Model)
	}
	fmt.Printf("Text generation: ollama at %s (%s)\n", ollamaCfg.BaseURL, ollamaCfg.Model)
	return client
}

func builderConfig(cfg *config.Config) *deckbuilder.Config {
	sessionTTL, _ := cfg.GetSessionTTL()
	promptTTL, _ := cfg.GetPromptCacheTTL()
	return &deckbuilder.Config{
		SessionTTL:     sessionTTL,
		PromptCacheTTL: promptTTL,
	}
}

// reloadCatalog loads the catalog from the store and swaps it into the builder.
func reloadCatalog(ctx context.Context, store *storage.Service, lang string, builder *deckbuilder.Builder, logger *slog.Logger) error {
	catalog, report, err := cards.LoadCatalog(ctx, store, lang)
	if err != nil {
		return err
	}

	logger.Info("catalog loaded",
		"rows", report.Rows,
		"cards", report.Cards,
		"duplicate_rows", report.DuplicateRows,
		"name_collisions", len(report.NameCollisions),
		"defaulted_fields", len(report.DefaultedFields),
	)
	for _, d := range report.DefaultedFields {
		logger.Debug("catalog field defaulted", "card", d.Card, "field", d.Field, "cause", d.Cause)
	}
	if report.Cards == 0 {
		logger.Warn("catalog is empty; import cards with catalog-import")
	}

	builder.SetCatalog(catalog)
	return nil
}

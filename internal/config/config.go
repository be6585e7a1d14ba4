package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Text-generation service configuration
	LLM LLMConfig `toml:"llm"`

	// Card catalog configuration
	Catalog CatalogConfig `toml:"catalog"`

	// HTTP server configuration
	Server ServerConfig `toml:"server"`

	// Deck-building session configuration
	Session SessionConfig `toml:"session"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// Text-generation providers.
const (
	ProviderProxy  = "proxy"
	ProviderOllama = "ollama"
)

// LLMConfig contains settings for the chat endpoint.
type LLMConfig struct {
	Provider          string  `toml:"provider"`            // "proxy" or "ollama"
	OllamaURL         string  `toml:"ollama_url"`          // Ollama server (provider "ollama")
	Endpoint          string  `toml:"endpoint"`            // Chat endpoint URL (usually the proxy)
	Model             string  `toml:"model"`               // Model name
	Temperature       float64 `toml:"temperature"`         // Sampling temperature
	MaxTokens         int     `toml:"max_tokens"`          // Reply length cap
	Timeout           string  `toml:"timeout"`             // Request timeout (e.g., "120s")
	RequestsPerMinute int     `toml:"requests_per_minute"` // Outgoing throttle (0 = unlimited)
}

// CatalogConfig contains card catalog settings.
type CatalogConfig struct {
	DBPath   string `toml:"db_path"`   // SQLite database path
	Language string `toml:"language"`  // Printing language to load ("" = any)
	BulkFile string `toml:"bulk_file"` // Scryfall bulk file to watch (optional)
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port           int      `toml:"port"`            // Listen port
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins
}

// SessionConfig contains session settings.
type SessionConfig struct {
	TTL            string `toml:"ttl"`              // Idle session lifetime (e.g., "2h")
	PromptCacheTTL string `toml:"prompt_cache_ttl"` // Card block cache lifetime
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          ProviderProxy,
			OllamaURL:         "http://localhost:11434",
			Endpoint:          "http://localhost:8787/api/chat",
			Model:             "gpt-4o-mini",
			Temperature:       0.7,
			MaxTokens:         2000,
			Timeout:           "120s",
			RequestsPerMinute: 20,
		},
		Catalog: CatalogConfig{
			DBPath:   "",
			Language: "en",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Session: SessionConfig{
			TTL:            "2h",
			PromptCacheTTL: "30m",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Dir returns the configuration directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".mtg-deck-builder")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return configDir, nil
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path. Returns default config if the file doesn't exist.
// Keys missing from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides settings from DECKBUILDER_* variables read through getenv.
// Unset or empty variables are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	str("DECKBUILDER_LLM_PROVIDER", &c.LLM.Provider)
	str("DECKBUILDER_OLLAMA_URL", &c.LLM.OllamaURL)
	str("DECKBUILDER_LLM_ENDPOINT", &c.LLM.Endpoint)
	str("DECKBUILDER_LLM_MODEL", &c.LLM.Model)
	str("DECKBUILDER_LLM_TIMEOUT", &c.LLM.Timeout)
	str("DECKBUILDER_DB_PATH", &c.Catalog.DBPath)
	str("DECKBUILDER_CATALOG_LANGUAGE", &c.Catalog.Language)
	str("DECKBUILDER_BULK_FILE", &c.Catalog.BulkFile)
	str("DECKBUILDER_SESSION_TTL", &c.Session.TTL)

	if err := integer("DECKBUILDER_PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := integer("DECKBUILDER_LLM_RPM", &c.LLM.RequestsPerMinute); err != nil {
		return err
	}

	if v := getenv("DECKBUILDER_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DECKBUILDER_DEBUG %q: %w", v, err)
		}
		c.App.DebugMode = debug
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderProxy:
		if c.LLM.Endpoint == "" {
			return fmt.Errorf("llm endpoint is required")
		}
	case ProviderOllama:
		if c.LLM.OllamaURL == "" {
			return fmt.Errorf("ollama url is required")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm timeout %q: %w", c.LLM.Timeout, err)
	}

	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max tokens must be positive: %d", c.LLM.MaxTokens)
	}

	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("requests per minute cannot be negative: %d", c.LLM.RequestsPerMinute)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if _, err := time.ParseDuration(c.Session.TTL); err != nil {
		return fmt.Errorf("invalid session TTL %q: %w", c.Session.TTL, err)
	}

	if _, err := time.ParseDuration(c.Session.PromptCacheTTL); err != nil {
		return fmt.Errorf("invalid prompt cache TTL %q: %w", c.Session.PromptCacheTTL, err)
	}

	return nil
}

// GetLLMTimeout returns the chat request timeout as a duration.
func (c *Config) GetLLMTimeout() (time.Duration, error) {
	return time.ParseDuration(c.LLM.Timeout)
}

// GetSessionTTL returns the idle session lifetime as a duration.
func (c *Config) GetSessionTTL() (time.Duration, error) {
	return time.ParseDuration(c.Session.TTL)
}

// GetPromptCacheTTL returns the card block cache lifetime as a duration.
func (c *Config) GetPromptCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Session.PromptCacheTTL)
}

// ResolveDBPath returns the catalog database path, defaulting to catalog.db in the config directory.
func (c *Config) ResolveDBPath() (string, error) {
	if c.Catalog.DBPath != "" {
		return c.Catalog.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "catalog.db"), nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Catalog.Language != "en" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[llm]\nmodel = \"local-model\"\n\n[server]\nport = 9090\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.LLM.Model != "local-model" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.LLM.Endpoint != DefaultConfig().LLM.Endpoint {
		t.Errorf("Endpoint should keep its default, got %q", cfg.LLM.Endpoint)
	}
	if cfg.Session.TTL != "2h" {
		t.Errorf("session TTL should keep its default, got %q", cfg.Session.TTL)
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[llm\nmodel = "), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Catalog.DBPath = "/tmp/catalog.db"
	cfg.App.DebugMode = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Catalog.DBPath != "/tmp/catalog.db" || !loaded.App.DebugMode {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DECKBUILDER_LLM_ENDPOINT": "http://proxy:9000/chat",
		"DECKBUILDER_PORT":         "7070",
		"DECKBUILDER_DEBUG":        "true",
		"DECKBUILDER_DB_PATH":      "/data/cards.db",
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.LLM.Endpoint != "http://proxy:9000/chat" {
		t.Errorf("Endpoint = %q", cfg.LLM.Endpoint)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if !cfg.App.DebugMode {
		t.Error("DebugMode should be true")
	}
	if cfg.Catalog.DBPath != "/data/cards.db" {
		t.Errorf("DBPath = %q", cfg.Catalog.DBPath)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("unset variables should not change values, Model = %q", cfg.LLM.Model)
	}
}

func TestValidate_OllamaIgnoresEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(func(k string) string {
		return map[string]string{"DECKBUILDER_LLM_PROVIDER": "ollama", "DECKBUILDER_OLLAMA_URL": "http://gpu:11434"}[k]
	}); err != nil {
		t.Fatal(err)
	}
	cfg.LLM.Endpoint = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if cfg.LLM.OllamaURL != "http://gpu:11434" {
		t.Errorf("OllamaURL = %q", cfg.LLM.OllamaURL)
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port", key: "DECKBUILDER_PORT", val: "eighty"},
		{name: "rpm", key: "DECKBUILDER_LLM_RPM", val: "1.5"},
		{name: "debug", key: "DECKBUILDER_DEBUG", val: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.ApplyEnv(func(k string) string {
				if k == tt.key {
					return tt.val
				}
				return ""
			})
			if err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "empty endpoint", modify: func(c *Config) { c.LLM.Endpoint = "" }},
		{name: "unknown provider", modify: func(c *Config) { c.LLM.Provider = "carrier-pigeon" }},
		{name: "ollama without url", modify: func(c *Config) { c.LLM.Provider = ProviderOllama; c.LLM.OllamaURL = "" }},
		{name: "bad timeout", modify: func(c *Config) { c.LLM.Timeout = "soon" }},
		{name: "zero max tokens", modify: func(c *Config) { c.LLM.MaxTokens = 0 }},
		{name: "negative rpm", modify: func(c *Config) { c.LLM.RequestsPerMinute = -1 }},
		{name: "bad port", modify: func(c *Config) { c.Server.Port = 70000 }},
		{name: "bad session ttl", modify: func(c *Config) { c.Session.TTL = "forever" }},
		{name: "bad prompt cache ttl", modify: func(c *Config) { c.Session.PromptCacheTTL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := DefaultConfig()

	if d, err := cfg.GetLLMTimeout(); err != nil || d != 120*time.Second {
		t.Errorf("GetLLMTimeout() = %v, %v", d, err)
	}
	if d, err := cfg.GetSessionTTL(); err != nil || d != 2*time.Hour {
		t.Errorf("GetSessionTTL() = %v, %v", d, err)
	}
	if d, err := cfg.GetPromptCacheTTL(); err != nil || d != 30*time.Minute {
		t.Errorf("GetPromptCacheTTL() = %v, %v", d, err)
	}
}

func TestResolveDBPath_Explicit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Catalog.DBPath = "/srv/catalog.db"

	got, err := cfg.ResolveDBPath()
	if err != nil || got != "/srv/catalog.db" {
		t.Errorf("ResolveDBPath() = %q, %v", got, err)
	}
}

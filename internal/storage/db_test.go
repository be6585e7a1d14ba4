package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("test.db")

	if config.Path != "test.db" {
		t.Errorf("expected path 'test.db', got '%s'", config.Path)
	}
	if config.BusyTimeout != 5*time.Second {
		t.Errorf("expected BusyTimeout 5s, got %v", config.BusyTimeout)
	}
	if config.JournalMode != "WAL" {
		t.Errorf("expected JournalMode 'WAL', got '%s'", config.JournalMode)
	}
	if config.AutoMigrate {
		t.Error("expected AutoMigrate to default to false")
	}
}

func TestOpen(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		if _, err := Open(nil); err == nil {
			t.Error("expected error for nil config")
		}
	})

	t.Run("in-memory", func(t *testing.T) {
		db, err := Open(DefaultConfig(":memory:"))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = db.Close() }()

		if err := db.Ping(); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("auto-migrate creates schema", func(t *testing.T) {
		config := DefaultConfig(filepath.Join(t.TempDir(), "nested", "catalog.db"))
		config.AutoMigrate = true

		db, err := Open(config)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = db.Close() }()

		var name string
		err = db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='cards'").Scan(&name)
		if err != nil {
			t.Fatalf("cards table missing: %v", err)
		}
	})

	t.Run("auto-migrate rejects memory database", func(t *testing.T) {
		config := DefaultConfig(":memory:")
		config.AutoMigrate = true
		if _, err := Open(config); err == nil {
			t.Error("expected error")
		}
	})
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := service.DB().WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO cards (id, name) VALUES ('z', 'Zap')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	n, err := service.CountCardPrintings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected rollback, found %d rows", n)
	}
}

func TestMigrationManager_Version(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "v.db")
	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("NewMigrationManager() error = %v", err)
	}
	defer func() { _ = mgr.Close() }()

	if err := mgr.Up(); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	// Up is idempotent.
	if err := mgr.Up(); err != nil {
		t.Fatalf("second Up() error = %v", err)
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Version() = %d, dirty=%v; want 1, false", version, dirty)
	}
}

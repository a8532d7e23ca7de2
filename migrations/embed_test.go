package migrations

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/lumicore/internal/infrastructure/database"
)

func TestEmbeddedSchemaAppliesAndReverts(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "schema.db"), WALMode: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"devices", "param_history"} {
		var n int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil || n != 1 {
			t.Errorf("table %s: n=%d err=%v", table, n, err)
		}
	}

	applied, _, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	for range applied {
		if err := db.Rollback(ctx); err != nil {
			t.Fatalf("Rollback() error = %v", err)
		}
	}
	_, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(pending) != len(applied) {
		t.Errorf("pending after full rollback = %d, want %d", len(pending), len(applied))
	}
}

package database

import (
	"path/filepath"
	"testing"

	"ecoflow/internal/platform/config"
)

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "nested", "ecoflow.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	applied, err := Migrate(db)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if len(applied) != 1 || applied[0] != "migrations/001_init.sql" {
		t.Errorf("Applied = %v", applied)
	}

	for _, table := range []string{"devices", "quota_snapshots", "command_log"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s missing: %v", table, err)
		}
	}

	applied, err = Migrate(db)
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("Expected no migrations on second run, got %v", applied)
	}
}

func TestApply_RollsBackWhenRecordFails(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	// Without schema_migrations the record insert fails after the DDL ran.
	if err := apply(db, "migrations/999_test.sql", `CREATE TABLE half_applied (id INTEGER PRIMARY KEY);`); err == nil {
		t.Fatal("Expected apply() to fail")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'half_applied'`).Scan(&count); err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if count != 0 {
		t.Error("Expected the migration to be rolled back with its record")
	}
}

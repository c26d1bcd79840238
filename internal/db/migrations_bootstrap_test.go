package db

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openRawSQLite(t *testing.T, path string) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return database
}

func TestOpenSQLiteAppliesEmbeddedMigrationsOnCleanDatabase(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "nested", "nutriwell-clean.db")
	database, err := OpenSQLite(databasePath)
	if err != nil {
		t.Fatalf("OpenSQLite() unexpected error: %v", err)
	}
	sqlDB, _ := database.DB()
	defer sqlDB.Close()

	for _, table := range []string{"users", "profiles", "daily_counters", "counter_history", "meal_records", "progress_photos", "reference_materials", "sync_outbox"} {
		if !database.Migrator().HasTable(table) {
			t.Fatalf("expected table %s after migrations", table)
		}
	}

	var versions []string
	if err := database.Raw(`SELECT version FROM schema_migrations ORDER BY version`).Scan(&versions).Error; err != nil {
		t.Fatalf("load migration versions: %v", err)
	}
	if want := []string{"0001", "0002", "0003"}; !reflect.DeepEqual(versions, want) {
		t.Fatalf("applied versions = %v, want %v", versions, want)
	}
}

func TestOpenSQLiteIsIdempotent(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "nutriwell-reopen.db")
	for range 2 {
		database, err := OpenSQLite(databasePath)
		if err != nil {
			t.Fatalf("OpenSQLite() unexpected error: %v", err)
		}
		sqlDB, _ := database.DB()
		_ = sqlDB.Close()
	}

	database := openRawSQLite(t, databasePath)
	var count int64
	if err := database.Raw(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count).Error; err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 recorded migrations, got %d", count)
	}
}

func TestApplyMigrationsSkipsExistingAddedColumns(t *testing.T) {
	database := openRawSQLite(t, filepath.Join(t.TempDir(), "nutriwell-columns.db"))
	if err := database.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`).Error; err != nil {
		t.Fatalf("seed table: %v", err)
	}
	// A column added by hand before the migration shipped.
	if err := database.Exec(`ALTER TABLE notes ADD COLUMN pinned BOOLEAN NOT NULL DEFAULT 0`).Error; err != nil {
		t.Fatalf("seed column: %v", err)
	}

	source := fstest.MapFS{
		"0001_pin_notes.sql": {Data: []byte(`ALTER TABLE notes ADD COLUMN pinned BOOLEAN NOT NULL DEFAULT 0;
CREATE INDEX IF NOT EXISTS idx_notes_pinned ON notes(pinned);`)},
		"README.md": {Data: []byte("ignored")},
	}
	applied, err := applyMigrationsFrom(database, source)
	if err != nil {
		t.Fatalf("applyMigrationsFrom() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(applied, []string{"0001_pin_notes.sql"}) {
		t.Fatalf("applied = %v", applied)
	}

	applied, err = applyMigrationsFrom(database, source)
	if err != nil {
		t.Fatalf("second applyMigrationsFrom() unexpected error: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected nothing applied on rerun, got %v", applied)
	}
}

func TestReadMigrationsValidation(t *testing.T) {
	tests := []struct {
		name   string
		source fstest.MapFS
		want   string
	}{
		{
			name: "duplicate version",
			source: fstest.MapFS{
				"0001_a.sql": {Data: []byte("SELECT 1;")},
				"0001_b.sql": {Data: []byte("SELECT 1;")},
			},
			want: "duplicate migration version",
		},
		{
			name:   "empty migration",
			source: fstest.MapFS{"0002_empty.sql": {Data: []byte("  ;  ")}},
			want:   "has no SQL statements",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := readMigrations(testCase.source)
			if err == nil || !strings.Contains(err.Error(), testCase.want) {
				t.Fatalf("expected error containing %q, got %v", testCase.want, err)
			}
		})
	}
}

func TestReadMigrationsOrdersNumerically(t *testing.T) {
	migrations, err := readMigrations(fstest.MapFS{
		"10_late.sql": {Data: []byte("SELECT 10;")},
		"2_early.sql": {Data: []byte("SELECT 2;")},
	})
	if err != nil {
		t.Fatalf("readMigrations() unexpected error: %v", err)
	}
	if len(migrations) != 2 || migrations[0].Name != "2_early.sql" || migrations[1].Name != "10_late.sql" {
		t.Fatalf("unexpected order %+v", migrations)
	}
}

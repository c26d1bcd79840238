package db

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	embeddedmigrations "github.com/terraincognita07/nutriwell/migrations"
	"gorm.io/gorm"
)

var migrationFilePattern = regexp.MustCompile(`^(\d+)_.*\.sql$`)
var addColumnStatementPattern = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+([^\s]+)\s+ADD\s+COLUMN\s+([^\s]+)\b`)

type sqlMigration struct {
	Version    string
	Order      int
	Name       string
	Statements []string
}

// applyEmbeddedMigrations runs every migration not yet recorded in
// schema_migrations and returns the names it applied.
func applyEmbeddedMigrations(database *gorm.DB) ([]string, error) {
	return applyMigrationsFrom(database, embeddedmigrations.Files)
}

func applyMigrationsFrom(database *gorm.DB, source fs.FS) ([]string, error) {
	const createTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if err := database.Exec(createTableSQL).Error; err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	pending, err := readMigrations(source)
	if err != nil {
		return nil, err
	}

	var appliedVersions []string
	if err := database.Raw(`SELECT version FROM schema_migrations`).Scan(&appliedVersions).Error; err != nil {
		return nil, fmt.Errorf("load applied migration versions: %w", err)
	}
	applied := make(map[string]bool, len(appliedVersions))
	for _, version := range appliedVersions {
		applied[version] = true
	}

	names := make([]string, 0, len(pending))
	for _, migration := range pending {
		if applied[migration.Version] {
			continue
		}
		if err := runMigration(database, migration); err != nil {
			return names, err
		}
		names = append(names, migration.Name)
	}
	return names, nil
}

func readMigrations(source fs.FS) ([]sqlMigration, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	migrations := make([]sqlMigration, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		matches := migrationFilePattern.FindStringSubmatch(name)
		if len(matches) != 2 {
			continue
		}

		version := matches[1]
		if previous, exists := seen[version]; exists {
			return nil, fmt.Errorf("duplicate migration version %s in %s and %s", version, previous, name)
		}
		seen[version] = name

		order, err := strconv.Atoi(version)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", name, err)
		}
		raw, err := fs.ReadFile(source, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		statements := splitSQLStatements(string(raw))
		if len(statements) == 0 {
			return nil, fmt.Errorf("migration %s has no SQL statements", name)
		}
		migrations = append(migrations, sqlMigration{
			Version:    version,
			Order:      order,
			Name:       name,
			Statements: statements,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		if migrations[i].Order == migrations[j].Order {
			return migrations[i].Name < migrations[j].Name
		}
		return migrations[i].Order < migrations[j].Order
	})
	return migrations, nil
}

func runMigration(database *gorm.DB, migration sqlMigration) error {
	return database.Transaction(func(tx *gorm.DB) error {
		for _, statement := range migration.Statements {
			exists, err := addedColumnExists(tx, statement)
			if err != nil {
				return fmt.Errorf("inspect migration %s: %w", migration.Name, err)
			}
			if exists {
				continue
			}
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("execute migration %s statement %q: %w", migration.Name, statement, err)
			}
		}

		if err := tx.Exec(
			`INSERT INTO schema_migrations(version, name) VALUES (?, ?)`,
			migration.Version,
			migration.Name,
		).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", migration.Name, err)
		}
		return nil
	})
}

func splitSQLStatements(sqlText string) []string {
	statements := make([]string, 0)
	for _, part := range strings.Split(sqlText, ";") {
		if statement := strings.TrimSpace(part); statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}

type tableColumn struct {
	Name string `gorm:"column:name"`
}

// addedColumnExists lets ALTER TABLE ... ADD COLUMN statements be re-run
// against databases that already carry the column.
func addedColumnExists(database *gorm.DB, statement string) (bool, error) {
	matches := addColumnStatementPattern.FindStringSubmatch(statement)
	if len(matches) != 3 {
		return false, nil
	}

	table := strings.Trim(matches[1], "\"`[]")
	column := strings.Trim(matches[2], "\"`[]")
	if table == "" || column == "" {
		return false, errors.New("empty identifier in add column statement")
	}

	columns := make([]tableColumn, 0)
	query := fmt.Sprintf(`PRAGMA table_info("%s")`, strings.ReplaceAll(table, `"`, `""`))
	if err := database.Raw(query).Scan(&columns).Error; err != nil {
		return false, fmt.Errorf("load table_info for %s: %w", table, err)
	}
	for _, existing := range columns {
		if strings.EqualFold(existing.Name, column) {
			return true, nil
		}
	}
	return false, nil
}

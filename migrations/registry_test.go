package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	catalogsync "github.com/goliatone/go-catalog-sync"
	_ "github.com/mattn/go-sqlite3"
)

const schemaMigration = "20260301000000_catalog_sync_schema"

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	var postgresFound bool
	var sqliteFound bool
	for _, entry := range filesystems {
		matches, globErr := fs.Glob(entry.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", entry.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files, got none", entry.Dialect)
		}
		switch entry.Dialect {
		case DialectPostgres:
			postgresFound = true
		case DialectSQLite:
			sqliteFound = true
		}
	}
	if !postgresFound || !sqliteFound {
		t.Fatalf("expected postgres and sqlite filesystems, got postgres=%t sqlite=%t", postgresFound, sqliteFound)
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	var labels []string
	_, err := Register(context.Background(), func(_ context.Context, dialect string, label string, _ fs.FS) error {
		calls = append(calls, dialect)
		labels = append(labels, label)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected one sqlite registration, got %v", calls)
	}
	if labels[0] != "go-catalog-sync" {
		t.Fatalf("expected default source label, got %q", labels[0])
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected missing register function error")
	}
}

func TestSchemaMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := catalogsync.GetMigrationsFS()
	for _, migrationPath := range []string{
		"data/sql/migrations/" + schemaMigration + ".up.sql",
		"data/sql/migrations/" + schemaMigration + ".down.sql",
		"data/sql/migrations/sqlite/" + schemaMigration + ".up.sql",
		"data/sql/migrations/sqlite/" + schemaMigration + ".down.sql",
	} {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteSchemaMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-catalog-sync-schema?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	sqliteMigrations, err := fs.Sub(catalogsync.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	if err := execSQLMigration(ctx, db, sqliteMigrations, schemaMigration+".up.sql"); err != nil {
		t.Fatalf("apply schema up: %v", err)
	}
	for _, table := range []string{"catalog_sync_credentials", "catalog_sync_kv"} {
		if count := countTables(t, db, table); count != 1 {
			t.Fatalf("expected table %s after up migration", table)
		}
	}

	insert := `INSERT INTO catalog_sync_kv (id, namespace, entry_key, value) VALUES (?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "kv_1", "catalogsync", "catalog.categories", "[]"); err != nil {
		t.Fatalf("insert kv row: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "kv_2", "catalogsync", "catalog.categories", "[]"); err == nil {
		t.Fatalf("expected unique (namespace, entry_key) violation")
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, schemaMigration+".down.sql"); err != nil {
		t.Fatalf("apply schema down: %v", err)
	}
	if count := countTables(t, db, "catalog_sync_kv"); count != 0 {
		t.Fatalf("expected catalog_sync_kv to be dropped after down migration")
	}
}

func countTables(t *testing.T, db *sql.DB, name string) int {
	t.Helper()
	var count int
	if err := db.QueryRowContext(
		context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		name,
	).Scan(&count); err != nil {
		t.Fatalf("query sqlite_master for %s: %v", name, err)
	}
	return count
}

// execSQLMigration applies each --bun:split segment in order.
func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	for _, statement := range strings.Split(string(content), "--bun:split") {
		if strings.TrimSpace(statement) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func TestNormalizeDialect(t *testing.T) {
	cases := map[string]string{
		"sqlite3":    DialectSQLite,
		" SQLite ":   DialectSQLite,
		"postgres":   DialectPostgres,
		"postgresql": DialectPostgres,
		"mysql":      "",
	}
	for input, expected := range cases {
		if got := NormalizeDialect(input); got != expected {
			t.Fatalf("expected %q for %q, got %q", expected, input, got)
		}
	}
}

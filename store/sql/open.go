package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-catalog-sync/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const defaultPingTimeout = 5 * time.Second

// DatabaseConfig satisfies the go-persistence-bun config contract.
type DatabaseConfig struct {
	Driver      string        `koanf:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
}

func (c DatabaseConfig) GetDebug() bool { return c.Debug }
func (c DatabaseConfig) GetDriver() string { return strings.TrimSpace(c.Driver) }
func (c DatabaseConfig) GetServer() string { return strings.TrimSpace(c.DSN) }

func (c DatabaseConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout > 0 {
		return c.PingTimeout
	}
	return defaultPingTimeout
}

func (c DatabaseConfig) GetOtelIdentifier() string { return "go-catalog-sync" }

// Open connects with the sqlite3 or postgres driver and applies the embedded
// schema migrations for that dialect.
func Open(ctx context.Context, cfg DatabaseConfig) (*persistence.Client, error) {
	dialect := migrations.NormalizeDialect(cfg.Driver)
	if dialect == "" {
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}
	if cfg.GetServer() == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}

	var client *persistence.Client
	switch dialect {
	case migrations.DialectSQLite:
		sqlDB, err := sql.Open("sqlite3", cfg.GetServer())
		if err != nil {
			return nil, fmt.Errorf("sqlstore: open sqlite db: %w", err)
		}
		// sqlite allows one writer at a time.
		sqlDB.SetMaxOpenConns(1)
		cfg.Driver = "sqlite3"
		client, err = persistence.New(cfg, sqlDB, sqlitedialect.New())
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
		}
	case migrations.DialectPostgres:
		sqlDB, err := sql.Open("postgres", cfg.GetServer())
		if err != nil {
			return nil, fmt.Errorf("sqlstore: open postgres db: %w", err)
		}
		cfg.Driver = "postgres"
		client, err = persistence.New(cfg, sqlDB, pgdialect.New())
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
		}
	}

	if err := Migrate(ctx, client, dialect); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Migrate registers the schema for dialect on client and applies it.
func Migrate(ctx context.Context, client *persistence.Client, dialect string) error {
	if client == nil {
		return fmt.Errorf("sqlstore: persistence client is required")
	}
	dialect = migrations.NormalizeDialect(dialect)
	if dialect == "" {
		return fmt.Errorf("sqlstore: unsupported dialect")
	}
	_, err := migrations.Register(ctx, func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(dialect))
	if err != nil {
		return fmt.Errorf("sqlstore: register migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

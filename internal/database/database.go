package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/weekcal/internal/config"
	log "github.com/sirupsen/logrus"
)

// connectionURL is shared by the pool and the migrator so both land in the
// same schema. search_path is sent as a runtime parameter.
func connectionURL(cfg config.Database) string {
	query := url.Values{}
	query.Set("sslmode", "disable")
	if cfg.Schema != "" {
		query.Set("search_path", cfg.Schema)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Pass),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

func poolConfig(cfg config.Database) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(connectionURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = min(cfg.MinConns, poolCfg.MaxConns)
	}
	return poolCfg, nil
}

// Open connects a pgx pool to the configured PostgreSQL database.
func Open(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Infof("Connected to database %s at %s:%d (pool %d-%d)", cfg.Name, cfg.Host, cfg.Port, poolCfg.MinConns, poolCfg.MaxConns)
	return pool, nil
}

// Migrate brings the schema up to the newest migration and logs the
// resulting version.
func Migrate(cfg config.Database) error {
	migrationsPath, err := migrationsDir(cfg)
	if err != nil {
		return fmt.Errorf("failed to locate migrations directory: %w", err)
	}

	m, err := migrate.New("file://"+migrationsPath, connectionURL(cfg))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema %s is dirty at version %d", cfg.Schema, version)
	}
	log.Infof("Schema %s is at version %d", cfg.Schema, version)
	return nil
}

// migrationsDir prefers the configured directory. Otherwise it walks up from
// the working directory, which lets tests inside package directories find
// the same migrations as the binary.
func migrationsDir(cfg config.Database) (string, error) {
	if cfg.Migrations != "" {
		if info, err := os.Stat(cfg.Migrations); err != nil || !info.IsDir() {
			return "", fmt.Errorf("%s is not a directory", cfg.Migrations)
		}
		return filepath.Abs(cfg.Migrations)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("migrations directory not found")
		}
		dir = parent
	}
}

package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/internal/config"
)

// RunMigrations applies assets/migrations when enabled in configuration.
func RunMigrations(cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil || !cfg.Migrations.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return err
	}

	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(cfg.Migrations.Path))
	m, err := migrate.NewWithDatabaseInstance(sourceURL, cfg.Database.Name, driver)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, _ := m.Version()
	logger.Info("database migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// EnsureDatabase creates the configured database when it does not exist yet.
// It connects to the server's maintenance database to do so.
func EnsureDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	adminURL, name, err := maintenanceURL(cfg.URL)
	if err != nil {
		return false, err
	}

	sqlDB, err := sql.Open("postgres", adminURL)
	if err != nil {
		return false, err
	}
	defer sqlDB.Close()

	var exists bool
	if err := sqlDB.QueryRow(`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(name)); err != nil {
		return false, err
	}
	logger.Info("database created", zap.String("db", name))
	return true, nil
}

// maintenanceURL swaps the database path of a postgres URL for "postgres".
func maintenanceURL(dsn string) (string, string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", err
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", "", fmt.Errorf("database name missing in %q", u.Redacted())
	}
	u.Path = "/postgres"
	return u.String(), name, nil
}

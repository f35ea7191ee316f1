package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/diewo77/go-marketplace/internal/config"
	"github.com/diewo77/go-marketplace/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank import registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to date. With MIGRATIONS enabled on Postgres the
// versioned SQL files are applied through golang-migrate; otherwise gorm's
// AutoMigrate is used (dev and sqlite convenience).
func Migrate(conn *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	if cfg.App.Migrations && cfg.Database.Driver != "sqlite" {
		log.Info("running sql migrations")
		if err := runSQLMigrations(cfg.Database.URL()); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(conn); err != nil {
			return err
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"users", "stores", "products", "orders", "order_items", "payments"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// AutoMigrate creates or updates every model table.
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range models.All() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// runSQLMigrations executes the embedded migrations using golang-migrate.
func runSQLMigrations(url string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

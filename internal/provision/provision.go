// Package provision creates the remote draft tables on demand. It is
// only ever triggered by an explicit operator action; application
// startup never provisions, the probe just reports what exists.
package provision

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Provisioner applies the embedded schema to the remote database.
type Provisioner struct {
	db      *gorm.DB
	dialect string
	log     *zap.Logger
}

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func New(p Params) *Provisioner {
	return &Provisioner{
		db:      p.DB,
		dialect: p.DB.Dialector.Name(),
		log:     p.Log.Named("provision"),
	}
}

// Apply creates the draft tables if they do not exist. It is idempotent:
// re-running against a provisioned database is a no-op.
func (p *Provisioner) Apply(ctx context.Context) error {
	p.log.Info("provisioning draft tables", zap.String("dialect", p.dialect))

	if p.dialect == "postgres" {
		return p.applyVersioned()
	}
	return p.applyRaw(ctx)
}

// applyVersioned runs the embedded migrations through golang-migrate,
// which tracks schema versions in its own table.
func (p *Provisioner) applyVersioned() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("obtain sql handle: %w", err)
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not close the migrator here because it would close the shared *sql.DB.

	return nil
}

// applyRaw executes the up migrations statement by statement. Used for
// dialects golang-migrate cannot drive through the shared connection,
// such as the in-memory sqlite used in tests. The statements are written
// with IF NOT EXISTS so replaying them is safe.
func (p *Provisioner) applyRaw(ctx context.Context) error {
	entries, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(entries)

	for _, entry := range entries {
		script, err := embeddedMigrations.ReadFile(entry)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry, err)
		}
		for _, statement := range strings.Split(string(script), ";") {
			statement = strings.TrimSpace(statement)
			if statement == "" {
				continue
			}
			if err := p.db.WithContext(ctx).Exec(statement).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", entry, err)
			}
		}
	}
	return nil
}

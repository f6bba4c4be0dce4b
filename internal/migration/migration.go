package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	authdomain "github.com/facturacr/facturacr/internal/auth/domain"
	catalogdomain "github.com/facturacr/facturacr/internal/catalog/domain"
	companydomain "github.com/facturacr/facturacr/internal/company/domain"
	customerdomain "github.com/facturacr/facturacr/internal/customer/domain"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	mailerdomain "github.com/facturacr/facturacr/internal/mailer/domain"
)

// RunMigrations applies the embedded SQL migrations. The SQL targets
// PostgreSQL; other dialects go through AutoMigrate instead.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
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
	return nil
}

// AutoMigrate creates the schema from the models. Used for the non-postgres
// dialects, sqlite in particular.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&companydomain.Company{},
		&companydomain.Setting{},
		&authdomain.User{},
		&authdomain.Session{},
		&authdomain.LoginLog{},
		&auditdomain.AuditLog{},
		&customerdomain.Customer{},
		&catalogdomain.Item{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&invoicedomain.InvoiceSequence{},
		&mailerdomain.EmailSend{},
	)
}

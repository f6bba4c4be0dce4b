package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/facturacr/facturacr/internal/auth/domain"
	"github.com/facturacr/facturacr/internal/auth/password"
	companydomain "github.com/facturacr/facturacr/internal/company/domain"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	defaultCompanyName   = "Mi Empresa"
	defaultCompanyLegal  = "3101000000"
	defaultAdminEmail    = "admin@facturacr.local"
	defaultAdminPassword = "admin"
	defaultAdminName     = "Administrador"
)

// EnsureDefaultCompany makes sure a usable company and its invoice sequence
// exist, creating them on first startup.
func EnsureDefaultCompany(db *gorm.DB) (*companydomain.Company, error) {
	if db == nil {
		return nil, errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var company *companydomain.Company
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err = ensureCompanyTx(ctx, tx, node)
		if err != nil {
			return err
		}
		return ensureInvoiceSequenceTx(ctx, tx, company.ID)
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// EnsureDefaultCompanyWithID seeds using a fixed company id so deployments
// can pin the tenant across restarts.
func EnsureDefaultCompanyWithID(db *gorm.DB, id int64) (*companydomain.Company, error) {
	if db == nil {
		return nil, errors.New("seed database handle is required")
	}
	if id == 0 {
		return EnsureDefaultCompany(db)
	}

	ctx := context.Background()
	var company companydomain.Company
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).First(&company, "id = ?", id).Error
		if err == nil {
			return ensureInvoiceSequenceTx(ctx, tx, company.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := time.Now().UTC()
		company = companydomain.Company{
			ID:           snowflake.ID(id),
			Name:         defaultCompanyName,
			BusinessName: defaultCompanyName,
			Slug:         slug.Make(defaultCompanyName),
			LegalID:      defaultCompanyLegal,
			Status:       companydomain.CompanyActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.WithContext(ctx).Create(&company).Error; err != nil {
			return err
		}
		return ensureInvoiceSequenceTx(ctx, tx, company.ID)
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// EnsureAdminUser seeds the bootstrap admin account for a company. The
// returned user is the existing one when the email is already registered.
func EnsureAdminUser(db *gorm.DB, companyID snowflake.ID) (*authdomain.User, error) {
	if db == nil {
		return nil, errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var user authdomain.User
	err = db.WithContext(ctx).
		Where("email = ?", defaultAdminEmail).
		First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(defaultAdminPassword)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user = authdomain.User{
		ID:           node.Generate(),
		CompanyID:    companyID,
		Name:         defaultAdminName,
		Email:        strings.ToLower(defaultAdminEmail),
		PasswordHash: &hashed,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func ensureCompanyTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (*companydomain.Company, error) {
	companySlug := slug.Make(defaultCompanyName)

	var company companydomain.Company
	err := tx.WithContext(ctx).Where("slug = ?", companySlug).First(&company).Error
	if err == nil {
		return &company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	company = companydomain.Company{
		ID:           node.Generate(),
		Name:         defaultCompanyName,
		BusinessName: defaultCompanyName,
		Slug:         companySlug,
		LegalID:      defaultCompanyLegal,
		Status:       companydomain.CompanyActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func ensureInvoiceSequenceTx(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) error {
	var seq invoicedomain.InvoiceSequence
	err := tx.WithContext(ctx).Where("company_id = ?", companyID).First(&seq).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	seq = invoicedomain.InvoiceSequence{
		CompanyID:  companyID,
		NextNumber: 1,
		UpdatedAt:  time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&seq).Error
}

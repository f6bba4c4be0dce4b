package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/internal/company/domain"
	"github.com/facturacr/facturacr/internal/company/repository"
	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/glebarez/sqlite"
	"github.com/gosimple/slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCompanyTest(t *testing.T) (*gorm.DB, domain.Service, snowflake.ID, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Company{}, &domain.Setting{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(db),
	})

	companyID := node.Generate()
	require.NoError(t, db.Create(&domain.Company{
		ID:      companyID,
		Name:    "Mi Empresa",
		Slug:    slug.Make("Mi Empresa " + companyID.String()),
		LegalID: companyID.String(),
		Status:  domain.CompanyActive,
	}).Error)

	ctx := companyctx.WithCompanyID(context.Background(), companyID)
	return db, svc, companyID, ctx
}

func TestGetCompany(t *testing.T) {
	_, svc, companyID, ctx := setupCompanyTest(t)

	company, err := svc.GetCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, companyID, company.ID)
	assert.Equal(t, "Mi Empresa", company.Name)

	_, err = svc.GetCompany(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
}

func TestUpdateCompany(t *testing.T) {
	_, svc, _, ctx := setupCompanyTest(t)

	name := "Empresa Renombrada S.A."
	phone := "22224444"
	updated, err := svc.UpdateCompany(ctx, domain.UpdateCompanyRequest{
		Name:  &name,
		Phone: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Empresa Renombrada S.A.", updated.Name)
	assert.Equal(t, "22224444", updated.Phone)

	empty := "  "
	_, err = svc.UpdateCompany(ctx, domain.UpdateCompanyRequest{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	_, err = svc.UpdateCompany(ctx, domain.UpdateCompanyRequest{LegalID: &empty})
	assert.ErrorIs(t, err, domain.ErrLegalIDRequired)
}

func TestSettings_UpsertAndMasking(t *testing.T) {
	_, svc, _, ctx := setupCompanyTest(t)

	err := svc.UpdateSettings(ctx, domain.UpdateSettingsRequest{Settings: map[string]string{
		domain.SettingSMTPHost:     "smtp.example.com",
		domain.SettingSMTPPort:     "587",
		domain.SettingSMTPPassword: "s3cret",
	}})
	require.NoError(t, err)

	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", settings[domain.SettingSMTPHost])
	assert.Equal(t, "587", settings[domain.SettingSMTPPort])
	_, leaked := settings[domain.SettingSMTPPassword]
	assert.False(t, leaked, "password must not be returned")

	// Upsert overwrites in place.
	err = svc.UpdateSettings(ctx, domain.UpdateSettingsRequest{Settings: map[string]string{
		domain.SettingSMTPHost: "smtp2.example.com",
	}})
	require.NoError(t, err)

	settings, err = svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "smtp2.example.com", settings[domain.SettingSMTPHost])

	err = svc.UpdateSettings(ctx, domain.UpdateSettingsRequest{Settings: map[string]string{
		"arbitrary_code": "value",
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidSetting)
}

func TestMailSettings(t *testing.T) {
	_, svc, companyID, ctx := setupCompanyTest(t)

	mail, err := svc.MailSettings(ctx, companyID)
	require.NoError(t, err)
	assert.Empty(t, mail.Host)
	assert.Zero(t, mail.Port)

	err = svc.UpdateSettings(ctx, domain.UpdateSettingsRequest{Settings: map[string]string{
		domain.SettingSMTPHost:      "smtp.example.com",
		domain.SettingSMTPPort:      "465",
		domain.SettingSMTPUsername:  "mailer",
		domain.SettingSMTPPassword:  "s3cret",
		domain.SettingSMTPFromEmail: "facturas@example.com",
		domain.SettingSMTPFromName:  "Mi Empresa",
	}})
	require.NoError(t, err)

	mail, err = svc.MailSettings(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", mail.Host)
	assert.Equal(t, 465, mail.Port)
	assert.Equal(t, "mailer", mail.Username)
	assert.Equal(t, "s3cret", mail.Password, "mailer needs the stored credential")
	assert.Equal(t, "facturas@example.com", mail.FromEmail)
	assert.Equal(t, "Mi Empresa", mail.FromName)

	// Unparseable port is ignored rather than failing the send path.
	err = svc.UpdateSettings(ctx, domain.UpdateSettingsRequest{Settings: map[string]string{
		domain.SettingSMTPPort: "not-a-number",
	}})
	require.NoError(t, err)
	mail, err = svc.MailSettings(ctx, companyID)
	require.NoError(t, err)
	assert.Zero(t, mail.Port)

	_, err = svc.MailSettings(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
}

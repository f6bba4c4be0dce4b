package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/facturacr/facturacr/internal/customer/domain"
	"github.com/facturacr/facturacr/internal/customer/repository"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCustomerTest(t *testing.T) (*gorm.DB, *snowflake.Node, domain.Service, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}, &invoicedomain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	ctx := companyctx.WithCompanyID(context.Background(), node.Generate())
	return db, node, svc, ctx
}

func TestCreateCustomer(t *testing.T) {
	_, _, svc, ctx := setupCustomerTest(t)

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                 "Cliente Uno",
		IdentificationType:   "01",
		IdentificationNumber: "101110111",
		Email:                "cliente@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, created.Status)
	assert.NotZero(t, created.ID)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{
		IdentificationType:   "01",
		IdentificationNumber: "101110111",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                 "Sin cédula",
		IdentificationType:   "99",
		IdentificationNumber: "1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentification)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                 "Correo malo",
		IdentificationType:   "01",
		IdentificationNumber: "1",
		Email:                "no-es-correo",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Create(context.Background(), domain.CreateCustomerRequest{
		Name:                 "Sin empresa",
		IdentificationType:   "01",
		IdentificationNumber: "1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
}

func TestUpdateCustomer(t *testing.T) {
	_, node, svc, ctx := setupCustomerTest(t)

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                 "Cliente Uno",
		IdentificationType:   "01",
		IdentificationNumber: "101110111",
	})
	require.NoError(t, err)

	name := "Cliente Renombrado"
	status := "inactive"
	updated, err := svc.Update(ctx, domain.UpdateCustomerRequest{
		ID:     created.ID.String(),
		Name:   &name,
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cliente Renombrado", updated.Name)
	assert.Equal(t, domain.StatusInactive, updated.Status)

	_, err = svc.Update(ctx, domain.UpdateCustomerRequest{ID: node.Generate().String(), Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCustomer_InvoiceGuard(t *testing.T) {
	db, node, svc, ctx := setupCustomerTest(t)

	companyID, _ := companyctx.CompanyIDFromContext(ctx)

	invoiced, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                 "Con facturas",
		IdentificationType:   "01",
		IdentificationNumber: "101110111",
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&invoicedomain.Invoice{
		ID:            node.Generate(),
		CompanyID:     companyID,
		CustomerID:    invoiced.ID,
		InvoiceNumber: "INV-001",
		Status:        invoicedomain.InvoiceStatusIssued,
		PaymentMethod: invoicedomain.PaymentMethodCash,
		SaleCondition: invoicedomain.SaleConditionCash,
	}).Error)

	err = svc.Delete(ctx, domain.GetCustomerRequest{ID: invoiced.ID.String()})
	assert.ErrorIs(t, err, domain.ErrHasInvoices)

	clean, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                 "Sin facturas",
		IdentificationType:   "02",
		IdentificationNumber: "3101222333",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, domain.GetCustomerRequest{ID: clean.ID.String()}))
	_, err = svc.GetByID(ctx, domain.GetCustomerRequest{ID: clean.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCustomers_SearchAndStatus(t *testing.T) {
	_, _, svc, ctx := setupCustomerTest(t)

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                 "Ferretería Central",
		IdentificationType:   "02",
		IdentificationNumber: "3101222333",
	})
	require.NoError(t, err)
	second, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:                 "Panadería El Sol",
		IdentificationType:   "01",
		IdentificationNumber: "101110111",
	})
	require.NoError(t, err)

	status := "inactive"
	_, err = svc.Update(ctx, domain.UpdateCustomerRequest{ID: second.ID.String(), Status: &status})
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListCustomerRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Customers, 2)

	byName, err := svc.List(ctx, domain.ListCustomerRequest{Search: "ferre"})
	require.NoError(t, err)
	require.Len(t, byName.Customers, 1)
	assert.Equal(t, "Ferretería Central", byName.Customers[0].Name)

	inactive, err := svc.List(ctx, domain.ListCustomerRequest{Status: "inactive"})
	require.NoError(t, err)
	require.Len(t, inactive.Customers, 1)
	assert.Equal(t, second.ID, inactive.Customers[0].ID)
}

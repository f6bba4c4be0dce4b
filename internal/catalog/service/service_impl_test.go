package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/internal/catalog/domain"
	"github.com/facturacr/facturacr/internal/catalog/repository"
	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCatalogTest(t *testing.T) (*snowflake.Node, domain.Service, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Item{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	ctx := companyctx.WithCompanyID(context.Background(), node.Generate())
	return node, svc, ctx
}

func TestCreateItem(t *testing.T) {
	_, svc, ctx := setupCatalogTest(t)

	created, err := svc.Create(ctx, domain.CreateItemRequest{
		Code:      "SRV-001",
		Name:      "Servicio contable",
		Type:      "service",
		UnitPrice: "15000.00",
		TaxRate:   "13",
	})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, "15000", created.UnitPrice.String())
	assert.Equal(t, domain.ItemTypeService, created.Type)

	_, err = svc.Create(ctx, domain.CreateItemRequest{
		Code: "SRV-002", Name: "Sin tipo", Type: "other", UnitPrice: "1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	_, err = svc.Create(ctx, domain.CreateItemRequest{
		Code: "SRV-003", Name: "Precio malo", Type: "product", UnitPrice: "-5",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, domain.CreateItemRequest{
		Code: "SRV-004", Name: "Tarifa mala", Type: "product", UnitPrice: "5", TaxRate: "101",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)
}

func TestCreateItem_CodeUniquePerCompany(t *testing.T) {
	node, svc, ctx := setupCatalogTest(t)

	_, err := svc.Create(ctx, domain.CreateItemRequest{
		Code: "PRD-001", Name: "Producto", Type: "product", UnitPrice: "100",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateItemRequest{
		Code: "PRD-001", Name: "Repetido", Type: "product", UnitPrice: "200",
	})
	assert.ErrorIs(t, err, domain.ErrCodeExists)

	// Same code under another company is fine.
	otherCtx := companyctx.WithCompanyID(context.Background(), node.Generate())
	_, err = svc.Create(otherCtx, domain.CreateItemRequest{
		Code: "PRD-001", Name: "Producto ajeno", Type: "product", UnitPrice: "100",
	})
	assert.NoError(t, err)
}

func TestUpdateItem(t *testing.T) {
	node, svc, ctx := setupCatalogTest(t)

	created, err := svc.Create(ctx, domain.CreateItemRequest{
		Code: "PRD-010", Name: "Producto", Type: "product", UnitPrice: "100", TaxRate: "13",
	})
	require.NoError(t, err)

	price := "250.50"
	active := false
	updated, err := svc.Update(ctx, domain.UpdateItemRequest{
		ID:        created.ID.String(),
		UnitPrice: &price,
		Active:    &active,
	})
	require.NoError(t, err)
	assert.Equal(t, "250.50", updated.UnitPrice.StringFixed(2))
	assert.False(t, updated.Active)
	assert.Equal(t, "PRD-010", updated.Code, "code is immutable")

	_, err = svc.Update(ctx, domain.UpdateItemRequest{ID: node.Generate().String(), UnitPrice: &price})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListItems_Filters(t *testing.T) {
	_, svc, ctx := setupCatalogTest(t)

	_, err := svc.Create(ctx, domain.CreateItemRequest{
		Code: "PRD-001", Name: "Cemento", Type: "product", UnitPrice: "5000",
	})
	require.NoError(t, err)
	service, err := svc.Create(ctx, domain.CreateItemRequest{
		Code: "SRV-001", Name: "Instalación", Type: "service", UnitPrice: "20000",
	})
	require.NoError(t, err)

	active := false
	_, err = svc.Update(ctx, domain.UpdateItemRequest{ID: service.ID.String(), Active: &active})
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListItemRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	products, err := svc.List(ctx, domain.ListItemRequest{Type: "product"})
	require.NoError(t, err)
	require.Len(t, products.Items, 1)
	assert.Equal(t, "Cemento", products.Items[0].Name)

	onlyActive := true
	activeItems, err := svc.List(ctx, domain.ListItemRequest{Active: &onlyActive})
	require.NoError(t, err)
	require.Len(t, activeItems.Items, 1)
	assert.Equal(t, "PRD-001", activeItems.Items[0].Code)
}

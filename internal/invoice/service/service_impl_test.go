package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/facturacr/facturacr/internal/catalog/domain"
	"github.com/facturacr/facturacr/internal/companyctx"
	customerdomain "github.com/facturacr/facturacr/internal/customer/domain"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupInvoiceTest(t *testing.T) (*gorm.DB, *snowflake.Node, invoicedomain.Service, snowflake.ID, snowflake.ID, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&catalogdomain.Item{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&invoicedomain.InvoiceSequence{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})

	companyID := node.Generate()
	customerID := node.Generate()
	require.NoError(t, db.Create(&customerdomain.Customer{
		ID:                   customerID,
		CompanyID:            companyID,
		Name:                 "Cliente Uno",
		IdentificationType:   customerdomain.IdentificationCedula,
		IdentificationNumber: "101110111",
		Email:                "cliente@example.com",
		Status:               customerdomain.StatusActive,
	}).Error)

	ctx := companyctx.WithCompanyID(context.Background(), companyID)
	return db, node, svc, companyID, customerID, ctx
}

func draftRequest(customerID snowflake.ID) invoicedomain.CreateInvoiceRequest {
	return invoicedomain.CreateInvoiceRequest{
		CustomerID:    customerID.String(),
		PaymentMethod: "cash",
		SaleCondition: "cash",
		Lines: []invoicedomain.LineInput{
			{Description: "Servicio contable", Quantity: "2", UnitPrice: "10.00", TaxRate: "13"},
		},
	}
}

func TestCreateInvoice_TotalsAndNumbering(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	created, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)

	assert.Equal(t, "INV-001", created.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, created.Status)
	assert.Equal(t, "20", created.Subtotal.String())
	assert.Equal(t, "2.6", created.TotalTax.String())
	assert.Equal(t, "22.6", created.Total.String())
	require.Len(t, created.Lines, 1)
	assert.Equal(t, "22.6", created.Lines[0].Total.String())

	second, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)
	assert.Equal(t, "INV-002", second.InvoiceNumber)
}

func TestCreateInvoice_DiscountAndRounding(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	req := invoicedomain.CreateInvoiceRequest{
		CustomerID:    customerID.String(),
		PaymentMethod: "transfer",
		SaleCondition: "credit",
		CreditDays:    30,
		Lines: []invoicedomain.LineInput{
			// 3 * 33.335 = 100.005, rounds half-up to 100.01
			{Description: "Consultoría", Quantity: "3", UnitPrice: "33.335", Discount: "10.00", TaxRate: "13"},
		},
	}

	created, err := svc.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "100.01", created.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", created.TotalDiscount.StringFixed(2))
	// (100.01 - 10.00) * 0.13 = 11.7013 -> 11.70
	assert.Equal(t, "11.70", created.TotalTax.StringFixed(2))
	assert.Equal(t, "101.71", created.Total.StringFixed(2))
	assert.Equal(t, 30, created.CreditDays)
}

func TestCreateInvoice_Validation(t *testing.T) {
	_, node, svc, _, customerID, ctx := setupInvoiceTest(t)

	req := draftRequest(customerID)
	req.PaymentMethod = "bitcoin"
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPaymentMethod)

	req = draftRequest(customerID)
	req.Lines = nil
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrNoLines)

	req = draftRequest(customerID)
	req.Lines[0].Quantity = "0"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidLine)

	req = draftRequest(customerID)
	req.Lines[0].Discount = "999"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidLine)

	req = draftRequest(node.Generate())
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidCustomer)

	_, err = svc.Create(context.Background(), draftRequest(customerID))
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidCompany)
}

func TestCreateInvoice_CashConditionZeroesCreditDays(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	req := draftRequest(customerID)
	req.CreditDays = 15
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 0, created.CreditDays)
}

func TestAllocateNumber_SeedsFromExistingInvoices(t *testing.T) {
	db, node, svc, companyID, customerID, ctx := setupInvoiceTest(t)

	// Legacy rows without a sequence record.
	for _, number := range []string{"INV-003", "INV-007"} {
		require.NoError(t, db.Create(&invoicedomain.Invoice{
			ID:            node.Generate(),
			CompanyID:     companyID,
			CustomerID:    customerID,
			InvoiceNumber: number,
			Status:        invoicedomain.InvoiceStatusIssued,
			PaymentMethod: invoicedomain.PaymentMethodCash,
			SaleCondition: invoicedomain.SaleConditionCash,
		}).Error)
	}

	created, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)
	assert.Equal(t, "INV-008", created.InvoiceNumber)

	next, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)
	assert.Equal(t, "INV-009", next.InvoiceNumber)
}

func TestAllocateNumber_RejectsMalformedExistingNumber(t *testing.T) {
	db, node, svc, companyID, customerID, ctx := setupInvoiceTest(t)

	require.NoError(t, db.Create(&invoicedomain.Invoice{
		ID:            node.Generate(),
		CompanyID:     companyID,
		CustomerID:    customerID,
		InvoiceNumber: "FAC-12",
		Status:        invoicedomain.InvoiceStatusIssued,
		PaymentMethod: invoicedomain.PaymentMethodCash,
		SaleCondition: invoicedomain.SaleConditionCash,
	}).Error)

	_, err := svc.Create(ctx, draftRequest(customerID))
	assert.ErrorIs(t, err, invoicedomain.ErrMalformedNumber)
}

func TestIssueInvoice_Lifecycle(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	created, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)

	issued, err := svc.Issue(ctx, invoicedomain.IssueInvoiceRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusIssued, issued.Status)
	require.NotNil(t, issued.IssueDate)

	// Issuing twice is a state conflict.
	_, err = svc.Issue(ctx, invoicedomain.IssueInvoiceRequest{ID: created.ID.String()})
	var stateErr *invoicedomain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "issue", stateErr.Op)
	assert.Equal(t, invoicedomain.InvoiceStatusIssued, stateErr.Current)
}

func TestIssueInvoice_ExplicitIssueDate(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	created, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)

	issueDate := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	issued, err := svc.Issue(ctx, invoicedomain.IssueInvoiceRequest{
		ID:        created.ID.String(),
		IssueDate: &issueDate,
	})
	require.NoError(t, err)
	require.NotNil(t, issued.IssueDate)
	assert.True(t, issued.IssueDate.Equal(issueDate))
}

func TestCancelInvoice(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	created, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, invoicedomain.CancelInvoiceRequest{ID: created.ID.String()})
	assert.ErrorIs(t, err, invoicedomain.ErrCancelReasonRequired)

	cancelled, err := svc.Cancel(ctx, invoicedomain.CancelInvoiceRequest{
		ID:     created.ID.String(),
		Reason: "error de digitación",
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "error de digitación", *cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	// Cancelled is terminal.
	_, err = svc.Cancel(ctx, invoicedomain.CancelInvoiceRequest{
		ID:     created.ID.String(),
		Reason: "otra vez",
	})
	var stateErr *invoicedomain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, invoicedomain.InvoiceStatusCancelled, stateErr.Current)
}

func TestUpdateInvoice_DraftOnly(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	created, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)

	obs := "entrega en sitio"
	updated, err := svc.Update(ctx, invoicedomain.UpdateInvoiceRequest{
		ID:           created.ID.String(),
		Observations: &obs,
		Lines: []invoicedomain.LineInput{
			{Description: "Producto A", Quantity: "1", UnitPrice: "100.00", TaxRate: "13"},
			{Description: "Producto B", Quantity: "4", UnitPrice: "25.00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "entrega en sitio", updated.Observations)
	require.Len(t, updated.Lines, 2)
	assert.Equal(t, "200.00", updated.Subtotal.StringFixed(2))
	assert.Equal(t, "13.00", updated.TotalTax.StringFixed(2))
	assert.Equal(t, "213.00", updated.Total.StringFixed(2))
	// Number is fixed at creation.
	assert.Equal(t, created.InvoiceNumber, updated.InvoiceNumber)

	_, err = svc.Issue(ctx, invoicedomain.IssueInvoiceRequest{ID: created.ID.String()})
	require.NoError(t, err)

	_, err = svc.Update(ctx, invoicedomain.UpdateInvoiceRequest{ID: created.ID.String(), Observations: &obs})
	var stateErr *invoicedomain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "update", stateErr.Op)
}

func TestDeleteInvoice_DraftOnly(t *testing.T) {
	db, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	draft, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, draft.ID.String()))

	var lineCount int64
	db.Model(&invoicedomain.InvoiceLine{}).Where("invoice_id = ?", draft.ID).Count(&lineCount)
	assert.Equal(t, int64(0), lineCount)

	_, err = svc.GetByID(ctx, draft.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)

	issuedDraft, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)
	_, err = svc.Issue(ctx, invoicedomain.IssueInvoiceRequest{ID: issuedDraft.ID.String()})
	require.NoError(t, err)

	err = svc.Delete(ctx, issuedDraft.ID.String())
	var stateErr *invoicedomain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "delete", stateErr.Op)

	// The consecutive of a deleted draft is not reused.
	next, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)
	assert.NotEqual(t, draft.InvoiceNumber, next.InvoiceNumber)
}

func TestListInvoices_Filters(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	first, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)
	_, err = svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)
	_, err = svc.Issue(ctx, invoicedomain.IssueInvoiceRequest{ID: first.ID.String()})
	require.NoError(t, err)

	all, err := svc.List(ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Invoices, 2)

	issuedStatus := invoicedomain.InvoiceStatusIssued
	issued, err := svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: &issuedStatus})
	require.NoError(t, err)
	require.Len(t, issued.Invoices, 1)
	assert.Equal(t, first.ID, issued.Invoices[0].ID)

	number := first.InvoiceNumber
	byNumber, err := svc.List(ctx, invoicedomain.ListInvoiceRequest{InvoiceNumber: &number})
	require.NoError(t, err)
	require.Len(t, byNumber.Invoices, 1)
	assert.Equal(t, first.ID, byNumber.Invoices[0].ID)
}

func TestListInvoices_Search(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	created, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)

	byNumber := "NV-00"
	matched, err := svc.List(ctx, invoicedomain.ListInvoiceRequest{Search: &byNumber})
	require.NoError(t, err)
	require.Len(t, matched.Invoices, 1)
	assert.Equal(t, created.ID, matched.Invoices[0].ID)

	byCustomer := "Cliente"
	matched, err = svc.List(ctx, invoicedomain.ListInvoiceRequest{Search: &byCustomer})
	require.NoError(t, err)
	assert.Len(t, matched.Invoices, 1)

	// Matching ignores case on both the number and the customer name.
	lowerNumber := "inv-00"
	matched, err = svc.List(ctx, invoicedomain.ListInvoiceRequest{Search: &lowerNumber})
	require.NoError(t, err)
	assert.Len(t, matched.Invoices, 1)

	upperCustomer := "CLIENTE"
	matched, err = svc.List(ctx, invoicedomain.ListInvoiceRequest{Search: &upperCustomer})
	require.NoError(t, err)
	assert.Len(t, matched.Invoices, 1)

	miss := "no-such-thing"
	matched, err = svc.List(ctx, invoicedomain.ListInvoiceRequest{Search: &miss})
	require.NoError(t, err)
	assert.Empty(t, matched.Invoices)
}

func TestCreateInvoice_DuplicateNumberConflict(t *testing.T) {
	db, node, svc, companyID, customerID, ctx := setupInvoiceTest(t)

	// A sequence that points at a consecutive already taken by an existing
	// row, as happens when two creates race past the allocator lock.
	require.NoError(t, db.Create(&invoicedomain.InvoiceSequence{
		CompanyID:  companyID,
		NextNumber: 1,
		UpdatedAt:  time.Now().UTC(),
	}).Error)
	require.NoError(t, db.Create(&invoicedomain.Invoice{
		ID:            node.Generate(),
		CompanyID:     companyID,
		CustomerID:    customerID,
		InvoiceNumber: "INV-001",
		Status:        invoicedomain.InvoiceStatusDraft,
		PaymentMethod: invoicedomain.PaymentMethodCash,
		SaleCondition: invoicedomain.SaleConditionCash,
	}).Error)

	_, err := svc.Create(ctx, draftRequest(customerID))
	assert.ErrorIs(t, err, invoicedomain.ErrNumberConflict)

	// The unique index held; INV-001 exists exactly once.
	var count int64
	db.Model(&invoicedomain.Invoice{}).
		Where("company_id = ? AND invoice_number = ?", companyID, "INV-001").
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestListInvoices_Pagination(t *testing.T) {
	db, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	var ids []string
	for i := 0; i < 3; i++ {
		created, err := svc.Create(ctx, draftRequest(customerID))
		require.NoError(t, err)
		ids = append(ids, created.ID.String())
		// Cursor tokens carry second precision, so spread the rows out.
		createdAt := time.Date(2026, 3, 1, 10, 0, i, 0, time.UTC)
		require.NoError(t, db.Model(&invoicedomain.Invoice{}).
			Where("id = ?", created.ID).
			Update("created_at", createdAt).Error)
	}

	first, err := svc.List(ctx, invoicedomain.ListInvoiceRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Invoices, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)
	// Newest first.
	assert.Equal(t, ids[2], first.Invoices[0].ID.String())
	assert.Equal(t, ids[1], first.Invoices[1].ID.String())

	second, err := svc.List(ctx, invoicedomain.ListInvoiceRequest{
		PageSize:  2,
		PageToken: first.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, second.Invoices, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, ids[0], second.Invoices[0].ID.String())
}

func TestInvoiceDueDate(t *testing.T) {
	_, _, svc, _, customerID, ctx := setupInvoiceTest(t)

	due := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	req := draftRequest(customerID)
	req.DueDate = &due
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, created.DueDate)
	assert.True(t, created.DueDate.Equal(due))

	later := due.AddDate(0, 1, 0)
	updated, err := svc.Update(ctx, invoicedomain.UpdateInvoiceRequest{
		ID:      created.ID.String(),
		DueDate: &later,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(later))

	// A due date behind the issue date cannot leave draft.
	issueDate := later.AddDate(0, 0, 1)
	_, err = svc.Issue(ctx, invoicedomain.IssueInvoiceRequest{
		ID:        created.ID.String(),
		IssueDate: &issueDate,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidDueDate)

	okDate := later.AddDate(0, 0, -5)
	issued, err := svc.Issue(ctx, invoicedomain.IssueInvoiceRequest{
		ID:        created.ID.String(),
		IssueDate: &okDate,
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusIssued, issued.Status)
}

func TestCreateInvoice_CatalogLines(t *testing.T) {
	db, node, svc, companyID, customerID, ctx := setupInvoiceTest(t)

	itemID := node.Generate()
	require.NoError(t, db.Create(&catalogdomain.Item{
		ID:        itemID,
		CompanyID: companyID,
		Code:      "SRV-1",
		Name:      "Consultoría",
		Type:      catalogdomain.ItemTypeService,
		UnitPrice: decimal.RequireFromString("50.00"),
		TaxRate:   decimal.NewFromInt(13),
		Active:    true,
	}).Error)

	itemRef := itemID.String()
	created, err := svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:    customerID.String(),
		PaymentMethod: "cash",
		SaleCondition: "cash",
		Lines: []invoicedomain.LineInput{
			// Description, price and rate all come from the catalog.
			{CatalogItemID: &itemRef, Quantity: "2", TaxRate: "0"},
		},
	})
	require.NoError(t, err)

	require.Len(t, created.Lines, 1)
	line := created.Lines[0]
	assert.Equal(t, "Consultoría", line.Description)
	assert.Equal(t, "50", line.UnitPrice.String())
	assert.Equal(t, "13", line.TaxRate.String(), "catalog rate wins over the submitted one")
	assert.Equal(t, "113", created.Total.String())
	require.NotNil(t, line.CatalogItemID)
	assert.Equal(t, itemID, *line.CatalogItemID)

	// Inactive and foreign items are rejected before any write.
	require.NoError(t, db.Model(&catalogdomain.Item{}).
		Where("id = ?", itemID).
		Update("active", false).Error)
	_, err = svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:    customerID.String(),
		PaymentMethod: "cash",
		SaleCondition: "cash",
		Lines:         []invoicedomain.LineInput{{CatalogItemID: &itemRef, Quantity: "1"}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidLine)

	bogus := node.Generate().String()
	_, err = svc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:    customerID.String(),
		PaymentMethod: "cash",
		SaleCondition: "cash",
		Lines:         []invoicedomain.LineInput{{CatalogItemID: &bogus, Quantity: "1"}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidLine)
}

func TestGetInvoiceByID_ScopedToCompany(t *testing.T) {
	_, node, svc, _, customerID, ctx := setupInvoiceTest(t)

	created, err := svc.Create(ctx, draftRequest(customerID))
	require.NoError(t, err)

	otherCtx := companyctx.WithCompanyID(context.Background(), node.Generate())
	_, err = svc.GetByID(otherCtx, created.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

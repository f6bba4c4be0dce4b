package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/facturacr/facturacr/internal/company/domain"
	companyrepo "github.com/facturacr/facturacr/internal/company/repository"
	companyservice "github.com/facturacr/facturacr/internal/company/service"
	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/facturacr/facturacr/internal/config"
	customerdomain "github.com/facturacr/facturacr/internal/customer/domain"
	customerrepo "github.com/facturacr/facturacr/internal/customer/repository"
	customerservice "github.com/facturacr/facturacr/internal/customer/service"
	"github.com/facturacr/facturacr/internal/einvoice"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	invoiceservice "github.com/facturacr/facturacr/internal/invoice/service"
	"github.com/facturacr/facturacr/internal/mailer/domain"
	"github.com/facturacr/facturacr/internal/providers/email"
	"github.com/facturacr/facturacr/internal/providers/pdf"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Shared-cache sqlite keeps rows across tests in the package, so legal ids
// must stay unique under ux_companies_legal_id.
var legalIDSeq atomic.Int64

type fakeEmailProvider struct {
	err  error
	cfgs []email.Config
	msgs []email.Message
}

func (f *fakeEmailProvider) Send(ctx context.Context, cfg email.Config, msg email.Message) error {
	f.cfgs = append(f.cfgs, cfg)
	f.msgs = append(f.msgs, msg)
	return f.err
}

type fakePDFProvider struct{}

func (f *fakePDFProvider) GenerateInvoice(ctx context.Context, data pdf.InvoiceData) (io.Reader, error) {
	return strings.NewReader("%PDF-1.4 " + data.InvoiceNumber), nil
}

type mailerFixture struct {
	db         *gorm.DB
	svc        domain.Service
	invoices   invoicedomain.Service
	email      *fakeEmailProvider
	companyID  snowflake.ID
	customerID snowflake.ID
	ctx        context.Context
}

func setupMailerTest(t *testing.T) *mailerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&companydomain.Company{},
		&companydomain.Setting{},
		&customerdomain.Customer{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&invoicedomain.InvoiceSequence{},
		&domain.EmailSend{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	companyID := node.Generate()
	require.NoError(t, db.Create(&companydomain.Company{
		ID:      companyID,
		Name:    "Mi Empresa S.A.",
		Slug:    "mi-empresa-" + companyID.String(),
		LegalID: fmt.Sprintf("3101%08d", legalIDSeq.Add(1)),
		Status:  companydomain.CompanyActive,
	}).Error)

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

	companies := companyservice.New(companyservice.Params{
		DB: db, Log: log, GenID: node, Repo: companyrepo.Provide(db),
	})
	customers := customerservice.New(customerservice.Params{
		DB: db, Log: log, GenID: node, Repo: customerrepo.Provide(),
	})
	invoices := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB: db, Log: log, GenID: node,
	})

	invoicing, err := config.NewInvoicingConfigHolder()
	require.NoError(t, err)

	provider := &fakeEmailProvider{}
	svc := New(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Config:    config.Config{},
		Invoicing: invoicing,
		Invoices:  invoices,
		Customers: customers,
		Companies: companies,
		Builder:   einvoice.NewBuilder(log),
		PDF:       &fakePDFProvider{},
		Email:     provider,
	})

	ctx := companyctx.WithCompanyID(context.Background(), companyID)
	require.NoError(t, companies.UpdateSettings(ctx, companydomain.UpdateSettingsRequest{Settings: map[string]string{
		companydomain.SettingSMTPHost:      "smtp.example.com",
		companydomain.SettingSMTPPort:      "587",
		companydomain.SettingSMTPUsername:  "mailer",
		companydomain.SettingSMTPPassword:  "s3cret",
		companydomain.SettingSMTPFromEmail: "facturas@miempresa.cr",
		companydomain.SettingSMTPFromName:  "Mi Empresa",
	}}))

	return &mailerFixture{
		db:         db,
		svc:        svc,
		invoices:   invoices,
		email:      provider,
		companyID:  companyID,
		customerID: customerID,
		ctx:        ctx,
	}
}

func (f *mailerFixture) issuedInvoice(t *testing.T) invoicedomain.Invoice {
	t.Helper()
	created, err := f.invoices.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:    f.customerID.String(),
		PaymentMethod: "transfer",
		SaleCondition: "credit",
		CreditDays:    30,
		Lines: []invoicedomain.LineInput{
			{Description: "Servicio contable", Quantity: "2", UnitPrice: "10.00", TaxRate: "13"},
		},
	})
	require.NoError(t, err)
	issued, err := f.invoices.Issue(f.ctx, invoicedomain.IssueInvoiceRequest{ID: created.ID.String()})
	require.NoError(t, err)
	return issued
}

func TestSendInvoice(t *testing.T) {
	f := setupMailerTest(t)
	invoice := f.issuedInvoice(t)

	resp, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{InvoiceID: invoice.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, domain.SendStatusSent, resp.Send.Status)
	assert.Equal(t, "cliente@example.com", resp.Send.Recipient, "falls back to customer email")
	assert.NotNil(t, resp.Send.SentAt)
	assert.Contains(t, resp.Send.Subject, invoice.InvoiceNumber)

	require.Len(t, f.email.msgs, 1)
	msg := f.email.msgs[0]
	assert.Equal(t, []string{"cliente@example.com"}, msg.To)
	require.Len(t, msg.Attachments, 3)
	assert.Equal(t, "factura-"+invoice.InvoiceNumber+".pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "factura-"+invoice.InvoiceNumber+".xml", msg.Attachments[1].Filename)
	assert.Equal(t, "respuesta-"+invoice.InvoiceNumber+".xml", msg.Attachments[2].Filename)

	// Company settings win over the process fallback.
	cfg := f.email.cfgs[0]
	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, "s3cret", cfg.Password)
	assert.Equal(t, "facturas@miempresa.cr", cfg.From)
}

func TestSendInvoice_BodyEscapesCustomerName(t *testing.T) {
	f := setupMailerTest(t)

	require.NoError(t, f.db.Model(&customerdomain.Customer{}).
		Where("id = ?", f.customerID).
		Update("name", `<script>alert(1)</script>`).Error)
	invoice := f.issuedInvoice(t)

	_, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{InvoiceID: invoice.ID.String()})
	require.NoError(t, err)

	require.Len(t, f.email.msgs, 1)
	body := f.email.msgs[0].Body
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, body, "Estimado(a)")
}

func TestSendInvoice_RecipientOverride(t *testing.T) {
	f := setupMailerTest(t)
	invoice := f.issuedInvoice(t)

	resp, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{
		InvoiceID: invoice.ID.String(),
		Recipient: "contador@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "contador@example.com", resp.Send.Recipient)

	_, err = f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{
		InvoiceID: invoice.ID.String(),
		Recipient: "no-es-correo",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)
}

func TestSendInvoice_DraftRejected(t *testing.T) {
	f := setupMailerTest(t)

	draft, err := f.invoices.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:    f.customerID.String(),
		PaymentMethod: "cash",
		SaleCondition: "cash",
		Lines: []invoicedomain.LineInput{
			{Description: "Servicio", Quantity: "1", UnitPrice: "10.00", TaxRate: "13"},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{InvoiceID: draft.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotIssued)
	assert.Empty(t, f.email.msgs)
}

func TestSendInvoice_NoRecipient(t *testing.T) {
	f := setupMailerTest(t)
	invoice := f.issuedInvoice(t)

	require.NoError(t, f.db.Model(&customerdomain.Customer{}).
		Where("id = ?", f.customerID).
		Update("email", "").Error)

	_, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{InvoiceID: invoice.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNoRecipient)
}

func TestSendInvoice_MailNotConfigured(t *testing.T) {
	f := setupMailerTest(t)
	invoice := f.issuedInvoice(t)

	require.NoError(t, f.db.Where("company_id = ?", f.companyID).
		Delete(&companydomain.Setting{}).Error)

	_, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{InvoiceID: invoice.ID.String()})
	assert.ErrorIs(t, err, domain.ErrMailNotConfigured)
}

func TestSendInvoice_FailureRecorded(t *testing.T) {
	f := setupMailerTest(t)
	invoice := f.issuedInvoice(t)
	f.email.err = errors.New("connection refused")

	resp, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{InvoiceID: invoice.ID.String()})
	require.Error(t, err)

	assert.Equal(t, domain.SendStatusFailed, resp.Send.Status)
	assert.Equal(t, "connection refused", resp.Send.Error)
	assert.Nil(t, resp.Send.SentAt)

	var stored domain.EmailSend
	require.NoError(t, f.db.First(&stored, "invoice_id = ?", invoice.ID).Error)
	assert.Equal(t, domain.SendStatusFailed, stored.Status)
}

func TestListSends(t *testing.T) {
	f := setupMailerTest(t)
	invoice := f.issuedInvoice(t)

	_, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{InvoiceID: invoice.ID.String()})
	require.NoError(t, err)
	_, err = f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{InvoiceID: invoice.ID.String(), Recipient: "otro@example.com"})
	require.NoError(t, err)

	resp, err := f.svc.ListSends(f.ctx, domain.ListSendsRequest{InvoiceID: invoice.ID.String()})
	require.NoError(t, err)
	assert.Len(t, resp.Sends, 2)

	_, err = f.svc.ListSends(f.ctx, domain.ListSendsRequest{InvoiceID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidInvoiceID)
}

func TestRenderInvoicePDF(t *testing.T) {
	f := setupMailerTest(t)

	draft, err := f.invoices.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:    f.customerID.String(),
		PaymentMethod: "cash",
		SaleCondition: "cash",
		Lines: []invoicedomain.LineInput{
			{Description: "Servicio", Quantity: "1", UnitPrice: "10.00", TaxRate: "13"},
		},
	})
	require.NoError(t, err)

	// PDF renders regardless of status.
	result, err := f.svc.RenderInvoicePDF(f.ctx, draft.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "factura-"+draft.InvoiceNumber+".pdf", result.Filename)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.NotEmpty(t, result.Content)
}

func TestRenderFacturaXML_IssuedOnly(t *testing.T) {
	f := setupMailerTest(t)

	draft, err := f.invoices.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:    f.customerID.String(),
		PaymentMethod: "cash",
		SaleCondition: "cash",
		Lines: []invoicedomain.LineInput{
			{Description: "Servicio", Quantity: "1", UnitPrice: "10.00", TaxRate: "13"},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.RenderFacturaXML(f.ctx, draft.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvoiceNotIssued)

	issued, err := f.invoices.Issue(f.ctx, invoicedomain.IssueInvoiceRequest{ID: draft.ID.String()})
	require.NoError(t, err)

	result, err := f.svc.RenderFacturaXML(f.ctx, issued.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "factura-"+issued.InvoiceNumber+".xml", result.Filename)
	assert.Equal(t, "application/xml", result.ContentType)
	assert.Contains(t, string(result.Content), "<FacturaElectronica")
}

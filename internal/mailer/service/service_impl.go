package service

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	companydomain "github.com/facturacr/facturacr/internal/company/domain"
	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/facturacr/facturacr/internal/config"
	customerdomain "github.com/facturacr/facturacr/internal/customer/domain"
	"github.com/facturacr/facturacr/internal/einvoice"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	"github.com/facturacr/facturacr/internal/mailer/domain"
	"github.com/facturacr/facturacr/internal/providers/email"
	"github.com/facturacr/facturacr/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Config    config.Config
	Invoicing *config.InvoicingConfigHolder
	Invoices  invoicedomain.Service
	Customers customerdomain.Service
	Companies companydomain.Service
	Builder   *einvoice.Builder
	PDF       pdf.Provider
	Email     email.Provider
	Audit     auditdomain.Service `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	cfg       config.Config
	invoicing *config.InvoicingConfigHolder
	invoices  invoicedomain.Service
	customers customerdomain.Service
	companies companydomain.Service
	builder   *einvoice.Builder
	pdf       pdf.Provider
	email     email.Provider
	audit     auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("mailer.service"),
		genID:     p.GenID,
		cfg:       p.Config,
		invoicing: p.Invoicing,
		invoices:  p.Invoices,
		customers: p.Customers,
		companies: p.Companies,
		builder:   p.Builder,
		pdf:       p.PDF,
		email:     p.Email,
		audit:     p.Audit,
	}
}

func (s *Service) SendInvoice(ctx context.Context, req domain.SendInvoiceRequest) (domain.SendInvoiceResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.SendInvoiceResponse{}, domain.ErrInvalidCompany
	}

	invoice, err := s.invoices.GetByID(ctx, req.InvoiceID)
	if err != nil {
		return domain.SendInvoiceResponse{}, err
	}
	// Drafts have no consecutive commitment yet and cancelled invoices
	// carry no valid factura, so only issued invoices are mailed.
	if invoice.Status != invoicedomain.InvoiceStatusIssued {
		return domain.SendInvoiceResponse{}, domain.ErrInvoiceNotIssued
	}

	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: invoice.CustomerID.String()})
	if err != nil {
		return domain.SendInvoiceResponse{}, err
	}

	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		recipient = strings.TrimSpace(customer.Email)
	}
	if recipient == "" {
		return domain.SendInvoiceResponse{}, domain.ErrNoRecipient
	}
	if _, err := mail.ParseAddress(recipient); err != nil {
		return domain.SendInvoiceResponse{}, domain.ErrInvalidRecipient
	}

	company, err := s.companies.GetCompany(ctx)
	if err != nil {
		return domain.SendInvoiceResponse{}, err
	}

	mailCfg, err := s.mailConfig(ctx, companyID)
	if err != nil {
		return domain.SendInvoiceResponse{}, err
	}

	msg, err := s.buildMessage(ctx, company, customer, invoice, recipient)
	if err != nil {
		return domain.SendInvoiceResponse{}, err
	}

	send := domain.EmailSend{
		ID:        s.genID.Generate(),
		CompanyID: companyID,
		InvoiceID: invoice.ID,
		Recipient: recipient,
		Subject:   msg.Subject,
		CreatedAt: time.Now().UTC(),
	}

	sendErr := s.email.Send(ctx, mailCfg, msg)
	if sendErr != nil {
		send.Status = domain.SendStatusFailed
		send.Error = sendErr.Error()
	} else {
		now := time.Now().UTC()
		send.Status = domain.SendStatusSent
		send.SentAt = &now
	}

	// The attempt is recorded whether or not delivery succeeded.
	if err := s.db.WithContext(ctx).Create(&send).Error; err != nil {
		s.log.Error("failed to record email send", zap.Error(err))
		if sendErr == nil {
			return domain.SendInvoiceResponse{}, err
		}
	}

	if sendErr != nil {
		s.log.Warn("invoice email delivery failed",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(sendErr),
		)
		return domain.SendInvoiceResponse{Send: send}, sendErr
	}

	s.emitAudit(ctx, companyID, invoice.ID.String(), map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"recipient":      recipient,
	})
	return domain.SendInvoiceResponse{Send: send}, nil
}

func (s *Service) ListSends(ctx context.Context, req domain.ListSendsRequest) (domain.ListSendsResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.ListSendsResponse{}, domain.ErrInvalidCompany
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return domain.ListSendsResponse{}, domain.ErrInvalidInvoiceID
	}

	var sends []domain.EmailSend
	err = s.db.WithContext(ctx).
		Where("company_id = ? AND invoice_id = ?", companyID, invoiceID).
		Order("created_at desc").
		Find(&sends).Error
	if err != nil {
		return domain.ListSendsResponse{}, err
	}
	return domain.ListSendsResponse{Sends: sends}, nil
}

func (s *Service) RenderInvoicePDF(ctx context.Context, invoiceID string) (domain.RenderResult, error) {
	if _, ok := companyctx.CompanyIDFromContext(ctx); !ok {
		return domain.RenderResult{}, domain.ErrInvalidCompany
	}

	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return domain.RenderResult{}, err
	}
	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: invoice.CustomerID.String()})
	if err != nil {
		return domain.RenderResult{}, err
	}
	company, err := s.companies.GetCompany(ctx)
	if err != nil {
		return domain.RenderResult{}, err
	}

	reader, err := s.pdf.GenerateInvoice(ctx, buildPDFData(company, customer, invoice))
	if err != nil {
		return domain.RenderResult{}, err
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return domain.RenderResult{}, err
	}

	return domain.RenderResult{
		Filename:    fmt.Sprintf("factura-%s.pdf", invoice.InvoiceNumber),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *Service) RenderFacturaXML(ctx context.Context, invoiceID string) (domain.RenderResult, error) {
	if _, ok := companyctx.CompanyIDFromContext(ctx); !ok {
		return domain.RenderResult{}, domain.ErrInvalidCompany
	}

	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return domain.RenderResult{}, err
	}
	if invoice.Status != invoicedomain.InvoiceStatusIssued {
		return domain.RenderResult{}, domain.ErrInvoiceNotIssued
	}
	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: invoice.CustomerID.String()})
	if err != nil {
		return domain.RenderResult{}, err
	}
	company, err := s.companies.GetCompany(ctx)
	if err != nil {
		return domain.RenderResult{}, err
	}

	content, _, err := s.builder.BuildFactura(s.issuerFor(company), customer, invoice)
	if err != nil {
		return domain.RenderResult{}, err
	}

	return domain.RenderResult{
		Filename:    fmt.Sprintf("factura-%s.xml", invoice.InvoiceNumber),
		ContentType: "application/xml",
		Content:     content,
	}, nil
}

// mailConfig resolves the effective SMTP configuration for one send. Company
// settings win field by field over the process-level fallback.
func (s *Service) mailConfig(ctx context.Context, companyID snowflake.ID) (email.Config, error) {
	stored, err := s.companies.MailSettings(ctx, companyID)
	if err != nil {
		return email.Config{}, err
	}

	cfg := email.Config{
		Host:     s.cfg.Mail.Host,
		Port:     s.cfg.Mail.Port,
		Username: s.cfg.Mail.Username,
		Password: s.cfg.Mail.Password,
		From:     s.cfg.Mail.From,
		FromName: s.cfg.Mail.FromName,
	}
	if stored.Host != "" {
		cfg.Host = stored.Host
		cfg.Username = stored.Username
		cfg.Password = stored.Password
	}
	if stored.Port > 0 {
		cfg.Port = stored.Port
	}
	if stored.FromEmail != "" {
		cfg.From = stored.FromEmail
	}
	if stored.FromName != "" {
		cfg.FromName = stored.FromName
	}

	if cfg.Host == "" || cfg.From == "" {
		return email.Config{}, domain.ErrMailNotConfigured
	}
	return cfg, nil
}

func (s *Service) buildMessage(ctx context.Context, company *companydomain.Company, customer customerdomain.Customer, invoice invoicedomain.Invoice, recipient string) (email.Message, error) {
	issuer := s.issuerFor(company)

	facturaXML, _, err := s.builder.BuildFactura(issuer, customer, invoice)
	if err != nil {
		return email.Message{}, err
	}
	respuestaXML, err := s.builder.BuildMensajeReceptor(issuer, customer, invoice)
	if err != nil {
		return email.Message{}, err
	}

	pdfReader, err := s.pdf.GenerateInvoice(ctx, buildPDFData(company, customer, invoice))
	if err != nil {
		return email.Message{}, err
	}
	pdfBytes, err := io.ReadAll(pdfReader)
	if err != nil {
		return email.Message{}, err
	}

	body, err := buildBody(company, customer, invoice)
	if err != nil {
		return email.Message{}, err
	}

	number := invoice.InvoiceNumber
	return email.Message{
		To:      []string{recipient},
		Subject: fmt.Sprintf("Factura %s - %s", number, company.Name),
		Body:    body,
		Attachments: []email.Attachment{
			{Filename: fmt.Sprintf("factura-%s.pdf", number), ContentType: "application/pdf", Content: pdfBytes},
			{Filename: fmt.Sprintf("factura-%s.xml", number), ContentType: "application/xml", Content: facturaXML},
			{Filename: fmt.Sprintf("respuesta-%s.xml", number), ContentType: "application/xml", Content: respuestaXML},
		},
	}, nil
}

func (s *Service) issuerFor(company *companydomain.Company) einvoice.Issuer {
	defaults := s.invoicing.Current()

	issuer := einvoice.Issuer{
		Name:         company.Name,
		LegalID:      company.LegalID,
		ActivityCode: company.ActivityCode,
		Province:     company.Province,
		Canton:       company.Canton,
		District:     company.District,
		Neighborhood: company.Neighborhood,
		Address:      company.Address,
		Phone:        company.Phone,
		Email:        company.Email,
	}
	if issuer.ActivityCode == "" {
		issuer.ActivityCode = defaults.ActivityCode
	}
	if issuer.Province == "" {
		issuer.Province = defaults.Province
	}
	if issuer.Canton == "" {
		issuer.Canton = defaults.Canton
	}
	if issuer.District == "" {
		issuer.District = defaults.District
	}
	if issuer.Neighborhood == "" {
		issuer.Neighborhood = defaults.Neighborhood
	}
	return issuer
}

func buildPDFData(company *companydomain.Company, customer customerdomain.Customer, invoice invoicedomain.Invoice) pdf.InvoiceData {
	issueDate := invoice.CreatedAt
	if invoice.IssueDate != nil {
		issueDate = *invoice.IssueDate
	}

	data := pdf.InvoiceData{
		CompanyName:    company.Name,
		CompanyLegalID: company.LegalID,
		CompanyAddress: company.Address,
		CompanyPhone:   company.Phone,
		CompanyEmail:   company.Email,

		InvoiceNumber: invoice.InvoiceNumber,
		IssueDate:     issueDate.Format("02/01/2006"),
		Status:        string(invoice.Status),
		PaymentMethod: paymentMethodLabel(invoice.PaymentMethod),
		SaleCondition: saleConditionLabel(invoice.SaleCondition),
		Observations:  invoice.Observations,
		Cancelled:     invoice.Status == invoicedomain.InvoiceStatusCancelled,

		CustomerName:    customer.Name,
		CustomerID:      customer.IdentificationNumber,
		CustomerAddress: customer.AddressDetail,
		CustomerEmail:   customer.Email,

		Subtotal:      invoice.Subtotal.StringFixed(2),
		TotalDiscount: invoice.TotalDiscount.StringFixed(2),
		TotalTax:      invoice.TotalTax.StringFixed(2),
		Total:         invoice.Total.StringFixed(2),
	}
	if invoice.CancellationReason != nil {
		data.CancelReason = *invoice.CancellationReason
	}

	for _, line := range invoice.Lines {
		data.Items = append(data.Items, pdf.InvoiceItem{
			Description: line.Description,
			Qty:         line.Quantity.String(),
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Discount:    line.Discount.StringFixed(2),
			Tax:         line.TaxAmount.StringFixed(2),
			Amount:      line.Total.StringFixed(2),
		})
	}
	return data
}

// Customer and company fields are user-supplied, so the body renders through
// html/template and never by string concatenation.
var bodyTemplate = template.Must(template.New("invoice_email").Parse(
	`<html><body>` +
		`<p>Estimado(a) {{.CustomerName}},</p>` +
		`<p>Adjunto encontrará la factura electrónica <strong>{{.InvoiceNumber}}</strong> por un total de <strong>₡{{.Total}}</strong>.</p>` +
		`<p>{{.CompanyName}}<br>Cédula jurídica: {{.LegalID}}</p>` +
		`</body></html>`))

func buildBody(company *companydomain.Company, customer customerdomain.Customer, invoice invoicedomain.Invoice) (string, error) {
	var b strings.Builder
	err := bodyTemplate.Execute(&b, struct {
		CustomerName  string
		InvoiceNumber string
		Total         string
		CompanyName   string
		LegalID       string
	}{
		CustomerName:  customer.Name,
		InvoiceNumber: invoice.InvoiceNumber,
		Total:         invoice.Total.StringFixed(2),
		CompanyName:   company.Name,
		LegalID:       company.LegalID,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func paymentMethodLabel(method invoicedomain.PaymentMethod) string {
	switch method {
	case invoicedomain.PaymentMethodTransfer:
		return "Transferencia"
	case invoicedomain.PaymentMethodCheck:
		return "Cheque"
	default:
		return "Efectivo"
	}
}

func saleConditionLabel(condition invoicedomain.SaleCondition) string {
	if condition == invoicedomain.SaleConditionCredit {
		return "Crédito"
	}
	return "Contado"
}

func (s *Service) emitAudit(ctx context.Context, companyID snowflake.ID, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AuditLog(ctx, &companyID, "", nil, "invoice.email_sent", "invoice", &targetID, metadata); err != nil {
		s.log.Warn("failed to emit audit event", zap.Error(err))
	}
}

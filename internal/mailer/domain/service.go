package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidCompany    = errors.New("invalid_company")
	ErrInvalidInvoiceID  = errors.New("invalid_invoice_id")
	ErrInvoiceNotIssued  = errors.New("invoice_not_issued")
	ErrNoRecipient       = errors.New("recipient_required")
	ErrInvalidRecipient  = errors.New("invalid_recipient")
	ErrMailNotConfigured = errors.New("mail_not_configured")
)

type SendInvoiceRequest struct {
	InvoiceID string `json:"invoice_id"`
	// Recipient overrides the customer email when set.
	Recipient string `json:"recipient"`
}

type SendInvoiceResponse struct {
	Send EmailSend `json:"send"`
}

type ListSendsRequest struct {
	InvoiceID string `json:"invoice_id"`
}

type ListSendsResponse struct {
	Sends []EmailSend `json:"sends"`
}

// RenderResult is a generated invoice document ready to serve or attach.
type RenderResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Service interface {
	SendInvoice(ctx context.Context, req SendInvoiceRequest) (SendInvoiceResponse, error)
	ListSends(ctx context.Context, req ListSendsRequest) (ListSendsResponse, error)
	// RenderInvoicePDF works for any status; cancelled invoices render
	// with their cancellation noted.
	RenderInvoicePDF(ctx context.Context, invoiceID string) (RenderResult, error)
	// RenderFacturaXML requires an issued invoice.
	RenderFacturaXML(ctx context.Context, invoiceID string) (RenderResult, error)
}

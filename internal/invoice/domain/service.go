package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/pkg/db/pagination"
)

type LineInput struct {
	CatalogItemID *string
	Description   string
	Quantity      string
	UnitPrice     string
	Discount      string
	TaxRate       string
}

type CreateInvoiceRequest struct {
	CustomerID    string
	PaymentMethod string
	SaleCondition string
	CreditDays    int
	DueDate       *time.Time
	Observations  string
	Lines         []LineInput
}

type UpdateInvoiceRequest struct {
	ID            string
	CustomerID    *string
	PaymentMethod *string
	SaleCondition *string
	CreditDays    *int
	DueDate       *time.Time
	Observations  *string
	Lines         []LineInput
}

type ListInvoiceRequest struct {
	PageToken     string
	PageSize      int32
	Status        *InvoiceStatus
	CustomerID    *snowflake.ID
	InvoiceNumber *string
	// Search matches invoice numbers and customer names, case-insensitive.
	Search      *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	IssuedFrom  *time.Time
	IssuedTo    *time.Time
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type IssueInvoiceRequest struct {
	ID        string
	IssueDate *time.Time
}

type CancelInvoiceRequest struct {
	ID     string
	Reason string
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (Invoice, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Issue(ctx context.Context, req IssueInvoiceRequest) (Invoice, error)
	Cancel(ctx context.Context, req CancelInvoiceRequest) (Invoice, error)
}

var (
	ErrInvalidCompany       = errors.New("invalid_company")
	ErrInvalidInvoiceID     = errors.New("invalid_invoice_id")
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidSaleCondition = errors.New("invalid_sale_condition")
	ErrInvalidCreditDays    = errors.New("invalid_credit_days")
	ErrInvalidDueDate       = errors.New("invalid_due_date")
	ErrNoLines              = errors.New("no_lines")
	ErrInvalidLine          = errors.New("invalid_line")
	ErrInvoiceNotFound      = errors.New("invoice_not_found")
	ErrCancelReasonRequired = errors.New("cancellation_reason_required")
	ErrNumberConflict       = errors.New("invoice_number_conflict")
	ErrMalformedNumber      = errors.New("malformed_invoice_number")
)

// StateError reports a lifecycle operation attempted from the wrong status.
type StateError struct {
	Op      string
	Current InvoiceStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s invoice in status %s", e.Op, e.Current)
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidLimit     = errors.New("invalid_limit")
)

// ReportRequest bounds a report to a time window. Zero values default to the
// trailing 30 days.
type ReportRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type TopRequest struct {
	ReportRequest
	Limit int `json:"limit"`
}

type SalesSummaryResponse struct {
	Currency       string          `json:"currency"`
	InvoiceCount   int64           `json:"invoice_count"`
	DraftCount     int64           `json:"draft_count"`
	IssuedCount    int64           `json:"issued_count"`
	CancelledCount int64           `json:"cancelled_count"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	TotalTax       decimal.Decimal `json:"total_tax"`
	Total          decimal.Decimal `json:"total"`
}

type TopCustomerRow struct {
	CustomerID   int64           `json:"customer_id,string"`
	CustomerName string          `json:"customer_name"`
	InvoiceCount int64           `json:"invoice_count"`
	Total        decimal.Decimal `json:"total"`
}

type TopCustomersResponse struct {
	Customers []TopCustomerRow `json:"customers"`
}

type TopProductRow struct {
	CatalogItemID *int64          `json:"catalog_item_id,string,omitempty"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	Total         decimal.Decimal `json:"total"`
}

type TopProductsResponse struct {
	Products []TopProductRow `json:"products"`
}

type MonthlyPoint struct {
	Month        string          `json:"month"`
	InvoiceCount int64           `json:"invoice_count"`
	Total        decimal.Decimal `json:"total"`
}

type MonthlySeriesResponse struct {
	Series []MonthlyPoint `json:"series"`
}

type DashboardResponse struct {
	CustomerCount    int64           `json:"customer_count"`
	CatalogItemCount int64           `json:"catalog_item_count"`
	DraftCount       int64           `json:"draft_count"`
	IssuedCount      int64           `json:"issued_count"`
	CancelledCount   int64           `json:"cancelled_count"`
	IssuedThisMonth  decimal.Decimal `json:"issued_this_month"`
	RecentInvoices   []RecentInvoice `json:"recent_invoices"`
}

type RecentInvoice struct {
	ID            int64           `json:"id,string"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Service interface {
	SalesSummary(ctx context.Context, req ReportRequest) (SalesSummaryResponse, error)
	TopCustomers(ctx context.Context, req TopRequest) (TopCustomersResponse, error)
	TopProducts(ctx context.Context, req TopRequest) (TopProductsResponse, error)
	MonthlySeries(ctx context.Context, req ReportRequest) (MonthlySeriesResponse, error)
	Dashboard(ctx context.Context) (DashboardResponse, error)
}

// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCheck    PaymentMethod = "check"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCheck:
		return true
	default:
		return false
	}
}

// SaleCondition enumerates sale conditions.
type SaleCondition string

const (
	SaleConditionCash   SaleCondition = "cash"
	SaleConditionCredit SaleCondition = "credit"
)

func (c SaleCondition) Valid() bool {
	return c == SaleConditionCash || c == SaleConditionCredit
}

// Invoice represents a sales invoice.
type Invoice struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id,string"`
	CompanyID          snowflake.ID    `gorm:"column:company_id;not null;uniqueIndex:ux_invoice_company_number" json:"company_id,string"`
	CustomerID         snowflake.ID    `gorm:"column:customer_id;not null;index" json:"customer_id,string"`
	InvoiceNumber      string          `gorm:"column:invoice_number;not null;uniqueIndex:ux_invoice_company_number" json:"invoice_number"`
	Status             InvoiceStatus   `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	PaymentMethod      PaymentMethod   `gorm:"column:payment_method;not null" json:"payment_method"`
	SaleCondition      SaleCondition   `gorm:"column:sale_condition;not null" json:"sale_condition"`
	CreditDays         int             `gorm:"column:credit_days;not null;default:0" json:"credit_days"`
	Subtotal           decimal.Decimal `gorm:"column:subtotal;type:decimal(18,2);not null" json:"subtotal"`
	TotalDiscount      decimal.Decimal `gorm:"column:total_discount;type:decimal(18,2);not null" json:"total_discount"`
	TotalTax           decimal.Decimal `gorm:"column:total_tax;type:decimal(18,2);not null" json:"total_tax"`
	Total              decimal.Decimal `gorm:"column:total;type:decimal(18,2);not null" json:"total"`
	Observations       string          `gorm:"column:observations" json:"observations"`
	CancellationReason *string         `gorm:"column:cancellation_reason" json:"cancellation_reason,omitempty"`
	IssueDate          *time.Time      `gorm:"column:issue_date" json:"issue_date,omitempty"`
	DueDate            *time.Time      `gorm:"column:due_date" json:"due_date,omitempty"`
	CancelledAt        *time.Time      `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID" json:"lines,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceLine represents a line on an invoice.
type InvoiceLine struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id,string"`
	CompanyID     snowflake.ID    `gorm:"column:company_id;not null;index" json:"company_id,string"`
	InvoiceID     snowflake.ID    `gorm:"column:invoice_id;not null;index" json:"invoice_id,string"`
	CatalogItemID *snowflake.ID   `gorm:"column:catalog_item_id;index" json:"catalog_item_id,string,omitempty"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:decimal(18,5);not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:decimal(18,5);not null" json:"unit_price"`
	Discount      decimal.Decimal `gorm:"column:discount;type:decimal(18,2);not null" json:"discount"`
	TaxRate       decimal.Decimal `gorm:"column:tax_rate;type:decimal(5,2);not null" json:"tax_rate"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:decimal(18,2);not null" json:"subtotal"`
	TaxAmount     decimal.Decimal `gorm:"column:tax_amount;type:decimal(18,2);not null" json:"tax_amount"`
	Total         decimal.Decimal `gorm:"column:total;type:decimal(18,2);not null" json:"total"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }

// InvoiceSequence holds the next consecutive number per company.
type InvoiceSequence struct {
	CompanyID  snowflake.ID `gorm:"column:company_id;primaryKey"`
	NextNumber int64        `gorm:"column:next_number;not null;default:1"`
	UpdatedAt  time.Time    `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }

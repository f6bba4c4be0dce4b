package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type SendStatus string

const (
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)

// EmailSend records one attempt to mail an invoice.
type EmailSend struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id,string"`
	CompanyID snowflake.ID `gorm:"column:company_id;not null;index" json:"company_id,string"`
	InvoiceID snowflake.ID `gorm:"column:invoice_id;not null;index" json:"invoice_id,string"`
	Recipient string       `gorm:"type:varchar(255);not null" json:"recipient"`
	Subject   string       `gorm:"type:text;not null" json:"subject"`
	Status    SendStatus   `gorm:"type:varchar(10);not null" json:"status"`
	Error     string       `gorm:"column:error;type:text" json:"error,omitempty"`
	SentAt    *time.Time   `gorm:"column:sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (EmailSend) TableName() string { return "email_sends" }

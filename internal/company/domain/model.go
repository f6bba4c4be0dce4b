package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type CompanyStatus string

const (
	CompanyActive   CompanyStatus = "active"
	CompanyInactive CompanyStatus = "inactive"
)

// Company represents a tenant issuing invoices.
type Company struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name         string        `gorm:"type:text;not null" json:"name"`
	BusinessName string        `gorm:"type:text;not null" json:"business_name"`
	Slug         string        `gorm:"type:text;not null;uniqueIndex:ux_companies_slug" json:"slug"`
	LegalID      string        `gorm:"type:varchar(20);not null;uniqueIndex:ux_companies_legal_id" json:"legal_id"`
	ActivityCode string        `gorm:"type:varchar(12)" json:"activity_code"`
	Address      string        `gorm:"type:text" json:"address"`
	Province     string        `gorm:"type:varchar(2)" json:"province"`
	Canton       string        `gorm:"type:varchar(2)" json:"canton"`
	District     string        `gorm:"type:varchar(2)" json:"district"`
	Neighborhood string        `gorm:"type:varchar(2)" json:"neighborhood"`
	Phone        string        `gorm:"type:varchar(20)" json:"phone"`
	Email        string        `gorm:"type:varchar(100)" json:"email"`
	Status       CompanyStatus `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Company) TableName() string { return "companies" }

// Setting is a per-company key/value configuration row.
type Setting struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:ux_settings_company_code,priority:1" json:"company_id"`
	Code      string       `gorm:"type:varchar(100);not null;uniqueIndex:ux_settings_company_code,priority:2" json:"code"`
	Value     string       `gorm:"type:text" json:"value"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }

// Mail setting codes recognised by MailSettings.
const (
	SettingSMTPHost      = "smtp_host"
	SettingSMTPPort      = "smtp_port"
	SettingSMTPUsername  = "smtp_username"
	SettingSMTPPassword  = "smtp_password"
	SettingSMTPFromEmail = "smtp_from_email"
	SettingSMTPFromName  = "smtp_from_name"
)

// MailSettings is the SMTP profile stored for a company. Zero-valued fields
// fall back to the process-level mail configuration.
type MailSettings struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

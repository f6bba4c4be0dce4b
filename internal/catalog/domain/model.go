package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeService ItemType = "service"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeProduct || t == ItemTypeService
}

// Item is a sellable product or service offered by a company.
type Item struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id,string"`
	CompanyID   snowflake.ID    `gorm:"column:company_id;not null;uniqueIndex:idx_catalog_company_code" json:"company_id,string"`
	Code        string          `gorm:"column:code;not null;uniqueIndex:idx_catalog_company_code" json:"code"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Description string          `gorm:"column:description" json:"description"`
	Type        ItemType        `gorm:"column:type;not null" json:"type"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:decimal(18,5);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"column:tax_rate;type:decimal(5,2);not null" json:"tax_rate"`
	Active      bool            `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Item) TableName() string { return "catalog_items" }

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type IdentificationType string

const (
	IdentificationCedula   IdentificationType = "01"
	IdentificationJuridica IdentificationType = "02"
	IdentificationDIMEX    IdentificationType = "03"
	IdentificationNITE     IdentificationType = "04"
)

func (t IdentificationType) Valid() bool {
	switch t {
	case IdentificationCedula, IdentificationJuridica, IdentificationDIMEX, IdentificationNITE:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Customer struct {
	ID                   snowflake.ID       `gorm:"primaryKey" json:"id,string"`
	CompanyID            snowflake.ID       `gorm:"column:company_id;not null;index" json:"company_id,string"`
	Name                 string             `gorm:"not null" json:"name"`
	IdentificationType   IdentificationType `gorm:"column:identification_type;not null" json:"identification_type"`
	IdentificationNumber string             `gorm:"column:identification_number;not null" json:"identification_number"`
	Email                string             `gorm:"column:email" json:"email"`
	Phone                string             `gorm:"column:phone" json:"phone"`
	Province             string             `gorm:"column:province" json:"province"`
	Canton               string             `gorm:"column:canton" json:"canton"`
	District             string             `gorm:"column:district" json:"district"`
	AddressDetail        string             `gorm:"column:address_detail" json:"address_detail"`
	Status               Status             `gorm:"column:status;not null;default:active" json:"status"`
	CreatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

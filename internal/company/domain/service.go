package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrCompanyNotFound = errors.New("company_not_found")
	ErrInvalidCompany  = errors.New("invalid_company")
	ErrNameRequired    = errors.New("name_required")
	ErrLegalIDRequired = errors.New("legal_id_required")
	ErrLegalIDExists   = errors.New("legal_id_exists")
	ErrInvalidSetting  = errors.New("invalid_setting_code")
)

type Repository interface {
	Create(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id snowflake.ID) (*Company, error)
	FindBySlug(ctx context.Context, slug string) (*Company, error)
	Update(ctx context.Context, company *Company) error

	Settings(ctx context.Context, companyID snowflake.ID) (map[string]string, error)
	UpsertSetting(ctx context.Context, setting *Setting) error
}

type UpdateCompanyRequest struct {
	Name         *string `json:"name"`
	BusinessName *string `json:"business_name"`
	LegalID      *string `json:"legal_id"`
	ActivityCode *string `json:"activity_code"`
	Address      *string `json:"address"`
	Province     *string `json:"province"`
	Canton       *string `json:"canton"`
	District     *string `json:"district"`
	Neighborhood *string `json:"neighborhood"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
}

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings"`
}

type Service interface {
	GetCompany(ctx context.Context) (*Company, error)
	UpdateCompany(ctx context.Context, req UpdateCompanyRequest) (*Company, error)
	GetSettings(ctx context.Context) (map[string]string, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) error
	MailSettings(ctx context.Context, companyID snowflake.ID) (MailSettings, error)
}

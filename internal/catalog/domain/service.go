package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *Item) error
	Update(ctx context.Context, db *gorm.DB, item *Item) error
	FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*Item, error)
	FindByCode(ctx context.Context, db *gorm.DB, companyID snowflake.ID, code string) (*Item, error)
	List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter ListItemFilter, page pagination.Pagination) ([]*Item, error)
}

type ListItemRequest struct {
	PageToken string
	PageSize  int32
	Search    string
	Type      string
	Active    *bool
}

type ListItemFilter struct {
	Search string
	Type   ItemType
	Active *bool
}

type ListItemResponse struct {
	pagination.PageInfo
	Items []Item `json:"items"`
}

type CreateItemRequest struct {
	Code        string
	Name        string
	Description string
	Type        string
	UnitPrice   string
	TaxRate     string
}

type UpdateItemRequest struct {
	ID          string
	Name        *string
	Description *string
	Type        *string
	UnitPrice   *string
	TaxRate     *string
	Active      *bool
}

type GetItemRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateItemRequest) (Item, error)
	Update(context.Context, UpdateItemRequest) (Item, error)
	List(context.Context, ListItemRequest) (ListItemResponse, error)
	GetByID(context.Context, GetItemRequest) (Item, error)
}

var (
	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidCode    = errors.New("invalid_code")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidType    = errors.New("invalid_type")
	ErrInvalidPrice   = errors.New("invalid_price")
	ErrInvalidTaxRate = errors.New("invalid_tax_rate")
	ErrInvalidID      = errors.New("invalid_id")
	ErrCodeExists     = errors.New("code_exists")
	ErrNotFound       = errors.New("not_found")
)

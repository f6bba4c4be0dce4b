package domain

import (
	"context"
	"errors"
	"time"

	"github.com/facturacr/facturacr/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken   string
	PageSize    int32
	Search      string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerFilter struct {
	Search      string
	Status      Status
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name                 string
	IdentificationType   string
	IdentificationNumber string
	Email                string
	Phone                string
	Province             string
	Canton               string
	District             string
	AddressDetail        string
}

type UpdateCustomerRequest struct {
	ID                   string
	Name                 *string
	IdentificationType   *string
	IdentificationNumber *string
	Email                *string
	Phone                *string
	Province             *string
	Canton               *string
	District             *string
	AddressDetail        *string
	Status               *string
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(context.Context, GetCustomerRequest) error
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidCompany        = errors.New("invalid_company")
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidIdentification = errors.New("invalid_identification")
	ErrInvalidEmail          = errors.New("invalid_email")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidID             = errors.New("invalid_id")
	ErrNotFound              = errors.New("not_found")
	ErrHasInvoices           = errors.New("customer_has_invoices")
)

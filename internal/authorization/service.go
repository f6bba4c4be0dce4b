package authorization

import (
	"context"
	"errors"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidActor    = errors.New("invalid_actor")
	ErrInvalidCompany  = errors.New("invalid_company")
	ErrInvalidObject   = errors.New("invalid_object")
	ErrInvalidAction   = errors.New("invalid_action")
	ErrUnknownRole     = errors.New("unknown_role")
	ErrRoleNotAssigned = errors.New("role_not_assigned")
)

// Service answers permission checks and manages role assignments per company.
type Service interface {
	Authorize(ctx context.Context, actor string, companyID string, object string, action string) error
	AssignRole(ctx context.Context, companyID string, userID string, role string) error
	RevokeRole(ctx context.Context, companyID string, userID string, role string) error
	RolesForUser(ctx context.Context, companyID string, userID string) ([]string, error)
	Roles() []string
	PermissionsForRole(role string) ([][2]string, error)
}

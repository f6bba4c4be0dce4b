package server

import (
	"errors"
	"net/http"
	"strings"

	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	authdomain "github.com/facturacr/facturacr/internal/auth/domain"
	"github.com/facturacr/facturacr/internal/authorization"
	catalogdomain "github.com/facturacr/facturacr/internal/catalog/domain"
	companydomain "github.com/facturacr/facturacr/internal/company/domain"
	customerdomain "github.com/facturacr/facturacr/internal/customer/domain"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	mailerdomain "github.com/facturacr/facturacr/internal/mailer/domain"
	reportsdomain "github.com/facturacr/facturacr/internal/reports/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var stateErr *invoicedomain.StateError
	if errors.As(err, &stateErr) {
		return http.StatusConflict, errorPayload{
			Type:    "state_conflict",
			Message: stateErr.Error(),
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrUserInactive):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, catalogdomain.ErrCodeExists),
		errors.Is(err, customerdomain.ErrHasInvoices),
		errors.Is(err, companydomain.ErrLegalIDExists),
		errors.Is(err, invoicedomain.ErrNumberConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, mailerdomain.ErrMailNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "mail delivery is not configured",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isCustomerValidationError(err),
		isCatalogValidationError(err),
		isInvoiceValidationError(err),
		isMailerValidationError(err),
		isCompanyValidationError(err),
		isReportValidationError(err),
		isAuditValidationError(err),
		isAuthorizationValidationError(err):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, companydomain.ErrCompanyNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, authorization.ErrRoleNotAssigned),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isCustomerValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidCompany,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidEmail,
		customerdomain.ErrInvalidIdentification,
		customerdomain.ErrInvalidStatus,
		customerdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isCatalogValidationError(err error) bool {
	switch err {
	case catalogdomain.ErrInvalidCompany,
		catalogdomain.ErrInvalidCode,
		catalogdomain.ErrInvalidName,
		catalogdomain.ErrInvalidType,
		catalogdomain.ErrInvalidPrice,
		catalogdomain.ErrInvalidTaxRate,
		catalogdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isInvoiceValidationError(err error) bool {
	switch err {
	case invoicedomain.ErrInvalidCompany,
		invoicedomain.ErrInvalidInvoiceID,
		invoicedomain.ErrInvalidCustomer,
		invoicedomain.ErrInvalidPaymentMethod,
		invoicedomain.ErrInvalidSaleCondition,
		invoicedomain.ErrInvalidCreditDays,
		invoicedomain.ErrNoLines,
		invoicedomain.ErrInvalidLine,
		invoicedomain.ErrCancelReasonRequired,
		invoicedomain.ErrMalformedNumber:
		return true
	default:
		return false
	}
}

func isMailerValidationError(err error) bool {
	switch err {
	case mailerdomain.ErrInvalidInvoiceID,
		mailerdomain.ErrInvoiceNotIssued,
		mailerdomain.ErrNoRecipient,
		mailerdomain.ErrInvalidRecipient:
		return true
	default:
		return false
	}
}

func isCompanyValidationError(err error) bool {
	switch err {
	case companydomain.ErrNameRequired,
		companydomain.ErrLegalIDRequired,
		companydomain.ErrInvalidSetting:
		return true
	default:
		return false
	}
}

func isReportValidationError(err error) bool {
	switch err {
	case reportsdomain.ErrInvalidTimeRange,
		reportsdomain.ErrInvalidLimit:
		return true
	default:
		return false
	}
}

func isAuditValidationError(err error) bool {
	switch err {
	case auditdomain.ErrInvalidPageToken,
		auditdomain.ErrInvalidTimeRange,
		auditdomain.ErrInvalidAction:
		return true
	default:
		return false
	}
}

func isAuthorizationValidationError(err error) bool {
	switch err {
	case authorization.ErrInvalidActor,
		authorization.ErrInvalidCompany,
		authorization.ErrInvalidObject,
		authorization.ErrInvalidAction,
		authorization.ErrUnknownRole:
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// classifyErrorForLog reports the mapped error type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	return payload.Type, err.Error()
}

package server

import (
	"net/http"
	"strings"
	"time"

	customerdomain "github.com/facturacr/facturacr/internal/customer/domain"
	"github.com/facturacr/facturacr/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createCustomerRequest struct {
	Name                 string `json:"name"`
	IdentificationType   string `json:"identification_type"`
	IdentificationNumber string `json:"identification_number"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Province             string `json:"province"`
	Canton               string `json:"canton"`
	District             string `json:"district"`
	AddressDetail        string `json:"address_detail"`
}

type updateCustomerRequest struct {
	Name                 *string `json:"name"`
	IdentificationType   *string `json:"identification_type"`
	IdentificationNumber *string `json:"identification_number"`
	Email                *string `json:"email"`
	Phone                *string `json:"phone"`
	Province             *string `json:"province"`
	Canton               *string `json:"canton"`
	District             *string `json:"district"`
	AddressDetail        *string `json:"address_detail"`
	Status               *string `json:"status"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:                 req.Name,
		IdentificationType:   req.IdentificationType,
		IdentificationNumber: req.IdentificationNumber,
		Email:                req.Email,
		Phone:                req.Phone,
		Province:             req.Province,
		Canton:               req.Canton,
		District:             req.District,
		AddressDetail:        req.AddressDetail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Search      string `form:"search"`
		Status      string `form:"status"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken:   query.PageToken,
		PageSize:    int32(query.PageSize),
		Search:      strings.TrimSpace(query.Search),
		Status:      strings.TrimSpace(query.Status),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Update(c.Request.Context(), customerdomain.UpdateCustomerRequest{
		ID:                   strings.TrimSpace(c.Param("id")),
		Name:                 req.Name,
		IdentificationType:   req.IdentificationType,
		IdentificationNumber: req.IdentificationNumber,
		Email:                req.Email,
		Phone:                req.Phone,
		Province:             req.Province,
		Canton:               req.Canton,
		District:             req.District,
		AddressDetail:        req.AddressDetail,
		Status:               req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	err := s.customerSvc.Delete(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseOptionalTime accepts RFC3339 or plain dates; endOfDay widens a date to
// the end of that day so inclusive ranges behave as users expect.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil, err
	}
	utc := t.UTC()
	if endOfDay {
		utc = utc.Add(24*time.Hour - time.Nanosecond)
	}
	return &utc, nil
}

package server

import (
	"net/http"
	"strings"

	catalogdomain "github.com/facturacr/facturacr/internal/catalog/domain"
	"github.com/facturacr/facturacr/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createCatalogItemRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	UnitPrice   string `json:"unit_price"`
	TaxRate     string `json:"tax_rate"`
}

type updateCatalogItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	UnitPrice   *string `json:"unit_price"`
	TaxRate     *string `json:"tax_rate"`
	Active      *bool   `json:"active"`
}

func (s *Server) CreateCatalogItem(c *gin.Context) {
	var req createCatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Create(c.Request.Context(), catalogdomain.CreateItemRequest{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		UnitPrice:   req.UnitPrice,
		TaxRate:     req.TaxRate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCatalogItems(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Search string `form:"search"`
		Type   string `form:"type"`
		Active *bool  `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListItemRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Search:    strings.TrimSpace(query.Search),
		Type:      strings.TrimSpace(query.Type),
		Active:    query.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCatalogItemByID(c *gin.Context) {
	resp, err := s.catalogSvc.GetByID(c.Request.Context(), catalogdomain.GetItemRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCatalogItem(c *gin.Context) {
	var req updateCatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Update(c.Request.Context(), catalogdomain.UpdateItemRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		UnitPrice:   req.UnitPrice,
		TaxRate:     req.TaxRate,
		Active:      req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

package server

import (
	"net/http"

	companydomain "github.com/facturacr/facturacr/internal/company/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetCompanyInfo(c *gin.Context) {
	company, err := s.companySvc.GetCompany(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": company})
}

func (s *Server) UpdateCompanyInfo(c *gin.Context) {
	var req companydomain.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.companySvc.UpdateCompany(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": company})
}

func (s *Server) GetSettings(c *gin.Context) {
	settings, err := s.companySvc.GetSettings(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func (s *Server) UpdateSettings(c *gin.Context) {
	var req companydomain.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Settings) == 0 {
		AbortWithError(c, newValidationError("settings", "settings_required", "settings are required"))
		return
	}

	if err := s.companySvc.UpdateSettings(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

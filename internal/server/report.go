package server

import (
	"net/http"
	"strconv"
	"strings"

	reportdomain "github.com/facturacr/facturacr/internal/reports/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) reportRange(c *gin.Context) (reportdomain.ReportRequest, error) {
	var req reportdomain.ReportRequest
	start, err := parseOptionalTime(c.Query("start"), false)
	if err != nil {
		return req, newValidationError("start", "invalid_start", "invalid start")
	}
	end, err := parseOptionalTime(c.Query("end"), true)
	if err != nil {
		return req, newValidationError("end", "invalid_end", "invalid end")
	}
	if start != nil {
		req.Start = *start
	}
	if end != nil {
		req.End = *end
	}
	return req, nil
}

func (s *Server) topRequest(c *gin.Context) (reportdomain.TopRequest, error) {
	rng, err := s.reportRange(c)
	if err != nil {
		return reportdomain.TopRequest{}, err
	}
	req := reportdomain.TopRequest{ReportRequest: rng}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, newValidationError("limit", "invalid_limit", "invalid limit")
		}
		req.Limit = limit
	}
	return req, nil
}

func (s *Server) SalesSummary(c *gin.Context) {
	req, err := s.reportRange(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.reportsSvc.SalesSummary(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TopCustomers(c *gin.Context) {
	req, err := s.topRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.reportsSvc.TopCustomers(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TopProducts(c *gin.Context) {
	req, err := s.topRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.reportsSvc.TopProducts(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MonthlySeries(c *gin.Context) {
	req, err := s.reportRange(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.reportsSvc.MonthlySeries(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Dashboard(c *gin.Context) {
	resp, err := s.reportsSvc.Dashboard(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

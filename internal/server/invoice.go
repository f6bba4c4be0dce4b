package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	mailerdomain "github.com/facturacr/facturacr/internal/mailer/domain"
	"github.com/facturacr/facturacr/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type invoiceLineRequest struct {
	CatalogItemID *string `json:"catalog_item_id"`
	Description   string  `json:"description"`
	Quantity      string  `json:"quantity"`
	UnitPrice     string  `json:"unit_price"`
	Discount      string  `json:"discount"`
	TaxRate       string  `json:"tax_rate"`
}

type createInvoiceRequest struct {
	CustomerID    string               `json:"customer_id"`
	PaymentMethod string               `json:"payment_method"`
	SaleCondition string               `json:"sale_condition"`
	CreditDays    int                  `json:"credit_days"`
	DueDate       string               `json:"due_date"`
	Observations  string               `json:"observations"`
	Lines         []invoiceLineRequest `json:"lines"`
}

type updateInvoiceRequest struct {
	CustomerID    *string              `json:"customer_id"`
	PaymentMethod *string              `json:"payment_method"`
	SaleCondition *string              `json:"sale_condition"`
	CreditDays    *int                 `json:"credit_days"`
	DueDate       string               `json:"due_date"`
	Observations  *string              `json:"observations"`
	Lines         []invoiceLineRequest `json:"lines"`
}

type issueInvoiceRequest struct {
	IssueDate string `json:"issue_date"`
}

type cancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

type sendInvoiceEmailRequest struct {
	Recipient string `json:"recipient"`
}

func toLineInputs(lines []invoiceLineRequest) []invoicedomain.LineInput {
	if lines == nil {
		return nil
	}
	inputs := make([]invoicedomain.LineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, invoicedomain.LineInput{
			CatalogItemID: line.CatalogItemID,
			Description:   line.Description,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			Discount:      line.Discount,
			TaxRate:       line.TaxRate,
		})
	}
	return inputs
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CustomerID:    strings.TrimSpace(req.CustomerID),
		PaymentMethod: req.PaymentMethod,
		SaleCondition: req.SaleCondition,
		CreditDays:    req.CreditDays,
		DueDate:       dueDate,
		Observations:  req.Observations,
		Lines:         toLineInputs(req.Lines),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status        string `form:"status"`
		CustomerID    string `form:"customer_id"`
		InvoiceNumber string `form:"invoice_number"`
		Search        string `form:"search"`
		CreatedFrom   string `form:"created_from"`
		CreatedTo     string `form:"created_to"`
		IssuedFrom    string `form:"issued_from"`
		IssuedTo      string `form:"issued_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	}
	if status := strings.ToUpper(strings.TrimSpace(query.Status)); status != "" {
		parsed := invoicedomain.InvoiceStatus(status)
		req.Status = &parsed
	}
	if raw := strings.TrimSpace(query.CustomerID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer_id"))
			return
		}
		req.CustomerID = &id
	}
	if number := strings.TrimSpace(query.InvoiceNumber); number != "" {
		req.InvoiceNumber = &number
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		req.Search = &search
	}

	var err error
	if req.CreatedFrom, err = parseOptionalTime(query.CreatedFrom, false); err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	if req.CreatedTo, err = parseOptionalTime(query.CreatedTo, true); err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}
	if req.IssuedFrom, err = parseOptionalTime(query.IssuedFrom, false); err != nil {
		AbortWithError(c, newValidationError("issued_from", "invalid_issued_from", "invalid issued_from"))
		return
	}
	if req.IssuedTo, err = parseOptionalTime(query.IssuedTo, true); err != nil {
		AbortWithError(c, newValidationError("issued_to", "invalid_issued_to", "invalid issued_to"))
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), invoicedomain.UpdateInvoiceRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		SaleCondition: req.SaleCondition,
		CreditDays:    req.CreditDays,
		DueDate:       dueDate,
		Observations:  req.Observations,
		Lines:         toLineInputs(req.Lines),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) IssueInvoice(c *gin.Context) {
	var req issueInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	issue := invoicedomain.IssueInvoiceRequest{ID: strings.TrimSpace(c.Param("id"))}
	if raw := strings.TrimSpace(req.IssueDate); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
			return
		}
		utc := t.UTC()
		issue.IssueDate = &utc
	}

	resp, err := s.invoiceSvc.Issue(c.Request.Context(), issue)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	var req cancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Cancel(c.Request.Context(), invoicedomain.CancelInvoiceRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Reason: req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) InvoicePDF(c *gin.Context) {
	result, err := s.mailerSvc.RenderInvoicePDF(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (s *Server) InvoiceXML(c *gin.Context) {
	result, err := s.mailerSvc.RenderFacturaXML(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (s *Server) SendInvoiceEmail(c *gin.Context) {
	var req sendInvoiceEmailRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.mailerSvc.SendInvoice(c.Request.Context(), mailerdomain.SendInvoiceRequest{
		InvoiceID: strings.TrimSpace(c.Param("id")),
		Recipient: strings.TrimSpace(req.Recipient),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoiceSends(c *gin.Context) {
	resp, err := s.mailerSvc.ListSends(c.Request.Context(), mailerdomain.ListSendsRequest{
		InvoiceID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

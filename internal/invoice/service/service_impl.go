package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	"github.com/facturacr/facturacr/internal/companyctx"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	pkgdb "github.com/facturacr/facturacr/pkg/db"
	"github.com/facturacr/facturacr/pkg/db/option"
	"github.com/facturacr/facturacr/pkg/db/pagination"
	"github.com/facturacr/facturacr/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	invoicerepo repository.Repository[invoicedomain.Invoice]
	auditSvc    auditdomain.Service
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,

		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomer
	}

	header, err := validateHeader(req.PaymentMethod, req.SaleCondition, req.CreditDays)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	if len(req.Lines) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrNoLines
	}

	var created invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkCustomer(ctx, tx, companyID, customerID); err != nil {
			return err
		}

		number, err := s.allocateNumber(ctx, tx, companyID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		invoiceID := s.genID.Generate()
		invoice := invoicedomain.Invoice{
			ID:            invoiceID,
			CompanyID:     companyID,
			CustomerID:    customerID,
			InvoiceNumber: number,
			Status:        invoicedomain.InvoiceStatusDraft,
			PaymentMethod: header.paymentMethod,
			SaleCondition: header.saleCondition,
			CreditDays:    header.creditDays,
			Observations:  strings.TrimSpace(req.Observations),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if req.DueDate != nil {
			due := req.DueDate.UTC()
			invoice.DueDate = &due
		}

		lines, err := s.buildLines(ctx, tx, companyID, invoiceID, req.Lines, now)
		if err != nil {
			return err
		}
		invoice.Lines = lines
		invoicedomain.ComputeInvoiceTotals(&invoice)

		if err := tx.WithContext(ctx).Omit("Lines").Create(&invoice).Error; err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return invoicedomain.ErrNumberConflict
			}
			return err
		}
		if err := tx.WithContext(ctx).Create(&lines).Error; err != nil {
			return err
		}

		created = invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.emitAudit(ctx, "invoice.created", &created, nil)
	return created, nil
}

func (s *Service) Update(ctx context.Context, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	id, err := parseID(req.ID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var updated invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoiceForUpdate(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status != invoicedomain.InvoiceStatusDraft {
			return &invoicedomain.StateError{Op: "update", Current: invoice.Status}
		}

		if req.CustomerID != nil {
			customerID, err := parseID(*req.CustomerID)
			if err != nil {
				return invoicedomain.ErrInvalidCustomer
			}
			if err := s.checkCustomer(ctx, tx, companyID, customerID); err != nil {
				return err
			}
			invoice.CustomerID = customerID
		}
		if req.PaymentMethod != nil {
			method := invoicedomain.PaymentMethod(strings.ToLower(strings.TrimSpace(*req.PaymentMethod)))
			if !method.Valid() {
				return invoicedomain.ErrInvalidPaymentMethod
			}
			invoice.PaymentMethod = method
		}
		if req.SaleCondition != nil {
			condition := invoicedomain.SaleCondition(strings.ToLower(strings.TrimSpace(*req.SaleCondition)))
			if !condition.Valid() {
				return invoicedomain.ErrInvalidSaleCondition
			}
			invoice.SaleCondition = condition
		}
		if req.CreditDays != nil {
			if *req.CreditDays < 0 {
				return invoicedomain.ErrInvalidCreditDays
			}
			invoice.CreditDays = *req.CreditDays
		}
		if invoice.SaleCondition == invoicedomain.SaleConditionCash {
			invoice.CreditDays = 0
		}
		if req.DueDate != nil {
			due := req.DueDate.UTC()
			invoice.DueDate = &due
		}
		if req.Observations != nil {
			invoice.Observations = strings.TrimSpace(*req.Observations)
		}

		now := time.Now().UTC()
		if req.Lines != nil {
			if len(req.Lines) == 0 {
				return invoicedomain.ErrNoLines
			}
			lines, err := s.buildLines(ctx, tx, companyID, invoice.ID, req.Lines, now)
			if err != nil {
				return err
			}
			if err := tx.WithContext(ctx).
				Where("invoice_id = ?", invoice.ID).
				Delete(&invoicedomain.InvoiceLine{}).Error; err != nil {
				return err
			}
			if err := tx.WithContext(ctx).Create(&lines).Error; err != nil {
				return err
			}
			invoice.Lines = lines
		} else {
			if err := tx.WithContext(ctx).
				Where("invoice_id = ?", invoice.ID).
				Order("created_at asc, id asc").
				Find(&invoice.Lines).Error; err != nil {
				return err
			}
		}
		invoicedomain.ComputeInvoiceTotals(invoice)

		invoice.UpdatedAt = now
		if err := tx.WithContext(ctx).
			Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Select("customer_id", "payment_method", "sale_condition", "credit_days", "due_date",
				"observations", "subtotal", "total_discount", "total_tax", "total", "updated_at").
			Updates(invoice).Error; err != nil {
			return err
		}

		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.emitAudit(ctx, "invoice.updated", &updated, nil)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return err
	}

	id, err := parseID(rawID)
	if err != nil {
		return invoicedomain.ErrInvalidInvoiceID
	}

	var deleted *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoiceForUpdate(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status != invoicedomain.InvoiceStatusDraft {
			return &invoicedomain.StateError{Op: "delete", Current: invoice.Status}
		}

		if err := tx.WithContext(ctx).
			Where("invoice_id = ?", invoice.ID).
			Delete(&invoicedomain.InvoiceLine{}).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).
			Where("id = ?", invoice.ID).
			Delete(&invoicedomain.Invoice{}).Error; err != nil {
			return err
		}

		deleted = invoice
		return nil
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, "invoice.deleted", deleted, nil)
	return nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	id, err := parseID(rawID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var invoice invoicedomain.Invoice
	err = s.db.WithContext(ctx).
		Preload("Lines").
		Where("company_id = ? AND id = ?", companyID, id).
		Limit(1).
		Find(&invoice).Error
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice.ID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	filter := &invoicedomain.Invoice{CompanyID: companyID}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.CustomerID != nil {
		filter.CustomerID = *req.CustomerID
	}
	if req.InvoiceNumber != nil {
		filter.InvoiceNumber = *req.InvoiceNumber
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	// Keyset pagination orders over (created_at, id) so the id tiebreaker
	// keeps same-timestamp rows stable across pages.
	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
		option.WithSortBy(option.QuerySortBy{Field: "id", Desc: true}),
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
	}
	if req.Search != nil {
		if term := strings.TrimSpace(*req.Search); term != "" {
			like := "%" + term + "%"
			customers := s.db.Table("customers").
				Select("id").
				Where("company_id = ? AND LOWER(name) LIKE LOWER(?)", companyID, like)
			options = append(options, option.ApplyWhere(
				"LOWER(invoice_number) LIKE LOWER(?) OR customer_id IN (?)", like, customers))
		}
	}
	if req.CreatedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.GTE,
			Value:    *req.CreatedFrom,
		}))
	}
	if req.CreatedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LTE,
			Value:    *req.CreatedTo,
		}))
	}
	if req.IssuedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "issue_date",
			Operator: option.GTE,
			Value:    *req.IssuedFrom,
		}))
	}
	if req.IssuedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "issue_date",
			Operator: option.LTE,
			Value:    *req.IssuedTo,
		}))
	}

	items, err := s.invoicerepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Issue(ctx context.Context, req invoicedomain.IssueInvoiceRequest) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	id, err := parseID(req.ID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var issued invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoiceForUpdate(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status != invoicedomain.InvoiceStatusDraft {
			return &invoicedomain.StateError{Op: "issue", Current: invoice.Status}
		}

		now := time.Now().UTC()
		issueDate := invoice.IssueDate
		if issueDate == nil {
			if req.IssueDate != nil {
				issueDate = req.IssueDate
			} else {
				issueDate = &now
			}
		}
		// Due dates before the issue date cannot stand once the invoice leaves draft.
		if invoice.DueDate != nil && invoice.DueDate.Before(*issueDate) {
			return invoicedomain.ErrInvalidDueDate
		}

		if err := tx.WithContext(ctx).Exec(
			`UPDATE invoices
			 SET status = ?, issue_date = ?, updated_at = ?
			 WHERE id = ?`,
			invoicedomain.InvoiceStatusIssued,
			issueDate,
			now,
			id,
		).Error; err != nil {
			return err
		}

		invoice.Status = invoicedomain.InvoiceStatusIssued
		invoice.IssueDate = issueDate
		invoice.UpdatedAt = now
		issued = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.emitAudit(ctx, "invoice.issued", &issued, map[string]any{
		"previous_status": string(invoicedomain.InvoiceStatusDraft),
	})
	return issued, nil
}

func (s *Service) Cancel(ctx context.Context, req invoicedomain.CancelInvoiceRequest) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	id, err := parseID(req.ID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrCancelReasonRequired
	}

	var cancelled invoicedomain.Invoice
	var previous invoicedomain.InvoiceStatus
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoiceForUpdate(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status != invoicedomain.InvoiceStatusDraft && invoice.Status != invoicedomain.InvoiceStatusIssued {
			return &invoicedomain.StateError{Op: "cancel", Current: invoice.Status}
		}

		previous = invoice.Status
		now := time.Now().UTC()
		if err := tx.WithContext(ctx).Exec(
			`UPDATE invoices
			 SET status = ?, cancellation_reason = ?, cancelled_at = ?, updated_at = ?
			 WHERE id = ?`,
			invoicedomain.InvoiceStatusCancelled,
			reason,
			now,
			now,
			id,
		).Error; err != nil {
			return err
		}

		invoice.Status = invoicedomain.InvoiceStatusCancelled
		invoice.CancellationReason = &reason
		invoice.CancelledAt = &now
		invoice.UpdatedAt = now
		cancelled = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.emitAudit(ctx, "invoice.cancelled", &cancelled, map[string]any{
		"previous_status": string(previous),
		"reason":          reason,
	})
	return cancelled, nil
}

type headerFields struct {
	paymentMethod invoicedomain.PaymentMethod
	saleCondition invoicedomain.SaleCondition
	creditDays    int
}

func validateHeader(paymentMethod, saleCondition string, creditDays int) (headerFields, error) {
	method := invoicedomain.PaymentMethod(strings.ToLower(strings.TrimSpace(paymentMethod)))
	if !method.Valid() {
		return headerFields{}, invoicedomain.ErrInvalidPaymentMethod
	}
	condition := invoicedomain.SaleCondition(strings.ToLower(strings.TrimSpace(saleCondition)))
	if !condition.Valid() {
		return headerFields{}, invoicedomain.ErrInvalidSaleCondition
	}
	if creditDays < 0 {
		return headerFields{}, invoicedomain.ErrInvalidCreditDays
	}
	if condition == invoicedomain.SaleConditionCash {
		creditDays = 0
	}
	return headerFields{
		paymentMethod: method,
		saleCondition: condition,
		creditDays:    creditDays,
	}, nil
}

func (s *Service) buildLines(ctx context.Context, tx *gorm.DB, companyID, invoiceID snowflake.ID, inputs []invoicedomain.LineInput, now time.Time) ([]invoicedomain.InvoiceLine, error) {
	lines := make([]invoicedomain.InvoiceLine, 0, len(inputs))
	for _, input := range inputs {
		quantity, err := decimal.NewFromString(strings.TrimSpace(input.Quantity))
		if err != nil || !quantity.IsPositive() {
			return nil, invoicedomain.ErrInvalidLine
		}

		var item *catalogItemRow
		var itemID snowflake.ID
		if input.CatalogItemID != nil && strings.TrimSpace(*input.CatalogItemID) != "" {
			itemID, err = parseID(*input.CatalogItemID)
			if err != nil {
				return nil, invoicedomain.ErrInvalidLine
			}
			item, err = s.lookupCatalogItem(ctx, tx, companyID, itemID)
			if err != nil {
				return nil, err
			}
		}

		description := strings.TrimSpace(input.Description)
		if description == "" {
			if item == nil {
				return nil, invoicedomain.ErrInvalidLine
			}
			description = item.Name
		}

		// Unit price is snapshotted on the line; the catalog price only
		// fills in when the request omits one.
		var unitPrice decimal.Decimal
		if raw := strings.TrimSpace(input.UnitPrice); raw != "" {
			unitPrice, err = decimal.NewFromString(raw)
			if err != nil || unitPrice.IsNegative() {
				return nil, invoicedomain.ErrInvalidLine
			}
		} else if item != nil {
			unitPrice = item.UnitPrice
		} else {
			return nil, invoicedomain.ErrInvalidLine
		}

		discount := decimal.Zero
		if strings.TrimSpace(input.Discount) != "" {
			discount, err = decimal.NewFromString(strings.TrimSpace(input.Discount))
			if err != nil || discount.IsNegative() {
				return nil, invoicedomain.ErrInvalidLine
			}
		}

		// Catalog lines always tax at the item's current rate.
		taxRate := decimal.Zero
		if item != nil {
			taxRate = item.TaxRate
		} else if strings.TrimSpace(input.TaxRate) != "" {
			taxRate, err = decimal.NewFromString(strings.TrimSpace(input.TaxRate))
			if err != nil || taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
				return nil, invoicedomain.ErrInvalidLine
			}
		}

		line := invoicedomain.InvoiceLine{
			ID:          s.genID.Generate(),
			CompanyID:   companyID,
			InvoiceID:   invoiceID,
			Description: description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Discount:    discount,
			TaxRate:     taxRate,
			CreatedAt:   now,
		}
		if item != nil {
			line.CatalogItemID = &itemID
		}

		invoicedomain.ComputeLineTotals(&line)
		if line.Discount.GreaterThan(line.Subtotal) {
			return nil, invoicedomain.ErrInvalidLine
		}
		lines = append(lines, line)
	}
	return lines, nil
}

type catalogItemRow struct {
	ID        snowflake.ID
	Name      string
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
	Active    bool
}

func (s *Service) lookupCatalogItem(ctx context.Context, tx *gorm.DB, companyID, itemID snowflake.ID) (*catalogItemRow, error) {
	var item catalogItemRow
	err := tx.WithContext(ctx).
		Table("catalog_items").
		Select("id", "name", "unit_price", "tax_rate", "active").
		Where("company_id = ? AND id = ?", companyID, itemID).
		Limit(1).
		Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 || !item.Active {
		return nil, invoicedomain.ErrInvalidLine
	}
	return &item, nil
}

// allocateNumber hands out the next consecutive for the company. The sequence
// row is locked for the duration of the surrounding transaction so concurrent
// creates serialize; the unique index on (company_id, invoice_number) backstops
// anything that slips through.
func (s *Service) allocateNumber(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (string, error) {
	var seq invoicedomain.InvoiceSequence
	err := pkgdb.ForUpdate(tx.WithContext(ctx)).
		Where("company_id = ?", companyID).
		Limit(1).
		Find(&seq).Error
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if seq.CompanyID == 0 {
		next, err := s.seedFromExisting(ctx, tx, companyID)
		if err != nil {
			return "", err
		}
		seq = invoicedomain.InvoiceSequence{
			CompanyID:  companyID,
			NextNumber: next + 1,
			UpdatedAt:  now,
		}
		if err := tx.WithContext(ctx).Create(&seq).Error; err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return "", invoicedomain.ErrNumberConflict
			}
			return "", err
		}
		return invoicedomain.FormatInvoiceNumber(next), nil
	}

	next := seq.NextNumber
	if err := tx.WithContext(ctx).
		Model(&invoicedomain.InvoiceSequence{}).
		Where("company_id = ?", companyID).
		Updates(map[string]any{"next_number": next + 1, "updated_at": now}).Error; err != nil {
		return "", err
	}
	return invoicedomain.FormatInvoiceNumber(next), nil
}

func (s *Service) seedFromExisting(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (int64, error) {
	var numbers []string
	err := tx.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("company_id = ?", companyID).
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return 0, err
	}

	var max int64
	for _, number := range numbers {
		n, err := invoicedomain.ParseInvoiceNumber(number)
		if err != nil {
			return 0, err
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

func (s *Service) checkCustomer(ctx context.Context, tx *gorm.DB, companyID, customerID snowflake.ID) error {
	var id snowflake.ID
	err := tx.WithContext(ctx).
		Table("customers").
		Select("id").
		Where("company_id = ? AND id = ?", companyID, customerID).
		Limit(1).
		Scan(&id).Error
	if err != nil {
		return err
	}
	if id == 0 {
		return invoicedomain.ErrInvalidCustomer
	}
	return nil
}

func (s *Service) loadInvoiceForUpdate(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := pkgdb.ForUpdate(tx.WithContext(ctx)).
		Where("company_id = ? AND id = ?", companyID, id).
		Limit(1).
		Find(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, invoice *invoicedomain.Invoice, extra map[string]any) {
	if s.auditSvc == nil || invoice == nil {
		return
	}
	metadata := map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"customer_id":    invoice.CustomerID.String(),
		"status":         string(invoice.Status),
		"total":          invoice.Total.String(),
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	targetID := invoice.ID.String()
	companyID := invoice.CompanyID
	_ = s.auditSvc.AuditLog(ctx, &companyID, "", nil, action, "invoice", &targetID, metadata)
}

func (s *Service) companyIDFromContext(ctx context.Context) (snowflake.ID, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return 0, invoicedomain.ErrInvalidCompany
	}
	return companyID, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidInvoiceID
	}
	return id, nil
}

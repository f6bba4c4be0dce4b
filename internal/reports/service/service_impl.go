package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/internal/clock"
	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/facturacr/facturacr/internal/config"
	"github.com/facturacr/facturacr/internal/reports/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTopLimit = 50

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Invoicing *config.InvoicingConfigHolder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	invoicing *config.InvoicingConfigHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("reports.service"),
		clock:     p.Clock,
		invoicing: p.Invoicing,
	}
}

func (s *Service) SalesSummary(ctx context.Context, req domain.ReportRequest) (domain.SalesSummaryResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.SalesSummaryResponse{}, domain.ErrInvalidCompany
	}
	start, end, err := normalizeRange(req, s.clock.Now())
	if err != nil {
		return domain.SalesSummaryResponse{}, err
	}

	var counts struct {
		InvoiceCount   int64 `gorm:"column:invoice_count"`
		DraftCount     int64 `gorm:"column:draft_count"`
		IssuedCount    int64 `gorm:"column:issued_count"`
		CancelledCount int64 `gorm:"column:cancelled_count"`
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS invoice_count,
			SUM(CASE WHEN status = 'DRAFT' THEN 1 ELSE 0 END) AS draft_count,
			SUM(CASE WHEN status = 'ISSUED' THEN 1 ELSE 0 END) AS issued_count,
			SUM(CASE WHEN status = 'CANCELLED' THEN 1 ELSE 0 END) AS cancelled_count
		FROM invoices
		WHERE company_id = ? AND created_at >= ? AND created_at < ?`,
		companyID, start, end,
	).Scan(&counts).Error; err != nil {
		return domain.SalesSummaryResponse{}, err
	}

	// Money totals only count issued invoices; cancelled documents are
	// excluded from revenue.
	var totals struct {
		Subtotal      decimal.Decimal `gorm:"column:subtotal"`
		TotalDiscount decimal.Decimal `gorm:"column:total_discount"`
		TotalTax      decimal.Decimal `gorm:"column:total_tax"`
		Total         decimal.Decimal `gorm:"column:total"`
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(subtotal), 0) AS subtotal,
			COALESCE(SUM(total_discount), 0) AS total_discount,
			COALESCE(SUM(total_tax), 0) AS total_tax,
			COALESCE(SUM(total), 0) AS total
		FROM invoices
		WHERE company_id = ? AND status = 'ISSUED'
			AND issue_date >= ? AND issue_date < ?`,
		companyID, start, end,
	).Scan(&totals).Error; err != nil {
		return domain.SalesSummaryResponse{}, err
	}

	return domain.SalesSummaryResponse{
		Currency:       s.invoicing.Current().CurrencyCode,
		InvoiceCount:   counts.InvoiceCount,
		DraftCount:     counts.DraftCount,
		IssuedCount:    counts.IssuedCount,
		CancelledCount: counts.CancelledCount,
		Subtotal:       totals.Subtotal,
		TotalDiscount:  totals.TotalDiscount,
		TotalTax:       totals.TotalTax,
		Total:          totals.Total,
	}, nil
}

func (s *Service) TopCustomers(ctx context.Context, req domain.TopRequest) (domain.TopCustomersResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.TopCustomersResponse{}, domain.ErrInvalidCompany
	}
	start, end, err := normalizeRange(req.ReportRequest, s.clock.Now())
	if err != nil {
		return domain.TopCustomersResponse{}, err
	}
	limit, err := normalizeLimit(req.Limit)
	if err != nil {
		return domain.TopCustomersResponse{}, err
	}

	var rows []domain.TopCustomerRow
	if err := s.db.WithContext(ctx).Raw(`
		SELECT
			i.customer_id AS customer_id,
			c.name AS customer_name,
			COUNT(*) AS invoice_count,
			COALESCE(SUM(i.total), 0) AS total
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.company_id = ? AND i.status = 'ISSUED'
			AND i.issue_date >= ? AND i.issue_date < ?
		GROUP BY i.customer_id, c.name
		ORDER BY total DESC
		LIMIT ?`,
		companyID, start, end, limit,
	).Scan(&rows).Error; err != nil {
		return domain.TopCustomersResponse{}, err
	}
	return domain.TopCustomersResponse{Customers: rows}, nil
}

func (s *Service) TopProducts(ctx context.Context, req domain.TopRequest) (domain.TopProductsResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.TopProductsResponse{}, domain.ErrInvalidCompany
	}
	start, end, err := normalizeRange(req.ReportRequest, s.clock.Now())
	if err != nil {
		return domain.TopProductsResponse{}, err
	}
	limit, err := normalizeLimit(req.Limit)
	if err != nil {
		return domain.TopProductsResponse{}, err
	}

	// Free-form lines carry no catalog item id; they group by description.
	var rows []domain.TopProductRow
	if err := s.db.WithContext(ctx).Raw(`
		SELECT
			l.catalog_item_id AS catalog_item_id,
			l.description AS description,
			COALESCE(SUM(l.quantity), 0) AS quantity,
			COALESCE(SUM(l.total), 0) AS total
		FROM invoice_lines l
		JOIN invoices i ON i.id = l.invoice_id
		WHERE i.company_id = ? AND i.status = 'ISSUED'
			AND i.issue_date >= ? AND i.issue_date < ?
		GROUP BY l.catalog_item_id, l.description
		ORDER BY total DESC
		LIMIT ?`,
		companyID, start, end, limit,
	).Scan(&rows).Error; err != nil {
		return domain.TopProductsResponse{}, err
	}
	return domain.TopProductsResponse{Products: rows}, nil
}

func (s *Service) MonthlySeries(ctx context.Context, req domain.ReportRequest) (domain.MonthlySeriesResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.MonthlySeriesResponse{}, domain.ErrInvalidCompany
	}

	now := s.clock.Now()
	start := req.Start
	end := req.End
	if start.IsZero() || end.IsZero() {
		end = now
		start = end.AddDate(0, -11, 0)
	}
	if end.Before(start) {
		return domain.MonthlySeriesResponse{}, domain.ErrInvalidTimeRange
	}
	start = truncateToMonth(start.UTC())
	end = truncateToMonth(end.UTC()).AddDate(0, 1, 0)

	// Month bucketing happens in Go so the query stays portable across the
	// supported dialects.
	var rows []struct {
		IssueDate time.Time       `gorm:"column:issue_date"`
		Total     decimal.Decimal `gorm:"column:total"`
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT issue_date, total
		FROM invoices
		WHERE company_id = ? AND status = 'ISSUED'
			AND issue_date >= ? AND issue_date < ?`,
		companyID, start, end,
	).Scan(&rows).Error; err != nil {
		return domain.MonthlySeriesResponse{}, err
	}

	buckets := make(map[string]*domain.MonthlyPoint)
	for _, row := range rows {
		month := row.IssueDate.UTC().Format("2006-01")
		point, ok := buckets[month]
		if !ok {
			point = &domain.MonthlyPoint{Month: month}
			buckets[month] = point
		}
		point.InvoiceCount++
		point.Total = point.Total.Add(row.Total)
	}

	var series []domain.MonthlyPoint
	for cursor := start; cursor.Before(end); cursor = cursor.AddDate(0, 1, 0) {
		month := cursor.Format("2006-01")
		if point, ok := buckets[month]; ok {
			series = append(series, *point)
			continue
		}
		series = append(series, domain.MonthlyPoint{Month: month, Total: decimal.Zero})
	}
	return domain.MonthlySeriesResponse{Series: series}, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.DashboardResponse{}, domain.ErrInvalidCompany
	}

	resp := domain.DashboardResponse{IssuedThisMonth: decimal.Zero}

	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM customers WHERE company_id = ?`, companyID,
	).Scan(&resp.CustomerCount).Error; err != nil {
		return domain.DashboardResponse{}, err
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM catalog_items WHERE company_id = ?`, companyID,
	).Scan(&resp.CatalogItemCount).Error; err != nil {
		return domain.DashboardResponse{}, err
	}

	var counts struct {
		DraftCount     int64 `gorm:"column:draft_count"`
		IssuedCount    int64 `gorm:"column:issued_count"`
		CancelledCount int64 `gorm:"column:cancelled_count"`
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT
			SUM(CASE WHEN status = 'DRAFT' THEN 1 ELSE 0 END) AS draft_count,
			SUM(CASE WHEN status = 'ISSUED' THEN 1 ELSE 0 END) AS issued_count,
			SUM(CASE WHEN status = 'CANCELLED' THEN 1 ELSE 0 END) AS cancelled_count
		FROM invoices
		WHERE company_id = ?`,
		companyID,
	).Scan(&counts).Error; err != nil {
		return domain.DashboardResponse{}, err
	}
	resp.DraftCount = counts.DraftCount
	resp.IssuedCount = counts.IssuedCount
	resp.CancelledCount = counts.CancelledCount

	monthStart := truncateToMonth(s.clock.Now())
	var issuedThisMonth decimal.Decimal
	if err := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(total), 0)
		FROM invoices
		WHERE company_id = ? AND status = 'ISSUED' AND issue_date >= ?`,
		companyID, monthStart,
	).Scan(&issuedThisMonth).Error; err != nil {
		return domain.DashboardResponse{}, err
	}
	resp.IssuedThisMonth = issuedThisMonth

	var recent []struct {
		ID            snowflake.ID    `gorm:"column:id"`
		InvoiceNumber string          `gorm:"column:invoice_number"`
		CustomerName  string          `gorm:"column:customer_name"`
		Status        string          `gorm:"column:status"`
		Total         decimal.Decimal `gorm:"column:total"`
		CreatedAt     time.Time       `gorm:"column:created_at"`
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT i.id, i.invoice_number, c.name AS customer_name, i.status, i.total, i.created_at
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.company_id = ?
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT 5`,
		companyID,
	).Scan(&recent).Error; err != nil {
		return domain.DashboardResponse{}, err
	}
	for _, row := range recent {
		resp.RecentInvoices = append(resp.RecentInvoices, domain.RecentInvoice{
			ID:            int64(row.ID),
			InvoiceNumber: row.InvoiceNumber,
			CustomerName:  row.CustomerName,
			Status:        row.Status,
			Total:         row.Total,
			CreatedAt:     row.CreatedAt,
		})
	}
	return resp, nil
}

func normalizeRange(req domain.ReportRequest, now time.Time) (time.Time, time.Time, error) {
	start := req.Start
	end := req.End
	if start.IsZero() || end.IsZero() {
		end = now
		start = end.AddDate(0, 0, -30)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.ErrInvalidTimeRange
	}
	return start.UTC(), end.UTC(), nil
}

func normalizeLimit(limit int) (int, error) {
	if limit < 0 || limit > maxTopLimit {
		return 0, domain.ErrInvalidLimit
	}
	if limit == 0 {
		return 10, nil
	}
	return limit, nil
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

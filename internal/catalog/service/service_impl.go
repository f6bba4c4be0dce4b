package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	"github.com/facturacr/facturacr/internal/catalog/domain"
	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/facturacr/facturacr/pkg/db"
	"github.com/facturacr/facturacr/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Audit auditdomain.Service `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	audit auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.Item{}, domain.ErrInvalidCompany
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return domain.Item{}, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Item{}, domain.ErrInvalidName
	}
	itemType := domain.ItemType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !itemType.Valid() {
		return domain.Item{}, domain.ErrInvalidType
	}

	unitPrice, err := parseAmount(req.UnitPrice)
	if err != nil {
		return domain.Item{}, domain.ErrInvalidPrice
	}
	taxRate, err := parseRate(req.TaxRate)
	if err != nil {
		return domain.Item{}, domain.ErrInvalidTaxRate
	}

	if existing, err := s.repo.FindByCode(ctx, s.db, companyID, code); err != nil {
		return domain.Item{}, err
	} else if existing != nil {
		return domain.Item{}, domain.ErrCodeExists
	}

	now := time.Now().UTC()
	item := domain.Item{
		ID:          s.genID.Generate(),
		CompanyID:   companyID,
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Type:        itemType,
		UnitPrice:   unitPrice,
		TaxRate:     taxRate,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Item{}, domain.ErrCodeExists
		}
		return domain.Item{}, err
	}

	s.emitAudit(ctx, companyID, "catalog_item.created", item.ID.String(), map[string]any{"code": item.Code})
	return item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateItemRequest) (domain.Item, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.Item{}, domain.ErrInvalidCompany
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Item{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, companyID, id)
	if err != nil {
		return domain.Item{}, err
	}
	if item == nil {
		return domain.Item{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Item{}, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Type != nil {
		itemType := domain.ItemType(strings.ToLower(strings.TrimSpace(*req.Type)))
		if !itemType.Valid() {
			return domain.Item{}, domain.ErrInvalidType
		}
		item.Type = itemType
	}
	if req.UnitPrice != nil {
		unitPrice, err := parseAmount(*req.UnitPrice)
		if err != nil {
			return domain.Item{}, domain.ErrInvalidPrice
		}
		item.UnitPrice = unitPrice
	}
	if req.TaxRate != nil {
		taxRate, err := parseRate(*req.TaxRate)
		if err != nil {
			return domain.Item{}, domain.ErrInvalidTaxRate
		}
		item.TaxRate = taxRate
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Item{}, err
	}

	s.emitAudit(ctx, companyID, "catalog_item.updated", item.ID.String(), nil)
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListItemRequest) (domain.ListItemResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.ListItemResponse{}, domain.ErrInvalidCompany
	}

	filter := domain.ListItemFilter{
		Search: strings.TrimSpace(req.Search),
		Active: req.Active,
	}
	if itemType := strings.ToLower(strings.TrimSpace(req.Type)); itemType != "" {
		parsed := domain.ItemType(itemType)
		if !parsed.Valid() {
			return domain.ListItemResponse{}, domain.ErrInvalidType
		}
		filter.Type = parsed
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, companyID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListItemResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.Item) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	result := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		result = append(result, *item)
	}

	resp := domain.ListItemResponse{Items: result}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetItemRequest) (domain.Item, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.Item{}, domain.ErrInvalidCompany
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Item{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, companyID, id)
	if err != nil {
		return domain.Item{}, err
	}
	if item == nil {
		return domain.Item{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func (s *Service) emitAudit(ctx context.Context, companyID snowflake.ID, action, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AuditLog(ctx, &companyID, "", nil, action, "catalog_item", &targetID, metadata); err != nil {
		s.log.Warn("failed to emit audit event", zap.String("action", action), zap.Error(err))
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if value.IsNegative() {
		return decimal.Decimal{}, domain.ErrInvalidPrice
	}
	return value, nil
}

func parseRate(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Decimal{}, domain.ErrInvalidTaxRate
	}
	return value, nil
}

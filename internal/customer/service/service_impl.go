package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/facturacr/facturacr/internal/customer/domain"
	"github.com/facturacr/facturacr/pkg/db/pagination"
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
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.Customer{}, domain.ErrInvalidCompany
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	idType := domain.IdentificationType(strings.TrimSpace(req.IdentificationType))
	idNumber := strings.TrimSpace(req.IdentificationNumber)
	if !idType.Valid() || idNumber == "" {
		return domain.Customer{}, domain.ErrInvalidIdentification
	}

	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return domain.Customer{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:                   s.genID.Generate(),
		CompanyID:            companyID,
		Name:                 name,
		IdentificationType:   idType,
		IdentificationNumber: idNumber,
		Email:                email,
		Phone:                strings.TrimSpace(req.Phone),
		Province:             strings.TrimSpace(req.Province),
		Canton:               strings.TrimSpace(req.Canton),
		District:             strings.TrimSpace(req.District),
		AddressDetail:        strings.TrimSpace(req.AddressDetail),
		Status:               domain.StatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	s.emitAudit(ctx, companyID, "customer.created", customer.ID.String(), map[string]any{"name": customer.Name})
	return customer, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.Customer{}, domain.ErrInvalidCompany
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	customer, err := s.repo.FindByID(ctx, s.db, companyID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, domain.ErrInvalidName
		}
		customer.Name = name
	}
	if req.IdentificationType != nil {
		idType := domain.IdentificationType(strings.TrimSpace(*req.IdentificationType))
		if !idType.Valid() {
			return domain.Customer{}, domain.ErrInvalidIdentification
		}
		customer.IdentificationType = idType
	}
	if req.IdentificationNumber != nil {
		idNumber := strings.TrimSpace(*req.IdentificationNumber)
		if idNumber == "" {
			return domain.Customer{}, domain.ErrInvalidIdentification
		}
		customer.IdentificationNumber = idNumber
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && !strings.Contains(email, "@") {
			return domain.Customer{}, domain.ErrInvalidEmail
		}
		customer.Email = email
	}
	if req.Phone != nil {
		customer.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Province != nil {
		customer.Province = strings.TrimSpace(*req.Province)
	}
	if req.Canton != nil {
		customer.Canton = strings.TrimSpace(*req.Canton)
	}
	if req.District != nil {
		customer.District = strings.TrimSpace(*req.District)
	}
	if req.AddressDetail != nil {
		customer.AddressDetail = strings.TrimSpace(*req.AddressDetail)
	}
	if req.Status != nil {
		status := domain.Status(strings.ToLower(strings.TrimSpace(*req.Status)))
		if status != domain.StatusActive && status != domain.StatusInactive {
			return domain.Customer{}, domain.ErrInvalidStatus
		}
		customer.Status = status
	}

	customer.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, customer); err != nil {
		return domain.Customer{}, err
	}

	s.emitAudit(ctx, companyID, "customer.updated", customer.ID.String(), nil)
	return *customer, nil
}

func (s *Service) Delete(ctx context.Context, req domain.GetCustomerRequest) error {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.ErrInvalidCompany
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	customer, err := s.repo.FindByID(ctx, s.db, companyID, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return domain.ErrNotFound
	}

	// Customers referenced by invoices can only be deactivated.
	count, err := s.repo.CountInvoices(ctx, s.db, companyID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrHasInvoices
	}

	if err := s.repo.Delete(ctx, s.db, companyID, id); err != nil {
		return err
	}

	s.emitAudit(ctx, companyID, "customer.deleted", id.String(), map[string]any{"name": customer.Name})
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.ListCustomerResponse{}, domain.ErrInvalidCompany
	}

	filter := domain.ListCustomerFilter{
		Search:      strings.TrimSpace(req.Search),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		parsed := domain.Status(status)
		if parsed != domain.StatusActive && parsed != domain.StatusInactive {
			return domain.ListCustomerResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = parsed
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
		return domain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        customer.ID.String(),
			CreatedAt: customer.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	resp := domain.ListCustomerResponse{Customers: customers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.Customer{}, domain.ErrInvalidCompany
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, companyID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
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
	if err := s.audit.AuditLog(ctx, &companyID, "", nil, action, "customer", &targetID, metadata); err != nil {
		s.log.Warn("failed to emit audit event", zap.String("action", action), zap.Error(err))
	}
}

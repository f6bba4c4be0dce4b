package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	"github.com/facturacr/facturacr/internal/company/domain"
	"github.com/facturacr/facturacr/internal/companyctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// settingCodes lists the codes UpdateSettings accepts.
var settingCodes = map[string]struct{}{
	domain.SettingSMTPHost:      {},
	domain.SettingSMTPPort:      {},
	domain.SettingSMTPUsername:  {},
	domain.SettingSMTPPassword:  {},
	domain.SettingSMTPFromEmail: {},
	domain.SettingSMTPFromName:  {},
}

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
		log:   p.Log.Named("company.service"),
		genID: p.GenID,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

func (s *Service) GetCompany(ctx context.Context) (*domain.Company, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrCompanyNotFound
	}
	return company, nil
}

func (s *Service) UpdateCompany(ctx context.Context, req domain.UpdateCompanyRequest) (*domain.Company, error) {
	company, err := s.GetCompany(ctx)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		company.Name = name
	}
	if req.BusinessName != nil {
		company.BusinessName = strings.TrimSpace(*req.BusinessName)
	}
	if req.LegalID != nil {
		legalID := strings.TrimSpace(*req.LegalID)
		if legalID == "" {
			return nil, domain.ErrLegalIDRequired
		}
		company.LegalID = legalID
	}
	if req.ActivityCode != nil {
		company.ActivityCode = strings.TrimSpace(*req.ActivityCode)
	}
	if req.Address != nil {
		company.Address = strings.TrimSpace(*req.Address)
	}
	if req.Province != nil {
		company.Province = strings.TrimSpace(*req.Province)
	}
	if req.Canton != nil {
		company.Canton = strings.TrimSpace(*req.Canton)
	}
	if req.District != nil {
		company.District = strings.TrimSpace(*req.District)
	}
	if req.Neighborhood != nil {
		company.Neighborhood = strings.TrimSpace(*req.Neighborhood)
	}
	if req.Phone != nil {
		company.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		company.Email = strings.TrimSpace(*req.Email)
	}

	company.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, company.ID, "company.updated", company.ID.String(), map[string]any{"legal_id": company.LegalID})
	return company, nil
}

func (s *Service) GetSettings(ctx context.Context) (map[string]string, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}
	settings, err := s.repo.Settings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	// Credentials never leave the service.
	delete(settings, domain.SettingSMTPPassword)
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, req domain.UpdateSettingsRequest) error {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.ErrInvalidCompany
	}

	codes := make([]string, 0, len(req.Settings))
	for code := range req.Settings {
		if _, known := settingCodes[code]; !known {
			return domain.ErrInvalidSetting
		}
		codes = append(codes, code)
	}

	now := time.Now().UTC()
	for _, code := range codes {
		setting := domain.Setting{
			ID:        s.genID.Generate(),
			CompanyID: companyID,
			Code:      code,
			Value:     strings.TrimSpace(req.Settings[code]),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.UpsertSetting(ctx, &setting); err != nil {
			return err
		}
	}

	s.emitAudit(ctx, companyID, "settings.updated", companyID.String(), map[string]any{"codes": codes})
	return nil
}

func (s *Service) MailSettings(ctx context.Context, companyID snowflake.ID) (domain.MailSettings, error) {
	if companyID == 0 {
		return domain.MailSettings{}, domain.ErrInvalidCompany
	}

	settings, err := s.repo.Settings(ctx, companyID)
	if err != nil {
		return domain.MailSettings{}, err
	}

	mail := domain.MailSettings{
		Host:      settings[domain.SettingSMTPHost],
		Username:  settings[domain.SettingSMTPUsername],
		Password:  settings[domain.SettingSMTPPassword],
		FromEmail: settings[domain.SettingSMTPFromEmail],
		FromName:  settings[domain.SettingSMTPFromName],
	}
	if raw := strings.TrimSpace(settings[domain.SettingSMTPPort]); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil && port > 0 {
			mail.Port = port
		}
	}
	return mail, nil
}

func (s *Service) emitAudit(ctx context.Context, companyID snowflake.ID, action, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AuditLog(ctx, &companyID, "", nil, action, "company", &targetID, metadata); err != nil {
		s.log.Warn("failed to emit audit event", zap.String("action", action), zap.Error(err))
	}
}

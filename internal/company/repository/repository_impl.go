package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/internal/company/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repo) FindBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).First(&company, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repo) Update(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).
		Model(&domain.Company{}).
		Where("id = ?", company.ID).
		Select("name", "business_name", "legal_id", "activity_code", "address",
			"province", "canton", "district", "neighborhood", "phone", "email", "updated_at").
		Updates(company).Error
}

func (r *repo) Settings(ctx context.Context, companyID snowflake.ID) (map[string]string, error) {
	var rows []domain.Setting
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Code] = row.Value
	}
	return settings, nil
}

func (r *repo) UpsertSetting(ctx context.Context, setting *domain.Setting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
}

package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/internal/catalog/domain"
	"github.com/facturacr/facturacr/pkg/db/option"
	"github.com/facturacr/facturacr/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.Item) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *domain.Item) error {
	return db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("company_id = ? AND id = ?", item.CompanyID, item.ID).
		Select("name", "description", "type", "unit_price", "tax_rate", "active", "updated_at").
		Updates(item).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM catalog_items WHERE company_id = ? AND id = ?`,
		companyID,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, companyID snowflake.ID, code string) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM catalog_items WHERE company_id = ? AND code = ?`,
		companyID,
		code,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter domain.ListItemFilter, page pagination.Pagination) ([]*domain.Item, error) {
	var items []*domain.Item
	stmt := db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("company_id = ?", companyID)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		stmt = stmt.Where("code LIKE ? OR name LIKE ?", like, like)
	}
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

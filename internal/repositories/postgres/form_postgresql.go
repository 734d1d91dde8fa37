package postgres

import (
	"context"
	"fmt"

	"github.com/formlab/form-service/internal/models"
	"github.com/formlab/form-service/internal/repositories"
	"gorm.io/gorm"
)

type FormPostgreSQL struct {
	db *gorm.DB
}

func NewFormPostgreSQL(db *gorm.DB) repositories.FormRepository {
	return &FormPostgreSQL{db: db}
}

func (f *FormPostgreSQL) Create(ctx context.Context, form *models.Form) error {
	if err := f.db.WithContext(ctx).Create(form).Error; err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}
	return nil
}

func (f *FormPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Form, error) {
	var form models.Form
	if err := f.db.WithContext(ctx).First(&form, id).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (f *FormPostgreSQL) List(ctx context.Context, filters repositories.FormFilters) ([]*models.Form, int64, error) {
	query := f.db.WithContext(ctx).Model(&models.Form{})

	if filters.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count forms: %w", err)
	}

	query = query.Order(orderClause(filters.SortBy, filters.SortOrder))
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var forms []*models.Form
	if err := query.Find(&forms).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, total, nil
}

func (f *FormPostgreSQL) Update(ctx context.Context, form *models.Form) error {
	if err := f.db.WithContext(ctx).Save(form).Error; err != nil {
		return fmt.Errorf("failed to update form: %w", err)
	}
	return nil
}

func (f *FormPostgreSQL) Delete(ctx context.Context, id uint) error {
	if err := f.db.WithContext(ctx).Delete(&models.Form{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}
	return nil
}

func (f *FormPostgreSQL) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := f.db.WithContext(ctx).Model(&models.Form{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check form existence: %w", err)
	}
	return count > 0, nil
}

func orderClause(sortBy, sortOrder string) string {
	switch sortBy {
	case "title":
	case "created_at":
	default:
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	return sortBy + " " + sortOrder
}

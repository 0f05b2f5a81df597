package repository

import (
	"context"

	"stockflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockMovementRepository stores the append-only stock history.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *models.StockMovement) error
	ListByCompany(ctx context.Context, companyID uint, limit, offset int) ([]models.StockMovement, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

// NewStockMovementRepository returns a new StockMovementRepository implementation.
func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *models.StockMovement) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(movement).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *stockMovementRepository) ListByCompany(ctx context.Context, companyID uint, limit, offset int) ([]models.StockMovement, error) {
	limit, offset = clampPage(limit, offset)

	var movements []models.StockMovement
	err := r.db.WithContext(ctx).
		Preload("Item").
		Preload("User").
		Where("company_id = ?", companyID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&movements).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return movements, nil
}

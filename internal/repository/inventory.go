package repository

import (
	"context"
	"strings"

	"stockflow/internal/models"
	"stockflow/internal/observability"

	"gorm.io/gorm"
)

// InventoryRepository is the tenant-scoped inventory item directory.
type InventoryRepository interface {
	FindByID(ctx context.Context, companyID, itemID uint) (*models.InventoryItem, error)
	// IncrementQuantity atomically adds delta (> 0) to the item's quantity.
	IncrementQuantity(ctx context.Context, companyID, itemID uint, delta int) error
	Create(ctx context.Context, item *models.InventoryItem) error
	List(ctx context.Context, companyID uint, search string, limit, offset int) ([]models.InventoryItem, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository returns a new InventoryRepository implementation.
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) FindByID(ctx context.Context, companyID, itemID uint) (*models.InventoryItem, error) {
	defer observability.TrackQuery("find", "inventory_items")()

	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", itemID, companyID).
		First(&item).Error
	if err != nil {
		return nil, mapError(err, "Inventory item", itemID)
	}
	return &item, nil
}

func (r *inventoryRepository) IncrementQuantity(ctx context.Context, companyID, itemID uint, delta int) error {
	if delta <= 0 {
		return models.NewValidationError("stock increment must be positive")
	}
	defer observability.TrackQuery("increment", "inventory_items")()

	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND company_id = ?", itemID, companyID).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return mapError(res.Error, "Inventory item", itemID)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Inventory item", itemID)
	}
	return nil
}

func (r *inventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	defer observability.TrackQuery("create", "inventory_items")()

	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("asset code "+item.AssetCode+" is already in use", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *inventoryRepository) List(ctx context.Context, companyID uint, search string, limit, offset int) ([]models.InventoryItem, error) {
	limit, offset = clampPage(limit, offset)

	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(asset_code) LIKE ?", like, like)
	}

	var items []models.InventoryItem
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

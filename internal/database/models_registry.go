package database

import "stockflow/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Company{},
		&models.User{},
		&models.InventoryItem{},
		&models.PurchaseRequest{},
		&models.StockMovement{},
	}
}

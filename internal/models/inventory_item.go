package models

import "time"

// Defaults applied to items provisioned by a purchase receipt.
const (
	DefaultItemLocation      = "Warehouse"
	DefaultItemCategory      = "General"
	DefaultItemMinStockLevel = 5
)

// InventoryItem is a stock record owned by a company.
type InventoryItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CompanyID     uint      `gorm:"not null;index" json:"company_id"`
	Name          string    `gorm:"size:200;not null" json:"name"`
	Quantity      int       `gorm:"not null;default:0" json:"quantity"`
	Location      string    `gorm:"size:120" json:"location"`
	Category      string    `gorm:"size:120" json:"category"`
	MinStockLevel int       `gorm:"not null;default:5" json:"min_stock_level"`
	AssetCode     string    `gorm:"size:64;not null;uniqueIndex" json:"asset_code"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// BelowMinimum reports whether the stock is under the item's threshold.
func (i InventoryItem) BelowMinimum() bool {
	return i.Quantity < i.MinStockLevel
}

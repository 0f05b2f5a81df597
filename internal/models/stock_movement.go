package models

import "time"

// StockMovementKind classifies a change of stock.
type StockMovementKind string

// StockMovementPurchaseReceipt is stock added by receiving a purchase request.
const StockMovementPurchaseReceipt StockMovementKind = "PURCHASE_RECEIPT"

// StockMovement is an append-only history entry of a stock change.
type StockMovement struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	CompanyID         uint              `gorm:"not null;index" json:"company_id"`
	ItemID            uint              `gorm:"not null;index" json:"item_id"`
	Item              *InventoryItem    `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	PurchaseRequestID *uint             `gorm:"index" json:"purchase_request_id"`
	UserID            *uint             `json:"user_id"`
	User              *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Kind              StockMovementKind `gorm:"type:varchar(32);not null" json:"kind"`
	QuantityDelta     int               `gorm:"not null" json:"quantity_delta"`
	CreatedAt         time.Time         `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (StockMovement) TableName() string {
	return "stock_movements"
}

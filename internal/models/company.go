// Package models contains the persistent domain records of the purchasing workflow.
package models

import "time"

// Company is a tenant. Every user, inventory item and purchase request belongs to exactly one.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:160;not null" json:"name"`
	Domain    string    `gorm:"size:64;not null;uniqueIndex" json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Company) TableName() string {
	return "companies"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole defines what a company member may do.
type UserRole string

const (
	// UserRoleAdmin may approve, reject and receive purchase requests of its company.
	UserRoleAdmin UserRole = "ADMIN"
	// UserRoleUser may submit purchase requests.
	UserRoleUser UserRole = "USER"
)

// User is a member of a company.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name      string         `gorm:"size:160" json:"name"`
	Password  string         `gorm:"not null" json:"-"`
	Role      UserRole       `gorm:"type:varchar(16);not null;default:'USER'" json:"role"`
	CompanyID uint           `gorm:"not null;index" json:"company_id"`
	Company   *Company       `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

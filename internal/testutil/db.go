// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"stockflow/internal/database"
	"stockflow/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory database.
// It holds a single connection, so concurrent transactions are serialized.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Tenant is a company with one admin and one regular member.
type Tenant struct {
	Company *models.Company
	Admin   *models.User
	Member  *models.User
}

// SeedTenant creates a company with the given domain plus an admin and a member.
func SeedTenant(t *testing.T, db *gorm.DB, domain string) Tenant {
	t.Helper()

	company := &models.Company{Name: domain + " Inc", Domain: domain}
	require.NoError(t, db.Create(company).Error)

	admin := &models.User{
		Email:     fmt.Sprintf("admin@%s.test", domain),
		Name:      "Admin " + domain,
		Password:  "x",
		Role:      models.UserRoleAdmin,
		CompanyID: company.ID,
	}
	require.NoError(t, db.Create(admin).Error)

	member := &models.User{
		Email:     fmt.Sprintf("member@%s.test", domain),
		Name:      "Member " + domain,
		Password:  "x",
		Role:      models.UserRoleUser,
		CompanyID: company.ID,
	}
	require.NoError(t, db.Create(member).Error)

	return Tenant{Company: company, Admin: admin, Member: member}
}

// SeedItem creates an inventory item for companyID with the given stock.
func SeedItem(t *testing.T, db *gorm.DB, companyID uint, name string, quantity int) *models.InventoryItem {
	t.Helper()

	item := &models.InventoryItem{
		CompanyID:     companyID,
		Name:          name,
		Quantity:      quantity,
		Location:      models.DefaultItemLocation,
		Category:      models.DefaultItemCategory,
		MinStockLevel: models.DefaultItemMinStockLevel,
		AssetCode:     fmt.Sprintf("SEED-%d-%s", companyID, name),
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

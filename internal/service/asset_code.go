package service

import (
	"strings"

	"stockflow/internal/models"

	"github.com/google/uuid"
)

const assetCodeSuffixLen = 8

// AssetCode builds "<DOMAIN>-<first 8 chars of suffix>" in upper case.
func AssetCode(domain, suffix string) string {
	if len(suffix) > assetCodeSuffixLen {
		suffix = suffix[:assetCodeSuffixLen]
	}
	prefix := strings.ToUpper(strings.TrimSpace(domain))
	if prefix == "" {
		prefix = "ITEM"
	}
	return prefix + "-" + strings.ToUpper(suffix)
}

func randomAssetSuffix() string {
	return uuid.NewString()
}

// NewReceivedItem returns the inventory record provisioned when a request for a new item is received.
func NewReceivedItem(company *models.Company, name string, quantity int, suffix string) *models.InventoryItem {
	return &models.InventoryItem{
		CompanyID:     company.ID,
		Name:          name,
		Quantity:      quantity,
		Location:      models.DefaultItemLocation,
		Category:      models.DefaultItemCategory,
		MinStockLevel: models.DefaultItemMinStockLevel,
		AssetCode:     AssetCode(company.Domain, suffix),
	}
}

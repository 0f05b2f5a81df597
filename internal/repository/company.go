package repository

import (
	"context"

	"stockflow/internal/models"

	"gorm.io/gorm"
)

// CompanyRepository defines persistence operations for tenants.
type CompanyRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Company, error)
	GetByDomain(ctx context.Context, domain string) (*models.Company, error)
	Create(ctx context.Context, company *models.Company) error
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository returns a new CompanyRepository implementation.
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) GetByID(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, mapError(err, "Company", id)
	}
	return &company, nil
}

func (r *companyRepository) GetByDomain(ctx context.Context, domain string) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&company).Error; err != nil {
		return nil, mapError(err, "Company", domain)
	}
	return &company, nil
}

func (r *companyRepository) Create(ctx context.Context, company *models.Company) error {
	return mapError(r.db.WithContext(ctx).Create(company).Error, "Company", company.Domain)
}

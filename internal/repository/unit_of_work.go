package repository

import (
	"context"

	"gorm.io/gorm"
)

// Stores groups the repositories that take part in a workflow transaction.
type Stores struct {
	Companies CompanyRepository
	Items     InventoryRepository
	Requests  PurchaseRequestRepository
	Movements StockMovementRepository
}

// NewStores binds every repository to db, which may be a transaction.
func NewStores(db *gorm.DB) Stores {
	return Stores{
		Companies: NewCompanyRepository(db),
		Items:     NewInventoryRepository(db),
		Requests:  NewPurchaseRequestRepository(db),
		Movements: NewStockMovementRepository(db),
	}
}

// UnitOfWork runs fn against transaction-bound stores.
// If fn returns an error every write made through the stores is rolled back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(Stores) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork returns a UnitOfWork backed by GORM transactions.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(Stores) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStores(tx))
	})
}

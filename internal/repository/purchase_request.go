package repository

import (
	"context"
	"time"

	"stockflow/internal/models"
	"stockflow/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseRequestRepository is the tenant-scoped purchase request store.
type PurchaseRequestRepository interface {
	Create(ctx context.Context, req *models.PurchaseRequest) error
	FindByID(ctx context.Context, companyID, id uint) (*models.PurchaseRequest, error)
	// FindByIDForUpdate loads the request and locks its row until the transaction ends.
	FindByIDForUpdate(ctx context.Context, companyID, id uint) (*models.PurchaseRequest, error)
	// TransitionStatus moves the request from -> to only if it is still in from.
	// It records actorID as reviewer (APPROVED, REJECTED) or receiver (RECEIVED).
	TransitionStatus(ctx context.Context, companyID, id uint, from, to models.PurchaseRequestStatus, actorID uint, at time.Time) error
	ListByRequester(ctx context.Context, requesterID uint) ([]models.PurchaseRequest, error)
	ListByCompanyAndStatus(ctx context.Context, companyID uint, status models.PurchaseRequestStatus) ([]models.PurchaseRequest, error)
}

type purchaseRequestRepository struct {
	db *gorm.DB
}

// NewPurchaseRequestRepository returns a new PurchaseRequestRepository implementation.
func NewPurchaseRequestRepository(db *gorm.DB) PurchaseRequestRepository {
	return &purchaseRequestRepository{db: db}
}

func (r *purchaseRequestRepository) Create(ctx context.Context, req *models.PurchaseRequest) error {
	defer observability.TrackQuery("create", "purchase_requests")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error; err != nil {
		return mapError(err, "Purchase request", req.ID)
	}
	return nil
}

func (r *purchaseRequestRepository) FindByID(ctx context.Context, companyID, id uint) (*models.PurchaseRequest, error) {
	return r.find(r.db.WithContext(ctx), companyID, id)
}

func (r *purchaseRequestRepository) FindByIDForUpdate(ctx context.Context, companyID, id uint) (*models.PurchaseRequest, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), companyID, id)
}

func (r *purchaseRequestRepository) find(q *gorm.DB, companyID, id uint) (*models.PurchaseRequest, error) {
	defer observability.TrackQuery("find", "purchase_requests")()

	var req models.PurchaseRequest
	if err := q.Where("id = ? AND company_id = ?", id, companyID).First(&req).Error; err != nil {
		return nil, mapError(err, "Purchase request", id)
	}
	return &req, nil
}

func (r *purchaseRequestRepository) TransitionStatus(ctx context.Context, companyID, id uint, from, to models.PurchaseRequestStatus, actorID uint, at time.Time) error {
	if !models.CanTransition(from, to) {
		return models.NewInvalidTransitionError(from, to)
	}
	defer observability.TrackQuery("transition", "purchase_requests")()

	updates := map[string]any{"status": to}
	if to == models.PurchaseRequestStatusReceived {
		updates["received_by_user_id"] = actorID
		updates["received_at"] = at
	} else {
		updates["reviewed_by_user_id"] = actorID
		updates["reviewed_at"] = at
	}

	res := r.db.WithContext(ctx).
		Model(&models.PurchaseRequest{}).
		Where("id = ? AND company_id = ? AND status = ?", id, companyID, from).
		Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewInvalidTransitionError(from, to)
	}
	return nil
}

func (r *purchaseRequestRepository) ListByRequester(ctx context.Context, requesterID uint) ([]models.PurchaseRequest, error) {
	defer observability.TrackQuery("list_by_requester", "purchase_requests")()

	var reqs []models.PurchaseRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *purchaseRequestRepository) ListByCompanyAndStatus(ctx context.Context, companyID uint, status models.PurchaseRequestStatus) ([]models.PurchaseRequest, error) {
	defer observability.TrackQuery("list_by_status", "purchase_requests")()

	var reqs []models.PurchaseRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("company_id = ? AND status = ?", companyID, status).
		Order("created_at ASC, id ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

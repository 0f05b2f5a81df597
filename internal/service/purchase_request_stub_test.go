package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockflow/internal/models"
	"stockflow/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestRepoStub struct {
	repository.PurchaseRequestRepository
	findForUpdateFn func(context.Context, uint, uint) (*models.PurchaseRequest, error)
	transitionFn    func(context.Context, uint, uint, models.PurchaseRequestStatus, models.PurchaseRequestStatus, uint, time.Time) error
}

func (s *requestRepoStub) FindByIDForUpdate(ctx context.Context, companyID, id uint) (*models.PurchaseRequest, error) {
	return s.findForUpdateFn(ctx, companyID, id)
}
func (s *requestRepoStub) TransitionStatus(ctx context.Context, companyID, id uint, from, to models.PurchaseRequestStatus, actorID uint, at time.Time) error {
	return s.transitionFn(ctx, companyID, id, from, to, actorID, at)
}

type itemRepoStub struct {
	repository.InventoryRepository
	createFn func(context.Context, *models.InventoryItem) error
}

func (s *itemRepoStub) Create(ctx context.Context, item *models.InventoryItem) error {
	return s.createFn(ctx, item)
}

type companyRepoStub struct {
	repository.CompanyRepository
	company *models.Company
}

func (s *companyRepoStub) GetByID(context.Context, uint) (*models.Company, error) {
	return s.company, nil
}

type movementRepoStub struct {
	repository.StockMovementRepository
	created int
}

func (s *movementRepoStub) Create(context.Context, *models.StockMovement) error {
	s.created++
	return nil
}

// stubUnitOfWork hands fn the stub stores and returns commitErr when fn succeeds.
type stubUnitOfWork struct {
	stores    repository.Stores
	commitErr error
}

func (u *stubUnitOfWork) Do(_ context.Context, fn func(repository.Stores) error) error {
	if err := fn(u.stores); err != nil {
		return err
	}
	return u.commitErr
}

func requestIn(status models.PurchaseRequestStatus) func(context.Context, uint, uint) (*models.PurchaseRequest, error) {
	return func(_ context.Context, companyID, id uint) (*models.PurchaseRequest, error) {
		return &models.PurchaseRequest{ID: id, CompanyID: companyID, ItemName: "Cable", Quantity: 10, Status: status}, nil
	}
}

var stubAdmin = Actor{UserID: 1, CompanyID: 2, Role: models.UserRoleAdmin}

func TestPurchaseRequestService_LostCompareAndSwap(t *testing.T) {
	t.Parallel()
	events := &recordingPublisher{}
	uow := &stubUnitOfWork{stores: repository.Stores{
		Requests: &requestRepoStub{
			findForUpdateFn: requestIn(models.PurchaseRequestStatusPending),
			transitionFn: func(_ context.Context, _, _ uint, from, to models.PurchaseRequestStatus, _ uint, _ time.Time) error {
				return models.NewInvalidTransitionError(from, to)
			},
		},
	}}
	svc := NewPurchaseRequestService(uow, repository.Stores{}, events)

	_, err := svc.Approve(context.Background(), stubAdmin, 5)
	assert.Equal(t, models.CodeInvalidTransition, models.ErrorCode(err))
	assert.Empty(t, events.types())
}

func TestPurchaseRequestService_CommitFailureIsInternal(t *testing.T) {
	t.Parallel()
	events := &recordingPublisher{}
	uow := &stubUnitOfWork{
		stores: repository.Stores{
			Requests: &requestRepoStub{
				findForUpdateFn: requestIn(models.PurchaseRequestStatusPending),
				transitionFn: func(context.Context, uint, uint, models.PurchaseRequestStatus, models.PurchaseRequestStatus, uint, time.Time) error {
					return nil
				},
			},
		},
		commitErr: errors.New("connection reset"),
	}
	svc := NewPurchaseRequestService(uow, repository.Stores{}, events)

	_, err := svc.Reject(context.Background(), stubAdmin, 5)
	require.Error(t, err)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	assert.Empty(t, events.types())
}

func TestPurchaseRequestService_AssetCodeCollisionAbortsReceipt(t *testing.T) {
	t.Parallel()
	movements := &movementRepoStub{}
	transitioned := false
	uow := &stubUnitOfWork{stores: repository.Stores{
		Companies: &companyRepoStub{company: &models.Company{ID: 2, Domain: "acme"}},
		Items: &itemRepoStub{createFn: func(context.Context, *models.InventoryItem) error {
			return models.NewConflictError("asset code already in use", nil)
		}},
		Requests: &requestRepoStub{
			findForUpdateFn: requestIn(models.PurchaseRequestStatusApproved),
			transitionFn: func(context.Context, uint, uint, models.PurchaseRequestStatus, models.PurchaseRequestStatus, uint, time.Time) error {
				transitioned = true
				return nil
			},
		},
		Movements: movements,
	}}
	svc := NewPurchaseRequestService(uow, repository.Stores{}, nil)

	_, err := svc.Receive(context.Background(), stubAdmin, 5)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	assert.Zero(t, movements.created)
	assert.False(t, transitioned)
}

func TestPurchaseRequestService_ReceiveProvisionsWithDefaults(t *testing.T) {
	t.Parallel()
	var created *models.InventoryItem
	movements := &movementRepoStub{}
	uow := &stubUnitOfWork{stores: repository.Stores{
		Companies: &companyRepoStub{company: &models.Company{ID: 2, Domain: "acme"}},
		Items: &itemRepoStub{createFn: func(_ context.Context, item *models.InventoryItem) error {
			item.ID = 77
			created = item
			return nil
		}},
		Requests: &requestRepoStub{
			findForUpdateFn: requestIn(models.PurchaseRequestStatusApproved),
			transitionFn: func(_ context.Context, _, _ uint, from, to models.PurchaseRequestStatus, _ uint, _ time.Time) error {
				assert.Equal(t, models.PurchaseRequestStatusApproved, from)
				assert.Equal(t, models.PurchaseRequestStatusReceived, to)
				return nil
			},
		},
		Movements: movements,
	}}
	svc := NewPurchaseRequestService(uow, repository.Stores{}, nil)
	svc.assetSuffix = func() string { return "abcdef123456" }

	result, err := svc.Receive(context.Background(), stubAdmin, 5)
	require.NoError(t, err)
	assert.True(t, result.Provisioned)
	require.NotNil(t, created)
	assert.Equal(t, "ACME-ABCDEF12", created.AssetCode)
	assert.Equal(t, 10, created.Quantity)
	assert.Equal(t, uint(2), created.CompanyID)
	assert.Equal(t, 1, movements.created)
	assert.Equal(t, uint(77), result.Item.ID)
}

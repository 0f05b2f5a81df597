package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockflow/internal/models"
	"stockflow/internal/repository"
	"stockflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	companyID uint
	eventType string
	payload   PurchaseRequestEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishCompanyEvent(_ context.Context, companyID uint, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := payload.(PurchaseRequestEvent)
	p.events = append(p.events, publishedEvent{companyID: companyID, eventType: eventType, payload: ev})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

// failingMovementsUoW runs the real transaction but fails the movement insert,
// after the stock update has already been issued.
type failingMovementsUoW struct {
	inner repository.UnitOfWork
}

type failingMovements struct {
	repository.StockMovementRepository
}

func (failingMovements) Create(context.Context, *models.StockMovement) error {
	return errors.New("disk full")
}

func (u failingMovementsUoW) Do(ctx context.Context, fn func(repository.Stores) error) error {
	return u.inner.Do(ctx, func(st repository.Stores) error {
		st.Movements = failingMovements{st.Movements}
		return fn(st)
	})
}

type serviceFixture struct {
	db     *gorm.DB
	svc    *PurchaseRequestService
	events *recordingPublisher
	acme   testutil.Tenant
	globex testutil.Tenant
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	events := &recordingPublisher{}
	svc := NewPurchaseRequestService(repository.NewUnitOfWork(db), repository.NewStores(db), events)
	svc.assetSuffix = func() string { return "1a2b3c4d-0000-0000-0000-000000000000" }

	return &serviceFixture{
		db:     db,
		svc:    svc,
		events: events,
		acme:   testutil.SeedTenant(t, db, "acme"),
		globex: testutil.SeedTenant(t, db, "globex"),
	}
}

func adminOf(tn testutil.Tenant) Actor {
	return Actor{UserID: tn.Admin.ID, CompanyID: tn.Company.ID, Role: models.UserRoleAdmin}
}

func (f *serviceFixture) createNew(t *testing.T, tn testutil.Tenant, name string, qty int) *models.PurchaseRequest {
	t.Helper()
	req, err := f.svc.Create(context.Background(), CreatePurchaseRequestInput{
		CompanyID:   tn.Company.ID,
		RequesterID: tn.Member.ID,
		ItemName:    name,
		Quantity:    qty,
	})
	require.NoError(t, err)
	return req
}

func (f *serviceFixture) items(t *testing.T, companyID uint) []models.InventoryItem {
	t.Helper()
	var items []models.InventoryItem
	require.NoError(t, f.db.Where("company_id = ?", companyID).Order("id").Find(&items).Error)
	return items
}

func TestPurchaseRequestService_CreateValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	missing := uint(9999)
	long := make([]byte, maxItemNameLen+1)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name         string
		input        CreatePurchaseRequestInput
		expectedCode string
	}{
		{
			name:         "blank name for new item",
			input:        CreatePurchaseRequestInput{ItemName: "   ", Quantity: 1},
			expectedCode: models.CodeValidation,
		},
		{
			name:         "missing name for new item",
			input:        CreatePurchaseRequestInput{Quantity: 1},
			expectedCode: models.CodeValidation,
		},
		{
			name:         "zero quantity",
			input:        CreatePurchaseRequestInput{ItemName: "Cable", Quantity: 0},
			expectedCode: models.CodeValidation,
		},
		{
			name:         "negative quantity",
			input:        CreatePurchaseRequestInput{ItemName: "Cable", Quantity: -4},
			expectedCode: models.CodeValidation,
		},
		{
			name:         "name too long",
			input:        CreatePurchaseRequestInput{ItemName: string(long), Quantity: 1},
			expectedCode: models.CodeValidation,
		},
		{
			name:         "unknown item",
			input:        CreatePurchaseRequestInput{ItemID: &missing, Quantity: 1},
			expectedCode: models.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			in.CompanyID = f.acme.Company.ID
			in.RequesterID = f.acme.Member.ID
			req, err := f.svc.Create(ctx, in)
			require.Error(t, err)
			assert.Nil(t, req)
			assert.Equal(t, tt.expectedCode, models.ErrorCode(err))
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.PurchaseRequest{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.events.types())
}

func TestPurchaseRequestService_CreateRequiresAuthentication(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.Create(context.Background(), CreatePurchaseRequestInput{ItemName: "Cable", Quantity: 1})
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestPurchaseRequestService_CreateSnapshotsExistingItemName(t *testing.T) {
	f := newServiceFixture(t)
	item := testutil.SeedItem(t, f.db, f.acme.Company.ID, "Toner", 2)

	req, err := f.svc.Create(context.Background(), CreatePurchaseRequestInput{
		CompanyID:     f.acme.Company.ID,
		RequesterID:   f.acme.Member.ID,
		ItemID:        &item.ID,
		ItemName:      "ignored",
		Quantity:      4,
		Justification: "  printer is empty ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Toner", req.ItemName)
	assert.Equal(t, "printer is empty", req.Justification)
	require.NotNil(t, req.ItemID)
	assert.Equal(t, item.ID, *req.ItemID)
	assert.Equal(t, models.PurchaseRequestStatusPending, req.Status)

	// Creation never touches stock.
	reloaded := f.items(t, f.acme.Company.ID)
	require.Len(t, reloaded, 1)
	assert.Equal(t, 2, reloaded[0].Quantity)
}

func TestPurchaseRequestService_CreateRejectsOtherTenantsItem(t *testing.T) {
	f := newServiceFixture(t)
	item := testutil.SeedItem(t, f.db, f.globex.Company.ID, "Toner", 2)

	_, err := f.svc.Create(context.Background(), CreatePurchaseRequestInput{
		CompanyID:   f.acme.Company.ID,
		RequesterID: f.acme.Member.ID,
		ItemID:      &item.ID,
		Quantity:    1,
	})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestPurchaseRequestService_NewItemLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := adminOf(f.acme)

	req := f.createNew(t, f.acme, "Cable", 10)
	assert.True(t, req.ForNewItem())

	queue, err := f.svc.ListQueue(ctx, f.acme.Company.ID, models.PurchaseRequestStatusPending)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "Cable", queue[0].ItemName)
	assert.Equal(t, f.acme.Member.Email, queue[0].RequesterEmail)

	approved, err := f.svc.Approve(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseRequestStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedByUserID)
	assert.Equal(t, f.acme.Admin.ID, *approved.ReviewedByUserID)

	result, err := f.svc.Receive(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.True(t, result.Provisioned)
	assert.Equal(t, models.PurchaseRequestStatusReceived, result.Request.Status)

	items := f.items(t, f.acme.Company.ID)
	require.Len(t, items, 1)
	assert.Equal(t, "Cable", items[0].Name)
	assert.Equal(t, 10, items[0].Quantity)
	assert.Equal(t, models.DefaultItemLocation, items[0].Location)
	assert.Equal(t, models.DefaultItemCategory, items[0].Category)
	assert.Equal(t, models.DefaultItemMinStockLevel, items[0].MinStockLevel)
	assert.Equal(t, "ACME-1A2B3C4D", items[0].AssetCode)

	movements, err := f.svc.ListMovements(ctx, f.acme.Company.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 10, movements[0].QuantityDelta)
	assert.Equal(t, items[0].ID, movements[0].ItemID)
	require.NotNil(t, movements[0].PurchaseRequestID)
	assert.Equal(t, req.ID, *movements[0].PurchaseRequestID)

	mine, err := f.svc.ListMine(ctx, f.acme.Member.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.PurchaseRequestStatusReceived, mine[0].Status)

	assert.Equal(t, []string{
		EventPurchaseRequestCreated,
		EventPurchaseRequestApproved,
		EventPurchaseRequestReceived,
	}, f.events.types())
	assert.Equal(t, items[0].ID, f.events.events[2].payload.StockItemID)
}

func TestPurchaseRequestService_ReceiveIncrementsExistingItem(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := adminOf(f.acme)
	item := testutil.SeedItem(t, f.db, f.acme.Company.ID, "Toner", 3)

	req, err := f.svc.Create(ctx, CreatePurchaseRequestInput{
		CompanyID:   f.acme.Company.ID,
		RequesterID: f.acme.Member.ID,
		ItemID:      &item.ID,
		Quantity:    7,
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, admin, req.ID)
	require.NoError(t, err)

	result, err := f.svc.Receive(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.False(t, result.Provisioned)
	assert.Equal(t, item.ID, result.Item.ID)
	assert.Equal(t, 10, result.Item.Quantity)

	items := f.items(t, f.acme.Company.ID)
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)

	// A second receipt of the same request is refused and leaves stock alone.
	_, err = f.svc.Receive(ctx, admin, req.ID)
	assert.Equal(t, models.CodeInvalidTransition, models.ErrorCode(err))
	assert.Equal(t, 10, f.items(t, f.acme.Company.ID)[0].Quantity)
}

func TestPurchaseRequestService_RejectedCannotBeReceived(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := adminOf(f.acme)
	req := f.createNew(t, f.acme, "Chair", 2)

	rejected, err := f.svc.Reject(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseRequestStatusRejected, rejected.Status)

	_, err = f.svc.Receive(ctx, admin, req.ID)
	assert.Equal(t, models.CodeInvalidTransition, models.ErrorCode(err))
	_, err = f.svc.Approve(ctx, admin, req.ID)
	assert.Equal(t, models.CodeInvalidTransition, models.ErrorCode(err))
	assert.Empty(t, f.items(t, f.acme.Company.ID))
}

func TestPurchaseRequestService_ReceiveRequiresApproval(t *testing.T) {
	f := newServiceFixture(t)
	req := f.createNew(t, f.acme, "Desk", 1)

	_, err := f.svc.Receive(context.Background(), adminOf(f.acme), req.ID)
	assert.Equal(t, models.CodeInvalidTransition, models.ErrorCode(err))
	assert.Empty(t, f.items(t, f.acme.Company.ID))
}

func TestPurchaseRequestService_TenantIsolation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	req := f.createNew(t, f.acme, "Cable", 10)
	intruder := adminOf(f.globex)

	_, err := f.svc.Approve(ctx, intruder, req.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	_, err = f.svc.Reject(ctx, intruder, req.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	_, err = f.svc.Approve(ctx, adminOf(f.acme), req.ID)
	require.NoError(t, err)
	_, err = f.svc.Receive(ctx, intruder, req.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	queue, err := f.svc.ListQueue(ctx, f.globex.Company.ID, models.PurchaseRequestStatusApproved)
	require.NoError(t, err)
	assert.Empty(t, queue)
	assert.Empty(t, f.items(t, f.globex.Company.ID))
}

func TestPurchaseRequestService_RequiresAdmin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	req := f.createNew(t, f.acme, "Cable", 10)

	member := Actor{UserID: f.acme.Member.ID, CompanyID: f.acme.Company.ID, Role: models.UserRoleUser}
	_, err := f.svc.Approve(ctx, member, req.ID)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	_, err = f.svc.Reject(ctx, member, req.ID)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	_, err = f.svc.Receive(ctx, member, req.ID)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))

	_, err = f.svc.Approve(ctx, Actor{}, req.ID)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestPurchaseRequestService_ConcurrentReview(t *testing.T) {
	f := newServiceFixture(t)
	admin := adminOf(f.acme)
	req := f.createNew(t, f.acme, "Cable", 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i, review := range []func(context.Context, Actor, uint) (*models.PurchaseRequest, error){
		f.svc.Approve,
		f.svc.Reject,
	} {
		i, review := i, review
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = review(context.Background(), admin, req.ID)
		}()
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, models.CodeInvalidTransition, models.ErrorCode(err))
	}
	assert.Equal(t, 1, succeeded)

	var stored models.PurchaseRequest
	require.NoError(t, f.db.First(&stored, req.ID).Error)
	assert.NotEqual(t, models.PurchaseRequestStatusPending, stored.Status)
}

func TestPurchaseRequestService_ReceiveRollsBackOnFailure(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	admin := adminOf(f.acme)
	item := testutil.SeedItem(t, f.db, f.acme.Company.ID, "Toner", 3)

	existing, err := f.svc.Create(ctx, CreatePurchaseRequestInput{
		CompanyID: f.acme.Company.ID, RequesterID: f.acme.Member.ID, ItemID: &item.ID, Quantity: 7,
	})
	require.NoError(t, err)
	fresh := f.createNew(t, f.acme, "Cable", 10)
	for _, id := range []uint{existing.ID, fresh.ID} {
		_, err := f.svc.Approve(ctx, admin, id)
		require.NoError(t, err)
	}

	broken := NewPurchaseRequestService(failingMovementsUoW{repository.NewUnitOfWork(f.db)}, repository.NewStores(f.db), f.events)
	for _, id := range []uint{existing.ID, fresh.ID} {
		_, err := broken.Receive(ctx, admin, id)
		assert.Equal(t, models.CodeInternal, models.ErrorCode(err))

		var stored models.PurchaseRequest
		require.NoError(t, f.db.First(&stored, id).Error)
		assert.Equal(t, models.PurchaseRequestStatusApproved, stored.Status)
		assert.Nil(t, stored.ReceivedAt)
	}

	items := f.items(t, f.acme.Company.ID)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	var movements int64
	require.NoError(t, f.db.Model(&models.StockMovement{}).Count(&movements).Error)
	assert.Zero(t, movements)
}

func TestPurchaseRequestService_PublishFailureDoesNotFailTransition(t *testing.T) {
	f := newServiceFixture(t)
	f.events.err = errors.New("redis down")
	ctx := context.Background()

	req := f.createNew(t, f.acme, "Cable", 10)
	approved, err := f.svc.Approve(ctx, adminOf(f.acme), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseRequestStatusApproved, approved.Status)
	assert.Len(t, f.events.types(), 2)
}

func TestPurchaseRequestService_ReviewStampsClock(t *testing.T) {
	f := newServiceFixture(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	req := f.createNew(t, f.acme, "Cable", 10)
	approved, err := f.svc.Approve(context.Background(), adminOf(f.acme), req.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.ReviewedAt)
	assert.True(t, fixed.Equal(*approved.ReviewedAt))
}

func TestPurchaseRequestService_ListQueueRejectsTerminalStatus(t *testing.T) {
	t.Parallel()
	svc := NewPurchaseRequestService(nil, repository.Stores{}, nil)
	for _, status := range []models.PurchaseRequestStatus{
		models.PurchaseRequestStatusRejected,
		models.PurchaseRequestStatusReceived,
		"BOGUS",
	} {
		_, err := svc.ListQueue(context.Background(), 1, status)
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err), status)
	}
}

func TestPurchaseRequestService_ListMineRequiresRequester(t *testing.T) {
	t.Parallel()
	svc := NewPurchaseRequestService(nil, repository.Stores{}, nil)
	_, err := svc.ListMine(context.Background(), 0)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

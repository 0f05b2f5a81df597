package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"stockflow/internal/middleware"
	"stockflow/internal/models"
	"stockflow/internal/observability"
	"stockflow/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxItemNameLen      = 200
	maxJustificationLen = 2000
)

// Actor is the authenticated identity performing a workflow transition within its company.
type Actor struct {
	UserID    uint
	CompanyID uint
	Role      models.UserRole
}

type PurchaseRequestService struct {
	uow         repository.UnitOfWork
	reads       repository.Stores
	events      EventPublisher
	now         func() time.Time
	assetSuffix func() string
}

// CreatePurchaseRequestInput is a new request. ItemID selects an existing item of the company;
// when it is nil, ItemName names a new item to be provisioned on receipt.
type CreatePurchaseRequestInput struct {
	CompanyID     uint
	RequesterID   uint
	ItemID        *uint
	ItemName      string
	Quantity      int
	Justification string
}

// ReceiptResult describes the stock change made by Receive.
type ReceiptResult struct {
	Request     *models.PurchaseRequest
	Item        *models.InventoryItem
	Provisioned bool
}

// NewPurchaseRequestService wires the workflow. reads serves the non-transactional list paths;
// events may be nil.
func NewPurchaseRequestService(uow repository.UnitOfWork, reads repository.Stores, events EventPublisher) *PurchaseRequestService {
	if events == nil {
		events = noopPublisher{}
	}
	return &PurchaseRequestService{
		uow:         uow,
		reads:       reads,
		events:      events,
		now:         time.Now,
		assetSuffix: randomAssetSuffix,
	}
}

// Create validates and stores a PENDING request. It has no inventory side effect.
func (s *PurchaseRequestService) Create(ctx context.Context, in CreatePurchaseRequestInput) (_ *models.PurchaseRequest, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PurchaseRequestService", "create",
		attribute.Int("company.id", int(in.CompanyID)))
	defer func() { observability.EndSpan(span, err) }()
	defer func() { observability.RecordTransition("create", err) }()

	if in.CompanyID == 0 || in.RequesterID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if in.Quantity <= 0 {
		return nil, models.NewValidationError("Quantity must be greater than zero")
	}
	justification := strings.TrimSpace(in.Justification)
	if len(justification) > maxJustificationLen {
		return nil, models.NewValidationError("Justification too long (max 2000 characters)")
	}

	requesterID := in.RequesterID
	req := &models.PurchaseRequest{
		CompanyID:     in.CompanyID,
		Quantity:      in.Quantity,
		Justification: justification,
		RequesterID:   &requesterID,
		Status:        models.PurchaseRequestStatusPending,
	}

	err = s.uow.Do(ctx, func(st repository.Stores) error {
		if in.ItemID != nil {
			item, err := st.Items.FindByID(ctx, in.CompanyID, *in.ItemID)
			if err != nil {
				return err
			}
			itemID := item.ID
			req.ItemID = &itemID
			req.ItemName = item.Name
		} else {
			name := strings.TrimSpace(in.ItemName)
			if name == "" {
				return models.NewValidationError("Item name is required for new items")
			}
			if len(name) > maxItemNameLen {
				return models.NewValidationError("Item name too long (max 200 characters)")
			}
			req.ItemName = name
		}
		return st.Requests.Create(ctx, req)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	middleware.Logger.InfoContext(ctx, "purchase request created",
		slog.Uint64("purchase_request_id", uint64(req.ID)),
		slog.Bool("new_item", req.ForNewItem()),
		slog.Int("quantity", req.Quantity),
	)
	s.publish(ctx, req.CompanyID, EventPurchaseRequestCreated, eventFor(req, in.RequesterID))
	return req, nil
}

// Approve moves a PENDING request of the actor's company to APPROVED.
func (s *PurchaseRequestService) Approve(ctx context.Context, actor Actor, id uint) (*models.PurchaseRequest, error) {
	return s.review(ctx, actor, id, "approve", models.PurchaseRequestStatusApproved, EventPurchaseRequestApproved)
}

// Reject moves a PENDING request of the actor's company to REJECTED.
func (s *PurchaseRequestService) Reject(ctx context.Context, actor Actor, id uint) (*models.PurchaseRequest, error) {
	return s.review(ctx, actor, id, "reject", models.PurchaseRequestStatusRejected, EventPurchaseRequestRejected)
}

func (s *PurchaseRequestService) review(ctx context.Context, actor Actor, id uint, action string, target models.PurchaseRequestStatus, eventType string) (_ *models.PurchaseRequest, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PurchaseRequestService", action,
		attribute.Int("company.id", int(actor.CompanyID)),
		attribute.Int("purchase_request.id", int(id)))
	defer func() { observability.EndSpan(span, err) }()
	defer func() { observability.RecordTransition(action, err) }()

	if err := authorize(actor); err != nil {
		return nil, err
	}

	var req *models.PurchaseRequest
	err = s.uow.Do(ctx, func(st repository.Stores) error {
		var err error
		req, err = st.Requests.FindByIDForUpdate(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}
		if !models.CanTransition(req.Status, target) {
			return models.NewInvalidTransitionError(req.Status, target)
		}

		at := s.now()
		if err := st.Requests.TransitionStatus(ctx, actor.CompanyID, id, req.Status, target, actor.UserID, at); err != nil {
			return err
		}
		req.Status = target
		reviewer := actor.UserID
		req.ReviewedByUserID = &reviewer
		req.ReviewedAt = &at
		return nil
	})
	if err != nil {
		err = asAppError(err)
		s.logFailure(ctx, action, id, err)
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "purchase request reviewed",
		slog.Uint64("purchase_request_id", uint64(id)),
		slog.String("status", string(target)),
	)
	s.publish(ctx, actor.CompanyID, eventType, eventFor(req, actor.UserID))
	return req, nil
}

// Receive completes an APPROVED request: it adds the quantity to the referenced item,
// or provisions a new item, records a stock movement and marks the request RECEIVED.
// All of it commits or rolls back together.
func (s *PurchaseRequestService) Receive(ctx context.Context, actor Actor, id uint) (_ *ReceiptResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PurchaseRequestService", "receive",
		attribute.Int("company.id", int(actor.CompanyID)),
		attribute.Int("purchase_request.id", int(id)))
	defer func() { observability.EndSpan(span, err) }()
	defer func() { observability.RecordTransition("receive", err) }()

	if err := authorize(actor); err != nil {
		return nil, err
	}

	result := &ReceiptResult{}
	err = s.uow.Do(ctx, func(st repository.Stores) error {
		req, err := st.Requests.FindByIDForUpdate(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}
		if !models.CanTransition(req.Status, models.PurchaseRequestStatusReceived) {
			return models.NewInvalidTransitionError(req.Status, models.PurchaseRequestStatusReceived)
		}

		var item *models.InventoryItem
		if req.ForNewItem() {
			company, err := st.Companies.GetByID(ctx, actor.CompanyID)
			if err != nil {
				return err
			}
			item = NewReceivedItem(company, req.ItemName, req.Quantity, s.assetSuffix())
			if err := st.Items.Create(ctx, item); err != nil {
				return err
			}
			result.Provisioned = true
		} else {
			if err := st.Items.IncrementQuantity(ctx, actor.CompanyID, *req.ItemID, req.Quantity); err != nil {
				return err
			}
			if item, err = st.Items.FindByID(ctx, actor.CompanyID, *req.ItemID); err != nil {
				return err
			}
		}

		requestID := req.ID
		receiver := actor.UserID
		if err := st.Movements.Create(ctx, &models.StockMovement{
			CompanyID:         actor.CompanyID,
			ItemID:            item.ID,
			PurchaseRequestID: &requestID,
			UserID:            &receiver,
			Kind:              models.StockMovementPurchaseReceipt,
			QuantityDelta:     req.Quantity,
		}); err != nil {
			return err
		}

		at := s.now()
		if err := st.Requests.TransitionStatus(ctx, actor.CompanyID, id, models.PurchaseRequestStatusApproved, models.PurchaseRequestStatusReceived, actor.UserID, at); err != nil {
			return err
		}
		req.Status = models.PurchaseRequestStatusReceived
		req.ReceivedByUserID = &receiver
		req.ReceivedAt = &at

		result.Request = req
		result.Item = item
		return nil
	})
	if err != nil {
		err = asAppError(err)
		s.logFailure(ctx, "receive", id, err)
		return nil, err
	}

	observability.StockReceivedUnits.Add(float64(result.Request.Quantity))
	if result.Provisioned {
		observability.ItemsProvisioned.Inc()
	}
	middleware.Logger.InfoContext(ctx, "purchase request received",
		slog.Uint64("purchase_request_id", uint64(id)),
		slog.Uint64("item_id", uint64(result.Item.ID)),
		slog.Bool("provisioned", result.Provisioned),
		slog.Int("quantity", result.Request.Quantity),
	)

	payload := eventFor(result.Request, actor.UserID)
	payload.StockItemID = result.Item.ID
	s.publish(ctx, actor.CompanyID, EventPurchaseRequestReceived, payload)
	return result, nil
}

// ListMine returns the requester's own requests, newest first.
func (s *PurchaseRequestService) ListMine(ctx context.Context, requesterID uint) ([]MyRequestView, error) {
	if requesterID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	reqs, err := s.reads.Requests.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return ToMyRequestViews(reqs), nil
}

// ListQueue returns the company's requests in status, which must be PENDING or APPROVED.
func (s *PurchaseRequestService) ListQueue(ctx context.Context, companyID uint, status models.PurchaseRequestStatus) ([]QueueView, error) {
	if !status.Valid() || status.Terminal() {
		return nil, models.NewValidationError("Only PENDING and APPROVED queues can be listed")
	}
	reqs, err := s.reads.Requests.ListByCompanyAndStatus(ctx, companyID, status)
	if err != nil {
		return nil, err
	}
	return ToQueueViews(reqs), nil
}

// ListMovements returns the company's stock history, newest first.
func (s *PurchaseRequestService) ListMovements(ctx context.Context, companyID uint, limit, offset int) ([]models.StockMovement, error) {
	return s.reads.Movements.ListByCompany(ctx, companyID, limit, offset)
}

// ListItems returns the company's inventory items, optionally filtered by name or asset code.
func (s *PurchaseRequestService) ListItems(ctx context.Context, companyID uint, search string, limit, offset int) ([]InventoryItemView, error) {
	items, err := s.reads.Items.List(ctx, companyID, search, limit, offset)
	if err != nil {
		return nil, err
	}
	return ToInventoryItemViews(items), nil
}

func authorize(actor Actor) error {
	if actor.UserID == 0 || actor.CompanyID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	if actor.Role != models.UserRoleAdmin {
		return models.NewForbiddenError("Admin role required")
	}
	return nil
}

// asAppError wraps errors that escaped the repositories, such as a failed commit.
func asAppError(err error) error {
	if models.ErrorCode(err) == "" {
		return models.NewInternalError(err)
	}
	return err
}

func eventFor(req *models.PurchaseRequest, actorID uint) PurchaseRequestEvent {
	return PurchaseRequestEvent{
		ID:       req.ID,
		ItemID:   req.ItemID,
		ItemName: req.ItemName,
		Quantity: req.Quantity,
		Status:   req.Status,
		ActorID:  actorID,
	}
}

// publish runs after commit; failures are logged and never undo the transition.
func (s *PurchaseRequestService) publish(ctx context.Context, companyID uint, eventType string, payload PurchaseRequestEvent) {
	if err := s.events.PublishCompanyEvent(ctx, companyID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish purchase request event",
			slog.String("event", eventType),
			slog.Uint64("purchase_request_id", uint64(payload.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *PurchaseRequestService) logFailure(ctx context.Context, action string, id uint, err error) {
	level := slog.LevelWarn
	if models.HasCode(err, models.CodeInternal) {
		level = slog.LevelError
	}
	middleware.Logger.Log(ctx, level, "purchase request transition failed",
		slog.String("action", action),
		slog.Uint64("purchase_request_id", uint64(id)),
		slog.String("error", err.Error()),
	)
}

package service

import (
	"context"

	"stockflow/internal/models"
)

// Workflow event types published to a company's members after commit.
const (
	EventPurchaseRequestCreated  = "purchase_request_created"
	EventPurchaseRequestApproved = "purchase_request_approved"
	EventPurchaseRequestRejected = "purchase_request_rejected"
	EventPurchaseRequestReceived = "purchase_request_received"
)

// EventPublisher delivers workflow events to the members of a company.
type EventPublisher interface {
	PublishCompanyEvent(ctx context.Context, companyID uint, eventType string, payload any) error
}

// PurchaseRequestEvent is the payload of every purchase request event.
type PurchaseRequestEvent struct {
	ID       uint                         `json:"id"`
	ItemID   *uint                        `json:"itemId,omitempty"`
	ItemName string                       `json:"itemName"`
	Quantity int                          `json:"quantity"`
	Status   models.PurchaseRequestStatus `json:"status"`
	ActorID  uint                         `json:"actorId"`
	// StockItemID is the inventory item that received stock (RECEIVED only).
	StockItemID uint `json:"stockItemId,omitempty"`
}

type noopPublisher struct{}

func (noopPublisher) PublishCompanyEvent(context.Context, uint, string, any) error { return nil }

package service

import (
	"time"

	"stockflow/internal/models"
)

// UnknownRequester is shown in the review queue when the requester no longer exists.
const UnknownRequester = "unknown requester"

// MyRequestView is a purchase request as its requester sees it.
type MyRequestView struct {
	ID        uint                         `json:"id"`
	ItemName  string                       `json:"itemName"`
	Quantity  int                          `json:"quantity"`
	CreatedAt time.Time                    `json:"createdAt"`
	Status    models.PurchaseRequestStatus `json:"status"`
}

// QueueView is a purchase request as an admin sees it in the approval or receipt queue.
type QueueView struct {
	ID             uint      `json:"id"`
	ItemName       string    `json:"itemName"`
	Quantity       int       `json:"quantity"`
	Justification  string    `json:"justification"`
	RequesterEmail string    `json:"requesterEmail"`
	CreatedAt      time.Time `json:"createdAt"`
}

func ToMyRequestView(r models.PurchaseRequest) MyRequestView {
	return MyRequestView{
		ID:        r.ID,
		ItemName:  r.ItemName,
		Quantity:  r.Quantity,
		CreatedAt: r.CreatedAt,
		Status:    r.Status,
	}
}

func ToMyRequestViews(reqs []models.PurchaseRequest) []MyRequestView {
	out := make([]MyRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, ToMyRequestView(r))
	}
	return out
}

// ToQueueView expects r.Requester to be loaded; a nil requester renders as UnknownRequester.
func ToQueueView(r models.PurchaseRequest) QueueView {
	email := UnknownRequester
	if r.Requester != nil && r.Requester.Email != "" {
		email = r.Requester.Email
	}
	return QueueView{
		ID:             r.ID,
		ItemName:       r.ItemName,
		Quantity:       r.Quantity,
		Justification:  r.Justification,
		RequesterEmail: email,
		CreatedAt:      r.CreatedAt,
	}
}

func ToQueueViews(reqs []models.PurchaseRequest) []QueueView {
	out := make([]QueueView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, ToQueueView(r))
	}
	return out
}

// InventoryItemView is an inventory item with its low-stock flag.
type InventoryItemView struct {
	models.InventoryItem
	LowStock bool `json:"low_stock"`
}

func ToInventoryItemViews(items []models.InventoryItem) []InventoryItemView {
	out := make([]InventoryItemView, 0, len(items))
	for _, item := range items {
		out = append(out, InventoryItemView{InventoryItem: item, LowStock: item.BelowMinimum()})
	}
	return out
}

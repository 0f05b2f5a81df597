package models

import "time"

// PurchaseRequestStatus defines lifecycle states for purchase requests.
type PurchaseRequestStatus string

const (
	// PurchaseRequestStatusPending indicates the request is awaiting review.
	PurchaseRequestStatusPending PurchaseRequestStatus = "PENDING"
	// PurchaseRequestStatusApproved indicates the request was accepted and awaits delivery.
	PurchaseRequestStatusApproved PurchaseRequestStatus = "APPROVED"
	// PurchaseRequestStatusRejected indicates the request was denied.
	PurchaseRequestStatusRejected PurchaseRequestStatus = "REJECTED"
	// PurchaseRequestStatusReceived indicates the goods arrived and stock was updated.
	PurchaseRequestStatusReceived PurchaseRequestStatus = "RECEIVED"
)

// purchaseRequestTransitions lists, per target status, the only status it may be entered from.
var purchaseRequestTransitions = map[PurchaseRequestStatus]PurchaseRequestStatus{
	PurchaseRequestStatusApproved: PurchaseRequestStatusPending,
	PurchaseRequestStatusRejected: PurchaseRequestStatusPending,
	PurchaseRequestStatusReceived: PurchaseRequestStatusApproved,
}

// Valid reports whether s is one of the known statuses.
func (s PurchaseRequestStatus) Valid() bool {
	switch s {
	case PurchaseRequestStatusPending, PurchaseRequestStatusApproved,
		PurchaseRequestStatusRejected, PurchaseRequestStatusReceived:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s PurchaseRequestStatus) Terminal() bool {
	return s == PurchaseRequestStatusRejected || s == PurchaseRequestStatusReceived
}

// RequiredSourceStatus returns the status a request must be in to move to target.
// ok is false when target can never be entered by a transition (PENDING, unknown).
func RequiredSourceStatus(target PurchaseRequestStatus) (PurchaseRequestStatus, bool) {
	from, ok := purchaseRequestTransitions[target]
	return from, ok
}

// CanTransition reports whether from -> to is an allowed step.
func CanTransition(from, to PurchaseRequestStatus) bool {
	if !from.Valid() || from.Terminal() {
		return false
	}
	required, ok := RequiredSourceStatus(to)
	return ok && required == from
}

// PurchaseRequest is a company member's request to buy stock.
//
// ItemID is set when the request targets an existing inventory item; ItemName always
// holds the display name (a snapshot of the item name, or the free-text name of a new item).
type PurchaseRequest struct {
	ID               uint                  `gorm:"primaryKey" json:"id"`
	CompanyID        uint                  `gorm:"not null;index:idx_purchase_requests_company_status" json:"company_id"`
	ItemID           *uint                 `gorm:"index" json:"item_id"`
	Item             *InventoryItem        `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	ItemName         string                `gorm:"size:200;not null" json:"item_name"`
	Quantity         int                   `gorm:"not null" json:"quantity"`
	Justification    string                `gorm:"type:text" json:"justification"`
	RequesterID      *uint                 `gorm:"index" json:"requester_id"`
	Requester        *User                 `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Status           PurchaseRequestStatus `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_purchase_requests_company_status" json:"status"`
	ReviewedByUserID *uint                 `json:"reviewed_by_user_id"`
	ReviewedAt       *time.Time            `json:"reviewed_at"`
	ReceivedByUserID *uint                 `json:"received_by_user_id"`
	ReceivedAt       *time.Time            `json:"received_at"`
	CreatedAt        time.Time             `gorm:"<-:create" json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// ForNewItem reports whether receiving the request provisions a new inventory item.
func (r *PurchaseRequest) ForNewItem() bool {
	return r.ItemID == nil
}

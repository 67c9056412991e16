package entity

import "time"

const (
	EventShopSubmitted   = "shop.submitted"
	EventShopApproved    = "shop.approved"
	EventShopRejected    = "shop.rejected"
	EventShopResubmitted = "shop.resubmitted"
	EventShopBanned      = "shop.banned"

	EventAccSubmitted   = "acc.submitted"
	EventAccApproved    = "acc.approved"
	EventAccRejected    = "acc.rejected"
	EventAccResubmitted = "acc.resubmitted"
	EventAccSold        = "acc.sold"
	EventAccDeleted     = "acc.deleted"
)

// DomainEvent is emitted after a state change has been committed.
type DomainEvent struct {
	Type     string    `json:"type"`
	EntityID string    `json:"entity_id"`
	ShopID   string    `json:"shop_id,omitempty"`
	Status   string    `json:"status"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

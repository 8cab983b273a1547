// Package events defines the order events the service emits and publishes
// them on NATS.
package events

import "time"

// Event subjects
const (
	SubjectOrderNew           = "orders.new"
	SubjectOrderStatusUpdated = "orders.status.updated"
)

// NewOrderEvent is one order the poller saw for the first time. Detail
// fields are empty when the operator disabled order details.
type NewOrderEvent struct {
	OwnerID     string    `json:"owner_id"`
	ShopID      string    `json:"shop_id"`
	ShopName    string    `json:"shop_name"`
	OrderID     int64     `json:"order_id"`
	Number      string    `json:"number"`
	Status      string    `json:"status,omitempty"`
	Total       string    `json:"total,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Customer    string    `json:"customer,omitempty"`
	DateCreated time.Time `json:"date_created,omitempty"`
}

// NewOrdersBatch holds every new order found in one polling cycle. Sound is
// set at most once per batch.
type NewOrdersBatch struct {
	Events     []NewOrderEvent `json:"events"`
	Sound      bool            `json:"sound"`
	DetectedAt time.Time       `json:"detected_at"`
}

// ForOwner returns the part of the batch that belongs to one operator.
func (b NewOrdersBatch) ForOwner(ownerID string) NewOrdersBatch {
	out := NewOrdersBatch{Sound: b.Sound, DetectedAt: b.DetectedAt}
	for _, e := range b.Events {
		if e.OwnerID == ownerID {
			out.Events = append(out.Events, e)
		}
	}
	return out
}

// OrderStatusUpdatedEvent is emitted after an operator changed an order's
// status.
type OrderStatusUpdatedEvent struct {
	OwnerID   string    `json:"owner_id"`
	ShopID    string    `json:"shop_id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

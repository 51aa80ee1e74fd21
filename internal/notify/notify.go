// Package notify delivers realtime kitchen events to external consumers.
// Delivery is fire-and-forget: the scheduling engine never fails because a
// notification could not be published.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types carried in the message headers.
const (
	EventOrderStatusChanged = "order.status_changed"
	EventCapacityUpdated    = "kitchen.capacity_updated"
	EventLateOrders         = "orders.late"
	EventTicketCreated      = "kitchen.ticket.created"
)

// OrderSnapshot is the denormalized order view embedded in events.
type OrderSnapshot struct {
	ID                  uuid.UUID  `json:"id"`
	Number              string     `json:"number"`
	Status              string     `json:"status"`
	Priority            string     `json:"priority"`
	RequestedDeliveryAt *time.Time `json:"requested_delivery_at,omitempty"`
	PreparationStartAt  *time.Time `json:"preparation_start_at,omitempty"`
	ExpectedFinishAt    *time.Time `json:"expected_finish_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// OrderStatusChangedEvent announces a state transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID     `json:"order_id"`
	Number         string        `json:"number"`
	PreviousStatus string        `json:"previous_status"`
	NewStatus      string        `json:"new_status"`
	Order          OrderSnapshot `json:"order"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

// CapacityUpdatedEvent announces a fresh utilization snapshot.
type CapacityUpdatedEvent struct {
	MaxCapacity    int       `json:"max_capacity"`
	CurrentLoad    int       `json:"current_load"`
	FreeSlots      int       `json:"free_slots"`
	UtilizationPct int       `json:"utilization_pct"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// LateOrderNotice is one entry of a late-orders batch.
type LateOrderNotice struct {
	OrderID     uuid.UUID `json:"order_id"`
	Number      string    `json:"number"`
	LateMinutes int       `json:"late_minutes"`
}

// LateOrdersEvent announces the current set of overdue preparations.
type LateOrdersEvent struct {
	Orders     []LateOrderNotice `json:"orders"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// TicketItem is a line item rendered on a kitchen ticket event.
type TicketItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// TicketCreatedEvent announces a new kitchen ticket.
type TicketCreatedEvent struct {
	TicketID   uuid.UUID    `json:"ticket_id"`
	OrderID    uuid.UUID    `json:"order_id"`
	Number     string       `json:"number"`
	Items      []TicketItem `json:"items"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Notifier publishes kitchen events. Implementations must treat delivery
// as best-effort; returned errors exist only so callers can log them.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, e OrderStatusChangedEvent) error
	CapacityUpdated(ctx context.Context, e CapacityUpdatedEvent) error
	LateOrders(ctx context.Context, e LateOrdersEvent) error
	TicketCreated(ctx context.Context, e TicketCreatedEvent) error
}

// Nop is a Notifier that discards everything. Used in tests and in
// deployments without a message broker.
type Nop struct{}

func (Nop) OrderStatusChanged(context.Context, OrderStatusChangedEvent) error { return nil }
func (Nop) CapacityUpdated(context.Context, CapacityUpdatedEvent) error       { return nil }
func (Nop) LateOrders(context.Context, LateOrdersEvent) error                 { return nil }
func (Nop) TicketCreated(context.Context, TicketCreatedEvent) error           { return nil }

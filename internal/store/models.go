// Package store contains the database layer for kitchenline.
package store

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusReceived      OrderStatus = "received"
	OrderStatusInPreparation OrderStatus = "in_preparation"
	OrderStatusReady         OrderStatus = "ready"
	OrderStatusDelivered     OrderStatus = "delivered"
	OrderStatusCanceled      OrderStatus = "canceled"
)

// Priority classifies orders for admission ordering. Orders without a
// requested delivery time are urgent (prepare as soon as possible) and
// carry PriorityHigh; scheduled orders carry PriorityNormal.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// Order is a restaurant order as seen by the scheduling engine.
// The engine only performs the received -> in_preparation transition and
// sets the derived timing fields; every other mutation is owned by the
// intake and checkout paths.
type Order struct {
	ID                  uuid.UUID
	Number              string
	Status              OrderStatus
	Priority            Priority
	AutoPromote         bool
	RequestedDeliveryAt *time.Time // nil means "as soon as possible"
	EstimatedMinutes    *int       // per-order override of the base estimate
	PreparationStartAt  *time.Time // set once at promotion
	ExpectedFinishAt    *time.Time // set once at promotion
	CreatedAt           time.Time
}

// ASAP reports whether the order has no scheduled delivery time.
func (o Order) ASAP() bool {
	return o.RequestedDeliveryAt == nil
}

// OrderItem is a single line item of an order.
type OrderItem struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	Name     string
	Quantity int
	Notes    string
}

// Ticket is the kitchen-facing preparation ticket created when an order
// is admitted. At most one ticket exists per order.
type Ticket struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	CreatedAt time.Time
}

// LateOrder is an in-preparation order whose expected finish has passed.
// Lateness is derived at read time, never stored.
type LateOrder struct {
	ID               uuid.UUID
	Number           string
	ExpectedFinishAt time.Time
	LateMinutes      int
}

// CompletedOrder is a delivered order with its observed preparation span,
// used by the adaptive tuning heuristics.
type CompletedOrder struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the observed preparation duration.
func (c CompletedOrder) Duration() time.Duration {
	return c.FinishedAt.Sub(c.StartedAt)
}

// Canonical settings keys. Each knob has exactly one key; renamed legacy
// keys are handled by migration, not by runtime fallback reads.
const (
	SettingMaxConcurrentPreparations = "max_concurrent_preparations"
	SettingTickIntervalSeconds       = "tick_interval_seconds"
	SettingBaseDurationMinutes       = "base_preparation_duration_minutes"
)

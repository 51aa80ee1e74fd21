package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTransaction abstracts *sql.DB and *sql.Tx so store methods can run
// either standalone or inside a caller-owned transaction.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx is a transaction handle usable as an executor.
// *sql.Tx satisfies it.
type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// OrderStore defines the order operations the scheduling engine needs.
// Implementations must provide SELECT ... FOR UPDATE SKIP LOCKED semantics
// for SelectBacklog so concurrent admission passes never claim the same rows.
type OrderStore interface {
	// AcquireAdmissionLock takes the advisory lock that serializes
	// admission passes for the lifetime of tx. Blocks until the previous
	// pass commits or rolls back.
	AcquireAdmissionLock(ctx context.Context, tx DBTransaction) error

	// SelectBacklog returns up to limit promotable backlog orders
	// (received, auto-promote, created today), ordered by priority class
	// then creation time, locking the returned rows for the duration of tx.
	SelectBacklog(ctx context.Context, tx DBTransaction, limit int) ([]Order, error)

	// Promote transitions one order received -> in_preparation and stamps
	// its derived timing fields. Returns sql.ErrNoRows if the order is no
	// longer in the received state.
	Promote(ctx context.Context, tx DBTransaction, id uuid.UUID, startAt, finishAt time.Time) error

	// CountInPreparationToday returns the number of orders currently
	// occupying kitchen capacity.
	CountInPreparationToday(ctx context.Context) (int, error)

	// CountInPreparation is CountInPreparationToday evaluated inside tx,
	// used by the admission pass to size its promotion budget under the
	// admission lock.
	CountInPreparation(ctx context.Context, tx DBTransaction) (int, error)

	// ListItems returns the line items of an order.
	ListItems(ctx context.Context, tx DBTransaction, orderID uuid.UUID) ([]OrderItem, error)

	// LateOrders returns in-preparation orders whose expected finish
	// passed before now, oldest overrun first. Read-only.
	LateOrders(ctx context.Context, now time.Time) ([]LateOrder, error)

	// CompletedSince returns up to limit orders delivered after the cutoff,
	// with their observed preparation spans.
	CompletedSince(ctx context.Context, cutoff time.Time, limit int) ([]CompletedOrder, error)

	// NextExpectedFinish returns the earliest expected finish among
	// in-preparation orders, or nil when the kitchen is idle.
	NextExpectedFinish(ctx context.Context) (*time.Time, error)
}

// TicketStore persists kitchen tickets.
type TicketStore interface {
	// CreateIfAbsent inserts a ticket for the order unless one already
	// exists. Reports whether a row was actually created.
	CreateIfAbsent(ctx context.Context, tx DBTransaction, t Ticket) (bool, error)
}

// SettingsStore reads and writes runtime configuration values. Reads are
// always fresh; callers must not cache results across ticks.
type SettingsStore interface {
	// GetInt returns the integer value stored under key.
	// Returns sql.ErrNoRows when the key is absent.
	GetInt(ctx context.Context, key string) (int, error)

	// SetInt upserts the integer value under key.
	SetInt(ctx context.Context, key string, value int) error
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kitchenline/internal/store"

	"github.com/google/uuid"
)

// admissionLockID keys the advisory lock that serializes admission passes.
const admissionLockID int64 = 0x6b6c696e65 // "kline"

// AcquireAdmissionLock serializes admission passes across connections and
// processes with a transaction-scoped advisory lock. It blocks until the
// holding pass commits or rolls back; the lock is released with tx.
func (s *Store) AcquireAdmissionLock(ctx context.Context, tx store.DBTransaction) error {
	executor := s.getExecutor(tx)
	if _, err := executor.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, admissionLockID); err != nil {
		return fmt.Errorf("admission lock failed: %w", err)
	}
	return nil
}

// SelectBacklog claims up to 'limit' promotable backlog orders using
// SELECT ... FOR UPDATE SKIP LOCKED so a concurrent pass never selects the
// same rows. The locks are held by tx; the caller owns commit/rollback.
// Returns a nil slice if the backlog is empty.
func (s *Store) SelectBacklog(ctx context.Context, tx store.DBTransaction, limit int) ([]store.Order, error) {
	if limit <= 0 {
		return nil, nil
	}

	executor := s.getExecutor(tx)

	query := `
		SELECT id, number, status, priority, auto_promote,
		       requested_delivery_at, estimated_minutes, created_at
		FROM orders
		WHERE status = 'received'
		  AND auto_promote
		  AND created_at::date = CURRENT_DATE
		ORDER BY CASE priority WHEN 'high' THEN 0 ELSE 1 END, created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`

	rows, err := executor.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("backlog select failed: %w", err)
	}
	defer rows.Close()

	var orders []store.Order
	for rows.Next() {
		var o store.Order
		var delivery sql.NullTime
		var estimated sql.NullInt64
		if err := rows.Scan(&o.ID, &o.Number, &o.Status, &o.Priority, &o.AutoPromote,
			&delivery, &estimated, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("backlog scan failed: %w", err)
		}
		if delivery.Valid {
			t := delivery.Time
			o.RequestedDeliveryAt = &t
		}
		if estimated.Valid {
			m := int(estimated.Int64)
			o.EstimatedMinutes = &m
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("backlog rows error: %w", err)
	}

	return orders, nil
}

// Promote transitions a claimed order received -> in_preparation and stamps
// its timing fields exactly once. The status guard makes the update a no-op
// if another pass got there first.
func (s *Store) Promote(ctx context.Context, tx store.DBTransaction, id uuid.UUID, startAt, finishAt time.Time) error {
	executor := s.getExecutor(tx)

	res, err := executor.ExecContext(ctx, `
		UPDATE orders
		SET status = 'in_preparation',
		    preparation_start_at = $2,
		    expected_finish_at = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'received'
	`, id, startAt, finishAt)
	if err != nil {
		return fmt.Errorf("failed to promote order %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountInPreparationToday returns the current kitchen load. Stuck orders
// from prior operating days are excluded so they cannot poison the
// capacity math after a crash or restart.
func (s *Store) CountInPreparationToday(ctx context.Context) (int, error) {
	return s.CountInPreparation(ctx, nil)
}

// CountInPreparation is CountInPreparationToday scoped to tx. Run after
// AcquireAdmissionLock it sees every promotion committed by earlier passes,
// which makes it the authoritative load figure for the capacity ceiling.
func (s *Store) CountInPreparation(ctx context.Context, tx store.DBTransaction) (int, error) {
	executor := s.getExecutor(tx)
	var count int
	err := executor.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders
		WHERE status = 'in_preparation'
		  AND created_at::date = CURRENT_DATE
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("in-preparation count failed: %w", err)
	}
	return count, nil
}

// ListItems returns the line items of an order.
func (s *Store) ListItems(ctx context.Context, tx store.DBTransaction, orderID uuid.UUID) ([]store.OrderItem, error) {
	executor := s.getExecutor(tx)

	rows, err := executor.QueryContext(ctx, `
		SELECT id, order_id, name, quantity, notes
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order items query failed: %w", err)
	}
	defer rows.Close()

	var items []store.OrderItem
	for rows.Next() {
		var it store.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.Quantity, &it.Notes); err != nil {
			return nil, fmt.Errorf("order item scan failed: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// LateOrders returns in-preparation orders past their expected finish,
// oldest overrun first. It never mutates anything: lateness is derived.
func (s *Store) LateOrders(ctx context.Context, now time.Time) ([]store.LateOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, expected_finish_at
		FROM orders
		WHERE status = 'in_preparation'
		  AND expected_finish_at < $1
		  AND created_at::date = CURRENT_DATE
		ORDER BY expected_finish_at ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("late orders query failed: %w", err)
	}
	defer rows.Close()

	var late []store.LateOrder
	for rows.Next() {
		var lo store.LateOrder
		if err := rows.Scan(&lo.ID, &lo.Number, &lo.ExpectedFinishAt); err != nil {
			return nil, fmt.Errorf("late order scan failed: %w", err)
		}
		lo.LateMinutes = int(now.Sub(lo.ExpectedFinishAt).Minutes())
		late = append(late, lo)
	}
	return late, rows.Err()
}

// CompletedSince returns recently delivered orders with observed
// preparation spans, newest first.
func (s *Store) CompletedSince(ctx context.Context, cutoff time.Time, limit int) ([]store.CompletedOrder, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, preparation_start_at, completed_at
		FROM orders
		WHERE status = 'delivered'
		  AND completed_at >= $1
		  AND preparation_start_at IS NOT NULL
		  AND completed_at IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("completed orders query failed: %w", err)
	}
	defer rows.Close()

	var completed []store.CompletedOrder
	for rows.Next() {
		var c store.CompletedOrder
		if err := rows.Scan(&c.ID, &c.StartedAt, &c.FinishedAt); err != nil {
			return nil, fmt.Errorf("completed order scan failed: %w", err)
		}
		completed = append(completed, c)
	}
	return completed, rows.Err()
}

// NextExpectedFinish returns the earliest expected finish among
// in-preparation orders, or nil when nothing is cooking.
func (s *Store) NextExpectedFinish(ctx context.Context) (*time.Time, error) {
	var next sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(expected_finish_at)
		FROM orders
		WHERE status = 'in_preparation'
		  AND expected_finish_at IS NOT NULL
	`).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("next finish query failed: %w", err)
	}
	if !next.Valid {
		return nil, nil
	}
	t := next.Time
	return &t, nil
}

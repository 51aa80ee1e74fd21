package postgres

import (
	"context"
	"fmt"

	"kitchenline/internal/store"
)

// CreateIfAbsent inserts a kitchen ticket for an order unless one already
// exists. The UNIQUE constraint on order_id plus ON CONFLICT DO NOTHING
// makes the operation idempotent under concurrent callers.
func (s *Store) CreateIfAbsent(ctx context.Context, tx store.DBTransaction, t store.Ticket) (bool, error) {
	executor := s.getExecutor(tx)

	res, err := executor.ExecContext(ctx, `
		INSERT INTO kitchen_tickets (id, order_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING
	`, t.ID, t.OrderID, t.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create ticket for order %s: %w", t.OrderID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

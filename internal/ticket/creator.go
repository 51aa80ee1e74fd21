// Package ticket creates kitchen-facing preparation tickets for admitted
// orders. The ticket is a derivable artifact: creation is idempotent and a
// failure never undoes the order promotion it follows.
package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kitchenline/internal/notify"
	"kitchenline/internal/store"

	"github.com/google/uuid"
)

// ItemLister fetches the line items rendered on a ticket.
type ItemLister interface {
	ListItems(ctx context.Context, tx store.DBTransaction, orderID uuid.UUID) ([]store.OrderItem, error)
}

// Creator is the kitchen-ticket collaborator.
type Creator struct {
	tickets  store.TicketStore
	items    ItemLister
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewCreator creates a ticket creator.
func NewCreator(tickets store.TicketStore, items ItemLister, notifier notify.Notifier, logger *slog.Logger) *Creator {
	return &Creator{tickets: tickets, items: items, notifier: notifier, logger: logger}
}

// Create makes the ticket for a promoted order. Calling it twice for the
// same order is a no-op the second time; only the first call emits the
// created event.
func (c *Creator) Create(ctx context.Context, o store.Order) error {
	t := store.Ticket{
		ID:        uuid.New(),
		OrderID:   o.ID,
		CreatedAt: time.Now().UTC(),
	}

	created, err := c.tickets.CreateIfAbsent(ctx, nil, t)
	if err != nil {
		return fmt.Errorf("ticket for order %s: %w", o.ID, err)
	}
	if !created {
		c.logger.Debug("ticket already exists", "order_id", o.ID)
		return nil
	}

	items, err := c.items.ListItems(ctx, nil, o.ID)
	if err != nil {
		// Ticket row exists; the event just carries fewer details.
		c.logger.Error("failed to load items for ticket event", "order_id", o.ID, "error", err)
	}

	event := notify.TicketCreatedEvent{
		TicketID:   t.ID,
		OrderID:    o.ID,
		Number:     o.Number,
		OccurredAt: t.CreatedAt,
	}
	for _, it := range items {
		event.Items = append(event.Items, notify.TicketItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Notes:    it.Notes,
		})
	}

	if err := c.notifier.TicketCreated(ctx, event); err != nil {
		c.logger.Debug("ticket event dropped", "order_id", o.ID, "error", err)
	}

	return nil
}

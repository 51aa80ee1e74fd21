package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/google/uuid"
)

// Exchange carries every kitchen event; consumers bind their own queues.
const Exchange = "kitchen_events"

// AMQPNotifier publishes events to a RabbitMQ fanout exchange as
// persistent JSON messages.
type AMQPNotifier struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialAMQP connects to the broker and declares the fanout exchange.
func DialAMQP(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(Exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", Exchange, err)
	}

	return &AMQPNotifier{conn: conn, ch: ch}, nil
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() {
	if n == nil {
		return
	}
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
}

func (n *AMQPNotifier) publish(ctx context.Context, eventType, correlationID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}

	pub := amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		Type:          eventType,
		MessageId:     uuid.NewString(),
		CorrelationId: correlationID,
		Timestamp:     time.Now().UTC(),
		Headers:       amqp.Table{"x-source": "kitchen-scheduler"},
		Body:          body,
	}

	// Routing key is ignored by a fanout exchange.
	if err := n.ch.PublishWithContext(ctx, Exchange, "", false, false, pub); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (n *AMQPNotifier) OrderStatusChanged(ctx context.Context, e OrderStatusChangedEvent) error {
	return n.publish(ctx, EventOrderStatusChanged, e.OrderID.String(), e)
}

func (n *AMQPNotifier) CapacityUpdated(ctx context.Context, e CapacityUpdatedEvent) error {
	return n.publish(ctx, EventCapacityUpdated, "", e)
}

func (n *AMQPNotifier) LateOrders(ctx context.Context, e LateOrdersEvent) error {
	return n.publish(ctx, EventLateOrders, "", e)
}

func (n *AMQPNotifier) TicketCreated(ctx context.Context, e TicketCreatedEvent) error {
	return n.publish(ctx, EventTicketCreated, e.OrderID.String(), e)
}

package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to RabbitMQ.  Each publish dials, declares the
// queue and closes again; event volume is a handful per booking.  Errors
// are logged and returned so callers can ignore them without interrupting
// the request.
type Publisher struct {
	url     string
	observe func(queue string, err error)
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// Observe registers a callback run after every publish attempt, used to
// feed the publish counters.
func (p *Publisher) Observe(fn func(queue string, err error)) *Publisher {
	p.observe = fn
	return p
}

// ReservationCreated publishes to reserva.creada.
func (p *Publisher) ReservationCreated(ctx context.Context, ev ReservationEvent) error {
	return p.publish(ctx, QueueReservationCreated, ev)
}

// ReservationConfirmed publishes to reserva.confirmada.
func (p *Publisher) ReservationConfirmed(ctx context.Context, ev ReservationEvent) error {
	return p.publish(ctx, QueueReservationConfirmed, ev)
}

// InventoryAlert publishes to inventario.alerta.
func (p *Publisher) InventoryAlert(ctx context.Context, ev AlertEvent) error {
	return p.publish(ctx, QueueInventoryAlert, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) (err error) {
	if p.observe != nil {
		defer func() { p.observe(queue, err) }()
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		slog.Warn("rabbitmq dial failed", "queue", queue, "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq channel open failed", "queue", queue, "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		slog.Warn("rabbitmq queue declare failed", "queue", queue, "error", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		slog.Warn("rabbitmq publish failed", "queue", queue, "error", err)
		return err
	}
	return nil
}

// Nop discards events.  It is used when QUEUE_DISABLED is set and in tests.
type Nop struct{}

func (Nop) ReservationCreated(context.Context, ReservationEvent) error   { return nil }
func (Nop) ReservationConfirmed(context.Context, ReservationEvent) error { return nil }
func (Nop) InventoryAlert(context.Context, AlertEvent) error             { return nil }

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/party-venue-reservation/internal/notify"
)

// Recipients resolves the mail address of a user.
type Recipients interface {
	Email(ctx context.Context, userID uint64) (nombre, email string, err error)
}

// Consumer listens on every event queue, appends one line per event to
// <logDir>/events.log and mails the affected user when a Sender is set.
type Consumer struct {
	url    string
	logDir string
	mailer notify.Sender
	users  Recipients

	mu sync.Mutex // serialises log file appends
}

// NewConsumer builds a consumer.  mailer may be nil.
func NewConsumer(url, logDir string, mailer notify.Sender, users Recipients) *Consumer {
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{url: url, logDir: logDir, mailer: mailer, users: users}
}

var consumedQueues = []string{QueueReservationCreated, QueueReservationConfirmed, QueueInventoryAlert}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			slog.Warn("event consumer: dial failed", "error", err, "retry_in", backoff.String())
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("event consumer: loop ended, reconnecting", "error", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type delivery struct {
	queue string
	amqp.Delivery
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		slog.Warn("event consumer: set QoS failed", "error", err)
	}

	merged := make(chan delivery)
	var wg sync.WaitGroup
	for _, q := range consumedQueues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		wg.Add(1)
		go func(q string, msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range msgs {
				select {
				case merged <- delivery{queue: q, Delivery: d}:
				case <-ctx.Done():
					return
				}
			}
		}(q, msgs)
	}
	go func() { wg.Wait(); close(merged) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-merged:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.queue, d.Body); err != nil {
				slog.Error("event consumer: handle message failed", "queue", d.queue, "error", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one message body from queue.  Mail failures are logged
// and do not fail the message; the log line is the durable record.
func (c *Consumer) Handle(ctx context.Context, queue string, body []byte) error {
	var (
		line      string
		recipient uint64
		subject   string
		text      string
	)
	switch queue {
	case QueueReservationCreated, QueueReservationConfirmed:
		var ev ReservationEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] %s | id_reserva=%d | id_usuario=%d | codigo=%s | fecha=%s %s-%s | total=%s | estado=%s | origen=%s\n",
			ev.OcurridoEn, queue, ev.IDReserva, ev.IDUsuario, ev.CodigoSeguimiento, ev.FechaReserva, ev.HoraInicio, ev.HoraFin, ev.Total, ev.Estado, ev.Origen)
		recipient = ev.IDUsuario
		subject = "Reservación " + ev.CodigoSeguimiento
		text = fmt.Sprintf("Tu reservación %s para el %s de %s a %s está %s.\nTotal: %s\n",
			ev.CodigoSeguimiento, ev.FechaReserva, ev.HoraInicio, ev.HoraFin, ev.Estado, ev.Total)
	case QueueInventoryAlert:
		var ev AlertEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] %s | id_alerta=%d | tipo=%s | id_materia_prima=%d | destinatario=%d | %q\n",
			ev.OcurridoEn, queue, ev.IDAlerta, ev.Tipo, ev.IDMateriaPrima, ev.IDUsuarioDestinatario, ev.Mensaje)
		recipient = ev.IDUsuarioDestinatario
		subject = "Alerta de inventario: " + ev.Tipo
		text = ev.Mensaje + "\n"
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}

	if err := c.appendLog(line); err != nil {
		return err
	}
	c.mail(ctx, recipient, subject, text)
	return nil
}

func (c *Consumer) appendLog(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, "events.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func (c *Consumer) mail(ctx context.Context, userID uint64, subject, body string) {
	if c.mailer == nil || c.users == nil || userID == 0 {
		return
	}
	nombre, email, err := c.users.Email(ctx, userID)
	if err != nil {
		slog.Warn("event consumer: recipient lookup failed", "id_usuario", userID, "error", err)
		return
	}
	if err := c.mailer.Send(ctx, email, subject, "Hola "+nombre+",\n\n"+body); err != nil {
		slog.Warn("event consumer: mail failed", "id_usuario", userID, "error", err)
	}
}

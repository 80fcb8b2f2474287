package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/event-ticket-booking/internal/email"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// Consumer listens to the booking notification queues, sends the
// customer email for each message and appends an audit line to
// logs/booking.log.  It runs a reconnect loop with exponential
// backoff and keeps running through processing errors, rejecting the
// offending message so the server continues operating.
type Consumer struct {
	url   string
	users *repository.UserRepo
	mail  *email.Sender
}

// NewConsumer constructs a Consumer.  An empty url falls back to
// DefaultURL.
func NewConsumer(url string, users *repository.UserRepo, mail *email.Sender) *Consumer {
	if url == "" {
		url = DefaultURL
	}
	return &Consumer{url: url, users: users, mail: mail}
}

// Run connects to RabbitMQ, declares both booking queues (durable) and
// consumes them until the process exits.  It never returns under
// normal operation; connection loss triggers a reconnect.
func (c *Consumer) Run() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(conn); err != nil {
			log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func (c *Consumer) consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{ConfirmedQueueName, CancelledQueueName} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	confirmed, err := ch.Consume(ConfirmedQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", ConfirmedQueueName, err)
	}
	cancelled, err := ch.Consume(CancelledQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", CancelledQueueName, err)
	}

	for {
		select {
		case d, ok := <-confirmed:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(d, c.handleConfirmed(d.Body))
		case d, ok := <-cancelled:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(d, c.handleCancelled(d.Body))
		}
	}
}

// settle acks a processed message or rejects it without requeue so a
// poison message cannot loop forever.
func (c *Consumer) settle(d amqp.Delivery, err error) {
	if err != nil {
		log.Printf("booking-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) handleConfirmed(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	subject := fmt.Sprintf("Booking confirmed: %s", ev.EventTitle)
	text := fmt.Sprintf(
		"Your booking %s is confirmed.\n\nEvent: %s\nStarts: %s\nVenue: %s\nTickets: %d\nTotal: %d.%02d\n",
		ev.Reference, ev.EventTitle, ev.EventStartsAt, ev.EventVenue,
		ev.Tickets, ev.TotalAmountCents/100, ev.TotalAmountCents%100,
	)
	if err := c.sendToUser(ev.UserID, subject, text); err != nil {
		// Mail failure is logged, not fatal: the audit line below still
		// records the notification.
		log.Printf("booking-consumer: email failed for booking %d: %v", ev.BookingID, err)
	}
	line := fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | ref=%s | user_id=%d | event=%q | tickets=%d | total=%d cents\n",
		ev.ConfirmedAt, ev.BookingID, ev.Reference, ev.UserID, ev.EventTitle, ev.Tickets, ev.TotalAmountCents)
	return appendAuditLine(line)
}

func (c *Consumer) handleCancelled(body []byte) error {
	var ev BookingCancelledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	subject := fmt.Sprintf("Booking cancelled: %s", ev.EventTitle)
	text := fmt.Sprintf(
		"Your booking %s has been cancelled.\n\nEvent: %s\nStarts: %s\nTickets released: %d\n",
		ev.Reference, ev.EventTitle, ev.EventStartsAt, ev.Tickets,
	)
	if err := c.sendToUser(ev.UserID, subject, text); err != nil {
		log.Printf("booking-consumer: email failed for booking %d: %v", ev.BookingID, err)
	}
	line := fmt.Sprintf("[%s] Booking cancelled | booking_id=%d | ref=%s | user_id=%d | event=%q | tickets=%d\n",
		ev.CancelledAt, ev.BookingID, ev.Reference, ev.UserID, ev.EventTitle, ev.Tickets)
	return appendAuditLine(line)
}

// sendToUser resolves the recipient address from the users table and
// delivers the message.  Skipped silently when the consumer was wired
// without a user repository or mail sender.
func (c *Consumer) sendToUser(userID uint64, subject, text string) error {
	if c.users == nil || c.mail == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	u, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}
	return c.mail.Send(u.Email, subject, text)
}

func appendAuditLine(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "booking.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

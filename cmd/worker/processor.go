package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/awsx"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
)

type orderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	MarkNotified(ctx context.Context, orderID, event string) error
}

type mailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type metricsRecorder interface {
	RecordOperation(ctx context.Context, operation string, success bool)
}

// Processor turns order lifecycle events into customer notifications.
type Processor struct {
	orderStore orderStore
	mailer     mailSender
	metrics    metricsRecorder
}

// NewProcessor creates a worker processor with dependencies injected.
func NewProcessor(store orderStore, mailer mailSender, metrics metricsRecorder) *Processor {
	return &Processor{
		orderStore: store,
		mailer:     mailer,
		metrics:    metrics,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg awsx.OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[worker] received order=%s event=%s corr=%s",
		msg.OrderID, msg.Event, msg.CorrelationID)

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		// Should never happen, DLQ if it does
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	// SQS is at-least-once; a redelivered message must not mail twice. The
	// marker carries the status the event announced, not just the event name:
	// payment.updated fires once per admin edit and each edit is a distinct
	// notification.
	marker := notificationMarker(msg)
	if order.LastNotification == marker {
		log.Printf("[worker] order=%s already notified about %s, skipping", msg.OrderID, marker)
		return nil
	}

	if order.Customer.Email == "" {
		log.Printf("[worker] no customer email on order=%s, skipping notification", msg.OrderID)
		return nil
	}

	subject, body, ok := composeNotification(msg.Event, order)
	if !ok {
		log.Printf("[worker] no notification defined for event=%s, skipping", msg.Event)
		return nil
	}

	if err := p.mailer.Send(ctx, order.Customer.Email, subject, body); err != nil {
		p.record(ctx, msg.Event, false)
		return fmt.Errorf("failed to send notification for order=%s: %w", msg.OrderID, err)
	}

	if err := p.orderStore.MarkNotified(ctx, msg.OrderID, marker); err != nil {
		// The mail went out; losing the marker only risks a duplicate email
		// on redelivery, which is better than a retry loop that mails again.
		log.Printf("[worker] mark notified for order=%s: %v", msg.OrderID, err)
	}

	p.record(ctx, msg.Event, true)
	log.Printf("[worker] notified %s about order=%s", order.Customer.Email, msg.OrderID)
	return nil
}

func (p *Processor) record(ctx context.Context, event string, success bool) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordOperation(ctx, "notify_"+event, success)
}

func notificationMarker(msg awsx.OrderEvent) string {
	if msg.Status == "" {
		return msg.Event
	}
	return msg.Event + ":" + msg.Status
}

func composeNotification(event string, o *orders.Order) (subject, body string, ok bool) {
	switch event {
	case awsx.EventOrderShipped:
		subject = fmt.Sprintf("Your order %s has shipped", o.OrderNumber)
		body = fmt.Sprintf("Hi %s,\n\nGood news! Your order %s is on its way.\n", o.Customer.Name, o.OrderNumber)
		if o.Label != nil {
			body += fmt.Sprintf("\nCarrier: %s\nService: %s\nTracking number: %s\n",
				o.Label.Carrier, o.Label.Service, o.Label.TrackingNumber)
		}
		return subject, body, true
	case awsx.EventOrderDelivered:
		subject = fmt.Sprintf("Your order %s was delivered", o.OrderNumber)
		body = fmt.Sprintf("Hi %s,\n\nYour order %s has been delivered. Enjoy!\n", o.Customer.Name, o.OrderNumber)
		return subject, body, true
	case awsx.EventOrderCancelled:
		subject = fmt.Sprintf("Your order %s was cancelled", o.OrderNumber)
		body = fmt.Sprintf("Hi %s,\n\nYour order %s has been cancelled. If this is unexpected, please contact support.\n",
			o.Customer.Name, o.OrderNumber)
		return subject, body, true
	case awsx.EventPaymentUpdated:
		subject = fmt.Sprintf("Payment update for order %s", o.OrderNumber)
		body = fmt.Sprintf("Hi %s,\n\nThe payment status of your order %s is now: %s.\n",
			o.Customer.Name, o.OrderNumber, o.PaymentStatus)
		return subject, body, true
	}
	return "", "", false
}

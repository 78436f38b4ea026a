package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/awsx"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
)

// --- fakes ---

type fakeOrderStore struct {
	orders map[string]*orders.Order
	err    error
	marked map[string]string
}

func (f *fakeOrderStore) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[orderID], nil
}

func (f *fakeOrderStore) MarkNotified(ctx context.Context, orderID, event string) error {
	if f.marked == nil {
		f.marked = map[string]string{}
	}
	f.marked[orderID] = event
	return nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func shippedOrder() *orders.Order {
	return &orders.Order{
		OrderID:     "ord-1",
		OrderNumber: "SO-1001",
		Status:      orders.StatusShipped,
		Customer: orders.Customer{
			Name:  "Aisha Khan",
			Email: "aisha@example.com",
		},
		Label: &orders.ShippingLabel{
			Carrier:        "FedEx",
			Service:        "Ground",
			TrackingNumber: "FDX1234",
		},
	}
}

func sqsEvent(body string) events.SQSEvent {
	return events.SQSEvent{Records: []events.SQSMessage{{Body: body}}}
}

func TestProcessorSendsShippedEmailWithTracking(t *testing.T) {
	store := &fakeOrderStore{orders: map[string]*orders.Order{"ord-1": shippedOrder()}}
	mailer := &fakeMailer{}
	p := NewProcessor(store, mailer, nil)

	err := p.Handle(context.Background(), sqsEvent(`{"order_id":"ord-1","event":"order.shipped","status":"shipped"}`))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}
	m := mailer.sent[0]
	if m.to != "aisha@example.com" {
		t.Errorf("wrong recipient: %s", m.to)
	}
	if !strings.Contains(m.subject, "SO-1001") {
		t.Errorf("subject missing order number: %q", m.subject)
	}
	if !strings.Contains(m.body, "FDX1234") || !strings.Contains(m.body, "FedEx") {
		t.Errorf("body missing tracking details: %q", m.body)
	}
	if store.marked["ord-1"] != "order.shipped:shipped" {
		t.Errorf("notification marker = %q", store.marked["ord-1"])
	}
}

func TestProcessorSwallowsDuplicateDelivery(t *testing.T) {
	o := shippedOrder()
	o.LastNotification = "order.shipped:shipped"
	store := &fakeOrderStore{orders: map[string]*orders.Order{"ord-1": o}}
	mailer := &fakeMailer{}
	p := NewProcessor(store, mailer, nil)

	err := p.Handle(context.Background(), sqsEvent(`{"order_id":"ord-1","event":"order.shipped","status":"shipped"}`))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("duplicate delivery must not mail again, sent %d", len(mailer.sent))
	}
}

func TestProcessorNotifiesEachPaymentEdit(t *testing.T) {
	o := shippedOrder()
	o.PaymentStatus = orders.PaymentPaid
	o.LastNotification = "payment.updated:pending"
	store := &fakeOrderStore{orders: map[string]*orders.Order{"ord-1": o}}
	mailer := &fakeMailer{}
	p := NewProcessor(store, mailer, nil)

	err := p.Handle(context.Background(), sqsEvent(`{"order_id":"ord-1","event":"payment.updated","status":"paid"}`))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("a later payment edit must mail again, sent %d", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].body, "paid") {
		t.Errorf("body missing new payment status: %q", mailer.sent[0].body)
	}
	if store.marked["ord-1"] != "payment.updated:paid" {
		t.Errorf("notification marker = %q", store.marked["ord-1"])
	}

	// A true redelivery of the same edit is still swallowed.
	o.LastNotification = "payment.updated:paid"
	if err := p.Handle(context.Background(), sqsEvent(`{"order_id":"ord-1","event":"payment.updated","status":"paid"}`)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("redelivered edit must not mail again, sent %d", len(mailer.sent))
	}
}

func TestProcessorSkipsOrdersWithoutEmail(t *testing.T) {
	o := shippedOrder()
	o.Customer.Email = ""
	store := &fakeOrderStore{orders: map[string]*orders.Order{"ord-1": o}}
	mailer := &fakeMailer{}
	p := NewProcessor(store, mailer, nil)

	err := p.Handle(context.Background(), sqsEvent(`{"order_id":"ord-1","event":"order.shipped"}`))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(mailer.sent))
	}
}

func TestProcessorSkipsUnknownEvents(t *testing.T) {
	store := &fakeOrderStore{orders: map[string]*orders.Order{"ord-1": shippedOrder()}}
	mailer := &fakeMailer{}
	p := NewProcessor(store, mailer, nil)

	err := p.Handle(context.Background(), sqsEvent(`{"order_id":"ord-1","event":"order.created"}`))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(mailer.sent))
	}
}

func TestProcessorFailsOnMissingOrder(t *testing.T) {
	store := &fakeOrderStore{orders: map[string]*orders.Order{}}
	p := NewProcessor(store, &fakeMailer{}, nil)

	err := p.Handle(context.Background(), sqsEvent(`{"order_id":"ghost","event":"order.shipped"}`))
	if err == nil {
		t.Fatal("expected error for missing order")
	}
}

func TestProcessorFailsOnInvalidBody(t *testing.T) {
	p := NewProcessor(&fakeOrderStore{}, &fakeMailer{}, nil)

	err := p.Handle(context.Background(), sqsEvent(`not-json`))
	if err == nil {
		t.Fatal("expected error for invalid body")
	}
}

func TestProcessorPropagatesMailerFailure(t *testing.T) {
	store := &fakeOrderStore{orders: map[string]*orders.Order{"ord-1": shippedOrder()}}
	mailer := &fakeMailer{err: errors.New("ses throttled")}
	p := NewProcessor(store, mailer, nil)

	err := p.Handle(context.Background(), sqsEvent(`{"order_id":"ord-1","event":"order.shipped"}`))
	if err == nil {
		t.Fatal("expected error when mailer fails")
	}
}

func TestComposeNotificationCoversLifecycle(t *testing.T) {
	o := shippedOrder()
	o.PaymentStatus = orders.PaymentPaid

	for _, event := range []string{
		awsx.EventOrderShipped,
		awsx.EventOrderDelivered,
		awsx.EventOrderCancelled,
		awsx.EventPaymentUpdated,
	} {
		subject, body, ok := composeNotification(event, o)
		if !ok {
			t.Errorf("no notification for %s", event)
			continue
		}
		if subject == "" || body == "" {
			t.Errorf("empty notification for %s", event)
		}
	}
}

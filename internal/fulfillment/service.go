// Package fulfillment drives the bulk dashboard actions: each action is
// applied per order through the gated transition table, and only an aggregate
// processed count is reported back.
package fulfillment

import (
	"context"
	"log"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/awsx"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/shipping"
)

// OrderStore is the slice of the orders store the service uses.
// *orders.Store satisfies it.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	ApplyAction(ctx context.Context, orderID, action, actor string) (*orders.Order, error)
	AttachShippingLabel(ctx context.Context, orderID string, label orders.ShippingLabel, actor string) (*orders.Order, error)
	ListFulfillment(ctx context.Context, statuses []string) ([]orders.Order, orders.Stats, error)
}

// LabelData carries the shared carrier choice for bulk label issuance.
// Tracking numbers are generated per order.
type LabelData struct {
	Carrier string
	Service string
	Origin  orders.Address
}

// Service applies fulfillment actions and answers queue listings.
type Service struct {
	Orders    OrderStore
	Publisher *awsx.Publisher
	Metrics   *awsx.Metrics
}

// EventForStatus maps a resulting order status to the lifecycle event that
// should notify the customer. Statuses with no customer-facing consequence
// map to the empty string.
func EventForStatus(status string) string {
	switch status {
	case orders.StatusShipped:
		return awsx.EventOrderShipped
	case orders.StatusDelivered:
		return awsx.EventOrderDelivered
	case orders.StatusCancelled:
		return awsx.EventOrderCancelled
	}
	return ""
}

// ApplyBulk applies one action to every order in the batch. Per-order
// failures are logged and counted but not itemized in the result: the
// dashboard only consumes the aggregate processed count.
func (s *Service) ApplyBulk(ctx context.Context, orderIDs []string, action string, data *LabelData, actor, correlationID string) (int, error) {
	if err := orders.ValidateAction(action); err != nil {
		return 0, err
	}

	processed := 0
	failed := 0
	for _, id := range orderIDs {
		updated, err := s.applyOne(ctx, id, action, data, actor)
		if err != nil {
			log.Printf("bulk %s: order %s skipped: %v", action, id, err)
			failed++
			continue
		}
		processed++
		s.notify(ctx, updated, correlationID)
	}

	s.Metrics.RecordBulkAction(ctx, action, processed, failed)
	return processed, nil
}

func (s *Service) applyOne(ctx context.Context, orderID, action string, data *LabelData, actor string) (*orders.Order, error) {
	if action != orders.ActionGenerateLabel {
		return s.Orders.ApplyAction(ctx, orderID, action, actor)
	}

	// Label issuance needs per-order label data; the batch supplies the
	// carrier, the tracking number is generated here.
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, orders.ErrNotFound
	}

	carrier := shipping.CarrierFedEx
	var origin orders.Address
	service := ""
	if data != nil {
		if data.Carrier != "" {
			carrier = data.Carrier
		}
		service = data.Service
		origin = data.Origin
	}

	label, err := shipping.NewLabel(shipping.Request{
		Carrier:        carrier,
		Service:        service,
		TrackingNumber: shipping.GenerateTrackingNumber(carrier),
		Origin:         origin,
		Destination:    o.Customer.Address,
	})
	if err != nil {
		return nil, err
	}
	return s.Orders.AttachShippingLabel(ctx, orderID, label, actor)
}

func (s *Service) notify(ctx context.Context, o *orders.Order, correlationID string) {
	event := EventForStatus(o.Status)
	if event == "" {
		return
	}
	err := s.Publisher.PublishOrderEvent(ctx, awsx.OrderEvent{
		OrderID:       o.OrderID,
		Event:         event,
		Status:        o.Status,
		CorrelationID: correlationID,
	})
	if err != nil {
		// Notification is best-effort; the transition already committed.
		log.Printf("publish %s for order %s: %v", event, o.OrderID, err)
	}
}

// Queue lists the fulfillment queue, optionally narrowed to one status.
func (s *Service) Queue(ctx context.Context, status string) ([]orders.Order, orders.Stats, error) {
	var statuses []string
	if status != "" {
		statuses = []string{status}
	}
	return s.Orders.ListFulfillment(ctx, statuses)
}

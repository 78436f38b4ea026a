package fulfillment

import (
	"context"
	"strings"
	"testing"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/shipping"
)

// fakeStore applies the transition gates in memory. Labels recorded on
// attach calls let tests inspect what bulk label issuance generated.
type fakeStore struct {
	orders map[string]*orders.Order
	labels map[string]orders.ShippingLabel
}

func newFakeStore(seed ...*orders.Order) *fakeStore {
	f := &fakeStore{
		orders: map[string]*orders.Order{},
		labels: map[string]orders.ShippingLabel{},
	}
	for _, o := range seed {
		f.orders[o.OrderID] = o
	}
	return f
}

func (f *fakeStore) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	return f.orders[orderID], nil
}

func (f *fakeStore) ApplyAction(ctx context.Context, orderID, action, actor string) (*orders.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, orders.ErrNotFound
	}
	if !orders.CanPerformAction(o.Status, action) {
		return nil, orders.ErrPrecondition
	}
	target, err := orders.ActionResult(action)
	if err != nil {
		return nil, err
	}
	o.Status = target
	o.Version++
	return o, nil
}

func (f *fakeStore) AttachShippingLabel(ctx context.Context, orderID string, label orders.ShippingLabel, actor string) (*orders.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, orders.ErrNotFound
	}
	if o.TrackingNumber != "" {
		return nil, orders.ErrLabelExists
	}
	if o.Status != orders.StatusProcessing {
		return nil, orders.ErrPrecondition
	}
	o.Status = orders.StatusShipped
	o.TrackingNumber = label.TrackingNumber
	o.Label = &label
	o.Version++
	f.labels[orderID] = label
	return o, nil
}

func (f *fakeStore) ListFulfillment(ctx context.Context, statuses []string) ([]orders.Order, orders.Stats, error) {
	var out []orders.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, orders.Stats{Total: len(out)}, nil
}

func order(id, status string) *orders.Order {
	return &orders.Order{
		OrderID: id,
		Status:  status,
		Customer: orders.Customer{
			Email:   id + "@example.com",
			Address: orders.Address{City: "Karachi", Country: "PK"},
		},
		Version: 1,
	}
}

func TestApplyBulkCountsOnlySuccesses(t *testing.T) {
	store := newFakeStore(
		order("a", orders.StatusConfirmed),
		order("b", orders.StatusConfirmed),
		order("c", orders.StatusShipped), // gate rejects start_fulfillment
	)
	svc := &Service{Orders: store}

	processed, err := svc.ApplyBulk(context.Background(), []string{"a", "b", "c", "ghost"}, orders.ActionStartFulfillment, nil, "ops", "req-1")
	if err != nil {
		t.Fatalf("ApplyBulk: %v", err)
	}
	if processed != 2 {
		t.Fatalf("processed = %d, want 2", processed)
	}
	if store.orders["a"].Status != orders.StatusProcessing || store.orders["b"].Status != orders.StatusProcessing {
		t.Error("successful orders not transitioned")
	}
	if store.orders["c"].Status != orders.StatusShipped {
		t.Error("gated order should be untouched")
	}
}

func TestApplyBulkRejectsUnknownAction(t *testing.T) {
	svc := &Service{Orders: newFakeStore()}
	if _, err := svc.ApplyBulk(context.Background(), []string{"a"}, "restock", nil, "ops", ""); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestApplyBulkGeneratesLabels(t *testing.T) {
	store := newFakeStore(
		order("a", orders.StatusProcessing),
		order("b", orders.StatusProcessing),
	)
	svc := &Service{Orders: store}

	data := &LabelData{
		Carrier: shipping.CarrierUPS,
		Service: "Next Day Air",
		Origin:  orders.Address{Street: "1 Warehouse Way", City: "Memphis"},
	}
	processed, err := svc.ApplyBulk(context.Background(), []string{"a", "b"}, orders.ActionGenerateLabel, data, "ops", "req-2")
	if err != nil {
		t.Fatalf("ApplyBulk: %v", err)
	}
	if processed != 2 {
		t.Fatalf("processed = %d, want 2", processed)
	}

	seen := map[string]bool{}
	for id, label := range store.labels {
		if label.Carrier != shipping.CarrierUPS || label.Service != "Next Day Air" {
			t.Errorf("label for %s has wrong carrier/service: %+v", id, label)
		}
		if !strings.HasPrefix(label.TrackingNumber, "1Z") {
			t.Errorf("label for %s has tracking %q", id, label.TrackingNumber)
		}
		if seen[label.TrackingNumber] {
			t.Errorf("tracking %q reused across orders", label.TrackingNumber)
		}
		seen[label.TrackingNumber] = true
		if label.Destination.City != "Karachi" {
			t.Errorf("destination should come from the customer address, got %+v", label.Destination)
		}
		if label.Origin.City != "Memphis" {
			t.Errorf("origin should come from the batch data, got %+v", label.Origin)
		}
	}
	if store.orders["a"].Status != orders.StatusShipped {
		t.Error("labelled order should be shipped")
	}
}

func TestApplyBulkLabelDefaultsCarrier(t *testing.T) {
	store := newFakeStore(order("a", orders.StatusProcessing))
	svc := &Service{Orders: store}

	if _, err := svc.ApplyBulk(context.Background(), []string{"a"}, orders.ActionGenerateLabel, nil, "ops", ""); err != nil {
		t.Fatalf("ApplyBulk: %v", err)
	}
	if got := store.labels["a"].Carrier; got != shipping.CarrierFedEx {
		t.Errorf("default carrier = %s, want FedEx", got)
	}
}

func TestApplyBulkSkipsAlreadyLabelled(t *testing.T) {
	labelled := order("a", orders.StatusProcessing)
	labelled.TrackingNumber = "FDX-OLD"
	store := newFakeStore(labelled, order("b", orders.StatusProcessing))
	svc := &Service{Orders: store}

	processed, err := svc.ApplyBulk(context.Background(), []string{"a", "b"}, orders.ActionGenerateLabel, nil, "ops", "")
	if err != nil {
		t.Fatalf("ApplyBulk: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}
	if store.orders["a"].TrackingNumber != "FDX-OLD" {
		t.Error("existing label must not be replaced")
	}
}

func TestEventForStatus(t *testing.T) {
	cases := map[string]string{
		orders.StatusShipped:    "order.shipped",
		orders.StatusDelivered:  "order.delivered",
		orders.StatusCancelled:  "order.cancelled",
		orders.StatusProcessing: "",
		orders.StatusConfirmed:  "",
	}
	for status, want := range cases {
		if got := EventForStatus(status); got != want {
			t.Errorf("EventForStatus(%s) = %q, want %q", status, got, want)
		}
	}
}

func TestQueueNarrowsToStatus(t *testing.T) {
	store := newFakeStore(order("a", orders.StatusConfirmed))
	svc := &Service{Orders: store}

	list, stats, err := svc.Queue(context.Background(), "")
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(list) != 1 || stats.Total != 1 {
		t.Fatalf("unexpected queue: %v %+v", list, stats)
	}
}

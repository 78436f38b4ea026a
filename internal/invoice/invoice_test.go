package invoice

import (
	"errors"
	"testing"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
)

func codOrder() *orders.Order {
	return &orders.Order{
		OrderID:       "ord-1",
		OrderNumber:   "SO-1001",
		PaymentMethod: orders.MethodCOD,
		PaymentStatus: orders.PaymentPending,
		Customer: orders.Customer{
			Name:  "Aisha Khan",
			Email: "aisha@example.com",
		},
		Items: []orders.Item{
			{SKU: "MUG-01", Name: "Mug", Quantity: 2, UnitPrice: 12.50, LineTotal: 25.00},
			{SKU: "TEE-02", Name: "T-Shirt", Quantity: 1, UnitPrice: 55.00, LineTotal: 55.00},
		},
		Subtotal: 80.00,
		Shipping: 15.00,
		Tax:      5.00,
		Total:    100.00,
		Notes:    "leave at reception",
	}
}

func TestBuildInvoice(t *testing.T) {
	o := codOrder()
	inv, err := Build(o)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if inv.InvoiceNumber != "INV-SO-1001" {
		t.Errorf("invoice number = %s", inv.InvoiceNumber)
	}
	if inv.OrderID != "ord-1" || inv.OrderNumber != "SO-1001" {
		t.Errorf("order reference mismatch: %+v", inv)
	}
	if len(inv.Lines) != 2 || inv.Lines[0].SKU != "MUG-01" || inv.Lines[1].LineTotal != 55.00 {
		t.Errorf("lines mismatch: %+v", inv.Lines)
	}
	if inv.Subtotal != 80 || inv.Shipping != 15 || inv.Tax != 5 || inv.Total != 100 {
		t.Errorf("money fields mismatch: %+v", inv)
	}
	if inv.PaymentMethod != orders.MethodCOD {
		t.Errorf("payment method = %s", inv.PaymentMethod)
	}
	if inv.Notes != "leave at reception" {
		t.Errorf("notes = %q", inv.Notes)
	}
	if inv.IssuedAt.IsZero() {
		t.Error("issued_at not set")
	}
}

func TestBuildRejectsNonCOD(t *testing.T) {
	o := codOrder()
	o.PaymentMethod = orders.MethodCard
	if _, err := Build(o); !errors.Is(err, orders.ErrNotCOD) {
		t.Fatalf("expected ErrNotCOD, got %v", err)
	}
}

func TestBuildRejectsInconsistentTotals(t *testing.T) {
	o := codOrder()
	o.Total = 90.00
	if _, err := Build(o); err == nil {
		t.Fatal("expected error for inconsistent totals")
	}
}

func TestBuildHonorsDiscount(t *testing.T) {
	o := codOrder()
	o.Discount = 10.00
	o.Total = 90.00
	inv, err := Build(o)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if inv.Discount != 10 || inv.Total != 90 {
		t.Errorf("discount fields mismatch: %+v", inv)
	}
}

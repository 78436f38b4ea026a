// Package invoice assembles printable invoices for cash-on-delivery orders.
// Other payment methods get their receipt from the payment gateway, so
// invoice generation is gated on the same predicate as payment-status edits.
package invoice

import (
	"fmt"
	"time"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
)

// Line is one invoice line item.
type Line struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// Invoice is the structured document the admin UI renders for printing.
type Invoice struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	OrderID       string          `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	Customer      orders.Customer `json:"customer"`
	Lines         []Line          `json:"lines"`
	Subtotal      float64         `json:"subtotal"`
	Shipping      float64         `json:"shipping"`
	Tax           float64         `json:"tax"`
	Discount      float64         `json:"discount,omitempty"`
	Total         float64         `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes,omitempty"`
	IssuedAt      time.Time       `json:"issuedAt"`
}

// Build produces the invoice for a cod order. The money fields are copied
// verbatim from the order; a totals mismatch means the document is corrupt
// and must not be invoiced.
func Build(o *orders.Order) (*Invoice, error) {
	if o.PaymentMethod != orders.MethodCOD {
		return nil, orders.ErrNotCOD
	}
	if !o.TotalsConsistent() {
		return nil, fmt.Errorf("order %s totals are inconsistent", o.OrderID)
	}

	lines := make([]Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, Line{
			SKU:       it.SKU,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}

	return &Invoice{
		InvoiceNumber: "INV-" + o.OrderNumber,
		OrderID:       o.OrderID,
		OrderNumber:   o.OrderNumber,
		Customer:      o.Customer,
		Lines:         lines,
		Subtotal:      o.Subtotal,
		Shipping:      o.Shipping,
		Tax:           o.Tax,
		Discount:      o.Discount,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Notes:         o.Notes,
		IssuedAt:      time.Now().UTC(),
	}, nil
}

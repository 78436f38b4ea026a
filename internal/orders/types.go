package orders

import (
	"math"
	"time"
)

// Order status values. The set is closed: anything else is rejected at the
// boundary before it can reach the table.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment status values.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentPaid      = "paid"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Payment methods. Only cod payment status is admin-editable; the rest are
// driven by the gateway webhook, which lives outside this service.
const (
	MethodCOD    = "cod"
	MethodCard   = "card"
	MethodPayPal = "paypal"
	MethodStripe = "stripe"
)

// Item is a single order line, snapshotted at placement time.
type Item struct {
	ProductID string  `dynamodbav:"product_id" json:"productId"`
	SKU       string  `dynamodbav:"sku" json:"sku"`
	Name      string  `dynamodbav:"name" json:"name"`
	Quantity  int     `dynamodbav:"quantity" json:"quantity"`
	UnitPrice float64 `dynamodbav:"unit_price" json:"unitPrice"`
	LineTotal float64 `dynamodbav:"line_total" json:"lineTotal"`
}

// Address is a shipping address snapshot.
type Address struct {
	Street  string `dynamodbav:"street" json:"street"`
	City    string `dynamodbav:"city" json:"city"`
	State   string `dynamodbav:"state" json:"state"`
	ZipCode string `dynamodbav:"zip_code" json:"zipCode"`
	Country string `dynamodbav:"country" json:"country"`
}

// Customer is captured at order placement and never re-linked to the live
// profile, so later profile edits do not rewrite historical orders.
type Customer struct {
	Name    string  `dynamodbav:"name" json:"name"`
	Email   string  `dynamodbav:"email" json:"email"`
	Phone   string  `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	Address Address `dynamodbav:"address" json:"address"`
}

// HistoryEntry is one audit record in the order's embedded history. Every
// status or payment-status change appends exactly one entry.
type HistoryEntry struct {
	From  string    `dynamodbav:"from" json:"from"`
	To    string    `dynamodbav:"to" json:"to"`
	Actor string    `dynamodbav:"actor" json:"actor"`
	Note  string    `dynamodbav:"note,omitempty" json:"note,omitempty"`
	At    time.Time `dynamodbav:"at" json:"at"`
}

// ShippingLabel is the label artifact persisted on the order once issued.
type ShippingLabel struct {
	LabelID           string     `dynamodbav:"label_id" json:"labelId"`
	Carrier           string     `dynamodbav:"carrier" json:"carrier"`
	Service           string     `dynamodbav:"service" json:"serviceType"`
	TrackingNumber    string     `dynamodbav:"tracking_number" json:"trackingNumber"`
	Origin            Address    `dynamodbav:"origin" json:"origin"`
	Destination       Address    `dynamodbav:"destination" json:"destination"`
	WeightKg          float64    `dynamodbav:"weight_kg,omitempty" json:"weight,omitempty"`
	Dimensions        string     `dynamodbav:"dimensions,omitempty" json:"dimensions,omitempty"`
	EstimatedDelivery *time.Time `dynamodbav:"estimated_delivery,omitempty" json:"estimatedDelivery,omitempty"`
	Notes             string     `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
	IssuedAt          time.Time  `dynamodbav:"issued_at" json:"issuedAt"`
}

// Order is the document stored in the orders table.
type Order struct {
	OrderID     string `dynamodbav:"order_id" json:"orderId"` // PK
	OrderNumber string `dynamodbav:"order_number" json:"orderNumber"`

	Customer Customer `dynamodbav:"customer" json:"customer"`
	Items    []Item   `dynamodbav:"items" json:"items"`

	Subtotal float64 `dynamodbav:"subtotal" json:"subtotal"`
	Shipping float64 `dynamodbav:"shipping" json:"shipping"`
	Tax      float64 `dynamodbav:"tax" json:"tax"`
	Discount float64 `dynamodbav:"discount,omitempty" json:"discount,omitempty"`
	Total    float64 `dynamodbav:"total" json:"total"`

	Status        string `dynamodbav:"status" json:"status"`
	PaymentMethod string `dynamodbav:"payment_method" json:"paymentMethod"`
	PaymentStatus string `dynamodbav:"payment_status" json:"paymentStatus"`

	Label             *ShippingLabel `dynamodbav:"shipping_label,omitempty" json:"shippingLabel,omitempty"`
	TrackingNumber    string         `dynamodbav:"tracking_number,omitempty" json:"trackingNumber,omitempty"`
	ShippingCarrier   string         `dynamodbav:"shipping_carrier,omitempty" json:"shippingCarrier,omitempty"`
	ShippingService   string         `dynamodbav:"shipping_service,omitempty" json:"shippingService,omitempty"`
	EstimatedDelivery *time.Time     `dynamodbav:"estimated_delivery,omitempty" json:"estimatedDelivery,omitempty"`
	ShippedAt         *time.Time     `dynamodbav:"shipped_at,omitempty" json:"shippedAt,omitempty"`

	Notes   string         `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
	History []HistoryEntry `dynamodbav:"history,omitempty" json:"history,omitempty"`

	// Notification markers written by the worker, not the admin API.
	NotifiedAt       *time.Time `dynamodbav:"notified_at,omitempty" json:"notifiedAt,omitempty"`
	LastNotification string     `dynamodbav:"last_notification,omitempty" json:"lastNotification,omitempty"`

	// Version is bumped by every mutation; writes are conditional on the
	// version they read, so concurrent admin edits surface as a conflict
	// instead of a silent last-write-wins.
	Version int64 `dynamodbav:"version" json:"version"`

	CreatedAt time.Time `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updatedAt"`
}

// TotalsConsistent reports whether total == subtotal + shipping + tax - discount,
// compared in cents to sidestep float rounding.
func (o *Order) TotalsConsistent() bool {
	want := o.Subtotal + o.Shipping + o.Tax - o.Discount
	return toCents(want) == toCents(o.Total)
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

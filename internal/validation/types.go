package validation

import (
	"time"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
)

// StatusOverrideRequest is the payload for PUT /api/admin/orders.
type StatusOverrideRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	Reason  string `json:"reason,omitempty"`
}

// PaymentUpdateRequest is the payload for PUT /api/admin/orders/{id}/payment.
// Payment status has no ordering: any value may follow any other on a cod
// order.
type PaymentUpdateRequest struct {
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=pending confirmed paid failed refunded"`
	PaymentNotes  string `json:"paymentNotes,omitempty"`
	CollectedBy   string `json:"collectedBy,omitempty"`
}

// ShippingLabelRequest is the payload for POST /api/admin/orders/{id}/shipping-label.
type ShippingLabelRequest struct {
	Carrier           string         `json:"carrier" validate:"required"`
	ServiceType       string         `json:"serviceType,omitempty"`
	TrackingNumber    string         `json:"trackingNumber" validate:"required"`
	Origin            orders.Address `json:"origin"`
	Destination       orders.Address `json:"destination"`
	Weight            float64        `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Dimensions        string         `json:"dimensions,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimatedDelivery,omitempty"`
	Notes             string         `json:"notes,omitempty"`
}

// BulkFulfillmentData carries the shared carrier choice for bulk label
// issuance.
type BulkFulfillmentData struct {
	Carrier     string         `json:"carrier,omitempty"`
	ServiceType string         `json:"serviceType,omitempty"`
	Origin      orders.Address `json:"origin,omitempty"`
}

// BulkFulfillmentRequest is the payload for POST /api/admin/fulfillment.
type BulkFulfillmentRequest struct {
	OrderIDs        []string             `json:"orderIds" validate:"required,min=1,dive,required"`
	Action          string               `json:"action" validate:"required,oneof=start_fulfillment generate_shipping_label mark_delivered cancel_order"`
	FulfillmentData *BulkFulfillmentData `json:"fulfillmentData,omitempty"`
}

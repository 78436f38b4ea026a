package orders

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStatus means the value is outside the six-status enum.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidPaymentStatus means the value is outside the payment enum.
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	// ErrInvalidAction means the fulfillment action name is unknown.
	ErrInvalidAction = errors.New("invalid fulfillment action")
)

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

var validPaymentStatuses = map[string]bool{
	PaymentPending:   true,
	PaymentConfirmed: true,
	PaymentPaid:      true,
	PaymentFailed:    true,
	PaymentRefunded:  true,
}

// ValidateStatus rejects any value outside the closed status enum.
func ValidateStatus(s string) error {
	if !validStatuses[s] {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return nil
}

// ValidatePaymentStatus rejects any value outside the closed payment enum.
func ValidatePaymentStatus(s string) error {
	if !validPaymentStatuses[s] {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, s)
	}
	return nil
}

// Fulfillment actions used by the bulk dashboard path. Unlike the generic
// admin override, these are gated on the current status.
const (
	ActionStartFulfillment = "start_fulfillment"
	ActionGenerateLabel    = "generate_shipping_label"
	ActionMarkDelivered    = "mark_delivered"
	ActionCancelOrder      = "cancel_order"
)

// actionTransitions holds the gated transitions: each action is valid from
// exactly one status. cancel_order is handled separately because it is valid
// from any status except shipped and delivered.
var actionTransitions = map[string]struct{ From, To string }{
	ActionStartFulfillment: {From: StatusConfirmed, To: StatusProcessing},
	ActionGenerateLabel:    {From: StatusProcessing, To: StatusShipped},
	ActionMarkDelivered:    {From: StatusShipped, To: StatusDelivered},
}

// ValidateAction rejects unknown fulfillment action names.
func ValidateAction(action string) error {
	if action == ActionCancelOrder {
		return nil
	}
	if _, ok := actionTransitions[action]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	return nil
}

// CanPerformAction reports whether the action is legal from the given status.
// Shipped orders cannot be cancelled through this path: once a label is out
// the door the cancellation flow is a return, not a status flip.
func CanPerformAction(status, action string) bool {
	if action == ActionCancelOrder {
		return status != StatusDelivered && status != StatusShipped
	}
	t, ok := actionTransitions[action]
	return ok && t.From == status
}

// ActionResult returns the status an order lands in after the action.
func ActionResult(action string) (string, error) {
	if action == ActionCancelOrder {
		return StatusCancelled, nil
	}
	t, ok := actionTransitions[action]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	return t.To, nil
}

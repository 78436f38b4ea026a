package orders

import (
	"errors"
	"testing"
)

func TestValidateStatus(t *testing.T) {
	for _, s := range []string{
		StatusPending, StatusConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled,
	} {
		if err := ValidateStatus(s); err != nil {
			t.Errorf("ValidateStatus(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range []string{"", "PENDING", "completed", "returned"} {
		if err := ValidateStatus(s); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ValidateStatus(%q) = %v, want ErrInvalidStatus", s, err)
		}
	}
}

func TestValidatePaymentStatus(t *testing.T) {
	for _, s := range []string{
		PaymentPending, PaymentConfirmed, PaymentPaid,
		PaymentFailed, PaymentRefunded,
	} {
		if err := ValidatePaymentStatus(s); err != nil {
			t.Errorf("ValidatePaymentStatus(%q) = %v, want nil", s, err)
		}
	}
	if err := ValidatePaymentStatus("charged"); !errors.Is(err, ErrInvalidPaymentStatus) {
		t.Errorf("ValidatePaymentStatus(charged) = %v, want ErrInvalidPaymentStatus", err)
	}
}

func TestValidateAction(t *testing.T) {
	for _, a := range []string{
		ActionStartFulfillment, ActionGenerateLabel,
		ActionMarkDelivered, ActionCancelOrder,
	} {
		if err := ValidateAction(a); err != nil {
			t.Errorf("ValidateAction(%q) = %v, want nil", a, err)
		}
	}
	if err := ValidateAction("mark_shipped"); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("ValidateAction(mark_shipped) = %v, want ErrInvalidAction", err)
	}
}

func TestCanPerformAction(t *testing.T) {
	cases := []struct {
		status string
		action string
		want   bool
	}{
		{StatusConfirmed, ActionStartFulfillment, true},
		{StatusPending, ActionStartFulfillment, false},
		{StatusProcessing, ActionStartFulfillment, false},

		{StatusProcessing, ActionGenerateLabel, true},
		{StatusConfirmed, ActionGenerateLabel, false},
		{StatusShipped, ActionGenerateLabel, false},

		{StatusShipped, ActionMarkDelivered, true},
		{StatusProcessing, ActionMarkDelivered, false},
		{StatusDelivered, ActionMarkDelivered, false},

		{StatusPending, ActionCancelOrder, true},
		{StatusConfirmed, ActionCancelOrder, true},
		{StatusProcessing, ActionCancelOrder, true},
		{StatusCancelled, ActionCancelOrder, true},
		{StatusShipped, ActionCancelOrder, false},
		{StatusDelivered, ActionCancelOrder, false},
	}
	for _, c := range cases {
		if got := CanPerformAction(c.status, c.action); got != c.want {
			t.Errorf("CanPerformAction(%s, %s) = %v, want %v", c.status, c.action, got, c.want)
		}
	}
}

func TestActionResult(t *testing.T) {
	cases := map[string]string{
		ActionStartFulfillment: StatusProcessing,
		ActionGenerateLabel:    StatusShipped,
		ActionMarkDelivered:    StatusDelivered,
		ActionCancelOrder:      StatusCancelled,
	}
	for action, want := range cases {
		got, err := ActionResult(action)
		if err != nil {
			t.Errorf("ActionResult(%s) error: %v", action, err)
			continue
		}
		if got != want {
			t.Errorf("ActionResult(%s) = %s, want %s", action, got, want)
		}
	}
	if _, err := ActionResult("restock"); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("ActionResult(restock) = %v, want ErrInvalidAction", err)
	}
}

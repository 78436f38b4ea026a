package awsx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Lifecycle events emitted after a successful transition. The notification
// worker consumes these and dispatches customer email.
const (
	EventOrderShipped   = "order.shipped"
	EventOrderDelivered = "order.delivered"
	EventOrderCancelled = "order.cancelled"
	EventPaymentUpdated = "payment.updated"
)

// OrderEvent is the payload sent API -> SQS -> worker.
type OrderEvent struct {
	OrderID       string    `json:"order_id"`
	Event         string    `json:"event"`
	Status        string    `json:"status"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishOrderEvent JSON-encodes the event and sends it with attributes for
// consumer-side filtering. A nil Publisher is a no-op so callers don't have to
// guard every transition when the queue is not configured.
func (p *Publisher) PublishOrderEvent(ctx context.Context, ev OrderEvent) error {
	if p == nil || p.SQS == nil {
		return nil
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	messageBody := string(body)

	attrs := map[string]sqstypes.MessageAttributeValue{
		"order_id": {DataType: awsString("String"), StringValue: awsString(ev.OrderID)},
		"event":    {DataType: awsString("String"), StringValue: awsString(ev.Event)},
	}
	if ev.CorrelationID != "" {
		attrs["correlation_id"] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: awsString(ev.CorrelationID),
		}
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          &p.QueueURL,
		MessageBody:       &messageBody,
		MessageAttributes: attrs,
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }

package awsx

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics records operational counters in CloudWatch. Failures are logged,
// never propagated: a metrics outage must not fail an admin action.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetrics returns a recorder publishing under the given namespace.
func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		CloudWatch: cw,
		Namespace:  namespace,
		nowFunc:    time.Now,
	}
}

// RecordOperation counts one admin operation by name and outcome.
func (m *Metrics) RecordOperation(ctx context.Context, operation string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.put(ctx, "AdminOperations", 1, []cwtypes.Dimension{
		{Name: awsString("Operation"), Value: awsString(operation)},
		{Name: awsString("Outcome"), Value: awsString(outcome)},
	})
}

// RecordBulkAction counts processed and failed orders of one bulk request.
func (m *Metrics) RecordBulkAction(ctx context.Context, action string, processed, failed int) {
	dims := []cwtypes.Dimension{
		{Name: awsString("Action"), Value: awsString(action)},
	}
	m.put(ctx, "BulkOrdersProcessed", float64(processed), dims)
	if failed > 0 {
		m.put(ctx, "BulkOrdersFailed", float64(failed), dims)
	}
}

func (m *Metrics) put(ctx context.Context, name string, value float64, dims []cwtypes.Dimension) {
	if m == nil || m.CloudWatch == nil {
		return
	}
	now := m.nowFunc()
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &value,
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
				Timestamp:  &now,
			},
		},
	}
	if _, err := m.CloudWatch.PutMetricData(ctx, input); err != nil {
		log.Printf("put metric %s: %v", name, err)
	}
}

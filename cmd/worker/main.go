package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/awsx"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
)

func main() {
	clients, err := awsx.NewClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	store := orders.NewStore(clients.DynamoDB, os.Getenv("ORDERS_TABLE"))
	mailer := awsx.NewMailer(clients.SES, os.Getenv("NOTIFY_SENDER"))
	metrics := awsx.NewMetrics(clients.CloudWatch, os.Getenv("METRICS_NAMESPACE"))

	p := NewProcessor(store, mailer, metrics)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"order_id":"local-order-1","event":"order.shipped"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{
					Body: testBody,
				},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}

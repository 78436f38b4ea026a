package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/awsx"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/handlers"
)

func setupRouter(cfg handlers.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterAdminRoutes(r, cfg)

	return r
}

func main() {
	clients, err := awsx.NewClients(context.Background())

	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	cfg := handlers.Config{
		DynamoDB:         clients.DynamoDB,
		SQS:              clients.SQS,
		CloudWatch:       clients.CloudWatch,
		OrdersTable:      os.Getenv("ORDERS_TABLE"),
		IdempotencyTable: os.Getenv("IDEMPOTENCY_TABLE"),
		QueueURL:         os.Getenv("ORDERS_QUEUE_URL"),
		MetricsNamespace: os.Getenv("METRICS_NAMESPACE"),
		JWTSecret:        []byte(os.Getenv("ADMIN_JWT_SECRET")),
		TTLWindow:        48 * time.Hour,
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		// the adapter handles proxying; use adapter.ProxyWithContext for proper context propagation
		return adapter.ProxyWithContext(ctx, req)
	})
}

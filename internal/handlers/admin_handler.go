package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/auth"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/awsx"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/fulfillment"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/idempotency"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/invoice"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/shipping"
	"github.com/nabirdeveloper/storefront-fulfillment/internal/validation"
)

// Config groups dependencies for the admin API.
type Config struct {
	DynamoDB         awsx.DynamoDBAPI
	SQS              awsx.SQSAPI
	CloudWatch       awsx.CloudWatchAPI
	OrdersTable      string
	IdempotencyTable string
	QueueURL         string
	MetricsNamespace string
	JWTSecret        []byte
	TTLWindow        time.Duration
}

// RequestID echoes X-Request-Id, generating one when absent, so lifecycle
// events can be correlated back to the admin action that caused them.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	if v, ok := c.Get("requestID"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// RegisterAdminRoutes wires the admin fulfillment API.
func RegisterAdminRoutes(r *gin.Engine, cfg Config) {
	v := validation.New()
	store := orders.NewStore(cfg.DynamoDB, cfg.OrdersTable)
	replayGuard := idempotency.NewStore(cfg.DynamoDB, cfg.IdempotencyTable, cfg.TTLWindow)
	publisher := awsx.NewPublisher(cfg.SQS, cfg.QueueURL)
	metrics := awsx.NewMetrics(cfg.CloudWatch, cfg.MetricsNamespace)
	svc := &fulfillment.Service{
		Orders:    store,
		Publisher: publisher,
		Metrics:   metrics,
	}

	admin := r.Group("/api/admin")
	admin.Use(RequestID(), auth.AdminRequired(cfg.JWTSecret))

	admin.GET("/orders/:id", func(c *gin.Context) {
		ctx := c.Request.Context()
		o, err := store.Get(ctx, c.Param("id"))
		if err != nil {
			writeOrderError(c, err)
			return
		}
		if o == nil {
			writeOrderError(c, orders.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, o)
	})

	admin.PUT("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()
		defer recordOutcome(c, metrics, "override_status")

		var req validation.StatusOverrideRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		updated, err := store.OverrideStatus(ctx, req.OrderID, req.Status, auth.AdminName(c), req.Reason)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		notify(ctx, publisher, updated, requestID(c))
		c.JSON(http.StatusOK, gin.H{"order": updated})
	})

	admin.PUT("/orders/:id/payment", func(c *gin.Context) {
		ctx := c.Request.Context()
		defer recordOutcome(c, metrics, "update_payment")

		var req validation.PaymentUpdateRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		collectedBy := req.CollectedBy
		if collectedBy == "" {
			collectedBy = auth.AdminName(c)
		}
		updated, err := store.UpdatePaymentStatus(ctx, c.Param("id"), req.PaymentStatus, req.PaymentNotes, collectedBy)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		publishEvent(ctx, publisher, awsx.OrderEvent{
			OrderID:       updated.OrderID,
			Event:         awsx.EventPaymentUpdated,
			Status:        updated.PaymentStatus,
			CorrelationID: requestID(c),
		})
		c.JSON(http.StatusOK, gin.H{"order": updated})
	})

	admin.POST("/orders/:id/invoice", func(c *gin.Context) {
		ctx := c.Request.Context()
		defer recordOutcome(c, metrics, "generate_invoice")

		o, err := store.Get(ctx, c.Param("id"))
		if err != nil {
			writeOrderError(c, err)
			return
		}
		if o == nil {
			writeOrderError(c, orders.ErrNotFound)
			return
		}
		inv, err := invoice.Build(o)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice": inv})
	})

	admin.POST("/orders/:id/shipping-label", func(c *gin.Context) {
		ctx := c.Request.Context()
		defer recordOutcome(c, metrics, "generate_shipping_label")

		var req validation.ShippingLabelRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		label, err := shipping.NewLabel(shipping.Request{
			Carrier:           req.Carrier,
			Service:           req.ServiceType,
			TrackingNumber:    req.TrackingNumber,
			Origin:            req.Origin,
			Destination:       req.Destination,
			WeightKg:          req.Weight,
			Dimensions:        req.Dimensions,
			EstimatedDelivery: req.EstimatedDelivery,
			Notes:             req.Notes,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updated, err := store.AttachShippingLabel(ctx, c.Param("id"), label, auth.AdminName(c))
		if err != nil {
			writeOrderError(c, err)
			return
		}
		notify(ctx, publisher, updated, requestID(c))
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"shippingLabel": updated.Label,
			"order":         updated,
		})
	})

	admin.GET("/orders/:id/shipping-label/download", func(c *gin.Context) {
		ctx := c.Request.Context()
		o, err := store.Get(ctx, c.Param("id"))
		if err != nil {
			writeOrderError(c, err)
			return
		}
		if o == nil {
			writeOrderError(c, orders.ErrNotFound)
			return
		}
		if o.Label == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no_shipping_label"})
			return
		}
		pdf, err := shipping.RenderPDF(o)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "label_render_failed"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-label.pdf", o.OrderNumber))
		c.Data(http.StatusOK, "application/pdf", pdf)
	})

	admin.POST("/fulfillment", func(c *gin.Context) {
		ctx := c.Request.Context()
		defer recordOutcome(c, metrics, "bulk_fulfillment")

		var req validation.BulkFulfillmentRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		// An Idempotency-Key makes a retried batch return the first outcome
		// instead of being applied twice.
		key := c.GetHeader("Idempotency-Key")
		if key != "" {
			created, err := replayGuard.CreateIfNotExists(ctx, key, req.Action)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
				return
			}
			if !created {
				replayStored(ctx, c, replayGuard, key)
				return
			}
		}

		var data *fulfillment.LabelData
		if req.FulfillmentData != nil {
			data = &fulfillment.LabelData{
				Carrier: req.FulfillmentData.Carrier,
				Service: req.FulfillmentData.ServiceType,
				Origin:  req.FulfillmentData.Origin,
			}
		}

		processed, err := svc.ApplyBulk(ctx, req.OrderIDs, req.Action, data, auth.AdminName(c), requestID(c))
		if err != nil {
			if key != "" {
				_ = replayGuard.MarkFailed(ctx, key, err.Error())
			}
			writeOrderError(c, err)
			return
		}

		body, _ := json.Marshal(gin.H{"processed": processed})
		if key != "" {
			_ = replayGuard.MarkDone(ctx, key, string(body), http.StatusOK)
		}
		c.Data(http.StatusOK, "application/json", body)
	})

	admin.GET("/fulfillment", func(c *gin.Context) {
		ctx := c.Request.Context()
		list, stats, err := svc.Queue(ctx, c.Query("status"))
		if err != nil {
			writeOrderError(c, err)
			return
		}
		if list == nil {
			list = []orders.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": list, "stats": stats})
	})
}

func replayStored(ctx context.Context, c *gin.Context, guard *idempotency.Store, key string) {
	rec, err := guard.Get(ctx, key)
	if err != nil || rec == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func notify(ctx context.Context, p *awsx.Publisher, o *orders.Order, correlationID string) {
	event := fulfillment.EventForStatus(o.Status)
	if event == "" {
		return
	}
	publishEvent(ctx, p, awsx.OrderEvent{
		OrderID:       o.OrderID,
		Event:         event,
		Status:        o.Status,
		CorrelationID: correlationID,
	})
}

func publishEvent(ctx context.Context, p *awsx.Publisher, ev awsx.OrderEvent) {
	if err := p.PublishOrderEvent(ctx, ev); err != nil {
		// The transition already committed; losing the notification is
		// recoverable by operator resend, failing the request is not.
		log.Printf("publish %s for order %s: %v", ev.Event, ev.OrderID, err)
	}
}

func recordOutcome(c *gin.Context, m *awsx.Metrics, operation string) {
	ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
	m.RecordOperation(c.Request.Context(), operation, ok)
}

// writeOrderError maps store errors onto the HTTP surface. Anything
// unrecognized is reported as an opaque persistence failure for the operator
// to retry.
func writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
	case errors.Is(err, orders.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "order_modified_concurrently"})
	case errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, orders.ErrInvalidPaymentStatus),
		errors.Is(err, orders.ErrInvalidAction),
		errors.Is(err, shipping.ErrUnknownCarrier),
		errors.Is(err, shipping.ErrInvalidService),
		errors.Is(err, shipping.ErrTrackingRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrPrecondition),
		errors.Is(err, orders.ErrNotCOD),
		errors.Is(err, orders.ErrLabelExists):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("order operation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "persistence_failure"})
	}
}

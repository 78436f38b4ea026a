package shipping

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/orders"
)

// ErrTrackingRequired means the label request carried no tracking number.
var ErrTrackingRequired = errors.New("tracking number is required")

// Request carries the operator-supplied label fields. EstimatedDelivery is
// operator-supplied too; the service never computes it.
type Request struct {
	Carrier           string
	Service           string
	TrackingNumber    string
	Origin            orders.Address
	Destination       orders.Address
	WeightKg          float64
	Dimensions        string
	EstimatedDelivery *time.Time
	Notes             string
}

// NewLabel validates the request against the carrier catalog and builds the
// label artifact. An empty service falls back to the carrier's default.
func NewLabel(req Request) (orders.ShippingLabel, error) {
	if strings.TrimSpace(req.TrackingNumber) == "" {
		return orders.ShippingLabel{}, ErrTrackingRequired
	}
	if _, ok := carrierServices[req.Carrier]; !ok {
		return orders.ShippingLabel{}, fmt.Errorf("%w: %q", ErrUnknownCarrier, req.Carrier)
	}
	service := req.Service
	if service == "" {
		service, _ = DefaultService(req.Carrier)
	} else if !ValidPair(req.Carrier, service) {
		return orders.ShippingLabel{}, fmt.Errorf("%w: %s does not offer %q", ErrInvalidService, req.Carrier, service)
	}

	return orders.ShippingLabel{
		LabelID:           "lbl-" + uuid.NewString(),
		Carrier:           req.Carrier,
		Service:           service,
		TrackingNumber:    strings.TrimSpace(req.TrackingNumber),
		Origin:            req.Origin,
		Destination:       req.Destination,
		WeightKg:          req.WeightKg,
		Dimensions:        req.Dimensions,
		EstimatedDelivery: req.EstimatedDelivery,
		Notes:             req.Notes,
		IssuedAt:          time.Now().UTC(),
	}, nil
}

// trackingPrefixes give bulk-generated tracking numbers a carrier-plausible
// shape. Real tracking numbers come from the carrier API; this stands in for
// the mock label endpoint the dashboard talks to.
var trackingPrefixes = map[string]string{
	CarrierFedEx: "FDX",
	CarrierUPS:   "1Z",
	CarrierUSPS:  "94",
	CarrierDHL:   "JD",
}

// GenerateTrackingNumber produces a unique tracking number for bulk label
// issuance, where the operator does not key one in per order.
func GenerateTrackingNumber(carrier string) string {
	prefix, ok := trackingPrefixes[carrier]
	if !ok {
		prefix = "TRK"
	}
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + raw[:14]
}

// RenderPDF produces the printable label document for the download endpoint.
func RenderPDF(o *orders.Order) ([]byte, error) {
	if o.Label == nil {
		return nil, errors.New("order has no shipping label")
	}
	l := o.Label

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, fmt.Sprintf("%s %s", l.Carrier, l.Service))
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Tracking: "+l.TrackingNumber)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Order "+o.OrderNumber)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "From")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	writeAddress(pdf, l.Origin, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "To")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	writeAddress(pdf, l.Destination, o.Customer.Name)
	pdf.Ln(4)

	if l.WeightKg > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Weight: %.2f kg", l.WeightKg))
		pdf.Ln(6)
	}
	if l.Dimensions != "" {
		pdf.Cell(0, 6, "Dimensions: "+l.Dimensions)
		pdf.Ln(6)
	}
	if l.EstimatedDelivery != nil {
		pdf.Cell(0, 6, "Estimated delivery: "+l.EstimatedDelivery.Format("2006-01-02"))
		pdf.Ln(6)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("Label %s issued %s", l.LabelID, l.IssuedAt.Format(time.RFC3339)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render label pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAddress(pdf *fpdf.Fpdf, a orders.Address, name string) {
	if name != "" {
		pdf.Cell(0, 6, name)
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, a.Street)
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("%s, %s %s", a.City, a.State, a.ZipCode))
	pdf.Ln(6)
	if a.Country != "" {
		pdf.Cell(0, 6, a.Country)
		pdf.Ln(6)
	}
}

package shipping

import (
	"errors"
	"fmt"
)

// Supported carriers.
const (
	CarrierFedEx = "FedEx"
	CarrierUPS   = "UPS"
	CarrierUSPS  = "USPS"
	CarrierDHL   = "DHL"
)

var (
	// ErrUnknownCarrier means the carrier is not in the catalog.
	ErrUnknownCarrier = errors.New("unknown carrier")
	// ErrInvalidService means the service does not belong to the carrier.
	ErrInvalidService = errors.New("service not offered by carrier")
)

// carrierServices is the closed catalog. The first service of each carrier is
// the default a label falls back to when no service is specified, which keeps
// a (carrier, service) pair from ever going stale when the carrier changes.
var carrierServices = map[string][]string{
	CarrierFedEx: {"Ground", "Express", "Overnight", "International"},
	CarrierUPS:   {"Ground", "2nd Day Air", "Next Day Air", "Worldwide Express"},
	CarrierUSPS:  {"Priority Mail", "First Class", "Express Mail", "Media Mail"},
	CarrierDHL:   {"Express Worldwide", "Express Domestic", "Economy Select"},
}

var carrierOrder = []string{CarrierFedEx, CarrierUPS, CarrierUSPS, CarrierDHL}

// Carriers returns the supported carriers in stable order.
func Carriers() []string {
	out := make([]string, len(carrierOrder))
	copy(out, carrierOrder)
	return out
}

// Services returns the service types offered by a carrier.
func Services(carrier string) ([]string, error) {
	svcs, ok := carrierServices[carrier]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCarrier, carrier)
	}
	out := make([]string, len(svcs))
	copy(out, svcs)
	return out, nil
}

// DefaultService returns the carrier's first service type.
func DefaultService(carrier string) (string, error) {
	svcs, ok := carrierServices[carrier]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCarrier, carrier)
	}
	return svcs[0], nil
}

// ValidPair reports whether the service belongs to the carrier.
func ValidPair(carrier, service string) bool {
	for _, s := range carrierServices[carrier] {
		if s == service {
			return true
		}
	}
	return false
}

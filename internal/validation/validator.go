package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/nabirdeveloper/storefront-fulfillment/internal/shipping"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// The (carrier, serviceType) pair must stay inside the closed catalog; a
	// carrier switch with a stale service selection is rejected here rather
	// than reaching the store.
	v.RegisterStructValidation(shippingLabelStructValidation, ShippingLabelRequest{})
	v.RegisterStructValidation(bulkFulfillmentStructValidation, BulkFulfillmentRequest{})

	return v
}

func shippingLabelStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ShippingLabelRequest)
	reportBadPair(sl, req.Carrier, req.ServiceType, req.Carrier, req.ServiceType)
}

func bulkFulfillmentStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(BulkFulfillmentRequest)
	if req.FulfillmentData == nil || req.FulfillmentData.Carrier == "" {
		return
	}
	reportBadPair(sl, req.FulfillmentData.Carrier, req.FulfillmentData.ServiceType,
		req.FulfillmentData.Carrier, req.FulfillmentData.ServiceType)
}

func reportBadPair(sl validatorv10.StructLevel, carrier, service string, carrierField, serviceField interface{}) {
	if _, err := shipping.Services(carrier); err != nil {
		sl.ReportError(carrierField, "carrier", "Carrier", "known_carrier",
			fmt.Sprintf("%q is not a supported carrier", carrier))
		return
	}
	if service != "" && !shipping.ValidPair(carrier, service) {
		sl.ReportError(serviceField, "serviceType", "ServiceType", "carrier_service_pair",
			fmt.Sprintf("%s does not offer %q", carrier, service))
	}
}

package domain

import "errors"

// Sentinel errors for the order domain. Use errors.Is() to check these.
var (
	// ErrDeliveryFailed indicates an inbound event could not be processed for
	// reasons unrelated to its content. The delivery should be retried.
	ErrDeliveryFailed = errors.New("event delivery failed")
)

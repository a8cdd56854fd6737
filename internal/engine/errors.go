// Package engine implements the booking admission and lifecycle engine:
// it validates booking requests, computes prices, detects slot overlaps,
// enforces the booking state machine and runs the completion sweep.
// Persistence, payment and time are consumed through the interfaces in
// ports.go so the engine itself stays free of infrastructure concerns.
package engine

import "errors"

// Sentinel errors forming the engine's failure taxonomy. Transport
// layers compare with errors.Is and map each kind onto a protocol
// status; none of them is fatal to the process.
var (
	// ErrNotFound is returned when a referenced facility or booking
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrFacilityInactive is returned when a booking is requested
	// against a deactivated facility.
	ErrFacilityInactive = errors.New("facility inactive")

	// ErrInvalidTimeRange is returned when end <= start or the start
	// lies in the past at creation time.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrCapacityExceeded is returned when the requested party size
	// exceeds the facility capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrSlotUnavailable is returned when the requested interval
	// overlaps an existing booking in a blocking status.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrInvalidTransition is returned when a lifecycle operation is
	// not permitted from the booking's current status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPaymentFailed is returned when the payment gateway declines
	// or errors during confirmation or refund.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrConcurrencyConflict is returned when a compare-and-swap write
	// lost a race with a concurrent transition. The engine retries a
	// bounded number of times before surfacing it; callers may retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

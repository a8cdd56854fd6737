package engine

import (
	"context"
	"time"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
)

// FacilityDirectory is the read-only view of the facility catalog the
// engine consults at admission time. Facility records are mutated by
// the facility-management surface, never by the engine.
type FacilityDirectory interface {
	// GetFacility returns the facility with the given id or ErrNotFound.
	GetFacility(ctx context.Context, id uint64) (*model.Facility, error)
}

// TransitionFields carries the optional columns written alongside a
// status change. Nil pointers leave the stored value untouched.
type TransitionFields struct {
	PaymentRef         *string
	CancellationReason *string
	RefundAmountCents  *int64
	UpdatedAt          time.Time
}

// BookingStore is the durable record of bookings. Implementations must
// provide the two serializable primitives the admission contract
// depends on: CreateIfSlotFree (overlap check + insert as one unit per
// facility) and ConfirmIfSlotFree (overlap re-check + PENDING→CONFIRMED
// compare-and-swap). Transition performs a plain compare-and-swap on a
// single row and returns ErrConcurrencyConflict when the expected
// status no longer matches at write time.
type BookingStore interface {
	// CreateIfSlotFree atomically verifies that no booking in a
	// blocking status overlaps b's half-open interval on the same
	// facility and inserts b. On success b.ID, b.CreatedAt and
	// b.UpdatedAt are populated. Returns ErrSlotUnavailable when the
	// slot is taken.
	CreateIfSlotFree(ctx context.Context, b *model.Booking, blocking []model.BookingStatus) error

	// ConfirmIfSlotFree atomically re-checks the overlap predicate for
	// booking id — excluding the booking itself — and swaps
	// PENDING→CONFIRMED, recording the payment reference. Returns
	// ErrSlotUnavailable on overlap, ErrConcurrencyConflict when the
	// booking is no longer PENDING, ErrNotFound when it does not exist.
	ConfirmIfSlotFree(ctx context.Context, id uint64, paymentRef string, blocking []model.BookingStatus, now time.Time) (*model.Booking, error)

	// Transition swaps the booking's status from "from" to "to",
	// applying fields, conditional on the row still holding "from" at
	// write time. Returns the updated booking, ErrNotFound, or
	// ErrConcurrencyConflict when the guard fails.
	Transition(ctx context.Context, id uint64, from, to model.BookingStatus, fields TransitionFields) (*model.Booking, error)

	// SweepCompleted moves every CONFIRMED booking whose end time is
	// strictly before now to COMPLETED and returns how many rows were
	// advanced. It must be idempotent and safe to run concurrently
	// with itself and with Transition.
	SweepCompleted(ctx context.Context, now time.Time) (int64, error)

	// CountOverlapping returns the number of bookings on the facility
	// in a blocking status whose interval intersects [start, end),
	// excluding excludeID when non-zero.
	CountOverlapping(ctx context.Context, facilityID uint64, start, end time.Time, blocking []model.BookingStatus, excludeID uint64) (int, error)

	// GetByID returns a booking or ErrNotFound.
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)

	// ListByUser returns the user's bookings ordered by id ascending.
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)

	// ListByFacility returns the facility's bookings ordered by id ascending.
	ListByFacility(ctx context.Context, facilityID uint64) ([]model.Booking, error)

	// ListByStatus returns all bookings in the given status ordered by id ascending.
	ListByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error)

	// ListUpcoming returns the facility's CONFIRMED bookings starting
	// at or after "after", ordered by start time ascending.
	ListUpcoming(ctx context.Context, facilityID uint64, after time.Time) ([]model.Booking, error)
}

// PaymentGateway is the opaque charge capability invoked at
// confirmation and refund time. The engine never inspects provider
// responses beyond the returned reference.
type PaymentGateway interface {
	// Authorize places a charge authorization for the booking's amount
	// and returns an opaque payment reference.
	Authorize(ctx context.Context, bookingID uint64, amountCents int64) (string, error)

	// Refund returns amountCents against a previously authorized
	// payment reference.
	Refund(ctx context.Context, paymentRef string, amountCents int64) error
}

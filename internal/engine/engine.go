package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/clock"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
)

// maxTransitionRetries bounds how often a lifecycle operation is
// retried internally after losing a compare-and-swap race before
// ErrConcurrencyConflict is surfaced to the caller.
const maxTransitionRetries = 3

// Engine decides whether a requested slot may be booked, computes the
// price and governs the booking state machine. It is safe for use by
// concurrent request handlers: all check-then-write sequences are
// delegated to the store's serializable primitives, and every status
// change is guarded by a compare-and-swap on the expected prior status.
type Engine struct {
	facilities FacilityDirectory
	store      BookingStore
	payments   PaymentGateway
	clock      clock.Clock
	refunds    RefundPolicy
	log        *slog.Logger
}

// New constructs an Engine. All dependencies except log must be
// non-nil; a nil log falls back to slog.Default().
func New(facilities FacilityDirectory, store BookingStore, payments PaymentGateway, clk clock.Clock, refunds RefundPolicy, log *slog.Logger) *Engine {
	if facilities == nil || store == nil || payments == nil || clk == nil || refunds == nil {
		panic("nil dependency passed to engine.New")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		facilities: facilities,
		store:      store,
		payments:   payments,
		clock:      clk,
		refunds:    refunds,
		log:        log,
	}
}

// CreateRequest carries the caller-supplied fields of a new booking.
// The total amount is always computed by the engine, never accepted
// from the caller.
type CreateRequest struct {
	FacilityID   uint64
	UserID       string
	StartTime    time.Time
	EndTime      time.Time
	PartySize    uint32
	Purpose      string
	Requirements *string
}

// CreateBooking validates the request, prices the interval and inserts
// a PENDING booking if — and only if — no blocking booking overlaps the
// requested half-open interval on the same facility. The overlap check
// and the insert execute as a single serializable unit inside the
// store, so two concurrent calls for overlapping windows cannot both
// succeed.
func (e *Engine) CreateBooking(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	now := e.clock.Now()
	start := req.StartTime.UTC()
	end := req.EndTime.UTC()
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidTimeRange)
	}
	if start.Before(now) {
		return nil, fmt.Errorf("%w: start is in the past", ErrInvalidTimeRange)
	}

	fac, err := e.facilities.GetFacility(ctx, req.FacilityID)
	if err != nil {
		return nil, err
	}
	if !fac.IsActive {
		return nil, ErrFacilityInactive
	}
	if req.PartySize > fac.Capacity {
		return nil, fmt.Errorf("%w: party of %d exceeds capacity %d", ErrCapacityExceeded, req.PartySize, fac.Capacity)
	}

	b := &model.Booking{
		FacilityID:       req.FacilityID,
		UserID:           req.UserID,
		StartTime:        start,
		EndTime:          end,
		PartySize:        req.PartySize,
		Purpose:          req.Purpose,
		Requirements:     req.Requirements,
		TotalAmountCents: model.QuoteCents(fac.HourlyRateCents, start, end),
		Status:           model.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.store.CreateIfSlotFree(ctx, b, model.BlockingStatuses); err != nil {
		return nil, err
	}
	e.log.Info("booking created",
		"booking_id", b.ID,
		"facility_id", b.FacilityID,
		"user_id", b.UserID,
		"amount", model.FormatCents(b.TotalAmountCents),
	)
	return b, nil
}

// Confirm authorizes payment for a PENDING booking and moves it to
// CONFIRMED. Because PENDING bookings reserve their slot, the overlap
// predicate is evaluated again atomically with the status swap; if a
// competing booking won the slot in the meantime the confirmation
// fails with ErrSlotUnavailable.
func (e *Engine) Confirm(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: cannot confirm a %s booking", ErrInvalidTransition, b.Status)
	}

	ref, err := e.payments.Authorize(ctx, b.ID, b.TotalAmountCents)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		updated, err := e.store.ConfirmIfSlotFree(ctx, id, ref, model.BlockingStatuses, e.clock.Now())
		if errors.Is(err, ErrConcurrencyConflict) {
			cur, readErr := e.store.GetByID(ctx, id)
			if readErr != nil {
				return nil, readErr
			}
			if cur.Status != model.StatusPending {
				return nil, fmt.Errorf("%w: cannot confirm a %s booking", ErrInvalidTransition, cur.Status)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		e.log.Info("booking confirmed", "booking_id", id, "payment_ref", ref)
		return updated, nil
	}
	return nil, ErrConcurrencyConflict
}

// Reject declines a PENDING booking. Rejection is terminal; the row is
// kept for auditing.
func (e *Engine) Reject(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := e.transition(ctx, id, model.StatusPending, model.StatusRejected, TransitionFields{})
	if err != nil {
		return nil, err
	}
	e.log.Info("booking rejected", "booking_id", id)
	return b, nil
}

// Cancel withdraws a CONFIRMED booking, records the reason and stores
// the refund owed under the configured refund policy. PENDING bookings
// cannot be cancelled; use Reject instead.
func (e *Engine) Cancel(ctx context.Context, id uint64, reason string) (*model.Booking, error) {
	b, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.StatusConfirmed {
		return nil, fmt.Errorf("%w: cannot cancel a %s booking", ErrInvalidTransition, b.Status)
	}
	refund := e.refunds.RefundCents(b, e.clock.Now())
	updated, err := e.transition(ctx, id, model.StatusConfirmed, model.StatusCancelled, TransitionFields{
		CancellationReason: &reason,
		RefundAmountCents:  &refund,
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("booking cancelled", "booking_id", id, "refund", model.FormatCents(refund))
	return updated, nil
}

// Refund settles the refund of a CANCELLED booking through the payment
// gateway and moves it to REFUNDED. Bookings without a payment
// reference or with nothing owed cannot be refunded.
func (e *Engine) Refund(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.StatusCancelled {
		return nil, fmt.Errorf("%w: cannot refund a %s booking", ErrInvalidTransition, b.Status)
	}
	if b.PaymentRef == nil || b.RefundAmountCents == nil || *b.RefundAmountCents <= 0 {
		return nil, fmt.Errorf("%w: no refund owed", ErrInvalidTransition)
	}
	if err := e.payments.Refund(ctx, *b.PaymentRef, *b.RefundAmountCents); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	updated, err := e.transition(ctx, id, model.StatusCancelled, model.StatusRefunded, TransitionFields{})
	if err != nil {
		return nil, err
	}
	e.log.Info("booking refunded", "booking_id", id, "amount", model.FormatCents(*b.RefundAmountCents))
	return updated, nil
}

// ProcessCompletions advances every CONFIRMED booking whose end time
// has passed to COMPLETED and reports how many rows moved. The sweep
// is idempotent: re-running it over already-COMPLETED rows changes
// nothing and returns no error.
func (e *Engine) ProcessCompletions(ctx context.Context) (int64, error) {
	return e.store.SweepCompleted(ctx, e.clock.Now())
}

// IsSlotAvailable reports whether [start, end) on the facility is free
// of blocking bookings. It applies the same half-open overlap predicate
// as CreateBooking but has no side effects.
func (e *Engine) IsSlotAvailable(ctx context.Context, facilityID uint64, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, fmt.Errorf("%w: end must be after start", ErrInvalidTimeRange)
	}
	n, err := e.store.CountOverlapping(ctx, facilityID, start.UTC(), end.UTC(), model.BlockingStatuses, 0)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// GetBooking returns a booking by id.
func (e *Engine) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return e.store.GetByID(ctx, id)
}

// BookingsByUser lists a user's bookings in id order.
func (e *Engine) BookingsByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return e.store.ListByUser(ctx, userID)
}

// BookingsByFacility lists a facility's bookings in id order.
func (e *Engine) BookingsByFacility(ctx context.Context, facilityID uint64) ([]model.Booking, error) {
	return e.store.ListByFacility(ctx, facilityID)
}

// BookingsByStatus lists all bookings holding the given status in id order.
func (e *Engine) BookingsByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrNotFound, status)
	}
	return e.store.ListByStatus(ctx, status)
}

// UpcomingBookings lists the facility's CONFIRMED bookings that start
// at or after the current instant, ascending by start time.
func (e *Engine) UpcomingBookings(ctx context.Context, facilityID uint64) ([]model.Booking, error) {
	return e.store.ListUpcoming(ctx, facilityID, e.clock.Now())
}

// transition performs a guarded status change. The expected prior
// status is verified on a fresh read and enforced again by the store's
// compare-and-swap; a lost race is retried a bounded number of times
// as long as the booking still holds the expected status.
func (e *Engine) transition(ctx context.Context, id uint64, from, to model.BookingStatus, fields TransitionFields) (*model.Booking, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		cur, err := e.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status != from {
			return nil, fmt.Errorf("%w: %s -> %s not permitted from %s", ErrInvalidTransition, from, to, cur.Status)
		}
		fields.UpdatedAt = e.clock.Now()
		updated, err := e.store.Transition(ctx, id, from, to, fields)
		if errors.Is(err, ErrConcurrencyConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrConcurrencyConflict
}

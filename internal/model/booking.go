package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking. A booking
// is created PENDING and is only ever moved along the edges defined in
// the transition table below; rows are never deleted, terminal states
// preserve the audit trail.
type BookingStatus string

// Booking lifecycle states.
const (
	StatusPending   BookingStatus = "PENDING"   // created, awaiting confirmation or rejection
	StatusConfirmed BookingStatus = "CONFIRMED" // payment authorized, slot is committed
	StatusRejected  BookingStatus = "REJECTED"  // declined while pending; terminal
	StatusCancelled BookingStatus = "CANCELLED" // confirmed booking withdrawn by the requester
	StatusCompleted BookingStatus = "COMPLETED" // end time passed; terminal
	StatusRefunded  BookingStatus = "REFUNDED"  // cancellation refund settled; terminal
)

// transitions is the complete edge set of the booking state machine.
// Any (from, to) pair absent from this table is an illegal transition.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusRejected},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {StatusRefunded},
}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted, StatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving
// from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing edges.
func (s BookingStatus) Terminal() bool { return len(transitions[s]) == 0 }

// BlockingStatuses is the set of statuses that count toward overlap
// conflicts. PENDING blocks as well as CONFIRMED so that two holds on
// the same slot cannot coexist; the overlap check is repeated at
// confirm time as a second line of defense.
var BlockingStatuses = []BookingStatus{StatusPending, StatusConfirmed}

// Booking is a reservation of one facility for a half-open time
// interval [StartTime, EndTime), attached to a single requester.
//
// Fields:
//  ID                 – primary key identifier, assigned on creation.
//  FacilityID         – facility being booked (read-only reference).
//  UserID             – opaque requester identity.
//  StartTime          – beginning of the reserved interval (UTC).
//  EndTime            – end of the reserved interval, exclusive (UTC).
//  PartySize          – number of people attending.
//  Purpose            – free-form purpose supplied by the requester.
//  Requirements       – optional additional requirements.
//  TotalAmountCents   – computed charge in cents; never user supplied.
//  Status             – current lifecycle state.
//  CancellationReason – optional reason recorded on cancellation.
//  PaymentRef         – opaque payment-intent correlation id.
//  RefundAmountCents  – refund owed, computed by the refund policy on cancel.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last transition timestamp.
type Booking struct {
	ID                 uint64        `json:"id"`                            // bookings.id
	FacilityID         uint64        `json:"facility_id"`                   // bookings.facility_id
	UserID             string        `json:"user_id"`                       // bookings.user_id
	StartTime          time.Time     `json:"start_time"`                    // bookings.start_time
	EndTime            time.Time     `json:"end_time"`                      // bookings.end_time
	PartySize          uint32        `json:"party_size"`                    // bookings.party_size
	Purpose            string        `json:"purpose"`                       // bookings.purpose
	Requirements       *string       `json:"requirements,omitempty"`        // bookings.requirements (nullable)
	TotalAmountCents   int64         `json:"total_amount_cents"`            // bookings.total_amount_cents
	Status             BookingStatus `json:"status"`                        // bookings.status
	CancellationReason *string       `json:"cancellation_reason,omitempty"` // bookings.cancellation_reason (nullable)
	PaymentRef         *string       `json:"payment_ref,omitempty"`         // bookings.payment_ref (nullable)
	RefundAmountCents  *int64        `json:"refund_amount_cents,omitempty"` // bookings.refund_amount_cents (nullable)
	CreatedAt          time.Time     `json:"created_at"`                    // bookings.created_at
	UpdatedAt          time.Time     `json:"updated_at"`                    // bookings.updated_at
}

// Overlaps reports whether the booking's interval intersects
// [start, end) under half-open semantics: a booking ending exactly at
// start (or starting exactly at end) does not overlap, so back-to-back
// bookings never conflict.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

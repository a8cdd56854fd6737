// Package queue defines message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// BookingConfirmedQueue and BookingCancelledQueue are the durable
// queue names lifecycle events are published to.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published when a booking is confirmed. It
// carries enough for downstream consumers (audit, notification,
// analytics) to act without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64 `json:"booking_id"`
	FacilityID       uint64 `json:"facility_id"`
	FacilityName     string `json:"facility_name"`
	UserID           string `json:"user_id"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	PaymentRef       string `json:"payment_ref"`
	ConfirmedAt      string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a confirmed booking is
// cancelled, including the refund the requester is owed.
type BookingCancelledEvent struct {
	BookingID         uint64 `json:"booking_id"`
	FacilityID        uint64 `json:"facility_id"`
	UserID            string `json:"user_id"`
	Reason            string `json:"reason"`
	RefundAmountCents int64  `json:"refund_amount_cents"`
	CancelledAt       string `json:"cancelled_at"`
}

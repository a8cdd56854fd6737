package engine

import (
	"time"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
)

// RefundPolicy decides how much of a cancelled booking's charge is
// returned. The policy is a configuration point: swapping the
// implementation changes refund behavior without touching the engine.
type RefundPolicy interface {
	// RefundCents returns the refund owed in cents for cancelling b at
	// the given instant. Zero means no refund.
	RefundCents(b *model.Booking, now time.Time) int64
}

// CutoffRefundPolicy grants a full refund when the cancellation
// happens at least Cutoff before the booking starts, and nothing
// afterwards.
type CutoffRefundPolicy struct {
	Cutoff time.Duration
}

// RefundCents implements RefundPolicy.
func (p CutoffRefundPolicy) RefundCents(b *model.Booking, now time.Time) int64 {
	if b.StartTime.Sub(now) >= p.Cutoff {
		return b.TotalAmountCents
	}
	return 0
}

// NoRefundPolicy never refunds anything.
type NoRefundPolicy struct{}

// RefundCents implements RefundPolicy.
func (NoRefundPolicy) RefundCents(*model.Booking, time.Time) int64 { return 0 }

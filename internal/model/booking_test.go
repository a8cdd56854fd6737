package model

import (
	"testing"
	"time"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := []struct{ from, to BookingStatus }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusRejected},
		{StatusConfirmed, StatusCancelled},
		{StatusConfirmed, StatusCompleted},
		{StatusCancelled, StatusRefunded},
	}
	isAllowed := func(from, to BookingStatus) bool {
		for _, e := range allowed {
			if e.from == from && e.to == to {
				return true
			}
		}
		return false
	}

	all := []BookingStatus{StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted, StatusRefunded}
	for _, from := range all {
		for _, to := range all {
			got := from.CanTransitionTo(to)
			if got != isAllowed(from, to) {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, !got)
			}
		}
	}
}

func TestTerminal(t *testing.T) {
	cases := map[BookingStatus]bool{
		StatusPending:   false,
		StatusConfirmed: false,
		StatusRejected:  true,
		StatusCancelled: false, // may still be refunded
		StatusCompleted: true,
		StatusRefunded:  true,
	}
	for s, want := range cases {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []BookingStatus{StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted, StatusRefunded} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if BookingStatus("ARCHIVED").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	at := func(h int) time.Time {
		return time.Date(2026, 9, 1, h, 0, 0, 0, time.UTC)
	}
	b := &Booking{StartTime: at(10), EndTime: at(12)}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical window", at(10), at(12), true},
		{"contained", at(10).Add(30 * time.Minute), at(11), true},
		{"straddles start", at(9), at(11), true},
		{"straddles end", at(11), at(13), true},
		{"back-to-back before", at(8), at(10), false},
		{"back-to-back after", at(12), at(14), false},
		{"disjoint before", at(6), at(8), false},
		{"disjoint after", at(13), at(15), false},
	}
	for _, tc := range cases {
		if got := b.Overlaps(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

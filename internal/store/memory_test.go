package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/engine"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
)

var epoch = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func hour(h int) time.Time { return epoch.Add(time.Duration(h) * time.Hour) }

func seedBooking(t *testing.T, m *Memory, facilityID uint64, userID string, start, end time.Time, status model.BookingStatus) *model.Booking {
	t.Helper()
	b := &model.Booking{
		FacilityID: facilityID,
		UserID:     userID,
		StartTime:  start,
		EndTime:    end,
		PartySize:  1,
		Status:     model.StatusPending,
	}
	if err := m.CreateIfSlotFree(context.Background(), b, nil); err != nil {
		t.Fatalf("CreateIfSlotFree: %v", err)
	}
	if status != model.StatusPending {
		m.mu.Lock()
		m.bookings[b.ID].Status = status
		m.mu.Unlock()
		b.Status = status
	}
	return b
}

func TestCreateIfSlotFreeBlocksOverlap(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seedBooking(t, m, 1, "u1", hour(2), hour(4), model.StatusPending)

	overlap := &model.Booking{FacilityID: 1, UserID: "u2", StartTime: hour(3), EndTime: hour(5), Status: model.StatusPending}
	err := m.CreateIfSlotFree(ctx, overlap, model.BlockingStatuses)
	if !errors.Is(err, engine.ErrSlotUnavailable) {
		t.Fatalf("err = %v, want ErrSlotUnavailable", err)
	}

	// Other facility, same window: fine.
	other := &model.Booking{FacilityID: 2, UserID: "u2", StartTime: hour(3), EndTime: hour(5), Status: model.StatusPending}
	if err := m.CreateIfSlotFree(ctx, other, model.BlockingStatuses); err != nil {
		t.Fatalf("other facility: %v", err)
	}

	// Adjacent window on the same facility: fine.
	adjacent := &model.Booking{FacilityID: 1, UserID: "u2", StartTime: hour(4), EndTime: hour(6), Status: model.StatusPending}
	if err := m.CreateIfSlotFree(ctx, adjacent, model.BlockingStatuses); err != nil {
		t.Fatalf("adjacent window: %v", err)
	}
}

func TestNonBlockingStatusesFreeTheSlot(t *testing.T) {
	ctx := context.Background()
	for _, status := range []model.BookingStatus{model.StatusRejected, model.StatusCancelled, model.StatusCompleted, model.StatusRefunded} {
		m := NewMemory()
		seedBooking(t, m, 1, "u1", hour(2), hour(4), status)
		b := &model.Booking{FacilityID: 1, UserID: "u2", StartTime: hour(2), EndTime: hour(4), Status: model.StatusPending}
		if err := m.CreateIfSlotFree(ctx, b, model.BlockingStatuses); err != nil {
			t.Errorf("%s should not block: %v", status, err)
		}
	}
}

func TestConfirmIfSlotFree(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	b := seedBooking(t, m, 1, "u1", hour(2), hour(4), model.StatusPending)

	now := hour(1)
	confirmed, err := m.ConfirmIfSlotFree(ctx, b.ID, "pi_123", model.BlockingStatuses, now)
	if err != nil {
		t.Fatalf("ConfirmIfSlotFree: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", confirmed.Status)
	}
	if confirmed.PaymentRef == nil || *confirmed.PaymentRef != "pi_123" {
		t.Fatalf("payment ref = %v", confirmed.PaymentRef)
	}
	if !confirmed.UpdatedAt.Equal(now) {
		t.Fatalf("updated at = %v, want %v", confirmed.UpdatedAt, now)
	}

	// No longer PENDING: the compare-and-swap fails.
	if _, err := m.ConfirmIfSlotFree(ctx, b.ID, "pi_456", model.BlockingStatuses, now); !errors.Is(err, engine.ErrConcurrencyConflict) {
		t.Fatalf("second confirm: err = %v, want ErrConcurrencyConflict", err)
	}
	if _, err := m.ConfirmIfSlotFree(ctx, 999, "pi", model.BlockingStatuses, now); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("missing id: err = %v, want ErrNotFound", err)
	}
}

func TestTransitionCompareAndSwap(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	b := seedBooking(t, m, 1, "u1", hour(2), hour(4), model.StatusConfirmed)

	reason := "weather"
	refund := int64(5000)
	now := hour(1)
	updated, err := m.Transition(ctx, b.ID, model.StatusConfirmed, model.StatusCancelled, engine.TransitionFields{
		CancellationReason: &reason,
		RefundAmountCents:  &refund,
		UpdatedAt:          now,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != model.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", updated.Status)
	}
	if updated.CancellationReason == nil || *updated.CancellationReason != reason {
		t.Fatalf("reason = %v", updated.CancellationReason)
	}
	if updated.RefundAmountCents == nil || *updated.RefundAmountCents != refund {
		t.Fatalf("refund = %v", updated.RefundAmountCents)
	}

	// Guard no longer holds.
	if _, err := m.Transition(ctx, b.ID, model.StatusConfirmed, model.StatusCompleted, engine.TransitionFields{UpdatedAt: now}); !errors.Is(err, engine.ErrConcurrencyConflict) {
		t.Fatalf("stale guard: err = %v, want ErrConcurrencyConflict", err)
	}
	if _, err := m.Transition(ctx, 999, model.StatusPending, model.StatusRejected, engine.TransitionFields{UpdatedAt: now}); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("missing id: err = %v, want ErrNotFound", err)
	}
}

func TestSweepCompleted(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	past := seedBooking(t, m, 1, "u1", hour(2), hour(4), model.StatusConfirmed)
	ending := seedBooking(t, m, 1, "u1", hour(4), hour(6), model.StatusConfirmed)
	pendingPast := seedBooking(t, m, 2, "u1", hour(2), hour(4), model.StatusPending)

	n, err := m.SweepCompleted(ctx, hour(6))
	if err != nil {
		t.Fatalf("SweepCompleted: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept = %d, want 1 (end == now must not complete)", n)
	}
	for id, want := range map[uint64]model.BookingStatus{
		past.ID:        model.StatusCompleted,
		ending.ID:      model.StatusConfirmed,
		pendingPast.ID: model.StatusPending,
	} {
		cur, _ := m.GetByID(ctx, id)
		if cur.Status != want {
			t.Errorf("booking %d status = %s, want %s", id, cur.Status, want)
		}
	}

	n, _ = m.SweepCompleted(ctx, hour(6))
	if n != 0 {
		t.Fatalf("repeat sweep = %d, want 0", n)
	}
}

func TestCountOverlappingExcludesSelf(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	b := seedBooking(t, m, 1, "u1", hour(2), hour(4), model.StatusPending)

	n, err := m.CountOverlapping(ctx, 1, hour(2), hour(4), model.BlockingStatuses, b.ID)
	if err != nil || n != 0 {
		t.Fatalf("excluding self: n = %d, err = %v", n, err)
	}
	n, _ = m.CountOverlapping(ctx, 1, hour(2), hour(4), model.BlockingStatuses, 0)
	if n != 1 {
		t.Fatalf("including self: n = %d, want 1", n)
	}
}

func TestListOrdering(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	b1 := seedBooking(t, m, 1, "alice", hour(10), hour(12), model.StatusConfirmed)
	b2 := seedBooking(t, m, 1, "alice", hour(4), hour(6), model.StatusConfirmed)
	seedBooking(t, m, 1, "bob", hour(14), hour(16), model.StatusPending)

	byUser, err := m.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(byUser) != 2 || byUser[0].ID != b1.ID || byUser[1].ID != b2.ID {
		t.Fatalf("ListByUser order: %v", ids(byUser))
	}

	upcoming, err := m.ListUpcoming(ctx, 1, hour(0))
	if err != nil {
		t.Fatal(err)
	}
	// Ascending by start time, PENDING excluded.
	if len(upcoming) != 2 || upcoming[0].ID != b2.ID || upcoming[1].ID != b1.ID {
		t.Fatalf("ListUpcoming order: %v", ids(upcoming))
	}

	upcoming, _ = m.ListUpcoming(ctx, 1, hour(10))
	if len(upcoming) != 1 || upcoming[0].ID != b1.ID {
		t.Fatalf("ListUpcoming after cutoff: %v", ids(upcoming))
	}
}

func ids(bs []model.Booking) []uint64 {
	out := make([]uint64, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

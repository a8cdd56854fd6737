package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/engine"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/store"
)

// stepClock is a settable clock so tests can move time forward.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// fakeGateway records authorizations and refunds. Authorization can be
// made to fail to exercise the payment error path.
type fakeGateway struct {
	mu            sync.Mutex
	failAuthorize bool
	authorized    []uint64
	refunded      []int64
}

func (g *fakeGateway) Authorize(_ context.Context, bookingID uint64, _ int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failAuthorize {
		return "", errors.New("card declined")
	}
	g.authorized = append(g.authorized, bookingID)
	return fmt.Sprintf("pi_test_%d", bookingID), nil
}

func (g *fakeGateway) Refund(_ context.Context, _ string, amountCents int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunded = append(g.refunded, amountCents)
	return nil
}

var baseTime = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

// at returns an instant h hours after the test epoch.
func at(h int) time.Time { return baseTime.Add(time.Duration(h) * time.Hour) }

func newTestEngine(t *testing.T) (*engine.Engine, *store.Memory, *fakeGateway, *stepClock) {
	t.Helper()
	mem := store.NewMemory()
	mem.PutFacility(&model.Facility{
		Name:            "Town Hall",
		Type:            model.FacilityHall,
		Address:         "1 Main St",
		HourlyRateCents: 10000,
		Capacity:        100,
		IsActive:        true,
	})
	gw := &fakeGateway{}
	clk := &stepClock{t: baseTime}
	eng := engine.New(mem, mem, gw, clk, engine.CutoffRefundPolicy{Cutoff: 24 * time.Hour}, nil)
	return eng, mem, gw, clk
}

func mustCreate(t *testing.T, eng *engine.Engine, facilityID uint64, start, end time.Time) *model.Booking {
	t.Helper()
	b, err := eng.CreateBooking(context.Background(), engine.CreateRequest{
		FacilityID: facilityID,
		UserID:     "user-1",
		StartTime:  start,
		EndTime:    end,
		PartySize:  10,
		Purpose:    "meeting",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	return b
}

func TestCreateBookingPricesAndPends(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	b := mustCreate(t, eng, 1, at(2), at(2).Add(90*time.Minute))
	if b.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if b.Status != model.StatusPending {
		t.Fatalf("status = %s, want PENDING", b.Status)
	}
	if b.TotalAmountCents != 15000 {
		t.Fatalf("total = %d, want 15000", b.TotalAmountCents)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	eng, mem, _, _ := newTestEngine(t)
	mem.PutFacility(&model.Facility{
		ID: 2, Name: "Closed Park", Type: model.FacilityPark, Address: "2 Side St",
		HourlyRateCents: 5000, Capacity: 50, IsActive: false,
	})
	ctx := context.Background()

	cases := []struct {
		name string
		req  engine.CreateRequest
		want error
	}{
		{
			"end before start",
			engine.CreateRequest{FacilityID: 1, UserID: "u", StartTime: at(4), EndTime: at(2), PartySize: 1},
			engine.ErrInvalidTimeRange,
		},
		{
			"zero duration",
			engine.CreateRequest{FacilityID: 1, UserID: "u", StartTime: at(2), EndTime: at(2), PartySize: 1},
			engine.ErrInvalidTimeRange,
		},
		{
			"start in the past",
			engine.CreateRequest{FacilityID: 1, UserID: "u", StartTime: at(-2), EndTime: at(-1), PartySize: 1},
			engine.ErrInvalidTimeRange,
		},
		{
			"unknown facility",
			engine.CreateRequest{FacilityID: 99, UserID: "u", StartTime: at(2), EndTime: at(3), PartySize: 1},
			engine.ErrNotFound,
		},
		{
			"inactive facility",
			engine.CreateRequest{FacilityID: 2, UserID: "u", StartTime: at(2), EndTime: at(3), PartySize: 1},
			engine.ErrFacilityInactive,
		},
		{
			"party exceeds capacity",
			engine.CreateRequest{FacilityID: 1, UserID: "u", StartTime: at(2), EndTime: at(3), PartySize: 101},
			engine.ErrCapacityExceeded,
		},
	}
	for _, tc := range cases {
		if _, err := eng.CreateBooking(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

// A PENDING booking reserves its slot just like a CONFIRMED one, and
// the slot only frees when the booking leaves a blocking status.
func TestPendingBlocksOverlappingCreate(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	b1 := mustCreate(t, eng, 1, at(2), at(4))

	overlapping := engine.CreateRequest{
		FacilityID: 1, UserID: "user-2", StartTime: at(3), EndTime: at(5), PartySize: 5,
	}
	if _, err := eng.CreateBooking(ctx, overlapping); !errors.Is(err, engine.ErrSlotUnavailable) {
		t.Fatalf("overlapping create against PENDING: err = %v, want ErrSlotUnavailable", err)
	}

	if _, err := eng.Confirm(ctx, b1.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := eng.CreateBooking(ctx, overlapping); !errors.Is(err, engine.ErrSlotUnavailable) {
		t.Fatalf("overlapping create against CONFIRMED: err = %v, want ErrSlotUnavailable", err)
	}

	if _, err := eng.Cancel(ctx, b1.ID, "plans changed"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := eng.CreateBooking(ctx, overlapping); err != nil {
		t.Fatalf("create after cancel: %v", err)
	}
}

func TestBackToBackBookingsDoNotConflict(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	mustCreate(t, eng, 1, at(2), at(4))
	mustCreate(t, eng, 1, at(4), at(6)) // starts exactly when the first ends
	mustCreate(t, eng, 1, at(1), at(2)) // ends exactly when the first starts
}

func TestConfirmAuthorizesPayment(t *testing.T) {
	eng, _, gw, _ := newTestEngine(t)
	ctx := context.Background()
	b := mustCreate(t, eng, 1, at(2), at(4))

	confirmed, err := eng.Confirm(ctx, b.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", confirmed.Status)
	}
	if confirmed.PaymentRef == nil || *confirmed.PaymentRef != fmt.Sprintf("pi_test_%d", b.ID) {
		t.Fatalf("payment ref = %v, want pi_test_%d", confirmed.PaymentRef, b.ID)
	}
	if len(gw.authorized) != 1 || gw.authorized[0] != b.ID {
		t.Fatalf("gateway authorized = %v", gw.authorized)
	}
}

func TestConfirmPaymentFailureLeavesPending(t *testing.T) {
	eng, mem, gw, _ := newTestEngine(t)
	ctx := context.Background()
	b := mustCreate(t, eng, 1, at(2), at(4))

	gw.failAuthorize = true
	if _, err := eng.Confirm(ctx, b.ID); !errors.Is(err, engine.ErrPaymentFailed) {
		t.Fatalf("err = %v, want ErrPaymentFailed", err)
	}
	cur, err := mem.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Status != model.StatusPending {
		t.Fatalf("status after failed payment = %s, want PENDING", cur.Status)
	}

	// The slot stays reserved and the booking can be confirmed later.
	gw.failAuthorize = false
	if _, err := eng.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("retry Confirm: %v", err)
	}
}

func TestConfirmRequiresPending(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	b := mustCreate(t, eng, 1, at(2), at(4))
	if _, err := eng.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := eng.Confirm(ctx, b.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("second Confirm: err = %v, want ErrInvalidTransition", err)
	}
}

func TestRejectPendingOnly(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	b := mustCreate(t, eng, 1, at(2), at(4))
	rejected, err := eng.Reject(ctx, b.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != model.StatusRejected {
		t.Fatalf("status = %s, want REJECTED", rejected.Status)
	}

	// Rejection frees the slot.
	b2 := mustCreate(t, eng, 1, at(2), at(4))
	if _, err := eng.Confirm(ctx, b2.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := eng.Reject(ctx, b2.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("Reject confirmed: err = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelRecordsReasonAndRefund(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	// Start is 48h out, beyond the 24h cutoff: full refund.
	b := mustCreate(t, eng, 1, at(48), at(50))
	if _, err := eng.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	cancelled, err := eng.Cancel(ctx, b.ID, "event called off")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != "event called off" {
		t.Fatalf("reason = %v", cancelled.CancellationReason)
	}
	if cancelled.RefundAmountCents == nil || *cancelled.RefundAmountCents != cancelled.TotalAmountCents {
		t.Fatalf("refund = %v, want full %d", cancelled.RefundAmountCents, cancelled.TotalAmountCents)
	}

	// Start is 2h out, inside the cutoff: nothing back.
	late := mustCreate(t, eng, 1, at(2), at(4))
	if _, err := eng.Confirm(ctx, late.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	lateCancelled, err := eng.Cancel(ctx, late.ID, "too late")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if lateCancelled.RefundAmountCents == nil || *lateCancelled.RefundAmountCents != 0 {
		t.Fatalf("late refund = %v, want 0", lateCancelled.RefundAmountCents)
	}
}

func TestCancelRequiresConfirmed(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	b := mustCreate(t, eng, 1, at(2), at(4))
	if _, err := eng.Cancel(ctx, b.ID, "no"); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("Cancel pending: err = %v, want ErrInvalidTransition", err)
	}
}

func TestRefundSettlesThroughGateway(t *testing.T) {
	eng, _, gw, _ := newTestEngine(t)
	ctx := context.Background()

	b := mustCreate(t, eng, 1, at(48), at(50))
	if _, err := eng.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := eng.Cancel(ctx, b.ID, "called off"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	refunded, err := eng.Refund(ctx, b.ID)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunded.Status != model.StatusRefunded {
		t.Fatalf("status = %s, want REFUNDED", refunded.Status)
	}
	if len(gw.refunded) != 1 || gw.refunded[0] != b.TotalAmountCents {
		t.Fatalf("gateway refunds = %v, want [%d]", gw.refunded, b.TotalAmountCents)
	}

	// Re-refunding a REFUNDED booking is rejected.
	if _, err := eng.Refund(ctx, b.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("double Refund: err = %v, want ErrInvalidTransition", err)
	}
}

func TestRefundWithNothingOwed(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	// Cancelled inside the cutoff: refund recorded as zero.
	b := mustCreate(t, eng, 1, at(2), at(4))
	if _, err := eng.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := eng.Cancel(ctx, b.ID, "too late"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := eng.Refund(ctx, b.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("Refund with zero owed: err = %v, want ErrInvalidTransition", err)
	}
}

func TestProcessCompletionsIdempotent(t *testing.T) {
	eng, _, _, clk := newTestEngine(t)
	ctx := context.Background()

	b1 := mustCreate(t, eng, 1, at(2), at(4))
	b2 := mustCreate(t, eng, 1, at(6), at(8))
	if _, err := eng.Confirm(ctx, b1.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := eng.Confirm(ctx, b2.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	// Move past b1's end but before b2's.
	clk.Set(at(5))
	n, err := eng.ProcessCompletions(ctx)
	if err != nil {
		t.Fatalf("ProcessCompletions: %v", err)
	}
	if n != 1 {
		t.Fatalf("completed = %d, want 1", n)
	}
	cur, _ := eng.GetBooking(ctx, b1.ID)
	if cur.Status != model.StatusCompleted {
		t.Fatalf("b1 status = %s, want COMPLETED", cur.Status)
	}
	cur, _ = eng.GetBooking(ctx, b2.ID)
	if cur.Status != model.StatusConfirmed {
		t.Fatalf("b2 status = %s, want CONFIRMED", cur.Status)
	}

	// A second sweep over the same instant moves nothing.
	n, err = eng.ProcessCompletions(ctx)
	if err != nil {
		t.Fatalf("ProcessCompletions: %v", err)
	}
	if n != 0 {
		t.Fatalf("repeat sweep completed = %d, want 0", n)
	}

	// A booking ending exactly at the sweep instant is not completed yet.
	clk.Set(at(8))
	n, _ = eng.ProcessCompletions(ctx)
	if n != 0 {
		t.Fatalf("sweep at exact end completed = %d, want 0", n)
	}
}

func TestConcurrentOverlappingCreates(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := eng.CreateBooking(ctx, engine.CreateRequest{
				FacilityID: 1,
				UserID:     fmt.Sprintf("user-%d", i),
				StartTime:  at(2),
				EndTime:    at(4),
				PartySize:  1,
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else if !errors.Is(err, engine.ErrSlotUnavailable) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("created = %d, want exactly 1", created)
	}
}

func TestIsSlotAvailable(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	mustCreate(t, eng, 1, at(2), at(4))

	free, err := eng.IsSlotAvailable(ctx, 1, at(3), at(5))
	if err != nil || free {
		t.Fatalf("overlapping window: free = %v, err = %v", free, err)
	}
	free, err = eng.IsSlotAvailable(ctx, 1, at(4), at(6))
	if err != nil || !free {
		t.Fatalf("adjacent window: free = %v, err = %v", free, err)
	}
	if _, err := eng.IsSlotAvailable(ctx, 1, at(4), at(4)); !errors.Is(err, engine.ErrInvalidTimeRange) {
		t.Fatalf("empty window: err = %v, want ErrInvalidTimeRange", err)
	}
}

func TestBookingsByStatusRejectsUnknown(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	if _, err := eng.BookingsByStatus(context.Background(), model.BookingStatus("ARCHIVED")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestUpcomingBookingsOrderedByStart(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	later := mustCreate(t, eng, 1, at(10), at(12))
	earlier := mustCreate(t, eng, 1, at(4), at(6))
	for _, id := range []uint64{later.ID, earlier.ID} {
		if _, err := eng.Confirm(ctx, id); err != nil {
			t.Fatalf("Confirm: %v", err)
		}
	}
	// A PENDING booking must not appear in the upcoming list.
	mustCreate(t, eng, 1, at(14), at(16))

	items, err := eng.UpcomingBookings(ctx, 1)
	if err != nil {
		t.Fatalf("UpcomingBookings: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].ID != earlier.ID || items[1].ID != later.ID {
		t.Fatalf("order = [%d, %d], want [%d, %d]", items[0].ID, items[1].ID, earlier.ID, later.ID)
	}
}

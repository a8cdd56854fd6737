// Package store provides an in-memory implementation of the booking
// engine's storage ports. A single mutex serializes every
// check-then-write sequence, which makes the overlap-check-and-insert
// and compare-and-swap guarantees trivial to uphold. It backs the
// engine's test suite and is handy for local development without a
// database.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/engine"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
)

// Memory holds facilities and bookings in maps guarded by one mutex.
// It implements engine.BookingStore and engine.FacilityDirectory.
type Memory struct {
	mu         sync.Mutex
	facilities map[uint64]*model.Facility
	bookings   map[uint64]*model.Booking
	nextFacID  uint64
	nextBookID uint64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		facilities: make(map[uint64]*model.Facility),
		bookings:   make(map[uint64]*model.Booking),
	}
}

// PutFacility inserts or replaces a facility record, assigning an id
// when the record has none. It stands in for the external
// facility-management collaborator.
func (m *Memory) PutFacility(f *model.Facility) *model.Facility {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == 0 {
		m.nextFacID++
		f.ID = m.nextFacID
	} else if f.ID > m.nextFacID {
		m.nextFacID = f.ID
	}
	cp := *f
	m.facilities[f.ID] = &cp
	return f
}

// GetFacility implements engine.FacilityDirectory.
func (m *Memory) GetFacility(_ context.Context, id uint64) (*model.Facility, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facilities[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

// CreateIfSlotFree implements engine.BookingStore. The overlap check
// and the insert happen under the same lock acquisition, so two
// concurrent creates for intersecting windows cannot both pass.
func (m *Memory) CreateIfSlotFree(_ context.Context, b *model.Booking, blocking []model.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlapCount(b.FacilityID, b.StartTime, b.EndTime, blocking, 0) > 0 {
		return engine.ErrSlotUnavailable
	}
	m.nextBookID++
	b.ID = m.nextBookID
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

// ConfirmIfSlotFree implements engine.BookingStore.
func (m *Memory) ConfirmIfSlotFree(_ context.Context, id uint64, paymentRef string, blocking []model.BookingStatus, now time.Time) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	if b.Status != model.StatusPending {
		return nil, engine.ErrConcurrencyConflict
	}
	if m.overlapCount(b.FacilityID, b.StartTime, b.EndTime, blocking, id) > 0 {
		return nil, engine.ErrSlotUnavailable
	}
	b.Status = model.StatusConfirmed
	ref := paymentRef
	b.PaymentRef = &ref
	b.UpdatedAt = now
	cp := *b
	return &cp, nil
}

// Transition implements engine.BookingStore with compare-and-swap
// semantics on the expected prior status.
func (m *Memory) Transition(_ context.Context, id uint64, from, to model.BookingStatus, fields engine.TransitionFields) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	if b.Status != from {
		return nil, engine.ErrConcurrencyConflict
	}
	b.Status = to
	if fields.PaymentRef != nil {
		ref := *fields.PaymentRef
		b.PaymentRef = &ref
	}
	if fields.CancellationReason != nil {
		reason := *fields.CancellationReason
		b.CancellationReason = &reason
	}
	if fields.RefundAmountCents != nil {
		amount := *fields.RefundAmountCents
		b.RefundAmountCents = &amount
	}
	b.UpdatedAt = fields.UpdatedAt
	cp := *b
	return &cp, nil
}

// SweepCompleted implements engine.BookingStore. Only CONFIRMED rows
// with an end time strictly before now move, so repeated sweeps are
// no-ops.
func (m *Memory) SweepCompleted(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		if b.Status == model.StatusConfirmed && b.EndTime.Before(now) {
			b.Status = model.StatusCompleted
			b.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// CountOverlapping implements engine.BookingStore.
func (m *Memory) CountOverlapping(_ context.Context, facilityID uint64, start, end time.Time, blocking []model.BookingStatus, excludeID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlapCount(facilityID, start, end, blocking, excludeID), nil
}

// GetByID implements engine.BookingStore.
func (m *Memory) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// ListByUser implements engine.BookingStore; results are in id order.
func (m *Memory) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	return m.list(func(b *model.Booking) bool { return b.UserID == userID }, byID), nil
}

// ListByFacility implements engine.BookingStore; results are in id order.
func (m *Memory) ListByFacility(_ context.Context, facilityID uint64) ([]model.Booking, error) {
	return m.list(func(b *model.Booking) bool { return b.FacilityID == facilityID }, byID), nil
}

// ListByStatus implements engine.BookingStore; results are in id order.
func (m *Memory) ListByStatus(_ context.Context, status model.BookingStatus) ([]model.Booking, error) {
	return m.list(func(b *model.Booking) bool { return b.Status == status }, byID), nil
}

// ListUpcoming implements engine.BookingStore; results are ascending
// by start time.
func (m *Memory) ListUpcoming(_ context.Context, facilityID uint64, after time.Time) ([]model.Booking, error) {
	return m.list(func(b *model.Booking) bool {
		return b.FacilityID == facilityID && b.Status == model.StatusConfirmed && !b.StartTime.Before(after)
	}, byStart), nil
}

type orderBy int

const (
	byID orderBy = iota
	byStart
)

// list copies every booking matching keep and sorts it for
// deterministic output. Callers hold no lock; list takes it.
func (m *Memory) list(keep func(*model.Booking) bool, order orderBy) []model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if order == byStart {
			if !out[i].StartTime.Equal(out[j].StartTime) {
				return out[i].StartTime.Before(out[j].StartTime)
			}
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// overlapCount applies the half-open interval predicate. Callers must
// hold the mutex.
func (m *Memory) overlapCount(facilityID uint64, start, end time.Time, blocking []model.BookingStatus, excludeID uint64) int {
	blocked := make(map[model.BookingStatus]bool, len(blocking))
	for _, s := range blocking {
		blocked[s] = true
	}
	n := 0
	for _, b := range m.bookings {
		if b.ID == excludeID || b.FacilityID != facilityID || !blocked[b.Status] {
			continue
		}
		if b.Overlaps(start, end) {
			n++
		}
	}
	return n
}

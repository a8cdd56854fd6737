package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/engine"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
)

// BookingRepo is the MySQL implementation of engine.BookingStore.
//
// The admission contract is upheld by locking the parent facility row
// (SELECT ... FOR UPDATE) before running the overlap check: every
// overlap-check-then-write sequence for a facility serializes on that
// row lock, so two concurrent creates for intersecting windows cannot
// both commit. Status changes use compare-and-swap UPDATEs conditioned
// on the expected prior status.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for callers that need to compose
// transactions across repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, facility_id, user_id, start_time, end_time, party_size,
	purpose, requirements, total_amount_cents, status, cancellation_reason,
	payment_ref, refund_amount_cents, created_at, updated_at`

// scanBooking reads one booking row.
func scanBooking(s interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var requirements, reason, payRef sql.NullString
	var refund sql.NullInt64
	err := s.Scan(
		&b.ID, &b.FacilityID, &b.UserID, &b.StartTime, &b.EndTime, &b.PartySize,
		&b.Purpose, &requirements, &b.TotalAmountCents, &b.Status, &reason,
		&payRef, &refund, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if requirements.Valid {
		v := requirements.String
		b.Requirements = &v
	}
	if reason.Valid {
		v := reason.String
		b.CancellationReason = &v
	}
	if payRef.Valid {
		v := payRef.String
		b.PaymentRef = &v
	}
	if refund.Valid {
		v := refund.Int64
		b.RefundAmountCents = &v
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	return &b, nil
}

// statusArgs expands a status set into SQL placeholders and args.
func statusArgs(statuses []model.BookingStatus) (string, []any) {
	ph := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		ph[i] = "?"
		args[i] = string(s)
	}
	return strings.Join(ph, ","), args
}

// lockFacilityTx takes the facility row lock that serializes all
// admission decisions for one facility. Returns engine.ErrNotFound
// when the facility does not exist.
func lockFacilityTx(ctx context.Context, tx *sql.Tx, facilityID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM facilities WHERE id = ? FOR UPDATE`, facilityID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.ErrNotFound
	}
	return err
}

// overlapCountTx evaluates the half-open overlap predicate inside tx:
// [s1,e1) and [s2,e2) intersect iff s1 < e2 AND s2 < e1.
func overlapCountTx(ctx context.Context, tx *sql.Tx, facilityID uint64, start, end time.Time, blocking []model.BookingStatus, excludeID uint64) (int, error) {
	ph, args := statusArgs(blocking)
	q := `SELECT COUNT(*) FROM bookings
	      WHERE facility_id = ? AND status IN (` + ph + `)
	        AND start_time < ? AND end_time > ?`
	all := append([]any{facilityID}, args...)
	all = append(all, end, start)
	if excludeID != 0 {
		q += ` AND id <> ?`
		all = append(all, excludeID)
	}
	var n int
	if err := tx.QueryRowContext(ctx, q, all...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateIfSlotFree implements engine.BookingStore. The facility row
// lock, the overlap check and the insert commit or roll back together.
func (r *BookingRepo) CreateIfSlotFree(ctx context.Context, b *model.Booking, blocking []model.BookingStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockFacilityTx(ctx, tx, b.FacilityID); err != nil {
		return err
	}
	n, err := overlapCountTx(ctx, tx, b.FacilityID, b.StartTime, b.EndTime, blocking, 0)
	if err != nil {
		return err
	}
	if n > 0 {
		return engine.ErrSlotUnavailable
	}

	const ins = `INSERT INTO bookings
		(facility_id, user_id, start_time, end_time, party_size, purpose, requirements,
		 total_amount_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins,
		b.FacilityID, b.UserID, b.StartTime, b.EndTime, b.PartySize, b.Purpose, b.Requirements,
		b.TotalAmountCents, string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	// Read the row back so DB-normalized values land on the model.
	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	created, err := scanBooking(tx.QueryRowContext(ctx, sel, b.ID))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*b = *created
	return nil
}

// ConfirmIfSlotFree implements engine.BookingStore. The booking row is
// locked first, then the facility row, then the overlap predicate is
// re-evaluated excluding the booking itself before the PENDING to
// CONFIRMED swap commits.
func (r *BookingRepo) ConfirmIfSlotFree(ctx context.Context, id uint64, paymentRef string, blocking []model.BookingStatus, now time.Time) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var facilityID uint64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT facility_id, status FROM bookings WHERE id = ? FOR UPDATE`, id,
	).Scan(&facilityID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if model.BookingStatus(status) != model.StatusPending {
		return nil, engine.ErrConcurrencyConflict
	}

	if err := lockFacilityTx(ctx, tx, facilityID); err != nil {
		return nil, err
	}
	var start, end time.Time
	if err := tx.QueryRowContext(ctx,
		`SELECT start_time, end_time FROM bookings WHERE id = ?`, id,
	).Scan(&start, &end); err != nil {
		return nil, err
	}
	n, err := overlapCountTx(ctx, tx, facilityID, start.UTC(), end.UTC(), blocking, id)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, engine.ErrSlotUnavailable
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, payment_ref = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(model.StatusConfirmed), paymentRef, now, id, string(model.StatusPending),
	)
	if err != nil {
		return nil, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, engine.ErrConcurrencyConflict
	}

	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	confirmed, err := scanBooking(tx.QueryRowContext(ctx, sel, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return confirmed, nil
}

// Transition implements engine.BookingStore. The UPDATE is conditioned
// on the expected prior status; zero affected rows means either the
// booking is gone or another writer got there first.
func (r *BookingRepo) Transition(ctx context.Context, id uint64, from, to model.BookingStatus, fields engine.TransitionFields) (*model.Booking, error) {
	const q = `UPDATE bookings
		SET status = ?,
		    payment_ref = COALESCE(?, payment_ref),
		    cancellation_reason = COALESCE(?, cancellation_reason),
		    refund_amount_cents = COALESCE(?, refund_amount_cents),
		    updated_at = ?
		WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q,
		string(to), fields.PaymentRef, fields.CancellationReason, fields.RefundAmountCents,
		fields.UpdatedAt, id, string(from),
	)
	if err != nil {
		return nil, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, engine.ErrConcurrencyConflict
	}
	return r.GetByID(ctx, id)
}

// SweepCompleted implements engine.BookingStore as one idempotent
// statement; rows already COMPLETED never match the WHERE clause.
func (r *BookingRepo) SweepCompleted(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE bookings SET status = ?, updated_at = ?
	           WHERE status = ? AND end_time < ?`
	res, err := r.db.ExecContext(ctx, q,
		string(model.StatusCompleted), now, string(model.StatusConfirmed), now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountOverlapping implements engine.BookingStore without taking locks;
// it backs the read-only availability check.
func (r *BookingRepo) CountOverlapping(ctx context.Context, facilityID uint64, start, end time.Time, blocking []model.BookingStatus, excludeID uint64) (int, error) {
	ph, args := statusArgs(blocking)
	q := `SELECT COUNT(*) FROM bookings
	      WHERE facility_id = ? AND status IN (` + ph + `)
	        AND start_time < ? AND end_time > ?`
	all := append([]any{facilityID}, args...)
	all = append(all, end, start)
	if excludeID != 0 {
		q += ` AND id <> ?`
		all = append(all, excludeID)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, all...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetByID implements engine.BookingStore.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// listQuery runs a booking SELECT and scans all rows.
func (r *BookingRepo) listQuery(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser implements engine.BookingStore; insertion (id) order.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return r.listQuery(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY id`, userID)
}

// ListByFacility implements engine.BookingStore; insertion (id) order.
func (r *BookingRepo) ListByFacility(ctx context.Context, facilityID uint64) ([]model.Booking, error) {
	return r.listQuery(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE facility_id = ? ORDER BY id`, facilityID)
}

// ListByStatus implements engine.BookingStore; insertion (id) order.
func (r *BookingRepo) ListByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error) {
	return r.listQuery(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = ? ORDER BY id`, string(status))
}

// ListUpcoming implements engine.BookingStore; ascending start time,
// id as the tiebreaker for determinism.
func (r *BookingRepo) ListUpcoming(ctx context.Context, facilityID uint64, after time.Time) ([]model.Booking, error) {
	return r.listQuery(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE facility_id = ? AND status = ? AND start_time >= ?
		 ORDER BY start_time, id`,
		facilityID, string(model.StatusConfirmed), after)
}

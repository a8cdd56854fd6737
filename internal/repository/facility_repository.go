// Package repository contains the MySQL data access layer. Each
// repository struct wraps a *sql.DB and exposes context-aware methods;
// multi-statement sequences that must be atomic run inside explicit
// transactions with SELECT ... FOR UPDATE row locks. All timestamps
// are stored and compared in UTC.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/engine"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
)

// FacilityRepo provides persistence for the facility catalog. It
// serves double duty: the booking engine reads it through the
// engine.FacilityDirectory interface, and the facility-management
// handlers use the full CRUD surface.
type FacilityRepo struct {
	db *sql.DB
}

// NewFacilityRepo constructs a FacilityRepo with the given DB handle.
func NewFacilityRepo(db *sql.DB) *FacilityRepo { return &FacilityRepo{db: db} }

const facilityColumns = `id, name, type, address, description, hourly_rate_cents,
	opens_at, closes_at, capacity, is_active, has_parking, has_catering, amenities,
	created_at, updated_at`

// scanFacility reads one facility row from a *sql.Row or *sql.Rows.
func scanFacility(s interface{ Scan(...any) error }) (*model.Facility, error) {
	var f model.Facility
	var opens, closes, amenities sql.NullString
	err := s.Scan(
		&f.ID, &f.Name, &f.Type, &f.Address, &f.Description, &f.HourlyRateCents,
		&opens, &closes, &f.Capacity, &f.IsActive, &f.HasParking, &f.HasCatering, &amenities,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if opens.Valid {
		v := opens.String
		f.OpensAt = &v
	}
	if closes.Valid {
		v := closes.String
		f.ClosesAt = &v
	}
	if amenities.Valid {
		v := amenities.String
		f.Amenities = &v
	}
	return &f, nil
}

// GetFacility implements engine.FacilityDirectory. It returns
// engine.ErrNotFound when no facility exists with the given id.
func (r *FacilityRepo) GetFacility(ctx context.Context, id uint64) (*model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities WHERE id = ?`
	f, err := scanFacility(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Create inserts a new facility. New facilities start active. The
// generated id and DB timestamps are populated on f.
func (r *FacilityRepo) Create(ctx context.Context, f *model.Facility) error {
	const q = `INSERT INTO facilities
		(name, type, address, description, hourly_rate_cents, opens_at, closes_at,
		 capacity, is_active, has_parking, has_catering, amenities)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		f.Name, f.Type, f.Address, f.Description, f.HourlyRateCents,
		f.OpensAt, f.ClosesAt, f.Capacity, f.HasParking, f.HasCatering, f.Amenities,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	// Read the row back so defaults and timestamps are filled in.
	const sel = `SELECT ` + facilityColumns + ` FROM facilities WHERE id = ?`
	created, err := scanFacility(r.db.QueryRowContext(ctx, sel, f.ID))
	if err != nil {
		return err
	}
	*f = *created
	return nil
}

// Update replaces the mutable fields of a facility. The active flag is
// managed separately through SetActive/ToggleActive and is left
// untouched. Returns engine.ErrNotFound when the id does not exist.
func (r *FacilityRepo) Update(ctx context.Context, f *model.Facility) error {
	const q = `UPDATE facilities
		SET name = ?, type = ?, address = ?, description = ?, hourly_rate_cents = ?,
		    opens_at = ?, closes_at = ?, capacity = ?, has_parking = ?, has_catering = ?,
		    amenities = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		f.Name, f.Type, f.Address, f.Description, f.HourlyRateCents,
		f.OpensAt, f.ClosesAt, f.Capacity, f.HasParking, f.HasCatering, f.Amenities,
		f.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also zero for a no-op update, so check existence.
		if _, err := r.GetFacility(ctx, f.ID); err != nil {
			return err
		}
	}
	updated, err := r.GetFacility(ctx, f.ID)
	if err != nil {
		return err
	}
	*f = *updated
	return nil
}

// listQuery runs a facility SELECT and scans all rows.
func (r *FacilityRepo) listQuery(ctx context.Context, q string, args ...any) ([]model.Facility, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Facility, 0)
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every facility ordered by id.
func (r *FacilityRepo) ListAll(ctx context.Context) ([]model.Facility, error) {
	return r.listQuery(ctx, `SELECT `+facilityColumns+` FROM facilities ORDER BY id`)
}

// ListByType returns all facilities of the given type ordered by id.
func (r *FacilityRepo) ListByType(ctx context.Context, t model.FacilityType) ([]model.Facility, error) {
	return r.listQuery(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE type = ? ORDER BY id`, t)
}

// ListActive returns facilities currently accepting bookings, ordered by id.
func (r *FacilityRepo) ListActive(ctx context.Context) ([]model.Facility, error) {
	return r.listQuery(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE is_active = TRUE ORDER BY id`)
}

// SearchByAddress returns facilities whose address contains the given
// fragment, case-insensitively, ordered by id.
func (r *FacilityRepo) SearchByAddress(ctx context.Context, fragment string) ([]model.Facility, error) {
	return r.listQuery(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE LOWER(address) LIKE LOWER(CONCAT('%', ?, '%')) ORDER BY id`,
		fragment,
	)
}

// SetActive flips the facility's active flag to the given value.
// Deactivated facilities reject new bookings but keep their history.
func (r *FacilityRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	const q = `UPDATE facilities SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetFacility(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ToggleActive inverts the facility's active flag.
func (r *FacilityRepo) ToggleActive(ctx context.Context, id uint64) error {
	const q = `UPDATE facilities SET is_active = NOT is_active, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

package model

import "time"

// FacilityType categorizes a bookable facility. The set mirrors the
// kinds of public infrastructure the platform manages.
type FacilityType string

// Known facility types. The column is stored as a plain string so new
// types can be introduced without a migration.
const (
	FacilityHall        FacilityType = "HALL"
	FacilityPark        FacilityType = "PARK"
	FacilityCrematorium FacilityType = "CREMATORIUM"
	FacilityGuestHouse  FacilityType = "GUEST_HOUSE"
	FacilityStadium     FacilityType = "STADIUM"
)

// Valid reports whether t is one of the known facility types.
func (t FacilityType) Valid() bool {
	switch t {
	case FacilityHall, FacilityPark, FacilityCrematorium, FacilityGuestHouse, FacilityStadium:
		return true
	}
	return false
}

// Facility represents a bookable physical resource such as a hall,
// park or stadium. Bookings reference facilities read-only; the
// booking engine consults the hourly rate, capacity and active flag
// at admission time and never mutates the record itself.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – human readable facility name.
//  Type            – facility category (HALL, PARK, ...).
//  Address         – street address of the facility.
//  Description     – free-form description shown to users.
//  HourlyRateCents – price per hour in cents.
//  OpensAt         – optional daily opening time ("15:04", nil when unrestricted).
//  ClosesAt        – optional daily closing time ("15:04", nil when unrestricted).
//  Capacity        – maximum number of people admitted per booking.
//  IsActive        – whether the facility accepts new bookings.
//  HasParking      – whether on-site parking is available.
//  HasCatering     – whether catering can be arranged.
//  Amenities       – optional JSON string of extra amenities.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Facility struct {
	ID              uint64       `json:"id"`                  // facilities.id
	Name            string       `json:"name"`                // facilities.name
	Type            FacilityType `json:"type"`                // facilities.type
	Address         string       `json:"address"`             // facilities.address
	Description     string       `json:"description"`         // facilities.description
	HourlyRateCents int64        `json:"hourly_rate_cents"`   // facilities.hourly_rate_cents
	OpensAt         *string      `json:"opens_at,omitempty"`  // facilities.opens_at (nullable)
	ClosesAt        *string      `json:"closes_at,omitempty"` // facilities.closes_at (nullable)
	Capacity        uint32       `json:"capacity"`            // facilities.capacity
	IsActive        bool         `json:"is_active"`           // facilities.is_active
	HasParking      bool         `json:"has_parking"`         // facilities.has_parking
	HasCatering     bool         `json:"has_catering"`        // facilities.has_catering
	Amenities       *string      `json:"amenities,omitempty"` // facilities.amenities (nullable)
	CreatedAt       time.Time    `json:"created_at"`          // facilities.created_at
	UpdatedAt       time.Time    `json:"updated_at"`          // facilities.updated_at
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/engine"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/repository"
)

// FacilityHandler exposes the facility catalog: creation, updates,
// listing/search and the active flag that gates new bookings.
type FacilityHandler struct {
	Repo *repository.FacilityRepo
}

// NewFacilityHandler constructs a FacilityHandler. Repo must be non-nil.
func NewFacilityHandler(repo *repository.FacilityRepo) *FacilityHandler {
	if repo == nil {
		panic("nil repository passed to NewFacilityHandler")
	}
	return &FacilityHandler{Repo: repo}
}

// facilityBody is the request payload for creating or updating a
// facility. The active flag is not part of the payload; it is managed
// through the dedicated activate/deactivate endpoints.
type facilityBody struct {
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Address         string  `json:"address"`
	Description     string  `json:"description"`
	HourlyRateCents int64   `json:"hourly_rate_cents"`
	OpensAt         *string `json:"opens_at"`
	ClosesAt        *string `json:"closes_at"`
	Capacity        uint32  `json:"capacity"`
	HasParking      bool    `json:"has_parking"`
	HasCatering     bool    `json:"has_catering"`
	Amenities       *string `json:"amenities"`
}

// validate checks the payload and returns a user-facing message when a
// field is unacceptable.
func (b *facilityBody) validate() string {
	if strings.TrimSpace(b.Name) == "" {
		return "name is required"
	}
	if !model.FacilityType(b.Type).Valid() {
		return "unknown facility type"
	}
	if strings.TrimSpace(b.Address) == "" {
		return "address is required"
	}
	if b.HourlyRateCents < 0 {
		return "hourly_rate_cents must not be negative"
	}
	if b.Capacity == 0 {
		return "capacity must be positive"
	}
	return ""
}

func (b *facilityBody) apply(f *model.Facility) {
	f.Name = strings.TrimSpace(b.Name)
	f.Type = model.FacilityType(b.Type)
	f.Address = strings.TrimSpace(b.Address)
	f.Description = b.Description
	f.HourlyRateCents = b.HourlyRateCents
	f.OpensAt = b.OpensAt
	f.ClosesAt = b.ClosesAt
	f.Capacity = b.Capacity
	f.HasParking = b.HasParking
	f.HasCatering = b.HasCatering
	f.Amenities = b.Amenities
}

// Create handles POST /v1/facilities. New facilities start active.
// Returns 201 with the stored record including generated id and
// timestamps.
func (h *FacilityHandler) Create(c echo.Context) error {
	var body facilityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	var f model.Facility
	body.apply(&f)
	if err := h.Repo.Create(c.Request().Context(), &f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create facility"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": f})
}

// Get handles GET /v1/facilities/:id.
func (h *FacilityHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	f, err := h.Repo.GetFacility(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch facility"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": f})
}

// List handles GET /v1/facilities. Optional query filters:
// ?type=HALL restricts by facility type, ?active=true restricts to
// facilities accepting bookings, ?address=main searches addresses
// case-insensitively. Filters are mutually exclusive; type wins over
// active, active over address.
func (h *FacilityHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		items []model.Facility
		err   error
	)
	switch {
	case c.QueryParam("type") != "":
		t := model.FacilityType(c.QueryParam("type"))
		if !t.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown facility type"})
		}
		items, err = h.Repo.ListByType(ctx, t)
	case c.QueryParam("active") == "true":
		items, err = h.Repo.ListActive(ctx)
	case c.QueryParam("address") != "":
		items, err = h.Repo.SearchByAddress(ctx, c.QueryParam("address"))
	default:
		items, err = h.Repo.ListAll(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list facilities"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Update handles PUT /v1/facilities/:id. The whole mutable record is
// replaced; the active flag is left untouched.
func (h *FacilityHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	var body facilityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	f := model.Facility{ID: id}
	body.apply(&f)
	if err := h.Repo.Update(c.Request().Context(), &f); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update facility"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": f})
}

// Activate handles POST /v1/facilities/:id/activate.
func (h *FacilityHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

// Deactivate handles POST /v1/facilities/:id/deactivate. Existing
// bookings are untouched; only new admissions are refused.
func (h *FacilityHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *FacilityHandler) setActive(c echo.Context, active bool) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	if err := h.Repo.SetActive(c.Request().Context(), id, active); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update facility"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": active})
}

// Toggle handles POST /v1/facilities/:id/toggle and inverts the
// facility's active flag.
func (h *FacilityHandler) Toggle(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	ctx := c.Request().Context()
	if err := h.Repo.ToggleActive(ctx, id); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update facility"})
	}
	f, err := h.Repo.GetFacility(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch facility"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": f.IsActive})
}

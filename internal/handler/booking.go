package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/engine"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/model"
	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/queue"
	publisher "github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/service"
)

// publishTimeout bounds the fire-and-forget event publish that runs
// after the HTTP response is already decided.
const publishTimeout = 5 * time.Second

// BookingHandler exposes the booking lifecycle over HTTP: slot
// admission, confirmation with payment, rejection, cancellation with
// refund calculation, refund settlement and the completion sweep. All
// decisions are made by the engine; the handler only translates
// between HTTP and engine calls and emits lifecycle events.
type BookingHandler struct {
	Engine     *engine.Engine
	Facilities engine.FacilityDirectory
}

// NewBookingHandler constructs a BookingHandler. Both dependencies
// must be non-nil.
func NewBookingHandler(eng *engine.Engine, facilities engine.FacilityDirectory) *BookingHandler {
	if eng == nil || facilities == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: eng, Facilities: facilities}
}

// bookingError maps engine sentinel errors onto HTTP responses. The
// wrapped message is passed through so callers see which rule failed.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, engine.ErrInvalidTimeRange),
		errors.Is(err, engine.ErrCapacityExceeded):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrFacilityInactive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "facility is not accepting bookings"})
	case errors.Is(err, engine.ErrSlotUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "requested slot is not available"})
	case errors.Is(err, engine.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrConcurrencyConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking was modified concurrently, retry"})
	case errors.Is(err, engine.ErrPaymentFailed):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment failed"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func bookingID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// Create handles POST /v1/bookings. The request supplies the facility,
// user, half-open [start_time, end_time) window and party details; the
// total price is computed server-side. Returns 201 with the PENDING
// booking, 409 when the slot is taken.
func (h *BookingHandler) Create(c echo.Context) error {
	var body struct {
		FacilityID   uint64  `json:"facility_id"`
		UserID       string  `json:"user_id"`
		StartTime    string  `json:"start_time"`
		EndTime      string  `json:"end_time"`
		PartySize    uint32  `json:"party_size"`
		Purpose      string  `json:"purpose"`
		Requirements *string `json:"requirements"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.FacilityID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "facility_id is required"})
	}
	if strings.TrimSpace(body.UserID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	start, err := time.Parse(time.RFC3339, body.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, body.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be RFC3339"})
	}
	if body.PartySize == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party_size must be positive"})
	}

	b, err := h.Engine.CreateBooking(c.Request().Context(), engine.CreateRequest{
		FacilityID:   body.FacilityID,
		UserID:       body.UserID,
		StartTime:    start,
		EndTime:      end,
		PartySize:    body.PartySize,
		Purpose:      body.Purpose,
		Requirements: body.Requirements,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": b})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Engine.GetBooking(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// ListByStatus handles GET /v1/bookings?status=PENDING. The status
// query parameter is required.
func (h *BookingHandler) ListByStatus(c echo.Context) error {
	status := model.BookingStatus(c.QueryParam("status"))
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown booking status"})
	}
	items, err := h.Engine.BookingsByStatus(c.Request().Context(), status)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListByUser handles GET /v1/users/:id/bookings.
func (h *BookingHandler) ListByUser(c echo.Context) error {
	userID := c.Param("id")
	if strings.TrimSpace(userID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	items, err := h.Engine.BookingsByUser(c.Request().Context(), userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListByFacility handles GET /v1/facilities/:id/bookings.
func (h *BookingHandler) ListByFacility(c echo.Context) error {
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	items, err := h.Engine.BookingsByFacility(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListUpcoming handles GET /v1/facilities/:id/upcoming: the facility's
// CONFIRMED bookings starting at or after now, ascending by start.
func (h *BookingHandler) ListUpcoming(c echo.Context) error {
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	items, err := h.Engine.UpcomingBookings(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Availability handles GET /v1/facilities/:id/availability. It takes
// RFC3339 start and end query parameters and reports whether the
// half-open window is free of blocking bookings. The answer is a
// snapshot; only Create reserves the slot.
func (h *BookingHandler) Availability(c echo.Context) error {
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be RFC3339"})
	}
	free, err := h.Engine.IsSlotAvailable(c.Request().Context(), id, start, end)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": free})
}

// Confirm handles POST /v1/bookings/:id/confirm. Payment is authorized
// and the booking moves PENDING -> CONFIRMED; the slot is re-checked
// atomically with the status change. On success a booking.confirmed
// event is published asynchronously.
func (h *BookingHandler) Confirm(c echo.Context) error {
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Engine.Confirm(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}

	facilityName := ""
	if f, ferr := h.Facilities.GetFacility(c.Request().Context(), b.FacilityID); ferr == nil {
		facilityName = f.Name
	}
	ref := ""
	if b.PaymentRef != nil {
		ref = *b.PaymentRef
	}
	go func(ev queue.BookingConfirmedEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		_ = publisher.PublishBookingConfirmed(ctx, ev)
	}(queue.BookingConfirmedEvent{
		BookingID:        b.ID,
		FacilityID:       b.FacilityID,
		FacilityName:     facilityName,
		UserID:           b.UserID,
		StartTime:        b.StartTime.Format(time.RFC3339),
		EndTime:          b.EndTime.Format(time.RFC3339),
		TotalAmountCents: b.TotalAmountCents,
		PaymentRef:       ref,
		ConfirmedAt:      b.UpdatedAt.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// Reject handles POST /v1/bookings/:id/reject and declines a PENDING
// booking.
func (h *BookingHandler) Reject(c echo.Context) error {
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Engine.Reject(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// Cancel handles POST /v1/bookings/:id/cancel. The body carries the
// cancellation reason; the refund owed is computed by the engine's
// refund policy and recorded on the booking. On success a
// booking.cancelled event is published asynchronously.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Reason) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason is required"})
	}
	b, err := h.Engine.Cancel(c.Request().Context(), id, body.Reason)
	if err != nil {
		return bookingError(c, err)
	}

	refund := int64(0)
	if b.RefundAmountCents != nil {
		refund = *b.RefundAmountCents
	}
	go func(ev queue.BookingCancelledEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		_ = publisher.PublishBookingCancelled(ctx, ev)
	}(queue.BookingCancelledEvent{
		BookingID:         b.ID,
		FacilityID:        b.FacilityID,
		UserID:            b.UserID,
		Reason:            body.Reason,
		RefundAmountCents: refund,
		CancelledAt:       b.UpdatedAt.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// Refund handles POST /v1/bookings/:id/refund. The recorded refund of
// a CANCELLED booking is settled through the payment gateway and the
// booking moves to REFUNDED.
func (h *BookingHandler) Refund(c echo.Context) error {
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Engine.Refund(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// Sweep handles POST /v1/admin/bookings/sweep. It runs the completion
// sweep immediately, in addition to the periodic background run, and
// reports how many bookings were completed.
func (h *BookingHandler) Sweep(c echo.Context) error {
	n, err := h.Engine.ProcessCompletions(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": n})
}

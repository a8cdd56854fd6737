// Package router wires HTTP routes to their handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/handler"
)

// RegisterRoutes registers operational endpoints on the provided Echo
// instance. Currently this is only the health check used by load
// balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterFacilities registers the facility catalog endpoints under
// /v1/facilities. Read endpoints may additionally carry the response
// cache middleware; pass it in reads (nil-safe, may be empty).
func RegisterFacilities(e *echo.Echo, f *handler.FacilityHandler, reads ...echo.MiddlewareFunc) {
	g := e.Group("/v1/facilities")
	// Catalog browsing. Supports ?type=, ?active=true and ?address= filters.
	g.GET("", f.List, reads...)
	g.GET("/:id", f.Get, reads...)
	// Catalog management.
	g.POST("", f.Create)
	g.PUT("/:id", f.Update)
	g.POST("/:id/activate", f.Activate)
	g.POST("/:id/deactivate", f.Deactivate)
	g.POST("/:id/toggle", f.Toggle)
}

// RegisterBookings registers the booking lifecycle endpoints. Listing
// and availability endpoints accept the optional read middleware just
// like the facility routes; lifecycle mutations never do.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, reads ...echo.MiddlewareFunc) {
	g := e.Group("/v1/bookings")
	g.POST("", b.Create)
	g.GET("", b.ListByStatus, reads...)
	g.GET("/:id", b.Get)
	// Lifecycle transitions. Each enforces its expected prior status.
	g.POST("/:id/confirm", b.Confirm)
	g.POST("/:id/reject", b.Reject)
	g.POST("/:id/cancel", b.Cancel)
	g.POST("/:id/refund", b.Refund)

	// Facility-scoped booking views.
	e.GET("/v1/facilities/:id/bookings", b.ListByFacility, reads...)
	e.GET("/v1/facilities/:id/upcoming", b.ListUpcoming, reads...)
	e.GET("/v1/facilities/:id/availability", b.Availability)

	// User-scoped booking views.
	e.GET("/v1/users/:id/bookings", b.ListByUser, reads...)

	// On-demand completion sweep. The periodic sweeper covers normal
	// operation; this lets operators force a run.
	e.POST("/v1/admin/bookings/sweep", b.Sweep)
}

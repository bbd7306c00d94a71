package routes

import (
	"github.com/anjiri1684/safari_travel/handlers"
	"github.com/anjiri1684/safari_travel/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App, h *handlers.BookingHandler) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.OptionalAuth())
	booking.Post("", h.CreateBooking)
	booking.Get("/track", h.TrackBooking)

	sessions := api.Group("/checkout-sessions")
	sessions.Post("", h.CreateCheckoutSession)
	sessions.Post("/remaining", h.CreateRemainingSession)
}

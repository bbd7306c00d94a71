package routes

import (
	"github.com/anjiri1684/safari_travel/handlers"
	"github.com/anjiri1684/safari_travel/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.AdminHandler, n *handlers.NotificationHandler, f *handlers.FeedHandler) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Get("/bookings", h.ListBookings)
	admin.Get("/bookings/:bookingId", h.GetBooking)
	admin.Post("/bookings/:bookingId/confirm", h.ConfirmBooking)
	admin.Post("/bookings/:bookingId/cancel", h.CancelBooking)
	admin.Post("/bookings/:bookingId/complete", h.CompleteBooking)
	admin.Post("/bookings/:bookingId/mark-paid", h.MarkBookingPaid)
	admin.Post("/bookings/:bookingId/reopen", h.ReopenBooking)

	admin.Post("/notifications/dispatch", n.Dispatch)

	// The feed authenticates in-band with a first auth message, so the
	// upgrade route sits outside the jwt-protected prefix.
	api.Use("/events/live", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/events/live", websocket.New(f.ServeFeed))
}

package handlers

import (
	"github.com/anjiri1684/safari_travel/models"
	"github.com/anjiri1684/safari_travel/notifications"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	DB     *gorm.DB
	Notify *notifications.Dispatcher
}

type DispatchRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	EventType string `json:"event_type" validate:"required,oneof=booking_received booking_confirmed payment_received payment_pending payment_failed booking_cancelled review_request payment_reminder"`
}

// Dispatch triggers a best-effort resend of one notification. Always
// responds 200; a dropped enqueue is reported, never treated as a failure
// of the caller's own operation.
func (h *NotificationHandler) Dispatch(c *fiber.Ctx) error {
	var req DispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	var booking models.Booking
	if err := h.DB.Preload("Items").First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	queued := h.Notify.Enqueue(req.EventType, booking, booking.Items)

	message := "Notification queued"
	if !queued {
		message = "Notification could not be queued, email may have failed, check logs"
	}
	return c.JSON(fiber.Map{"queued": queued, "message": message})
}

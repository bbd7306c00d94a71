package handlers

import (
	"log"

	"github.com/anjiri1684/safari_travel/payments"
	"github.com/anjiri1684/safari_travel/services"
	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	Gateway    *payments.Client
	Reconciler *services.Reconciler
}

// HandlePaymentWebhook consumes gateway events. The signature is verified
// against the raw body before a single field is trusted. A 200 is returned
// as soon as the event is durably recorded; notification failures are the
// dispatcher's problem, not the gateway's.
func (h *PaymentHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	body := c.Body()

	signature := c.Get("x-paystack-signature")
	if signature == "" || !h.Gateway.VerifyWebhookSignature(body, signature) {
		log.Printf("⚠️ Rejected webhook with missing or invalid signature from %s", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
	}

	event, err := payments.ParseWebhookEvent(body)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	log.Printf("Received webhook event %s (%s) for booking %s", event.ID, event.Event, event.Data.Metadata.BookingID)

	result, err := h.Reconciler.Process(event)
	if err != nil {
		return serviceError(c, err)
	}

	switch {
	case result.Duplicate:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook already processed"})
	case result.Ignored:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Event type not handled"})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook processed successfully"})
	}
}

package jobs

import (
	"log"
	"time"

	"github.com/anjiri1684/safari_travel/models"
	"github.com/anjiri1684/safari_travel/notifications"
)

const reminderCooldown = 24 * time.Hour

// SendPaymentReminders nudges customers whose pending booking still carries
// a balance. A booking is reminded at most once per cooldown window, tracked
// by the payment_reminder_sent ledger entries.
func (j *Jobs) SendPaymentReminders() {
	log.Println("Running job: SendPaymentReminders...")

	cutoff := time.Now().Add(-reminderCooldown)

	var bookings []models.Booking
	err := j.DB.
		Where("booking_status = ?", models.BookingPending).
		Where("payment_status IN ?", []string{models.PaymentUnpaid, models.PaymentPartial}).
		Where("remaining_amount > 0").
		Where("last_action_at < ?", cutoff).
		Find(&bookings).Error
	if err != nil {
		log.Printf("Error finding bookings for payment reminders: %v", err)
		return
	}

	for _, booking := range bookings {
		var recent int64
		j.DB.Model(&models.BookingEvent{}).
			Where("booking_id = ? AND event_type = ? AND created_at > ?",
				booking.ID, models.EventPaymentReminder, cutoff).
			Count(&recent)
		if recent > 0 {
			continue
		}

		var items []models.BookingItem
		j.DB.Where("booking_id = ?", booking.ID).Find(&items)

		if err := j.appendEvent(booking, models.EventPaymentReminder); err != nil {
			log.Printf("Error recording payment reminder for booking %s: %v", booking.Reference, err)
			continue
		}
		j.Notify.Enqueue(notifications.EventPaymentReminder, booking, items)
		log.Printf("Payment reminder queued for booking %s", booking.Reference)
	}
}

package jobs

import (
	"encoding/json"
	"log"
	"time"

	"github.com/anjiri1684/safari_travel/models"
	"github.com/anjiri1684/safari_travel/notifications"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Jobs holds the handles the cron tasks run with.
type Jobs struct {
	DB     *gorm.DB
	Notify *notifications.Dispatcher
}

// SendReviewRequests mails a review invitation for every completed booking
// whose travel date has passed and that has not been asked yet. The ledger
// entry doubles as the sent-marker, so the job stays idempotent across runs.
func (j *Jobs) SendReviewRequests() {
	log.Println("Running job: SendReviewRequests...")

	var bookings []models.Booking
	err := j.DB.
		Where("booking_status = ? AND travel_date < ?", models.BookingCompleted, time.Now()).
		Where("id NOT IN (?)", j.DB.Model(&models.BookingEvent{}).
			Select("booking_id").
			Where("event_type = ?", models.EventReviewRequested)).
		Find(&bookings).Error
	if err != nil {
		log.Printf("Error finding bookings for review requests: %v", err)
		return
	}

	for _, booking := range bookings {
		var items []models.BookingItem
		j.DB.Where("booking_id = ?", booking.ID).Find(&items)

		if err := j.appendEvent(booking, models.EventReviewRequested); err != nil {
			log.Printf("Error recording review request for booking %s: %v", booking.Reference, err)
			continue
		}
		j.Notify.Enqueue(notifications.EventReviewRequest, booking, items)
		log.Printf("Review request queued for booking %s", booking.Reference)
	}
}

func (j *Jobs) appendEvent(booking models.Booking, eventType string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"booking_status":   booking.BookingStatus,
		"payment_status":   booking.PaymentStatus,
		"total_amount":     booking.TotalAmount,
		"amount_paid":      booking.AmountPaid,
		"remaining_amount": booking.RemainingAmount,
		"actor":            "scheduler",
	})
	if err != nil {
		return err
	}
	return j.DB.Create(&models.BookingEvent{
		BookingID: booking.ID,
		EventType: eventType,
		Payload:   datatypes.JSON(payload),
	}).Error
}

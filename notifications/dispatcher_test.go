package notifications

import (
	"testing"

	"github.com/anjiri1684/safari_travel/models"
)

func TestEnqueueNilDispatcher(t *testing.T) {
	var d *Dispatcher
	if d.Enqueue(EventBookingReceived, models.Booking{}, nil) {
		t.Error("nil dispatcher accepted a notification")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	// No workers, so nothing drains the single-slot queue.
	d := NewDispatcher(nil, "Admin", "admin@example.com", 1, 0)
	defer d.Close()

	booking := sampleBooking(false)
	if !d.Enqueue(EventBookingReceived, booking, nil) {
		t.Fatal("first Enqueue rejected with room in the queue")
	}
	if d.Enqueue(EventBookingConfirmed, booking, nil) {
		t.Error("second Enqueue accepted with a full queue")
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	// Nil mailer: deliveries are rendered then skipped with a log line, so
	// Close returning proves the workers consumed the whole queue.
	d := NewDispatcher(nil, "Admin", "admin@example.com", 8, 2)

	booking := sampleBooking(true)
	for i := 0; i < 8; i++ {
		if !d.Enqueue(EventPaymentReceived, booking, nil) {
			t.Fatalf("Enqueue %d rejected with room in the queue", i)
		}
	}
	d.Close()
}

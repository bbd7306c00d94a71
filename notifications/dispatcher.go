package notifications

import (
	"log"
	"sync"
	"time"

	"github.com/anjiri1684/safari_travel/models"
)

const sendAttempts = 3

// Notification is one queued side-effect email, carrying the booking
// snapshot taken by the transition that triggered it.
type Notification struct {
	EventType string
	Booking   models.Booking
	Items     []models.BookingItem
}

// Dispatcher delivers notification emails off the request path. The queue is
// bounded and Enqueue never blocks: when the queue is full the notification
// is dropped with a logged warning, never an error to the caller.
type Dispatcher struct {
	mailer     *BrevoService
	adminName  string
	adminEmail string
	queue      chan Notification
	wg         sync.WaitGroup
}

func NewDispatcher(mailer *BrevoService, adminName, adminEmail string, buffer, workers int) *Dispatcher {
	d := &Dispatcher{
		mailer:     mailer,
		adminName:  adminName,
		adminEmail: adminEmail,
		queue:      make(chan Notification, buffer),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue schedules a notification. Returns false when it was dropped
// (nil dispatcher or full queue); callers treat that as a warning only.
func (d *Dispatcher) Enqueue(eventType string, booking models.Booking, items []models.BookingItem) bool {
	if d == nil {
		return false
	}
	select {
	case d.queue <- Notification{EventType: eventType, Booking: booking, Items: items}:
		return true
	default:
		log.Printf("⚠️ Notification queue full, dropped %s for booking %s. Email may have failed, check logs.", eventType, booking.Reference)
		return false
	}
}

// Close drains the queue and stops the workers.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n Notification) {
	for _, audience := range audiencesFor(n.EventType) {
		subject, html, text, err := Render(n.EventType, audience, n.Booking, n.Items)
		if err != nil {
			log.Printf("🔥 Failed to render %s/%s for booking %s: %v", n.EventType, audience, n.Booking.Reference, err)
			continue
		}

		toName, toEmail := n.Booking.CustomerName, n.Booking.CustomerEmail
		if audience == "admin" {
			toName, toEmail = d.adminName, d.adminEmail
		}

		d.sendWithRetry(toName, toEmail, subject, html, text, n)
	}
}

func (d *Dispatcher) sendWithRetry(toName, toEmail, subject, html, text string, n Notification) {
	if d.mailer == nil {
		log.Printf("Email client not initialized, skipping %s for booking %s.", n.EventType, n.Booking.Reference)
		return
	}

	var err error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		err = d.mailer.Send(toName, toEmail, subject, html, text)
		if err == nil {
			log.Printf("✅ Sent %s email to %s for booking %s", n.EventType, toEmail, n.Booking.Reference)
			return
		}
		if attempt < sendAttempts {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}
	log.Printf("🔥 Failed to send %s email to %s for booking %s after %d attempts: %v", n.EventType, toEmail, n.Booking.Reference, sendAttempts, err)
}

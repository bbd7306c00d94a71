package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/anjiri1684/safari_travel/models"
)

// Notification event types. The dispatcher renders customer copy for every
// type and additionally admin copy where an audience entry exists below.
const (
	EventBookingReceived  = "booking_received"
	EventBookingConfirmed = "booking_confirmed"
	EventPaymentReceived  = "payment_received"
	EventPaymentPending   = "payment_pending"
	EventPaymentFailed    = "payment_failed"
	EventBookingCancelled = "booking_cancelled"
	EventReviewRequest    = "review_request"
	EventPaymentReminder  = "payment_reminder"
)

type mailData struct {
	Booking models.Booking
	Items   []models.BookingItem
}

func (d mailData) ItemCount() int { return len(d.Items) }

func (d mailData) TravelDate() string { return d.Booking.TravelDate.Format("January 2, 2006") }

func (d mailData) FullyPaid() bool { return d.Booking.PaymentStatus == models.PaymentPaid }

type mailCopy struct {
	subject string
	html    string
	text    string
}

var customerCopy = map[string]mailCopy{
	EventBookingReceived: {
		subject: "We Have Received Your Booking ({{.Booking.Reference}})",
		html: `<h1>Booking Received</h1><p>Hi {{.Booking.CustomerName}},</p>
<p>Thank you! We have received your booking <b>{{.Booking.Reference}}</b> for {{.TravelDate}} with {{.ItemCount}} item(s).</p>
<p>Total: {{.Booking.Currency}} {{.Booking.TotalAmount}}. Amount due now: {{.Booking.Currency}} {{.Booking.RemainingAmount}} less any deposit already paid.</p>
<p>You can track your booking any time with your reference and tracking link.</p>`,
		text: `Hi {{.Booking.CustomerName}},
We have received your booking {{.Booking.Reference}} for {{.TravelDate}} with {{.ItemCount}} item(s).
Total: {{.Booking.Currency}} {{.Booking.TotalAmount}}.
You can track your booking any time with your reference and tracking link.`,
	},
	EventBookingConfirmed: {
		subject: "Your Booking {{.Booking.Reference}} is Confirmed!",
		html: `<h1>Booking Confirmed</h1><p>Hi {{.Booking.CustomerName}},</p>
<p>Your booking <b>{{.Booking.Reference}}</b> for {{.TravelDate}} is confirmed. We look forward to hosting you.</p>`,
		text: `Hi {{.Booking.CustomerName}},
Your booking {{.Booking.Reference}} for {{.TravelDate}} is confirmed. We look forward to hosting you.`,
	},
	EventPaymentReceived: {
		subject: "{{if .FullyPaid}}Payment Complete for {{.Booking.Reference}}{{else}}Partial Payment Received for {{.Booking.Reference}}{{end}}",
		html: `<h1>{{if .FullyPaid}}Payment Complete{{else}}Partial Payment Received{{end}}</h1><p>Hi {{.Booking.CustomerName}},</p>
{{if .FullyPaid}}<p>Your booking <b>{{.Booking.Reference}}</b> is now fully paid. Nothing more is due.</p>
{{else}}<p>We have received a payment on booking <b>{{.Booking.Reference}}</b>. Paid so far: {{.Booking.Currency}} {{.Booking.AmountPaid}}. Remaining balance: {{.Booking.Currency}} {{.Booking.RemainingAmount}}.</p>{{end}}`,
		text: `Hi {{.Booking.CustomerName}},
{{if .FullyPaid}}Your booking {{.Booking.Reference}} is now fully paid. Nothing more is due.
{{else}}We have received a payment on booking {{.Booking.Reference}}. Paid so far: {{.Booking.Currency}} {{.Booking.AmountPaid}}. Remaining balance: {{.Booking.Currency}} {{.Booking.RemainingAmount}}.{{end}}`,
	},
	EventPaymentPending: {
		subject: "Payment Pending for {{.Booking.Reference}}",
		html: `<h1>Payment Pending</h1><p>Hi {{.Booking.CustomerName}},</p>
<p>Your payment for booking <b>{{.Booking.Reference}}</b> is being processed by your bank. We will confirm your booking as soon as it settles. No action is needed from you.</p>`,
		text: `Hi {{.Booking.CustomerName}},
Your payment for booking {{.Booking.Reference}} is being processed by your bank. We will confirm your booking as soon as it settles.`,
	},
	EventPaymentFailed: {
		subject: "Payment Failed for {{.Booking.Reference}}",
		html: `<h1>Payment Failed</h1><p>Hi {{.Booking.CustomerName}},</p>
<p>Unfortunately your payment for booking <b>{{.Booking.Reference}}</b> did not go through. Your booking is still held; please try paying again from your tracking page.</p>`,
		text: `Hi {{.Booking.CustomerName}},
Unfortunately your payment for booking {{.Booking.Reference}} did not go through. Your booking is still held; please try paying again from your tracking page.`,
	},
	EventBookingCancelled: {
		subject: "Booking {{.Booking.Reference}} Cancelled",
		html: `<h1>Booking Cancelled</h1><p>Hi {{.Booking.CustomerName}},</p>
<p>Your booking <b>{{.Booking.Reference}}</b> has been cancelled. If this was unexpected, reply to this email and we will help.</p>`,
		text: `Hi {{.Booking.CustomerName}},
Your booking {{.Booking.Reference}} has been cancelled. If this was unexpected, reply to this email and we will help.`,
	},
	EventReviewRequest: {
		subject: "How Was Your Trip, {{.Booking.CustomerName}}?",
		html: `<h1>How Was Your Trip?</h1><p>Hi {{.Booking.CustomerName}},</p>
<p>We hope you enjoyed your travels on booking <b>{{.Booking.Reference}}</b>. We would love a short review; it takes a minute and helps other travellers.</p>`,
		text: `Hi {{.Booking.CustomerName}},
We hope you enjoyed your travels on booking {{.Booking.Reference}}. We would love a short review.`,
	},
	EventPaymentReminder: {
		subject: "Reminder: Complete Payment for {{.Booking.Reference}}",
		html: `<h1>Payment Reminder</h1><p>Hi {{.Booking.CustomerName}},</p>
<p>Your booking <b>{{.Booking.Reference}}</b> for {{.TravelDate}} is still awaiting payment of {{.Booking.Currency}} {{.Booking.RemainingAmount}}. Complete it from your tracking page to secure your spot.</p>`,
		text: `Hi {{.Booking.CustomerName}},
Your booking {{.Booking.Reference}} for {{.TravelDate}} is still awaiting payment of {{.Booking.Currency}} {{.Booking.RemainingAmount}}.`,
	},
}

var adminCopy = map[string]mailCopy{
	EventBookingReceived: {
		subject: "New Booking {{.Booking.Reference}} ({{.Booking.Currency}} {{.Booking.TotalAmount}})",
		html: `<h1>New Booking</h1><p>{{.Booking.CustomerName}} ({{.Booking.CustomerEmail}}) booked {{.ItemCount}} item(s) for {{.TravelDate}}.</p>
<p>Total {{.Booking.Currency}} {{.Booking.TotalAmount}}, deposit choice {{.Booking.DepositPercent}}%.</p>`,
		text: `{{.Booking.CustomerName}} ({{.Booking.CustomerEmail}}) booked {{.ItemCount}} item(s) for {{.TravelDate}}. Total {{.Booking.Currency}} {{.Booking.TotalAmount}}, deposit choice {{.Booking.DepositPercent}}%.`,
	},
	EventPaymentPending: {
		subject: "Pending Payment on {{.Booking.Reference}}",
		html: `<h1>Pending Payment</h1><p>The gateway reported a delayed-settlement payment on booking <b>{{.Booking.Reference}}</b> ({{.Booking.CustomerEmail}}). Watch for the settlement webhook before confirming manually.</p>`,
		text: `The gateway reported a delayed-settlement payment on booking {{.Booking.Reference}} ({{.Booking.CustomerEmail}}). Watch for the settlement webhook before confirming manually.`,
	},
}

// Render produces subject, HTML body and plain-text body for one audience
// ("customer" or "admin") from a booking snapshot.
func Render(eventType, audience string, booking models.Booking, items []models.BookingItem) (string, string, string, error) {
	src, ok := customerCopy[eventType]
	if audience == "admin" {
		src, ok = adminCopy[eventType]
	}
	if !ok {
		return "", "", "", fmt.Errorf("no %s template for event type %q", audience, eventType)
	}

	data := mailData{Booking: booking, Items: items}

	subject, err := renderText(src.subject, data)
	if err != nil {
		return "", "", "", err
	}
	text, err := renderText(src.text, data)
	if err != nil {
		return "", "", "", err
	}

	tmpl, err := template.New(eventType).Parse(src.html)
	if err != nil {
		return "", "", "", err
	}
	var html bytes.Buffer
	if err := tmpl.Execute(&html, data); err != nil {
		return "", "", "", err
	}

	return strings.TrimSpace(subject), html.String(), text, nil
}

func renderText(src string, data mailData) (string, error) {
	tmpl, err := texttemplate.New("text").Parse(src)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}

// audiencesFor lists who receives an event type.
func audiencesFor(eventType string) []string {
	if _, ok := adminCopy[eventType]; ok {
		return []string{"customer", "admin"}
	}
	return []string{"customer"}
}

package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	config "github.com/anjiri1684/safari_travel/configs"
)

// Client talks to the hosted-checkout gateway (Paystack API shape).
// Constructed once in main and injected; never a package global.
type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL:   config.Config("PAYSTACK_API_BASE_URL"),
		SecretKey: config.Config("PAYSTACK_SECRET_KEY"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionMetadata is embedded in the checkout session and echoed back on
// every webhook, correlating gateway events to a booking.
type SessionMetadata struct {
	BookingID     string `json:"booking_id"`
	TrackingToken string `json:"tracking_token"`
}

type CheckoutSession struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type initializeRequest struct {
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Email     string          `json:"email"`
	Reference string          `json:"reference"`
	Metadata  SessionMetadata `json:"metadata"`
}

type initializeResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    CheckoutSession `json:"data"`
}

// InitiateCheckoutSession creates a hosted payment page for the given amount
// in whole currency units. The gateway API expects subunits, so the amount
// is scaled at this boundary only.
func (c *Client) InitiateCheckoutSession(amount int64, currency, email, reference string, meta SessionMetadata) (*CheckoutSession, error) {
	payload := initializeRequest{
		Amount:    amount * 100,
		Currency:  currency,
		Email:     email,
		Reference: reference,
		Metadata:  meta,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize payload: %v", err)
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/transaction/initialize", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create initialize request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send initialize request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read initialize response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("Gateway API Error: %s", string(respBody))
		return nil, fmt.Errorf("gateway returned non-200 status: %d", resp.StatusCode)
	}

	var initResp initializeResponse
	if err := json.Unmarshal(respBody, &initResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initialize response: %v", err)
	}
	if !initResp.Status {
		return nil, fmt.Errorf("gateway rejected session: %s", initResp.Message)
	}

	log.Println("✅ Checkout session created for reference:", reference)
	return &initResp.Data, nil
}

// VerifyWebhookSignature checks the x-paystack-signature header: an
// HMAC-SHA512 of the raw request body keyed with the secret key. Nothing in
// the payload may be trusted before this passes.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookEvent is the parsed gateway webhook payload. ID is the gateway's
// unique event id and is the idempotency key for reconciliation.
type WebhookEvent struct {
	ID    string `json:"id"`
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Amount    int64           `json:"amount"`
		Currency  string          `json:"currency"`
		Channel   string          `json:"channel"`
		Metadata  SessionMetadata `json:"metadata"`
	} `json:"data"`
}

func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %v", err)
	}
	if event.ID == "" {
		return nil, fmt.Errorf("webhook payload missing event id")
	}
	return &event, nil
}

// Kind normalizes the gateway event name to success/pending/failure, or ""
// for event types this service does not consume.
func (e *WebhookEvent) Kind() string {
	switch e.Event {
	case "charge.success":
		return "success"
	case "charge.pending", "transfer.pending":
		return "pending"
	case "charge.failed", "invoice.payment_failed":
		return "failure"
	default:
		return ""
	}
}

// AmountUnits converts the gateway's subunit amount to whole currency units.
func (e *WebhookEvent) AmountUnits() int64 {
	return e.Data.Amount / 100
}

package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitiateCheckoutSession(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq initializeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]string{
				"authorization_url": "https://checkout.example.com/xyz",
				"access_code":       "xyz",
				"reference":         "BOOK1234-1",
			},
		})
	}))
	defer srv.Close()

	client := &Client{BaseURL: srv.URL, SecretKey: "sk_test_abc", HTTPClient: srv.Client()}
	session, err := client.InitiateCheckoutSession(9250, "KES", "asha@example.com", "BOOK1234-1", SessionMetadata{
		BookingID: "b-1", TrackingToken: "tok",
	})
	if err != nil {
		t.Fatalf("InitiateCheckoutSession() error = %v", err)
	}

	if gotPath != "/transaction/initialize" {
		t.Errorf("request path = %q, want /transaction/initialize", gotPath)
	}
	if gotAuth != "Bearer sk_test_abc" {
		t.Errorf("Authorization = %q, want bearer secret key", gotAuth)
	}
	if gotReq.Amount != 925000 {
		t.Errorf("gateway amount = %d, want 925000 subunits for 9250 units", gotReq.Amount)
	}
	if gotReq.Metadata.BookingID != "b-1" {
		t.Errorf("metadata booking id = %q, want b-1", gotReq.Metadata.BookingID)
	}
	if session.AuthorizationURL != "https://checkout.example.com/xyz" {
		t.Errorf("AuthorizationURL = %q", session.AuthorizationURL)
	}
}

func TestInitiateCheckoutSessionFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200 status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}},
		{"gateway rejection", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"status": false, "message": "Invalid key"})
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := &Client{BaseURL: srv.URL, SecretKey: "sk_test", HTTPClient: srv.Client()}
			if _, err := client.InitiateCheckoutSession(100, "KES", "a@b.c", "ref", SessionMetadata{}); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := &Client{SecretKey: "sk_test_secret"}
	body := []byte(`{"id":"evt_1","event":"charge.success"}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	if !client.VerifyWebhookSignature(body, valid) {
		t.Error("valid signature rejected")
	}
	if client.VerifyWebhookSignature(body, "deadbeef") {
		t.Error("forged signature accepted")
	}
	if client.VerifyWebhookSignature(body, "") {
		t.Error("empty signature accepted")
	}
	if client.VerifyWebhookSignature([]byte(`{"tampered":true}`), valid) {
		t.Error("signature accepted for a different body")
	}
}

func TestParseWebhookEvent(t *testing.T) {
	body := []byte(`{
		"id": "evt_123",
		"event": "charge.success",
		"data": {
			"reference": "BOOK1234-1",
			"amount": 925000,
			"currency": "KES",
			"channel": "card",
			"metadata": {"booking_id": "b-1", "tracking_token": "tok"}
		}
	}`)

	event, err := ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("ParseWebhookEvent() error = %v", err)
	}
	if event.ID != "evt_123" || event.Data.Reference != "BOOK1234-1" {
		t.Errorf("parsed event = %+v", event)
	}
	if event.AmountUnits() != 9250 {
		t.Errorf("AmountUnits() = %d, want 9250", event.AmountUnits())
	}

	if _, err := ParseWebhookEvent([]byte(`{"event":"charge.success"}`)); err == nil {
		t.Error("event without id accepted")
	}
	if _, err := ParseWebhookEvent([]byte("not json")); err == nil {
		t.Error("malformed payload accepted")
	}
}

func TestWebhookEventKind(t *testing.T) {
	tests := []struct {
		event string
		want  string
	}{
		{"charge.success", "success"},
		{"charge.pending", "pending"},
		{"transfer.pending", "pending"},
		{"charge.failed", "failure"},
		{"invoice.payment_failed", "failure"},
		{"subscription.create", ""},
		{"", ""},
	}

	for _, tt := range tests {
		e := &WebhookEvent{Event: tt.event}
		if got := e.Kind(); got != tt.want {
			t.Errorf("Kind(%q) = %q, want %q", tt.event, got, tt.want)
		}
	}
}

package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/safari_travel/models"
	"github.com/anjiri1684/safari_travel/payments"
	"gorm.io/gorm"
)

func TestDepositAmounts(t *testing.T) {
	tests := []struct {
		total         int64
		percent       int
		wantDue       int64
		wantRemaining int64
	}{
		{10000, 50, 5000, 5000},
		{10000, 25, 2500, 7500},
		{10000, 100, 10000, 0},
		{12000, 25, 3000, 9000},
		{9999, 50, 5000, 4999},
		{101, 25, 25, 76},
		{1, 50, 1, 0},
		{0, 25, 0, 0},
	}

	for _, tt := range tests {
		due, remaining := DepositAmounts(tt.total, tt.percent)
		if due != tt.wantDue || remaining != tt.wantRemaining {
			t.Errorf("DepositAmounts(%d, %d) = (%d, %d), want (%d, %d)",
				tt.total, tt.percent, due, remaining, tt.wantDue, tt.wantRemaining)
		}
		if due+remaining != tt.total {
			t.Errorf("DepositAmounts(%d, %d) does not conserve the total", tt.total, tt.percent)
		}
	}
}

type catalog struct {
	tour  models.Tour
	route models.TransferRoute
	pkg   models.TourPackage
}

func seedCatalog(t *testing.T, db *gorm.DB) catalog {
	t.Helper()
	c := catalog{
		tour: models.Tour{
			Title: "Nairobi National Park Day Tour", Slug: "nairobi-park-day",
			PricePerAdult: 6500, PricePerChild: 3000, IsActive: true,
		},
		route: models.TransferRoute{
			Origin: "JKIA", Destination: "Nairobi CBD", VehicleClass: "sedan",
			PricePerVehicle: 2500, MaxPassengers: 3, MaxLuggage: 3, IsActive: true,
		},
		pkg: models.TourPackage{
			Title: "Masai Mara Weekend", Slug: "masai-mara-weekend",
			Days: 3, PricePerPerson: 45000, IsActive: true,
		},
	}
	if err := db.Create(&c.tour).Error; err != nil {
		t.Fatalf("failed to seed tour: %v", err)
	}
	if err := db.Create(&c.route).Error; err != nil {
		t.Fatalf("failed to seed route: %v", err)
	}
	if err := db.Create(&c.pkg).Error; err != nil {
		t.Fatalf("failed to seed package: %v", err)
	}
	return c
}

func newCheckoutService(db *gorm.DB, gateway *payments.Client) *CheckoutService {
	bookings, _ := newBookingService(db)
	return &CheckoutService{DB: db, Gateway: gateway, Bookings: bookings}
}

func validInput(c catalog) CheckoutInput {
	travel := time.Now().AddDate(0, 1, 0)
	return CheckoutInput{
		CustomerName:  "Asha Mwangi",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "+254700000001",
		TravelDate:    travel,
		Items: []CheckoutItem{
			{ItemType: models.ItemTypeTour, TourID: &c.tour.ID, TravelDate: travel, Adults: 2, Children: 1},
			{ItemType: models.ItemTypeTransfer, TransferRouteID: &c.route.ID, TravelDate: travel, Adults: 2, Children: 1, VehicleCount: 1},
		},
	}
}

func TestCreateBookingRecomputesPrices(t *testing.T) {
	db := newTestDB(t)
	c := seedCatalog(t, db)
	svc := newCheckoutService(db, nil)

	booking, err := svc.CreateBooking(validInput(c))
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}

	// 2*6500 + 1*3000 for the tour, 1*2500 for the transfer.
	if booking.TotalAmount != 18500 {
		t.Errorf("TotalAmount = %d, want 18500", booking.TotalAmount)
	}
	if booking.RemainingAmount != 18500 || booking.AmountPaid != 0 {
		t.Errorf("amounts = paid %d remaining %d, want 0/18500", booking.AmountPaid, booking.RemainingAmount)
	}
	if booking.BookingStatus != models.BookingPending || booking.PaymentStatus != models.PaymentUnpaid {
		t.Errorf("status = %s/%s, want pending/unpaid", booking.BookingStatus, booking.PaymentStatus)
	}
	if booking.Reference == "" || booking.TrackingToken == "" {
		t.Error("booking is missing its reference or tracking token")
	}

	types := ledgerTypes(t, db, booking.ID)
	if len(types) != 1 || types[0] != models.EventBookingCreated {
		t.Errorf("ledger = %v, want [%s]", types, models.EventBookingCreated)
	}

	var itemCount int64
	db.Model(&models.BookingItem{}).Where("booking_id = ?", booking.ID).Count(&itemCount)
	if itemCount != 2 {
		t.Errorf("persisted %d items, want 2", itemCount)
	}
}

func TestCreateBookingRejectsClientPriceMismatch(t *testing.T) {
	db := newTestDB(t)
	c := seedCatalog(t, db)
	svc := newCheckoutService(db, nil)

	badSubtotal := int64(100)
	badTotal := int64(1)

	tests := []struct {
		name   string
		mutate func(in *CheckoutInput)
	}{
		{"item subtotal mismatch", func(in *CheckoutInput) { in.Items[0].Subtotal = &badSubtotal }},
		{"total mismatch", func(in *CheckoutInput) { in.ClientTotal = &badTotal }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput(c)
			tt.mutate(&in)

			_, err := svc.CreateBooking(in)
			var invalid *ValidationError
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want ValidationError", err)
			}

			var count int64
			db.Model(&models.Booking{}).Count(&count)
			if count != 0 {
				t.Errorf("rejected checkout left %d bookings behind, want 0", count)
			}
		})
	}
}

func TestCreateBookingAcceptsMatchingClientTotals(t *testing.T) {
	db := newTestDB(t)
	c := seedCatalog(t, db)
	svc := newCheckoutService(db, nil)

	in := validInput(c)
	tourSubtotal := int64(16000)
	transferSubtotal := int64(2500)
	total := int64(18500)
	in.Items[0].Subtotal = &tourSubtotal
	in.Items[1].Subtotal = &transferSubtotal
	in.ClientTotal = &total

	if _, err := svc.CreateBooking(in); err != nil {
		t.Fatalf("CreateBooking() with matching client totals error = %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	db := newTestDB(t)
	c := seedCatalog(t, db)
	svc := newCheckoutService(db, nil)

	inactive := c
	if err := db.Model(&c.tour).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate tour: %v", err)
	}

	travel := time.Now().AddDate(0, 1, 0)
	tests := []struct {
		name  string
		input CheckoutInput
	}{
		{"no items", CheckoutInput{CustomerName: "A", CustomerEmail: "a@b.c", TravelDate: travel}},
		{"past travel date", func() CheckoutInput {
			in := validInput(c)
			in.TravelDate = time.Now().AddDate(0, 0, -2)
			return in
		}()},
		{"tour item without tour id", CheckoutInput{
			CustomerName: "A", CustomerEmail: "a@b.c", TravelDate: travel,
			Items: []CheckoutItem{{ItemType: models.ItemTypeTour, TravelDate: travel, Adults: 1}},
		}},
		{"inactive tour", validInput(inactive)},
		{"unknown item type", CheckoutInput{
			CustomerName: "A", CustomerEmail: "a@b.c", TravelDate: travel,
			Items: []CheckoutItem{{ItemType: "flight", TravelDate: travel, Adults: 1}},
		}},
		{"zero adults", CheckoutInput{
			CustomerName: "A", CustomerEmail: "a@b.c", TravelDate: travel,
			Items: []CheckoutItem{{ItemType: models.ItemTypePackage, PackageID: &c.pkg.ID, TravelDate: travel}},
		}},
		{"transfer over capacity", CheckoutInput{
			CustomerName: "A", CustomerEmail: "a@b.c", TravelDate: travel,
			Items: []CheckoutItem{{
				ItemType: models.ItemTypeTransfer, TransferRouteID: &c.route.ID,
				TravelDate: travel, Adults: 4, VehicleCount: 1,
			}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBooking(tt.input)
			var invalid *ValidationError
			if !errors.As(err, &invalid) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestTransferPricingScalesByVehicle(t *testing.T) {
	db := newTestDB(t)
	c := seedCatalog(t, db)
	svc := newCheckoutService(db, nil)

	travel := time.Now().AddDate(0, 1, 0)
	booking, err := svc.CreateBooking(CheckoutInput{
		CustomerName: "Asha Mwangi", CustomerEmail: "asha@example.com", TravelDate: travel,
		Items: []CheckoutItem{{
			ItemType: models.ItemTypeTransfer, TransferRouteID: &c.route.ID,
			TravelDate: travel, Adults: 5, Luggage: 4, VehicleCount: 2,
		}},
	})
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}
	if booking.TotalAmount != 5000 {
		t.Errorf("TotalAmount = %d, want 5000 for two vehicles", booking.TotalAmount)
	}
}

func newGatewayStub(t *testing.T) (*payments.Client, *httptest.Server, *[]int64) {
	t.Helper()
	var amounts []int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount int64 `json:"amount"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		amounts = append(amounts, req.Amount)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]string{
				"authorization_url": "https://checkout.example.com/abc",
				"access_code":       "abc",
				"reference":         "stub-ref",
			},
		})
	}))
	t.Cleanup(srv.Close)
	client := &payments.Client{BaseURL: srv.URL, SecretKey: "sk_test", HTTPClient: srv.Client()}
	return client, srv, &amounts
}

func TestCreateDepositSession(t *testing.T) {
	db := newTestDB(t)
	c := seedCatalog(t, db)
	gateway, _, amounts := newGatewayStub(t)
	svc := newCheckoutService(db, gateway)

	booking, err := svc.CreateBooking(validInput(c))
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}

	session, err := svc.CreateDepositSession(booking.ID, booking.TrackingToken, 50)
	if err != nil {
		t.Fatalf("CreateDepositSession() error = %v", err)
	}
	if session.AuthorizationURL == "" {
		t.Error("session has no authorization URL")
	}

	// Total is 18500, 50% rounds to 9250, sent to the gateway in subunits.
	if len(*amounts) != 1 || (*amounts)[0] != 925000 {
		t.Errorf("gateway received amounts %v, want [925000]", *amounts)
	}

	got := reloadBooking(t, db, booking.ID)
	if got.DepositPercent != 50 {
		t.Errorf("DepositPercent = %d, want 50", got.DepositPercent)
	}
	if got.PaymentStatus != models.PaymentUnpaid || got.AmountPaid != 0 {
		t.Errorf("session creation mutated payment state: %s/%d", got.PaymentStatus, got.AmountPaid)
	}

	types := ledgerTypes(t, db, booking.ID)
	if len(types) != 2 || types[1] != models.EventSessionCreated {
		t.Errorf("ledger = %v, want session_created appended", types)
	}
}

func TestCreateDepositSessionGuards(t *testing.T) {
	db := newTestDB(t)
	c := seedCatalog(t, db)
	gateway, _, _ := newGatewayStub(t)
	svc := newCheckoutService(db, gateway)

	booking, err := svc.CreateBooking(validInput(c))
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}

	if _, err := svc.CreateDepositSession(booking.ID, booking.TrackingToken, 30); err == nil {
		t.Error("deposit of 30%% accepted, want ValidationError")
	}

	if _, err := svc.CreateDepositSession(booking.ID, "wrong-token", 50); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("wrong token error = %v, want ErrRecordNotFound", err)
	}

	if _, err := svc.Bookings.ApplyPayment(booking.ID, 1000, "PSK_1", "gateway"); err != nil {
		t.Fatalf("ApplyPayment() error = %v", err)
	}
	_, err = svc.CreateDepositSession(booking.ID, booking.TrackingToken, 50)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("deposit on partially paid booking error = %v, want ConflictError", err)
	}

	mustTransition(t, svc.Bookings.Cancel, booking.ID)
	if _, err := svc.CreateRemainingSession(booking.ID, booking.TrackingToken); !errors.As(err, &conflict) {
		t.Errorf("remaining session on cancelled booking error = %v, want ConflictError", err)
	}
}

func TestCreateRemainingSession(t *testing.T) {
	db := newTestDB(t)
	c := seedCatalog(t, db)
	gateway, _, amounts := newGatewayStub(t)
	svc := newCheckoutService(db, gateway)

	booking, err := svc.CreateBooking(validInput(c))
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}
	if _, err := svc.Bookings.ApplyPayment(booking.ID, 9250, "PSK_1", "gateway"); err != nil {
		t.Fatalf("ApplyPayment() error = %v", err)
	}

	if _, err := svc.CreateRemainingSession(booking.ID, booking.TrackingToken); err != nil {
		t.Fatalf("CreateRemainingSession() error = %v", err)
	}
	if len(*amounts) != 1 || (*amounts)[0] != 925000 {
		t.Errorf("gateway received amounts %v, want the 9250 balance in subunits", *amounts)
	}

	if _, err := svc.Bookings.MarkPaid(booking.ID, "admin"); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	_, err = svc.CreateRemainingSession(booking.ID, booking.TrackingToken)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("remaining session with zero balance error = %v, want ConflictError", err)
	}
}

func TestGatewayFailureKeepsBooking(t *testing.T) {
	db := newTestDB(t)
	c := seedCatalog(t, db)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	gateway := &payments.Client{BaseURL: srv.URL, SecretKey: "sk_test", HTTPClient: srv.Client()}
	svc := newCheckoutService(db, gateway)

	booking, err := svc.CreateBooking(validInput(c))
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}

	_, err = svc.CreateDepositSession(booking.ID, booking.TrackingToken, 25)
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("error = %v, want TransientError", err)
	}

	got := reloadBooking(t, db, booking.ID)
	if got.BookingStatus != models.BookingPending || got.PaymentStatus != models.PaymentUnpaid {
		t.Errorf("booking state after gateway failure = %s/%s, want pending/unpaid", got.BookingStatus, got.PaymentStatus)
	}
}

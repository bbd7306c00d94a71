package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/safari_travel/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testSeq int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache database so every connection in the pool sees
	// the same in-memory data, unique per test to keep tests independent.
	testSeq++
	dsn := fmt.Sprintf("file:svc_test_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), testSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Tour{},
		&models.TransferRoute{},
		&models.TourPackage{},
		&models.Booking{},
		&models.BookingItem{},
		&models.BookingEvent{},
		&models.PaymentEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// feedRecorder captures ledger entries published to the live feed.
// Publish may be called from concurrent transitions.
type feedRecorder struct {
	mu     sync.Mutex
	events []models.BookingEvent
}

func (f *feedRecorder) Publish(event models.BookingEvent) {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
}

func newBookingService(db *gorm.DB) (*BookingService, *feedRecorder) {
	feed := &feedRecorder{}
	return &BookingService{DB: db, Feed: feed}, feed
}

var refSeq int

func seedBooking(t *testing.T, db *gorm.DB, total int64) *models.Booking {
	t.Helper()

	refSeq++
	booking := models.Booking{
		Reference:       fmt.Sprintf("TEST%04d", refSeq),
		TrackingToken:   uuid.New().String(),
		CustomerName:    "Asha Mwangi",
		CustomerEmail:   "asha@example.com",
		CustomerPhone:   "+254700000001",
		TravelDate:      time.Now().AddDate(0, 1, 0),
		TotalAmount:     total,
		AmountPaid:      0,
		RemainingAmount: total,
		Currency:        "KES",
		BookingStatus:   models.BookingPending,
		PaymentStatus:   models.PaymentUnpaid,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	return &booking
}

func reloadBooking(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Booking {
	t.Helper()
	var booking models.Booking
	if err := db.First(&booking, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload booking: %v", err)
	}
	return &booking
}

func ledgerTypes(t *testing.T, db *gorm.DB, bookingID uuid.UUID) []string {
	t.Helper()
	var events []models.BookingEvent
	if err := db.Where("booking_id = ?", bookingID).Order("created_at asc, id asc").Find(&events).Error; err != nil {
		t.Fatalf("failed to load ledger: %v", err)
	}
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.EventType
	}
	return types
}

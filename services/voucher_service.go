package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	config "github.com/anjiri1684/safari_travel/configs"
	"github.com/anjiri1684/safari_travel/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoucherService renders a travel voucher PDF once a booking is fully paid
// and stores its URL on the booking. Entirely best-effort: failures are
// logged and the booking state is untouched.
type VoucherService struct {
	DB *gorm.DB
}

func (s *VoucherService) Generate(booking models.Booking) {
	var existing models.Booking
	if err := s.DB.First(&existing, "id = ?", booking.ID).Error; err != nil {
		log.Printf("🔥 Voucher generation: booking %s not found: %v", booking.Reference, err)
		return
	}
	if existing.VoucherURL != nil {
		return
	}
	if existing.PaymentStatus != models.PaymentPaid {
		return
	}

	var items []models.BookingItem
	s.DB.Where("booking_id = ?", booking.ID).Find(&items)

	htmlData, err := renderVoucherHTML(existing, items)
	if err != nil {
		log.Printf("🔥 Failed to render voucher HTML for %s: %v", booking.Reference, err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate voucher PDF for %s: %v", booking.Reference, err)
		return
	}

	uploadURL, err := uploadToCloudinary(pdfBytes, existing.Reference)
	if err != nil {
		log.Printf("🔥 Failed to upload voucher for %s: %v", booking.Reference, err)
		return
	}

	if err := s.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).Update("voucher_url", uploadURL).Error; err != nil {
		log.Printf("🔥 Failed to save voucher URL for %s: %v", booking.Reference, err)
		return
	}
	log.Printf("✅ Generated voucher for booking %s", booking.Reference)
}

func renderVoucherHTML(booking models.Booking, items []models.BookingItem) (string, error) {
	tmpl, err := template.ParseFiles("templates/voucher.html")
	if err != nil {
		return "", err
	}

	data := struct {
		Reference    string
		CustomerName string
		TravelDate   string
		Currency     string
		TotalAmount  int64
		Items        []models.BookingItem
		IssuedAt     string
	}{
		Reference:    booking.Reference,
		CustomerName: booking.CustomerName,
		TravelDate:   booking.TravelDate.Format("January 2, 2006"),
		Currency:     booking.Currency,
		TotalAmount:  booking.TotalAmount,
		Items:        items,
		IssuedAt:     time.Now().Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadToCloudinary(fileBytes []byte, reference string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("vouchers/%s_%s", reference, uuid.New().String()),
		Folder:       "safari_travel_vouchers",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}

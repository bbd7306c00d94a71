package main

import (
	"log"
	"time"

	config "github.com/anjiri1684/safari_travel/configs"
	"github.com/anjiri1684/safari_travel/database"
	"github.com/anjiri1684/safari_travel/handlers"
	"github.com/anjiri1684/safari_travel/jobs"
	"github.com/anjiri1684/safari_travel/notifications"
	"github.com/anjiri1684/safari_travel/payments"
	"github.com/anjiri1684/safari_travel/routes"
	"github.com/anjiri1684/safari_travel/services"
	"github.com/anjiri1684/safari_travel/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	db := database.ConnectDB()
	database.Migrate(db)
	database.SeedAdmin(db)

	mailer := notifications.NewEmailService()
	dispatcher := notifications.NewDispatcher(
		mailer,
		config.Config("ADMIN_NAME"),
		config.Config("ADMIN_EMAIL"),
		256, 4,
	)
	defer dispatcher.Close()

	hub := websocket.NewHub()
	go hub.Run()

	gateway := payments.NewClient()

	vouchers := &services.VoucherService{DB: db}
	bookings := &services.BookingService{DB: db, Notify: dispatcher, Feed: hub, Vouchers: vouchers}
	checkout := &services.CheckoutService{DB: db, Gateway: gateway, Notify: dispatcher, Bookings: bookings}
	reconciler := &services.Reconciler{DB: db, Bookings: bookings, Notify: dispatcher}

	scheduled := &jobs.Jobs{DB: db, Notify: dispatcher}
	c := cron.New()
	c.AddFunc("0 9 * * *", scheduled.SendReviewRequests)
	c.AddFunc("0 * * * *", scheduled.SendPaymentReminders)
	go c.Start()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Safari Travel",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		PassLocalsToViews: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Africa/Nairobi",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Safari Travel API",
		})
	})

	routes.AuthRoutes(app, &handlers.AuthHandler{DB: db})
	routes.BookingRoutes(app, &handlers.BookingHandler{Checkout: checkout, Bookings: bookings})
	routes.PaymentRoutes(app, &handlers.PaymentHandler{Gateway: gateway, Reconciler: reconciler})
	routes.AdminRoutes(app,
		&handlers.AdminHandler{DB: db, Bookings: bookings},
		&handlers.NotificationHandler{DB: db, Notify: dispatcher},
		&handlers.FeedHandler{Hub: hub},
	)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	err := app.Listen(":8080")
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}

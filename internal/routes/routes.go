package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/handlers"
	"github.com/NivaasHQ/nivaas-backend/internal/middleware"
	"github.com/NivaasHQ/nivaas-backend/internal/services"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, notifier *services.Notifier) {
	bookingService := services.NewBookingService(store, notifier)
	offerService := services.NewOfferService(store, notifier)
	dealService := services.NewDealService(store)
	reservationService := services.NewReservationService(store, notifier)
	otpService := services.NewOTPService(store, notifier)

	userHandler := handlers.NewUserHandler(store, otpService)
	propertyHandler := handlers.NewPropertyHandler(store)
	bookingHandler := handlers.NewBookingHandler(store, bookingService)
	offerHandler := handlers.NewOfferHandler(store, offerService)
	dealHandler := handlers.NewDealHandler(dealService)
	paymentHandler := handlers.NewPaymentHandler(reservationService, offerService)
	adminHandler := handlers.NewAdminHandler(store, bookingService, offerService)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Public user routes
	users := api.Group("/users")
	users.Post("/register", userHandler.Register)
	users.Post("/login", userHandler.Login)
	users.Post("/verify", userHandler.Verify)
	users.Post("/resend-code", userHandler.ResendCode)

	// Property directory
	properties := api.Group("/properties")
	properties.Get("/", propertyHandler.GetAllProperties)
	properties.Get("/mine", middleware.Protected(), propertyHandler.GetMyProperties)
	properties.Get("/:id", propertyHandler.GetProperty)
	properties.Post("/", middleware.Protected(), propertyHandler.CreateProperty)
	properties.Get("/:id/bookings", middleware.Protected(), bookingHandler.GetPropertyBookings)
	properties.Get("/:id/offers", middleware.Protected(), offerHandler.GetPropertyOffers)

	// Visit lifecycle
	bookings := api.Group("/bookings", middleware.Protected())
	bookings.Post("/", bookingHandler.RequestVisit)
	bookings.Get("/", bookingHandler.GetMyBookings)
	bookings.Get("/:id", bookingHandler.GetBooking)
	bookings.Post("/:id/approve", bookingHandler.Approve)
	bookings.Post("/:id/counter", bookingHandler.Counter)
	bookings.Post("/:id/accept-counter", bookingHandler.AcceptCounter)
	bookings.Post("/:id/decline-counter", bookingHandler.DeclineCounter)
	bookings.Post("/:id/cancel", bookingHandler.Cancel)
	bookings.Post("/:id/reject", bookingHandler.Reject)
	bookings.Post("/:id/otp", bookingHandler.GenerateOTP)
	bookings.Post("/:id/start", bookingHandler.StartVisit)
	bookings.Post("/:id/complete", bookingHandler.CompleteVisit)
	bookings.Post("/:id/rate", bookingHandler.RateVisit)

	// Offer negotiation and deal stages
	offers := api.Group("/offers", middleware.Protected())
	offers.Post("/", offerHandler.SubmitOffer)
	offers.Get("/", offerHandler.GetMyOffers)
	offers.Get("/:id", offerHandler.GetOffer)
	offers.Post("/:id/counter", offerHandler.CounterOffer)
	offers.Post("/:id/accept-counter", offerHandler.AcceptCounter)
	offers.Post("/:id/accept", offerHandler.AcceptOffer)
	offers.Post("/:id/reject", offerHandler.RejectOffer)
	offers.Post("/:id/cancel", offerHandler.CancelOffer)
	offers.Post("/:id/advance", offerHandler.AdvanceStage)

	// Deal room
	api.Get("/deals/:offerID", middleware.Protected(), dealHandler.GetDealView)

	// Reservations and mock payment gateway
	api.Post("/reservations", middleware.Protected(), paymentHandler.CreateReservation)
	api.Get("/reservations/:id", middleware.Protected(), paymentHandler.GetReservation)

	webhooks := app.Group("/webhook")
	webhooks.Post("/payment", middleware.ValidatePaymentSignature(), paymentHandler.HandleWebhook)

	// Admin surface
	admin := app.Group("/admin", middleware.Protected(), middleware.AdminOnly())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Post("/users/:id/suspend", adminHandler.SuspendUser)
	admin.Post("/users/:id/reactivate", adminHandler.ReactivateUser)
	admin.Post("/bookings/:id/cancel", adminHandler.CancelBooking)
	admin.Post("/offers/:id/reject", adminHandler.RejectOffer)
}

package routes

import (
	"github.com/anjiri1684/etuition_backend/handlers"
	"github.com/anjiri1684/etuition_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments", middleware.Protected())
	payments.Post("/create-checkout-session", middleware.StudentRequired(), handlers.CreateCheckoutSession)
	payments.Get("/confirm", middleware.StudentRequired(), handlers.ConfirmPaymentSuccess)
	payments.Get("/mine", handlers.GetMyPayments)
}

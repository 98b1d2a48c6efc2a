package routes

import (
	"github.com/anjiri1684/etuition_backend/handlers"
	"github.com/anjiri1684/etuition_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	uploads := api.Group("/uploads", middleware.Protected())
	uploads.Get("/signature", handlers.GenerateUploadSignature)
}

package routes

import (
	"github.com/anjiri1684/etuition_backend/handlers"
	"github.com/anjiri1684/etuition_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func TuitionRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Public browse.
	api.Get("/tuitions/search", handlers.SearchTuitions)
	api.Get("/tuitions/:id", handlers.GetTuition)

	tuitions := api.Group("/tuitions", middleware.Protected())
	tuitions.Get("", handlers.GetTuitions)
	tuitions.Post("", middleware.StudentRequired(), handlers.CreateTuition)
	tuitions.Put("/:id", middleware.StudentRequired(), handlers.UpdateTuition)
	tuitions.Delete("/:id", middleware.StudentRequired(), handlers.DeleteTuition)
	tuitions.Get("/:id/applications", middleware.StudentRequired(), handlers.GetTuitionApplications)
	tuitions.Patch("/status/:id", middleware.AdminRequired(), handlers.UpdateTuitionStatus)
}

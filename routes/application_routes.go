package routes

import (
	"github.com/anjiri1684/etuition_backend/handlers"
	"github.com/anjiri1684/etuition_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func ApplicationRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Public tutor browse over the listing projection.
	api.Get("/tutors", handlers.ListTutors)

	applications := api.Group("/applications", middleware.Protected())
	applications.Post("", middleware.TutorRequired(), handlers.CreateApplication)
	applications.Get("/mine", middleware.TutorRequired(), handlers.GetMyApplications)
	applications.Get("/engagements", middleware.TutorRequired(), handlers.GetOngoingEngagements)
	applications.Patch("/:id/salary", middleware.TutorRequired(), handlers.UpdateExpectedSalary)
	applications.Delete("/:id", middleware.TutorRequired(), handlers.WithdrawApplication)
	applications.Patch("/:id/reject", middleware.StudentRequired(), handlers.RejectApplication)
	applications.Patch("/status/:id", middleware.AdminRequired(), handlers.UpdateApplicationStatus)
}

package routes

import (
	"github.com/anjiri1684/etuition_backend/handlers"
	"github.com/anjiri1684/etuition_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)
	admin.Get("/payments", handlers.AdminGetPayments)

	reports := admin.Group("/reports")
	reports.Get("/transactions", handlers.GenerateTransactionReport)

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:id/role", handlers.ChangeUserRole)
	users.Put("/:id", handlers.UpdateUserInfo)
	users.Put("/:id/status", handlers.ToggleUserStatus)
	users.Delete("/:id", handlers.AdminDeleteUser)
}

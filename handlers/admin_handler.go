package handlers

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anjiri1684/etuition_backend/database"
	"github.com/anjiri1684/etuition_backend/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetAllUsers is the admin user directory with search and pagination.
func GetAllUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := database.DB.Model(&models.User{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching users"})
	}

	var users []models.User
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching users"})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"meta": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student tutor admin"`
}

func ChangeUserRole(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	var req ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	user.Role = req.Role
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update user role"})
	}

	return c.JSON(user)
}

type UpdateUserInfoRequest struct {
	FullName       string  `json:"full_name" validate:"required,min=3"`
	Phone          *string `json:"phone,omitempty"`
	PhotoURL       *string `json:"photo_url,omitempty"`
	Qualifications *string `json:"qualifications,omitempty"`
	Experience     *string `json:"experience,omitempty"`
}

func UpdateUserInfo(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	var req UpdateUserInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	user.FullName = req.FullName
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.PhotoURL != nil {
		user.PhotoURL = req.PhotoURL
	}
	if req.Qualifications != nil {
		user.Qualifications = req.Qualifications
	}
	if req.Experience != nil {
		user.Experience = req.Experience
	}
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update user"})
	}

	return c.JSON(user)
}

// ToggleUserStatus flips the account between active and deactivated.
// A deactivated user cannot log in.
func ToggleUserStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	user.IsActive = !user.IsActive
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update user status"})
	}

	return c.JSON(fiber.Map{
		"message":   "User status updated",
		"is_active": user.IsActive,
	})
}

func AdminDeleteUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if user.Role == models.RoleAdmin {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot delete an admin account"})
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete user"})
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

// AdminGetPayments lists the full payment ledger.
func AdminGetPayments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	var total int64
	if err := database.DB.Model(&models.Payment{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching payments"})
	}

	var ledger []models.Payment
	if err := database.DB.Order("paid_at desc").Offset(offset).Limit(limit).Find(&ledger).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching payments"})
	}

	return c.JSON(fiber.Map{
		"payments": ledger,
		"meta": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetDashboardAnalytics aggregates the headline numbers for the admin
// dashboard in one round trip per figure.
func GetDashboardAnalytics(c *fiber.Ctx) error {
	var totalStudents, totalTutors, totalTuitions int64
	database.DB.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&totalStudents)
	database.DB.Model(&models.User{}).Where("role = ?", models.RoleTutor).Count(&totalTutors)
	database.DB.Model(&models.TuitionPost{}).Count(&totalTuitions)

	type statusCount struct {
		Status string
		Count  int64
	}
	var tuitionsByStatus []statusCount
	database.DB.Model(&models.TuitionPost{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&tuitionsByStatus)

	var totalRevenue float64
	database.DB.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalRevenue)

	var recentPayments int64
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&models.Payment{}).
		Where("paid_at >= ?", thirtyDaysAgo).
		Count(&recentPayments)

	var latest []models.Payment
	database.DB.Order("paid_at desc").Limit(5).Find(&latest)

	return c.JSON(fiber.Map{
		"total_students":     totalStudents,
		"total_tutors":       totalTutors,
		"total_tuitions":     totalTuitions,
		"tuitions_by_status": tuitionsByStatus,
		"total_revenue":      totalRevenue,
		"payments_30d":       recentPayments,
		"latest_payments":    latest,
	})
}

// GenerateTransactionReport streams the payment ledger for a date range
// as a CSV download.
func GenerateTransactionReport(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")

	query := database.DB.Model(&models.Payment{}).Order("paid_at asc")
	if from != "" {
		fromDate, err := time.Parse("2006-01-02", from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid 'from' date, expected YYYY-MM-DD"})
		}
		query = query.Where("paid_at >= ?", fromDate)
	}
	if to != "" {
		toDate, err := time.Parse("2006-01-02", to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid 'to' date, expected YYYY-MM-DD"})
		}
		query = query.Where("paid_at < ?", toDate.AddDate(0, 0, 1))
	}

	var ledger []models.Payment
	if err := query.Find(&ledger).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching payments"})
	}

	var sb strings.Builder
	writer := csv.NewWriter(&sb)
	writer.Write([]string{"Transaction ID", "Student Email", "Tutor Email", "Amount", "Currency", "Status", "Paid At"})
	for _, p := range ledger {
		writer.Write([]string{
			p.TransactionID,
			p.StudentEmail,
			p.TutorEmail,
			fmt.Sprintf("%.2f", p.Amount),
			p.Currency,
			p.Status,
			p.PaidAt.Format(time.RFC3339),
		})
	}
	writer.Flush()

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", "attachment; filename=transaction_report.csv")
	return c.SendString(sb.String())
}

package handlers

import (
	"log"
	"strconv"
	"strings"

	"github.com/anjiri1684/etuition_backend/database"
	"github.com/anjiri1684/etuition_backend/middleware"
	"github.com/anjiri1684/etuition_backend/models"
	"github.com/anjiri1684/etuition_backend/services"
	"github.com/anjiri1684/etuition_backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateTuitionRequest struct {
	Subject     string  `json:"subject" validate:"required,min=2"`
	Class       string  `json:"class" validate:"required"`
	Location    string  `json:"location" validate:"required"`
	Salary      float64 `json:"salary" validate:"required,gt=0"`
	Description string  `json:"description"`
}

func CreateTuition(c *fiber.Ctx) error {
	studentEmail := middleware.TokenEmail(c)
	studentID, err := uuid.Parse(middleware.TokenUserID(c))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token subject"})
	}

	var req CreateTuitionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	tuition := models.TuitionPost{
		Subject:      req.Subject,
		Class:        req.Class,
		Location:     req.Location,
		Salary:       req.Salary,
		Description:  req.Description,
		StudentEmail: studentEmail,
		StudentID:    studentID,
		Status:       models.TuitionStatusPending,
	}
	if err := database.DB.Create(&tuition).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create tuition post"})
	}

	return c.Status(fiber.StatusCreated).JSON(tuition)
}

// GetTuitions serves the dashboards: an admin sees every post, everyone
// else only their own.
func GetTuitions(c *fiber.Ctx) error {
	token := middleware.TokenEmail(c)

	query := database.DB.Model(&models.TuitionPost{}).Order("created_at desc")

	requested := c.Query("studentEmail")
	if middleware.TokenRole(c) != models.RoleAdmin {
		if requested != "" && requested != token {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
		}
		query = query.Where("student_email = ?", token)
	} else if requested != "" {
		query = query.Where("student_email = ?", requested)
	}

	var tuitions []models.TuitionPost
	if err := query.Find(&tuitions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch tuitions"})
	}
	return c.JSON(tuitions)
}

// SearchTuitions is the public feed with search, filters, sorting and
// pagination. Substring matches are case-insensitive.
func SearchTuitions(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "8"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 8
	}
	offset := (page - 1) * limit

	query := database.DB.Model(&models.TuitionPost{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if filterClass := c.Query("filterClass"); filterClass != "" {
		query = query.Where("LOWER(class) LIKE ?", "%"+strings.ToLower(filterClass)+"%")
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(subject) LIKE ? OR LOWER(location) LIKE ?", pattern, pattern)
	}

	switch c.Query("sort") {
	case "salary_asc":
		query = query.Order("salary asc")
	case "salary_desc":
		query = query.Order("salary desc")
	case "oldest":
		query = query.Order("created_at asc")
	default:
		query = query.Order("created_at desc")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching tuitions"})
	}

	var tuitions []models.TuitionPost
	if err := query.Offset(offset).Limit(limit).Find(&tuitions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching tuitions"})
	}

	return c.JSON(fiber.Map{"tuitions": tuitions, "total": total})
}

func GetTuition(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}

	var tuition models.TuitionPost
	if err := database.DB.First(&tuition, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}
	return c.JSON(tuition)
}

type UpdateTuitionRequest struct {
	Subject     string  `json:"subject" validate:"required,min=2"`
	Class       string  `json:"class" validate:"required"`
	Location    string  `json:"location" validate:"required"`
	Salary      float64 `json:"salary" validate:"required,gt=0"`
	Description string  `json:"description"`
}

// UpdateTuition edits the listing fields. Status and ownership never
// change here; a booked post is frozen.
func UpdateTuition(c *fiber.Ctx) error {
	studentEmail := middleware.TokenEmail(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}

	var req UpdateTuitionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var tuition models.TuitionPost
	if err := database.DB.First(&tuition, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}
	if tuition.StudentEmail != studentEmail {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
	}
	if tuition.Status == models.TuitionStatusBooked {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot edit a booked tuition"})
	}

	tuition.Subject = req.Subject
	tuition.Class = req.Class
	tuition.Location = req.Location
	tuition.Salary = req.Salary
	tuition.Description = req.Description
	if err := database.DB.Save(&tuition).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update tuition"})
	}

	return c.JSON(tuition)
}

type TuitionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// UpdateTuitionStatus is the admin moderation gate. Booked posts belong
// to the settlement protocol and cannot be reopened.
func UpdateTuitionStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}

	var req TuitionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var tuition models.TuitionPost
	if err := database.DB.First(&tuition, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}
	if tuition.Status == models.TuitionStatusBooked {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot change the status of a booked tuition"})
	}

	tuition.Status = req.Status
	if err := database.DB.Save(&tuition).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update tuition status"})
	}

	websocket.Push(tuition.StudentEmail, "tuition_status", fiber.Map{
		"tuition_id": tuition.ID,
		"status":     tuition.Status,
	})

	return c.JSON(tuition)
}

func DeleteTuition(c *fiber.Ctx) error {
	studentEmail := middleware.TokenEmail(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}

	var tuition models.TuitionPost
	if err := database.DB.First(&tuition, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}
	if tuition.StudentEmail != studentEmail {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
	}

	if err := database.DB.Delete(&tuition).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete tuition"})
	}
	return c.JSON(fiber.Map{"message": "Tuition deleted"})
}

// GetTuitionApplications lists applications on one post for its owner.
// Listings are read-repaired against the applications they mirror.
func GetTuitionApplications(c *fiber.Ctx) error {
	studentEmail := middleware.TokenEmail(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}

	var tuition models.TuitionPost
	if err := database.DB.First(&tuition, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}
	if tuition.StudentEmail != studentEmail {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
	}

	var applications []models.Application
	if err := database.DB.Where("tuition_id = ?", id).Order("applied_at desc").Find(&applications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch applications"})
	}

	for i := range applications {
		if err := services.ReconcileTutorListing(database.DB, &applications[i]); err != nil {
			log.Printf("Failed to reconcile tutor listing for application %s: %v", applications[i].ID, err)
		}
	}

	return c.JSON(applications)
}

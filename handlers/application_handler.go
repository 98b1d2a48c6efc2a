package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/anjiri1684/etuition_backend/database"
	"github.com/anjiri1684/etuition_backend/middleware"
	"github.com/anjiri1684/etuition_backend/models"
	"github.com/anjiri1684/etuition_backend/notifications"
	"github.com/anjiri1684/etuition_backend/services"
	"github.com/anjiri1684/etuition_backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateApplicationRequest struct {
	TuitionID      string  `json:"tuition_id" validate:"required,uuid"`
	Qualifications string  `json:"qualifications"`
	Experience     string  `json:"experience"`
	ExpectedSalary float64 `json:"expected_salary" validate:"omitempty,gt=0"`
}

// CreateApplication records a tutor's application and mirrors it into the
// public tutor listing in the same transaction. The duplicate check is
// backed by a partial unique index, so two racing applies cannot both land.
func CreateApplication(c *fiber.Ctx) error {
	tutorEmail := middleware.TokenEmail(c)

	var req CreateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	tuitionID, _ := uuid.Parse(req.TuitionID)

	var tutor models.User
	if err := database.DB.Where("email = ?", tutorEmail).First(&tutor).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User profile not found."})
	}

	var tuition models.TuitionPost
	if err := database.DB.First(&tuition, "id = ?", tuitionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}
	if tuition.Status == models.TuitionStatusBooked {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "This tuition has already been booked"})
	}

	var count int64
	database.DB.Model(&models.Application{}).
		Where("tuition_id = ? AND tutor_email = ? AND status <> ?", tuitionID, tutorEmail, models.ApplicationStatusRejected).
		Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "You have already applied to this tuition!"})
	}

	qualifications := req.Qualifications
	if qualifications == "" && tutor.Qualifications != nil {
		qualifications = *tutor.Qualifications
	}
	experience := req.Experience
	if experience == "" && tutor.Experience != nil {
		experience = *tutor.Experience
	}
	expectedSalary := req.ExpectedSalary
	if expectedSalary == 0 {
		expectedSalary = tuition.Salary
	}

	application := models.Application{
		TuitionID:       tuition.ID,
		TuitionSubject:  tuition.Subject,
		TuitionLocation: tuition.Location,
		RecruiterEmail:  tuition.StudentEmail,
		TutorID:         tutor.ID,
		TutorEmail:      tutor.Email,
		TutorName:       tutor.FullName,
		TutorImage:      tutor.PhotoURL,
		Qualifications:  qualifications,
		Experience:      experience,
		ExpectedSalary:  expectedSalary,
		Status:          models.ApplicationStatusPending,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&application).Error; err != nil {
			return err
		}

		listing := models.TutorListing{
			TuitionID:       application.TuitionID,
			TuitionSubject:  application.TuitionSubject,
			TuitionLocation: application.TuitionLocation,
			RecruiterEmail:  application.RecruiterEmail,
			TutorEmail:      application.TutorEmail,
			TutorName:       application.TutorName,
			TutorImage:      application.TutorImage,
			Qualifications:  application.Qualifications,
			Experience:      application.Experience,
			ExpectedSalary:  application.ExpectedSalary,
			Status:          application.Status,
			AppliedAt:       application.AppliedAt,
		}
		return tx.Create(&listing).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "You have already applied to this tuition!"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to submit application"})
	}

	go notifications.SendEmail(
		"", tuition.StudentEmail,
		"New Application Received",
		"<h1>New Application</h1><p>A tutor has applied to your tuition post. Log in to review the application.</p>",
	)

	return c.Status(fiber.StatusCreated).JSON(application)
}

// WithdrawApplication hard-deletes a pending application together with
// its mirrored listing.
func WithdrawApplication(c *fiber.Ctx) error {
	tutorEmail := middleware.TokenEmail(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}

	var application models.Application
	if err := database.DB.First(&application, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}
	if application.TutorEmail != tutorEmail {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
	}
	if application.Status != models.ApplicationStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Only pending applications can be withdrawn"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&application).Error; err != nil {
			return err
		}
		return tx.Where("tuition_id = ? AND tutor_email = ?", application.TuitionID, application.TutorEmail).
			Delete(&models.TutorListing{}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to withdraw application"})
	}

	return c.JSON(fiber.Map{"message": "Application withdrawn"})
}

type UpdateSalaryRequest struct {
	ExpectedSalary float64 `json:"expected_salary" validate:"required,gt=0"`
}

func UpdateExpectedSalary(c *fiber.Ctx) error {
	tutorEmail := middleware.TokenEmail(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}

	var req UpdateSalaryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var application models.Application
	if err := database.DB.First(&application, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}
	if application.TutorEmail != tutorEmail {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
	}
	if application.Status != models.ApplicationStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Only pending applications can be edited"})
	}

	application.ExpectedSalary = req.ExpectedSalary
	if err := database.DB.Save(&application).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update application"})
	}

	if err := services.ReconcileTutorListing(database.DB, &application); err != nil {
		log.Printf("Failed to reconcile tutor listing for application %s: %v", application.ID, err)
	}

	return c.JSON(application)
}

// RejectApplication lets the recruiter (the student who owns the tuition)
// turn down an application without a payment.
func RejectApplication(c *fiber.Ctx) error {
	studentEmail := middleware.TokenEmail(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}

	var application models.Application
	if err := database.DB.First(&application, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}

	var tuition models.TuitionPost
	if err := database.DB.First(&tuition, "id = ?", application.TuitionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}
	if tuition.StudentEmail != studentEmail {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
	}

	now := time.Now()
	application.Status = models.ApplicationStatusRejected
	application.RejectedAt = &now
	if err := database.DB.Save(&application).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to reject application"})
	}

	if err := services.ReconcileTutorListing(database.DB, &application); err != nil {
		log.Printf("Failed to reconcile tutor listing for application %s: %v", application.ID, err)
	}

	websocket.Push(application.TutorEmail, "application_rejected", fiber.Map{
		"application_id": application.ID,
		"tuition_id":     application.TuitionID,
	})

	return c.JSON(application)
}

type ApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Approved Rejected"`
}

// UpdateApplicationStatus is the admin override; the listing mirror is
// repaired in the same breath.
func UpdateApplicationStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}

	var req ApplicationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var application models.Application
	if err := database.DB.First(&application, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}

	now := time.Now()
	application.Status = req.Status
	switch req.Status {
	case models.ApplicationStatusApproved:
		application.ApprovedAt = &now
	case models.ApplicationStatusRejected:
		application.RejectedAt = &now
	}
	if err := database.DB.Save(&application).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update application status"})
	}

	if err := services.ReconcileTutorListing(database.DB, &application); err != nil {
		log.Printf("Failed to reconcile tutor listing for application %s: %v", application.ID, err)
	}

	return c.JSON(application)
}

// GetMyApplications lists the calling tutor's applications, repairing
// each mirrored listing on the way out.
func GetMyApplications(c *fiber.Ctx) error {
	tutorEmail := middleware.TokenEmail(c)

	var applications []models.Application
	if err := database.DB.Where("tutor_email = ?", tutorEmail).Order("applied_at desc").Find(&applications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch applications"})
	}

	for i := range applications {
		if err := services.ReconcileTutorListing(database.DB, &applications[i]); err != nil {
			log.Printf("Failed to reconcile tutor listing for application %s: %v", applications[i].ID, err)
		}
	}

	return c.JSON(applications)
}

// GetOngoingEngagements lists the tutor's approved (paid) engagements.
func GetOngoingEngagements(c *fiber.Ctx) error {
	tutorEmail := middleware.TokenEmail(c)

	var applications []models.Application
	if err := database.DB.
		Where("tutor_email = ? AND status = ?", tutorEmail, models.ApplicationStatusApproved).
		Order("approved_at desc").
		Find(&applications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch engagements"})
	}

	return c.JSON(applications)
}

// ListTutors is the public browse over the tutor-listing projection.
func ListTutors(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "8"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 8
	}
	offset := (page - 1) * limit

	query := database.DB.Model(&models.TutorListing{})

	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(tutor_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("LOWER(tuition_subject) LIKE ?", "%"+strings.ToLower(subject)+"%")
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("LOWER(tuition_location) LIKE ?", "%"+strings.ToLower(location)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching tutors"})
	}

	var listings []models.TutorListing
	if err := query.Order("applied_at desc").Offset(offset).Limit(limit).Find(&listings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching tutors"})
	}

	type tutorView struct {
		ID         uuid.UUID `json:"_id"`
		Name       string    `json:"name"`
		Image      *string   `json:"image"`
		Subject    string    `json:"subject"`
		Location   string    `json:"location"`
		Experience string    `json:"experience"`
		Salary     float64   `json:"salary"`
		Status     string    `json:"status"`
		Date       time.Time `json:"date"`
		TuitionID  uuid.UUID `json:"tuitionId"`
	}

	tutors := make([]tutorView, 0, len(listings))
	for _, l := range listings {
		tutors = append(tutors, tutorView{
			ID:         l.ID,
			Name:       l.TutorName,
			Image:      l.TutorImage,
			Subject:    l.TuitionSubject,
			Location:   l.TuitionLocation,
			Experience: l.Experience,
			Salary:     l.ExpectedSalary,
			Status:     l.Status,
			Date:       l.AppliedAt,
			TuitionID:  l.TuitionID,
		})
	}

	return c.JSON(fiber.Map{"tutors": tutors, "total": total})
}

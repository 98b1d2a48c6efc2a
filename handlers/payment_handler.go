package handlers

import (
	"errors"
	"fmt"
	"log"

	config "github.com/anjiri1684/etuition_backend/configs"
	"github.com/anjiri1684/etuition_backend/database"
	"github.com/anjiri1684/etuition_backend/middleware"
	"github.com/anjiri1684/etuition_backend/models"
	"github.com/anjiri1684/etuition_backend/notifications"
	"github.com/anjiri1684/etuition_backend/payments"
	"github.com/anjiri1684/etuition_backend/services"
	"github.com/anjiri1684/etuition_backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CheckoutRequest struct {
	ApplicationID string `json:"application_id" validate:"required,uuid"`
}

// CreateCheckoutSession starts the paid approval of an application. The
// session carries enough metadata for the confirmation step to settle
// without any server-side state of its own.
func CreateCheckoutSession(c *fiber.Ctx) error {
	studentEmail := middleware.TokenEmail(c)

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	applicationID, _ := uuid.Parse(req.ApplicationID)

	var application models.Application
	if err := database.DB.First(&application, "id = ?", applicationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}
	if application.Status != models.ApplicationStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Only pending applications can be approved"})
	}

	var tuition models.TuitionPost
	if err := database.DB.First(&tuition, "id = ?", application.TuitionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}
	if tuition.StudentEmail != studentEmail {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
	}
	if tuition.Status == models.TuitionStatusBooked {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "This tuition has already been booked"})
	}

	var student models.User
	if err := database.DB.Where("email = ?", studentEmail).First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User profile not found."})
	}

	domain := config.Config("SITE_DOMAIN")
	session, err := payments.Gateway.CreateCheckoutSession(payments.CheckoutSessionParams{
		Amount:        application.ExpectedSalary,
		Currency:      "usd",
		Description:   fmt.Sprintf("Tuition: %s with %s", application.TuitionSubject, application.TutorName),
		CustomerEmail: studentEmail,
		Metadata: map[string]string{
			"applicationId": application.ID.String(),
			"tuitionId":     tuition.ID.String(),
			"studentEmail":  studentEmail,
			"tutorEmail":    application.TutorEmail,
			"studentId":     student.ID.String(),
			"tutorId":       application.TutorID.String(),
		},
		SuccessURL: domain + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  domain + "/dashboard/my-tuitions",
	})
	if err != nil {
		log.Printf("Failed to create checkout session for application %s: %v", application.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create checkout session"})
	}

	return c.JSON(fiber.Map{"url": session.URL})
}

// ConfirmPaymentSuccess verifies the checkout session with the processor
// and runs the settlement. It is safe to call more than once for the
// same session; only the first call changes anything.
func ConfirmPaymentSuccess(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "session_id is required"})
	}

	details, err := payments.Gateway.RetrieveSession(sessionID)
	if err != nil {
		log.Printf("Failed to retrieve checkout session %s: %v", sessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to verify payment session"})
	}
	if details.PaymentStatus != "paid" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Payment has not been completed"})
	}

	applicationID, err := uuid.Parse(details.Metadata["applicationId"])
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
	}
	tuitionID, err := uuid.Parse(details.Metadata["tuitionId"])
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
	}

	payment, performed, err := services.SettleApprovedApplication(database.DB, services.SettlementInput{
		TransactionID: details.PaymentIntentID,
		SessionID:     sessionID,
		Amount:        float64(details.AmountTotal) / 100,
		Currency:      details.Currency,
		StudentEmail:  details.Metadata["studentEmail"],
		TutorEmail:    details.Metadata["tutorEmail"],
		ApplicationID: applicationID,
		TuitionID:     tuitionID,
	})
	if err != nil {
		if errors.Is(err, services.ErrApplicationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
		}
		if errors.Is(err, services.ErrTuitionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Tuition not found"})
		}
		if errors.Is(err, services.ErrTuitionAlreadyBooked) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "This tuition has already been booked"})
		}
		if errors.Is(err, services.ErrSettlementMismatch) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Payment session does not match the application"})
		}
		log.Printf("Settlement failed for transaction %s: %v", details.PaymentIntentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to record payment"})
	}

	if performed {
		go services.GenerateReceiptForPayment(payment.ID)
		go notifySettlement(payment)
	}

	return c.JSON(fiber.Map{
		"message": "Payment confirmed",
		"payment": payment,
	})
}

// notifySettlement fans the settlement outcome out to everyone it
// touched: the winning tutor, the student, and the tutors whose
// applications were rejected by the booking.
func notifySettlement(payment *models.Payment) {
	var winner models.Application
	if err := database.DB.First(&winner, "id = ?", payment.ApplicationID).Error; err != nil {
		log.Printf("Failed to load winning application %s: %v", payment.ApplicationID, err)
		return
	}

	websocket.Push(winner.TutorEmail, "application_approved", fiber.Map{
		"application_id": winner.ID,
		"tuition_id":     winner.TuitionID,
	})

	notifications.SendEmail(
		winner.TutorName, winner.TutorEmail,
		"Your Application Was Approved!",
		fmt.Sprintf("<h1>Congratulations!</h1><p>Your application for the %s tuition has been approved and paid for.</p>", winner.TuitionSubject),
	)
	notifications.SendEmail(
		"", payment.StudentEmail,
		"Payment Successful",
		fmt.Sprintf("<h1>Payment Received</h1><p>Your payment of %.2f %s has been recorded. The tuition is now booked.</p>", payment.Amount, payment.Currency),
	)

	// Only the applications this settlement flipped; tutors the recruiter
	// turned down earlier already got their notification.
	rejected, err := services.ApplicationsRejectedBySettlement(database.DB, &winner, payment.PaidAt)
	if err != nil {
		log.Printf("Failed to load rejected applications for tuition %s: %v", winner.TuitionID, err)
		return
	}
	for _, app := range rejected {
		websocket.Push(app.TutorEmail, "application_rejected", fiber.Map{
			"application_id": app.ID,
			"tuition_id":     app.TuitionID,
		})
	}
}

// GetMyPayments lists the ledger rows where the caller is either side
// of the transaction.
func GetMyPayments(c *fiber.Ctx) error {
	email := middleware.TokenEmail(c)

	var ledger []models.Payment
	if err := database.DB.
		Where("student_email = ? OR tutor_email = ?", email, email).
		Order("paid_at desc").
		Find(&ledger).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch payments"})
	}

	return c.JSON(ledger)
}

package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/etuition_backend/database"
	"github.com/anjiri1684/etuition_backend/models"
	"github.com/anjiri1684/etuition_backend/notifications"
)

// SendPendingApplicationReminders nudges recruiters who have left
// applications sitting in Pending for more than two days.
func SendPendingApplicationReminders() {
	log.Println("Running job: SendPendingApplicationReminders...")

	cutoff := time.Now().Add(-48 * time.Hour)

	var stale []models.Application
	err := database.DB.
		Where("status = ? AND applied_at < ?", models.ApplicationStatusPending, cutoff).
		Find(&stale).Error
	if err != nil {
		log.Printf("Error checking for stale applications: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	// One email per recruiter, not one per application.
	byRecruiter := make(map[string]int)
	for _, app := range stale {
		byRecruiter[app.RecruiterEmail]++
	}

	for email, count := range byRecruiter {
		emailSubject := "You Have Tutor Applications Waiting"
		emailBody := fmt.Sprintf(
			"<h1>Applications Waiting</h1><p>You have %d tutor application(s) that have been pending for more than 48 hours. Log in to review them.</p>",
			count,
		)
		go notifications.SendEmail("", email, emailSubject, emailBody)
	}

	log.Printf("Sent reminders to %d recruiter(s).", len(byRecruiter))
}

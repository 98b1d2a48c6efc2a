package services

import (
	"errors"
	"time"

	"github.com/anjiri1684/etuition_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrTuitionNotFound      = errors.New("tuition post not found")
	ErrTuitionAlreadyBooked = errors.New("tuition post already booked")
	ErrSettlementMismatch   = errors.New("payment metadata does not match application")
)

// SettlementInput carries the confirmed checkout-session facts needed to
// settle a payment. TransactionID is the processor's payment-intent id.
type SettlementInput struct {
	TransactionID string
	SessionID     string
	Amount        float64
	Currency      string
	StudentEmail  string
	TutorEmail    string
	ApplicationID uuid.UUID
	TuitionID     uuid.UUID
}

var errAlreadySettled = errors.New("transaction already settled")

// SettleApprovedApplication performs the whole settlement for one confirmed
// payment as a single transaction: record the ledger row, approve the winning
// application, book the tuition, mirror the approval into the tutor listing,
// and reject every competing application on the same tuition.
//
// The unique transaction id makes redelivered confirmations no-ops: the
// second return value reports whether this call actually settled anything.
func SettleApprovedApplication(db *gorm.DB, in SettlementInput) (*models.Payment, bool, error) {
	var existing models.Payment
	err := db.Where("transaction_id = ?", in.TransactionID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	var payment models.Payment
	err = db.Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.First(&application, "id = ?", in.ApplicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}

		if in.TutorEmail != "" && in.TutorEmail != application.TutorEmail {
			return ErrSettlementMismatch
		}

		var tuition models.TuitionPost
		if err := tx.First(&tuition, "id = ?", in.TuitionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTuitionNotFound
			}
			return err
		}
		// Booked is terminal. A second confirmed payment on the same
		// tuition must not reassign the winner; only a replay of the
		// original transaction gets through, and that is already caught
		// by the idempotency check above.
		if tuition.Status == models.TuitionStatusBooked {
			return ErrTuitionAlreadyBooked
		}

		now := time.Now()
		payment = models.Payment{
			TransactionID: in.TransactionID,
			Amount:        in.Amount,
			Currency:      in.Currency,
			StudentEmail:  in.StudentEmail,
			TutorEmail:    application.TutorEmail,
			ApplicationID: application.ID,
			TuitionID:     tuition.ID,
			Status:        "succeeded",
			PaidAt:        now,
		}
		if in.SessionID != "" {
			payment.SessionID = &in.SessionID
		}
		if err := tx.Create(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// A concurrent delivery of the same confirmation won the race.
				return errAlreadySettled
			}
			return err
		}

		application.Status = models.ApplicationStatusApproved
		application.TransactionID = &in.TransactionID
		application.ApprovedAt = &now
		if err := tx.Save(&application).Error; err != nil {
			return err
		}

		tuition.Status = models.TuitionStatusBooked
		tuition.TransactionID = &in.TransactionID
		tuition.BookedAt = &now
		if err := tx.Save(&tuition).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.TutorListing{}).
			Where("tuition_id = ? AND tutor_email = ?", application.TuitionID, application.TutorEmail).
			Updates(map[string]interface{}{
				"status":         models.ApplicationStatusApproved,
				"transaction_id": in.TransactionID,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Application{}).
			Where("tuition_id = ? AND id <> ? AND status <> ?",
				application.TuitionID, application.ID, models.ApplicationStatusRejected).
			Updates(map[string]interface{}{
				"status":      models.ApplicationStatusRejected,
				"rejected_at": now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.TutorListing{}).
			Where("tuition_id = ? AND tutor_email <> ? AND status <> ?",
				application.TuitionID, application.TutorEmail, models.ApplicationStatusRejected).
			Update("status", models.ApplicationStatusRejected).Error; err != nil {
			return err
		}

		return nil
	})

	if errors.Is(err, errAlreadySettled) {
		if err := db.Where("transaction_id = ?", in.TransactionID).First(&payment).Error; err != nil {
			return nil, false, err
		}
		return &payment, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &payment, true, nil
}

// ApplicationsRejectedBySettlement lists the applications a settlement
// flipped to Rejected, excluding ones the recruiter had already turned
// down before the payment landed.
func ApplicationsRejectedBySettlement(db *gorm.DB, winner *models.Application, since time.Time) ([]models.Application, error) {
	var rejected []models.Application
	err := db.
		Where("tuition_id = ? AND id <> ? AND status = ? AND rejected_at >= ?",
			winner.TuitionID, winner.ID, models.ApplicationStatusRejected, since).
		Find(&rejected).Error
	return rejected, err
}

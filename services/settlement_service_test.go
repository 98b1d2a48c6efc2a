package services

import (
	"testing"
	"time"

	"github.com/anjiri1684/etuition_backend/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TuitionPost{},
		&models.Application{},
		&models.TutorListing{},
		&models.Payment{},
	))
	return db
}

type settlementFixture struct {
	tuition    models.TuitionPost
	winner     models.Application
	competitor models.Application
}

func seedSettlementFixture(t *testing.T, db *gorm.DB) settlementFixture {
	t.Helper()

	tuition := models.TuitionPost{
		Subject:      "Mathematics",
		Class:        "Class 10",
		Location:     "Dhaka",
		Salary:       5000,
		StudentEmail: "student@example.com",
		StudentID:    uuid.New(),
		Status:       models.TuitionStatusApproved,
	}
	require.NoError(t, db.Create(&tuition).Error)

	winner := models.Application{
		TuitionID:       tuition.ID,
		TuitionSubject:  tuition.Subject,
		TuitionLocation: tuition.Location,
		RecruiterEmail:  tuition.StudentEmail,
		TutorID:         uuid.New(),
		TutorEmail:      "winner@example.com",
		TutorName:       "Winner Tutor",
		ExpectedSalary:  5500,
		Status:          models.ApplicationStatusPending,
	}
	require.NoError(t, db.Create(&winner).Error)

	competitor := models.Application{
		TuitionID:       tuition.ID,
		TuitionSubject:  tuition.Subject,
		TuitionLocation: tuition.Location,
		RecruiterEmail:  tuition.StudentEmail,
		TutorID:         uuid.New(),
		TutorEmail:      "competitor@example.com",
		TutorName:       "Competitor Tutor",
		ExpectedSalary:  4800,
		Status:          models.ApplicationStatusPending,
	}
	require.NoError(t, db.Create(&competitor).Error)

	for _, app := range []models.Application{winner, competitor} {
		listing := models.TutorListing{
			TuitionID:       app.TuitionID,
			TuitionSubject:  app.TuitionSubject,
			TuitionLocation: app.TuitionLocation,
			RecruiterEmail:  app.RecruiterEmail,
			TutorEmail:      app.TutorEmail,
			TutorName:       app.TutorName,
			ExpectedSalary:  app.ExpectedSalary,
			Status:          app.Status,
			AppliedAt:       app.AppliedAt,
		}
		require.NoError(t, db.Create(&listing).Error)
	}

	return settlementFixture{tuition: tuition, winner: winner, competitor: competitor}
}

func TestSettleApprovedApplication(t *testing.T) {
	db := newTestDB(t)
	fx := seedSettlementFixture(t, db)

	payment, performed, err := SettleApprovedApplication(db, SettlementInput{
		TransactionID: "pi_test_123",
		SessionID:     "cs_test_123",
		Amount:        55,
		Currency:      "usd",
		StudentEmail:  fx.tuition.StudentEmail,
		TutorEmail:    fx.winner.TutorEmail,
		ApplicationID: fx.winner.ID,
		TuitionID:     fx.tuition.ID,
	})
	require.NoError(t, err)
	assert.True(t, performed)
	require.NotNil(t, payment)
	assert.Equal(t, "succeeded", payment.Status)
	assert.Equal(t, fx.winner.TutorEmail, payment.TutorEmail)

	var winner models.Application
	require.NoError(t, db.First(&winner, "id = ?", fx.winner.ID).Error)
	assert.Equal(t, models.ApplicationStatusApproved, winner.Status)
	require.NotNil(t, winner.TransactionID)
	assert.Equal(t, "pi_test_123", *winner.TransactionID)
	assert.NotNil(t, winner.ApprovedAt)

	var competitor models.Application
	require.NoError(t, db.First(&competitor, "id = ?", fx.competitor.ID).Error)
	assert.Equal(t, models.ApplicationStatusRejected, competitor.Status)
	assert.NotNil(t, competitor.RejectedAt)

	var tuition models.TuitionPost
	require.NoError(t, db.First(&tuition, "id = ?", fx.tuition.ID).Error)
	assert.Equal(t, models.TuitionStatusBooked, tuition.Status)
	assert.NotNil(t, tuition.BookedAt)
	require.NotNil(t, tuition.TransactionID)
	assert.Equal(t, "pi_test_123", *tuition.TransactionID)

	var winnerListing models.TutorListing
	require.NoError(t, db.Where("tuition_id = ? AND tutor_email = ?", fx.tuition.ID, fx.winner.TutorEmail).
		First(&winnerListing).Error)
	assert.Equal(t, models.ApplicationStatusApproved, winnerListing.Status)

	var competitorListing models.TutorListing
	require.NoError(t, db.Where("tuition_id = ? AND tutor_email = ?", fx.tuition.ID, fx.competitor.TutorEmail).
		First(&competitorListing).Error)
	assert.Equal(t, models.ApplicationStatusRejected, competitorListing.Status)
}

func TestSettleApprovedApplicationIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	fx := seedSettlementFixture(t, db)

	input := SettlementInput{
		TransactionID: "pi_test_once",
		Amount:        55,
		Currency:      "usd",
		StudentEmail:  fx.tuition.StudentEmail,
		TutorEmail:    fx.winner.TutorEmail,
		ApplicationID: fx.winner.ID,
		TuitionID:     fx.tuition.ID,
	}

	first, performed, err := SettleApprovedApplication(db, input)
	require.NoError(t, err)
	require.True(t, performed)

	second, performed, err := SettleApprovedApplication(db, input)
	require.NoError(t, err)
	assert.False(t, performed)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Payment{}).Where("transaction_id = ?", input.TransactionID).Count(&count)
	assert.Equal(t, int64(1), count)

	var winner models.Application
	require.NoError(t, db.First(&winner, "id = ?", fx.winner.ID).Error)
	assert.Equal(t, models.ApplicationStatusApproved, winner.Status)
}

func TestSettleApprovedApplicationBookedTuitionRefusesNewTransaction(t *testing.T) {
	db := newTestDB(t)
	fx := seedSettlementFixture(t, db)

	_, performed, err := SettleApprovedApplication(db, SettlementInput{
		TransactionID: "pi_first",
		Amount:        55,
		Currency:      "usd",
		StudentEmail:  fx.tuition.StudentEmail,
		TutorEmail:    fx.winner.TutorEmail,
		ApplicationID: fx.winner.ID,
		TuitionID:     fx.tuition.ID,
	})
	require.NoError(t, err)
	require.True(t, performed)

	// A second confirmed payment for the competitor must not reassign
	// the booked tuition or add a second ledger row.
	_, performed, err = SettleApprovedApplication(db, SettlementInput{
		TransactionID: "pi_second",
		Amount:        48,
		Currency:      "usd",
		StudentEmail:  fx.tuition.StudentEmail,
		TutorEmail:    fx.competitor.TutorEmail,
		ApplicationID: fx.competitor.ID,
		TuitionID:     fx.tuition.ID,
	})
	assert.ErrorIs(t, err, ErrTuitionAlreadyBooked)
	assert.False(t, performed)

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var winner models.Application
	require.NoError(t, db.First(&winner, "id = ?", fx.winner.ID).Error)
	assert.Equal(t, models.ApplicationStatusApproved, winner.Status)
	require.NotNil(t, winner.TransactionID)
	assert.Equal(t, "pi_first", *winner.TransactionID)

	var tuition models.TuitionPost
	require.NoError(t, db.First(&tuition, "id = ?", fx.tuition.ID).Error)
	require.NotNil(t, tuition.TransactionID)
	assert.Equal(t, "pi_first", *tuition.TransactionID)
}

func TestSettleApprovedApplicationTutorMismatch(t *testing.T) {
	db := newTestDB(t)
	fx := seedSettlementFixture(t, db)

	_, performed, err := SettleApprovedApplication(db, SettlementInput{
		TransactionID: "pi_mismatch",
		Amount:        55,
		Currency:      "usd",
		StudentEmail:  fx.tuition.StudentEmail,
		TutorEmail:    "someone-else@example.com",
		ApplicationID: fx.winner.ID,
		TuitionID:     fx.tuition.ID,
	})
	assert.ErrorIs(t, err, ErrSettlementMismatch)
	assert.False(t, performed)

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestApplicationsRejectedBySettlement(t *testing.T) {
	db := newTestDB(t)
	fx := seedSettlementFixture(t, db)

	// Rejected by the recruiter well before the payment.
	old := time.Now().Add(-72 * time.Hour)
	earlier := models.Application{
		TuitionID:      fx.tuition.ID,
		TuitionSubject: fx.tuition.Subject,
		RecruiterEmail: fx.tuition.StudentEmail,
		TutorID:        uuid.New(),
		TutorEmail:     "earlier@example.com",
		TutorName:      "Earlier Tutor",
		ExpectedSalary: 4000,
		Status:         models.ApplicationStatusRejected,
		RejectedAt:     &old,
	}
	require.NoError(t, db.Create(&earlier).Error)

	payment, performed, err := SettleApprovedApplication(db, SettlementInput{
		TransactionID: "pi_notify",
		Amount:        55,
		Currency:      "usd",
		StudentEmail:  fx.tuition.StudentEmail,
		TutorEmail:    fx.winner.TutorEmail,
		ApplicationID: fx.winner.ID,
		TuitionID:     fx.tuition.ID,
	})
	require.NoError(t, err)
	require.True(t, performed)

	var winner models.Application
	require.NoError(t, db.First(&winner, "id = ?", fx.winner.ID).Error)

	rejected, err := ApplicationsRejectedBySettlement(db, &winner, payment.PaidAt)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, fx.competitor.TutorEmail, rejected[0].TutorEmail)
}

func TestSettleApprovedApplicationUnknownApplication(t *testing.T) {
	db := newTestDB(t)
	fx := seedSettlementFixture(t, db)

	_, performed, err := SettleApprovedApplication(db, SettlementInput{
		TransactionID: "pi_test_missing",
		Amount:        55,
		Currency:      "usd",
		StudentEmail:  fx.tuition.StudentEmail,
		ApplicationID: uuid.New(),
		TuitionID:     fx.tuition.ID,
	})
	assert.ErrorIs(t, err, ErrApplicationNotFound)
	assert.False(t, performed)

	// Nothing settles on a failed lookup.
	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)

	var tuition models.TuitionPost
	require.NoError(t, db.First(&tuition, "id = ?", fx.tuition.ID).Error)
	assert.Equal(t, models.TuitionStatusApproved, tuition.Status)
}

func TestSettleApprovedApplicationUnknownTuition(t *testing.T) {
	db := newTestDB(t)
	fx := seedSettlementFixture(t, db)

	_, _, err := SettleApprovedApplication(db, SettlementInput{
		TransactionID: "pi_test_missing_tuition",
		Amount:        55,
		Currency:      "usd",
		StudentEmail:  fx.tuition.StudentEmail,
		ApplicationID: fx.winner.ID,
		TuitionID:     uuid.New(),
	})
	assert.ErrorIs(t, err, ErrTuitionNotFound)
}

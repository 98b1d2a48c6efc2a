package services

import (
	"errors"
	"log"

	"github.com/anjiri1684/etuition_backend/models"
	"gorm.io/gorm"
)

// ReconcileTutorListing repairs the mirrored listing of one application if
// the two have drifted apart. Called from the read paths so a listing is
// corrected whenever its source application is served.
func ReconcileTutorListing(db *gorm.DB, application *models.Application) error {
	var listing models.TutorListing
	err := db.Where("tuition_id = ? AND tutor_email = ?", application.TuitionID, application.TutorEmail).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if listing.Status == application.Status &&
		listing.ExpectedSalary == application.ExpectedSalary &&
		pointerEqual(listing.TransactionID, application.TransactionID) {
		return nil
	}

	listing.Status = application.Status
	listing.ExpectedSalary = application.ExpectedSalary
	listing.TransactionID = application.TransactionID
	return db.Save(&listing).Error
}

// ReconcileAllTutorListings sweeps every listing, copying status from the
// source application and deleting mirrors whose application was withdrawn.
// Returns the number of rows touched.
func ReconcileAllTutorListings(db *gorm.DB) (int64, error) {
	var listings []models.TutorListing
	if err := db.Find(&listings).Error; err != nil {
		return 0, err
	}

	var repaired int64
	for i := range listings {
		listing := &listings[i]

		var application models.Application
		err := db.Where("tuition_id = ? AND tutor_email = ?", listing.TuitionID, listing.TutorEmail).
			Order("applied_at desc").
			First(&application).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Delete(listing).Error; err != nil {
				log.Printf("Failed to delete orphaned tutor listing %s: %v", listing.ID, err)
				continue
			}
			repaired++
			continue
		}
		if err != nil {
			return repaired, err
		}

		if listing.Status == application.Status &&
			listing.ExpectedSalary == application.ExpectedSalary &&
			pointerEqual(listing.TransactionID, application.TransactionID) {
			continue
		}

		listing.Status = application.Status
		listing.ExpectedSalary = application.ExpectedSalary
		listing.TransactionID = application.TransactionID
		if err := db.Save(listing).Error; err != nil {
			log.Printf("Failed to repair tutor listing %s: %v", listing.ID, err)
			continue
		}
		repaired++
	}

	return repaired, nil
}

func pointerEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

package jobs

import (
	"log"

	"github.com/anjiri1684/etuition_backend/database"
	"github.com/anjiri1684/etuition_backend/services"
)

// ReconcileTutorListings sweeps the tutor-listing projection back into
// agreement with the applications it mirrors.
func ReconcileTutorListings() {
	log.Println("Running job: ReconcileTutorListings...")

	repaired, err := services.ReconcileAllTutorListings(database.DB)
	if err != nil {
		log.Printf("Error reconciling tutor listings: %v", err)
		return
	}
	if repaired == 0 {
		return
	}
	log.Printf("Repaired %d tutor listing(s).", repaired)
}

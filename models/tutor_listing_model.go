package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TutorListing is the public, read-optimized mirror of an Application.
// It is keyed by (tuition_id, tutor_email) rather than the application id
// and converges to the application's status through the settlement write
// and the reconciliation sweep.
type TutorListing struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TuitionID uuid.UUID `gorm:"type:uuid;not null;index:idx_tutor_listings_pair,priority:1" json:"tuition_id"`

	TuitionSubject  string `gorm:"size:100;not null" json:"tuition_subject"`
	TuitionLocation string `gorm:"size:255" json:"tuition_location"`
	RecruiterEmail  string `gorm:"size:255" json:"recruiter_email"`

	TutorEmail string  `gorm:"size:255;not null;index:idx_tutor_listings_pair,priority:2" json:"tutor_email"`
	TutorName  string  `gorm:"size:255;not null" json:"tutor_name"`
	TutorImage *string `gorm:"size:255" json:"tutor_image"`

	Qualifications string  `gorm:"type:text" json:"qualifications"`
	Experience     string  `gorm:"type:text" json:"experience"`
	ExpectedSalary float64 `gorm:"type:numeric(10,2);not null" json:"expected_salary"`

	Status        string    `gorm:"size:20;not null;default:'Pending'" json:"status"`
	TransactionID *string   `gorm:"size:255" json:"transaction_id,omitempty"`
	AppliedAt     time.Time `json:"applied_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *TutorListing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.AppliedAt.IsZero() {
		l.AppliedAt = time.Now()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ApplicationStatusPending  = "Pending"
	ApplicationStatusApproved = "Approved"
	ApplicationStatusRejected = "Rejected"
)

// The partial unique index keeps a tutor from holding more than one
// live (non-rejected) application on the same tuition, even when two
// apply calls race.
type Application struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TuitionID uuid.UUID `gorm:"type:uuid;not null;index:idx_applications_live_pair,unique,where:status <> 'Rejected',priority:1" json:"tuition_id"`

	TuitionSubject  string `gorm:"size:100;not null" json:"tuition_subject"`
	TuitionLocation string `gorm:"size:255" json:"tuition_location"`
	RecruiterEmail  string `gorm:"size:255;not null;index" json:"recruiter_email"`

	TutorID    uuid.UUID `gorm:"type:uuid;not null" json:"tutor_id"`
	TutorEmail string    `gorm:"size:255;not null;index:idx_applications_live_pair,priority:2" json:"tutor_email"`
	TutorName  string    `gorm:"size:255;not null" json:"tutor_name"`
	TutorImage *string   `gorm:"size:255" json:"tutor_image"`

	Qualifications string  `gorm:"type:text" json:"qualifications"`
	Experience     string  `gorm:"type:text" json:"experience"`
	ExpectedSalary float64 `gorm:"type:numeric(10,2);not null" json:"expected_salary"`

	Status        string     `gorm:"size:20;not null;default:'Pending'" json:"status"`
	TransactionID *string    `gorm:"size:255" json:"transaction_id,omitempty"`
	AppliedAt     time.Time  `json:"applied_at"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	RejectedAt    *time.Time `json:"rejected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now()
	}
	return nil
}

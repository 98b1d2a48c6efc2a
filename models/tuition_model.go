package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tuition post lifecycle: pending -> approved/rejected (admin),
// approved -> booked (settlement only). Booked is terminal.
const (
	TuitionStatusPending  = "pending"
	TuitionStatusApproved = "approved"
	TuitionStatusRejected = "rejected"
	TuitionStatusBooked   = "booked"
)

type TuitionPost struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Subject     string    `gorm:"size:100;not null" json:"subject"`
	Class       string    `gorm:"size:50;not null" json:"class"`
	Location    string    `gorm:"size:255;not null" json:"location"`
	Salary      float64   `gorm:"type:numeric(10,2);not null" json:"salary"`
	Description string    `gorm:"type:text" json:"description"`

	StudentEmail string    `gorm:"size:255;not null;index" json:"student_email"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null" json:"student_id"`

	Status        string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	TransactionID *string    `gorm:"size:255" json:"transaction_id,omitempty"`
	BookedAt      *time.Time `json:"booked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *TuitionPost) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

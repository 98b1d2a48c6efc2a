package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is an append-only ledger row. TransactionID is the processor's
// payment-intent id and doubles as the settlement idempotency key.
type Payment struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TransactionID string    `gorm:"size:255;not null;unique" json:"transaction_id"`
	SessionID     *string   `gorm:"size:255;unique" json:"session_id,omitempty"`

	Amount   float64 `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency string  `gorm:"size:3;not null" json:"currency"`

	StudentEmail string `gorm:"size:255;not null;index" json:"student_email"`
	TutorEmail   string `gorm:"size:255;not null;index" json:"tutor_email"`

	ApplicationID uuid.UUID `gorm:"type:uuid;not null" json:"application_id"`
	TuitionID     uuid.UUID `gorm:"type:uuid;not null" json:"tuition_id"`

	Status     string    `gorm:"size:20;not null" json:"status"`
	ReceiptURL *string   `gorm:"size:255" json:"receipt_url,omitempty"`
	PaidAt     time.Time `json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

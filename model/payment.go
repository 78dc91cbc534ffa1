package model

import (
	"time"
)

// Payment session status values as reported by the provider
const (
	SessionStatusUnpaid = "unpaid"
	SessionStatusPaid   = "paid"
)

// PaymentSession is the pending checkout reference persisted between
// CreateCheckout and ConfirmCheckout. The unique index on UserID encodes the
// "at most one outstanding session per user" invariant: a new paid-enrollment
// request upserts the row, silently replacing any prior session.
type PaymentSession struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	UserID          uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CourseID        uint      `gorm:"not null;index" json:"course_id"`
	StripeSessionID string    `gorm:"type:varchar(255);not null" json:"stripe_session_id"`
	CheckoutURL     string    `gorm:"type:text" json:"checkout_url"`
	Status          string    `gorm:"type:varchar(20);default:'unpaid'" json:"status"`
	AmountCents     int64     `gorm:"not null" json:"amount_cents"`
	FeeCents        int64     `gorm:"not null" json:"fee_cents"`
	Currency        string    `gorm:"type:varchar(10);default:'usd'" json:"currency"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for PaymentSession
func (PaymentSession) TableName() string {
	return "payment_sessions"
}

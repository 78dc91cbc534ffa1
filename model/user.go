package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role values assignable to a user. Every account starts as a Subscriber;
// Instructor is added after Stripe onboarding completes.
const (
	RoleSubscriber = "Subscriber"
	RoleInstructor = "Instructor"
	RoleAdmin      = "Admin"
)

// User represents a registered account in the marketplace
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Picture      string         `gorm:"default:'/avatar.png'" json:"picture"`
	Roles        []string       `gorm:"serializer:json" json:"roles"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Stripe Connect state for users acting as sellers. StripeSeller holds the
	// raw connected-account snapshot returned by Stripe once charges are enabled.
	StripeAccountID string         `gorm:"type:varchar(100)" json:"stripe_account_id,omitempty"`
	StripeSeller    datatypes.JSON `json:"stripe_seller,omitempty"`

	// Relationships
	Enrollments    []Enrollment    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PaymentSession *PaymentSession `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasRole reports whether the user carries the given role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddRole appends a role if not already present
func (u *User) AddRole(role string) {
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// Asset is a reference to an object stored in the media bucket
type Asset struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// IsZero reports whether the asset reference is empty
func (a Asset) IsZero() bool {
	return a.Key == ""
}

// Course represents a sellable course with its embedded lesson list
type Course struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description  string         `gorm:"type:text" json:"description"`
	Category     string         `gorm:"type:varchar(100)" json:"category"`
	Image        Asset          `gorm:"serializer:json" json:"image"`
	PriceCents   int64          `gorm:"default:999" json:"price_cents"` // price in the currency's minor unit
	Currency     string         `gorm:"type:varchar(10);default:'usd'" json:"currency"`
	Paid         bool           `gorm:"default:true" json:"paid"`
	Published    bool           `gorm:"default:false" json:"published"`
	InstructorID uint           `gorm:"not null;index" json:"instructor_id"`

	// Relationships
	Instructor User     `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Lessons    []Lesson `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

// Lesson is owned exclusively by its course; it has no independent lifecycle
type Lesson struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID    uint           `gorm:"not null;index" json:"course_id"`
	Title       string         `gorm:"not null" json:"title"`
	Slug        string         `json:"slug"`
	Content     string         `gorm:"type:text" json:"content"`
	Video       Asset          `gorm:"serializer:json" json:"video"`
	FreePreview bool           `gorm:"default:false" json:"free_preview"`
	Position    int            `gorm:"not null;default:0" json:"position"` // order within the course
}

package model

// Completion is one element of the completed-lesson set for a (user, course)
// pair. The composite primary key makes MarkCompleted idempotent: inserting an
// already-present lesson id is a no-op.
type Completion struct {
	UserID      uint  `gorm:"primaryKey" json:"user_id"`
	CourseID    uint  `gorm:"primaryKey" json:"course_id"`
	LessonID    uint  `gorm:"primaryKey" json:"lesson_id"`
	CompletedAt int64 `gorm:"autoCreateTime" json:"completed_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

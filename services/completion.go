package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/edulaunch/marketplace-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompletionService tracks per-lesson completion for enrolled students.
// The completed set for a (user, course) pair is a set of lesson ids: marking
// twice or unmarking an absent id is a no-op.
type CompletionService struct {
	db *gorm.DB
}

// NewCompletionService creates a new completion service
func NewCompletionService(db *gorm.DB) *CompletionService {
	return &CompletionService{db: db}
}

// MarkCompleted adds a lesson to the completed set. The lesson must belong to
// the course's lesson list.
func (s *CompletionService) MarkCompleted(ctx context.Context, userID, courseID, lessonID uint) error {
	if err := s.validateLesson(ctx, courseID, lessonID); err != nil {
		return err
	}

	completion := model.Completion{UserID: userID, CourseID: courseID, LessonID: lessonID}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&completion).Error; err != nil {
		return fmt.Errorf("failed to mark lesson completed: %w", err)
	}
	return nil
}

// MarkIncomplete removes a lesson from the completed set
func (s *CompletionService) MarkIncomplete(ctx context.Context, userID, courseID, lessonID uint) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND lesson_id = ?", userID, courseID, lessonID).
		Delete(&model.Completion{}).Error
	if err != nil {
		return fmt.Errorf("failed to mark lesson incomplete: %w", err)
	}
	return nil
}

// ListCompleted returns the completed lesson ids for a (user, course) pair.
// Returns an empty slice when nothing has been completed yet.
func (s *CompletionService) ListCompleted(ctx context.Context, userID, courseID uint) ([]uint, error) {
	var lessonIDs []uint
	err := s.db.WithContext(ctx).Model(&model.Completion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("completed_at").
		Pluck("lesson_id", &lessonIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed lessons: %w", err)
	}

	if lessonIDs == nil {
		lessonIDs = []uint{}
	}
	return lessonIDs, nil
}

func (s *CompletionService) validateLesson(ctx context.Context, courseID, lessonID uint) error {
	var lesson model.Lesson
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		First(&lesson, lessonID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: lesson %d in course %d", ErrNotFound, lessonID, courseID)
		}
		return fmt.Errorf("failed to load lesson: %w", err)
	}
	return nil
}

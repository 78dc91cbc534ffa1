package services

import (
	"context"
	"testing"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createLesson(t *testing.T, db *gorm.DB, courseID uint, title string, position int) *model.Lesson {
	t.Helper()
	lesson := &model.Lesson{CourseID: courseID, Title: title, Position: position}
	require.NoError(t, db.Create(lesson).Error)
	return lesson
}

func TestMarkAndListCompleted(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "")
	course := createCourse(t, db, "Free Course", false, 0, instructor.ID)
	first := createLesson(t, db, course.ID, "Intro", 0)
	second := createLesson(t, db, course.ID, "Basics", 1)
	student := createUser(t, db, "")

	svc := NewCompletionService(db)
	ctx := context.Background()

	lessons, err := svc.ListCompleted(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Empty(t, lessons)
	assert.NotNil(t, lessons)

	require.NoError(t, svc.MarkCompleted(ctx, student.ID, course.ID, first.ID))
	require.NoError(t, svc.MarkCompleted(ctx, student.ID, course.ID, second.ID))

	// Marking the same lesson twice is a no-op
	require.NoError(t, svc.MarkCompleted(ctx, student.ID, course.ID, first.ID))

	lessons, err = svc.ListCompleted(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{first.ID, second.ID}, lessons)
}

func TestMarkIncomplete(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "")
	course := createCourse(t, db, "Free Course", false, 0, instructor.ID)
	lesson := createLesson(t, db, course.ID, "Intro", 0)
	student := createUser(t, db, "")

	svc := NewCompletionService(db)
	ctx := context.Background()

	require.NoError(t, svc.MarkCompleted(ctx, student.ID, course.ID, lesson.ID))
	require.NoError(t, svc.MarkIncomplete(ctx, student.ID, course.ID, lesson.ID))

	lessons, err := svc.ListCompleted(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Empty(t, lessons)

	// Unmarking an absent lesson is a no-op
	require.NoError(t, svc.MarkIncomplete(ctx, student.ID, course.ID, lesson.ID))
}

func TestMarkCompletedValidatesLesson(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "")
	course := createCourse(t, db, "Free Course", false, 0, instructor.ID)
	other := createCourse(t, db, "Other Course", false, 0, instructor.ID)
	lesson := createLesson(t, db, other.ID, "Elsewhere", 0)
	student := createUser(t, db, "")

	svc := NewCompletionService(db)
	ctx := context.Background()

	// Unknown lesson
	err := svc.MarkCompleted(ctx, student.ID, course.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	// Lesson belongs to a different course
	err = svc.MarkCompleted(ctx, student.ID, course.ID, lesson.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	lessons, listErr := svc.ListCompleted(ctx, student.ID, course.ID)
	require.NoError(t, listErr)
	assert.Empty(t, lessons)
}

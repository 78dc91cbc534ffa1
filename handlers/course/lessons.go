package course

import (
	"strconv"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/edulaunch/marketplace-api/utils/middleware"
	"github.com/edulaunch/marketplace-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// AddLessonRequest represents the request body for adding a lesson
type AddLessonRequest struct {
	Title       string       `json:"title" validate:"required,min=5,max=320"`
	Content     string       `json:"content" validate:"omitempty"`
	Video       *model.Asset `json:"video"`
	FreePreview bool         `json:"free_preview"`
}

// UpdateLessonRequest represents the request body for updating a lesson
type UpdateLessonRequest struct {
	Title       string       `json:"title" validate:"omitempty,min=5,max=320"`
	Content     string       `json:"content" validate:"omitempty"`
	Video       *model.Asset `json:"video"`
	FreePreview *bool        `json:"free_preview"`
}

// AddLesson handles POST /api/v1/instructor/course/:slug/lesson
func (h *CourseHandler) AddLesson(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	course, err := h.ownedCourse(c, user)
	if course == nil {
		return err
	}

	var req AddLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// New lessons go to the end of the course
	var maxPosition int64
	h.db.Model(&model.Lesson{}).Where("course_id = ?", course.ID).Count(&maxPosition)

	lesson := model.Lesson{
		CourseID:    course.ID,
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Content:     req.Content,
		FreePreview: req.FreePreview,
		Position:    int(maxPosition),
	}
	if req.Video != nil {
		lesson.Video = *req.Video
	}

	if err := h.db.Create(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Add lesson failed")
	}

	return h.courseWithLessons(c, course.ID)
}

// UpdateLesson handles PUT /api/v1/instructor/course/:slug/lesson/:lessonId
func (h *CourseHandler) UpdateLesson(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	course, err := h.ownedCourse(c, user)
	if course == nil {
		return err
	}

	lesson, lerr := h.courseLesson(c, course)
	if lesson == nil {
		return lerr
	}

	var req UpdateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Title != "" {
		lesson.Title = req.Title
		lesson.Slug = slug.Make(req.Title)
	}
	if req.Content != "" {
		lesson.Content = req.Content
	}
	if req.Video != nil {
		lesson.Video = *req.Video
	}
	if req.FreePreview != nil {
		lesson.FreePreview = *req.FreePreview
	}

	if err := h.db.Save(lesson).Error; err != nil {
		return response.InternalServerError(c, "Update lesson failed")
	}

	return response.Success(c, lesson)
}

// RemoveLesson handles DELETE /api/v1/instructor/course/:slug/lesson/:lessonId
func (h *CourseHandler) RemoveLesson(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	course, err := h.ownedCourse(c, user)
	if course == nil {
		return err
	}

	lesson, lerr := h.courseLesson(c, course)
	if lesson == nil {
		return lerr
	}

	if err := h.db.Delete(lesson).Error; err != nil {
		return response.InternalServerError(c, "Remove lesson failed")
	}

	return response.SuccessWithMessage(c, "Lesson removed", nil)
}

// courseLesson loads the lesson named by the :lessonId param, scoped to the course
func (h *CourseHandler) courseLesson(c *fiber.Ctx, course *model.Course) (*model.Lesson, error) {
	lessonID, err := strconv.ParseUint(c.Params("lessonId"), 10, 32)
	if err != nil {
		return nil, response.BadRequest(c, "Invalid lesson id")
	}

	var lesson model.Lesson
	err = h.db.Where("course_id = ?", course.ID).First(&lesson, uint(lessonID)).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NotFound(c, "Lesson not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch lesson")
	}

	return &lesson, nil
}

func (h *CourseHandler) courseWithLessons(c *fiber.Ctx, courseID uint) error {
	var course model.Course
	err := h.db.Preload("Instructor").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.position ASC")
		}).
		First(&course, courseID).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch course")
	}
	return response.Success(c, &course)
}

package completion

import (
	"errors"

	"github.com/edulaunch/marketplace-api/services"
	"github.com/edulaunch/marketplace-api/utils/middleware"
	"github.com/edulaunch/marketplace-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// CompletionHandler handles per-lesson completion tracking
type CompletionHandler struct {
	completions *services.CompletionService
}

// NewCompletionHandler creates a new completion handler
func NewCompletionHandler(completions *services.CompletionService) *CompletionHandler {
	return &CompletionHandler{completions: completions}
}

// MarkRequest names the (course, lesson) pair being toggled
type MarkRequest struct {
	CourseID uint `json:"course_id" validate:"required,min=1"`
	LessonID uint `json:"lesson_id" validate:"required,min=1"`
}

// ListRequest names the course whose completed set is wanted
type ListRequest struct {
	CourseID uint `json:"course_id" validate:"required,min=1"`
}

// MarkCompleted handles POST /api/v1/completion/mark
func (h *CompletionHandler) MarkCompleted(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req MarkRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CourseID == 0 || req.LessonID == 0 {
		return response.BadRequest(c, "course_id and lesson_id are required")
	}

	if err := h.completions.MarkCompleted(c.Context(), user.ID, req.CourseID, req.LessonID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to mark lesson completed")
	}

	return response.SuccessWithMessage(c, "Lesson marked completed", nil)
}

// MarkIncomplete handles POST /api/v1/completion/unmark
func (h *CompletionHandler) MarkIncomplete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req MarkRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CourseID == 0 || req.LessonID == 0 {
		return response.BadRequest(c, "course_id and lesson_id are required")
	}

	if err := h.completions.MarkIncomplete(c.Context(), user.ID, req.CourseID, req.LessonID); err != nil {
		return response.InternalServerError(c, "Failed to mark lesson incomplete")
	}

	return response.SuccessWithMessage(c, "Lesson marked incomplete", nil)
}

// ListCompleted handles POST /api/v1/completion/list
func (h *CompletionHandler) ListCompleted(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req ListRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CourseID == 0 {
		return response.BadRequest(c, "course_id is required")
	}

	lessonIDs, err := h.completions.ListCompleted(c.Context(), user.ID, req.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list completed lessons")
	}

	return response.Success(c, lessonIDs)
}

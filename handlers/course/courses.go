package course

import (
	"time"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/edulaunch/marketplace-api/utils/cache"
	"github.com/edulaunch/marketplace-api/utils/middleware"
	"github.com/edulaunch/marketplace-api/utils/response"
	"github.com/edulaunch/marketplace-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const publishedCoursesCacheKey = "courses:published"

// CourseHandler handles course authoring and catalog requests
type CourseHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	cache     *cache.RedisCache // may be nil; the catalog works without it
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, redisCache *cache.RedisCache) *CourseHandler {
	return &CourseHandler{
		db:        db,
		validator: validation.NewValidator(),
		cache:     redisCache,
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Name        string       `json:"name" validate:"required,min=5,max=320"`
	Description string       `json:"description" validate:"required"`
	Category    string       `json:"category" validate:"omitempty,max=100"`
	PriceCents  int64        `json:"price_cents" validate:"omitempty,min=0"`
	Currency    string       `json:"currency" validate:"omitempty,len=3"`
	Paid        *bool        `json:"paid"`
	Image       *model.Asset `json:"image"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Name        string       `json:"name" validate:"omitempty,min=5,max=320"`
	Description string       `json:"description" validate:"omitempty"`
	Category    string       `json:"category" validate:"omitempty,max=100"`
	PriceCents  *int64       `json:"price_cents" validate:"omitempty,min=0"`
	Paid        *bool        `json:"paid"`
	Image       *model.Asset `json:"image"`
}

// CreateCourse handles POST /api/v1/instructor/course
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	courseSlug := slug.Make(req.Name)

	// Course names map to unique slugs; reject duplicates up front
	var count int64
	if err := h.db.Model(&model.Course{}).Where("slug = ?", courseSlug).Count(&count).Error; err != nil {
		return response.InternalServerError(c, "Failed to check course name")
	}
	if count > 0 {
		return response.Conflict(c, "Title is taken")
	}

	course := model.Course{
		Name:         req.Name,
		Slug:         courseSlug,
		Description:  req.Description,
		Category:     req.Category,
		PriceCents:   req.PriceCents,
		Currency:     "usd",
		Paid:         true,
		InstructorID: user.ID,
	}
	if req.Currency != "" {
		course.Currency = req.Currency
	}
	if req.Paid != nil {
		course.Paid = *req.Paid
	}
	if req.Image != nil {
		course.Image = *req.Image
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Course create failed. Try again.")
	}

	return response.Created(c, course)
}

// GetCourse handles GET /api/v1/courses/:slug (public read)
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	courseSlug := c.Params("slug")

	var course model.Course
	err := h.db.Preload("Instructor").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.position ASC")
		}).
		Where("slug = ?", courseSlug).
		First(&course).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// UpdateCourse handles PUT /api/v1/instructor/course/:slug
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	course, err := h.ownedCourse(c, user)
	if course == nil {
		return err
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Name != "" {
		newSlug := slug.Make(req.Name)
		if newSlug != course.Slug {
			var count int64
			if err := h.db.Model(&model.Course{}).Where("slug = ?", newSlug).Count(&count).Error; err != nil {
				return response.InternalServerError(c, "Failed to check course name")
			}
			if count > 0 {
				return response.Conflict(c, "Title is taken")
			}
		}
		course.Name = req.Name
		course.Slug = newSlug
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.Category != "" {
		course.Category = req.Category
	}
	if req.PriceCents != nil {
		course.PriceCents = *req.PriceCents
	}
	if req.Paid != nil {
		course.Paid = *req.Paid
	}
	if req.Image != nil {
		course.Image = *req.Image
	}

	if err := h.db.Save(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	h.invalidateCatalogCache(c)
	return response.Success(c, course)
}

// PublishCourse handles PUT /api/v1/instructor/course/:slug/publish
func (h *CourseHandler) PublishCourse(c *fiber.Ctx) error {
	return h.setPublished(c, true)
}

// UnpublishCourse handles PUT /api/v1/instructor/course/:slug/unpublish
func (h *CourseHandler) UnpublishCourse(c *fiber.Ctx) error {
	return h.setPublished(c, false)
}

func (h *CourseHandler) setPublished(c *fiber.Ctx, published bool) error {
	user := middleware.CurrentUser(c)
	course, err := h.ownedCourse(c, user)
	if course == nil {
		return err
	}

	course.Published = published
	if err := h.db.Save(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	h.invalidateCatalogCache(c)
	return response.Success(c, course)
}

// ListPublished handles GET /api/v1/courses (public catalog)
func (h *CourseHandler) ListPublished(c *fiber.Ctx) error {
	// Serve from cache when available; the catalog changes rarely
	if h.cache != nil {
		var cached []model.Course
		if err := h.cache.GetJSON(c.Context(), publishedCoursesCacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	var courses []model.Course
	err := h.db.Preload("Instructor").
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	if h.cache != nil {
		h.cache.SetJSON(c.Context(), publishedCoursesCacheKey, courses, 5*time.Minute)
	}

	return response.Success(c, courses)
}

// InstructorCourses handles GET /api/v1/instructor/courses
func (h *CourseHandler) InstructorCourses(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var courses []model.Course
	err := h.db.Where("instructor_id = ?", user.ID).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, courses)
}

// StudentCount handles GET /api/v1/instructor/courses/:slug/students
func (h *CourseHandler) StudentCount(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	course, err := h.ownedCourse(c, user)
	if course == nil {
		return err
	}

	var count int64
	if err := h.db.Model(&model.Enrollment{}).Where("course_id = ?", course.ID).Count(&count).Error; err != nil {
		return response.InternalServerError(c, "Failed to count students")
	}

	return response.Success(c, fiber.Map{"course_id": course.ID, "students": count})
}

// ownedCourse loads the course named by the :slug param and checks the
// authenticated user owns it
func (h *CourseHandler) ownedCourse(c *fiber.Ctx, user *model.User) (*model.Course, error) {
	if user == nil {
		return nil, response.Unauthorized(c, "Not authenticated")
	}

	var course model.Course
	err := h.db.Where("slug = ?", c.Params("slug")).First(&course).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NotFound(c, "Course not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch course")
	}

	if course.InstructorID != user.ID {
		return nil, response.Forbidden(c, "You do not own this course")
	}

	return &course, nil
}

func (h *CourseHandler) invalidateCatalogCache(c *fiber.Ctx) {
	if h.cache != nil {
		h.cache.Delete(c.Context(), publishedCoursesCacheKey)
	}
}

package course

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *model.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Course{}, &model.Lesson{}, &model.Enrollment{}))

	instructor := &model.User{
		Name:         "Instructor",
		Email:        "instructor@example.com",
		PasswordHash: "x",
		Roles:        []string{model.RoleSubscriber, model.RoleInstructor},
	}
	require.NoError(t, db.Create(instructor).Error)

	handler := NewCourseHandler(db, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", instructor)
		return c.Next()
	})
	app.Post("/course", handler.CreateCourse)
	app.Put("/course/:slug", handler.UpdateCourse)
	app.Get("/courses/:slug", handler.GetCourse)

	return app, db, instructor
}

func postJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestCreateCourseDuplicateTitle(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := postJSON(t, app, http.MethodPost, "/course", fiber.Map{
		"name": "Production Go Services", "description": "Build services",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, http.MethodPost, "/course", fiber.Map{
		"name": "Production Go Services", "description": "Again",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateCourseRenameCollision(t *testing.T) {
	app, db, _ := newTestApp(t)

	resp := postJSON(t, app, http.MethodPost, "/course", fiber.Map{
		"name": "First Course Title", "description": "One",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = postJSON(t, app, http.MethodPost, "/course", fiber.Map{
		"name": "Second Course Title", "description": "Two",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Renaming onto an existing title conflicts instead of erroring
	resp = postJSON(t, app, http.MethodPut, "/course/second-course-title", fiber.Map{
		"name": "First Course Title",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// A fresh title goes through and regenerates the slug
	resp = postJSON(t, app, http.MethodPut, "/course/second-course-title", fiber.Map{
		"name": "Renamed Course Title",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var course model.Course
	require.NoError(t, db.Where("slug = ?", "renamed-course-title").First(&course).Error)
	assert.Equal(t, "Renamed Course Title", course.Name)

	// Keeping the same title is not a collision with itself
	resp = postJSON(t, app, http.MethodPut, "/course/renamed-course-title", fiber.Map{
		"name": "Renamed Course Title",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

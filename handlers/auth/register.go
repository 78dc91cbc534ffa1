package auth

import (
	"log"

	"github.com/edulaunch/marketplace-api/model"
	authutil "github.com/edulaunch/marketplace-api/utils/auth"
	"github.com/edulaunch/marketplace-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate request
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return response.BadRequest(c, "Name, email and password are required")
	}

	// Validate password strength
	if !authutil.IsPasswordValid(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	// Check if user already exists
	var existingUser model.User
	if err := h.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return response.Conflict(c, "Email is taken")
	}

	// Hash password
	passwordHash, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	// Every new account starts as a Subscriber
	user := model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Roles:        []string{model.RoleSubscriber},
	}

	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	if err := h.emailService.SendWelcomeEmail(user.Email, user.Name); err != nil {
		// Registration succeeded; a failed welcome mail is not fatal
		log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
	}

	return response.Created(c, toUserResponse(&user))
}

package instructor

import (
	"log"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/edulaunch/marketplace-api/services/payments"
	"github.com/edulaunch/marketplace-api/utils/middleware"
	"github.com/edulaunch/marketplace-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InstructorHandler manages Stripe Connect onboarding for sellers
type InstructorHandler struct {
	db               *gorm.DB
	accounts         payments.AccountGateway
	redirectURL      string
	settingsRedirect string
}

// NewInstructorHandler creates a new instructor handler
func NewInstructorHandler(db *gorm.DB, accounts payments.AccountGateway, redirectURL, settingsRedirect string) *InstructorHandler {
	return &InstructorHandler{
		db:               db,
		accounts:         accounts,
		redirectURL:      redirectURL,
		settingsRedirect: settingsRedirect,
	}
}

// MakeInstructor handles POST /api/v1/instructor/make-instructor
// Creates an Express account for the user if they don't have one yet and
// returns an onboarding link to complete the flow on Stripe.
func (h *InstructorHandler) MakeInstructor(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if user.StripeAccountID == "" {
		accountID, err := h.accounts.CreateExpressAccount(c.Context())
		if err != nil {
			log.Printf("Failed to create seller account for user %d: %v", user.ID, err)
			return response.BadGateway(c, "Failed to create seller account")
		}
		if err := h.db.Model(user).Update("stripe_account_id", accountID).Error; err != nil {
			return response.InternalServerError(c, "Failed to save seller account")
		}
		user.StripeAccountID = accountID
	}

	link, err := h.accounts.AccountOnboardingLink(c.Context(), user.StripeAccountID, h.redirectURL, h.redirectURL)
	if err != nil {
		log.Printf("Failed to create onboarding link for user %d: %v", user.ID, err)
		return response.BadGateway(c, "Failed to create onboarding link")
	}

	return response.Success(c, fiber.Map{"url": link})
}

// GetAccountStatus handles POST /api/v1/instructor/get-account-status
// Re-fetches the connected account and, once charges are enabled, persists the
// snapshot and grants the Instructor role.
func (h *InstructorHandler) GetAccountStatus(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if user.StripeAccountID == "" {
		return response.BadRequest(c, "Seller onboarding has not been started")
	}

	account, err := h.accounts.RetrieveAccount(c.Context(), user.StripeAccountID)
	if err != nil {
		log.Printf("Failed to retrieve seller account for user %d: %v", user.ID, err)
		return response.BadGateway(c, "Failed to retrieve seller account")
	}

	if !account.ChargesEnabled {
		return response.BadRequest(c, "Seller onboarding is not complete")
	}

	user.AddRole(model.RoleInstructor)
	user.StripeSeller = datatypes.JSON(account.Raw)

	// Struct-based update so the roles field goes through its JSON serializer
	if err := h.db.Model(user).Select("Roles", "StripeSeller").Updates(user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update seller status")
	}

	return response.Success(c, fiber.Map{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"picture": user.Picture,
		"roles":   user.Roles,
	})
}

// CurrentInstructor handles GET /api/v1/instructor/current-instructor
// Succeeds only when the user carries the Instructor role.
func (h *InstructorHandler) CurrentInstructor(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if !user.HasRole(model.RoleInstructor) {
		return response.Forbidden(c, "Instructor role required")
	}

	return response.Success(c, fiber.Map{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"picture": user.Picture,
		"roles":   user.Roles,
	})
}

// Balance handles GET /api/v1/instructor/balance
func (h *InstructorHandler) Balance(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if user.StripeAccountID == "" {
		return response.BadRequest(c, "Seller onboarding has not been started")
	}

	balance, err := h.accounts.AccountBalance(c.Context(), user.StripeAccountID)
	if err != nil {
		log.Printf("Failed to fetch balance for user %d: %v", user.ID, err)
		return response.BadGateway(c, "Failed to fetch balance")
	}

	c.Set("Content-Type", "application/json")
	return c.Send(balance)
}

// PayoutSettings handles GET /api/v1/instructor/payout-settings
// Returns an Express dashboard login link for managing payout details.
func (h *InstructorHandler) PayoutSettings(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if user.StripeAccountID == "" {
		return response.BadRequest(c, "Seller onboarding has not been started")
	}

	link, err := h.accounts.AccountLoginLink(c.Context(), user.StripeAccountID, h.settingsRedirect)
	if err != nil {
		log.Printf("Failed to create login link for user %d: %v", user.ID, err)
		return response.BadGateway(c, "Failed to create payout settings link")
	}

	return response.Success(c, fiber.Map{"url": link})
}

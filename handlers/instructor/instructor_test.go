package instructor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/edulaunch/marketplace-api/services/payments"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeAccountGateway is an in-memory payments.AccountGateway
type fakeAccountGateway struct {
	chargesEnabled bool
	createErr      error
	accounts       int
}

func (f *fakeAccountGateway) CreateExpressAccount(ctx context.Context) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.accounts++
	return fmt.Sprintf("acct_%d", f.accounts), nil
}

func (f *fakeAccountGateway) AccountOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return "https://connect.example.com/onboard/" + accountID, nil
}

func (f *fakeAccountGateway) RetrieveAccount(ctx context.Context, accountID string) (*payments.SellerAccount, error) {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":              accountID,
		"charges_enabled": f.chargesEnabled,
	})
	return &payments.SellerAccount{
		ID:             accountID,
		ChargesEnabled: f.chargesEnabled,
		Raw:            raw,
	}, nil
}

func (f *fakeAccountGateway) AccountBalance(ctx context.Context, accountID string) (json.RawMessage, error) {
	return json.RawMessage(`{"available":[{"amount":1399,"currency":"usd"}]}`), nil
}

func (f *fakeAccountGateway) AccountLoginLink(ctx context.Context, accountID, redirectURL string) (string, error) {
	return "https://connect.example.com/dashboard/" + accountID, nil
}

func newTestApp(t *testing.T, gateway payments.AccountGateway) (*fiber.App, *gorm.DB, *model.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	user := &model.User{
		Name:         "Seller",
		Email:        "seller@example.com",
		PasswordHash: "x",
		Roles:        []string{model.RoleSubscriber},
	}
	require.NoError(t, db.Create(user).Error)

	handler := NewInstructorHandler(db, gateway, "https://app.example.com/stripe/callback", "https://app.example.com/settings")

	app := fiber.New()
	// Reload the user on every request, like the auth middleware does
	app.Use(func(c *fiber.Ctx) error {
		var current model.User
		require.NoError(t, db.First(&current, user.ID).Error)
		c.Locals("user", &current)
		return c.Next()
	})
	app.Post("/make-instructor", handler.MakeInstructor)
	app.Post("/get-account-status", handler.GetAccountStatus)
	app.Get("/current-instructor", handler.CurrentInstructor)
	app.Get("/balance", handler.Balance)
	app.Get("/payout-settings", handler.PayoutSettings)

	return app, db, user
}

func doRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestMakeInstructorCreatesAccount(t *testing.T) {
	gateway := &fakeAccountGateway{}
	app, db, user := newTestApp(t, gateway)

	resp := doRequest(t, app, http.MethodPost, "/make-instructor")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var saved model.User
	require.NoError(t, db.First(&saved, user.ID).Error)
	assert.Equal(t, "acct_1", saved.StripeAccountID)

	// A second call reuses the existing account
	resp = doRequest(t, app, http.MethodPost, "/make-instructor")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, gateway.accounts)
}

func TestGetAccountStatusGrantsInstructorRole(t *testing.T) {
	gateway := &fakeAccountGateway{chargesEnabled: true}
	app, db, user := newTestApp(t, gateway)

	resp := doRequest(t, app, http.MethodPost, "/make-instructor")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/get-account-status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Role and seller snapshot are persisted through the serializer
	var saved model.User
	require.NoError(t, db.First(&saved, user.ID).Error)
	assert.True(t, saved.HasRole(model.RoleInstructor))
	assert.True(t, saved.HasRole(model.RoleSubscriber))
	assert.NotEmpty(t, saved.StripeSeller)

	resp = doRequest(t, app, http.MethodGet, "/current-instructor")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetAccountStatusIncompleteOnboarding(t *testing.T) {
	gateway := &fakeAccountGateway{chargesEnabled: false}
	app, db, user := newTestApp(t, gateway)

	resp := doRequest(t, app, http.MethodPost, "/make-instructor")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/get-account-status")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var saved model.User
	require.NoError(t, db.First(&saved, user.ID).Error)
	assert.False(t, saved.HasRole(model.RoleInstructor))
}

func TestGetAccountStatusBeforeOnboarding(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeAccountGateway{})

	resp := doRequest(t, app, http.MethodPost, "/get-account-status")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCurrentInstructorRequiresRole(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeAccountGateway{})

	resp := doRequest(t, app, http.MethodGet, "/current-instructor")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBalanceAndPayoutSettings(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeAccountGateway{chargesEnabled: true})

	// Before onboarding both endpoints reject
	resp := doRequest(t, app, http.MethodGet, "/balance")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/make-instructor")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/balance")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/payout-settings")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

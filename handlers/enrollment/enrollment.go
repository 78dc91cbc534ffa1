// Package enrollment exposes the enrollment workflow over HTTP: free
// enrollment, provider-hosted checkout for paid courses, and the
// reconciliation endpoint the success redirect lands on.
package enrollment

import (
	"errors"
	"strconv"

	"github.com/edulaunch/marketplace-api/services"
	"github.com/edulaunch/marketplace-api/utils/middleware"
	"github.com/edulaunch/marketplace-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// EnrollmentHandler handles enrollment requests
type EnrollmentHandler struct {
	enrollments *services.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollments *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// FreeEnrollment handles POST /api/v1/enrollment/free/:courseId
func (h *EnrollmentHandler) FreeEnrollment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	courseID, ok := courseIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.enrollments.EnrollFree(c.Context(), user.ID, courseID)
	if err != nil {
		return mapWorkflowError(c, err)
	}

	return response.SuccessWithMessage(c, "Congratulations! You have successfully enrolled", course)
}

// PaidEnrollment handles POST /api/v1/enrollment/paid/:courseId
func (h *EnrollmentHandler) PaidEnrollment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	courseID, ok := courseIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid course id")
	}

	session, err := h.enrollments.CreateCheckout(c.Context(), user.ID, courseID)
	if err != nil {
		return mapWorkflowError(c, err)
	}

	// The client redirects the payer to the provider-hosted checkout page
	return response.Success(c, fiber.Map{
		"session_id":   session.StripeSessionID,
		"checkout_url": session.CheckoutURL,
		"amount_cents": session.AmountCents,
		"fee_cents":    session.FeeCents,
	})
}

// StripeSuccess handles GET /api/v1/enrollment/stripe-success/:courseId.
// Callers poll it until the gateway reports the session as paid.
func (h *EnrollmentHandler) StripeSuccess(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	courseID, ok := courseIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid course id")
	}

	result, err := h.enrollments.ConfirmCheckout(c.Context(), user.ID, courseID)
	if err != nil {
		return mapWorkflowError(c, err)
	}

	return response.Success(c, fiber.Map{
		"success": result.Enrolled,
		"course":  result.Course,
	})
}

// CheckEnrollment handles GET /api/v1/enrollment/check/:courseId
func (h *EnrollmentHandler) CheckEnrollment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	courseID, ok := courseIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid course id")
	}

	enrolled, course, err := h.enrollments.CheckEnrollment(c.Context(), user.ID, courseID)
	if err != nil {
		return mapWorkflowError(c, err)
	}

	return response.Success(c, fiber.Map{
		"status": enrolled,
		"course": course,
	})
}

// UserCourses handles GET /api/v1/enrollment/user-courses
func (h *EnrollmentHandler) UserCourses(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	courses, err := h.enrollments.UserCourses(c.Context(), user.ID)
	if err != nil {
		return mapWorkflowError(c, err)
	}

	return response.Success(c, courses)
}

func courseIDParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("courseId"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// mapWorkflowError translates workflow sentinels to HTTP statuses
func mapWorkflowError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidOperation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPreconditionFailed):
		return response.PreconditionFailed(c, err.Error())
	case errors.Is(err, services.ErrUpstreamFailure):
		return response.BadGateway(c, err.Error())
	default:
		return response.InternalServerError(c, "Enrollment operation failed")
	}
}

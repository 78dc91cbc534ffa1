package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/edulaunch/marketplace-api/services/payments"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Workflow error taxonomy. "Not yet paid" is deliberately not here: it is a
// normal poll-again outcome, reported through ConfirmResult.Enrolled.
var (
	ErrInvalidOperation   = errors.New("invalid operation for this course's payment model")
	ErrPreconditionFailed = errors.New("no pending payment session")
	ErrNotFound           = errors.New("record not found")
	ErrUpstreamFailure    = errors.New("payment gateway failure")
)

// PlatformFeePercent is the fixed platform cut of every paid enrollment
const PlatformFeePercent = 30

// PlatformFeeCents computes the platform fee in minor units, rounded half-up.
// All fee arithmetic stays in integers to avoid floating-point drift.
func PlatformFeeCents(amountCents int64) int64 {
	return (amountCents*PlatformFeePercent + 50) / 100
}

// EnrollmentService orchestrates free and paid enrollment and reconciles
// checkout sessions against the payment gateway.
//
// All store mutations are single-row read-modify-write operations with no
// cross-row transaction. Two concurrent CreateCheckout calls for the same user
// race on the pending-session row: last write wins.
type EnrollmentService struct {
	db         *gorm.DB
	gateway    payments.Gateway
	successURL string
	cancelURL  string
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB, gateway payments.Gateway, successURL, cancelURL string) *EnrollmentService {
	return &EnrollmentService{
		db:         db,
		gateway:    gateway,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// ConfirmResult reports the outcome of one reconciliation attempt
type ConfirmResult struct {
	Course   *model.Course
	Enrolled bool
}

// EnrollFree grants access to a free course. Enrolling twice is a no-op.
func (s *EnrollmentService) EnrollFree(ctx context.Context, userID, courseID uint) (*model.Course, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if course.Paid {
		return nil, fmt.Errorf("%w: course %d requires payment", ErrInvalidOperation, courseID)
	}

	enrollment := model.Enrollment{UserID: userID, CourseID: courseID}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment).Error; err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	return course, nil
}

// CreateCheckout starts a paid enrollment: it asks the gateway for a
// provider-hosted checkout session with a 30% platform fee split and persists
// the session reference, replacing any prior pending session for this user.
// The caller redirects the payer to the returned checkout URL.
func (s *EnrollmentService) CreateCheckout(ctx context.Context, userID, courseID uint) (*model.PaymentSession, error) {
	var course model.Course
	err := s.db.WithContext(ctx).Preload("Instructor").First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course %d", ErrNotFound, courseID)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	if !course.Paid {
		return nil, fmt.Errorf("%w: course %d is free", ErrInvalidOperation, courseID)
	}

	if course.Instructor.StripeAccountID == "" {
		return nil, fmt.Errorf("%w: instructor %d has no payout account", ErrInvalidOperation, course.InstructorID)
	}

	fee := PlatformFeeCents(course.PriceCents)

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutParams{
		CourseName:           course.Name,
		AmountCents:          course.PriceCents,
		Currency:             course.Currency,
		ApplicationFeeCents:  fee,
		DestinationAccountID: course.Instructor.StripeAccountID,
		SuccessURL:           fmt.Sprintf("%s/%d", s.successURL, course.ID),
		CancelURL:            s.cancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	pending := model.PaymentSession{
		UserID:          userID,
		CourseID:        courseID,
		StripeSessionID: session.ID,
		CheckoutURL:     session.URL,
		Status:          model.SessionStatusUnpaid,
		AmountCents:     course.PriceCents,
		FeeCents:        fee,
		Currency:        course.Currency,
	}

	// At most one outstanding session per user: a second request before
	// confirmation silently replaces the first. The amount reserved under the
	// replaced session is not cancelled here.
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"course_id", "stripe_session_id", "checkout_url",
				"status", "amount_cents", "fee_cents", "currency", "updated_at",
			}),
		}).
		Create(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to persist payment session: %w", err)
	}

	return &pending, nil
}

// ConfirmCheckout reconciles the user's pending session against the gateway.
// Access is granted if and only if the gateway reports the session as paid;
// any other status leaves the store untouched so the caller can poll again.
func (s *EnrollmentService) ConfirmCheckout(ctx context.Context, userID, courseID uint) (*ConfirmResult, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	var pending model.PaymentSession
	err = s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrPreconditionFailed, userID)
		}
		return nil, fmt.Errorf("failed to load payment session: %w", err)
	}

	session, err := s.gateway.RetrieveSession(ctx, pending.StripeSessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	if session.Status != payments.StatusPaid {
		return &ConfirmResult{Course: course, Enrolled: false}, nil
	}

	enrollment := model.Enrollment{UserID: userID, CourseID: courseID}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment).Error; err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&model.PaymentSession{}, pending.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to clear payment session: %w", err)
	}

	return &ConfirmResult{Course: course, Enrolled: true}, nil
}

// CheckEnrollment reports whether the user is enrolled in the course. The
// course itself may be nil if it was deleted after enrollment; callers must
// tolerate the dangling reference.
func (s *EnrollmentService) CheckEnrollment(ctx context.Context, userID, courseID uint) (bool, *model.Course, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	var course model.Course
	err = s.db.WithContext(ctx).Preload("Lessons").First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return count > 0, nil, nil
		}
		return false, nil, fmt.Errorf("failed to load course: %w", err)
	}

	return count > 0, &course, nil
}

// UserCourses lists the courses the user is enrolled in
func (s *EnrollmentService) UserCourses(ctx context.Context, userID uint) ([]model.Course, error) {
	var courses []model.Course
	err := s.db.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", userID).
		Preload("Instructor").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled courses: %w", err)
	}
	return courses, nil
}

func (s *EnrollmentService) loadCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course %d", ErrNotFound, courseID)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	return &course, nil
}

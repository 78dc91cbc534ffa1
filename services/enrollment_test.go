package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/edulaunch/marketplace-api/services/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeGateway is an in-memory payments.Gateway for exercising the enrollment
// workflow without touching Stripe.
type fakeGateway struct {
	createErr   error
	retrieveErr error
	status      string
	created     []payments.CheckoutParams
	nextID      int
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, p payments.CheckoutParams) (*payments.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, p)
	f.nextID++
	return &payments.Session{
		ID:          fmt.Sprintf("cs_test_%d", f.nextID),
		URL:         fmt.Sprintf("https://checkout.example.com/%d", f.nextID),
		Status:      payments.StatusUnpaid,
		AmountCents: p.AmountCents,
	}, nil
}

func (f *fakeGateway) RetrieveSession(ctx context.Context, id string) (*payments.Session, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	status := f.status
	if status == "" {
		status = payments.StatusUnpaid
	}
	return &payments.Session{ID: id, Status: status}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Course{}, &model.Lesson{},
		&model.Enrollment{}, &model.PaymentSession{}, &model.Completion{},
	))
	return db
}

var testUserSeq atomic.Int64

func createUser(t *testing.T, db *gorm.DB, stripeAccountID string) *model.User {
	t.Helper()
	user := &model.User{
		Name:            "Test User",
		Email:           fmt.Sprintf("user+%d+%s@example.com", testUserSeq.Add(1), strings.ReplaceAll(t.Name(), "/", ".")),
		PasswordHash:    "x",
		Roles:           []string{model.RoleSubscriber},
		StripeAccountID: stripeAccountID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCourse(t *testing.T, db *gorm.DB, name string, paid bool, priceCents int64, instructorID uint) *model.Course {
	t.Helper()
	course := &model.Course{
		Name:         name,
		Slug:         strings.ToLower(strings.ReplaceAll(name, " ", "-")) + "-" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-")),
		Paid:         paid,
		PriceCents:   priceCents,
		Currency:     "usd",
		Published:    true,
		InstructorID: instructorID,
	}
	require.NoError(t, db.Create(course).Error)
	// gorm replaces zero-valued fields that declare a column default on
	// create, so force-write the payment fields to keep free courses free
	require.NoError(t, db.Model(course).Updates(map[string]interface{}{
		"paid":        paid,
		"price_cents": priceCents,
	}).Error)
	course.Paid = paid
	course.PriceCents = priceCents
	return course
}

func TestPlatformFeeCents(t *testing.T) {
	tests := []struct {
		amount int64
		want   int64
	}{
		{1999, 600},
		{1000, 300},
		{999, 300},
		{1, 0},
		{50, 15},
		{0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PlatformFeeCents(tt.amount), "fee for %d", tt.amount)
	}
}

func TestEnrollFree(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "")
	free := createCourse(t, db, "Free Course", false, 0, instructor.ID)
	paid := createCourse(t, db, "Paid Course", true, 1999, instructor.ID)
	student := createUser(t, db, "")

	svc := NewEnrollmentService(db, &fakeGateway{}, "https://app.example.com/success", "https://app.example.com/cancel")
	ctx := context.Background()

	course, err := svc.EnrollFree(ctx, student.ID, free.ID)
	require.NoError(t, err)
	assert.Equal(t, free.ID, course.ID)

	// Enrolling again is a no-op
	_, err = svc.EnrollFree(ctx, student.ID, free.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Enrollment{}).Where("user_id = ?", student.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Paid courses reject the free path
	_, err = svc.EnrollFree(ctx, student.ID, paid.ID)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	// Unknown course
	_, err = svc.EnrollFree(ctx, student.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCheckout(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "acct_123")
	course := createCourse(t, db, "Go Deep Dive", true, 1999, instructor.ID)
	student := createUser(t, db, "")

	gateway := &fakeGateway{}
	svc := NewEnrollmentService(db, gateway, "https://app.example.com/success", "https://app.example.com/cancel")
	ctx := context.Background()

	session, err := svc.CreateCheckout(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1999), session.AmountCents)
	assert.Equal(t, int64(600), session.FeeCents)
	assert.Equal(t, model.SessionStatusUnpaid, session.Status)
	assert.NotEmpty(t, session.StripeSessionID)
	assert.NotEmpty(t, session.CheckoutURL)

	// The gateway saw the fee split and payout destination
	require.Len(t, gateway.created, 1)
	assert.Equal(t, int64(600), gateway.created[0].ApplicationFeeCents)
	assert.Equal(t, "acct_123", gateway.created[0].DestinationAccountID)
	assert.Equal(t, fmt.Sprintf("https://app.example.com/success/%d", course.ID), gateway.created[0].SuccessURL)
}

func TestCreateCheckoutRejectsFreeCourse(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "acct_123")
	free := createCourse(t, db, "Free Course", false, 0, instructor.ID)
	student := createUser(t, db, "")

	svc := NewEnrollmentService(db, &fakeGateway{}, "https://s", "https://c")

	_, err := svc.CreateCheckout(context.Background(), student.ID, free.ID)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCreateCheckoutRequiresPayoutAccount(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "")
	course := createCourse(t, db, "No Payout", true, 1000, instructor.ID)
	student := createUser(t, db, "")

	svc := NewEnrollmentService(db, &fakeGateway{}, "https://s", "https://c")

	_, err := svc.CreateCheckout(context.Background(), student.ID, course.ID)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCreateCheckoutGatewayFailure(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "acct_123")
	course := createCourse(t, db, "Go Deep Dive", true, 1999, instructor.ID)
	student := createUser(t, db, "")

	gateway := &fakeGateway{createErr: errors.New("stripe is down")}
	svc := NewEnrollmentService(db, gateway, "https://s", "https://c")

	_, err := svc.CreateCheckout(context.Background(), student.ID, course.ID)
	assert.ErrorIs(t, err, ErrUpstreamFailure)

	// Nothing persisted on failure
	var count int64
	require.NoError(t, db.Model(&model.PaymentSession{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateCheckoutReplacesPendingSession(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "acct_123")
	first := createCourse(t, db, "First Course", true, 1000, instructor.ID)
	second := createCourse(t, db, "Second Course", true, 1999, instructor.ID)
	student := createUser(t, db, "")

	svc := NewEnrollmentService(db, &fakeGateway{}, "https://s", "https://c")
	ctx := context.Background()

	_, err := svc.CreateCheckout(ctx, student.ID, first.ID)
	require.NoError(t, err)

	_, err = svc.CreateCheckout(ctx, student.ID, second.ID)
	require.NoError(t, err)

	// At most one outstanding session per user, pointing at the latest course
	var sessions []model.PaymentSession
	require.NoError(t, db.Where("user_id = ?", student.ID).Find(&sessions).Error)
	require.Len(t, sessions, 1)
	assert.Equal(t, second.ID, sessions[0].CourseID)
	assert.Equal(t, int64(1999), sessions[0].AmountCents)
	assert.Equal(t, int64(600), sessions[0].FeeCents)
}

func TestConfirmCheckoutWithoutSession(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "acct_123")
	course := createCourse(t, db, "Go Deep Dive", true, 1999, instructor.ID)
	student := createUser(t, db, "")

	svc := NewEnrollmentService(db, &fakeGateway{}, "https://s", "https://c")

	_, err := svc.ConfirmCheckout(context.Background(), student.ID, course.ID)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestConfirmCheckoutUnpaidLeavesStoreUntouched(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "acct_123")
	course := createCourse(t, db, "Go Deep Dive", true, 1999, instructor.ID)
	student := createUser(t, db, "")

	gateway := &fakeGateway{status: payments.StatusUnpaid}
	svc := NewEnrollmentService(db, gateway, "https://s", "https://c")
	ctx := context.Background()

	_, err := svc.CreateCheckout(ctx, student.ID, course.ID)
	require.NoError(t, err)

	result, err := svc.ConfirmCheckout(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, result.Enrolled)

	// Session survives so the caller can poll again; no access granted
	var sessions, enrollments int64
	require.NoError(t, db.Model(&model.PaymentSession{}).Where("user_id = ?", student.ID).Count(&sessions).Error)
	require.NoError(t, db.Model(&model.Enrollment{}).Where("user_id = ?", student.ID).Count(&enrollments).Error)
	assert.Equal(t, int64(1), sessions)
	assert.Zero(t, enrollments)
}

func TestConfirmCheckoutPaidGrantsAccess(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "acct_123")
	course := createCourse(t, db, "Go Deep Dive", true, 1999, instructor.ID)
	student := createUser(t, db, "")

	gateway := &fakeGateway{}
	svc := NewEnrollmentService(db, gateway, "https://s", "https://c")
	ctx := context.Background()

	_, err := svc.CreateCheckout(ctx, student.ID, course.ID)
	require.NoError(t, err)

	gateway.status = payments.StatusPaid
	result, err := svc.ConfirmCheckout(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, result.Enrolled)
	assert.Equal(t, course.ID, result.Course.ID)

	enrolled, _, err := svc.CheckEnrollment(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	// Session is cleared once access is granted
	var sessions int64
	require.NoError(t, db.Model(&model.PaymentSession{}).Where("user_id = ?", student.ID).Count(&sessions).Error)
	assert.Zero(t, sessions)

	// Confirming again without a new session is a precondition failure
	_, err = svc.ConfirmCheckout(ctx, student.ID, course.ID)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestConfirmCheckoutGatewayFailure(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "acct_123")
	course := createCourse(t, db, "Go Deep Dive", true, 1999, instructor.ID)
	student := createUser(t, db, "")

	gateway := &fakeGateway{}
	svc := NewEnrollmentService(db, gateway, "https://s", "https://c")
	ctx := context.Background()

	_, err := svc.CreateCheckout(ctx, student.ID, course.ID)
	require.NoError(t, err)

	gateway.retrieveErr = errors.New("timeout")
	_, err = svc.ConfirmCheckout(ctx, student.ID, course.ID)
	assert.ErrorIs(t, err, ErrUpstreamFailure)
}

func TestCheckEnrollment(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "")
	free := createCourse(t, db, "Free Course", false, 0, instructor.ID)
	student := createUser(t, db, "")

	svc := NewEnrollmentService(db, &fakeGateway{}, "https://s", "https://c")
	ctx := context.Background()

	enrolled, course, err := svc.CheckEnrollment(ctx, student.ID, free.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)
	require.NotNil(t, course)

	_, err = svc.EnrollFree(ctx, student.ID, free.ID)
	require.NoError(t, err)

	enrolled, course, err = svc.CheckEnrollment(ctx, student.ID, free.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
	require.NotNil(t, course)

	// Enrollment in a deleted course still reports enrolled with a nil course
	require.NoError(t, db.Unscoped().Delete(&model.Course{}, free.ID).Error)
	enrolled, course, err = svc.CheckEnrollment(ctx, student.ID, free.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
	assert.Nil(t, course)
}

func TestUserCourses(t *testing.T) {
	db := newTestDB(t)
	instructor := createUser(t, db, "acct_123")
	a := createCourse(t, db, "Course A", false, 0, instructor.ID)
	b := createCourse(t, db, "Course B", false, 0, instructor.ID)
	createCourse(t, db, "Course C", false, 0, instructor.ID)
	student := createUser(t, db, "")

	svc := NewEnrollmentService(db, &fakeGateway{}, "https://s", "https://c")
	ctx := context.Background()

	_, err := svc.EnrollFree(ctx, student.ID, a.ID)
	require.NoError(t, err)
	_, err = svc.EnrollFree(ctx, student.ID, b.ID)
	require.NoError(t, err)

	courses, err := svc.UserCourses(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	ids := []uint{courses[0].ID, courses[1].ID}
	assert.Contains(t, ids, a.ID)
	assert.Contains(t, ids, b.ID)
}

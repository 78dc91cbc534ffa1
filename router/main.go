package router

import (
	"log"
	"os"
	"time"

	"github.com/edulaunch/marketplace-api/config"
	"github.com/edulaunch/marketplace-api/database"
	asset_handlers "github.com/edulaunch/marketplace-api/handlers/asset"
	auth_handlers "github.com/edulaunch/marketplace-api/handlers/auth"
	completion_handlers "github.com/edulaunch/marketplace-api/handlers/completion"
	course_handlers "github.com/edulaunch/marketplace-api/handlers/course"
	enrollment_handlers "github.com/edulaunch/marketplace-api/handlers/enrollment"
	instructor_handlers "github.com/edulaunch/marketplace-api/handlers/instructor"
	"github.com/edulaunch/marketplace-api/services"
	"github.com/edulaunch/marketplace-api/services/payments"
	"github.com/edulaunch/marketplace-api/services/storage"
	"github.com/edulaunch/marketplace-api/utils/auth"
	"github.com/edulaunch/marketplace-api/utils/cache"
	"github.com/edulaunch/marketplace-api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load environment configuration")
	}

	if getEnv.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "marketplace-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        getEnv.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection and catalog caching
	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and catalog caching will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize media storage client
	storageClient, err := storage.NewClient(storage.Config{
		Region: getEnv.AWS_REGION,
		Bucket: getEnv.S3_BUCKET,
	})
	if err != nil {
		log.Fatalf("Failed to initialize media storage client: %v", err)
	}

	// Initialize payment gateway
	if getEnv.STRIPE_SECRET == "" {
		log.Fatal("STRIPE_SECRET environment variable is not set")
	}
	stripeGateway := payments.NewStripeGateway(getEnv.STRIPE_SECRET)

	// Initialize services
	emailService := services.NewEmailService()
	enrollmentService := services.NewEnrollmentService(db, stripeGateway, getEnv.STRIPE_SUCCESS_URL, getEnv.STRIPE_CANCEL_URL)
	completionService := services.NewCompletionService(db)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, emailService)
	courseHandler := course_handlers.NewCourseHandler(db, redisCache)
	assetHandler := asset_handlers.NewAssetHandler(storageClient)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(enrollmentService)
	completionHandler := completion_handlers.NewCompletionHandler(completionService)
	instructorHandler := instructor_handlers.NewInstructorHandler(db, stripeGateway, getEnv.STRIPE_REDIRECT_URL, getEnv.STRIPE_SETTINGS_REDIRECT)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/current-user", authMiddleware.Required(), authHandler.CurrentUser)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Public user profile
	api.Get("/user/:id", authHandler.UserDetails)

	// Public catalog routes
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListPublished)
	courses.Get("/:slug", courseHandler.GetCourse)

	// Instructor onboarding routes (protected)
	instructor := api.Group("/instructor", authMiddleware.Required())
	instructor.Post("/make-instructor", instructorHandler.MakeInstructor)
	instructor.Post("/get-account-status", instructorHandler.GetAccountStatus)
	instructor.Get("/current-instructor", instructorHandler.CurrentInstructor)
	instructor.Get("/balance", instructorHandler.Balance)
	instructor.Get("/payout-settings", instructorHandler.PayoutSettings)
	instructor.Get("/courses", authMiddleware.RequireInstructor(), courseHandler.InstructorCourses)
	instructor.Get("/courses/:slug/students", authMiddleware.RequireInstructor(), courseHandler.StudentCount)

	// Course authoring routes (instructor only)
	authoring := api.Group("/instructor/course", authMiddleware.Required(), authMiddleware.RequireInstructor())
	authoring.Post("/", courseHandler.CreateCourse)
	authoring.Put("/:slug", courseHandler.UpdateCourse)
	authoring.Put("/:slug/publish", courseHandler.PublishCourse)
	authoring.Put("/:slug/unpublish", courseHandler.UnpublishCourse)
	authoring.Post("/:slug/lesson", courseHandler.AddLesson)
	authoring.Put("/:slug/lesson/:lessonId", courseHandler.UpdateLesson)
	authoring.Delete("/:slug/lesson/:lessonId", courseHandler.RemoveLesson)

	// Media upload routes (instructor only)
	assets := api.Group("/assets", authMiddleware.Required(), authMiddleware.RequireInstructor())
	assets.Post("/image", assetHandler.UploadImage)
	assets.Post("/video", assetHandler.UploadVideo)
	assets.Post("/remove", assetHandler.RemoveAsset)

	// Enrollment routes (protected)
	enrollment := api.Group("/enrollment", authMiddleware.Required())
	enrollment.Post("/free/:courseId", enrollmentHandler.FreeEnrollment)
	enrollment.Post("/paid/:courseId", enrollmentHandler.PaidEnrollment)
	enrollment.Get("/stripe-success/:courseId", enrollmentHandler.StripeSuccess)
	enrollment.Get("/check/:courseId", enrollmentHandler.CheckEnrollment)
	enrollment.Get("/user-courses", enrollmentHandler.UserCourses)

	// Completion tracking routes (protected)
	completion := api.Group("/completion", authMiddleware.Required())
	completion.Post("/mark", completionHandler.MarkCompleted)
	completion.Post("/unmark", completionHandler.MarkIncomplete)
	completion.Post("/list", completionHandler.ListCompleted)
}

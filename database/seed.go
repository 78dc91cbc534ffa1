package database

import (
	"fmt"
	"log"
	"os"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/edulaunch/marketplace-api/utils/auth"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedSampleCourses(); err != nil {
		return fmt.Errorf("failed to seed sample courses: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", adminEmail()).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping")
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
		log.Println("ADMIN_PASSWORD not set, using default (change it!)")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Name:         "Admin",
		Email:        adminEmail(),
		PasswordHash: hash,
		Roles:        []string{model.RoleSubscriber, model.RoleInstructor, model.RoleAdmin},
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Created admin user: %s", admin.Email)
	return nil
}

// SeedSampleCourses creates a couple of demo courses owned by the admin user
func (s *Seeder) SeedSampleCourses() error {
	var admin model.User
	if err := s.db.Where("email = ?", adminEmail()).First(&admin).Error; err != nil {
		return err
	}

	samples := []model.Course{
		{
			Name:         "Introduction to Web Development",
			Description:  "Build your first website from scratch: HTML, CSS and a little JavaScript.",
			Category:     "Web Development",
			PriceCents:   0,
			Paid:         false,
			Published:    true,
			InstructorID: admin.ID,
		},
		{
			Name:         "Production Go Services",
			Description:  "Design, build and operate HTTP services in Go the way real teams do.",
			Category:     "Programming",
			PriceCents:   1999,
			Paid:         true,
			Published:    true,
			InstructorID: admin.ID,
		},
	}

	for _, course := range samples {
		course.Slug = slug.Make(course.Name)

		var count int64
		if err := s.db.Model(&model.Course{}).Where("slug = ?", course.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := s.db.Create(&course).Error; err != nil {
			return err
		}
		log.Printf("Created sample course: %s", course.Name)
	}

	return nil
}

func adminEmail() string {
	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		return email
	}
	return "admin@edulaunch.local"
}

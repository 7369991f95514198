package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/okeyenglish/okey-learn-connect-sub016/model"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/auth"
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

// RunSeeds seeds the database with baseline and demo data
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedCoursePrices(); err != nil {
		return fmt.Errorf("failed to seed course prices: %w", err)
	}

	if err := s.SeedDemoLesson(); err != nil {
		return fmt.Errorf("failed to seed demo lesson: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedCoursePrices creates the organization-wide academic-hour price
func (s *Seeder) SeedCoursePrices() error {
	var count int64
	if err := s.db.Model(&model.CoursePrice{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Course prices already exist, skipping...")
		return nil
	}

	prices := []model.CoursePrice{
		{Name: "individual-standard", PricePerHour: 1200, Currency: "RUB", Active: true},
		{Name: "individual-native-speaker", PricePerHour: 2000, Currency: "RUB", Active: false},
	}

	if err := s.db.Create(&prices).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d course prices\n", len(prices))
	return nil
}

// SeedDemoLesson creates one lesson with a payment, a linked session and a
// few floating sessions so a fresh environment has a ledger worth looking at
func (s *Seeder) SeedDemoLesson() error {
	var count int64
	if err := s.db.Model(&model.Lesson{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Lessons already exist, skipping...")
		return nil
	}

	lesson := model.Lesson{
		StudentName:     "Maria Ivanova",
		TeacherName:     "John Smith",
		Subject:         "english",
		DurationMinutes: 60,
	}
	if err := s.db.Create(&lesson).Error; err != nil {
		return err
	}

	payment := model.LessonPayment{
		LessonID:     lesson.ID,
		LessonsCount: 8, // 8 academic hours = 320 minutes
		Amount:       9600,
		PaymentDate:  time.Now().AddDate(0, 0, -14),
		Method:       "card",
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return err
	}

	today := time.Now().Truncate(24 * time.Hour)
	sessions := []model.LessonSession{
		{
			LessonID:    lesson.ID,
			LessonDate:  today.AddDate(0, 0, -10),
			Status:      model.SessionStatusCompleted,
			PaymentID:   &payment.ID,
			PaidMinutes: 60,
		},
		{
			LessonID:   lesson.ID,
			LessonDate: today.AddDate(0, 0, -7),
			Status:     model.SessionStatusCompleted,
		},
		{
			LessonID:   lesson.ID,
			LessonDate: today.AddDate(0, 0, -3),
			Status:     model.SessionStatusCancelled,
			Notes:      "student was ill",
		},
		{
			LessonID:   lesson.ID,
			LessonDate: today.AddDate(0, 0, 4),
			Status:     model.SessionStatusScheduled,
		},
		{
			LessonID:     lesson.ID,
			LessonDate:   today.AddDate(0, 0, 6),
			Status:       model.SessionStatusScheduled,
			IsAdditional: true,
			Notes:        "extra session before the exam",
		},
	}
	for i := range sessions {
		sessions[i].PaymentCoefficient = 1.0
		if err := s.db.Create(&sessions[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Created demo lesson %s with %d sessions\n", lesson.ID, len(sessions))
	return nil
}

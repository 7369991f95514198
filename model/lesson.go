package model

import (
	"time"

	"gorm.io/gorm"
)

// Lesson represents an individual (one-on-one) lesson track for a single student
type Lesson struct {
	ID          string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	StudentName string         `gorm:"not null" json:"student_name"`
	TeacherName string         `gorm:"type:varchar(200)" json:"teacher_name"`
	Subject     string         `gorm:"type:varchar(100);default:'english'" json:"subject"`
	// Default duration for sessions that don't specify their own, in minutes
	DurationMinutes int `gorm:"default:60" json:"duration_minutes"`
	// Optional per-lesson price for one academic hour (40 minutes).
	// When nil the organization-wide CoursePrice applies.
	PricePerHour *float64 `json:"price_per_hour,omitempty"`

	// Relationships
	Sessions []LessonSession `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"sessions,omitempty"`
	Payments []LessonPayment `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// TableName specifies the table name for Lesson
func (Lesson) TableName() string {
	return "individual_lessons"
}

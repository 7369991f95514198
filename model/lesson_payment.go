package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AcademicHourMinutes is the fixed length of one purchased academic hour.
// A payment's lessons_count is always counted in 40-minute units regardless
// of how long the actual sessions run.
const AcademicHourMinutes = 40

// LessonPayment represents a prepayment for a number of academic hours
type LessonPayment struct {
	ID        string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	LessonID  string         `gorm:"not null;index;type:uuid" json:"lesson_id"`
	// Number of purchased academic hours (40-minute units)
	LessonsCount int       `gorm:"not null" json:"lessons_count"`
	Amount       float64   `gorm:"not null;type:numeric(12,2)" json:"amount"`
	PaymentDate  time.Time `gorm:"not null;type:date" json:"payment_date"`
	Method       string    `gorm:"type:varchar(50)" json:"method"`
	// Gateway references, operator notes and the like
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Relationships
	Lesson Lesson `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

// Minutes returns the purchased minutes this payment contributes
func (p LessonPayment) Minutes() int {
	return p.LessonsCount * AcademicHourMinutes
}

// TableName specifies the table name for LessonPayment
func (LessonPayment) TableName() string {
	return "lesson_payments"
}

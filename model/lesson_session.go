package model

import (
	"time"

	"gorm.io/gorm"
)

// SessionStatus is the lifecycle status of a lesson session
type SessionStatus string

const (
	SessionStatusScheduled   SessionStatus = "scheduled"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusCancelled   SessionStatus = "cancelled"
	SessionStatusFree        SessionStatus = "free"
	SessionStatusRescheduled SessionStatus = "rescheduled"
)

// ExcludedFromBilling reports whether sessions in this status are skipped
// by minute allocation and course totals. Only the three listed statuses are
// excluded; any other value (including future additions) counts as billable.
func (s SessionStatus) ExcludedFromBilling() bool {
	switch s {
	case SessionStatusCancelled, SessionStatusFree, SessionStatusRescheduled:
		return true
	}
	return false
}

// LessonSession represents one scheduled occurrence of an individual lesson
type LessonSession struct {
	ID         string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	LessonID   string         `gorm:"not null;index;type:uuid" json:"lesson_id"`
	LessonDate time.Time      `gorm:"not null;index;type:date" json:"lesson_date"`
	Status     SessionStatus  `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	// Duration in minutes; nil means the lesson's default applies
	DurationMinutes *int `json:"duration_minutes,omitempty"`
	// Minutes explicitly committed from the linked payment. Only meaningful
	// together with PaymentID; floating allocation is derived, never stored.
	PaidMinutes int     `gorm:"default:0" json:"paid_minutes"`
	PaymentID   *string `gorm:"index;type:uuid" json:"payment_id,omitempty"`
	// Multiplier on how many of this session's minutes count toward usage
	PaymentCoefficient float64 `gorm:"default:1.0" json:"payment_coefficient"`
	// Marks sessions inserted ad hoc, outside the regular weekly schedule
	IsAdditional bool   `gorm:"default:false" json:"is_additional"`
	Notes        string `gorm:"type:text" json:"notes"`

	// Relationships
	Lesson  Lesson         `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
	Payment *LessonPayment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}

// TableName specifies the table name for LessonSession
func (LessonSession) TableName() string {
	return "lesson_sessions"
}

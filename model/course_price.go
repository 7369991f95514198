package model

import (
	"time"

	"gorm.io/gorm"
)

// CoursePrice is the organization-wide base price for one academic hour
// (40 minutes) of individual tuition. Lessons may override it with their
// own PricePerHour.
type CoursePrice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	// Price of one 40-minute academic hour
	PricePerHour float64 `gorm:"not null;type:numeric(12,2)" json:"price_per_hour"`
	Currency     string  `gorm:"type:varchar(10);default:'RUB'" json:"currency"`
	Active       bool    `gorm:"default:true" json:"active"`
}

// TableName specifies the table name for CoursePrice
func (CoursePrice) TableName() string {
	return "course_prices"
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// Account roles. Parents read their own balances; managers and admins run
// the schedule and billing.
const (
	RoleParent  = "parent"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// User represents a portal account (parent, manager or admin)
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'parent'" json:"role"` // parent, manager, admin
	// Student the parent account is linked to, free-form for now
	StudentName string `gorm:"type:varchar(200)" json:"student_name"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

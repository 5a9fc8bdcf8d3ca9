package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleLearner    = "learner"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Name         string
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"default:learner"` // learner, instructor, admin
	// Points is mutated only through atomic "points = points + N" updates,
	// never read-modify-write (two tabs submitting quizzes must not lose points).
	Points int `gorm:"default:0"`
}

// UserBadge is one earned badge. The unique pair index gives the badge list
// set semantics: inserting with ON CONFLICT DO NOTHING is a no-op when the
// user already holds the badge.
type UserBadge struct {
	gorm.Model
	UserID  uint   `gorm:"uniqueIndex:idx_user_badge"`
	BadgeID string `gorm:"uniqueIndex:idx_user_badge"`
}

type LoginHistory struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	LoginTime time.Time
}

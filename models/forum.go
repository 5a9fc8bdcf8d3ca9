package models

import "gorm.io/gorm"

// ForumPost is immutable once created; listed newest-first.
type ForumPost struct {
	gorm.Model
	UserID   uint   `gorm:"index"`
	UserName string // denormalized for display, avoids a join per post
	CourseID uint
	ModuleID uint `gorm:"index"`
	Text     string
}

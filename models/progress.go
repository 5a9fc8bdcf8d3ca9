package models

import (
	"time"

	"gorm.io/gorm"
)

// CourseProgress is the per-(user, course) progress record. Lesson and
// assignment state live in their own keyed rows (LessonStatus,
// AssignmentStatus) so concurrent updates to different lessons of the same
// course never clobber each other.
type CourseProgress struct {
	gorm.Model
	UserID            uint `gorm:"uniqueIndex:idx_course_progress"`
	CourseID          uint `gorm:"uniqueIndex:idx_course_progress"`
	Certified         bool
	CertificationDate *time.Time
	LastAccessed      time.Time
}

// LessonStatus tracks one user's state for one lesson. For quiz lessons the
// score fields always hold the latest attempt; CompletedAt keeps the time of
// the first completion across retakes. SubmittedAt is nil until the first
// quiz submission.
type LessonStatus struct {
	gorm.Model
	UserID       uint `gorm:"uniqueIndex:idx_lesson_status"`
	LessonID     uint `gorm:"uniqueIndex:idx_lesson_status"`
	CourseID     uint `gorm:"index"`
	Completed    bool
	CompletedAt  *time.Time
	Score        int
	Total        int
	ScorePercent float64
	SubmittedAt  *time.Time
}

// AssignmentStatus is the lightweight submitted-flag projection used by the
// certification check. The submission text itself lives in
// AssignmentSubmission.
type AssignmentStatus struct {
	gorm.Model
	UserID      uint `gorm:"uniqueIndex:idx_assignment_status"`
	ModuleID    uint `gorm:"uniqueIndex:idx_assignment_status"`
	CourseID    uint `gorm:"index"`
	Submitted   bool
	SubmittedAt *time.Time
}

const (
	SubmissionSubmitted     = "submitted"
	SubmissionGraded        = "graded"
	SubmissionNeedsRevision = "needs_revision"
)

// AssignmentSubmission holds the submitted text, one row per (user, module).
// Resubmission overwrites text/timestamp/status rather than duplicating.
type AssignmentSubmission struct {
	gorm.Model
	UserID             uint `gorm:"uniqueIndex:idx_assignment_submission"`
	ModuleID           uint `gorm:"uniqueIndex:idx_assignment_submission"`
	CourseID           uint `gorm:"index"`
	Text               string
	Status             string `gorm:"default:submitted"`
	Grade              *float64
	InstructorFeedback string
	SubmittedAt        time.Time
	GradedAt           *time.Time
}

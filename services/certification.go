package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lms/models"

	"gorm.io/gorm"
)

// Certification decides whether a user has earned a course's certification
// and grants it on the first pass. This is the single implementation of the
// criteria rules; the recorder and the adaptation heuristics both call it.
type Certification struct {
	DB     *gorm.DB
	Gamify *Gamification
	Log    *log.Logger
}

func NewCertification(db *gorm.DB, gamify *Gamification, logger *log.Logger) *Certification {
	return &Certification{DB: db, Gamify: gamify, Log: logger}
}

// Evaluate returns true iff the user is now certified for the course,
// including when they already were. Certification is monotonic: once granted
// it is never revoked, and re-evaluation short-circuits on the stored flag.
func (s *Certification) Evaluate(ctx context.Context, userID, courseID uint) (bool, error) {
	var progress models.CourseProgress
	hasProgress := true
	if err := s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		hasProgress = false
	}

	if hasProgress && progress.Certified {
		return true, nil
	}

	// No criteria means the course has no certification concept.
	var criteria models.CertificationCriteria
	if err := s.DB.Where("course_id = ?", courseID).First(&criteria).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	met, err := s.criteriaMet(userID, &criteria)
	if err != nil || !met {
		return false, err
	}

	// Grant: flip the flag, stamp the date, then award the bonus. The award
	// is best-effort once the certification itself is persisted.
	now := time.Now()
	if !hasProgress {
		progress = models.CourseProgress{UserID: userID, CourseID: courseID, LastAccessed: now}
	}
	progress.Certified = true
	progress.CertificationDate = &now
	if err := s.DB.Save(&progress).Error; err != nil {
		return false, err
	}

	s.Log.Printf("user %d certified for course %d", userID, courseID)

	if err := s.Gamify.AwardPoints(ctx, userID, PointsCourseCertified, fmt.Sprintf("certification for course %d", courseID)); err != nil {
		s.Log.Printf("certification bonus award failed for user %d: %v", userID, err)
	}
	if criteria.CompletionBadgeID != "" {
		if _, err := s.Gamify.AwardBadge(ctx, userID, criteria.CompletionBadgeID); err != nil {
			s.Log.Printf("completion badge award failed for user %d: %v", userID, err)
		}
	}

	return true, nil
}

// criteriaMet checks the three requirement categories in order, stopping at
// the first unmet one.
func (s *Certification) criteriaMet(userID uint, criteria *models.CertificationCriteria) (bool, error) {
	if lessonIDs := criteria.LessonIDs(); len(lessonIDs) > 0 {
		var completed int64
		err := s.DB.Model(&models.LessonStatus{}).
			Where("user_id = ? AND lesson_id IN ? AND completed = ?", userID, lessonIDs, true).
			Count(&completed).Error
		if err != nil {
			return false, err
		}
		if completed < int64(len(lessonIDs)) {
			return false, nil
		}
	}

	for lessonID, minPercent := range criteria.QuizThresholds() {
		var status models.LessonStatus
		err := s.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&status).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		// Latest retake score; no attempt yet means unmet.
		if status.SubmittedAt == nil || status.ScorePercent < minPercent {
			return false, nil
		}
	}

	if moduleIDs := criteria.AssignmentModuleIDs(); len(moduleIDs) > 0 {
		var submitted int64
		err := s.DB.Model(&models.AssignmentStatus{}).
			Where("user_id = ? AND module_id IN ? AND submitted = ?", userID, moduleIDs, true).
			Count(&submitted).Error
		if err != nil {
			return false, err
		}
		if submitted < int64(len(moduleIDs)) {
			return false, nil
		}
	}

	return true, nil
}

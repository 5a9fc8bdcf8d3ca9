package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lms/models"

	"gorm.io/gorm"
)

const (
	SuggestionReview            = "review"
	SuggestionNext              = "next"
	SuggestionCertificate       = "certificate"
	SuggestionCompleteRemaining = "complete_remaining"
	SuggestionCourseEnd         = "course_end"
)

// Suggestion is the adaptive next-step answer for a learner at a given point
// in a course.
type Suggestion struct {
	Type     string `json:"type"`
	LessonID uint   `json:"lessonId,omitempty"`
	Message  string `json:"message"`
}

// Adaptation computes "what should I do next" suggestions. Reads progress,
// never mutates it; the only side effect it can trigger is the (monotonic)
// certification re-check when a course is fully completed.
type Adaptation struct {
	DB      *gorm.DB
	Certify *Certification
	Log     *log.Logger
}

func NewAdaptation(db *gorm.DB, certify *Certification, logger *log.Logger) *Adaptation {
	return &Adaptation{DB: db, Certify: certify, Log: logger}
}

// NextStep applies two rules in order: review the material before a recently
// failed quiz, otherwise advance to the first lesson not yet completed. When
// everything is done it falls through to the certification outcome.
func (a *Adaptation) NextStep(ctx context.Context, userID, courseID, currentLessonID uint) (*Suggestion, error) {
	var course models.Course
	err := a.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundErr("course", courseID)
		}
		return nil, err
	}

	// The sequence the rules walk is the flattened module/lesson order.
	var sequence []models.Lesson
	for _, module := range course.Modules {
		sequence = append(sequence, module.Lessons...)
	}

	currentIndex := -1
	for i, lesson := range sequence {
		if lesson.ID == currentLessonID {
			currentIndex = i
			break
		}
	}
	if currentIndex < 0 {
		return nil, models.NotFoundErr("lesson", currentLessonID)
	}

	statusByLesson, err := a.lessonStatuses(userID, courseID)
	if err != nil {
		return nil, err
	}

	// Rule 1: the nearest attempted quiz at or before the current lesson in
	// sequence, crossing module boundaries. A score under 60% means the
	// learner should revisit the lesson immediately preceding that quiz.
	if suggestion := a.reviewSuggestion(sequence, currentIndex, statusByLesson); suggestion != nil {
		return suggestion, nil
	}

	// Rule 2: first lesson in declared course order not yet completed.
	for _, lesson := range sequence {
		status, ok := statusByLesson[lesson.ID]
		if !ok || !status.Completed {
			return &Suggestion{
				Type:     SuggestionNext,
				LessonID: lesson.ID,
				Message:  fmt.Sprintf("Ready for the next step? Try %q.", lesson.Title),
			}, nil
		}
	}

	// Everything complete: resolve against certification.
	certified, err := a.Certify.Evaluate(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if certified {
		return &Suggestion{
			Type:    SuggestionCertificate,
			Message: "Congratulations! You've completed the course requirements and earned your certificate!",
		}, nil
	}

	var criteriaCount int64
	if err := a.DB.Model(&models.CertificationCriteria{}).Where("course_id = ?", courseID).Count(&criteriaCount).Error; err != nil {
		return nil, err
	}
	if criteriaCount > 0 {
		return &Suggestion{
			Type:    SuggestionCompleteRemaining,
			Message: "You are near the end! Complete remaining activities for your certificate.",
		}, nil
	}
	return &Suggestion{
		Type:    SuggestionCourseEnd,
		Message: "You have completed all available lessons in this course!",
	}, nil
}

func (a *Adaptation) reviewSuggestion(sequence []models.Lesson, currentIndex int, statusByLesson map[uint]models.LessonStatus) *Suggestion {
	// Walk backwards from the current lesson (inclusive, so a quiz the
	// learner is viewing counts) for the nearest attempted quiz.
	for i := currentIndex; i >= 0; i-- {
		lesson := sequence[i]
		if lesson.Type != models.LessonQuiz {
			continue
		}
		status, ok := statusByLesson[lesson.ID]
		if !ok || status.SubmittedAt == nil {
			continue
		}
		if status.ScorePercent >= quizStrugglePercent {
			return nil
		}

		// Review the lesson preceding the failed quiz, falling back to the
		// quiz itself when it opens the course.
		review := lesson
		if i > 0 {
			review = sequence[i-1]
		}
		return &Suggestion{
			Type:     SuggestionReview,
			LessonID: review.ID,
			Message:  fmt.Sprintf("Based on recent results on %q, review %q.", lesson.Title, review.Title),
		}
	}
	return nil
}

func (a *Adaptation) lessonStatuses(userID, courseID uint) (map[uint]models.LessonStatus, error) {
	var statuses []models.LessonStatus
	err := a.DB.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	byLesson := make(map[uint]models.LessonStatus, len(statuses))
	for _, s := range statuses {
		byLesson[s.LessonID] = s
	}
	return byLesson, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"lms/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotAnswered is the per-question placeholder for a question the learner
// skipped (or answered out of range).
const NotAnswered = "Not Answered"

// QuizAnswerDetail describes one graded question of a submission.
type QuizAnswerDetail struct {
	Question      string `json:"question"`
	YourAnswer    string `json:"yourAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// QuizResult is the outcome of a quiz submission.
type QuizResult struct {
	Score        int                `json:"score"`
	Total        int                `json:"total"`
	ScorePercent float64            `json:"scorePercent"`
	Results      []QuizAnswerDetail `json:"results"`
}

// Progress records learning events. Every operation follows the same
// sequence: persist the progress mutation first, then award points/badges,
// then re-evaluate certification. The progress write is the authoritative
// fact; failures in the later steps are logged and do not fail the request.
type Progress struct {
	DB      *gorm.DB
	Gamify  *Gamification
	Certify *Certification
	Log     *log.Logger
}

func NewProgress(db *gorm.DB, gamify *Gamification, certify *Certification, logger *log.Logger) *Progress {
	return &Progress{DB: db, Gamify: gamify, Certify: certify, Log: logger}
}

// CompleteLesson marks a non-quiz lesson completed. Quizzes complete only via
// SubmitQuiz. Idempotent: completing an already-completed lesson succeeds,
// reports alreadyCompleted=true and awards nothing.
func (p *Progress) CompleteLesson(ctx context.Context, userID, lessonID uint) (alreadyCompleted bool, err error) {
	var lesson models.Lesson
	if err := p.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, models.NotFoundErr("lesson", lessonID)
		}
		return false, err
	}
	if lesson.Type == models.LessonQuiz {
		return false, models.InvalidOperationErr("quizzes are completed via submission, not manually")
	}

	if err := p.touchCourseProgress(userID, lesson.CourseID); err != nil {
		return false, err
	}

	var status models.LessonStatus
	err = p.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&status).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err == nil && status.Completed {
		p.Log.Printf("user %d re-marked lesson %d complete", userID, lessonID)
		return true, nil
	}

	now := time.Now()
	status.UserID = userID
	status.LessonID = lessonID
	status.CourseID = lesson.CourseID
	status.Completed = true
	status.CompletedAt = &now
	if err := p.DB.Save(&status).Error; err != nil {
		return false, err
	}

	p.award(ctx, userID, PointsLessonComplete, fmt.Sprintf("completed lesson: %s", lesson.Title))
	p.recheckCertification(ctx, userID, lesson.CourseID)
	return false, nil
}

// SubmitQuiz grades answers (question index -> chosen option index) against
// the lesson's question list. Retakes always overwrite the stored score with
// the latest attempt; completedAt keeps the first completion time.
func (p *Progress) SubmitQuiz(ctx context.Context, userID, lessonID uint, answers map[int]int) (*QuizResult, error) {
	var lesson models.Lesson
	err := p.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&lesson, lessonID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundErr("lesson", lessonID)
		}
		return nil, err
	}
	if lesson.Type != models.LessonQuiz {
		return nil, models.InvalidOperationErr("this lesson is not a quiz")
	}
	if len(lesson.Questions) == 0 {
		return nil, models.InvalidStateErr("quiz has no questions")
	}

	result := gradeQuiz(lesson.Questions, answers)

	if err := p.touchCourseProgress(userID, lesson.CourseID); err != nil {
		return nil, err
	}

	var status models.LessonStatus
	err = p.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&status).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	status.UserID = userID
	status.LessonID = lessonID
	status.CourseID = lesson.CourseID
	status.Completed = true
	if status.CompletedAt == nil {
		status.CompletedAt = &now
	}
	status.Score = result.Score
	status.Total = result.Total
	status.ScorePercent = result.ScorePercent
	status.SubmittedAt = &now
	if err := p.DB.Save(&status).Error; err != nil {
		return nil, err
	}

	p.Log.Printf("user %d scored %d/%d (%.1f%%) on quiz %d", userID, result.Score, result.Total, result.ScorePercent, lessonID)

	// Pass and perfect bonuses stack when earned in one attempt.
	points := 0
	if result.ScorePercent >= QuizPassPercent {
		points += PointsQuizPass
		if _, err := p.Gamify.AwardBadge(ctx, userID, BadgeFirstQuizPassed); err != nil {
			p.Log.Printf("badge award failed for user %d: %v", userID, err)
		}
	}
	if result.ScorePercent == 100 {
		points += PointsQuizPerfect
		if _, err := p.Gamify.AwardBadge(ctx, userID, BadgePerfectScore); err != nil {
			p.Log.Printf("badge award failed for user %d: %v", userID, err)
		}
	}
	p.award(ctx, userID, points, fmt.Sprintf("quiz attempt on: %s (score %.1f%%)", lesson.Title, result.ScorePercent))
	p.recheckCertification(ctx, userID, lesson.CourseID)

	return result, nil
}

// SubmitAssignment upserts the submission text for (user, module) and flips
// the progress flag. The first-submission bonus is granted exactly on the
// false->true transition of that flag.
func (p *Progress) SubmitAssignment(ctx context.Context, userID, moduleID uint, text string) (uint, error) {
	if strings.TrimSpace(text) == "" {
		return 0, models.InvalidInputErr("submission text is required")
	}

	var module models.Module
	if err := p.DB.First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, models.NotFoundErr("module", moduleID)
		}
		return 0, err
	}
	if !module.HasAssignment {
		return 0, models.InvalidOperationErr(fmt.Sprintf("module %q does not have an assignment", module.Title))
	}

	now := time.Now()

	// Resubmission overwrites the text and resets the status; it never
	// duplicates the row.
	var submission models.AssignmentSubmission
	err := p.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).First(&submission).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = models.AssignmentSubmission{
			UserID:      userID,
			ModuleID:    moduleID,
			CourseID:    module.CourseID,
			Text:        strings.TrimSpace(text),
			Status:      models.SubmissionSubmitted,
			SubmittedAt: now,
		}
		if err := p.DB.Create(&submission).Error; err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	default:
		submission.Text = strings.TrimSpace(text)
		submission.Status = models.SubmissionSubmitted
		submission.SubmittedAt = now
		if err := p.DB.Save(&submission).Error; err != nil {
			return 0, err
		}
	}

	// The conflict-free insert doubles as the first-submission check: one row
	// per (user, module), so RowsAffected==1 exactly once.
	statusInsert := p.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.AssignmentStatus{
		UserID:      userID,
		ModuleID:    moduleID,
		CourseID:    module.CourseID,
		Submitted:   true,
		SubmittedAt: &now,
	})
	if statusInsert.Error != nil {
		return 0, statusInsert.Error
	}
	firstSubmission := statusInsert.RowsAffected > 0

	if err := p.touchCourseProgress(userID, module.CourseID); err != nil {
		return 0, err
	}

	p.Log.Printf("user %d submitted assignment for module %d (first: %v)", userID, moduleID, firstSubmission)

	if firstSubmission {
		p.award(ctx, userID, PointsAssignmentSubmit, fmt.Sprintf("submitted assignment for: %s", module.Title))
	}
	p.recheckCertification(ctx, userID, module.CourseID)

	return submission.ID, nil
}

// CreateForumPost creates a post in the module's forum. The first post a user
// ever makes earns the forum bonus and badge.
func (p *Progress) CreateForumPost(ctx context.Context, userID, moduleID uint, text string) (*models.ForumPost, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.InvalidInputErr("post text cannot be empty")
	}

	var module models.Module
	if err := p.DB.First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundErr("module", moduleID)
		}
		return nil, err
	}

	var user models.User
	if err := p.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundErr("user", userID)
		}
		return nil, err
	}

	post := models.ForumPost{
		UserID:   userID,
		UserName: user.Username,
		CourseID: module.CourseID,
		ModuleID: moduleID,
		Text:     strings.TrimSpace(text),
	}
	if err := p.DB.Create(&post).Error; err != nil {
		return nil, err
	}

	if err := p.touchCourseProgress(userID, module.CourseID); err != nil {
		return nil, err
	}

	// First-post check counts prior posts, excluding the one just created.
	var previousPosts int64
	if err := p.DB.Model(&models.ForumPost{}).
		Where("user_id = ? AND id <> ?", userID, post.ID).
		Count(&previousPosts).Error; err != nil {
		p.Log.Printf("forum first-post check failed for user %d: %v", userID, err)
	} else if previousPosts == 0 {
		p.award(ctx, userID, PointsForumPost, fmt.Sprintf("first forum post in module: %s", module.Title))
		if _, err := p.Gamify.AwardBadge(ctx, userID, BadgeFirstForumPost); err != nil {
			p.Log.Printf("badge award failed for user %d: %v", userID, err)
		}
	}

	p.recheckCertification(ctx, userID, module.CourseID)

	return &post, nil
}

// touchCourseProgress lazily creates the per-(user, course) record and bumps
// lastAccessed.
func (p *Progress) touchCourseProgress(userID, courseID uint) error {
	now := time.Now()
	var progress models.CourseProgress
	err := p.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p.DB.Create(&models.CourseProgress{
			UserID:       userID,
			CourseID:     courseID,
			LastAccessed: now,
		}).Error
	}
	if err != nil {
		return err
	}
	return p.DB.Model(&progress).UpdateColumn("last_accessed", now).Error
}

// award wraps AwardPoints with log-only failure handling: the progress
// mutation has already committed, so gamification is best-effort.
func (p *Progress) award(ctx context.Context, userID uint, amount int, reason string) {
	if err := p.Gamify.AwardPoints(ctx, userID, amount, reason); err != nil {
		p.Log.Printf("point award failed for user %d (%s): %v", userID, reason, err)
	}
}

func (p *Progress) recheckCertification(ctx context.Context, userID, courseID uint) {
	if _, err := p.Certify.Evaluate(ctx, userID, courseID); err != nil {
		p.Log.Printf("certification check failed for user %d course %d: %v", userID, courseID, err)
	}
}

func gradeQuiz(questions []models.QuizQuestion, answers map[int]int) *QuizResult {
	result := &QuizResult{Total: len(questions)}
	for i, q := range questions {
		options := q.OptionList()
		chosen, answered := answers[i]

		detail := QuizAnswerDetail{
			Question:      q.Prompt,
			YourAnswer:    NotAnswered,
			CorrectAnswer: optionText(options, q.Correct),
		}
		if answered && chosen >= 0 && chosen < len(options) {
			detail.YourAnswer = options[chosen]
		}
		detail.IsCorrect = answered && chosen == q.Correct
		if detail.IsCorrect {
			result.Score++
		}
		result.Results = append(result.Results, detail)
	}
	result.ScorePercent = round1(float64(result.Score) / float64(result.Total) * 100)
	return result
}

func optionText(options []string, index int) string {
	if index >= 0 && index < len(options) {
		return options[index]
	}
	return NotAnswered
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

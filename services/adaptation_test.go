package services

import (
	"context"
	"testing"
	"time"

	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAdaptation(t *testing.T) (*gorm.DB, *Adaptation, *models.User, *testCourse) {
	t.Helper()
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	tc := buildTestCourse(t, db)

	gamify := NewGamification(db, nil, newTestLogger())
	certify := NewCertification(db, gamify, newTestLogger())
	adaptation := NewAdaptation(db, certify, newTestLogger())
	return db, adaptation, user, tc
}

func TestNextStepSuggestsReviewAfterFailedQuiz(t *testing.T) {
	db, adaptation, user, tc := setupAdaptation(t)

	// Failed attempt on the module's quiz; viewing the lesson after it.
	now := time.Now()
	require.NoError(t, db.Create(&models.LessonStatus{
		UserID: user.ID, LessonID: tc.Quiz.ID, CourseID: tc.Course.ID,
		Completed: true, CompletedAt: &now, ScorePercent: 40, SubmittedAt: &now,
	}).Error)

	suggestion, err := adaptation.NextStep(context.Background(), user.ID, tc.Course.ID, tc.LastLesson.ID)
	require.NoError(t, err)
	assert.Equal(t, SuggestionReview, suggestion.Type)
	// The material to review is the lesson preceding the failed quiz.
	assert.Equal(t, tc.TextLesson.ID, suggestion.LessonID)
	assert.Contains(t, suggestion.Message, tc.TextLesson.Title)
}

func TestNextStepReviewCrossesModuleBoundary(t *testing.T) {
	db, adaptation, user, tc := setupAdaptation(t)

	module2 := models.Module{CourseID: tc.Course.ID, Title: "Module 2", Position: 2}
	require.NoError(t, db.Create(&module2).Error)
	advanced := models.Lesson{
		ModuleID: module2.ID, CourseID: tc.Course.ID,
		Title: "Advanced", Type: models.LessonText, Position: 1,
	}
	require.NoError(t, db.Create(&advanced).Error)

	// Every module 1 lesson done, but the quiz was failed; the learner has
	// moved on to module 2.
	now := time.Now()
	for _, lesson := range []models.Lesson{tc.TextLesson, tc.Quiz, tc.LastLesson} {
		percent := 0.0
		var submitted *time.Time
		if lesson.Type == models.LessonQuiz {
			percent = 40
			submitted = &now
		}
		require.NoError(t, db.Create(&models.LessonStatus{
			UserID: user.ID, LessonID: lesson.ID, CourseID: tc.Course.ID,
			Completed: true, CompletedAt: &now, ScorePercent: percent, SubmittedAt: submitted,
		}).Error)
	}

	suggestion, err := adaptation.NextStep(context.Background(), user.ID, tc.Course.ID, advanced.ID)
	require.NoError(t, err)
	assert.Equal(t, SuggestionReview, suggestion.Type)
	assert.Equal(t, tc.TextLesson.ID, suggestion.LessonID)
	assert.Contains(t, suggestion.Message, tc.Quiz.Title)
}

func TestNextStepAdvancesToFirstIncompleteLesson(t *testing.T) {
	db, adaptation, user, tc := setupAdaptation(t)

	now := time.Now()
	require.NoError(t, db.Create(&models.LessonStatus{
		UserID: user.ID, LessonID: tc.TextLesson.ID, CourseID: tc.Course.ID,
		Completed: true, CompletedAt: &now,
	}).Error)

	suggestion, err := adaptation.NextStep(context.Background(), user.ID, tc.Course.ID, tc.TextLesson.ID)
	require.NoError(t, err)
	assert.Equal(t, SuggestionNext, suggestion.Type)
	assert.Equal(t, tc.Quiz.ID, suggestion.LessonID)
}

func TestNextStepPassedQuizDoesNotTriggerReview(t *testing.T) {
	db, adaptation, user, tc := setupAdaptation(t)

	now := time.Now()
	require.NoError(t, db.Create(&models.LessonStatus{
		UserID: user.ID, LessonID: tc.Quiz.ID, CourseID: tc.Course.ID,
		Completed: true, CompletedAt: &now, ScorePercent: 80, SubmittedAt: &now,
	}).Error)

	suggestion, err := adaptation.NextStep(context.Background(), user.ID, tc.Course.ID, tc.Quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, SuggestionNext, suggestion.Type)
	assert.Equal(t, tc.TextLesson.ID, suggestion.LessonID)
}

func TestNextStepAllDoneWithoutCriteria(t *testing.T) {
	db, adaptation, user, tc := setupAdaptation(t)

	now := time.Now()
	for _, lesson := range []models.Lesson{tc.TextLesson, tc.Quiz, tc.LastLesson} {
		percent := 0.0
		var submitted *time.Time
		if lesson.Type == models.LessonQuiz {
			percent = 100
			submitted = &now
		}
		require.NoError(t, db.Create(&models.LessonStatus{
			UserID: user.ID, LessonID: lesson.ID, CourseID: tc.Course.ID,
			Completed: true, CompletedAt: &now, ScorePercent: percent, SubmittedAt: submitted,
		}).Error)
	}

	suggestion, err := adaptation.NextStep(context.Background(), user.ID, tc.Course.ID, tc.LastLesson.ID)
	require.NoError(t, err)
	assert.Equal(t, SuggestionCourseEnd, suggestion.Type)
}

func TestNextStepAllDoneWithUnmetCriteria(t *testing.T) {
	db, adaptation, user, tc := setupAdaptation(t)

	criteria := models.CertificationCriteria{CourseID: tc.Course.ID}
	criteria.SetLessonIDs([]uint{tc.TextLesson.ID})
	criteria.SetAssignmentModuleIDs([]uint{tc.Module.ID})
	require.NoError(t, db.Create(&criteria).Error)

	now := time.Now()
	for _, lesson := range []models.Lesson{tc.TextLesson, tc.Quiz, tc.LastLesson} {
		submitted := &now
		percent := 100.0
		if lesson.Type != models.LessonQuiz {
			submitted = nil
			percent = 0
		}
		require.NoError(t, db.Create(&models.LessonStatus{
			UserID: user.ID, LessonID: lesson.ID, CourseID: tc.Course.ID,
			Completed: true, CompletedAt: &now, ScorePercent: percent, SubmittedAt: submitted,
		}).Error)
	}

	// Assignment still missing, so no certificate yet.
	suggestion, err := adaptation.NextStep(context.Background(), user.ID, tc.Course.ID, tc.LastLesson.ID)
	require.NoError(t, err)
	assert.Equal(t, SuggestionCompleteRemaining, suggestion.Type)
}

func TestNextStepUnknownLesson(t *testing.T) {
	_, adaptation, user, tc := setupAdaptation(t)

	_, err := adaptation.NextStep(context.Background(), user.ID, tc.Course.ID, 9999)
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindNotFound, domainErr.Kind)
}

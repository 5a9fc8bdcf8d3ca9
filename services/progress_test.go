package services

import (
	"context"
	"testing"

	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProgress(t *testing.T) (*gorm.DB, *Progress, *models.User, *testCourse) {
	t.Helper()
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	tc := buildTestCourse(t, db)

	gamify := NewGamification(db, nil, newTestLogger())
	certify := NewCertification(db, gamify, newTestLogger())
	progress := NewProgress(db, gamify, certify, newTestLogger())
	return db, progress, user, tc
}

func TestCompleteLessonAwardsOnce(t *testing.T) {
	db, progress, user, tc := setupProgress(t)
	ctx := context.Background()

	already, err := progress.CompleteLesson(ctx, user.ID, tc.TextLesson.ID)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, PointsLessonComplete, userPoints(t, db, user.ID))

	// Second completion succeeds but awards nothing.
	already, err = progress.CompleteLesson(ctx, user.ID, tc.TextLesson.ID)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, PointsLessonComplete, userPoints(t, db, user.ID))
}

func TestCompleteLessonRejectsQuiz(t *testing.T) {
	_, progress, user, tc := setupProgress(t)

	_, err := progress.CompleteLesson(context.Background(), user.ID, tc.Quiz.ID)
	require.Error(t, err)
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindInvalidOperation, domainErr.Kind)
}

func TestCompleteLessonUnknownLesson(t *testing.T) {
	_, progress, user, _ := setupProgress(t)

	_, err := progress.CompleteLesson(context.Background(), user.ID, 9999)
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindNotFound, domainErr.Kind)
}

func TestSubmitQuizGrading(t *testing.T) {
	db, progress, user, tc := setupProgress(t)

	// One right, one skipped.
	result, err := progress.SubmitQuiz(context.Background(), user.ID, tc.Quiz.ID, map[int]int{0: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 50.0, result.ScorePercent)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].IsCorrect)
	assert.Equal(t, "4", result.Results[0].YourAnswer)
	assert.Equal(t, NotAnswered, result.Results[1].YourAnswer)
	assert.Equal(t, "Paris", result.Results[1].CorrectAnswer)

	// 50% passes: pass bonus plus badge, no perfect bonus.
	assert.Equal(t, PointsQuizPass, userPoints(t, db, user.ID))

	var badges []models.UserBadge
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&badges).Error)
	require.Len(t, badges, 1)
	assert.Equal(t, BadgeFirstQuizPassed, badges[0].BadgeID)
}

func TestSubmitQuizPerfectScoreStacksBonuses(t *testing.T) {
	db, progress, user, tc := setupProgress(t)

	result, err := progress.SubmitQuiz(context.Background(), user.ID, tc.Quiz.ID, map[int]int{0: 1, 1: 0})
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.ScorePercent)

	assert.Equal(t, PointsQuizPass+PointsQuizPerfect, userPoints(t, db, user.ID))

	var badgeIDs []string
	require.NoError(t, db.Model(&models.UserBadge{}).Where("user_id = ?", user.ID).Pluck("badge_id", &badgeIDs).Error)
	assert.ElementsMatch(t, []string{BadgeFirstQuizPassed, BadgePerfectScore}, badgeIDs)
}

func TestSubmitQuizRetakeOverwritesScore(t *testing.T) {
	db, progress, user, tc := setupProgress(t)
	ctx := context.Background()

	_, err := progress.SubmitQuiz(ctx, user.ID, tc.Quiz.ID, map[int]int{0: 1, 1: 0})
	require.NoError(t, err)

	var first models.LessonStatus
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", user.ID, tc.Quiz.ID).First(&first).Error)
	firstCompleted := first.CompletedAt

	// Failed retake: latest score stored, first completion time kept.
	result, err := progress.SubmitQuiz(ctx, user.ID, tc.Quiz.ID, map[int]int{0: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.ScorePercent)

	var latest models.LessonStatus
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", user.ID, tc.Quiz.ID).First(&latest).Error)
	assert.Equal(t, 0.0, latest.ScorePercent)
	assert.True(t, latest.Completed)
	require.NotNil(t, latest.CompletedAt)
	assert.Equal(t, firstCompleted.Unix(), latest.CompletedAt.Unix())

	// One row per (user, lesson) regardless of attempts.
	var count int64
	require.NoError(t, db.Model(&models.LessonStatus{}).
		Where("user_id = ? AND lesson_id = ?", user.ID, tc.Quiz.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitQuizOutOfRangeAnswerIsNotAnswered(t *testing.T) {
	_, progress, user, tc := setupProgress(t)

	result, err := progress.SubmitQuiz(context.Background(), user.ID, tc.Quiz.ID, map[int]int{0: 42, 1: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, NotAnswered, result.Results[0].YourAnswer)
	assert.Equal(t, NotAnswered, result.Results[1].YourAnswer)
}

func TestSubmitQuizWithoutQuestions(t *testing.T) {
	db, progress, user, tc := setupProgress(t)

	empty := models.Lesson{ModuleID: tc.Module.ID, CourseID: tc.Course.ID, Title: "Broken", Type: models.LessonQuiz, Position: 9}
	require.NoError(t, db.Create(&empty).Error)

	_, err := progress.SubmitQuiz(context.Background(), user.ID, empty.ID, map[int]int{})
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindInvalidState, domainErr.Kind)
}

func TestSubmitQuizOnNonQuizLesson(t *testing.T) {
	_, progress, user, tc := setupProgress(t)

	_, err := progress.SubmitQuiz(context.Background(), user.ID, tc.TextLesson.ID, map[int]int{})
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindInvalidOperation, domainErr.Kind)
}

func TestSubmitAssignmentFirstBonusOnly(t *testing.T) {
	db, progress, user, tc := setupProgress(t)
	ctx := context.Background()

	id, err := progress.SubmitAssignment(ctx, user.ID, tc.Module.ID, "my work")
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, PointsAssignmentSubmit, userPoints(t, db, user.ID))

	// Resubmission overwrites the text, no second bonus, same row.
	id2, err := progress.SubmitAssignment(ctx, user.ID, tc.Module.ID, "revised work")
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, PointsAssignmentSubmit, userPoints(t, db, user.ID))

	var submission models.AssignmentSubmission
	require.NoError(t, db.First(&submission, id).Error)
	assert.Equal(t, "revised work", submission.Text)
	assert.Equal(t, models.SubmissionSubmitted, submission.Status)
}

func TestSubmitAssignmentValidation(t *testing.T) {
	db, progress, user, tc := setupProgress(t)
	ctx := context.Background()

	_, err := progress.SubmitAssignment(ctx, user.ID, tc.Module.ID, "   ")
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindInvalidInput, domainErr.Kind)

	plain := models.Module{CourseID: tc.Course.ID, Title: "No Assignment", Position: 2}
	require.NoError(t, db.Create(&plain).Error)

	_, err = progress.SubmitAssignment(ctx, user.ID, plain.ID, "text")
	domainErr, ok = models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindInvalidOperation, domainErr.Kind)
}

func TestCreateForumPostFirstPostBonus(t *testing.T) {
	db, progress, user, tc := setupProgress(t)
	ctx := context.Background()

	post, err := progress.CreateForumPost(ctx, user.ID, tc.Module.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "alice", post.UserName)
	assert.Equal(t, PointsForumPost, userPoints(t, db, user.ID))

	var badgeIDs []string
	require.NoError(t, db.Model(&models.UserBadge{}).Where("user_id = ?", user.ID).Pluck("badge_id", &badgeIDs).Error)
	assert.Equal(t, []string{BadgeFirstForumPost}, badgeIDs)

	// Subsequent posts are stored but earn nothing.
	_, err = progress.CreateForumPost(ctx, user.ID, tc.Module.ID, "hello again")
	require.NoError(t, err)
	assert.Equal(t, PointsForumPost, userPoints(t, db, user.ID))

	var count int64
	require.NoError(t, db.Model(&models.ForumPost{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestCreateForumPostEmptyText(t *testing.T) {
	_, progress, user, tc := setupProgress(t)

	_, err := progress.CreateForumPost(context.Background(), user.ID, tc.Module.ID, "")
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindInvalidInput, domainErr.Kind)
}

// Full pass through a course with criteria: lessons, perfect quiz,
// assignment, forum post, then certification.
func TestEndToEndCourseRun(t *testing.T) {
	db, progress, user, tc := setupProgress(t)
	ctx := context.Background()

	criteria := models.CertificationCriteria{
		CourseID:          tc.Course.ID,
		CompletionBadgeID: BadgeCourseCS101,
	}
	criteria.SetLessonIDs([]uint{tc.TextLesson.ID, tc.Quiz.ID, tc.LastLesson.ID})
	criteria.SetQuizThresholds(map[uint]float64{tc.Quiz.ID: 50})
	criteria.SetAssignmentModuleIDs([]uint{tc.Module.ID})
	require.NoError(t, db.Create(&criteria).Error)

	_, err := progress.CompleteLesson(ctx, user.ID, tc.TextLesson.ID)
	require.NoError(t, err)
	_, err = progress.SubmitQuiz(ctx, user.ID, tc.Quiz.ID, map[int]int{0: 1, 1: 0})
	require.NoError(t, err)
	_, err = progress.SubmitAssignment(ctx, user.ID, tc.Module.ID, "done")
	require.NoError(t, err)
	_, err = progress.CreateForumPost(ctx, user.ID, tc.Module.ID, "made it")
	require.NoError(t, err)
	_, err = progress.CompleteLesson(ctx, user.ID, tc.LastLesson.ID)
	require.NoError(t, err)

	// 10 + 10 lessons, 25 + 50 quiz, 30 assignment, 5 forum, 100 certification.
	total := 2*PointsLessonComplete + PointsQuizPass + PointsQuizPerfect +
		PointsAssignmentSubmit + PointsForumPost + PointsCourseCertified
	assert.Equal(t, total, userPoints(t, db, user.ID))

	var courseProgress models.CourseProgress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, tc.Course.ID).First(&courseProgress).Error)
	assert.True(t, courseProgress.Certified)

	var badgeIDs []string
	require.NoError(t, db.Model(&models.UserBadge{}).Where("user_id = ?", user.ID).Pluck("badge_id", &badgeIDs).Error)
	assert.ElementsMatch(t, []string{
		BadgeFirstQuizPassed, BadgePerfectScore, BadgeFirstForumPost, BadgeCourseCS101,
	}, badgeIDs)
}

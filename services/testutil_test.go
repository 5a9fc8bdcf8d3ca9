package services

import (
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"lms/models"
	"lms/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique shared-cache name per test so parallel tests never share state.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	return db
}

func newTestLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleLearner,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// testCourse is a small fixture: one course, one module with an assignment,
// three lessons (text, quiz with two questions, text).
type testCourse struct {
	Course     models.Course
	Module     models.Module
	TextLesson models.Lesson
	Quiz       models.Lesson
	LastLesson models.Lesson
}

func buildTestCourse(t *testing.T, db *gorm.DB) *testCourse {
	t.Helper()

	tc := &testCourse{}
	tc.Course = models.Course{Title: "Course Under Test"}
	require.NoError(t, db.Create(&tc.Course).Error)

	tc.Module = models.Module{
		CourseID:              tc.Course.ID,
		Title:                 "Module 1",
		Position:              1,
		HasAssignment:         true,
		AssignmentDescription: "Write something.",
	}
	require.NoError(t, db.Create(&tc.Module).Error)

	tc.TextLesson = models.Lesson{
		ModuleID: tc.Module.ID, CourseID: tc.Course.ID,
		Title: "Reading", Type: models.LessonText, Position: 1,
	}
	tc.Quiz = models.Lesson{
		ModuleID: tc.Module.ID, CourseID: tc.Course.ID,
		Title: "Checkpoint Quiz", Type: models.LessonQuiz, Position: 2,
	}
	tc.LastLesson = models.Lesson{
		ModuleID: tc.Module.ID, CourseID: tc.Course.ID,
		Title: "Wrap Up", Type: models.LessonText, Position: 3,
	}
	for _, lesson := range []*models.Lesson{&tc.TextLesson, &tc.Quiz, &tc.LastLesson} {
		require.NoError(t, db.Create(lesson).Error)
	}

	questions := []struct {
		prompt  string
		options []string
		correct int
	}{
		{"2 + 2?", []string{"3", "4", "5"}, 1},
		{"Capital of France?", []string{"Paris", "Rome"}, 0},
	}
	for i, q := range questions {
		question := models.QuizQuestion{LessonID: tc.Quiz.ID, Prompt: q.prompt, Correct: q.correct, Position: i}
		question.SetOptions(q.options)
		require.NoError(t, db.Create(&question).Error)
	}

	return tc
}

func userPoints(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.Points
}

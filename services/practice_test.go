package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms/models"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubAIClient(t *testing.T, content string) *openai.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
		})
	}))
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(config)
}

const stubQuizJSON = `{"type":"quiz","title":"Practice for: Reading","feedback":"Keep going!","questions":[{"q":"What is code?","options":["Instructions","Pictures"],"correct":0}]}`

func TestGeneratePractice(t *testing.T) {
	db := newTestDB(t)
	tc := buildTestCourse(t, db)

	client := newStubAIClient(t, stubQuizJSON)
	practice := NewPractice(db, client, "gpt-4o-mini", time.Second, newTestLogger())

	quiz, err := practice.Generate(context.Background(), tc.TextLesson.ID)
	require.NoError(t, err)
	assert.Equal(t, "quiz", quiz.Type)
	assert.Equal(t, "Practice for: Reading", quiz.Title)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, 0, quiz.Questions[0].Correct)
}

func TestGeneratePracticeFencedResponse(t *testing.T) {
	db := newTestDB(t)
	tc := buildTestCourse(t, db)

	fenced := "Here is your quiz:\n```json\n" + stubQuizJSON + "\n```\nEnjoy!"
	client := newStubAIClient(t, fenced)
	practice := NewPractice(db, client, "gpt-4o-mini", time.Second, newTestLogger())

	quiz, err := practice.Generate(context.Background(), tc.Quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Practice for: Reading", quiz.Title)
}

func TestGeneratePracticeInvalidResponse(t *testing.T) {
	db := newTestDB(t)
	tc := buildTestCourse(t, db)

	client := newStubAIClient(t, "Sorry, I cannot help with that.")
	practice := NewPractice(db, client, "gpt-4o-mini", time.Second, newTestLogger())

	_, err := practice.Generate(context.Background(), tc.TextLesson.ID)
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindExternalService, domainErr.Kind)
}

func TestGeneratePracticeNotConfigured(t *testing.T) {
	db := newTestDB(t)
	tc := buildTestCourse(t, db)

	practice := NewPractice(db, nil, "", 0, newTestLogger())

	_, err := practice.Generate(context.Background(), tc.TextLesson.ID)
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindExternalService, domainErr.Kind)
}

func TestGeneratePracticeUnknownLesson(t *testing.T) {
	db := newTestDB(t)

	practice := NewPractice(db, nil, "", 0, newTestLogger())

	_, err := practice.Generate(context.Background(), 9999)
	domainErr, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindNotFound, domainErr.Kind)
}

func TestParsePracticeQuizBareBraces(t *testing.T) {
	quiz, err := parsePracticeQuiz("Sure! " + stubQuizJSON + " Hope that helps.")
	require.NoError(t, err)
	assert.Equal(t, "Practice for: Reading", quiz.Title)

	_, err = parsePracticeQuiz("")
	assert.Error(t, err)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"lms/models"

	openai "github.com/sashabaranov/go-openai"
	"gorm.io/gorm"
)

// PracticeQuestion is one generated multiple-choice question.
type PracticeQuestion struct {
	Q       string   `json:"q"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// PracticeQuiz is the generated practice set for a lesson.
type PracticeQuiz struct {
	Type      string             `json:"type"`
	Title     string             `json:"title"`
	Feedback  string             `json:"feedback"`
	Questions []PracticeQuestion `json:"questions"`
}

const practiceFormatInstruction = `
Respond ONLY with a valid JSON object containing:
1. "type": "quiz"
2. "title": A short title like "Practice for: [Original Lesson Title]"
3. "feedback": A brief introductory feedback message for the user (1 sentence).
4. "questions": An array of 3-4 multiple-choice practice questions. Each question object should have:
   - "q": The question text (string).
   - "options": An array of 3-4 answer option strings.
   - "correct": The 0-based index of the correct answer in the options array (number).

Ensure the questions are different from the reference questions (if provided) but cover the same topic based on the context.
Ensure the entire response is ONLY the JSON object, with no other text before or after it.`

// Practice generates personalized practice quizzes for a lesson through the
// OpenAI chat completions API. A nil client means the feature is not
// configured; every upstream failure surfaces as an ExternalService error so
// callers map it to 503 instead of 500.
type Practice struct {
	DB      *gorm.DB
	Client  *openai.Client
	Model   string
	Timeout time.Duration
	Log     *log.Logger
}

func NewPractice(db *gorm.DB, client *openai.Client, model string, timeout time.Duration, logger *log.Logger) *Practice {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Practice{DB: db, Client: client, Model: model, Timeout: timeout, Log: logger}
}

func (p *Practice) Generate(ctx context.Context, lessonID uint) (*PracticeQuiz, error) {
	var lesson models.Lesson
	if err := p.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundErr("lesson", lessonID)
		}
		return nil, err
	}

	if p.Client == nil {
		return nil, models.ExternalServiceErr("AI practice generation is not configured", nil)
	}

	p.Log.Printf("[ai] generating practice quiz for lesson %d (%s)", lesson.ID, lesson.Title)

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	resp, err := p.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.Model,
		MaxTokens:   300,
		Temperature: 0.5,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert instructional designer creating practice quizzes for an LMS based on provided lesson context. " + practiceFormatInstruction,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Generate a practice quiz based on the following lesson context:\n\n" + promptContext(&lesson),
			},
		},
	})
	if err != nil {
		p.Log.Printf("[ai] practice generation failed for lesson %d: %v", lessonID, err)
		return nil, models.ExternalServiceErr("AI service request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, models.ExternalServiceErr("AI service returned no choices", nil)
	}

	quiz, err := parsePracticeQuiz(resp.Choices[0].Message.Content)
	if err != nil {
		p.Log.Printf("[ai] practice response was not valid JSON for lesson %d: %v", lessonID, err)
		return nil, models.ExternalServiceErr("AI failed to generate valid practice questions", err)
	}
	return quiz, nil
}

// promptContext summarizes the lesson for the model. Long text content is
// truncated to keep the request within token limits.
func promptContext(lesson *models.Lesson) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lesson Title: %s\nLesson Type: %s\n", lesson.Title, lesson.Type)

	switch {
	case lesson.Type == models.LessonText && lesson.Content != "":
		content := lesson.Content
		if len(content) > 1000 {
			content = content[:1000] + "..."
		}
		fmt.Fprintf(&b, "Lesson Content Snippet:\n%s\n", content)
	case lesson.Type == models.LessonQuiz && len(lesson.Questions) > 0:
		b.WriteString("Existing Quiz Questions (for reference/variation):\n")
		for i, q := range lesson.Questions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q.Prompt)
		}
	}
	return b.String()
}

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// parsePracticeQuiz extracts a PracticeQuiz from model output that may wrap
// the JSON in a markdown fence or surrounding prose.
func parsePracticeQuiz(text string) (*PracticeQuiz, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, errors.New("empty response")
	}

	candidates := []string{raw}
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}

	for _, c := range candidates {
		var quiz PracticeQuiz
		if err := json.Unmarshal([]byte(c), &quiz); err != nil {
			continue
		}
		if quiz.Title == "" || len(quiz.Questions) == 0 {
			continue
		}
		if quiz.Type == "" {
			quiz.Type = "quiz"
		}
		return &quiz, nil
	}
	return nil, errors.New("no valid quiz JSON in response")
}

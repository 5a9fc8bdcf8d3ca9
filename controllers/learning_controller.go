package controllers

import (
	"strconv"
	"time"

	"lms/config"
	"lms/models"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LearningController exposes the progress-recording operations. All domain
// rules live in services.Progress; handlers only parse, delegate and map
// errors.
type LearningController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Progress *services.Progress
}

func NewLearningController(db *gorm.DB, cfg *config.Config, progress *services.Progress) *LearningController {
	return &LearningController{DB: db, Cfg: cfg, Progress: progress}
}

// CompleteLesson godoc
// @Summary Mark a lesson complete
// @Tags learning
// @Produce json
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /learning/lessons/{lessonId}/complete [post]
func (lc *LearningController) CompleteLesson(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	lessonID, err := strconv.ParseUint(c.Params("lessonId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	alreadyCompleted, err := lc.Progress.CompleteLesson(c.Context(), userID, uint(lessonID))
	if err != nil {
		return utils.FromError(c, err)
	}

	message := "Lesson marked as complete"
	if alreadyCompleted {
		message = "Lesson was already completed"
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":          message,
		"alreadyCompleted": alreadyCompleted,
	})
}

// SubmitQuiz godoc
// @Summary Submit quiz answers
// @Description Grades the submission; answers map question index to chosen option index
// @Tags learning
// @Accept json
// @Produce json
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /learning/lessons/{lessonId}/quiz [post]
func (lc *LearningController) SubmitQuiz(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	lessonID, err := strconv.ParseUint(c.Params("lessonId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var input struct {
		Answers map[string]int `json:"answers"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	// Keys arrive as JSON object keys, i.e. strings of question indexes.
	answers := make(map[int]int, len(input.Answers))
	for key, chosen := range input.Answers {
		index, err := strconv.Atoi(key)
		if err != nil {
			return utils.BadRequest(c, "answer keys must be question indexes")
		}
		answers[index] = chosen
	}

	result, err := lc.Progress.SubmitQuiz(c.Context(), userID, uint(lessonID), answers)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

// SubmitAssignment godoc
// @Summary Submit assignment text
// @Tags learning
// @Accept json
// @Produce json
// @Param moduleId path int true "Module ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /learning/modules/{moduleId}/assignment [post]
func (lc *LearningController) SubmitAssignment(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	moduleID, err := strconv.ParseUint(c.Params("moduleId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	submissionID, err := lc.Progress.SubmitAssignment(c.Context(), userID, uint(moduleID), input.Text)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":      "Assignment submitted",
		"submissionId": submissionID,
	})
}

// GetMySubmission returns the caller's submission for a module, if any.
func (lc *LearningController) GetMySubmission(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	moduleID, err := strconv.ParseUint(c.Params("moduleId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var submission models.AssignmentSubmission
	if err := lc.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).First(&submission).Error; err != nil {
		return utils.NotFound(c, "No submission for this module")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":          submission.ID,
		"text":        submission.Text,
		"status":      submission.Status,
		"grade":       submission.Grade,
		"feedback":    submission.InstructorFeedback,
		"submittedAt": submission.SubmittedAt,
		"gradedAt":    submission.GradedAt,
	})
}

// GradeSubmission lets an instructor grade a submission and attach feedback.
func (lc *LearningController) GradeSubmission(c *fiber.Ctx) error {
	submissionID, err := strconv.ParseUint(c.Params("submissionId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid submission ID")
	}

	var input struct {
		Grade    *float64 `json:"grade"`
		Feedback string   `json:"feedback"`
		Status   string   `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	status := input.Status
	switch status {
	case "":
		status = models.SubmissionGraded
	case models.SubmissionGraded, models.SubmissionNeedsRevision:
	default:
		return utils.BadRequest(c, "invalid status")
	}
	if status == models.SubmissionGraded && input.Grade == nil {
		return utils.BadRequest(c, "grade is required")
	}

	var submission models.AssignmentSubmission
	if err := lc.DB.First(&submission, submissionID).Error; err != nil {
		return utils.NotFound(c, "Submission not found")
	}

	now := time.Now()
	submission.Grade = input.Grade
	submission.InstructorFeedback = input.Feedback
	submission.Status = status
	submission.GradedAt = &now
	if err := lc.DB.Save(&submission).Error; err != nil {
		return utils.InternalServerError(c, "Could not save grade")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Submission graded",
		"id":      submission.ID,
	})
}

package controllers

import (
	"strconv"

	"lms/config"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AIController groups the adaptive-learning endpoints: risk, next-step and
// practice generation. Only practice talks to an external service.
type AIController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Risk       *services.Risk
	Adaptation *services.Adaptation
	Practice   *services.Practice
}

func NewAIController(db *gorm.DB, cfg *config.Config, risk *services.Risk, adaptation *services.Adaptation, practice *services.Practice) *AIController {
	return &AIController{DB: db, Cfg: cfg, Risk: risk, Adaptation: adaptation, Practice: practice}
}

// GetRisk godoc
// @Summary Disengagement risk assessment
// @Tags ai
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /ai/risk [get]
func (ai *AIController) GetRisk(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ai.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	assessment, err := ai.Risk.Assess(userID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, assessment)
}

// GetNextStep godoc
// @Summary Adaptive next-step suggestion
// @Tags ai
// @Produce json
// @Param courseId path int true "Course ID"
// @Param lessonId query int true "Current lesson ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/next-step/{courseId} [get]
func (ai *AIController) GetNextStep(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ai.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.ParseUint(c.Params("courseId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	lessonID, err := strconv.ParseUint(c.Query("lessonId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "lessonId query parameter is required")
	}

	suggestion, err := ai.Adaptation.NextStep(c.Context(), userID, uint(courseID), uint(lessonID))
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, suggestion)
}

// GeneratePractice godoc
// @Summary Generate an AI practice quiz for a lesson
// @Tags ai
// @Produce json
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/practice/{lessonId} [get]
func (ai *AIController) GeneratePractice(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, ai.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	lessonID, err := strconv.ParseUint(c.Params("lessonId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	quiz, err := ai.Practice.Generate(c.Context(), uint(lessonID))
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, quiz)
}

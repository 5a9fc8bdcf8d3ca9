package controllers

import (
	"strconv"

	"lms/config"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Analytics *services.Analytics
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config, analytics *services.Analytics) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg, Analytics: analytics}
}

// GetMyCourseAnalytics godoc
// @Summary Per-course analytics for the caller
// @Tags analytics
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /analytics/courses/{courseId}/me [get]
func (ac *AnalyticsController) GetMyCourseAnalytics(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.ParseUint(c.Params("courseId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	data, err := ac.Analytics.UserCourse(userID, uint(courseID))
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, data)
}

// GetCourseOverview godoc
// @Summary Aggregate course statistics
// @Description Instructor/admin view over every learner's progress
// @Tags analytics
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /analytics/courses/{courseId}/overview [get]
func (ac *AnalyticsController) GetCourseOverview(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("courseId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	overview, err := ac.Analytics.Overview(uint(courseID))
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, overview)
}

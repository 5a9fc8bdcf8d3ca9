package controllers

import (
	"strconv"
	"time"

	"lms/config"
	"lms/models"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type UserController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Gamify *services.Gamification
}

func NewUserController(db *gorm.DB, cfg *config.Config, gamify *services.Gamification) *UserController {
	return &UserController{DB: db, Cfg: cfg, Gamify: gamify}
}

// GetUsers godoc
// @Summary List users
// @Description Returns all users (admin only)
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users [get]
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := uc.DB.Order("id ASC").Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch users")
	}

	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		out = append(out, fiber.Map{
			"id":         u.ID,
			"username":   u.Username,
			"name":       u.Name,
			"email":      u.Email,
			"role":       u.Role,
			"points":     u.Points,
			"created_at": u.CreatedAt,
		})
	}
	return utils.Success(c, fiber.StatusOK, out)
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	badges, err := uc.Gamify.UserBadgeIDs(userID)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch badges")
	}

	var courseProgress []models.CourseProgress
	uc.DB.Where("user_id = ?", userID).Order("last_accessed DESC").Find(&courseProgress)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":         user.ID,
		"username":   user.Username,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"points":     user.Points,
		"badges":     badges,
		"courses":    courseProgress,
		"created_at": user.CreatedAt,
	})
}

// GetMyActivity godoc
// @Summary Get user activity
// @Description Returns the user's recent login history
// @Tags users
// @Produce json
// @Param days query int false "Number of days to look back" default(7)
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /users/activity [get]
func (uc *UserController) GetMyActivity(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	days, _ := strconv.Atoi(c.Query("days", "7"))
	if days < 1 {
		days = 7
	}

	var logins []models.LoginHistory
	if err := uc.DB.Where("user_id = ? AND login_time >= ?",
		userID, time.Now().AddDate(0, 0, -days)).
		Order("login_time DESC").
		Find(&logins).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch login history")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"logins":      logins,
		"period_days": days,
	})
}

// DeleteMyAccount godoc
// @Summary Delete own account
// @Description Deletes the authenticated user and all their data
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/me [delete]
func (uc *UserController) DeleteMyAccount(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	// The dependent tables are independent of each other, so their cleanup
	// runs in parallel; the user row goes last.
	g := new(errgroup.Group)
	byUser := func(model interface{}) func() error {
		return func() error {
			return uc.DB.Unscoped().Where("user_id = ?", userID).Delete(model).Error
		}
	}
	g.Go(byUser(&models.CourseProgress{}))
	g.Go(byUser(&models.LessonStatus{}))
	g.Go(byUser(&models.AssignmentStatus{}))
	g.Go(byUser(&models.AssignmentSubmission{}))
	g.Go(byUser(&models.ForumPost{}))
	g.Go(byUser(&models.UserBadge{}))
	g.Go(byUser(&models.LoginHistory{}))
	if err := g.Wait(); err != nil {
		return utils.InternalServerError(c, "Failed to delete user data")
	}

	if err := uc.DB.Unscoped().Delete(&models.User{}, userID).Error; err != nil {
		return utils.InternalServerError(c, "Failed to delete user")
	}

	// The leaderboard mirror must not keep serving the deleted user.
	uc.Gamify.ForgetUser(c.Context(), userID)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Account deleted",
	})
}

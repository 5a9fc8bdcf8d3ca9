package controllers

import (
	"strconv"

	"lms/config"
	"lms/models"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GamificationController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Gamify      *services.Gamification
	Leaderboard *services.Leaderboard
}

func NewGamificationController(db *gorm.DB, cfg *config.Config, gamify *services.Gamification, leaderboard *services.Leaderboard) *GamificationController {
	return &GamificationController{DB: db, Cfg: cfg, Gamify: gamify, Leaderboard: leaderboard}
}

// GetLeaderboard godoc
// @Summary Points leaderboard
// @Tags gamification
// @Produce json
// @Param limit query int false "Number of entries" default(10)
// @Success 200 {object} map[string]interface{}
// @Router /gamification/leaderboard [get]
func (gc *GamificationController) GetLeaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	entries, err := gc.Leaderboard.Top(c.Context(), limit)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch leaderboard")
	}
	return utils.Success(c, fiber.StatusOK, entries)
}

// GetBadgeDefinitions returns the static badge catalog.
func (gc *GamificationController) GetBadgeDefinitions(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, services.BadgeDefinitions())
}

// GetMyGamification returns the caller's points and earned badges.
func (gc *GamificationController) GetMyGamification(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := gc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	badgeIDs, err := gc.Gamify.UserBadgeIDs(userID)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch badges")
	}

	badges := make([]services.Badge, 0, len(badgeIDs))
	for _, id := range badgeIDs {
		if badge, ok := services.BadgeByID(id); ok {
			badges = append(badges, badge)
		}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"points": user.Points,
		"badges": badges,
	})
}

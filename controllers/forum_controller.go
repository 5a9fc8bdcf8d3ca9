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

type ForumController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Progress *services.Progress
}

func NewForumController(db *gorm.DB, cfg *config.Config, progress *services.Progress) *ForumController {
	return &ForumController{DB: db, Cfg: cfg, Progress: progress}
}

// GetPosts returns a module's forum posts, newest first.
func (fc *ForumController) GetPosts(c *fiber.Ctx) error {
	moduleID, err := strconv.ParseUint(c.Params("moduleId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var module models.Module
	if err := fc.DB.First(&module, moduleID).Error; err != nil {
		return utils.NotFound(c, "Module not found")
	}

	var posts []models.ForumPost
	if err := fc.DB.Where("module_id = ?", moduleID).Order("created_at DESC").Find(&posts).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch posts")
	}

	out := make([]fiber.Map, 0, len(posts))
	for _, post := range posts {
		out = append(out, fiber.Map{
			"id":        post.ID,
			"userId":    post.UserID,
			"userName":  post.UserName,
			"text":      post.Text,
			"createdAt": post.CreatedAt,
		})
	}
	return utils.Success(c, fiber.StatusOK, out)
}

// CreatePost godoc
// @Summary Create a forum post
// @Tags forum
// @Accept json
// @Produce json
// @Param moduleId path int true "Module ID"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /forum/modules/{moduleId}/posts [post]
func (fc *ForumController) CreatePost(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, fc.Cfg)
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

	post, err := fc.Progress.CreateForumPost(c.Context(), userID, uint(moduleID), input.Text)
	if err != nil {
		return utils.FromError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"id":        post.ID,
		"userId":    post.UserID,
		"userName":  post.UserName,
		"text":      post.Text,
		"createdAt": post.CreatedAt,
	})
}

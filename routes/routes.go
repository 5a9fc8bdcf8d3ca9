package routes

import (
	"log"

	"lms/config"
	"lms/controllers"
	"lms/middleware"
	"lms/models"
	"lms/services"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"gorm.io/gorm"
)

// Dependencies carries the optional external clients. Nil fields disable the
// corresponding feature (redis falls back to SQL, AI returns 503).
type Dependencies struct {
	RDB      *redis.Client
	AIClient *openai.Client
	Logger   *log.Logger
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	// Services
	gamify := services.NewGamification(db, deps.RDB, logger)
	certify := services.NewCertification(db, gamify, logger)
	progress := services.NewProgress(db, gamify, certify, logger)
	risk := services.NewRisk(db, logger)
	adaptation := services.NewAdaptation(db, certify, logger)
	practice := services.NewPractice(db, deps.AIClient, cfg.OpenAIModel, cfg.AITimeout, logger)
	leaderboard := services.NewLeaderboard(db, deps.RDB, logger)
	analytics := services.NewAnalytics(db, logger)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	staffOnly := middleware.RequireRole(db, cfg, models.RoleInstructor, models.RoleAdmin)
	adminOnly := middleware.RequireRole(db, cfg, models.RoleAdmin)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// User routes
	userController := controllers.NewUserController(db, cfg, gamify)
	app.Get("/api/users", adminOnly, userController.GetUsers)
	app.Get("/api/users/profile", authMiddleware, userController.GetProfile)
	app.Get("/api/users/activity", authMiddleware, userController.GetMyActivity)
	app.Delete("/api/users/me", authMiddleware, userController.DeleteMyAccount)

	// Course routes
	courseController := controllers.NewCourseController(db, cfg)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", courseController.GetCourses)
	courses.Get("/:id", courseController.GetCourseDetails)
	courses.Post("/", staffOnly, courseController.CreateCourse)
	courses.Post("/:id/modules", staffOnly, courseController.AddModule)
	courses.Put("/:id/criteria", staffOnly, courseController.UpdateCriteria)
	app.Post("/api/modules/:moduleId/lessons", staffOnly, courseController.AddLesson)

	// Learning routes
	learningController := controllers.NewLearningController(db, cfg, progress)
	learning := app.Group("/api/learning", authMiddleware)
	learning.Post("/lessons/:lessonId/complete", learningController.CompleteLesson)
	learning.Post("/lessons/:lessonId/quiz", learningController.SubmitQuiz)
	learning.Post("/modules/:moduleId/assignment", learningController.SubmitAssignment)
	learning.Get("/modules/:moduleId/assignment", learningController.GetMySubmission)
	app.Post("/api/learning/submissions/:submissionId/grade", staffOnly, learningController.GradeSubmission)

	// Forum routes
	forumController := controllers.NewForumController(db, cfg, progress)
	forum := app.Group("/api/forum", authMiddleware)
	forum.Get("/modules/:moduleId/posts", forumController.GetPosts)
	forum.Post("/modules/:moduleId/posts", forumController.CreatePost)

	// Gamification routes
	gamificationController := controllers.NewGamificationController(db, cfg, gamify, leaderboard)
	gamification := app.Group("/api/gamification", authMiddleware)
	gamification.Get("/leaderboard", gamificationController.GetLeaderboard)
	gamification.Get("/badges", gamificationController.GetBadgeDefinitions)
	gamification.Get("/me", gamificationController.GetMyGamification)

	// Adaptive-learning routes
	aiController := controllers.NewAIController(db, cfg, risk, adaptation, practice)
	ai := app.Group("/api/ai", authMiddleware)
	ai.Get("/risk", aiController.GetRisk)
	ai.Get("/next-step/:courseId", aiController.GetNextStep)
	ai.Get("/practice/:lessonId", aiController.GeneratePractice)

	// Analytics routes
	analyticsController := controllers.NewAnalyticsController(db, cfg, analytics)
	app.Get("/api/analytics/courses/:courseId/me", authMiddleware, analyticsController.GetMyCourseAnalytics)
	app.Get("/api/analytics/courses/:courseId/overview", staffOnly, analyticsController.GetCourseOverview)
}

package controllers

import (
	"strconv"

	"lms/config"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CourseController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCourseController(db *gorm.DB, cfg *config.Config) *CourseController {
	return &CourseController{DB: db, Cfg: cfg}
}

// GetCourses godoc
// @Summary List courses
// @Description Returns the course catalog
// @Tags courses
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /courses [get]
func (cc *CourseController) GetCourses(c *fiber.Ctx) error {
	var courses []models.Course
	if err := cc.DB.Order("id ASC").Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch courses")
	}

	out := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		var lessonCount int64
		cc.DB.Model(&models.Lesson{}).Where("course_id = ?", course.ID).Count(&lessonCount)
		out = append(out, fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
			"courseCode":  course.CourseCode,
			"lessons":     lessonCount,
		})
	}
	return utils.Success(c, fiber.StatusOK, out)
}

// GetCourseDetails godoc
// @Summary Get course with user progress
// @Description Returns the full course structure merged with the caller's progress
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [get]
func (cc *CourseController) GetCourseDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	err = cc.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Modules.Lessons.Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("CertificationCriteria").First(&course, courseID).Error
	if err != nil {
		return utils.NotFound(c, "Course not found")
	}

	var lessonStatuses []models.LessonStatus
	cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&lessonStatuses)
	statusByLesson := make(map[uint]models.LessonStatus, len(lessonStatuses))
	for _, s := range lessonStatuses {
		statusByLesson[s.LessonID] = s
	}

	var assignmentStatuses []models.AssignmentStatus
	cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&assignmentStatuses)
	submittedByModule := make(map[uint]bool, len(assignmentStatuses))
	for _, s := range assignmentStatuses {
		submittedByModule[s.ModuleID] = s.Submitted
	}

	certified := false
	var progress models.CourseProgress
	if err := cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error; err == nil {
		certified = progress.Certified
	}

	modules := make([]fiber.Map, 0, len(course.Modules))
	for _, module := range course.Modules {
		lessons := make([]fiber.Map, 0, len(module.Lessons))
		for _, lesson := range module.Lessons {
			entry := fiber.Map{
				"id":       lesson.ID,
				"title":    lesson.Title,
				"type":     lesson.Type,
				"position": lesson.Position,
			}
			switch lesson.Type {
			case models.LessonText:
				entry["content"] = lesson.Content
			case models.LessonVideo:
				entry["videoUrl"] = lesson.VideoURL
			case models.LessonExternalResource:
				entry["resourceUrl"] = lesson.ResourceURL
				entry["resourceDescription"] = lesson.ResourceDescription
			case models.LessonQuiz:
				// Correct answers stay server-side.
				questions := make([]fiber.Map, 0, len(lesson.Questions))
				for _, q := range lesson.Questions {
					questions = append(questions, fiber.Map{
						"q":       q.Prompt,
						"options": q.OptionList(),
					})
				}
				entry["questions"] = questions
			}
			if status, ok := statusByLesson[lesson.ID]; ok {
				entry["completed"] = status.Completed
				if status.SubmittedAt != nil {
					entry["score"] = status.Score
					entry["total"] = status.Total
					entry["scorePercent"] = status.ScorePercent
				}
			} else {
				entry["completed"] = false
			}
			lessons = append(lessons, entry)
		}

		moduleEntry := fiber.Map{
			"id":       module.ID,
			"title":    module.Title,
			"position": module.Position,
			"lessons":  lessons,
		}
		if module.HasAssignment {
			moduleEntry["assignment"] = fiber.Map{
				"description": module.AssignmentDescription,
				"submitted":   submittedByModule[module.ID],
			}
		}
		modules = append(modules, moduleEntry)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":              course.ID,
		"title":           course.Title,
		"description":     course.Description,
		"courseCode":      course.CourseCode,
		"modules":         modules,
		"userIsCertified": certified,
		"hasCriteria":     course.CertificationCriteria != nil,
	})
}

// CreateCourse creates an empty course owned by the calling instructor.
func (cc *CourseController) CreateCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		CourseCode  string `json:"courseCode"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title == "" {
		return utils.BadRequest(c, "title is required")
	}

	course := models.Course{
		Title:        input.Title,
		Description:  input.Description,
		CourseCode:   input.CourseCode,
		InstructorID: userID,
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}
	return utils.Created(c, fiber.Map{"id": course.ID})
}

// AddModule appends a module to a course.
func (cc *CourseController) AddModule(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	var input struct {
		Title                 string `json:"title"`
		Position              int    `json:"position"`
		HasAssignment         bool   `json:"hasAssignment"`
		AssignmentDescription string `json:"assignmentDescription"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title == "" {
		return utils.BadRequest(c, "title is required")
	}

	module := models.Module{
		CourseID:              course.ID,
		Title:                 input.Title,
		Position:              input.Position,
		HasAssignment:         input.HasAssignment,
		AssignmentDescription: input.AssignmentDescription,
	}
	if err := cc.DB.Create(&module).Error; err != nil {
		return utils.InternalServerError(c, "Could not create module")
	}
	return utils.Created(c, fiber.Map{"id": module.ID})
}

// AddLesson appends a lesson, with questions when it is a quiz.
func (cc *CourseController) AddLesson(c *fiber.Ctx) error {
	moduleID, err := strconv.ParseUint(c.Params("moduleId"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var module models.Module
	if err := cc.DB.First(&module, moduleID).Error; err != nil {
		return utils.NotFound(c, "Module not found")
	}

	var input struct {
		Title               string `json:"title"`
		Type                string `json:"type"`
		Position            int    `json:"position"`
		Content             string `json:"content"`
		VideoURL            string `json:"videoUrl"`
		ResourceURL         string `json:"resourceUrl"`
		ResourceDescription string `json:"resourceDescription"`
		Questions           []struct {
			Q       string   `json:"q"`
			Options []string `json:"options"`
			Correct int      `json:"correct"`
		} `json:"questions"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title == "" {
		return utils.BadRequest(c, "title is required")
	}
	switch input.Type {
	case models.LessonText, models.LessonVideo, models.LessonQuiz, models.LessonExternalResource:
	default:
		return utils.BadRequest(c, "invalid lesson type")
	}
	if input.Type == models.LessonQuiz && len(input.Questions) == 0 {
		return utils.BadRequest(c, "a quiz lesson needs at least one question")
	}

	lesson := models.Lesson{
		ModuleID:            module.ID,
		CourseID:            module.CourseID,
		Title:               input.Title,
		Type:                input.Type,
		Position:            input.Position,
		Content:             input.Content,
		VideoURL:            input.VideoURL,
		ResourceURL:         input.ResourceURL,
		ResourceDescription: input.ResourceDescription,
	}
	if err := cc.DB.Create(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not create lesson")
	}

	for i, q := range input.Questions {
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			return utils.BadRequest(c, "correct index out of range for question "+strconv.Itoa(i+1))
		}
		question := models.QuizQuestion{
			LessonID: lesson.ID,
			Prompt:   q.Q,
			Correct:  q.Correct,
			Position: i,
		}
		question.SetOptions(q.Options)
		if err := cc.DB.Create(&question).Error; err != nil {
			return utils.InternalServerError(c, "Could not create question")
		}
	}

	return utils.Created(c, fiber.Map{"id": lesson.ID})
}

// UpdateCriteria upserts the certification criteria for a course.
func (cc *CourseController) UpdateCriteria(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	var input struct {
		RequiredLessons     []uint           `json:"requiredLessons"`
		RequiredQuizzes     map[uint]float64 `json:"requiredQuizzes"`
		RequiredAssignments []uint           `json:"requiredAssignments"`
		CompletionBadgeID   string           `json:"completionBadgeId"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var criteria models.CertificationCriteria
	cc.DB.Where("course_id = ?", courseID).First(&criteria)
	criteria.CourseID = course.ID
	criteria.SetLessonIDs(input.RequiredLessons)
	criteria.SetQuizThresholds(input.RequiredQuizzes)
	criteria.SetAssignmentModuleIDs(input.RequiredAssignments)
	criteria.CompletionBadgeID = input.CompletionBadgeID

	if err := cc.DB.Save(&criteria).Error; err != nil {
		return utils.InternalServerError(c, "Could not save criteria")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"id": criteria.ID})
}

package seed

import (
	"log"

	"lms/models"
	"lms/services"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Run loads the demo catalog and users. Idempotent: if the CS101 course
// already exists nothing is written.
func Run(db *gorm.DB, logger *log.Logger) error {
	var existing int64
	if err := db.Model(&models.Course{}).Where("course_code = ?", "cs101").Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		logger.Println("seed: cs101 already present, skipping")
		return nil
	}

	logger.Println("seed: loading demo data")

	password, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	student := models.User{Username: "student1", Name: "Alice Student", Email: "alice@example.com", PasswordHash: string(password), Role: models.RoleLearner}
	instructor := models.User{Username: "instructor1", Name: "Bob Instructor", Email: "bob@example.com", PasswordHash: string(password), Role: models.RoleInstructor}
	admin := models.User{Username: "admin1", Name: "Charlie Admin", Email: "charlie@example.com", PasswordHash: string(password), Role: models.RoleAdmin}
	for _, u := range []*models.User{&student, &instructor, &admin} {
		if err := db.Create(u).Error; err != nil {
			return err
		}
	}

	cs101 := models.Course{
		Title:        "Introduction to Computer Science",
		Description:  "Learn the fundamentals of programming and computer science.",
		CourseCode:   "cs101",
		InstructorID: instructor.ID,
	}
	if err := db.Create(&cs101).Error; err != nil {
		return err
	}

	basics := models.Module{CourseID: cs101.ID, Title: "Module 1: Programming Basics", Position: 1}
	dataStructures := models.Module{
		CourseID:              cs101.ID,
		Title:                 "Module 2: Data Structures",
		Position:              2,
		HasAssignment:         true,
		AssignmentDescription: "Implement a simple linked list.",
	}
	for _, m := range []*models.Module{&basics, &dataStructures} {
		if err := db.Create(m).Error; err != nil {
			return err
		}
	}

	whatIsCode := models.Lesson{
		ModuleID: basics.ID, CourseID: cs101.ID, Position: 1,
		Title: "Lesson: What is Code?", Type: models.LessonText,
		Content: "Code is a set of instructions...",
	}
	firstProgram := models.Lesson{
		ModuleID: basics.ID, CourseID: cs101.ID, Position: 2,
		Title: "Lesson: Your First Program (Video)", Type: models.LessonVideo,
		VideoURL: "/videos/placeholder.mp4",
	}
	basicsQuiz := models.Lesson{
		ModuleID: basics.ID, CourseID: cs101.ID, Position: 3,
		Title: "Quiz: Programming Basics", Type: models.LessonQuiz,
	}
	linkedLists := models.Lesson{
		ModuleID: dataStructures.ID, CourseID: cs101.ID, Position: 1,
		Title: "Lesson: Introduction to Linked Lists", Type: models.LessonText,
		Content: "A linked list is a linear data structure...",
	}
	for _, l := range []*models.Lesson{&whatIsCode, &firstProgram, &basicsQuiz, &linkedLists} {
		if err := db.Create(l).Error; err != nil {
			return err
		}
	}

	questions := []struct {
		prompt  string
		options []string
		correct int
	}{
		{`What does "compile" mean?`, []string{"Run", "Translate to machine code", "Debug"}, 1},
		{"Which is a basic data type?", []string{"Integer", "Function", "Loop"}, 0},
	}
	for i, q := range questions {
		question := models.QuizQuestion{LessonID: basicsQuiz.ID, Prompt: q.prompt, Correct: q.correct, Position: i}
		question.SetOptions(q.options)
		if err := db.Create(&question).Error; err != nil {
			return err
		}
	}

	criteria := models.CertificationCriteria{
		CourseID:          cs101.ID,
		CompletionBadgeID: services.BadgeCourseCS101,
	}
	criteria.SetLessonIDs([]uint{whatIsCode.ID, firstProgram.ID, basicsQuiz.ID, linkedLists.ID})
	criteria.SetQuizThresholds(map[uint]float64{basicsQuiz.ID: 50})
	criteria.SetAssignmentModuleIDs([]uint{dataStructures.ID})
	if err := db.Create(&criteria).Error; err != nil {
		return err
	}

	math101 := models.Course{
		Title:        "Calculus I",
		Description:  "Differential calculus concepts.",
		CourseCode:   "math101",
		InstructorID: instructor.ID,
	}
	if err := db.Create(&math101).Error; err != nil {
		return err
	}
	limits := models.Module{CourseID: math101.ID, Title: "Module 1: Limits", Position: 1}
	if err := db.Create(&limits).Error; err != nil {
		return err
	}
	if err := db.Create(&models.Lesson{
		ModuleID: limits.ID, CourseID: math101.ID, Position: 1,
		Title: "Lesson: Understanding Limits", Type: models.LessonText,
		Content: "The limit of a function...",
	}).Error; err != nil {
		return err
	}

	logger.Println("seed: demo data loaded")
	return nil
}

package services

import (
	"errors"
	"log"

	"lms/models"

	"gorm.io/gorm"
)

// QuizScore is one attempted quiz inside a user's course projection.
type QuizScore struct {
	LessonID     uint    `json:"lessonId"`
	LessonTitle  string  `json:"lessonTitle"`
	Score        int     `json:"score"`
	Total        int     `json:"total"`
	ScorePercent float64 `json:"scorePercent"`
}

// UserCourseAnalytics is the per-(user, course) read-only projection.
type UserCourseAnalytics struct {
	CourseID         uint        `json:"courseId"`
	CourseTitle      string      `json:"courseTitle"`
	LessonsCompleted int         `json:"lessonsCompleted"`
	TotalLessons     int         `json:"totalLessons"`
	CompletionRate   float64     `json:"completionRate"`
	QuizScores       []QuizScore `json:"quizScores"`
	AverageQuizScore float64     `json:"averageQuizScore"`
	Certified        bool        `json:"certified"`
	HasCriteria      bool        `json:"hasCertificationCriteria"`
	Points           int         `json:"points"`
	Badges           []string    `json:"badges"`
}

// CourseOverview aggregates every user's progress for one course.
type CourseOverview struct {
	CourseID          uint    `json:"courseId"`
	CourseTitle       string  `json:"courseTitle"`
	Enrolled          int64   `json:"enrolled"`
	CertifiedCount    int64   `json:"certifiedCount"`
	AvgCompletionRate float64 `json:"avgCompletionRate"`
	AvgQuizScore      float64 `json:"avgQuizScore"`
}

// Analytics builds read-only projections over the progress and ledger data.
// It sits entirely outside the mutation path.
type Analytics struct {
	DB  *gorm.DB
	Log *log.Logger
}

func NewAnalytics(db *gorm.DB, logger *log.Logger) *Analytics {
	return &Analytics{DB: db, Log: logger}
}

func (s *Analytics) UserCourse(userID, courseID uint) (*UserCourseAnalytics, error) {
	var course models.Course
	if err := s.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundErr("course", courseID)
		}
		return nil, err
	}

	var totalLessons int64
	if err := s.DB.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&totalLessons).Error; err != nil {
		return nil, err
	}

	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundErr("user", userID)
		}
		return nil, err
	}

	var badges []string
	if err := s.DB.Model(&models.UserBadge{}).Where("user_id = ?", userID).Pluck("badge_id", &badges).Error; err != nil {
		return nil, err
	}

	var criteriaCount int64
	if err := s.DB.Model(&models.CertificationCriteria{}).Where("course_id = ?", courseID).Count(&criteriaCount).Error; err != nil {
		return nil, err
	}

	data := &UserCourseAnalytics{
		CourseID:     courseID,
		CourseTitle:  course.Title,
		TotalLessons: int(totalLessons),
		HasCriteria:  criteriaCount > 0,
		Points:       user.Points,
		Badges:       badges,
	}

	var progress models.CourseProgress
	if err := s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error; err == nil {
		data.Certified = progress.Certified
	}

	var statuses []models.LessonStatus
	if err := s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&statuses).Error; err != nil {
		return nil, err
	}

	titles, err := s.lessonTitles(courseID)
	if err != nil {
		return nil, err
	}

	var percentSum float64
	attempts := 0
	for _, status := range statuses {
		if status.Completed {
			data.LessonsCompleted++
		}
		if status.SubmittedAt != nil {
			attempts++
			percentSum += status.ScorePercent
			data.QuizScores = append(data.QuizScores, QuizScore{
				LessonID:     status.LessonID,
				LessonTitle:  titles[status.LessonID],
				Score:        status.Score,
				Total:        status.Total,
				ScorePercent: status.ScorePercent,
			})
		}
	}

	if totalLessons > 0 {
		data.CompletionRate = round1(float64(data.LessonsCompleted) / float64(totalLessons) * 100)
	}
	if attempts > 0 {
		data.AverageQuizScore = round1(percentSum / float64(attempts))
	}

	return data, nil
}

// Overview reduces every enrolled user's progress for a course into the
// instructor-facing aggregate.
func (s *Analytics) Overview(courseID uint) (*CourseOverview, error) {
	var course models.Course
	if err := s.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFoundErr("course", courseID)
		}
		return nil, err
	}

	overview := &CourseOverview{CourseID: courseID, CourseTitle: course.Title}

	if err := s.DB.Model(&models.CourseProgress{}).Where("course_id = ?", courseID).Count(&overview.Enrolled).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.CourseProgress{}).Where("course_id = ? AND certified = ?", courseID, true).Count(&overview.CertifiedCount).Error; err != nil {
		return nil, err
	}

	var totalLessons int64
	if err := s.DB.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&totalLessons).Error; err != nil {
		return nil, err
	}

	if overview.Enrolled > 0 && totalLessons > 0 {
		var completedStatuses int64
		err := s.DB.Model(&models.LessonStatus{}).
			Where("course_id = ? AND completed = ?", courseID, true).
			Count(&completedStatuses).Error
		if err != nil {
			return nil, err
		}
		overview.AvgCompletionRate = round1(float64(completedStatuses) / float64(overview.Enrolled) / float64(totalLessons) * 100)
	}

	var attempts []models.LessonStatus
	if err := s.DB.Where("course_id = ? AND submitted_at IS NOT NULL", courseID).Find(&attempts).Error; err != nil {
		return nil, err
	}
	if len(attempts) > 0 {
		var sum float64
		for _, a := range attempts {
			sum += a.ScorePercent
		}
		overview.AvgQuizScore = round1(sum / float64(len(attempts)))
	}

	return overview, nil
}

func (s *Analytics) lessonTitles(courseID uint) (map[uint]string, error) {
	var lessons []models.Lesson
	if err := s.DB.Select("id", "title").Where("course_id = ?", courseID).Find(&lessons).Error; err != nil {
		return nil, err
	}
	titles := make(map[uint]string, len(lessons))
	for _, l := range lessons {
		titles[l.ID] = l.Title
	}
	return titles, nil
}

package services

import (
	"log"
	"time"

	"lms/models"

	"gorm.io/gorm"
)

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// RiskAssessment is the heuristic disengagement classification for a learner.
type RiskAssessment struct {
	RiskLevel string   `json:"riskLevel"`
	RiskScore int      `json:"riskScore"`
	Factors   []string `json:"factors"`
}

// Risk computes a coarse risk label from a user's progress records. It is a
// pure read: no state is mutated.
type Risk struct {
	DB  *gorm.DB
	Log *log.Logger
}

func NewRisk(db *gorm.DB, logger *log.Logger) *Risk {
	return &Risk{DB: db, Log: logger}
}

const quizStrugglePercent = 60.0

// Assess accumulates weighted risk factors and maps the total to a label.
// A user with no progress records at all is Low risk with a single
// explanatory factor: absence of data is not risk.
func (r *Risk) Assess(userID uint) (*RiskAssessment, error) {
	var progressRecords []models.CourseProgress
	if err := r.DB.Where("user_id = ?", userID).Find(&progressRecords).Error; err != nil {
		return nil, err
	}

	if len(progressRecords) == 0 {
		return &RiskAssessment{RiskLevel: RiskLow, Factors: []string{"No courses started."}}, nil
	}

	score := 0
	var factors []string

	weekAgo := time.Now().AddDate(0, 0, -7)
	hasRecentActivity := false
	courseIDs := make([]uint, 0, len(progressRecords))
	for _, p := range progressRecords {
		courseIDs = append(courseIDs, p.CourseID)
		if p.LastAccessed.After(weekAgo) {
			hasRecentActivity = true
		}
	}
	if !hasRecentActivity {
		score += 3
		factors = append(factors, "Low recent activity (>1 week).")
	}

	var statuses []models.LessonStatus
	if err := r.DB.Where("user_id = ?", userID).Find(&statuses).Error; err != nil {
		return nil, err
	}

	quizAttempts := 0
	quizzesBelowThreshold := 0
	lessonsCompleted := 0
	for _, s := range statuses {
		if s.Completed {
			lessonsCompleted++
		}
		if s.SubmittedAt != nil {
			quizAttempts++
			if s.ScorePercent < quizStrugglePercent {
				quizzesBelowThreshold++
			}
		}
	}

	if quizAttempts > 2 && float64(quizzesBelowThreshold)/float64(quizAttempts) >= 0.5 {
		score += 5
		factors = append(factors, "High percentage (>50%) of quizzes scored below 60%.")
	} else if quizzesBelowThreshold > 0 {
		score += 2
		factors = append(factors, "One or more quizzes scored below 60%.")
	}

	var totalLessons int64
	if err := r.DB.Model(&models.Lesson{}).Where("course_id IN ?", courseIDs).Count(&totalLessons).Error; err != nil {
		return nil, err
	}
	if totalLessons > 3 && hasRecentActivity {
		completion := float64(lessonsCompleted) / float64(totalLessons) * 100
		if completion < 20 {
			score += 2
			factors = append(factors, "Low overall completion (<20%) despite activity.")
		}
	}

	var user models.User
	if err := r.DB.First(&user, userID).Error; err == nil {
		if user.Points < 10 && lessonsCompleted > 2 {
			score += 1
			factors = append(factors, "Low points earned relative to activity.")
		}
	}

	level := RiskLow
	if score >= 6 {
		level = RiskHigh
	} else if score >= 3 {
		level = RiskMedium
	}

	r.Log.Printf("risk calculated for user %d: level=%s score=%d", userID, level, score)

	return &RiskAssessment{RiskLevel: level, RiskScore: score, Factors: factors}, nil
}

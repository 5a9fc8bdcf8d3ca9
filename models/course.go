package models

import (
	"encoding/json"
	"strconv"

	"gorm.io/gorm"
)

const (
	LessonText             = "text"
	LessonVideo            = "video"
	LessonQuiz             = "quiz"
	LessonExternalResource = "external_resource"
)

type Course struct {
	gorm.Model
	Title        string `gorm:"not null"`
	Description  string
	CourseCode   string `gorm:"uniqueIndex;default:null"` // e.g. 'cs101', optional
	InstructorID uint
	Modules      []Module `gorm:"constraint:OnDelete:CASCADE"`
	// Optional: a course without criteria has no certification concept.
	CertificationCriteria *CertificationCriteria
}

type Module struct {
	gorm.Model
	CourseID              uint `gorm:"index"`
	Title                 string
	Position              int
	HasAssignment         bool
	AssignmentDescription string
	Lessons               []Lesson `gorm:"constraint:OnDelete:CASCADE"`
}

type Lesson struct {
	gorm.Model
	ModuleID uint `gorm:"index"`
	CourseID uint `gorm:"index"`
	Title    string
	Position int
	Type     string // text, video, quiz, external_resource
	Content  string // text lessons
	VideoURL string
	// External resources
	ResourceURL         string
	ResourceDescription string
	Questions           []QuizQuestion `gorm:"constraint:OnDelete:CASCADE"`
}

type QuizQuestion struct {
	gorm.Model
	LessonID uint   `gorm:"index"`
	Prompt   string `gorm:"not null"`
	Options  string // JSON array of option strings
	Correct  int    // index into Options
	Position int
}

// SetOptions encodes the option strings into the JSON column.
func (q *QuizQuestion) SetOptions(options []string) {
	data, _ := json.Marshal(options)
	q.Options = string(data)
}

// OptionList decodes the JSON options column.
func (q *QuizQuestion) OptionList() []string {
	var options []string
	json.Unmarshal([]byte(q.Options), &options)
	return options
}

// CertificationCriteria declares what a learner must do to be certified for a
// course. The requirement sets are stored as JSON text columns keyed by
// lesson/module IDs; typed accessors decode them so callers never touch the
// raw strings.
type CertificationCriteria struct {
	gorm.Model
	CourseID            uint   `gorm:"uniqueIndex"`
	RequiredLessons     string // JSON array of lesson IDs
	RequiredQuizzes     string // JSON object: lesson ID -> minimum score percent (whole number)
	RequiredAssignments string // JSON array of module IDs
	// Badge granted alongside the certification bonus, if any.
	CompletionBadgeID string
}

func (cc *CertificationCriteria) LessonIDs() []uint {
	var ids []uint
	json.Unmarshal([]byte(cc.RequiredLessons), &ids)
	return ids
}

// QuizThresholds returns lesson ID -> minimum scorePercent. Thresholds are
// whole-number percentages compared directly against the stored scorePercent.
func (cc *CertificationCriteria) QuizThresholds() map[uint]float64 {
	raw := map[string]float64{}
	json.Unmarshal([]byte(cc.RequiredQuizzes), &raw)
	out := make(map[uint]float64, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		out[uint(id)] = v
	}
	return out
}

func (cc *CertificationCriteria) AssignmentModuleIDs() []uint {
	var ids []uint
	json.Unmarshal([]byte(cc.RequiredAssignments), &ids)
	return ids
}

// SetLessonIDs, SetQuizThresholds and SetAssignmentModuleIDs encode the typed
// requirement sets back into the JSON columns.
func (cc *CertificationCriteria) SetLessonIDs(ids []uint) {
	data, _ := json.Marshal(ids)
	cc.RequiredLessons = string(data)
}

func (cc *CertificationCriteria) SetQuizThresholds(thresholds map[uint]float64) {
	raw := make(map[string]float64, len(thresholds))
	for id, min := range thresholds {
		raw[strconv.FormatUint(uint64(id), 10)] = min
	}
	data, _ := json.Marshal(raw)
	cc.RequiredQuizzes = string(data)
}

func (cc *CertificationCriteria) SetAssignmentModuleIDs(ids []uint) {
	data, _ := json.Marshal(ids)
	cc.RequiredAssignments = string(data)
}

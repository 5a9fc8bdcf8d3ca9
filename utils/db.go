package utils

import (
	"fmt"

	"lms/config"
	"lms/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB открывает соединение с Postgres и выполняет миграции
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate applies the schema for every model. Also used by tests against
// an in-memory sqlite database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserBadge{},
		&models.LoginHistory{},
		&models.Course{},
		&models.Module{},
		&models.Lesson{},
		&models.QuizQuestion{},
		&models.CertificationCriteria{},
		&models.CourseProgress{},
		&models.LessonStatus{},
		&models.AssignmentStatus{},
		&models.AssignmentSubmission{},
		&models.ForumPost{},
	)
}

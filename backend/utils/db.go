package utils

import (
	"fmt"

	"certtrack/backend/config"
	"certtrack/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.LoginHistory{},
		&models.Course{},
		&models.Section{},
		&models.Subsection{},
		&models.ProgressRecord{},
		&models.CertificationWorkflow{},
		&models.ExamQuestion{},
		&models.ExamAttempt{},
		&models.Certificate{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

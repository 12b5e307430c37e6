package database

import (
	"fmt"
	"log"

	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.Parent{},
		&model.Child{},
		&model.Question{},
		&model.Attempt{},
		&model.Subtopic{},
		&model.PacingPreset{},
		&model.QuizSession{},
		&model.QuizSessionQuestion{},
	)
	if err != nil {
		return nil, err
	}

	if err := seedSubtopics(db); err != nil {
		return nil, err
	}
	if err := seedPacingPresets(db); err != nil {
		return nil, err
	}

	return db, nil
}

// seedSubtopics installs the built-in curriculum sequence on first boot.
func seedSubtopics(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Subtopic{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []model.Subtopic{
		{Subject: "math", Grade: 3, Topic: "multiplication", Name: "single-digit products", SequenceOrder: 1},
		{Subject: "math", Grade: 3, Topic: "multiplication", Name: "multiples of ten", SequenceOrder: 2},
		{Subject: "math", Grade: 3, Topic: "multiplication", Name: "two-digit by one-digit", SequenceOrder: 3},
		{Subject: "math", Grade: 3, Topic: "fractions", Name: "unit fractions", SequenceOrder: 1},
		{Subject: "math", Grade: 3, Topic: "fractions", Name: "equivalent fractions", SequenceOrder: 2},
		{Subject: "math", Grade: 3, Topic: "fractions", Name: "comparing fractions", SequenceOrder: 3},
		{Subject: "math", Grade: 4, Topic: "division", Name: "basic facts", SequenceOrder: 1},
		{Subject: "math", Grade: 4, Topic: "division", Name: "long division", SequenceOrder: 2},
		{Subject: "math", Grade: 4, Topic: "division", Name: "remainders", SequenceOrder: 3},
		{Subject: "reading", Grade: 3, Topic: "comprehension", Name: "main idea", SequenceOrder: 1},
		{Subject: "reading", Grade: 3, Topic: "comprehension", Name: "supporting details", SequenceOrder: 2},
		{Subject: "reading", Grade: 3, Topic: "comprehension", Name: "inference", SequenceOrder: 3},
	}
	return db.Create(&seed).Error
}

// seedPacingPresets installs the built-in grade/month pacing calendar on
// first boot. Month-less entries apply year-round.
func seedPacingPresets(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.PacingPreset{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	month := func(m int) *int { return &m }
	seed := []model.PacingPreset{
		{Subject: "math", Grade: 3, Month: month(9), Topics: model.StringList{"multiplication"}, SequenceOrder: 1},
		{Subject: "math", Grade: 3, Month: month(10), Topics: model.StringList{"multiplication"}, SequenceOrder: 2},
		{Subject: "math", Grade: 3, Month: month(1), Topics: model.StringList{"fractions"}, SequenceOrder: 3},
		{Subject: "math", Grade: 3, Month: month(2), Topics: model.StringList{"fractions"}, SequenceOrder: 4},
		{Subject: "math", Grade: 3, Topics: model.StringList{"multiplication", "fractions"}, SequenceOrder: 5},
		{Subject: "math", Grade: 4, Month: month(9), Topics: model.StringList{"division"}, SequenceOrder: 1},
		{Subject: "math", Grade: 4, Topics: model.StringList{"division"}, SequenceOrder: 2},
		{Subject: "reading", Grade: 3, Topics: model.StringList{"comprehension"}, SequenceOrder: 1},
	}
	return db.Create(&seed).Error
}

package repository

import (
	"studybuddy_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.Attempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) ListByChild(childID string) ([]model.Attempt, error) {
	var as []model.Attempt
	err := r.DB.Where("child_id = ?", childID).Order("created_at asc").Find(&as).Error
	return as, err
}

// ListSeenHashes returns the hashes of every question the child has answered
// correctly at least once.
func (r *AttemptRepository) ListSeenHashes(childID string) ([]string, error) {
	var hashes []string
	err := r.DB.Model(&model.Attempt{}).
		Distinct("questions.hash").
		Joins("JOIN questions ON questions.id = attempts.question_id").
		Where("attempts.child_id = ? AND attempts.correct = ?", childID, true).
		Pluck("questions.hash", &hashes).Error
	return hashes, err
}

// AttemptWithSubject is one attempt row joined with its question's subject,
// used by the progress summary.
type AttemptWithSubject struct {
	model.Attempt
	Subject string `gorm:"column:subject"`
}

func (r *AttemptRepository) ListByChildWithSubject(childID string) ([]AttemptWithSubject, error) {
	var rows []AttemptWithSubject
	err := r.DB.Model(&model.Attempt{}).
		Select("attempts.*, questions.subject as subject").
		Joins("JOIN questions ON questions.id = attempts.question_id").
		Where("attempts.child_id = ?", childID).
		Order("attempts.created_at asc").
		Scan(&rows).Error
	return rows, err
}

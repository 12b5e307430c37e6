package repository

import (
	"studybuddy_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuestionFilter narrows a bank query. A nil Grade matches every grade;
// a non-nil Grade also matches rows whose own grade is NULL (grade-agnostic
// questions serve every grade).
type QuestionFilter struct {
	Subject       string
	Topic         string
	SubTopic      *string
	Grade         *int
	Difficulties  []model.Difficulty
	ExcludeHashes []string
}

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) scope(f QuestionFilter) *gorm.DB {
	query := r.DB.Model(&model.Question{}).Where("subject = ?", f.Subject)
	if f.Topic != "" {
		query = query.Where("topic = ?", f.Topic)
	}
	if f.SubTopic != nil {
		query = query.Where("sub_topic = ?", *f.SubTopic)
	}
	if f.Grade != nil {
		query = query.Where("grade IS NULL OR grade = ?", *f.Grade)
	}
	if len(f.Difficulties) > 0 {
		query = query.Where("difficulty IN ?", f.Difficulties)
	}
	if len(f.ExcludeHashes) > 0 {
		query = query.Where("hash NOT IN ?", f.ExcludeHashes)
	}
	return query
}

func (r *QuestionRepository) List(f QuestionFilter) ([]model.Question, error) {
	var qs []model.Question
	err := r.scope(f).Order("created_at asc").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) ListHashes(f QuestionFilter) ([]string, error) {
	var hashes []string
	err := r.scope(f).Pluck("hash", &hashes).Error
	return hashes, err
}

func (r *QuestionRepository) Count(f QuestionFilter) (int64, error) {
	var count int64
	err := r.scope(f).Count(&count).Error
	return count, err
}

func (r *QuestionRepository) FindByID(id string) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Upsert inserts questions idempotently by content hash. The unique index on
// hash plus ON CONFLICT DO NOTHING makes concurrent duplicate inserts
// converge to one row without a read-then-write race.
//
// On conflict the skipped in-memory row keeps a hook-assigned ID that no
// stored row carries. Callers that serve or reference IDs must re-read the
// canonical rows via FindByHashes after upserting.
func (r *QuestionRepository) Upsert(qs []model.Question) error {
	if len(qs) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		DoNothing: true,
	}).Create(&qs).Error
}

// FindByHashes returns the stored rows for the given content hashes.
func (r *QuestionRepository) FindByHashes(hashes []string) ([]model.Question, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	var qs []model.Question
	err := r.DB.Where("hash IN ?", hashes).Find(&qs).Error
	return qs, err
}

package repository

import (
	"studybuddy_backend/internal/model"

	"gorm.io/gorm"
)

type SubtopicRepository struct {
	DB *gorm.DB
}

func NewSubtopicRepository(db *gorm.DB) *SubtopicRepository {
	return &SubtopicRepository{DB: db}
}

func (r *SubtopicRepository) ListSubtopics(subject string, grade *int, topic string) ([]model.Subtopic, error) {
	var sts []model.Subtopic
	query := r.DB.Model(&model.Subtopic{}).Where("subject = ?", subject)
	if grade != nil {
		query = query.Where("grade = ?", *grade)
	}
	if topic != "" {
		query = query.Where("topic = ?", topic)
	}
	err := query.Order("sequence_order asc").Find(&sts).Error
	return sts, err
}

// ListTopics returns the distinct topics of the catalog for a subject/grade
// in curriculum order.
func (r *SubtopicRepository) ListTopics(subject string, grade *int) ([]string, error) {
	sts, err := r.ListSubtopics(subject, grade, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(sts))
	topics := make([]string, 0, len(sts))
	for _, st := range sts {
		if _, ok := seen[st.Topic]; ok {
			continue
		}
		seen[st.Topic] = struct{}{}
		topics = append(topics, st.Topic)
	}
	return topics, nil
}

func (r *SubtopicRepository) Insert(sts []model.Subtopic) error {
	if len(sts) == 0 {
		return nil
	}
	return r.DB.Create(&sts).Error
}

// ListPacingPresets returns the pacing entries for a subject/grade in
// curriculum order. Month filtering is the service's concern; a preset with
// a NULL month applies year-round.
func (r *SubtopicRepository) ListPacingPresets(subject string, grade int) ([]model.PacingPreset, error) {
	var presets []model.PacingPreset
	err := r.DB.Model(&model.PacingPreset{}).
		Where("subject = ? AND grade = ?", subject, grade).
		Order("sequence_order asc").
		Find(&presets).Error
	return presets, err
}

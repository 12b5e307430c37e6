package repository

import (
	"studybuddy_backend/internal/model"

	"gorm.io/gorm"
)

type ChildRepository struct {
	DB *gorm.DB
}

func NewChildRepository(db *gorm.DB) *ChildRepository {
	return &ChildRepository{DB: db}
}

func (r *ChildRepository) Create(child *model.Child) error {
	return r.DB.Create(child).Error
}

func (r *ChildRepository) FindByID(id string) (*model.Child, error) {
	var c model.Child
	err := r.DB.First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChildRepository) ListByParent(parentID string) ([]model.Child, error) {
	var cs []model.Child
	err := r.DB.Where("parent_id = ?", parentID).Order("created_at asc").Find(&cs).Error
	return cs, err
}

func (r *ChildRepository) Update(child *model.Child) error {
	return r.DB.Save(child).Error
}

// Delete removes the child and cascades to its attempts and quiz sessions.
func (r *ChildRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("child_id = ?", id).Delete(&model.Attempt{}).Error; err != nil {
			return err
		}
		var sessionIDs []string
		if err := tx.Model(&model.QuizSession{}).Where("child_id = ?", id).Pluck("id", &sessionIDs).Error; err != nil {
			return err
		}
		if len(sessionIDs) > 0 {
			if err := tx.Where("quiz_session_id IN ?", sessionIDs).Delete(&model.QuizSessionQuestion{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", sessionIDs).Delete(&model.QuizSession{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Child{}, "id = ?", id).Error
	})
}

func (r *ChildRepository) BelongsToParent(childID, parentID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Child{}).
		Where("id = ? AND parent_id = ?", childID, parentID).
		Count(&count).Error
	return count > 0, err
}

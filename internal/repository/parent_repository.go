package repository

import (
	"studybuddy_backend/internal/model"

	"gorm.io/gorm"
)

type ParentRepository struct {
	DB *gorm.DB
}

func NewParentRepository(db *gorm.DB) *ParentRepository {
	return &ParentRepository{DB: db}
}

func (r *ParentRepository) Create(parent *model.Parent) error {
	return r.DB.Create(parent).Error
}

func (r *ParentRepository) FindByEmail(email string) (*model.Parent, error) {
	var p model.Parent
	err := r.DB.Where("email = ?", email).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParentRepository) FindByID(id string) (*model.Parent, error) {
	var p model.Parent
	err := r.DB.First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

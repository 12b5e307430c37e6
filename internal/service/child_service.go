package service

import (
	"errors"
	"fmt"
	"time"

	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/repository"
	"studybuddy_backend/internal/util"

	"gorm.io/gorm"
)

type ChildRequest struct {
	Name      string `json:"name" binding:"required"`
	Birthdate string `json:"birthdate"`
	Grade     *int   `json:"grade"`
	Zip       string `json:"zip"`
}

type ChildService struct {
	Children *repository.ChildRepository
}

func NewChildService(children *repository.ChildRepository) *ChildService {
	return &ChildService{Children: children}
}

func (s *ChildService) validate(req ChildRequest) (*time.Time, error) {
	if req.Grade != nil && (*req.Grade < 0 || *req.Grade > 12) {
		return nil, fmt.Errorf("%w: grade must be between 0 and 12", util.ErrValidationFailed)
	}
	if req.Birthdate == "" {
		return nil, nil
	}
	birthdate, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		return nil, fmt.Errorf("%w: birthdate must be YYYY-MM-DD", util.ErrValidationFailed)
	}
	return &birthdate, nil
}

func (s *ChildService) Create(parentID string, req ChildRequest) (*model.Child, error) {
	birthdate, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	child := &model.Child{
		ParentID:  parentID,
		Name:      req.Name,
		Birthdate: birthdate,
		Grade:     req.Grade,
		Zip:       req.Zip,
	}
	if err := s.Children.Create(child); err != nil {
		return nil, err
	}
	return child, nil
}

func (s *ChildService) List(parentID string) ([]model.Child, error) {
	return s.Children.ListByParent(parentID)
}

// Get returns the child only when it belongs to the requesting parent.
func (s *ChildService) Get(parentID, childID string) (*model.Child, error) {
	child, err := s.Children.FindByID(childID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrChildNotFound
		}
		return nil, err
	}
	if child.ParentID != parentID {
		return nil, util.ErrChildMismatch
	}
	return child, nil
}

func (s *ChildService) Update(parentID, childID string, req ChildRequest) (*model.Child, error) {
	child, err := s.Get(parentID, childID)
	if err != nil {
		return nil, err
	}
	birthdate, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	child.Name = req.Name
	child.Birthdate = birthdate
	child.Grade = req.Grade
	child.Zip = req.Zip
	if err := s.Children.Update(child); err != nil {
		return nil, err
	}
	return child, nil
}

func (s *ChildService) Delete(parentID, childID string) error {
	if _, err := s.Get(parentID, childID); err != nil {
		return err
	}
	return s.Children.Delete(childID)
}

// Authorize checks ownership without loading the row.
func (s *ChildService) Authorize(parentID, childID string) error {
	ok, err := s.Children.BelongsToParent(childID, parentID)
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrChildMismatch
	}
	return nil
}

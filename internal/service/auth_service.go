package service

import (
	"errors"
	"strings"

	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/model"
	"studybuddy_backend/internal/repository"
	"studybuddy_backend/internal/util"
	"studybuddy_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token  string        `json:"token"`
	Parent *model.Parent `json:"parent"`
}

type AuthService struct {
	Parents *repository.ParentRepository
	JWTCfg  config.JWTConfig
}

func NewAuthService(parents *repository.ParentRepository, jwtCfg config.JWTConfig) *AuthService {
	return &AuthService{Parents: parents, JWTCfg: jwtCfg}
}

func (s *AuthService) Register(req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.Parents.FindByEmail(email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	parent := &model.Parent{
		Email:    email,
		Password: string(hashed),
		Name:     req.Name,
	}
	if err := s.Parents.Create(parent); err != nil {
		return nil, err
	}

	logger.Log.Info("registered parent", zap.String("parentId", parent.ID))
	return s.issueToken(parent)
}

func (s *AuthService) Login(req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	parent, err := s.Parents.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(parent.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	return s.issueToken(parent)
}

func (s *AuthService) issueToken(parent *model.Parent) (*AuthResponse, error) {
	token, err := util.GenerateJWT(parent, s.JWTCfg.Secret, s.JWTCfg.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Parent: parent}, nil
}

package service

import (
	"context"
	"course_studio_backend/internal/config"
	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/util"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required,min=6"`
	FullName string         `json:"full_name"`
	Role     model.UserRole `json:"role" binding:"omitempty,oneof=student teacher"`
}

type AuthService struct {
	ProfileRepo *repository.ProfileRepository
	Cfg         *config.Config
}

func NewAuthService(profileRepo *repository.ProfileRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		ProfileRepo: profileRepo,
		Cfg:         cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, in *RegisterInput) (*model.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	_, err := s.ProfileRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = model.Student
	}

	profile := &model.Profile{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         role,
		PasswordHash: string(hashedPassword),
	}
	if err := s.ProfileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.Profile, error) {
	profile, err := s.ProfileRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, util.ErrInvalidPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidPassword
	}

	token, err := util.GenerateJWT(profile, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, profile, nil
}

func (s *AuthService) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	profile, err := s.ProfileRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return profile, err
}

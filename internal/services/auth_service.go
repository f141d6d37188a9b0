package services

import (
	"errors"

	"gorm.io/gorm"

	"mmoboard_backend/internal/auth"
	"mmoboard_backend/internal/logger"
	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services/dto"
	"mmoboard_backend/pkg/apperrors"
)

type AuthService interface {
	Register(req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(req *dto.LoginRequest) (*dto.AuthResponse, error)
	GetProfile(userID string) (*models.User, error)
	UpdatePreferences(userID string, req *dto.UpdatePreferencesRequest) (*models.UserProfile, error)
}

type authService struct {
	db       Transactor
	userRepo repositories.UserRepository
}

func NewAuthService(db Transactor, userRepo repositories.UserRepository) AuthService {
	return &authService{db: db, userRepo: userRepo}
}

func (s *authService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, apperrors.UserAlreadyExists(req.Email)
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.InternalError(err)
	}
	if _, err := s.userRepo.FindByUsername(req.Username); err == nil {
		return nil, apperrors.UsernameTaken(req.Username)
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.InternalError(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.UserRoleUser,
		IsActive:     true,
	}

	// User and profile are one unit; a user without the preference row
	// would be invisible to the email dispatch checks.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)
		if err := repo.Create(user); err != nil {
			return err
		}
		return repo.CreateProfile(&models.UserProfile{
			UserID:                 user.ID,
			EmailNotifications:     true,
			NewsletterSubscription: true,
		})
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return &dto.AuthResponse{AccessToken: token, User: user}, nil
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.InvalidCredentials()
		}
		return nil, apperrors.InternalError(err)
	}

	if !user.IsActive || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AuthResponse{AccessToken: token, User: user}, nil
}

func (s *authService) GetProfile(userID string) (*models.User, error) {
	user, err := s.userRepo.FindByIDWithProfile(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.UserNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *authService) UpdatePreferences(userID string, req *dto.UpdatePreferencesRequest) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetProfile(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.UserNotFound()
		}
		return nil, apperrors.InternalError(err)
	}

	if req.EmailNotifications != nil {
		profile.EmailNotifications = *req.EmailNotifications
	}
	if req.NewsletterSubscription != nil {
		profile.NewsletterSubscription = *req.NewsletterSubscription
	}

	if err := s.userRepo.UpdateProfile(profile); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return profile, nil
}

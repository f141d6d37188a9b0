package repositories

import (
	"errors"

	"gorm.io/gorm"

	"mmoboard_backend/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository

	Create(user *models.User) error
	CreateProfile(profile *models.UserProfile) error
	FindByID(id string) (*models.User, error)
	FindByIDWithProfile(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByIDs(ids []string) ([]models.User, error)

	// FindActiveNewsletterSubscribers returns every active user whose
	// profile opted into the newsletter. Used by the broadcast fan-out.
	FindActiveNewsletterSubscribers() ([]models.User, error)

	GetProfile(userID string) (*models.UserProfile, error)
	UpdateProfile(profile *models.UserProfile) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) CreateProfile(profile *models.UserProfile) error {
	return r.db.Create(profile).Error
}

func (r *userRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDWithProfile(id string) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Profile").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Preload("Profile").Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepository) FindActiveNewsletterSubscribers() ([]models.User, error) {
	var users []models.User
	err := r.db.
		Joins("JOIN user_profiles ON user_profiles.user_id = users.id").
		Where("users.is_active = ? AND user_profiles.newsletter_subscription = ?", true, true).
		Preload("Profile").
		Find(&users).Error
	return users, err
}

func (r *userRepository) GetProfile(userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.First(&profile, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) UpdateProfile(profile *models.UserProfile) error {
	return r.db.Save(profile).Error
}

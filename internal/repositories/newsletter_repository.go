package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"mmoboard_backend/internal/models"
)

var ErrNewsletterNotFound = errors.New("newsletter not found")

type NewsletterRepository interface {
	WithTx(tx *gorm.DB) NewsletterRepository

	Create(newsletter *models.Newsletter) error
	FindByID(id string) (*models.Newsletter, error)
	FindAll(page, pageSize int) ([]models.Newsletter, int64, error)

	// ClaimForSending atomically flips is_sent/sent_at and reports
	// whether this call won the flip. A second concurrent trigger gets
	// false and must not enqueue fan-out.
	ClaimForSending(id string) (bool, error)
	// ReleaseClaim rolls a claim back when the fan-out was never
	// enqueued, so a later trigger can retry.
	ReleaseClaim(id string) error
}

type newsletterRepository struct {
	db *gorm.DB
}

func NewNewsletterRepository(db *gorm.DB) NewsletterRepository {
	return &newsletterRepository{db: db}
}

func (r *newsletterRepository) WithTx(tx *gorm.DB) NewsletterRepository {
	return &newsletterRepository{db: tx}
}

func (r *newsletterRepository) Create(newsletter *models.Newsletter) error {
	return r.db.Create(newsletter).Error
}

func (r *newsletterRepository) FindByID(id string) (*models.Newsletter, error) {
	var newsletter models.Newsletter
	err := r.db.Preload("Recipients").Preload("Recipients.Profile").
		First(&newsletter, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNewsletterNotFound
		}
		return nil, err
	}
	return &newsletter, nil
}

func (r *newsletterRepository) FindAll(page, pageSize int) ([]models.Newsletter, int64, error) {
	var newsletters []models.Newsletter

	var total int64
	if err := r.db.Model(&models.Newsletter{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&newsletters).Error

	return newsletters, total, err
}

func (r *newsletterRepository) ClaimForSending(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Newsletter{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrNewsletterNotFound
	}

	result := r.db.Model(&models.Newsletter{}).
		Where("id = ? AND is_sent = ?", id, false).
		Updates(map[string]interface{}{
			"is_sent": true,
			"sent_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *newsletterRepository) ReleaseClaim(id string) error {
	return r.db.Model(&models.Newsletter{}).
		Where("id = ? AND is_sent = ?", id, true).
		Updates(map[string]interface{}{
			"is_sent": false,
			"sent_at": nil,
		}).Error
}

package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mmoboard_backend/internal/models"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidNotificationData = errors.New("invalid notification data")
	ErrEmailTemplateNotFound   = errors.New("email template not found")
)

// NotificationCriteria filters a recipient's notification list.
// ReadStatus: "" (all), "read", or "unread".
type NotificationCriteria struct {
	Type       string `form:"type"`
	ReadStatus string `form:"read" binding:"omitempty,oneof=read unread"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// NotificationCounts backs the list header and the badge endpoint.
type NotificationCounts struct {
	Total  int64 `json:"total_count"`
	Unread int64 `json:"unread_count"`
	Read   int64 `json:"read_count"`
}

// Every read and mutation below that takes a recipientID is scoped to it in
// the WHERE clause. A notification belonging to someone else is
// indistinguishable from a missing one; both return ErrNotificationNotFound.
type NotificationRepository interface {
	WithTx(tx *gorm.DB) NotificationRepository

	Create(notification *models.Notification) error
	CreateBulk(notifications []*models.Notification) error

	// FindByID is not recipient-scoped. The mail worker re-fetches by ID at
	// execution time; everything user-facing goes through FindForRecipient.
	FindByID(id string) (*models.Notification, error)
	FindForRecipient(recipientID, id string) (*models.Notification, error)
	FindByRecipient(recipientID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	FindRecent(recipientID string, limit int) ([]models.Notification, error)
	Counts(recipientID string) (*NotificationCounts, error)
	UnreadCount(recipientID string) (int64, error)

	// MarkAsRead is idempotent: an already-read notification is left
	// untouched (read_at keeps its original value) and no error is
	// returned. Returns whether the row actually transitioned.
	MarkAsRead(recipientID, id string) (bool, error)
	// MarkAllAsRead returns the number of rows transitioned.
	MarkAllAsRead(recipientID string) (int64, error)
	Delete(recipientID, id string) error

	// MarkSent flips the dispatch flag after an email send.
	MarkSent(id string) error

	// HasNewsletterNotification reports whether recipientID already holds
	// a notification referencing newsletterID. Idempotency key for the
	// fan-out batch.
	HasNewsletterNotification(recipientID, newsletterID string) (bool, error)

	// Email template overrides
	CreateEmailTemplate(template *models.EmailTemplate) error
	FindEmailTemplateByName(name string) (*models.EmailTemplate, error)
	ListEmailTemplates() ([]models.EmailTemplate, error)
	UpdateEmailTemplate(template *models.EmailTemplate) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Create(notification *models.Notification) error {
	if err := validateNotification(notification); err != nil {
		return err
	}
	return r.db.Create(notification).Error
}

func (r *notificationRepository) CreateBulk(notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	for _, notification := range notifications {
		if err := validateNotification(notification); err != nil {
			return err
		}
	}
	return r.db.CreateInBatches(notifications, 100).Error
}

func (r *notificationRepository) FindByID(id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.Preload("Sender").First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) FindForRecipient(recipientID, id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.Preload("Sender").
		First(&notification, "id = ? AND recipient_id = ?", id, recipientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) FindByRecipient(recipientID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	query := r.db.Where("recipient_id = ?", recipientID)

	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}
	switch criteria.ReadStatus {
	case "unread":
		query = query.Where("is_read = ?", false)
	case "read":
		query = query.Where("is_read = ?", true)
	}

	var total int64
	if err := query.Model(&models.Notification{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *notificationRepository) FindRecent(recipientID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) Counts(recipientID string) (*NotificationCounts, error) {
	var counts NotificationCounts

	if err := r.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).
		Count(&counts.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&counts.Unread).Error; err != nil {
		return nil, err
	}
	counts.Read = counts.Total - counts.Unread

	return &counts, nil
}

func (r *notificationRepository) UnreadCount(recipientID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkAsRead(recipientID, id string) (bool, error) {
	notification, err := r.FindForRecipient(recipientID, id)
	if err != nil {
		return false, err
	}
	if notification.IsRead {
		return false, nil
	}

	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *notificationRepository) MarkAllAsRead(recipientID string) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) Delete(recipientID, id string) error {
	result := r.db.Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) MarkSent(id string) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_sent", true).Error
}

func (r *notificationRepository) HasNewsletterNotification(recipientID, newsletterID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ? AND subject_type = ? AND subject_id = ?",
			recipientID, models.NotificationTypeNewsletter, models.SubjectTypeNewsletter, newsletterID).
		Count(&count).Error
	return count > 0, err
}

// Email template overrides

func (r *notificationRepository) CreateEmailTemplate(template *models.EmailTemplate) error {
	return r.db.Create(template).Error
}

func (r *notificationRepository) FindEmailTemplateByName(name string) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	err := r.db.Where("name = ? AND is_active = ?", name, true).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmailTemplateNotFound
		}
		return nil, err
	}
	return &template, nil
}

func (r *notificationRepository) ListEmailTemplates() ([]models.EmailTemplate, error) {
	var templates []models.EmailTemplate
	err := r.db.Order("name").Find(&templates).Error
	return templates, err
}

func (r *notificationRepository) UpdateEmailTemplate(template *models.EmailTemplate) error {
	result := r.db.Model(template).Updates(map[string]interface{}{
		"subject":      template.Subject,
		"html_content": template.HTMLContent,
		"text_content": template.TextContent,
		"variables":    template.Variables,
		"is_active":    template.IsActive,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEmailTemplateNotFound
	}
	return nil
}

func validateNotification(notification *models.Notification) error {
	if notification.RecipientID == "" {
		return errors.New("recipient ID is required")
	}
	if notification.Title == "" {
		return errors.New("notification title is required")
	}
	if !models.ValidNotificationTypes[notification.Type] {
		return fmt.Errorf("invalid notification type: %s", notification.Type)
	}
	if len(notification.Data) > 0 && !json.Valid(notification.Data) {
		return ErrInvalidNotificationData
	}
	return nil
}

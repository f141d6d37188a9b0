package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mmoboard_backend/internal/logger"
	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services/dto"
	"mmoboard_backend/pkg/apperrors"
)

// NotifyInput is everything needed to materialize one notification.
type NotifyInput struct {
	RecipientID string
	SenderID    *string
	Type        models.NotificationType
	Title       string
	Message     string
	SubjectType *models.SubjectType
	SubjectID   *string
	Data        map[string]interface{}
}

type NotificationService interface {
	// Notify creates the notification, pushes it in-app and enqueues the
	// email leg when the recipient's preference allows.
	Notify(input NotifyInput) (*models.Notification, error)

	// CreateInTx writes the notification row inside the caller's
	// transaction. The caller is responsible for invoking Dispatch after
	// the transaction commits; a failure here aborts the whole unit of
	// work, so a committed domain event never lacks its notification.
	CreateInTx(tx *gorm.DB, input NotifyInput) (*models.Notification, error)

	// Dispatch runs the post-commit legs: websocket push, then the
	// preference-gated email enqueue.
	Dispatch(notification *models.Notification)

	// BulkNotify creates one notification per recipient, each with its
	// own email-dispatch attempt. Per-recipient failures are logged and
	// skipped; the created count is returned.
	BulkNotify(req *dto.SendBulkNotificationRequest) (int, error)

	List(userID string, criteria repositories.NotificationCriteria) (*dto.NotificationListResponse, error)
	// GetDetail fetches one notification and implicitly marks it read.
	GetDetail(userID, notificationID string) (*dto.NotificationResponse, error)
	Recent(userID string) (*dto.NotificationFeedResponse, error)
	UnreadCount(userID string) (int64, error)
	MarkAsRead(userID, notificationID string) error
	MarkAllAsRead(userID string) (int64, error)
	Delete(userID, notificationID string) error

	CreateEmailTemplate(req *dto.CreateEmailTemplateRequest) (*models.EmailTemplate, error)
	ListEmailTemplates() ([]models.EmailTemplate, error)
	UpdateEmailTemplate(templateID string, req *dto.UpdateEmailTemplateRequest) (*models.EmailTemplate, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	queue            MailQueue
	pusher           Pusher
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	queue MailQueue,
	pusher Pusher,
) NotificationService {
	if pusher == nil {
		pusher = NopPusher{}
	}
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		queue:            queue,
		pusher:           pusher,
	}
}

func buildNotification(input NotifyInput) (*models.Notification, error) {
	notification := &models.Notification{
		RecipientID: input.RecipientID,
		SenderID:    input.SenderID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		SubjectType: input.SubjectType,
		SubjectID:   input.SubjectID,
	}

	if input.Data != nil {
		jsonData, err := json.Marshal(input.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
		notification.Data = datatypes.JSON(jsonData)
	}

	return notification, nil
}

func (s *notificationService) Notify(input NotifyInput) (*models.Notification, error) {
	if _, err := s.userRepo.FindByID(input.RecipientID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.UserNotFound()
		}
		return nil, apperrors.InternalError(err)
	}

	notification, err := buildNotification(input)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.Dispatch(notification)
	return notification, nil
}

func (s *notificationService) CreateInTx(tx *gorm.DB, input NotifyInput) (*models.Notification, error) {
	notification, err := buildNotification(input)
	if err != nil {
		return nil, err
	}
	if err := s.notificationRepo.WithTx(tx).Create(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *notificationService) Dispatch(notification *models.Notification) {
	s.pusher.PushToUser(notification.RecipientID, buildNotificationResponse(notification))

	profile, err := s.userRepo.GetProfile(notification.RecipientID)
	if err != nil {
		logger.Warn("skipping email dispatch, recipient profile unavailable",
			"notification_id", notification.ID, "recipient_id", notification.RecipientID, "error", err.Error())
		return
	}
	if !profile.EmailNotifications {
		logger.Debug("email notifications disabled for recipient",
			"notification_id", notification.ID, "recipient_id", notification.RecipientID)
		return
	}

	if !s.queue.EnqueueNotification(notification.ID) {
		logger.Warn("mail queue rejected notification job",
			"notification_id", notification.ID, "recipient_id", notification.RecipientID)
	}
}

func (s *notificationService) BulkNotify(req *dto.SendBulkNotificationRequest) (int, error) {
	if !models.ValidNotificationTypes[req.Type] {
		return 0, apperrors.NewBadRequestError(fmt.Sprintf("invalid notification type: %s", req.Type))
	}

	users, err := s.userRepo.FindByIDs(req.UserIDs)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}

	created := 0
	for _, user := range users {
		notification, err := buildNotification(NotifyInput{
			RecipientID: user.ID,
			Type:        req.Type,
			Title:       req.Title,
			Message:     req.Message,
		})
		if err == nil {
			err = s.notificationRepo.Create(notification)
		}
		if err != nil {
			logger.Error("failed to create bulk notification",
				"recipient_id", user.ID, "error", err.Error())
			continue
		}

		s.Dispatch(notification)
		created++
	}

	return created, nil
}

func (s *notificationService) List(userID string, criteria repositories.NotificationCriteria) (*dto.NotificationListResponse, error) {
	criteria.Page, criteria.PageSize = normalizePage(criteria.Page, criteria.PageSize)

	notifications, total, err := s.notificationRepo.FindByRecipient(userID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	counts, err := s.notificationRepo.Counts(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, buildNotificationResponse(&notifications[i]))
	}

	return &dto.NotificationListResponse{
		Notifications: responses,
		TotalCount:    counts.Total,
		UnreadCount:   counts.Unread,
		ReadCount:     counts.Read,
		Total:         total,
		Page:          criteria.Page,
		PageSize:      criteria.PageSize,
		TotalPages:    calculateTotalPages(total, criteria.PageSize),
	}, nil
}

// GetDetail marks the notification read as a side effect of viewing it, so
// a detail fetch is not idempotent with respect to is_read.
func (s *notificationService) GetDetail(userID, notificationID string) (*dto.NotificationResponse, error) {
	notification, err := s.notificationRepo.FindForRecipient(userID, notificationID)
	if err != nil {
		return nil, mapNotificationError(err)
	}

	if !notification.IsRead {
		if _, err := s.notificationRepo.MarkAsRead(userID, notificationID); err != nil {
			return nil, mapNotificationError(err)
		}
		refreshed, err := s.notificationRepo.FindForRecipient(userID, notificationID)
		if err == nil {
			notification = refreshed
		}
	}

	return buildNotificationResponse(notification), nil
}

func (s *notificationService) Recent(userID string) (*dto.NotificationFeedResponse, error) {
	notifications, err := s.notificationRepo.FindRecent(userID, 10)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	unread, err := s.notificationRepo.UnreadCount(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, buildNotificationResponse(&notifications[i]))
	}

	return &dto.NotificationFeedResponse{
		Notifications: responses,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) UnreadCount(userID string) (int64, error) {
	count, err := s.notificationRepo.UnreadCount(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

func (s *notificationService) MarkAsRead(userID, notificationID string) error {
	if _, err := s.notificationRepo.MarkAsRead(userID, notificationID); err != nil {
		return mapNotificationError(err)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(userID string) (int64, error) {
	count, err := s.notificationRepo.MarkAllAsRead(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

func (s *notificationService) Delete(userID, notificationID string) error {
	if err := s.notificationRepo.Delete(userID, notificationID); err != nil {
		return mapNotificationError(err)
	}
	return nil
}

// --- email template overrides ---

func (s *notificationService) CreateEmailTemplate(req *dto.CreateEmailTemplateRequest) (*models.EmailTemplate, error) {
	if existing, err := s.notificationRepo.FindEmailTemplateByName(req.Name); err == nil && existing != nil {
		return nil, apperrors.EmailTemplateExists(req.Name)
	}

	template := &models.EmailTemplate{
		Name:        req.Name,
		Subject:     req.Subject,
		HTMLContent: req.HTMLContent,
		TextContent: req.TextContent,
		Variables:   dto.ToStringArray(req.Variables),
		IsActive:    true,
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := s.notificationRepo.CreateEmailTemplate(template); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return template, nil
}

func (s *notificationService) ListEmailTemplates() ([]models.EmailTemplate, error) {
	templates, err := s.notificationRepo.ListEmailTemplates()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return templates, nil
}

func (s *notificationService) UpdateEmailTemplate(templateID string, req *dto.UpdateEmailTemplateRequest) (*models.EmailTemplate, error) {
	templates, err := s.notificationRepo.ListEmailTemplates()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	var template *models.EmailTemplate
	for i := range templates {
		if templates[i].ID == templateID {
			template = &templates[i]
			break
		}
	}
	if template == nil {
		return nil, apperrors.EmailTemplateNotFound()
	}

	if req.Subject != nil {
		template.Subject = *req.Subject
	}
	if req.HTMLContent != nil {
		template.HTMLContent = *req.HTMLContent
	}
	if req.TextContent != nil {
		template.TextContent = *req.TextContent
	}
	if req.Variables != nil {
		template.Variables = dto.ToStringArray(req.Variables)
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := s.notificationRepo.UpdateEmailTemplate(template); err != nil {
		if errors.Is(err, repositories.ErrEmailTemplateNotFound) {
			return nil, apperrors.EmailTemplateNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	return template, nil
}

// --- helpers ---

func buildNotificationResponse(notification *models.Notification) *dto.NotificationResponse {
	response := &dto.NotificationResponse{
		ID:          notification.ID,
		RecipientID: notification.RecipientID,
		SenderID:    notification.SenderID,
		Type:        notification.Type,
		Title:       notification.Title,
		Message:     notification.Message,
		SubjectType: notification.SubjectType,
		SubjectID:   notification.SubjectID,
		IsRead:      notification.IsRead,
		ReadAt:      notification.ReadAt,
		IsSent:      notification.IsSent,
		CreatedAt:   notification.CreatedAt,
	}

	if len(notification.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(notification.Data, &data); err == nil {
			response.Data = data
		}
	}

	return response
}

func mapNotificationError(err error) error {
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return apperrors.NotificationNotFound()
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	return apperrors.InternalError(err)
}

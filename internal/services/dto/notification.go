package dto

import (
	"time"

	"mmoboard_backend/internal/models"

	"github.com/lib/pq"
)

type NotificationResponse struct {
	ID          string                  `json:"id"`
	RecipientID string                  `json:"recipient_id"`
	SenderID    *string                 `json:"sender_id,omitempty"`
	Type        models.NotificationType `json:"type"`
	Title       string                  `json:"title"`
	Message     string                  `json:"message"`
	SubjectType *models.SubjectType     `json:"subject_type,omitempty"`
	SubjectID   *string                 `json:"subject_id,omitempty"`
	Data        map[string]interface{}  `json:"data,omitempty"`
	IsRead      bool                    `json:"is_read"`
	ReadAt      *time.Time              `json:"read_at,omitempty"`
	IsSent      bool                    `json:"is_sent"`
	CreatedAt   time.Time               `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	TotalCount    int64                   `json:"total_count"`
	UnreadCount   int64                   `json:"unread_count"`
	ReadCount     int64                   `json:"read_count"`
	Total         int64                   `json:"total"`
	Page          int                     `json:"page"`
	PageSize      int                     `json:"page_size"`
	TotalPages    int                     `json:"total_pages"`
}

// NotificationFeedResponse backs the header dropdown.
type NotificationFeedResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int64                   `json:"unread_count"`
}

type UnreadCountResponse struct {
	Count     int64 `json:"count"`
	HasUnread bool  `json:"has_unread"`
}

type MarkAllReadResponse struct {
	MarkedCount int64 `json:"marked_count"`
	UnreadCount int64 `json:"unread_count"`
}

// SendBulkNotificationRequest is the admin broadcast to an explicit user
// list. One email-dispatch attempt per recipient, gated per recipient.
type SendBulkNotificationRequest struct {
	UserIDs []string                `json:"user_ids" binding:"required" validate:"required,min=1"`
	Type    models.NotificationType `json:"type" binding:"required" validate:"required"`
	Title   string                  `json:"title" binding:"required" validate:"required,max=200"`
	Message string                  `json:"message" binding:"required" validate:"required"`
}

type BulkNotificationResponse struct {
	CreatedCount int `json:"created_count"`
	TotalCount   int `json:"total_count"`
}

type CreateEmailTemplateRequest struct {
	Name        string   `json:"name" binding:"required" validate:"required,max=100"`
	Subject     string   `json:"subject" binding:"required" validate:"required,max=200"`
	HTMLContent string   `json:"html_content" binding:"required" validate:"required"`
	TextContent string   `json:"text_content"`
	Variables   []string `json:"variables"`
	IsActive    *bool    `json:"is_active"`
}

type UpdateEmailTemplateRequest struct {
	Subject     *string  `json:"subject"`
	HTMLContent *string  `json:"html_content"`
	TextContent *string  `json:"text_content"`
	Variables   []string `json:"variables"`
	IsActive    *bool    `json:"is_active"`
}

// ToStringArray adapts request variables for the pq-backed column.
func ToStringArray(v []string) pq.StringArray {
	return pq.StringArray(v)
}

package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationTypeNewResponse      NotificationType = "new_response"
	NotificationTypeResponseAccepted NotificationType = "response_accepted"
	NotificationTypeResponseRejected NotificationType = "response_rejected"
	NotificationTypeNewsletter       NotificationType = "newsletter"
	NotificationTypeSystem           NotificationType = "system"
)

// ValidNotificationTypes is the closed set accepted by the repository.
var ValidNotificationTypes = map[NotificationType]bool{
	NotificationTypeNewResponse:      true,
	NotificationTypeResponseAccepted: true,
	NotificationTypeResponseRejected: true,
	NotificationTypeNewsletter:       true,
	NotificationTypeSystem:           true,
}

// SubjectType tags the weak back-reference to the entity that caused a
// notification. The pair (SubjectType, SubjectID) is lookup-only and may
// dangle after the subject is deleted; the notification stays behind as an
// orphaned reference.
type SubjectType string

const (
	SubjectTypeResponse   SubjectType = "response"
	SubjectTypeNewsletter SubjectType = "newsletter"
)

type Notification struct {
	BaseModel
	RecipientID string           `gorm:"type:uuid;not null;index" json:"recipient_id"`
	SenderID    *string          `gorm:"type:uuid" json:"sender_id,omitempty"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title       string           `gorm:"size:200;not null" json:"title"`
	Message     string           `json:"message"`

	SubjectType *SubjectType `gorm:"type:varchar(20)" json:"subject_type,omitempty"`
	SubjectID   *string      `gorm:"type:uuid" json:"subject_id,omitempty"`

	// Contextual payload for clients (post title, usernames, ids).
	Data datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`

	IsRead bool       `gorm:"default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	// IsSent records that an email dispatch was executed for this
	// notification, not that delivery succeeded. It transitions
	// false -> true at most once; there is no re-send path.
	IsSent bool `gorm:"default:false" json:"is_sent"`

	Recipient *User `gorm:"foreignKey:RecipientID" json:"-"`
	Sender    *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// EmailTemplate is an operator-editable override for a built-in email
// body. Name matches a NotificationType; the dispatcher falls back to the
// compiled-in template when no active row exists.
type EmailTemplate struct {
	BaseModel
	Name        string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Subject     string         `gorm:"size:200;not null" json:"subject"`
	HTMLContent string         `gorm:"not null" json:"html_content"`
	TextContent string         `json:"text_content"`
	Variables   pq.StringArray `gorm:"type:text[]" json:"variables"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
}

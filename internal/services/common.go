package services

import (
	"database/sql"

	"gorm.io/gorm"
)

// Transactor is the slice of *gorm.DB the services need for multi-write
// units of work. Tests substitute a fake that just invokes the callback.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// MailQueue is the enqueue half of the email dispatch queue. Enqueue is
// non-blocking; false means the job was dropped (queue full or stopped) and
// the email leg is skipped. The in-app notification row is authoritative
// either way.
type MailQueue interface {
	EnqueueNotification(notificationID string) bool
	EnqueueNewsletter(newsletterID string) bool
}

// Pusher delivers an in-app event to a user's open websocket connections.
// A no-op implementation is valid.
type Pusher interface {
	PushToUser(userID string, event interface{})
}

// NopPusher is used when no websocket hub is wired (tests, CLI tools).
type NopPusher struct{}

func (NopPusher) PushToUser(string, interface{}) {}

// normalizePage clamps pagination params to sane values.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func calculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}

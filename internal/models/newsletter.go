package models

import "time"

// Newsletter is an operator broadcast. An empty Recipients set means
// "all active users with a newsletter subscription", not "nobody".
type Newsletter struct {
	BaseModel
	Title   string `gorm:"size:200;not null" json:"title"`
	Content string `gorm:"not null" json:"content"`

	// IsSent/SentAt flip together exactly once, when fan-out is
	// enqueued. They mean "dispatch initiated", not "delivered".
	IsSent bool       `gorm:"default:false" json:"is_sent"`
	SentAt *time.Time `json:"sent_at,omitempty"`

	Recipients []User `gorm:"many2many:newsletter_recipients" json:"recipients,omitempty"`
}

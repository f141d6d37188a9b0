package dto

import "mmoboard_backend/internal/models"

type CreateNewsletterRequest struct {
	Title   string `json:"title" binding:"required" validate:"required,max=200"`
	Content string `json:"content" binding:"required" validate:"required"`

	// Empty means "broadcast to all active subscribed users" at send time.
	RecipientIDs []string `json:"recipient_ids"`
}

type NewsletterListResponse struct {
	Newsletters []models.Newsletter `json:"newsletters"`
	Total       int64               `json:"total"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
}

// SendNewsletterResponse reports whether this call initiated the fan-out.
// Enqueued=false means the newsletter was already sent; the call was a
// no-op.
type SendNewsletterResponse struct {
	Enqueued bool   `json:"enqueued"`
	Message  string `json:"message"`
}

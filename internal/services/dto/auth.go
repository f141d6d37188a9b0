package dto

import "mmoboard_backend/internal/models"

type RegisterRequest struct {
	Username string `json:"username" binding:"required" validate:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// UpdatePreferencesRequest toggles the two delivery opt-ins. Nil fields
// are left unchanged.
type UpdatePreferencesRequest struct {
	EmailNotifications     *bool `json:"email_notifications"`
	NewsletterSubscription *bool `json:"newsletter_subscription"`
}

package apperrors

import "net/http"

// Domain error factories. Handlers compare against these with errors.Is /
// AsAppError, services return them directly.

// --- users ---

func UserNotFound() *AppError {
	return New(CodeNotFound, "user", "User not found", http.StatusNotFound)
}

func UserAlreadyExists(email string) *AppError {
	return New(CodeAlreadyExists, "user", "User with this email already exists", http.StatusConflict).
		WithDetails(map[string]string{"email": email})
}

func UsernameTaken(username string) *AppError {
	return New(CodeAlreadyExists, "user", "Username is already taken", http.StatusConflict).
		WithDetails(map[string]string{"username": username})
}

func InvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "user", "Invalid email or password", http.StatusUnauthorized)
}

// --- posts ---

func PostNotFound() *AppError {
	return New(CodeNotFound, "post", "Post not found", http.StatusNotFound)
}

func CategoryNotFound() *AppError {
	return New(CodeNotFound, "post", "Category not found", http.StatusNotFound)
}

// --- responses ---

func ResponseNotFound() *AppError {
	return New(CodeNotFound, "response", "Response not found", http.StatusNotFound)
}

// DuplicateResponse rejects a second response by the same user on one post.
func DuplicateResponse() *AppError {
	return New(CodeAlreadyExists, "response", "You have already responded to this post", http.StatusConflict)
}

// OwnPostResponse rejects an author responding to their own post.
func OwnPostResponse() *AppError {
	return New(CodeInvalidOperation, "response", "You cannot respond to your own post", http.StatusConflict)
}

// ResponseNotPending rejects accept/reject on a response that already left
// the pending state.
func ResponseNotPending() *AppError {
	return New(CodeInvalidStatus, "response", "Response has already been reviewed", http.StatusConflict)
}

// NotPostAuthor rejects a review attempt by anyone but the post's author.
func NotPostAuthor() *AppError {
	return New(CodeForbidden, "response", "Only the post author can review responses", http.StatusForbidden)
}

// --- notifications ---

// NotificationNotFound is also what a foreign user's notification surfaces
// as: the repository filters by recipient, so "not yours" and "does not
// exist" are indistinguishable on purpose.
func NotificationNotFound() *AppError {
	return New(CodeNotFound, "notification", "Notification not found", http.StatusNotFound)
}

func EmailTemplateNotFound() *AppError {
	return New(CodeNotFound, "notification", "Email template not found", http.StatusNotFound)
}

func EmailTemplateExists(name string) *AppError {
	return New(CodeAlreadyExists, "notification", "Email template already exists", http.StatusConflict).
		WithDetails(map[string]string{"name": name})
}

// --- newsletters ---

func NewsletterNotFound() *AppError {
	return New(CodeNotFound, "newsletter", "Newsletter not found", http.StatusNotFound)
}

package contextkeys

// ContextKey is the type used for values this application stores in a
// context or in gin's per-request key/value store.
type ContextKey string

const (
	// DBContextKey holds the request-scoped *gorm.DB (pool or transaction).
	DBContextKey ContextKey = "db"

	// UserIDContextKey holds the authenticated user's id.
	UserIDContextKey ContextKey = "userID"

	// RoleContextKey holds the authenticated user's role.
	RoleContextKey ContextKey = "role"

	// RequestIDContextKey holds the per-request correlation id.
	RequestIDContextKey ContextKey = "request_id"
)

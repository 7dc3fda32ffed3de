package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyIsAdmin       = "is_admin"
	KeyFromProtected = "from_protected"
	KeyRequestID     = "requestid"
)

package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyUserName  ctxKey = "user_name"
	CtxKeyIsAdmin   ctxKey = "is_admin"
	CtxKeySessionID ctxKey = "session_id"
)

// UserID returns the authenticated user id from the request context, or 0.
func UserID(ctx context.Context) int64 {
	if v, ok := ctx.Value(CtxKeyUserID).(int64); ok {
		return v
	}
	return 0
}

// UserName returns the authenticated user name, or "".
func UserName(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserName).(string); ok {
		return v
	}
	return ""
}

// IsAdmin reports whether the request carries an admin session.
func IsAdmin(ctx context.Context) bool {
	v, ok := ctx.Value(CtxKeyIsAdmin).(bool)
	return ok && v
}

// SessionID returns the session id bound to the request, or "".
func SessionID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySessionID).(string); ok {
		return v
	}
	return ""
}

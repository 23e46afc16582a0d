package userctx

import "context"

type keyType string

const (
	UserIDKey keyType = "user_id"
)

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserID extracts the authenticated user id from the context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

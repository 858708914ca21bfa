package usercontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID stores the authenticated user id on the context.
func WithUserID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(userIDKey).(snowflake.ID)
	return id, ok && id != 0
}

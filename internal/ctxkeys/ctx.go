package ctxkeys

import (
	"context"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	AccountEmailKey contextKey = "account_email"
	AccountIDKey    contextKey = "account_id"
)

// AccountEmail returns the authenticated account's email, or "" for anonymous requests
func AccountEmail(ctx context.Context) string {
	email, _ := ctx.Value(AccountEmailKey).(string)
	return email
}

func WithAccountEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, AccountEmailKey, email)
}

func AccountID(ctx context.Context) string {
	id, _ := ctx.Value(AccountIDKey).(string)
	return id
}

func WithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, AccountIDKey, id)
}

package tokens

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}
var tokenCtxKey = &contextKey{"token"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// WithTokenContext sets the raw access token in the given context
func WithTokenContext(r context.Context, token string) context.Context {
	return context.WithValue(r, tokenCtxKey, token)
}

// TokenFromContext finds the raw access token from the context.
func TokenFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(tokenCtxKey).(string)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// UserFromRouterContext extracts the resolved user from the router's
// standard context, where the gate middleware stores it.
func UserFromRouterContext(ctx router.Context) (*User, bool) {
	return FromContext(ctx.Context())
}

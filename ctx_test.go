package tokens_test

import (
	"context"
	"testing"

	tokens "github.com/goliatone/go-tokens"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	user := &tokens.User{ID: uuid.New(), Email: "ada@example.com"}

	ctx := tokens.WithContext(context.Background(), user)

	got, ok := tokens.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)

	_, ok = tokens.FromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContext(t *testing.T) {
	claims := &tokens.JWTClaims{UserRole: "admin"}

	ctx := tokens.WithClaimsContext(context.Background(), claims)

	got, ok := tokens.GetClaims(ctx)
	assert.True(t, ok)
	assert.Equal(t, "admin", got.Role())

	_, ok = tokens.GetClaims(context.Background())
	assert.False(t, ok)
}

func TestTokenContext(t *testing.T) {
	ctx := tokens.WithTokenContext(context.Background(), "raw-token")

	got, ok := tokens.TokenFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "raw-token", got)

	_, ok = tokens.TokenFromContext(context.Background())
	assert.False(t, ok)
}

func TestGetRouterClaims(t *testing.T) {
	claims := &tokens.JWTClaims{UserRole: "user"}

	t.Run("reads claims from locals", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = claims

		got, ok := tokens.GetRouterClaims(ctx, "")
		assert.True(t, ok)
		assert.Equal(t, claims, got)
	})

	t.Run("honors a custom key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["session"] = claims

		got, ok := tokens.GetRouterClaims(ctx, "session")
		assert.True(t, ok)
		assert.Equal(t, claims, got)
	})

	t.Run("missing claims", func(t *testing.T) {
		ctx := router.NewMockContext()

		_, ok := tokens.GetRouterClaims(ctx, "")
		assert.False(t, ok)
	})
}

func TestUserFromRouterContext(t *testing.T) {
	user := &tokens.User{ID: uuid.New()}

	ctx := router.NewMockContext()
	ctx.On("Context").Return(tokens.WithContext(context.Background(), user))

	got, ok := tokens.UserFromRouterContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)
}

package tokens

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// TokenService signs and validates credentials for a single token class.
// Access and refresh tokens each get their own instance with its own key.
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// Users is the store the token lifecycle depends on. Refresh credentials
// live in a per-user ordered collection; presence in the collection is the
// only proof of validity.
type Users interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByProviderID(ctx context.Context, providerUserID string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	List(ctx context.Context) ([]*User, error)

	RefreshTokens(ctx context.Context, userID string) ([]string, error)
	AppendRefreshToken(ctx context.Context, userID, token string) error
	// SwapRefreshToken replaces oldToken with newToken in place, as a single
	// conditional update. When oldToken is no longer present the store must
	// return a not-found error and leave the collection untouched.
	SwapRefreshToken(ctx context.Context, userID, oldToken, newToken string) error
	RemoveRefreshToken(ctx context.Context, userID, token string) error
	ClearRefreshTokens(ctx context.Context, userID string) error
}

// CredentialVerifier authenticates email/password credentials
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] TOKENS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] TOKENS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] TOKENS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

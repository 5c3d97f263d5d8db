package tokens

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
)

// RefreshRotator exchanges a live refresh credential for a fresh pair.
// Every refresh credential is single use: the swap below retires the old
// token in the same operation that records the new one.
type RefreshRotator struct {
	access  TokenService
	refresh TokenService
	users   Users
	logger  Logger
}

// NewRefreshRotator creates a new RefreshRotator
func NewRefreshRotator(access, refresh TokenService, users Users) *RefreshRotator {
	if access == nil || refresh == nil {
		panic("refresh rotator requires both token services")
	}
	if users == nil {
		panic("refresh rotator requires a user store")
	}
	return &RefreshRotator{
		access:  access,
		refresh: refresh,
		users:   users,
		logger:  defLogger{},
	}
}

// WithLogger sets the logger
func (rr *RefreshRotator) WithLogger(logger Logger) *RefreshRotator {
	if logger != nil {
		rr.logger = logger
	}
	return rr
}

// Rotate validates the presented refresh credential, retires it, and returns
// a replacement pair. Reuse of an already rotated token fails: the swap is a
// conditional update, so when two rotations race over the same token exactly
// one wins and the loser sees the token gone.
func (rr *RefreshRotator) Rotate(ctx context.Context, oldToken string) (*TokenPair, error) {
	if strings.TrimSpace(oldToken) == "" {
		return nil, ErrMissingCredential
	}

	claims, err := rr.refresh.Validate(oldToken)
	if err != nil {
		rr.logger.Debug("RefreshRotator rejected credential: %v", err)
		return nil, ErrInvalidCredential
	}

	userID := claims.Subject()

	user, err := rr.users.GetByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredential
		}
		return nil, errors.Wrap(err, ErrPersistence.Category, ErrPersistence.Message).
			WithTextCode(ErrPersistence.TextCode).
			WithCode(ErrPersistence.Code)
	}

	active, err := rr.users.RefreshTokens(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, ErrPersistence.Category, ErrPersistence.Message).
			WithTextCode(ErrPersistence.TextCode).
			WithCode(ErrPersistence.Code)
	}

	if !containsToken(active, oldToken) {
		return nil, ErrInvalidCredential
	}

	identity := NewIdentityFromUser(user)

	newAccess, err := rr.access.Generate(identity)
	if err != nil {
		return nil, err
	}

	newRefresh, err := rr.refresh.Generate(identity)
	if err != nil {
		return nil, err
	}

	// The swap is the authority on token liveness. The presence check above
	// is a fast path; a concurrent rotation can still win between the check
	// and this update, in which case zero rows match and we lose.
	if err := rr.users.SwapRefreshToken(ctx, userID, oldToken, newRefresh); err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredential
		}
		return nil, errors.Wrap(err, ErrPersistence.Category, ErrPersistence.Message).
			WithTextCode(ErrPersistence.TextCode).
			WithCode(ErrPersistence.Code)
	}

	return &TokenPair{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
	}, nil
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

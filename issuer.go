package tokens

import (
	"context"

	"github.com/goliatone/go-errors"
)

// TokenPair is an access/refresh credential pair issued for one session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialIssuer mints credential pairs and records the refresh half in
// the user's active collection. It also owns revocation, since revoking is
// just removing entries from that same collection.
type CredentialIssuer struct {
	access  TokenService
	refresh TokenService
	users   Users
	logger  Logger
}

// NewCredentialIssuer creates a new CredentialIssuer
func NewCredentialIssuer(access, refresh TokenService, users Users) *CredentialIssuer {
	if access == nil || refresh == nil {
		panic("credential issuer requires both token services")
	}
	if users == nil {
		panic("credential issuer requires a user store")
	}
	return &CredentialIssuer{
		access:  access,
		refresh: refresh,
		users:   users,
		logger:  defLogger{},
	}
}

// WithLogger sets the logger
func (ci *CredentialIssuer) WithLogger(logger Logger) *CredentialIssuer {
	if logger != nil {
		ci.logger = logger
	}
	return ci
}

// Issue signs a new pair for the user and appends the refresh credential to
// the active collection. If the store rejects the append no tokens are
// returned: an unpersisted refresh token would be unusable anyway.
func (ci *CredentialIssuer) Issue(ctx context.Context, user *User) (*TokenPair, error) {
	if user == nil {
		return nil, errors.New("user is required", errors.CategoryBadInput)
	}

	identity := NewIdentityFromUser(user)

	accessToken, err := ci.access.Generate(identity)
	if err != nil {
		return nil, err
	}

	refreshToken, err := ci.refresh.Generate(identity)
	if err != nil {
		return nil, err
	}

	if err := ci.users.AppendRefreshToken(ctx, user.ID.String(), refreshToken); err != nil {
		ci.logger.Error("CredentialIssuer failed to persist refresh token: %v", err)
		return nil, errors.Wrap(err, ErrPersistence.Category, ErrPersistence.Message).
			WithTextCode(ErrPersistence.TextCode).
			WithCode(ErrPersistence.Code)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Revoke removes a single refresh credential from the user's collection,
// ending that session. Removing a credential that is already gone is a no-op.
func (ci *CredentialIssuer) Revoke(ctx context.Context, userID, refreshToken string) error {
	if err := ci.users.RemoveRefreshToken(ctx, userID, refreshToken); err != nil {
		return errors.Wrap(err, ErrPersistence.Category, ErrPersistence.Message).
			WithTextCode(ErrPersistence.TextCode).
			WithCode(ErrPersistence.Code)
	}
	return nil
}

// RevokeAll clears the user's collection, ending every session at once.
func (ci *CredentialIssuer) RevokeAll(ctx context.Context, userID string) error {
	if err := ci.users.ClearRefreshTokens(ctx, userID); err != nil {
		return errors.Wrap(err, ErrPersistence.Category, ErrPersistence.Message).
			WithTextCode(ErrPersistence.TextCode).
			WithCode(ErrPersistence.Code)
	}
	return nil
}

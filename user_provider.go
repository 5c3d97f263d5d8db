package tokens

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserProvider verifies email/password credentials against the user store.
type UserProvider struct {
	store  Users
	logger Logger
}

// NewUserProvider creates a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	if store == nil {
		panic("user provider requires a user store")
	}
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

// WithLogger sets the logger
func (p *UserProvider) WithLogger(logger Logger) *UserProvider {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// VerifyCredentials looks up the user by email and compares the password
// against the stored hash. Unknown email and wrong password return the same
// error so responses cannot be used to enumerate accounts.
func (p *UserProvider) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := p.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			p.logger.Debug("UserProvider login attempt for unknown email")
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, ErrPersistence.Category, ErrPersistence.Message).
			WithTextCode(ErrPersistence.TextCode).
			WithCode(ErrPersistence.Code)
	}

	// Provider-only accounts have no password hash and cannot log in with one.
	if user.PasswordHash == "" {
		return nil, ErrMismatchedHashAndPassword
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return user, nil
}

// FindByID resolves a user by id, mapping store not-found to the identity
// taxonomy.
func (p *UserProvider) FindByID(ctx context.Context, id string) (*User, error) {
	user, err := p.store.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, ErrPersistence.Category, ErrPersistence.Message).
			WithTextCode(ErrPersistence.TextCode).
			WithCode(ErrPersistence.Code)
	}
	return user, nil
}

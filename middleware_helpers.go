package tokens

import (
	"context"
	"errors"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-tokens/middleware/jwtware"
)

// GateOption tweaks the gate configuration before it is built.
type GateOption func(*jwtware.Config)

// WithRequiredRole makes the gate itself enforce a role, on top of any
// RequireRole middleware stacked after it.
func WithRequiredRole(role UserRole) GateOption {
	return func(cfg *jwtware.Config) {
		cfg.RequiredRole = role
	}
}

// WithGateFilter skips the gate for matching requests.
func WithGateFilter(filter func(router.Context) bool) GateOption {
	return func(cfg *jwtware.Config) {
		cfg.Filter = filter
	}
}

// Protected builds the authorization gate. It extracts the access token per
// the configured lookup, validates it against the access signer, resolves
// the subject against the store, and attaches user, claims, and raw token to
// the request context. Every authentication failure collapses into a 401;
// callers learn nothing about which step rejected them. The one exception is
// a role mismatch from WithRequiredRole, which is a 403: the caller proved
// who they are, they just cannot do this.
func Protected(cfg Config, access TokenService, users Users, logger Logger, opts ...GateOption) router.MiddlewareFunc {
	if logger == nil {
		logger = defLogger{}
	}

	gateCfg := jwtware.Config{
		TokenValidator: validatorAdapter{svc: access},
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		UserResolver: func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
			return users.GetByID(ctx, claims.Subject())
		},
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims, user any, token string) context.Context {
			if authClaims, ok := claims.(AuthClaims); ok {
				c = WithClaimsContext(c, authClaims)
			}
			if u, ok := user.(*User); ok {
				c = WithContext(c, u)
			}
			return WithTokenContext(c, token)
		},
		ErrorHandler: func(c router.Context, err error) error {
			logger.Debug("authorization gate rejected request: %v", err)
			if errors.Is(err, jwtware.ErrInsufficientRole) {
				return WriteError(c, logger, ErrForbidden)
			}
			return WriteError(c, logger, ErrUnauthenticated)
		},
	}

	for _, opt := range opts {
		opt(&gateCfg)
	}

	return jwtware.New(gateCfg)
}

// RequireRole enforces a role on a route already behind the gate. Must run
// after Protected, which is what populates the request context.
func RequireRole(role UserRole, logger Logger) router.MiddlewareFunc {
	if logger == nil {
		logger = defLogger{}
	}
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, ok := UserFromRouterContext(ctx)
			if !ok {
				return WriteError(ctx, logger, ErrUnauthenticated)
			}
			if user.Role != role {
				return WriteError(ctx, logger, ErrForbidden)
			}
			return next(ctx)
		}
	}
}

// validatorAdapter narrows TokenService to the middleware's local interface.
type validatorAdapter struct {
	svc TokenService
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.svc.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

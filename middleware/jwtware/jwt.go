package jwtware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "header:" + router.HeaderAuthorization

	// ErrJWTMissingOrMalformed covers every extraction failure.
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
	// ErrInsufficientRole is returned when claims validate but the role
	// check fails. It is the only error the default handler maps to 403
	// instead of 401.
	ErrInsufficientRole = errors.New("insufficient role")
)

// TokenValidator interface for validating tokens without import cycles.
// This mirrors the TokenService.Validate method from the tokens package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims interface for structured claims without import cycles.
// This mirrors the AuthClaims interface from the tokens package.
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	HasRole(role string) bool
}

// UserResolver loads the account behind validated claims. Returning an error
// fails the request: a token for a deleted account must not pass the gate.
type UserResolver func(ctx context.Context, claims AuthClaims) (any, error)

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	ContextKey     string
	TokenContextKey string
	UserContextKey  string
	TokenLookup    string
	AuthScheme     string

	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// UserResolver, when set, resolves the subject after validation. The
	// resolved value is stored under UserContextKey.
	UserResolver UserResolver

	// RequiredRole specifies an exact role that must be present
	RequiredRole string

	// ContextEnricher propagates the validated identity to the standard Go
	// context. Called after validation, resolution, and role checks.
	ContextEnricher func(c context.Context, claims AuthClaims, user any, token string) context.Context
}

func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		if len(config) == 0 || config[0].SuccessHandler == nil {
			// Route-level composition: run the wrapped handler on success.
			cfg.SuccessHandler = hf
		}
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			var user any
			if cfg.UserResolver != nil {
				user, err = cfg.UserResolver(ctx.Context(), claims)
				if err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
			}

			if cfg.RequiredRole != "" && !claims.HasRole(cfg.RequiredRole) {
				return cfg.ErrorHandler(ctx, ErrInsufficientRole)
			}

			ctx.Locals(cfg.ContextKey, claims)
			ctx.Locals(cfg.TokenContextKey, raw)
			if user != nil {
				ctx.Locals(cfg.UserContextKey, user)
			}

			if cfg.ContextEnricher != nil {
				stdCtx := cfg.ContextEnricher(ctx.Context(), claims, user, raw)
				ctx.SetContext(stdCtx)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	if raw == "" {
		return "", ErrJWTMissingOrMalformed
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if errors.Is(err, ErrInsufficientRole) {
				return c.Status(router.StatusForbidden).SendString(ErrInsufficientRole.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.TokenValidator == nil {
		panic("TOKENS: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenContextKey == "" {
		cfg.TokenContextKey = "jwt_token"
	}

	if cfg.UserContextKey == "" {
		cfg.UserContextKey = "auth_user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:accessToken,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		//header:Authorization
		parts := strings.Split(strings.TrimSpace(rootPart), ":")

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

type JWTExtractor func(c router.Context) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		l := len(authScheme)
		if l == 0 {
			fmt.Println("[WARNING] Missing auth scheme in config definition")
			return "", ErrJWTMissingOrMalformed
		}
		authScheme = strings.TrimSpace(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

package tokens

import (
	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// Config holds token lifecycle options. Lifetimes are intentionally absent:
// AccessTokenTTL and RefreshTokenTTL are constants.
type Config interface {
	GetAccessSigningKey() string
	GetRefreshSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetAccessCookieName() string
	GetRefreshCookieName() string
	GetRefreshCookiePath() string
	IsProduction() bool
}

// EnvConfig loads configuration from the environment.
type EnvConfig struct {
	AccessSigningKey  string   `env:"TOKENS_ACCESS_SIGNING_KEY"`
	RefreshSigningKey string   `env:"TOKENS_REFRESH_SIGNING_KEY"`
	Issuer            string   `env:"TOKENS_ISSUER"`
	Audience          []string `env:"TOKENS_AUDIENCE" envSeparator:","`
	ContextKey        string   `env:"TOKENS_CONTEXT_KEY" envDefault:"user"`
	TokenLookup       string   `env:"TOKENS_LOOKUP" envDefault:"cookie:accessToken,header:Authorization"`
	AuthScheme        string   `env:"TOKENS_AUTH_SCHEME" envDefault:"Bearer"`
	AccessCookieName  string   `env:"TOKENS_ACCESS_COOKIE" envDefault:"accessToken"`
	RefreshCookieName string   `env:"TOKENS_REFRESH_COOKIE" envDefault:"refreshToken"`
	RefreshCookiePath string   `env:"TOKENS_REFRESH_COOKIE_PATH" envDefault:"/auth/refresh"`
	Production        bool     `env:"TOKENS_PRODUCTION" envDefault:"false"`

	GoogleClientID     string `env:"TOKENS_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"TOKENS_GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"TOKENS_GOOGLE_CALLBACK_URL"`
	FrontendURL        string `env:"TOKENS_FRONTEND_URL"`
}

// LoadConfigFromEnv parses and validates an EnvConfig from the process
// environment.
func LoadConfigFromEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the keys without which the library cannot operate.
func (c *EnvConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.AccessSigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.RefreshSigningKey, validation.Required, validation.Length(32, 0)),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid token configuration").
			WithCode(errors.CodeBadRequest)
	}

	if c.AccessSigningKey == c.RefreshSigningKey {
		return errors.New("access and refresh signing keys must differ", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	return nil
}

func (c *EnvConfig) GetAccessSigningKey() string  { return c.AccessSigningKey }
func (c *EnvConfig) GetRefreshSigningKey() string { return c.RefreshSigningKey }
func (c *EnvConfig) GetIssuer() string            { return c.Issuer }
func (c *EnvConfig) GetAudience() []string        { return c.Audience }
func (c *EnvConfig) GetContextKey() string        { return c.ContextKey }
func (c *EnvConfig) GetTokenLookup() string       { return c.TokenLookup }
func (c *EnvConfig) GetAuthScheme() string        { return c.AuthScheme }

// The cookie getters fall back to the documented defaults so a literal
// EnvConfig, built without going through env parsing, never writes a
// nameless cookie.
func (c *EnvConfig) GetAccessCookieName() string {
	if c.AccessCookieName == "" {
		return "accessToken"
	}
	return c.AccessCookieName
}

func (c *EnvConfig) GetRefreshCookieName() string {
	if c.RefreshCookieName == "" {
		return "refreshToken"
	}
	return c.RefreshCookieName
}

func (c *EnvConfig) GetRefreshCookiePath() string {
	if c.RefreshCookiePath == "" {
		return "/auth/refresh"
	}
	return c.RefreshCookiePath
}

func (c *EnvConfig) IsProduction() bool { return c.Production }

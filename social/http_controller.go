package social

import (
	"net/url"

	"github.com/goliatone/go-router"
	tokens "github.com/goliatone/go-tokens"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController handles the provider login HTTP routes.
type HTTPController struct {
	bridge  *IdentityBridge
	cookies *tokens.CookieManager
	config  HTTPConfig
	logger  tokens.Logger
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// SuccessRedirect is the default redirect after successful auth
	SuccessRedirect string

	// ErrorRedirect is the redirect for auth errors
	ErrorRedirect string

	// ErrorHandler handles errors (optional, overrides ErrorRedirect)
	ErrorHandler func(ctx router.Context, err error) error
}

// NewHTTPController creates a new provider login HTTP controller.
func NewHTTPController(bridge *IdentityBridge, cookies *tokens.CookieManager, cfg HTTPConfig, logger tokens.Logger) *HTTPController {
	if bridge == nil {
		panic("social controller requires an identity bridge")
	}
	if cookies == nil {
		panic("social controller requires a cookie manager")
	}
	if cfg.SuccessRedirect == "" {
		cfg.SuccessRedirect = "/"
	}
	if cfg.ErrorRedirect == "" {
		cfg.ErrorRedirect = "/login?error=auth_failed"
	}

	return &HTTPController{
		bridge:  bridge,
		cookies: cookies,
		config:  cfg,
		logger:  logger,
	}
}

// RegisterRoutes registers the provider login routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/providers", c.ListProviders)
	group.Get("/:provider/callback", c.Callback)
	group.Get("/:provider", c.BeginAuth)
}

// ListProviders returns available providers.
func (c *HTTPController) ListProviders(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"providers": c.bridge.ListProviders(),
	})
}

// BeginAuth starts the OAuth flow.
func (c *HTTPController) BeginAuth(ctx router.Context) error {
	providerName := ctx.Param("provider")

	redirectURL := ctx.Query("redirect_url", "")
	if redirectURL == "" {
		redirectURL = c.config.SuccessRedirect
	}

	redirect, err := c.bridge.BeginAuth(ctx.Context(), providerName, redirectURL)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.Redirect(redirect.URL, router.StatusTemporaryRedirect)
}

// Callback completes the OAuth flow and sets the credential cookies.
func (c *HTTPController) Callback(ctx router.Context) error {
	providerName := ctx.Param("provider")

	if providerErr := ctx.Query("error", ""); providerErr != "" {
		if c.logger != nil {
			c.logger.Info("provider returned error on callback: %s", providerErr)
		}
		return ctx.Redirect(c.config.ErrorRedirect, router.StatusTemporaryRedirect)
	}

	code := ctx.Query("code", "")
	stateToken := ctx.Query("state", "")
	if code == "" || stateToken == "" {
		return c.handleError(ctx, ErrInvalidState)
	}

	result, err := c.bridge.CompleteAuth(ctx.Context(), providerName, code, stateToken)
	if err != nil {
		return c.handleError(ctx, err)
	}

	c.cookies.SetAuthCookies(ctx, result.Pair)

	target := result.RedirectURL
	if result.IsNewUser {
		target = appendQuery(target, "new_user", "1")
	}

	return ctx.Redirect(target, router.StatusTemporaryRedirect)
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	if c.logger != nil {
		c.logger.Error("social auth failed: %v", err)
	}
	if c.config.ErrorHandler != nil {
		return c.config.ErrorHandler(ctx, err)
	}
	return ctx.Redirect(c.config.ErrorRedirect, router.StatusTemporaryRedirect)
}

func appendQuery(target, key, val string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, val)
	u.RawQuery = q.Encode()
	return u.String()
}

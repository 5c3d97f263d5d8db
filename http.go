package tokens

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// CookieManager writes and clears the credential cookies. The access cookie
// travels on every request; the refresh cookie is scoped down to the refresh
// route so it only travels when a rotation is requested.
type CookieManager struct {
	cfg    Config
	Logger Logger
}

// NewCookieManager creates a new CookieManager
func NewCookieManager(cfg Config) *CookieManager {
	if cfg == nil {
		panic("cookie manager requires a config")
	}
	return &CookieManager{
		cfg:    cfg,
		Logger: defLogger{},
	}
}

// SetAuthCookies writes both credential cookies for the pair.
func (cm *CookieManager) SetAuthCookies(c router.Context, pair *TokenPair) {
	if pair == nil {
		return
	}
	cm.setCookie(c, cm.cfg.GetAccessCookieName(), pair.AccessToken, "/", AccessTokenTTL)
	cm.setCookie(c, cm.cfg.GetRefreshCookieName(), pair.RefreshToken, cm.cfg.GetRefreshCookiePath(), RefreshTokenTTL)
}

// ClearAuthCookies expires both credential cookies.
func (cm *CookieManager) ClearAuthCookies(c router.Context) {
	cm.cookieDel(c, cm.cfg.GetAccessCookieName(), "/")
	cm.cookieDel(c, cm.cfg.GetRefreshCookieName(), cm.cfg.GetRefreshCookiePath())
}

// RefreshCookie reads the refresh credential from the request.
func (cm *CookieManager) RefreshCookie(c router.Context) string {
	return c.Cookies(cm.cfg.GetRefreshCookieName(), "")
}

func (cm *CookieManager) setCookie(c router.Context, name, val, path string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Path:     path,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   cm.cfg.IsProduction(),
		SameSite: cm.sameSite(),
	})
}

func (cm *CookieManager) cookieDel(c router.Context, name, path string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   cm.cfg.IsProduction(),
		SameSite: cm.sameSite(),
	})
}

// Cross-site frontends need SameSite=None, which browsers only accept over
// Secure cookies, so both flip together on the production flag.
func (cm *CookieManager) sameSite() string {
	if cm.cfg.IsProduction() {
		return "None"
	}
	return "Lax"
}

// ErrorResponse is the JSON body error payloads are rendered into.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteError translates an error into an HTTP response. Rich errors carry
// their own status code; anything else becomes a generic 500 so internal
// detail never reaches the client.
func WriteError(c router.Context, logger Logger, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		logger.Error("unexpected error at HTTP boundary: %v", err)
		return c.JSON(router.StatusInternalServerError, ErrorResponse{
			Error: "Internal Server Error",
		})
	}

	status := richErr.Code
	if status < 400 || status > 599 {
		status = router.StatusInternalServerError
	}

	if status >= 500 {
		logger.Error("internal error at HTTP boundary: %s %s", richErr.Message, print.MaybePrettyJSON(richErr.Metadata))
		return c.JSON(status, ErrorResponse{
			Error: "Internal Server Error",
			Code:  richErr.TextCode,
		})
	}

	return c.JSON(status, ErrorResponse{
		Error: richErr.Message,
		Code:  richErr.TextCode,
	})
}

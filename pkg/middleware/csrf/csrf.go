package csrf

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Config struct {
	CookieName string
	HeaderName string
	// SessionCookie is the cookie that carries the access token. Requests without it
	// are not riding on ambient browser credentials and are not checked.
	SessionCookie string
	Secure        bool
	MaxAge        time.Duration
}

func DefaultConfig() Config {
	return Config{
		CookieName:    "XSRF-TOKEN",
		HeaderName:    "X-CSRF-Token",
		SessionCookie: "accessToken",
		MaxAge:        12 * time.Hour,
	}
}

// Middleware applies a double-submit token check to cookie-authenticated requests.
// Bearer-authenticated calls skip it.
func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = def.SessionCookie
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper:        func(c echo.Context) bool { return !cookieAuthenticated(c, cfg.SessionCookie) },
		TokenLookup:    "header:" + cfg.HeaderName,
		CookieName:     cfg.CookieName,
		CookiePath:     "/",
		CookieSecure:   cfg.Secure,
		CookieHTTPOnly: false,
		CookieSameSite: http.SameSiteLaxMode,
		CookieMaxAge:   int(cfg.MaxAge.Seconds()),
	})
}

func cookieAuthenticated(c echo.Context, sessionCookie string) bool {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ") {
		return false
	}
	ck, err := c.Cookie(sessionCookie)
	return err == nil && ck.Value != ""
}

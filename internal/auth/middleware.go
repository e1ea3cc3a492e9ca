package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cosmoblog/cosmoblog/internal/apperr"
)

const (
	contextKey = "authContext"

	// SessionCookie is accepted as an alternative to the bearer header.
	SessionCookie = "session"
)

// Required short-circuits with 401 unless the request carries a credential
// the verifier accepts. On success the verified subject is attached for the
// rest of the pipeline.
func Required(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential, ok := credentialFrom(c)
			if !ok {
				return apperr.Unauthorized("Unauthorized")
			}
			subject, err := v.Verify(c.Request().Context(), credential)
			if err != nil {
				return apperr.Unauthorized("Unauthorized").WithCause(err)
			}
			c.Set(contextKey, Context{Subject: subject, Verified: true})
			return next(c)
		}
	}
}

// FromEcho returns the auth context attached by Required.
func FromEcho(c echo.Context) (Context, bool) {
	ac, ok := c.Get(contextKey).(Context)
	return ac, ok && ac.Verified
}

func credentialFrom(c echo.Context) (string, bool) {
	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		if token := strings.TrimSpace(header[len("bearer "):]); token != "" {
			return token, true
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// PasscodeMiddleware guards board routes with a shared passcode carried as a
// bearer token. EventSource clients cannot set headers, so a ?token= query
// parameter is accepted as a fallback. An empty passcode disables the check.
func PasscodeMiddleware(passcode string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if passcode == "" {
				return next(c)
			}
			supplied := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if supplied == "" {
				supplied = c.QueryParam("token")
			}
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(passcode)) != 1 {
				return c.String(http.StatusUnauthorized, "invalid passcode")
			}
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths that bypass authentication: infrastructure
// endpoints and the login/registration flow.
var publicPaths = map[string]bool{
	"/":                true,
	"/health":          true,
	"/health/db":       true,
	"/metrics":         true,
	"/auth/check-user": true,
	"/auth/login":      true,
	"/auth/register":   true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

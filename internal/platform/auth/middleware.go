package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	claimsKey contextKey = "token_claims"
)

// JWTMiddleware authenticates bearer tokens issued by tokens and stores the
// caller's user id on the request context. Requests for which skipper returns
// true pass through unauthenticated.
func JWTMiddleware(tokens *TokenManager, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorized("missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthorized("invalid authorization format")
			}

			claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if errors.Is(err, ErrTokenRevoked) {
				return unauthorized("token has been revoked")
			}
			if err != nil {
				return unauthorized("invalid token")
			}
			userID, err := claims.UserID()
			if err != nil {
				return unauthorized("invalid token")
			}

			// The request logger reads this after the handler returns.
			c.Set(string(UserIDKey), userID)
			ctx := WithUserID(c.Request().Context(), userID)
			c.SetRequest(c.Request().WithContext(context.WithValue(ctx, claimsKey, claims)))

			return next(c)
		}
	}
}

func unauthorized(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	uid, ok := ctx.Value(UserIDKey).(int64)
	return uid, ok && uid > 0
}

// ClaimsFromContext returns the verified token claims of the current request.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// CurrentUserID extracts the caller's id inside a handler. Handlers behind
// JWTMiddleware always have one; the 401 covers misconfigured routes.
func CurrentUserID(c echo.Context) (int64, error) {
	uid, ok := UserIDFromContext(c.Request().Context())
	if !ok {
		return 0, unauthorized("not authenticated")
	}
	return uid, nil
}

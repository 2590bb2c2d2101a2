package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/common/apperror"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated account id
	UserIDKey ContextKey = "user_id"
)

// ExtractUserID extracts the X-User-ID header set by the auth gateway and
// stores it in the request context. Empty is allowed here; handlers that
// need an identity go through RequireUserID.
//
// Usage:
//
//	e := echo.New()
//	e.Use(middleware.ExtractUserID())
func ExtractUserID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get("X-User-ID")
			if userID != "" {
				c.Set(string(UserIDKey), userID)
			}
			return next(c)
		}
	}
}

// RequireUserID rejects requests without an X-User-ID header. Mounted on
// the dashboard and claim groups, where every operation is per-account.
func RequireUserID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get("X-User-ID")
			if userID == "" {
				return reject(c, apperror.NewUnauthorized("authentication required"))
			}
			c.Set(string(UserIDKey), userID)
			return next(c)
		}
	}
}

// reject writes a taxonomy error and stops the chain
func reject(c echo.Context, err *apperror.AppError) error {
	return c.JSON(err.Code, map[string]interface{}{
		"error": err.Message,
	})
}

// GetUserID retrieves the account id from the request context.
// Returns empty string if not set.
func GetUserID(c echo.Context) string {
	userID := c.Get(string(UserIDKey))
	if userID == nil {
		return ""
	}
	return userID.(string)
}

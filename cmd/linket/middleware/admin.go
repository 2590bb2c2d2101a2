package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/common/apperror"
	"github.com/linkethq/linket/common/config"
)

// RequireAdmin gates a route group to the accounts on the admin allowlist.
// Runs after RequireUserID, so an identity is already present.
func RequireAdmin(cfg *config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserID(c)
			if userID == "" || !cfg.IsAdmin(userID) {
				return reject(c, apperror.NewForbidden("admin access required"))
			}
			return next(c)
		}
	}
}

// RequireInternalSecret gates service-to-service routes on a shared
// secret carried in X-Internal-Service. An unset secret disables the
// routes rather than leaving them open.
func RequireInternalSecret(cfg *config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			secret := cfg.Admin.InternalSecret
			if secret == "" || c.Request().Header.Get("X-Internal-Service") != secret {
				return reject(c, apperror.NewUnauthorized("invalid internal service credentials"))
			}
			return next(c)
		}
	}
}

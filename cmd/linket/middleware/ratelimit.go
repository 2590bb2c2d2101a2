package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/common/apperror"
	"github.com/linkethq/linket/common/config"
	"github.com/linkethq/linket/common/logger"
	"github.com/linkethq/linket/common/ratelimit"
)

// ClaimRateLimit applies the per-client sliding window to claim attempts.
// The key is a hash of the caller's IP; trusted internal callers carrying
// the service secret bypass the limit. A limiter failure fails open: a
// broken Redis must not take the claim flow down with it.
func ClaimRateLimit(limiter *ratelimit.Limiter, cfg *config.Config, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil {
				return next(c)
			}

			secret := cfg.Admin.InternalSecret
			if secret != "" && c.Request().Header.Get("X-Internal-Service") == secret {
				return next(c)
			}

			clientHash := ratelimit.HashClientID(c.RealIP())
			result, err := limiter.CheckClaim(c.Request().Context(), clientHash,
				cfg.RateLimit.ClaimLimit, cfg.RateLimit.ClaimWindowSec)
			if err != nil {
				log.Warn("rate limit check failed, allowing request", "error", err)
				return next(c)
			}

			if !result.Allowed {
				limitErr := apperror.NewTooManyRequests("too many claim attempts, slow down")
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(limitErr.Code, map[string]interface{}{
					"error":       limitErr.Message,
					"retry_after": result.RetryAfterSeconds,
				})
			}

			return next(c)
		}
	}
}

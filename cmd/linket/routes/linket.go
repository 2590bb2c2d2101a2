package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/cmd/linket/container"
	"github.com/linkethq/linket/cmd/linket/handlers"
	"github.com/linkethq/linket/cmd/linket/middleware"
)

// RegisterLinketRoutes registers the claim flow, the dashboard linket
// management, and the internal account-release hook
func RegisterLinketRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewClaimHandler(c.ClaimService)

	claim := e.Group("/api/linkets", middleware.RequireUserID())
	claim.POST("/claim", h.Claim,
		middleware.ClaimRateLimit(c.Limiter, c.Components.Config, c.Components.Logger))

	dashboard := e.Group("/api/dashboard/linkets", middleware.RequireUserID())
	{
		dashboard.GET("", h.List)                 // GET /api/dashboard/linkets
		dashboard.PATCH("/:id", h.UpdateTarget)   // PATCH /api/dashboard/linkets/:id
		dashboard.DELETE("/:id", h.Release)       // DELETE /api/dashboard/linkets/:id
	}

	internal := e.Group("/api/internal", middleware.RequireInternalSecret(c.Components.Config))
	internal.POST("/users/:userID/release", h.ReleaseAllForUser)
}

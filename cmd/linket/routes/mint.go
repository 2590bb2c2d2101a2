package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/cmd/linket/container"
	"github.com/linkethq/linket/cmd/linket/handlers"
	"github.com/linkethq/linket/cmd/linket/middleware"
)

// RegisterMintRoutes registers the admin mint/export endpoints
func RegisterMintRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewMintHandler(c.MintService)

	admin := e.Group("/api/admin/mint",
		middleware.RequireUserID(),
		middleware.RequireAdmin(c.Components.Config),
	)
	{
		admin.GET("", h.Mint)                       // GET /api/admin/mint?qty=100&label=...
		admin.GET("/batch/:batchId", h.ExportBatch) // GET /api/admin/mint/batch/:batchId
		admin.GET("/master-log", h.ExportMasterLog) // GET /api/admin/mint/master-log
	}
}

package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/cmd/linket/container"
	"github.com/linkethq/linket/cmd/linket/handlers"
)

// RegisterRedirectRoutes registers the public scan endpoints
func RegisterRedirectRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewRedirectHandler(c.RedirectService)

	e.GET("/l/:token", h.Resolve)   // NFC/QR scan target
	e.GET("/r", h.ResolveChip)      // legacy chip-UID scans: /r?id=<uid>
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/cmd/linket/service"
)

// RedirectHandler serves the public scan endpoints. These never error:
// whatever happens, the scanner's browser gets a 302 somewhere sensible.
type RedirectHandler struct {
	redirects *service.RedirectService
}

// NewRedirectHandler creates a new redirect handler
func NewRedirectHandler(redirects *service.RedirectService) *RedirectHandler {
	return &RedirectHandler{redirects: redirects}
}

// Resolve resolves a public token to its destination
// GET /l/:token
func (h *RedirectHandler) Resolve(c echo.Context) error {
	if h.redirects == nil {
		return c.Redirect(http.StatusFound, service.HomePath)
	}

	location := h.redirects.Resolve(c.Request().Context(), c.Param("token"))
	return c.Redirect(http.StatusFound, location)
}

// ResolveChip resolves a legacy chip-UID scan
// GET /r?id=<chip_uid>
func (h *RedirectHandler) ResolveChip(c echo.Context) error {
	if h.redirects == nil {
		return c.Redirect(http.StatusFound, service.MissingTagPath)
	}

	location := h.redirects.ResolveChip(c.Request().Context(), c.QueryParam("id"))
	return c.Redirect(http.StatusFound, location)
}

package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/common/apperror"
)

// respondError maps a service error onto the wire: the taxonomy's status
// code and its public message, nothing internal.
func respondError(c echo.Context, err error) error {
	return c.JSON(apperror.Code(err), map[string]interface{}{
		"error": apperror.Message(err),
	})
}

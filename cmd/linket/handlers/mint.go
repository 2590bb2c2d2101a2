package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/cmd/linket/service"
	"github.com/linkethq/linket/common/apperror"
)

// MintHandler serves the admin mint and export endpoints
type MintHandler struct {
	mint *service.MintService
}

// respondAdminError returns the raw error text. The mint surface is admin
// allowlist only, and admins debug failed runs from the response body.
func respondAdminError(c echo.Context, err error) error {
	return c.JSON(apperror.Code(err), map[string]interface{}{
		"error": err.Error(),
	})
}

// NewMintHandler creates a new mint handler
func NewMintHandler(mint *service.MintService) *MintHandler {
	return &MintHandler{mint: mint}
}

// Mint creates a batch of fresh tags
// GET /api/admin/mint?qty=100&label=spring+run
func (h *MintHandler) Mint(c echo.Context) error {
	if h.mint == nil {
		return respondAdminError(c, apperror.NewUnconfigured())
	}

	qty := 1
	if raw := c.QueryParam("qty"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return respondAdminError(c, apperror.NewInvalidInput("qty must be an integer"))
		}
		qty = parsed
	}

	result, err := h.mint.Mint(c.Request().Context(), qty, c.QueryParam("label"))
	if err != nil {
		return respondAdminError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// ExportBatch streams one batch as CSV
// GET /api/admin/mint/batch/:batchId
func (h *MintHandler) ExportBatch(c echo.Context) error {
	if h.mint == nil {
		return respondAdminError(c, apperror.NewUnconfigured())
	}

	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		return respondAdminError(c, apperror.NewInvalidInput("batchId must be a UUID"))
	}

	return h.exportCSV(c, &batchID, fmt.Sprintf("linket-batch-%s.csv", batchID))
}

// ExportMasterLog streams every tag ever minted as CSV
// GET /api/admin/mint/master-log
func (h *MintHandler) ExportMasterLog(c echo.Context) error {
	if h.mint == nil {
		return respondAdminError(c, apperror.NewUnconfigured())
	}

	return h.exportCSV(c, nil, "linket-master-log.csv")
}

func (h *MintHandler) exportCSV(c echo.Context, batchID *uuid.UUID, filename string) error {
	// Export checks batch existence before its first write, so an unknown
	// batch still gets a clean JSON error instead of a half-sent CSV.
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))

	_, err := h.mint.Export(c.Request().Context(), batchID, c.Response())
	if err != nil {
		if c.Response().Committed {
			return err
		}
		c.Response().Header().Del(echo.HeaderContentDisposition)
		return respondAdminError(c, err)
	}

	return nil
}

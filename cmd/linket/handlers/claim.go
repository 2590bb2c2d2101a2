package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/linkethq/linket/cmd/linket/middleware"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/cmd/linket/service"
	"github.com/linkethq/linket/common/apperror"
)

// ClaimHandler handles the claim flow and the dashboard's linket management
type ClaimHandler struct {
	claims *service.ClaimService
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claims *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// claimRequest is the claim attempt body. Either credential field works;
// the state machine treats them as one lookup key.
type claimRequest struct {
	ClaimCode string  `json:"claimCode"`
	ChipUID   string  `json:"chipUid"`
	ProfileID *string `json:"profileId,omitempty"`
	Nickname  *string `json:"nickname,omitempty"`
}

func (r *claimRequest) credential() string {
	if r.ClaimCode != "" {
		return r.ClaimCode
	}
	return r.ChipUID
}

// Claim binds a tag to the calling account
// POST /api/linkets/claim
func (h *ClaimHandler) Claim(c echo.Context) error {
	if h.claims == nil {
		return respondError(c, apperror.NewUnconfigured())
	}

	var req claimRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.NewInvalidInput("invalid request body"))
	}

	input := service.ClaimInput{
		Code:     req.credential(),
		UserID:   middleware.GetUserID(c),
		Nickname: req.Nickname,
	}
	if req.ProfileID != nil {
		profileID, err := uuid.Parse(*req.ProfileID)
		if err != nil {
			return respondError(c, apperror.NewInvalidInput("profileId must be a UUID"))
		}
		input.ProfileID = &profileID
	}

	assignmentID, err := h.claims.Claim(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":           true,
		"assignmentId": assignmentID,
	})
}

// List returns the calling account's linkets
// GET /api/dashboard/linkets
func (h *ClaimHandler) List(c echo.Context) error {
	if h.claims == nil {
		return respondError(c, apperror.NewUnconfigured())
	}

	assignments, err := h.claims.ListForUser(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if assignments == nil {
		assignments = []*models.TagAssignment{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"linkets": assignments,
	})
}

// updateTargetRequest carries the editable assignment fields
type updateTargetRequest struct {
	Nickname   *string `json:"nickname,omitempty"`
	TargetType *string `json:"target_type,omitempty"`
	ProfileID  *string `json:"profile_id,omitempty"`
	TargetURL  *string `json:"target_url,omitempty"`
}

// UpdateTarget edits a linket's nickname or destination
// PATCH /api/dashboard/linkets/:id
func (h *ClaimHandler) UpdateTarget(c echo.Context) error {
	if h.claims == nil {
		return respondError(c, apperror.NewUnconfigured())
	}

	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, apperror.NewInvalidInput("id must be a UUID"))
	}

	var req updateTargetRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.NewInvalidInput("invalid request body"))
	}

	input := service.UpdateTargetInput{
		Nickname:  req.Nickname,
		TargetURL: req.TargetURL,
	}
	if req.TargetType != nil {
		targetType := models.TargetType(*req.TargetType)
		input.TargetType = &targetType
	}
	if req.ProfileID != nil {
		profileID, err := uuid.Parse(*req.ProfileID)
		if err != nil {
			return respondError(c, apperror.NewInvalidInput("profile_id must be a UUID"))
		}
		input.ProfileID = &profileID
	}

	assignment, err := h.claims.UpdateTarget(c.Request().Context(), assignmentID, middleware.GetUserID(c), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":     true,
		"linket": assignment,
	})
}

// Release unbinds a linket from the calling account
// DELETE /api/dashboard/linkets/:id
func (h *ClaimHandler) Release(c echo.Context) error {
	if h.claims == nil {
		return respondError(c, apperror.NewUnconfigured())
	}

	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, apperror.NewInvalidInput("id must be a UUID"))
	}

	if err := h.claims.Release(c.Request().Context(), assignmentID, middleware.GetUserID(c)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok": true,
	})
}

// ReleaseAllForUser releases every linket an account holds. Called by the
// auth service during account deletion.
// POST /api/internal/users/:userID/release
func (h *ClaimHandler) ReleaseAllForUser(c echo.Context) error {
	if h.claims == nil {
		return respondError(c, apperror.NewUnconfigured())
	}

	userID := c.Param("userID")
	if userID == "" {
		return respondError(c, apperror.NewInvalidInput("userID is required"))
	}

	released, err := h.claims.ReleaseAllForUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":       true,
		"released": released,
	})
}

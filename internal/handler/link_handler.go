package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-marks-api/internal/dto"
	"github.com/noah-isme/sma-marks-api/internal/models"
	"github.com/noah-isme/sma-marks-api/internal/service"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
	"github.com/noah-isme/sma-marks-api/pkg/response"
)

type linkManager interface {
	LinkChildren(ctx context.Context, actor models.Actor, parentID int64, childIDs []int64) (*models.ParentChildLink, error)
	LinkedChildren(ctx context.Context, actor models.Actor, parentID int64) (*models.ParentChildLink, error)
}

// LinkHandler maintains parent to child links.
type LinkHandler struct {
	service linkManager
}

// NewLinkHandler constructs LinkHandler.
func NewLinkHandler(service linkManager) *LinkHandler {
	return &LinkHandler{service: service}
}

// Replace godoc
// @Summary Overwrite the children linked to a parent
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Parent ID"
// @Param payload body dto.LinkChildrenRequest true "Children"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/parents/{id}/children [put]
func (h *LinkHandler) Replace(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	parentID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.LinkChildrenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	childIDs := req.ChildIDs
	if len(childIDs) == 0 && req.ChildIDsRaw != "" {
		childIDs = service.ParseChildIDs(req.ChildIDsRaw)
	}
	link, err := h.service.LinkChildren(c.Request.Context(), actor, parentID, childIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// Get godoc
// @Summary Show the children linked to a parent
// @Tags Admin
// @Produce json
// @Param id path int true "Parent ID"
// @Success 200 {object} response.Envelope
// @Router /admin/parents/{id}/children [get]
func (h *LinkHandler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	parentID, ok := idParam(c, "id")
	if !ok {
		return
	}
	link, err := h.service.LinkedChildren(c.Request.Context(), actor, parentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

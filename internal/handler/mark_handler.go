package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-marks-api/internal/dto"
	"github.com/noah-isme/sma-marks-api/internal/models"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
	"github.com/noah-isme/sma-marks-api/pkg/response"
)

type markSubmitter interface {
	SubmitMarks(ctx context.Context, actor models.Actor, req dto.SubmitMarksRequest) (*models.MarkRecord, error)
}

// MarkHandler accepts mark submissions.
type MarkHandler struct {
	service markSubmitter
}

// NewMarkHandler constructs MarkHandler.
func NewMarkHandler(service markSubmitter) *MarkHandler {
	return &MarkHandler{service: service}
}

// Submit godoc
// @Summary Submit marks for a student
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body dto.SubmitMarksRequest true "Marks payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /marks [post]
func (h *MarkHandler) Submit(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req dto.SubmitMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	record, err := h.service.SubmitMarks(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

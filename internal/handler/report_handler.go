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

type reportReader interface {
	StudentReports(ctx context.Context, actor models.Actor) ([]models.MarkRecord, error)
	ParentReports(ctx context.Context, actor models.Actor) ([]models.ChildReport, error)
	AllReports(ctx context.Context, actor models.Actor) ([]models.MarkRecordRow, error)
	StudentReportsFor(ctx context.Context, actor models.Actor, studentID int64) ([]models.MarkRecord, error)
}

type reportExporter interface {
	Export(ctx context.Context, actor models.Actor, scope, format string) (*service.ExportFile, error)
}

// ReportHandler exposes the role scoped report listings.
type ReportHandler struct {
	reports reportReader
	exports reportExporter
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports reportReader, exports reportExporter) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Mine godoc
// @Summary List the caller's own mark records
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/me [get]
func (h *ReportHandler) Mine(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	records, err := h.reports.StudentReports(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, listMeta(c, len(records)))
}

// Children godoc
// @Summary List the records of the caller's linked children
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/children [get]
func (h *ReportHandler) Children(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	reports, err := h.reports.ParentReports(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, listMeta(c, len(reports)))
}

// All godoc
// @Summary List every mark record
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) All(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	rows, err := h.reports.AllReports(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, listMeta(c, len(rows)))
}

// Student godoc
// @Summary List one student's mark records
// @Tags Reports
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/students/{id} [get]
func (h *ReportHandler) Student(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	studentID, ok := idParam(c, "id")
	if !ok {
		return
	}
	records, err := h.reports.StudentReportsFor(c.Request.Context(), actor, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, listMeta(c, len(records)))
}

// Export godoc
// @Summary Download a report listing
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param scope query string false "own, children or all"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query"))
		return
	}
	file, err := h.exports.Export(c.Request.Context(), actor, query.Scope, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-marks-api/internal/models"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
	"github.com/noah-isme/sma-marks-api/pkg/export"
)

// Export scopes.
const (
	ExportScopeOwn      = "own"
	ExportScopeChildren = "children"
	ExportScopeAll      = "all"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportHeaders = []string{"Student", "Term", "Year", "Subjects", "Total", "Average", "Grade", "Recorded"}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered listing ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the listing a caller may see as CSV or PDF.
type ExportService struct {
	reports   *ReportService
	renderers map[string]renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs ExportService with the CSV and PDF renderers.
func NewExportService(reports *ReportService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports: reports,
		renderers: map[string]renderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Export renders scope in format. Empty scope means own, empty format means csv.
func (s *ExportService) Export(ctx context.Context, actor models.Actor, scope, format string) (*ExportFile, error) {
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		scope = ExportScopeOwn
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	rows, err := s.collect(ctx, actor, scope)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Title: exportTitle(scope), Headers: exportHeaders, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, exportRow(row))
	}

	body, err := r.Render(dataset)
	if err != nil {
		s.logger.Error("render export failed", zap.String("scope", scope), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("marks-%s-%s.%s", scope, s.now().UTC().Format("20060102-150405"), r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func (s *ExportService) collect(ctx context.Context, actor models.Actor, scope string) ([]models.MarkRecordRow, error) {
	switch scope {
	case ExportScopeOwn:
		records, err := s.reports.StudentReports(ctx, actor)
		if err != nil {
			return nil, err
		}
		name := actor.DisplayName
		if name == "" {
			name = models.FallbackName(actor.ID)
		}
		return namedRows(records, name), nil
	case ExportScopeChildren:
		children, err := s.reports.ParentReports(ctx, actor)
		if err != nil {
			return nil, err
		}
		var rows []models.MarkRecordRow
		for _, child := range children {
			rows = append(rows, namedRows(child.Records, child.ChildName)...)
		}
		return rows, nil
	case ExportScopeAll:
		return s.reports.AllReports(ctx, actor)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "scope must be own, children or all")
	}
}

func namedRows(records []models.MarkRecord, name string) []models.MarkRecordRow {
	rows := make([]models.MarkRecordRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, models.MarkRecordRow{MarkRecord: record, StudentName: name})
	}
	return rows
}

func exportTitle(scope string) string {
	switch scope {
	case ExportScopeChildren:
		return "Children's Mark Reports"
	case ExportScopeAll:
		return "All Mark Reports"
	default:
		return "My Mark Reports"
	}
}

func exportRow(row models.MarkRecordRow) []string {
	subjects := make([]string, 0, len(row.SubjectMarks))
	for _, entry := range row.SubjectMarks {
		subjects = append(subjects, entry.Subject+": "+strconv.FormatFloat(entry.Mark, 'f', -1, 64))
	}
	return []string{
		row.StudentName,
		row.Term,
		strconv.Itoa(row.Year),
		strings.Join(subjects, ", "),
		strconv.FormatFloat(row.Total, 'f', 2, 64),
		strconv.FormatFloat(row.Average, 'f', 2, 64),
		row.Grade,
		row.CreatedAt.UTC().Format("2006-01-02 15:04"),
	}
}

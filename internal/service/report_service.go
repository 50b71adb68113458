package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-marks-api/internal/dto"
	"github.com/noah-isme/sma-marks-api/internal/models"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
)

type parentLinkWriter interface {
	Replace(ctx context.Context, link *models.ParentChildLink) error
}

// ReportService composes one capability check with one mark store query per use case.
type ReportService struct {
	access     *AccessService
	marks      *MarkService
	identities *IdentityService
	links      parentLinkWriter
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(access *AccessService, marks *MarkService, identities *IdentityService, links parentLinkWriter, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{access: access, marks: marks, identities: identities, links: links, validator: validate, logger: logger}
}

// SubmitMarks stores a graded record for the student named in req. The caller becomes the teacher.
func (s *ReportService) SubmitMarks(ctx context.Context, actor models.Actor, req dto.SubmitMarksRequest) (*models.MarkRecord, error) {
	if err := s.access.Require(actor, CapabilitySubmitMarks); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}

	student, err := s.identities.Resolve(ctx, req.Student)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrStorage) {
			return nil, err
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student")
	}

	return s.marks.Submit(ctx, SubmitMarksInput{
		StudentID:    student.ID,
		TeacherID:    actor.ID,
		Term:         strings.TrimSpace(req.Term),
		Year:         req.Year,
		SubjectMarks: req.SubjectMarks(),
	})
}

// StudentReports lists the caller's own records.
func (s *ReportService) StudentReports(ctx context.Context, actor models.Actor) ([]models.MarkRecord, error) {
	if err := s.access.Require(actor, CapabilityViewOwn); err != nil {
		return nil, err
	}
	return s.marks.ListByStudent(ctx, actor.ID)
}

// ParentReports lists the records of every linked child known to the directory.
func (s *ReportService) ParentReports(ctx context.Context, actor models.Actor) ([]models.ChildReport, error) {
	if err := s.access.Require(actor, CapabilityViewChildren); err != nil {
		return nil, err
	}
	children, err := s.access.ResolveChildrenOf(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	reports := make([]models.ChildReport, 0, len(children))
	if len(children) == 0 {
		return reports, nil
	}

	known, err := s.identities.Known(ctx, children)
	if err != nil {
		return nil, err
	}
	for _, childID := range children {
		child, ok := known[childID]
		if !ok {
			s.logger.Debug("skipping unknown linked child", zap.Int64("parent_id", actor.ID), zap.Int64("child_id", childID))
			continue
		}
		records, err := s.marks.ListByStudent(ctx, childID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, models.ChildReport{ChildID: childID, ChildName: child.Name(), Records: records})
	}
	return reports, nil
}

// AllReports lists every record with the student's display name.
func (s *ReportService) AllReports(ctx context.Context, actor models.Actor) ([]models.MarkRecordRow, error) {
	if err := s.access.Require(actor, CapabilityViewAll); err != nil {
		return nil, err
	}
	records, err := s.marks.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.withStudentNames(ctx, records)
}

// StudentReportsFor lists one student's records for an administrator.
func (s *ReportService) StudentReportsFor(ctx context.Context, actor models.Actor, studentID int64) ([]models.MarkRecord, error) {
	if err := s.access.Require(actor, CapabilityViewAll); err != nil {
		return nil, err
	}
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if _, err := s.identities.Find(ctx, studentID); err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, err
	}
	return s.marks.ListByStudent(ctx, studentID)
}

// LinkChildren overwrites the child set of parentID. The last writer wins.
func (s *ReportService) LinkChildren(ctx context.Context, actor models.Actor, parentID int64, childIDs []int64) (*models.ParentChildLink, error) {
	if err := s.access.Require(actor, CapabilityViewAll); err != nil {
		return nil, err
	}
	if parentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "parent id is required")
	}
	children := uniquePositive(childIDs)
	if len(children) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one child id is required")
	}

	link := &models.ParentChildLink{ParentID: parentID, ChildIDs: children}
	if err := s.links.Replace(ctx, link); err != nil {
		return nil, appErrors.Storage(err, "failed to save parent links")
	}
	s.logger.Info("parent links replaced", zap.Int64("parent_id", parentID), zap.Int64s("child_ids", children), zap.Int64("actor_id", actor.ID))
	return link, nil
}

// LinkedChildren returns the child set of parentID for an administrator.
func (s *ReportService) LinkedChildren(ctx context.Context, actor models.Actor, parentID int64) (*models.ParentChildLink, error) {
	if err := s.access.Require(actor, CapabilityViewAll); err != nil {
		return nil, err
	}
	children, err := s.access.ResolveChildrenOf(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return &models.ParentChildLink{ParentID: parentID, ChildIDs: children}, nil
}

// ParseChildIDs reads a comma separated id list such as "23,45,56". Non-numeric and non-positive entries are dropped.
func ParseChildIDs(raw string) []int64 {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return uniquePositive(ids)
}

func uniquePositive(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *ReportService) withStudentNames(ctx context.Context, records []models.MarkRecord) ([]models.MarkRecordRow, error) {
	rows := make([]models.MarkRecordRow, 0, len(records))
	if len(records) == 0 {
		return rows, nil
	}
	ids := make([]int64, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	for _, record := range records {
		if _, ok := seen[record.StudentID]; !ok {
			seen[record.StudentID] = struct{}{}
			ids = append(ids, record.StudentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	names, err := s.identities.Known(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		name := models.FallbackName(record.StudentID)
		if identity, ok := names[record.StudentID]; ok {
			name = identity.Name()
		}
		rows = append(rows, models.MarkRecordRow{MarkRecord: record, StudentName: name})
	}
	return rows, nil
}

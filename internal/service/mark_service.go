package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-marks-api/internal/models"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
)

const allMarksCacheKey = "records:all"

// MaxTermLength matches the width of the stored term column.
const MaxTermLength = 64

type markRepository interface {
	Append(ctx context.Context, record *models.MarkRecord) error
	ListByStudent(ctx context.Context, studentID int64) ([]models.MarkRecord, error)
	ListAll(ctx context.Context) ([]models.MarkRecord, error)
}

// SubmitMarksInput carries an already resolved submission.
type SubmitMarksInput struct {
	StudentID    int64
	TeacherID    int64
	Term         string
	Year         int
	SubjectMarks models.SubjectMarks
}

// MarkService appends graded mark records and lists them back.
type MarkService struct {
	repo     markRepository
	scale    GradeScale
	cache    *CacheService
	cacheTTL time.Duration
	metrics  *MetricsService
	notifier SyncNotifier
	logger   *zap.Logger

	// generation advances on every stored record; a listing loaded across a change is not kept cached.
	generation atomic.Uint64
}

// MarkServiceOption customises MarkService.
type MarkServiceOption func(*MarkService)

// WithMarkCache caches listings for ttl and invalidates them on submit.
func WithMarkCache(cache *CacheService, ttl time.Duration) MarkServiceOption {
	return func(s *MarkService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithMarkMetrics instruments storage calls.
func WithMarkMetrics(metrics *MetricsService) MarkServiceOption {
	return func(s *MarkService) { s.metrics = metrics }
}

// WithSyncNotifier announces stored records to an external system.
func WithSyncNotifier(notifier SyncNotifier) MarkServiceOption {
	return func(s *MarkService) { s.notifier = notifier }
}

// NewMarkService constructs MarkService.
func NewMarkService(repo markRepository, scale GradeScale, logger *zap.Logger, opts ...MarkServiceOption) *MarkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &MarkService{repo: repo, scale: scale, logger: logger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Submit grades and stores a new record. The sync hook never affects the outcome.
func (s *MarkService) Submit(ctx context.Context, input SubmitMarksInput) (*models.MarkRecord, error) {
	marks := models.NormalizeSubjectMarks(input.SubjectMarks)
	if len(marks) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no marks supplied")
	}
	if input.StudentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student")
	}
	if utf8.RuneCountInString(input.Term) > MaxTermLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("term must be at most %d characters", MaxTermLength))
	}

	totals := s.scale.ComputeTotals(marks)
	if !finiteTotals(totals) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "marks out of range")
	}
	record := &models.MarkRecord{
		StudentID:    input.StudentID,
		TeacherID:    input.TeacherID,
		Term:         input.Term,
		Year:         input.Year,
		SubjectMarks: marks,
		Total:        totals.Total,
		Average:      totals.Average,
		Grade:        totals.Grade,
	}

	start := time.Now()
	err := s.repo.Append(ctx, record)
	s.metrics.ObserveDBQuery("mark_append", time.Since(start))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to store mark record")
	}
	s.metrics.IncMarksSubmitted()
	s.logger.Info("mark record stored",
		zap.Int64("record_id", record.ID),
		zap.Int64("student_id", record.StudentID),
		zap.Int64("teacher_id", record.TeacherID),
		zap.String("grade", record.Grade),
	)

	s.generation.Add(1)
	_ = s.cache.Invalidate(ctx, studentMarksCacheKey(record.StudentID), allMarksCacheKey)
	if s.notifier != nil {
		s.notifier.Notify(ctx, record.StudentID)
	}
	return record, nil
}

// ListByStudent returns a student's records, most recent first.
func (s *MarkService) ListByStudent(ctx context.Context, studentID int64) ([]models.MarkRecord, error) {
	return s.list(ctx, studentMarksCacheKey(studentID), "mark_list_student", func() ([]models.MarkRecord, error) {
		return s.repo.ListByStudent(ctx, studentID)
	})
}

// ListAll returns every record, most recent first. Callers authorize.
func (s *MarkService) ListAll(ctx context.Context) ([]models.MarkRecord, error) {
	return s.list(ctx, allMarksCacheKey, "mark_list_all", func() ([]models.MarkRecord, error) {
		return s.repo.ListAll(ctx)
	})
}

func (s *MarkService) list(ctx context.Context, key, label string, load func() ([]models.MarkRecord, error)) ([]models.MarkRecord, error) {
	var cached []models.MarkRecord
	if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached != nil {
		return cached, nil
	}

	generation := s.generation.Load()
	start := time.Now()
	records, err := load()
	s.metrics.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load mark records")
	}
	if records == nil {
		records = []models.MarkRecord{}
	}
	_ = s.cache.Set(ctx, key, records, s.cacheTTL)
	// A submit that landed while loading may have invalidated before the Set above.
	if s.generation.Load() != generation {
		_ = s.cache.Invalidate(ctx, key)
	}
	return records, nil
}

func studentMarksCacheKey(studentID int64) string {
	return fmt.Sprintf("records:student:%d", studentID)
}

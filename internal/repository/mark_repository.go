package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-marks-api/internal/models"
)

const markRecordColumns = `id, student_id, teacher_id, term, year, total, average, grade, created_at`

// MarkRepository is the append-only store of mark records.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository creates a new instance of MarkRepository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

type subjectRow struct {
	RecordID int64   `db:"record_id"`
	Position int     `db:"position"`
	Subject  string  `db:"subject"`
	Mark     float64 `db:"mark"`
}

// Append stores record and its subject rows in one transaction, filling ID and CreatedAt.
func (r *MarkRepository) Append(ctx context.Context, record *models.MarkRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append mark record: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertRecord = `INSERT INTO mark_records (student_id, teacher_id, term, year, total, average, grade, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at`
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if err = tx.QueryRowxContext(ctx, insertRecord,
		record.StudentID, record.TeacherID, record.Term, record.Year,
		record.Total, record.Average, record.Grade, createdAt,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return fmt.Errorf("insert mark record: %w", err)
	}

	if len(record.SubjectMarks) > 0 {
		placeholders := make([]string, 0, len(record.SubjectMarks))
		args := make([]interface{}, 0, len(record.SubjectMarks)*4)
		for i, entry := range record.SubjectMarks {
			n := len(args)
			placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4))
			args = append(args, record.ID, i, entry.Subject, entry.Mark)
		}
		insertSubjects := `INSERT INTO mark_record_subjects (record_id, position, subject, mark) VALUES ` + strings.Join(placeholders, ", ")
		if _, err = tx.ExecContext(ctx, insertSubjects, args...); err != nil {
			return fmt.Errorf("insert mark subjects: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit mark record: %w", err)
	}
	return nil
}

// ListByStudent returns a student's records, most recent first.
func (r *MarkRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.MarkRecord, error) {
	query := `SELECT ` + markRecordColumns + ` FROM mark_records WHERE student_id = $1 ORDER BY created_at DESC, id DESC`
	var records []models.MarkRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list mark records by student: %w", err)
	}
	return r.withSubjects(ctx, records)
}

// ListAll returns every record, most recent first.
func (r *MarkRepository) ListAll(ctx context.Context) ([]models.MarkRecord, error) {
	query := `SELECT ` + markRecordColumns + ` FROM mark_records ORDER BY created_at DESC, id DESC`
	var records []models.MarkRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list mark records: %w", err)
	}
	return r.withSubjects(ctx, records)
}

func (r *MarkRepository) withSubjects(ctx context.Context, records []models.MarkRecord) ([]models.MarkRecord, error) {
	if len(records) == 0 {
		return []models.MarkRecord{}, nil
	}
	ids := make([]int64, len(records))
	for i, record := range records {
		ids[i] = record.ID
	}

	const query = `SELECT record_id, position, subject, mark FROM mark_record_subjects WHERE record_id = ANY($1) ORDER BY record_id, position`
	var rows []subjectRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load mark subjects: %w", err)
	}

	byRecord := make(map[int64]models.SubjectMarks, len(records))
	for _, row := range rows {
		byRecord[row.RecordID] = append(byRecord[row.RecordID], models.SubjectMark{Subject: row.Subject, Mark: row.Mark})
	}
	for i := range records {
		marks := byRecord[records[i].ID]
		if marks == nil {
			marks = models.SubjectMarks{}
		}
		records[i].SubjectMarks = marks
	}
	return records, nil
}

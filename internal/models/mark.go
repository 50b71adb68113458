package models

import (
	"strings"
	"time"
)

// SubjectMark is one subject → mark entry of a submission.
type SubjectMark struct {
	Subject string  `db:"subject" json:"subject"`
	Mark    float64 `db:"mark" json:"mark"`
}

// SubjectMarks is an ordered subject → mark mapping with unique, non-empty subject names.
type SubjectMarks []SubjectMark

// NormalizeSubjectMarks trims subject names, drops blank ones and collapses duplicates.
// A repeated subject keeps the position of its first occurrence and the mark of its last.
func NormalizeSubjectMarks(entries []SubjectMark) SubjectMarks {
	out := make(SubjectMarks, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, entry := range entries {
		subject := strings.TrimSpace(entry.Subject)
		if subject == "" {
			continue
		}
		if pos, ok := index[subject]; ok {
			out[pos].Mark = entry.Mark
			continue
		}
		index[subject] = len(out)
		out = append(out, SubjectMark{Subject: subject, Mark: entry.Mark})
	}
	return out
}

// Values returns the marks in subject order.
func (s SubjectMarks) Values() []float64 {
	values := make([]float64, len(s))
	for i, entry := range s {
		values[i] = entry.Mark
	}
	return values
}

// Lookup returns the mark recorded for subject.
func (s SubjectMarks) Lookup(subject string) (float64, bool) {
	for _, entry := range s {
		if entry.Subject == subject {
			return entry.Mark, true
		}
	}
	return 0, false
}

// MarkRecord is one immutable graded submission for a student in a term/year.
type MarkRecord struct {
	ID           int64        `db:"id" json:"id"`
	StudentID    int64        `db:"student_id" json:"student_id"`
	TeacherID    int64        `db:"teacher_id" json:"teacher_id"`
	Term         string       `db:"term" json:"term"`
	Year         int          `db:"year" json:"year"`
	SubjectMarks SubjectMarks `db:"-" json:"subject_marks"`
	Total        float64      `db:"total" json:"total"`
	Average      float64      `db:"average" json:"average"`
	Grade        string       `db:"grade" json:"grade"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// Totals holds the derived fields of a subject mark set.
type Totals struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Grade   string  `json:"grade"`
}

// MarkRecordRow pairs a record with the display name of its student.
type MarkRecordRow struct {
	MarkRecord
	StudentName string `json:"student_name"`
}

// ChildReport groups the records of one linked child for a parent.
type ChildReport struct {
	ChildID   int64        `json:"child_id"`
	ChildName string       `json:"child_name"`
	Records   []MarkRecord `json:"records"`
}

package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/sma-marks-api/internal/models"
)

// MaxGradeLabelLength matches the width of the stored grade column.
const MaxGradeLabelLength = 10

// GradeBand assigns Grade to averages at or above Min.
type GradeBand struct {
	Min   float64
	Grade string
}

// GradeScale maps an average onto a letter grade.
type GradeScale struct {
	bands    []GradeBand
	fallback string
}

// DefaultGradeScale is 80/70/60/50 → A/B/C/D, otherwise F.
func DefaultGradeScale() GradeScale {
	return NewGradeScale([]GradeBand{
		{Min: 80, Grade: "A"},
		{Min: 70, Grade: "B"},
		{Min: 60, Grade: "C"},
		{Min: 50, Grade: "D"},
	}, "F")
}

// NewGradeScale sorts bands by descending threshold so the first match wins.
func NewGradeScale(bands []GradeBand, fallback string) GradeScale {
	sorted := make([]GradeBand, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	return GradeScale{bands: sorted, fallback: fallback}
}

// ParseGradeScale reads "A:80,B:70" style tables.
func ParseGradeScale(raw, fallback string) (GradeScale, error) {
	if err := checkGradeLabel(fallback); err != nil {
		return GradeScale{}, fmt.Errorf("grade fallback: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		scale := DefaultGradeScale()
		if fallback != "" {
			scale.fallback = fallback
		}
		return scale, nil
	}
	var bands []GradeBand
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		grade, threshold, ok := strings.Cut(part, ":")
		grade = strings.TrimSpace(grade)
		if !ok || grade == "" {
			return GradeScale{}, fmt.Errorf("grade band %q: want GRADE:MIN", part)
		}
		min, err := strconv.ParseFloat(strings.TrimSpace(threshold), 64)
		if err != nil {
			return GradeScale{}, fmt.Errorf("grade band %q: %w", part, err)
		}
		if err := checkGradeLabel(grade); err != nil {
			return GradeScale{}, fmt.Errorf("grade band %q: %w", part, err)
		}
		bands = append(bands, GradeBand{Min: min, Grade: grade})
	}
	if fallback == "" {
		fallback = "F"
	}
	return NewGradeScale(bands, fallback), nil
}

func checkGradeLabel(label string) error {
	if n := utf8.RuneCountInString(label); n > MaxGradeLabelLength {
		return fmt.Errorf("label %q has %d characters, at most %d fit", label, n, MaxGradeLabelLength)
	}
	return nil
}

// Bands returns the bands in evaluation order.
func (g GradeScale) Bands() []GradeBand {
	out := make([]GradeBand, len(g.bands))
	copy(out, g.bands)
	return out
}

// Grade returns the first band whose threshold average reaches.
func (g GradeScale) Grade(average float64) string {
	for _, band := range g.bands {
		if average >= band.Min {
			return band.Grade
		}
	}
	return g.fallback
}

// ComputeTotals derives total, average and grade from subject marks.
// The grade uses the unrounded average; total and average are rounded afterwards.
func (g GradeScale) ComputeTotals(marks models.SubjectMarks) models.Totals {
	var total float64
	for _, entry := range marks {
		total += finite(entry.Mark)
	}
	var average float64
	if len(marks) > 0 {
		average = total / float64(len(marks))
	}
	return models.Totals{
		Total:   round2(total),
		Average: round2(average),
		Grade:   g.Grade(average),
	}
}

// round2 rounds half away from zero to two decimal places. From 1e15 up a float64 holds no
// cents, so such values and non-finite ones come back unchanged instead of overflowing v*100.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e15 {
		return v
	}
	return math.Round(v*100) / 100
}

// finiteTotals reports whether the totals can be stored and serialized.
func finiteTotals(t models.Totals) bool {
	return !math.IsNaN(t.Total) && !math.IsInf(t.Total, 0) && !math.IsNaN(t.Average) && !math.IsInf(t.Average, 0)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

package dto

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-marks-api/internal/models"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// LenientFloat accepts numbers, numeric strings and booleans the way web form fields arrive.
// Strings use their leading numeric prefix ("85abc" is 85); anything unparseable is 0.
type LenientFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *LenientFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*f = 0
	case bytes.Equal(data, []byte("true")):
		*f = 1
	case data[0] == '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*f = LenientFloat(ParseLeadingFloat(raw))
	default:
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			v = 0
		}
		*f = LenientFloat(v)
	}
	return nil
}

// ParseLeadingFloat returns the numeric prefix of s, or 0 when there is none.
func ParseLeadingFloat(s string) float64 {
	match := leadingNumber.FindString(strings.TrimLeft(s, " \t\n\r\v\f"))
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

// MarkEntry is one subject row of a submission form.
type MarkEntry struct {
	Subject string       `json:"subject"`
	Mark    LenientFloat `json:"mark"`
}

// SubmitMarksRequest captures POST /marks payload.
type SubmitMarksRequest struct {
	Student string      `json:"student" validate:"required,max=255"`
	Term    string      `json:"term" validate:"max=64"`
	Year    int         `json:"year" validate:"gte=0,lte=9999"`
	Marks   []MarkEntry `json:"marks"`
}

// SubjectMarks converts the rows in submission order.
func (r SubmitMarksRequest) SubjectMarks() models.SubjectMarks {
	marks := make(models.SubjectMarks, 0, len(r.Marks))
	for _, entry := range r.Marks {
		marks = append(marks, models.SubjectMark{Subject: entry.Subject, Mark: float64(entry.Mark)})
	}
	return marks
}

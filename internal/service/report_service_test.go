package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-marks-api/internal/dto"
	"github.com/noah-isme/sma-marks-api/internal/models"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
)

type mockIdentityRepo struct {
	users map[int64]models.Identity
	err   error
}

func (m *mockIdentityRepo) FindByID(ctx context.Context, id int64) (*models.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockIdentityRepo) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockIdentityRepo) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[int64]models.Identity)
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

var (
	teacherActor = models.Actor{ID: 7, DisplayName: "Mr. Okafor", Roles: []string{"teacher"}}
	studentActor = models.Actor{ID: 42, DisplayName: "Ada", Roles: []string{"student"}}
	parentActor  = models.Actor{ID: 10, DisplayName: "Grace", Roles: []string{"parent"}}
	adminActor   = models.Actor{ID: 1, DisplayName: "Admin", Roles: []string{"Administrator"}}
)

type reportFixture struct {
	svc        *ReportService
	marks      *MarkService
	markRepo   *mockMarkRepo
	links      *mockLinkRepo
	identities *mockIdentityRepo
}

func newReportFixture() *reportFixture {
	markRepo := &mockMarkRepo{}
	links := &mockLinkRepo{links: map[int64][]int64{}}
	identities := &mockIdentityRepo{users: map[int64]models.Identity{
		7:  {ID: 7, Email: "okafor@school.test", DisplayName: "Mr. Okafor", Roles: []string{"teacher"}},
		42: {ID: 42, Email: "ada@school.test", DisplayName: "Ada", Roles: []string{"student"}},
		45: {ID: 45, Email: "alan@school.test", Roles: []string{"student"}},
	}}
	access := NewAccessService(nil, links, nil)
	marks := NewMarkService(markRepo, DefaultGradeScale(), nil)
	svc := NewReportService(access, marks, NewIdentityService(identities, nil), links, nil, nil)
	return &reportFixture{svc: svc, marks: marks, markRepo: markRepo, links: links, identities: identities}
}

func (f *reportFixture) seed(t *testing.T, studentID int64, term string, marks models.SubjectMarks) {
	t.Helper()
	_, err := f.marks.Submit(context.Background(), SubmitMarksInput{StudentID: studentID, TeacherID: 7, Term: term, Year: 2024, SubjectMarks: marks})
	require.NoError(t, err)
}

func TestSubmitMarksResolvesStudent(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	req := dto.SubmitMarksRequest{
		Student: "42",
		Term:    " Term 1 ",
		Year:    2024,
		Marks:   []dto.MarkEntry{{Subject: "Math", Mark: 85}, {Subject: "English", Mark: 62}},
	}

	record, err := f.svc.SubmitMarks(ctx, teacherActor, req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.StudentID)
	assert.Equal(t, int64(7), record.TeacherID)
	assert.Equal(t, "Term 1", record.Term)
	assert.Equal(t, 147.0, record.Total)
	assert.Equal(t, 73.5, record.Average)
	assert.Equal(t, "B", record.Grade)

	req.Student = "alan@school.test"
	record, err = f.svc.SubmitMarks(ctx, teacherActor, req)
	require.NoError(t, err)
	assert.Equal(t, int64(45), record.StudentID)
}

func TestSubmitMarksRejectsUnknownStudent(t *testing.T) {
	f := newReportFixture()
	req := dto.SubmitMarksRequest{Student: "999", Marks: []dto.MarkEntry{{Subject: "Math", Mark: 85}}}

	for _, student := range []string{"999", "nobody@school.test", "not a student", "0"} {
		req.Student = student
		_, err := f.svc.SubmitMarks(context.Background(), teacherActor, req)
		require.Error(t, err, student)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), student)
		assert.Contains(t, err.Error(), "invalid student", student)
	}
	assert.Empty(t, f.markRepo.records)
}

func TestSubmitMarksRequiresTeacher(t *testing.T) {
	f := newReportFixture()
	req := dto.SubmitMarksRequest{Student: "42", Marks: []dto.MarkEntry{{Subject: "Math", Mark: 85}}}

	_, err := f.svc.SubmitMarks(context.Background(), studentActor, req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = f.svc.SubmitMarks(context.Background(), teacherActor, dto.SubmitMarksRequest{Student: "42"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.SubmitMarks(context.Background(), teacherActor, dto.SubmitMarksRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubmitMarksSurfacesDirectoryFailure(t *testing.T) {
	f := newReportFixture()
	f.identities.err = errors.New("directory offline")

	_, err := f.svc.SubmitMarks(context.Background(), teacherActor, dto.SubmitMarksRequest{Student: "42", Marks: []dto.MarkEntry{{Subject: "Math", Mark: 1}}})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrStorage))
}

func TestStudentReports(t *testing.T) {
	f := newReportFixture()
	f.seed(t, 42, "Term 1", models.SubjectMarks{{Subject: "Math", Mark: 85}})
	f.seed(t, 45, "Term 1", models.SubjectMarks{{Subject: "Math", Mark: 40}})

	records, err := f.svc.StudentReports(context.Background(), studentActor)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(42), records[0].StudentID)

	_, err = f.svc.StudentReports(context.Background(), parentActor)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestParentReports(t *testing.T) {
	f := newReportFixture()
	f.links.links[parentActor.ID] = []int64{42, 99, 45}
	f.seed(t, 42, "Term 1", models.SubjectMarks{{Subject: "Math", Mark: 85}})

	reports, err := f.svc.ParentReports(context.Background(), parentActor)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, int64(42), reports[0].ChildID)
	assert.Equal(t, "Ada", reports[0].ChildName)
	assert.Len(t, reports[0].Records, 1)
	assert.Equal(t, "ID 45", reports[1].ChildName)
	assert.Empty(t, reports[1].Records)
}

func TestParentReportsWithoutLinks(t *testing.T) {
	f := newReportFixture()

	reports, err := f.svc.ParentReports(context.Background(), parentActor)
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
}

func TestParentReportsDeniedForStudent(t *testing.T) {
	f := newReportFixture()
	f.links.links[studentActor.ID] = []int64{45}

	reports, err := f.svc.ParentReports(context.Background(), studentActor)
	require.Error(t, err)
	assert.Nil(t, reports)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Equal(t, "you do not have permission to view parent reports", appErrors.FromError(err).Message)
}

func TestAllReportsAddsStudentNames(t *testing.T) {
	f := newReportFixture()
	f.seed(t, 42, "Term 1", models.SubjectMarks{{Subject: "Math", Mark: 85}})
	f.seed(t, 77, "Term 1", models.SubjectMarks{{Subject: "Math", Mark: 55}})

	rows, err := f.svc.AllReports(context.Background(), adminActor)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID 77", rows[0].StudentName)
	assert.Equal(t, "Ada", rows[1].StudentName)

	_, err = f.svc.AllReports(context.Background(), teacherActor)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestAllReportsEmpty(t *testing.T) {
	f := newReportFixture()

	rows, err := f.svc.AllReports(context.Background(), adminActor)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestStudentReportsFor(t *testing.T) {
	f := newReportFixture()

	records, err := f.svc.StudentReportsFor(context.Background(), adminActor, 45)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = f.svc.StudentReportsFor(context.Background(), adminActor, 404)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.StudentReportsFor(context.Background(), studentActor, 42)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestLinkChildren(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()

	link, err := f.svc.LinkChildren(ctx, adminActor, 10, []int64{23, 45, 23, -1, 0})
	require.NoError(t, err)
	assert.Equal(t, []int64{23, 45}, link.ChildIDs)

	link, err = f.svc.LinkChildren(ctx, adminActor, 10, []int64{56})
	require.NoError(t, err)
	assert.Equal(t, []int64{56}, f.links.links[10])

	read, err := f.svc.LinkedChildren(ctx, adminActor, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{56}, read.ChildIDs)
	assert.Equal(t, link.ChildIDs, read.ChildIDs)

	_, err = f.svc.LinkChildren(ctx, adminActor, 0, []int64{1})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, err = f.svc.LinkChildren(ctx, adminActor, 10, []int64{0, -3})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, err = f.svc.LinkChildren(ctx, parentActor, 10, []int64{1})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	f.links.err = errors.New("write failed")
	_, err = f.svc.LinkChildren(ctx, adminActor, 10, []int64{1})
	assert.True(t, appErrors.Is(err, appErrors.ErrStorage))
}

func TestParseChildIDs(t *testing.T) {
	assert.Equal(t, []int64{23, 45, 56}, ParseChildIDs("23,45,56"))
	assert.Equal(t, []int64{23, 56}, ParseChildIDs(" 23 , abc, 56,23,-4,0,"))
	assert.Empty(t, ParseChildIDs(""))
}

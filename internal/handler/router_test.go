package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-marks-api/internal/models"
	"github.com/noah-isme/sma-marks-api/internal/service"
	"github.com/noah-isme/sma-marks-api/pkg/config"
)

type memoryStore struct {
	mu      sync.Mutex
	records []models.MarkRecord
	links   map[int64][]int64
	users   map[int64]models.Identity
}

func (m *memoryStore) Append(ctx context.Context, record *models.MarkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = int64(len(m.records) + 1)
	record.CreatedAt = time.Unix(record.ID, 0).UTC()
	m.records = append([]models.MarkRecord{*record}, m.records...)
	return nil
}

func (m *memoryStore) ListByStudent(ctx context.Context, studentID int64) ([]models.MarkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.MarkRecord{}
	for _, record := range m.records {
		if record.StudentID == studentID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *memoryStore) ListAll(ctx context.Context) ([]models.MarkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MarkRecord{}, m.records...), nil
}

func (m *memoryStore) ChildrenOf(ctx context.Context, parentID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[parentID], nil
}

func (m *memoryStore) Replace(ctx context.Context, link *models.ParentChildLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[link.ParentID] = link.ChildIDs
	return nil
}

func (m *memoryStore) FindByID(ctx context.Context, id int64) (*models.Identity, error) {
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Identity, error) {
	out := make(map[int64]models.Identity)
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

type testServer struct {
	router *gin.Engine
	auth   *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := &memoryStore{
		links: map[int64][]int64{},
		users: map[int64]models.Identity{
			42: {ID: 42, Email: "ada@school.test", DisplayName: "Ada", Roles: []string{"student"}},
		},
	}
	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1", Metrics: config.MetricsConfig{Enabled: true}}
	metrics := service.NewMetricsService()
	auth := service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: "secret"})
	access := service.NewAccessService(nil, store, nil)
	marks := service.NewMarkService(store, service.DefaultGradeScale(), nil, service.WithMarkMetrics(metrics))
	reports := service.NewReportService(access, marks, service.NewIdentityService(store, nil), store, nil, nil)

	router := NewRouter(RouterDeps{
		Config:    cfg,
		Auth:      auth,
		Access:    access,
		Metrics:   metrics,
		Reports:   reports,
		Exports:   service.NewExportService(reports, nil),
		Dashboard: service.NewDashboardService(access, nil),
	})
	return &testServer{router: router, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path string, identity *models.Identity, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		token, _, err := s.auth.IssueToken(*identity)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

var (
	teacherIdentity = &models.Identity{ID: 7, DisplayName: "Mr. Okafor", Roles: []string{"teacher"}}
	studentIdentity = &models.Identity{ID: 42, DisplayName: "Ada", Roles: []string{"student"}}
	parentIdentity  = &models.Identity{ID: 10, DisplayName: "Grace", Roles: []string{"parent"}}
	adminIdentity   = &models.Identity{ID: 1, DisplayName: "Admin", Roles: []string{"administrator"}}
)

func TestRouterMarksFlow(t *testing.T) {
	s := newTestServer(t)

	submit := map[string]interface{}{
		"student": "ada@school.test",
		"term":    "Term 1",
		"year":    2024,
		"marks":   []map[string]interface{}{{"subject": "Math", "mark": 85}, {"subject": "English", "mark": 62}},
	}
	w := s.do(t, http.MethodPost, "/api/v1/marks", teacherIdentity, submit)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/marks", studentIdentity, submit)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/reports/me", studentIdentity, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	var records []models.MarkRecord
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, 147.0, records[0].Total)
	assert.Equal(t, 73.5, records[0].Average)
	assert.Equal(t, "B", records[0].Grade)
	assert.Equal(t, float64(1), env.Meta["count"])

	w = s.do(t, http.MethodGet, "/api/v1/reports", parentIdentity, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/reports/children", parentIdentity, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(decode(t, w).Data))

	w = s.do(t, http.MethodPut, "/api/v1/admin/parents/10/children", parentIdentity, map[string]string{"child_ids_raw": "42"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/admin/parents/10/children", adminIdentity, map[string]string{"child_ids_raw": "42, 99"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/reports/children", parentIdentity, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var children []models.ChildReport
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &children))
	require.Len(t, children, 1)
	assert.Equal(t, "Ada", children[0].ChildName)
	assert.Len(t, children[0].Records, 1)

	w = s.do(t, http.MethodGet, "/api/v1/reports/export?scope=all&format=csv", adminIdentity, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ada,Term 1,2024")
}

func TestRouterRequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/dashboard", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAPIPrefix(t *testing.T) {
	assert.Equal(t, "/api/v1", apiPrefix("api/v1/"))
	assert.Equal(t, "", apiPrefix("/"))
	assert.Equal(t, "", apiPrefix(""))
}

package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-marks-api/internal/models"
	"github.com/noah-isme/sma-marks-api/internal/service"
)

func TestDashboardHandlerShow(t *testing.T) {
	h := NewDashboardHandler(service.NewDashboardService(service.NewAccessService(nil, nil, nil), nil))

	c, w := newGinContext(http.MethodGet, "/dashboard", nil)
	withActor(c, 10, "parent")
	h.Show(c)

	require.Equal(t, http.StatusOK, w.Code)
	var dashboard models.Dashboard
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &dashboard))
	assert.True(t, dashboard.CanViewChildren)
	assert.False(t, dashboard.CanSubmitMarks)
	assert.Equal(t, "Caller", dashboard.DisplayName)
}

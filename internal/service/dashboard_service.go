package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/sma-marks-api/internal/models"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
)

// DashboardService tells a caller which report areas are open to them.
type DashboardService struct {
	access *AccessService
	logger *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(access *AccessService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{access: access, logger: logger}
}

// Dashboard returns the caller's capability flags.
func (s *DashboardService) Dashboard(actor models.Actor) (*models.Dashboard, error) {
	if actor.ID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing user context")
	}
	name := actor.DisplayName
	if name == "" {
		name = models.FallbackName(actor.ID)
	}
	return &models.Dashboard{
		UserID:            actor.ID,
		DisplayName:       name,
		CanSubmitMarks:    s.access.TeacherCanSubmit(actor.Roles),
		CanViewOwn:        s.access.StudentCanViewOwn(actor.Roles),
		CanViewChildren:   s.access.ParentCanViewChildren(actor.Roles),
		CanViewAllReports: s.access.AdminCanViewAll(actor.Roles),
	}, nil
}

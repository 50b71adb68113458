package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-marks-api/internal/models"
	"github.com/noah-isme/sma-marks-api/pkg/config"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
)

// Capability names an action gated by a role allow-list.
type Capability string

const (
	CapabilitySubmitMarks  Capability = "submit_marks"
	CapabilityViewOwn      Capability = "view_own_reports"
	CapabilityViewChildren Capability = "view_children_reports"
	CapabilityViewAll      Capability = "view_all_reports"
)

type parentLinkReader interface {
	ChildrenOf(ctx context.Context, parentID int64) ([]int64, error)
}

// RoleSet is a case-insensitive set of role spellings.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet, ignoring blank entries.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		if key := normalizeRole(role); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// Intersects reports whether any of roles is in the set.
func (s RoleSet) Intersects(roles []string) bool {
	for _, role := range roles {
		if _, ok := s[normalizeRole(role)]; ok {
			return true
		}
	}
	return false
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// AccessPolicy holds the allow-list for every capability.
type AccessPolicy map[Capability]RoleSet

// DefaultAccessPolicy mirrors the role spellings recognised by the membership plugin.
func DefaultAccessPolicy() AccessPolicy {
	return AccessPolicy{
		CapabilitySubmitMarks:  NewRoleSet(models.RoleTeacher, models.RoleAdministrator, "um_teacher"),
		CapabilityViewOwn:      NewRoleSet(models.RoleStudent, models.RoleAdministrator, "um_student"),
		CapabilityViewChildren: NewRoleSet(models.RoleParent, models.RoleAdministrator, "um_parent"),
		CapabilityViewAll:      NewRoleSet(models.RoleAdministrator, "manage_options"),
	}
}

// AccessPolicyFromConfig overrides the defaults with configured allow-lists.
func AccessPolicyFromConfig(cfg config.AccessConfig) AccessPolicy {
	policy := DefaultAccessPolicy()
	override := func(capability Capability, roles []string) {
		if len(roles) > 0 {
			policy[capability] = NewRoleSet(roles...)
		}
	}
	override(CapabilitySubmitMarks, cfg.TeacherRoles)
	override(CapabilityViewOwn, cfg.StudentRoles)
	override(CapabilityViewChildren, cfg.ParentRoles)
	override(CapabilityViewAll, cfg.AdminRoles)
	return policy
}

// AccessService decides what a caller may request.
type AccessService struct {
	policy AccessPolicy
	links  parentLinkReader
	logger *zap.Logger
}

// NewAccessService constructs AccessService.
func NewAccessService(policy AccessPolicy, links parentLinkReader, logger *zap.Logger) *AccessService {
	if policy == nil {
		policy = DefaultAccessPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{policy: policy, links: links, logger: logger}
}

// Can reports whether roles grant capability.
func (s *AccessService) Can(capability Capability, roles []string) bool {
	set, ok := s.policy[capability]
	return ok && set.Intersects(roles)
}

// Require returns PermissionDenied unless actor holds capability.
func (s *AccessService) Require(actor models.Actor, capability Capability) error {
	if s.Can(capability, actor.Roles) {
		return nil
	}
	s.logger.Debug("capability denied", zap.Int64("actor_id", actor.ID), zap.String("capability", string(capability)), zap.Strings("roles", actor.Roles))
	return appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to "+describe(capability))
}

func (s *AccessService) TeacherCanSubmit(roles []string) bool {
	return s.Can(CapabilitySubmitMarks, roles)
}

func (s *AccessService) StudentCanViewOwn(roles []string) bool {
	return s.Can(CapabilityViewOwn, roles)
}

func (s *AccessService) ParentCanViewChildren(roles []string) bool {
	return s.Can(CapabilityViewChildren, roles)
}

func (s *AccessService) AdminCanViewAll(roles []string) bool {
	return s.Can(CapabilityViewAll, roles)
}

// ResolveChildrenOf returns the students linked to parentID; none configured is not an error.
func (s *AccessService) ResolveChildrenOf(ctx context.Context, parentID int64) ([]int64, error) {
	if s.links == nil {
		return []int64{}, nil
	}
	children, err := s.links.ChildrenOf(ctx, parentID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load linked children")
	}
	if children == nil {
		children = []int64{}
	}
	return children, nil
}

func describe(capability Capability) string {
	switch capability {
	case CapabilitySubmitMarks:
		return "upload marks"
	case CapabilityViewOwn:
		return "view student reports"
	case CapabilityViewChildren:
		return "view parent reports"
	case CapabilityViewAll:
		return "view all reports"
	default:
		return string(capability)
	}
}

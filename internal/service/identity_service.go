package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-marks-api/internal/models"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
)

type identityRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Identity, error)
}

// IdentityService resolves free-text identifiers against the identity directory.
type IdentityService struct {
	repo   identityRepository
	logger *zap.Logger
}

// NewIdentityService constructs IdentityService.
func NewIdentityService(repo identityRepository, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{repo: repo, logger: logger}
}

// Resolve maps a numeric id or an email address to a known identity.
func (s *IdentityService) Resolve(ctx context.Context, identifier string) (*models.Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "identifier is required")
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		if id <= 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return s.Find(ctx, id)
	}

	if !strings.Contains(identifier, "@") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "identifier must be a user id or email")
	}
	identity, err := s.repo.FindByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Storage(err, "failed to resolve user")
	}
	return identity, nil
}

// Find returns the identity with id.
func (s *IdentityService) Find(ctx context.Context, id int64) (*models.Identity, error) {
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Storage(err, "failed to load user")
	}
	return identity, nil
}

// Known returns the subset of ids present in the directory.
func (s *IdentityService) Known(ctx context.Context, ids []int64) (map[int64]models.Identity, error) {
	identities, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load users")
	}
	return identities, nil
}

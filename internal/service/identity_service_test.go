package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-marks-api/internal/models"
	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
)

func TestIdentityResolve(t *testing.T) {
	repo := &mockIdentityRepo{users: map[int64]models.Identity{42: {ID: 42, Email: "ada@school.test"}}}
	svc := NewIdentityService(repo, nil)
	ctx := context.Background()

	identity, err := svc.Resolve(ctx, " 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.ID)

	identity, err = svc.Resolve(ctx, "ada@school.test")
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.ID)

	_, err = svc.Resolve(ctx, "43")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	_, err = svc.Resolve(ctx, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, err = svc.Resolve(ctx, "ada")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	repo.err = errors.New("offline")
	_, err = svc.Resolve(ctx, "42")
	assert.True(t, appErrors.Is(err, appErrors.ErrStorage))
	_, err = svc.Known(ctx, []int64{42})
	assert.True(t, appErrors.Is(err, appErrors.ErrStorage))
}

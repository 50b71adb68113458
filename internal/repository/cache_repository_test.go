package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/sma-marks-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "marks")
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "student:1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "student:1", []string{"x"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "student:1"))
	assert.NoError(t, repo.Close())
	assert.Equal(t, "marks:student:1", repo.key("student:1"))
}

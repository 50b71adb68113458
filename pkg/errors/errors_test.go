package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := fmt.Errorf("outer: %w", Clone(ErrForbidden, "cannot view"))
	appErr := FromError(err)
	assert.Equal(t, ErrForbidden.Code, appErr.Code)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "cannot view", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestStorageAndIs(t *testing.T) {
	err := Storage(sql.ErrTxDone, "failed to append marks")
	assert.True(t, Is(err, ErrStorage))
	assert.False(t, Is(err, ErrValidation))
	assert.False(t, Is(sql.ErrTxDone, ErrStorage))
	assert.Equal(t, "failed to append marks: "+sql.ErrTxDone.Error(), err.Error())
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	clone := Clone(ErrValidation, "no marks supplied")
	assert.Equal(t, "no marks supplied", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

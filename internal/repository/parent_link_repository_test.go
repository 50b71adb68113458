package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-marks-api/internal/models"
)

func TestParentLinkRepositoryChildrenOf(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewParentLinkRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT parent_id, child_ids, updated_at FROM parent_child_links WHERE parent_id = $1")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"parent_id", "child_ids", "updated_at"}).AddRow(int64(10), "{23,45,56}", time.Now()))

	children, err := repo.ChildrenOf(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{23, 45, 56}, children)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParentLinkRepositoryChildrenOfMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewParentLinkRepository(db)

	mock.ExpectQuery("FROM parent_child_links").WithArgs(int64(11)).WillReturnError(sql.ErrNoRows)

	children, err := repo.ChildrenOf(context.Background(), 11)
	require.NoError(t, err)
	assert.Empty(t, children)

	mock.ExpectQuery("FROM parent_child_links").WithArgs(int64(11)).WillReturnError(sql.ErrNoRows)
	_, err = repo.Find(context.Background(), 11)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParentLinkRepositoryReplace(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewParentLinkRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO parent_child_links (parent_id, child_ids, updated_at) VALUES ($1, $2, $3)")).
		WithArgs(int64(10), pq.Array([]int64{23, 45}), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	link := &models.ParentChildLink{ParentID: 10, ChildIDs: []int64{23, 45}}
	require.NoError(t, repo.Replace(context.Background(), link))
	assert.False(t, link.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

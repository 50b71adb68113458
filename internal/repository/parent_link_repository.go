package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-marks-api/internal/models"
)

// ParentLinkRepository stores one child set per parent.
type ParentLinkRepository struct {
	db *sqlx.DB
}

// NewParentLinkRepository creates a new instance of ParentLinkRepository.
func NewParentLinkRepository(db *sqlx.DB) *ParentLinkRepository {
	return &ParentLinkRepository{db: db}
}

// Find returns the current link for parentID or sql.ErrNoRows.
func (r *ParentLinkRepository) Find(ctx context.Context, parentID int64) (*models.ParentChildLink, error) {
	const query = `SELECT parent_id, child_ids, updated_at FROM parent_child_links WHERE parent_id = $1`
	var (
		link     models.ParentChildLink
		children pq.Int64Array
	)
	if err := r.db.QueryRowxContext(ctx, query, parentID).Scan(&link.ParentID, &children, &link.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find parent link: %w", err)
	}
	link.ChildIDs = []int64(children)
	if link.ChildIDs == nil {
		link.ChildIDs = []int64{}
	}
	return &link, nil
}

// ChildrenOf returns the linked children, empty when the parent has no link.
func (r *ParentLinkRepository) ChildrenOf(ctx context.Context, parentID int64) ([]int64, error) {
	link, err := r.Find(ctx, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []int64{}, nil
		}
		return nil, err
	}
	return link.ChildIDs, nil
}

// Replace overwrites the parent's child set in a single statement.
func (r *ParentLinkRepository) Replace(ctx context.Context, link *models.ParentChildLink) error {
	if link.UpdatedAt.IsZero() {
		link.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO parent_child_links (parent_id, child_ids, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (parent_id) DO UPDATE SET child_ids = EXCLUDED.child_ids, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, link.ParentID, pq.Array(link.ChildIDs), link.UpdatedAt); err != nil {
		return fmt.Errorf("replace parent link: %w", err)
	}
	return nil
}

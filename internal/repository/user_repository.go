package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-marks-api/internal/models"
)

const identityColumns = `id, email, display_name, roles, created_at`

// UserRepository reads the identity directory maintained by the external membership system.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type identityRow struct {
	ID          int64          `db:"id"`
	Email       string         `db:"email"`
	DisplayName string         `db:"display_name"`
	Roles       pq.StringArray `db:"roles"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (row identityRow) identity() models.Identity {
	roles := []string(row.Roles)
	if roles == nil {
		roles = []string{}
	}
	return models.Identity{ID: row.ID, Email: row.Email, DisplayName: row.DisplayName, Roles: roles, CreatedAt: row.CreatedAt}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var row identityRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	identity := row.identity()
	return &identity, nil
}

// FindByEmail returns a user by email address, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM users WHERE LOWER(email) = $1 LIMIT 1`
	var row identityRow
	if err := r.db.GetContext(ctx, &row, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	identity := row.identity()
	return &identity, nil
}

// FindByIDs returns the known users among ids keyed by id. Unknown ids are absent.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Identity, error) {
	result := make(map[int64]models.Identity, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := `SELECT ` + identityColumns + ` FROM users WHERE id = ANY($1)`
	var rows []identityRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	for _, row := range rows {
		result[row.ID] = row.identity()
	}
	return result, nil
}

// Upsert registers or refreshes a directory entry. Used by the admin tool to mirror external users.
func (r *UserRepository) Upsert(ctx context.Context, identity *models.Identity) error {
	const query = `INSERT INTO users (id, email, display_name, roles) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name, roles = EXCLUDED.roles
RETURNING created_at`
	if err := r.db.QueryRowxContext(ctx, query, identity.ID, identity.Email, identity.DisplayName, pq.Array(identity.Roles)).Scan(&identity.CreatedAt); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

package counselor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// counselorDB defines the database interface needed by the repository.
type counselorDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository reads and updates the counselor directory.
type Repository struct {
	db counselorDB
}

// NewRepository creates a directory repository backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("counselor: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db counselorDB) *Repository {
	return &Repository{db: db}
}

// GetByID fetches a counselor by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Counselor, error) {
	query := `
		SELECT id, user_id, org_id, specializations, license_number,
			   license_type, is_available, max_concurrent_cases, created_at
		FROM counselors
		WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	var c Counselor
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.OrgID,
		&c.Specializations,
		&c.LicenseNumber,
		&c.LicenseType,
		&c.IsAvailable,
		&c.MaxConcurrentCases,
		&c.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("counselor: select failed: %w", err)
	}
	return &c, nil
}

// ListByOrg returns counselors in an organization. An empty orgID returns the
// full directory (superuser view).
func (r *Repository) ListByOrg(ctx context.Context, orgID string) ([]*Counselor, error) {
	query := `
		SELECT id, user_id, org_id, specializations, license_number,
			   license_type, is_available, max_concurrent_cases, created_at
		FROM counselors
	`
	var args []any
	if orgID != "" {
		query += " WHERE org_id = $1"
		args = append(args, orgID)
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counselor: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Counselor
	for rows.Next() {
		var c Counselor
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.OrgID, &c.Specializations, &c.LicenseNumber,
			&c.LicenseType, &c.IsAvailable, &c.MaxConcurrentCases, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("counselor: scan failed: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// SetAvailability toggles whether a counselor receives new assignments.
func (r *Repository) SetAvailability(ctx context.Context, id string, available bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE counselors SET is_available = $1 WHERE id = $2`, available, id)
	if err != nil {
		return fmt.Errorf("counselor: update availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PickAssignee chooses the available counselor in the org with the fewest open
// pending items, skipping anyone at their max_concurrent_cases cap. Returns an
// empty id when nobody can take the case; the item is then left unassigned
// for supervisor pickup.
func (r *Repository) PickAssignee(ctx context.Context, orgID string) (string, error) {
	query := `
		SELECT c.id
		FROM counselors c
		LEFT JOIN pending_responses p
			ON p.assigned_counselor_id = c.id AND p.status = 'pending'
		WHERE c.org_id = $1 AND c.is_available
		GROUP BY c.id, c.max_concurrent_cases
		HAVING COUNT(p.id) < c.max_concurrent_cases
		ORDER BY COUNT(p.id) ASC, c.id ASC
		LIMIT 1
	`
	var id string
	if err := r.db.QueryRow(ctx, query, orgID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("counselor: pick assignee: %w", err)
	}
	return id, nil
}

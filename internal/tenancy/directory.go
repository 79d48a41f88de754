package tenancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrOrgNotFound is returned when the organization does not exist.
var ErrOrgNotFound = errors.New("organization not found")

// Organization is a tenant on the platform.
type Organization struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SupervisorEmail string    `json:"supervisor_email"`
	SupervisorName  string    `json:"supervisor_name"`
	CreatedAt       time.Time `json:"created_at"`
}

// orgDB defines the database interface needed by the directory.
type orgDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Directory resolves organization records, including the supervising contact
// that receives escalation notices.
type Directory struct {
	db orgDB
}

// NewDirectory creates an organization directory backed by pgxpool.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	if pool == nil {
		panic("tenancy: pgx pool required")
	}
	return &Directory{db: pool}
}

// NewDirectoryWithDB allows injecting a mock database for testing.
func NewDirectoryWithDB(db orgDB) *Directory {
	return &Directory{db: db}
}

// GetByID fetches an organization by id.
func (d *Directory) GetByID(ctx context.Context, id string) (*Organization, error) {
	query := `
		SELECT id, name, supervisor_email, supervisor_name, created_at
		FROM organizations
		WHERE id = $1
	`
	var org Organization
	err := d.db.QueryRow(ctx, query, id).Scan(
		&org.ID, &org.Name, &org.SupervisorEmail, &org.SupervisorName, &org.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("tenancy: get organization: %w", err)
	}
	return &org, nil
}

// SupervisorEmail returns the supervising contact for an organization. An org
// with no contact configured returns empty values, not an error.
func (d *Directory) SupervisorEmail(ctx context.Context, orgID string) (string, string, error) {
	org, err := d.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, ErrOrgNotFound) {
			return "", "", nil
		}
		return "", "", err
	}
	return org.SupervisorEmail, org.SupervisorName, nil
}

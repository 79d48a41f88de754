package counselor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func TestRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM counselors`).
		WithArgs("couns-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "org_id", "specializations", "license_number",
			"license_type", "is_available", "max_concurrent_cases", "created_at",
		}).AddRow(
			"couns-1", "user-1", "org-1", []string{"trauma", "adolescent"},
			"LIC-9931", "LCSW", true, 10, now,
		))

	repo := NewRepositoryWithDB(mock)
	c, err := repo.GetByID(context.Background(), "couns-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if c.OrgID != "org-1" {
		t.Errorf("OrgID = %q, want org-1", c.OrgID)
	}
	if len(c.Specializations) != 2 || c.Specializations[0] != "trauma" {
		t.Errorf("Specializations = %v", c.Specializations)
	}
	if c.MaxConcurrentCases != 10 {
		t.Errorf("MaxConcurrentCases = %d, want 10", c.MaxConcurrentCases)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT (.+) FROM counselors`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	repo := NewRepositoryWithDB(mock)
	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRepository_SetAvailability_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`UPDATE counselors SET is_available`).
		WithArgs(false, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRepositoryWithDB(mock)
	err = repo.SetAvailability(context.Background(), "missing", false)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRepository_PickAssignee_NobodyAvailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT c.id`).
		WithArgs("org-1").
		WillReturnError(pgx.ErrNoRows)

	repo := NewRepositoryWithDB(mock)
	id, err := repo.PickAssignee(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("PickAssignee failed: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty (unassigned)", id)
	}
}

func TestRepository_PickAssignee(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT c.id`).
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("couns-2"))

	repo := NewRepositoryWithDB(mock)
	id, err := repo.PickAssignee(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("PickAssignee failed: %v", err)
	}
	if id != "couns-2" {
		t.Errorf("id = %q, want couns-2", id)
	}
}

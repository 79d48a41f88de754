package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/havenmind/counselor-platform/internal/counselor"
	httpmiddleware "github.com/havenmind/counselor-platform/internal/http/middleware"
	"github.com/havenmind/counselor-platform/internal/review"
)

const testSecret = "router-test-secret"

func signTestToken(t *testing.T, counselorID, role string) string {
	t.Helper()
	claims := httpmiddleware.SessionClaims{
		UserID:      "user-1",
		CounselorID: counselorID,
		OrgID:       "org-1",
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func newTestRouter(t *testing.T) (http.Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	engine := review.NewEngineWithDB(mock, nil, nil, nil)
	cfg := &Config{
		ReviewHandler:    review.NewHandler(engine, 24*time.Hour, nil),
		CounselorHandler: counselor.NewHandler(counselor.NewRepositoryWithDB(mock), nil),
		SessionSecret:    testSecret,
	}
	return New(cfg), mock
}

func TestRouterHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestRouterReviewRequiresSession(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/review/queue", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRouterReviewQueueWithToken(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(`SELECT (.+) FROM pending_responses`).
		WithArgs("couns-1", review.StatusPending, 50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "conversation_id", "user_id", "soul_id", "org_id", "original_text",
			"status", "priority", "assigned_counselor_id", "created_at",
			"decided_at", "decision_notes", "final_text",
		}))

	req := httptest.NewRequest(http.MethodGet, "/review/queue", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "couns-1", "counselor"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRouterAdminRequiresAdminRole(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/auto-approve-expired", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "couns-1", "counselor"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRouterAdminSetAvailability(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec(`UPDATE counselors SET is_available`).
		WithArgs(true, "couns-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	req := httptest.NewRequest(http.MethodPatch, "/admin/counselors/couns-1/availability",
		strings.NewReader(`{"is_available": true}`))
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "", "admin"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"counselor_id":"couns-1"`) {
		t.Fatalf("body = %s, want counselor id echoed", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRouterIntakeRouteAbsentWithoutHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages/assess", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

package review

import (
	"context"
	"math"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func TestEngine_CounselorPerformance(t *testing.T) {
	engine, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT action_type, COUNT\(\*\)`).
		WithArgs("couns-1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"action_type", "count", "avg"}).
			AddRow(ActionApprove, 6, 100.0).
			AddRow(ActionAutoApprove, 2, 50.0).
			AddRow(ActionModify, 1, 200.0).
			AddRow(ActionReject, 1, 400.0))
	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM pending_responses`).
		WithArgs("couns-1", StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	m, err := engine.CounselorPerformance(context.Background(), "couns-1", 10)
	if err != nil {
		t.Fatalf("CounselorPerformance failed: %v", err)
	}

	if m.TotalCasesReviewed != 10 {
		t.Errorf("TotalCasesReviewed = %d, want 10", m.TotalCasesReviewed)
	}
	if m.Approvals != 8 {
		t.Errorf("Approvals = %d, want 8 (approve + auto_approve)", m.Approvals)
	}
	if m.Modifications != 1 || m.Rejections != 1 {
		t.Errorf("Modifications = %d, Rejections = %d", m.Modifications, m.Rejections)
	}
	if math.Abs(m.ApprovalRate-0.8) > 1e-9 {
		t.Errorf("ApprovalRate = %f, want 0.8", m.ApprovalRate)
	}
	// (6*100 + 2*50 + 1*200 + 1*400) / 10 = 130
	if math.Abs(m.AverageReviewTimeSeconds-130) > 1e-9 {
		t.Errorf("AverageReviewTimeSeconds = %f, want 130", m.AverageReviewTimeSeconds)
	}
	if m.CurrentQueueSize != 3 {
		t.Errorf("CurrentQueueSize = %d, want 3", m.CurrentQueueSize)
	}
	if math.Abs(m.CasesPerDay-1.0) > 1e-9 {
		t.Errorf("CasesPerDay = %f, want 1.0", m.CasesPerDay)
	}
}

func TestEngine_CounselorPerformance_ZeroCases(t *testing.T) {
	engine, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT action_type, COUNT\(\*\)`).
		WithArgs("couns-1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"action_type", "count", "avg"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM pending_responses`).
		WithArgs("couns-1", StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	m, err := engine.CounselorPerformance(context.Background(), "couns-1", 30)
	if err != nil {
		t.Fatalf("CounselorPerformance failed: %v", err)
	}
	if m.ApprovalRate != 0 {
		t.Errorf("ApprovalRate = %f, want 0 with no decided cases", m.ApprovalRate)
	}
	if m.AverageReviewTimeSeconds != 0 || m.CasesPerDay != 0 {
		t.Errorf("averages not zero: %+v", m)
	}
}

func TestEngine_OrgPerformance(t *testing.T) {
	engine, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT action_type, COUNT\(\*\)`).
		WithArgs(pgxmock.AnyArg(), "org-1").
		WillReturnRows(pgxmock.NewRows([]string{"action_type", "count", "avg"}).
			AddRow(ActionApprove, 4, 60.0).
			AddRow(ActionEscalate, 1, 30.0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM pending_responses`).
		WithArgs(StatusPending, "org-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	m, err := engine.OrgPerformance(context.Background(), "org-1", 30)
	if err != nil {
		t.Fatalf("OrgPerformance failed: %v", err)
	}
	if m.TotalCasesReviewed != 5 || m.Escalations != 1 {
		t.Errorf("TotalCasesReviewed = %d, Escalations = %d", m.TotalCasesReviewed, m.Escalations)
	}
	if m.CurrentQueueSize != 7 {
		t.Errorf("CurrentQueueSize = %d, want 7", m.CurrentQueueSize)
	}
}

func TestEngine_OrgPerformance_AllOrganizations(t *testing.T) {
	engine, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT action_type, COUNT\(\*\)`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"action_type", "count", "avg"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM pending_responses`).
		WithArgs(StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	if _, err := engine.OrgPerformance(context.Background(), "", 0); err != nil {
		t.Fatalf("OrgPerformance failed: %v", err)
	}
}

package review

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CounselorPerformance aggregates a counselor's decisions over the trailing
// window. A window with zero decided cases reports an approval rate of 0.
func (e *Engine) CounselorPerformance(ctx context.Context, counselorID string, days int) (*Metrics, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	m := &Metrics{CounselorID: counselorID, PeriodDays: days}
	query := `
		SELECT action_type, COUNT(*), COALESCE(AVG(time_to_decision_seconds), 0)
		FROM counselor_actions
		WHERE counselor_id = $1 AND created_at > $2
		GROUP BY action_type
	`
	if err := e.aggregateActions(ctx, m, query, counselorID, since); err != nil {
		return nil, err
	}

	queueQuery := `
		SELECT COUNT(*)
		FROM pending_responses
		WHERE assigned_counselor_id = $1 AND status = $2
	`
	if err := e.db.QueryRow(ctx, queueQuery, counselorID, StatusPending).Scan(&m.CurrentQueueSize); err != nil {
		return nil, fmt.Errorf("review: count counselor queue: %w", err)
	}
	return m, nil
}

// OrgPerformance aggregates decisions across an organization, including the
// automatic expiry approvals. An empty orgID spans all organizations.
func (e *Engine) OrgPerformance(ctx context.Context, orgID string, days int) (*Metrics, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	m := &Metrics{OrgID: orgID, PeriodDays: days}

	var sb strings.Builder
	sb.WriteString(`
		SELECT action_type, COUNT(*), COALESCE(AVG(time_to_decision_seconds), 0)
		FROM counselor_actions
		WHERE created_at > $1`)
	args := []any{since}
	if orgID != "" {
		args = append(args, orgID)
		fmt.Fprintf(&sb, " AND org_id = $%d", len(args))
	}
	sb.WriteString(" GROUP BY action_type")
	if err := e.aggregateActions(ctx, m, sb.String(), args...); err != nil {
		return nil, err
	}

	var qb strings.Builder
	qb.WriteString(`SELECT COUNT(*) FROM pending_responses WHERE status = $1`)
	qargs := []any{StatusPending}
	if orgID != "" {
		qargs = append(qargs, orgID)
		fmt.Fprintf(&qb, " AND org_id = $%d", len(qargs))
	}
	if err := e.db.QueryRow(ctx, qb.String(), qargs...).Scan(&m.CurrentQueueSize); err != nil {
		return nil, fmt.Errorf("review: count org queue: %w", err)
	}
	return m, nil
}

func (e *Engine) aggregateActions(ctx context.Context, m *Metrics, query string, args ...any) error {
	rows, err := e.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("review: aggregate actions: %w", err)
	}
	defer rows.Close()

	var weightedSeconds float64
	for rows.Next() {
		var (
			action ActionType
			count  int
			avgTTD float64
		)
		if err := rows.Scan(&action, &count, &avgTTD); err != nil {
			return fmt.Errorf("review: scan action aggregate: %w", err)
		}
		switch action {
		case ActionApprove, ActionAutoApprove:
			m.Approvals += count
		case ActionModify:
			m.Modifications += count
		case ActionReject:
			m.Rejections += count
		case ActionEscalate:
			m.Escalations += count
		}
		m.TotalCasesReviewed += count
		weightedSeconds += avgTTD * float64(count)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("review: aggregate actions: %w", err)
	}

	if m.TotalCasesReviewed > 0 {
		m.ApprovalRate = float64(m.Approvals) / float64(m.TotalCasesReviewed)
		m.AverageReviewTimeSeconds = weightedSeconds / float64(m.TotalCasesReviewed)
		m.CasesPerDay = float64(m.TotalCasesReviewed) / float64(m.PeriodDays)
	}
	return nil
}

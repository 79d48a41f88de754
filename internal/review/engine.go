package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/havenmind/counselor-platform/internal/notify"
	"github.com/havenmind/counselor-platform/internal/observability/metrics"
	"github.com/havenmind/counselor-platform/pkg/logging"
)

var tracer = otel.Tracer("haven/review")

// reviewDB defines the database interface needed by the engine.
type reviewDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EscalationNotifier delivers escalation notices to supervising staff.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, notice notify.EscalationNotice) error
}

// Engine is the counselor workflow engine. Every mutation goes through it:
// queue items are decided inside a transaction that locks the row, applies a
// status-guarded update and appends the audit record, so two concurrent
// decisions on one item cannot both win.
type Engine struct {
	db       reviewDB
	logger   *logging.Logger
	metrics  *metrics.ReviewMetrics
	notifier EscalationNotifier
	priority PriorityPolicy
}

// NewEngine creates a workflow engine backed by pgxpool.
func NewEngine(pool *pgxpool.Pool, logger *logging.Logger, m *metrics.ReviewMetrics, notifier EscalationNotifier) *Engine {
	if pool == nil {
		panic("review: pgx pool required")
	}
	return newEngine(pool, logger, m, notifier)
}

// NewEngineWithDB allows injecting a mock database for testing.
func NewEngineWithDB(db reviewDB, logger *logging.Logger, m *metrics.ReviewMetrics, notifier EscalationNotifier) *Engine {
	return newEngine(db, logger, m, notifier)
}

func newEngine(db reviewDB, logger *logging.Logger, m *metrics.ReviewMetrics, notifier EscalationNotifier) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		db:       db,
		logger:   logger,
		metrics:  m,
		notifier: notifier,
		priority: DefaultPriorityPolicy,
	}
}

// SetPriorityPolicy overrides the risk-level to priority mapping.
func (e *Engine) SetPriorityPolicy(policy PriorityPolicy) {
	if policy != nil {
		e.priority = policy
	}
}

const pendingColumns = `id, conversation_id, user_id, soul_id, org_id, original_text,
			   status, priority, assigned_counselor_id, created_at,
			   decided_at, decision_notes, final_text`

// CreateRequest describes a drafted reply to hold for review.
type CreateRequest struct {
	ConversationID      string
	UserID              string
	SoulID              string
	OrgID               string
	OriginalText        string
	Priority            Priority
	AssignedCounselorID string
}

// CreatePending queues a drafted response for counselor review.
func (e *Engine) CreatePending(ctx context.Context, req CreateRequest) (*PendingResponse, error) {
	ctx, span := tracer.Start(ctx, "review.create_pending")
	defer span.End()
	span.SetAttributes(
		attribute.String("review.priority", string(req.Priority)),
		attribute.String("haven.org_id", req.OrgID),
	)

	if strings.TrimSpace(req.OriginalText) == "" {
		return nil, ErrEmptyResponse
	}
	if !req.Priority.Valid() {
		req.Priority = PriorityNormal
	}

	p := &PendingResponse{
		ID:             uuid.New().String(),
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		SoulID:         req.SoulID,
		OrgID:          req.OrgID,
		OriginalText:   req.OriginalText,
		Status:         StatusPending,
		Priority:       req.Priority,
		CreatedAt:      time.Now(),
	}
	if req.AssignedCounselorID != "" {
		assignee := req.AssignedCounselorID
		p.AssignedCounselorID = &assignee
	}

	query := `
		INSERT INTO pending_responses (
			id, conversation_id, user_id, soul_id, org_id, original_text,
			status, priority, assigned_counselor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := e.db.Exec(ctx, query,
		p.ID, p.ConversationID, p.UserID, p.SoulID, p.OrgID, p.OriginalText,
		p.Status, p.Priority, p.AssignedCounselorID, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("review: create pending response: %w", err)
	}

	e.logger.Info("pending response queued",
		"id", p.ID,
		"org_id", p.OrgID,
		"priority", p.Priority,
		"assigned_counselor_id", req.AssignedCounselorID,
	)
	return p, nil
}

// GetByID fetches a pending response by id.
func (e *Engine) GetByID(ctx context.Context, id string) (*PendingResponse, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_responses WHERE id = $1`
	p, err := scanPending(e.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("review: get pending response: %w", err)
	}
	return p, nil
}

// CounselorQueue returns the counselor's queue, urgent first, then high, then
// normal, oldest first within a tier. An empty status means pending.
func (e *Engine) CounselorQueue(ctx context.Context, counselorID string, status Status, limit int) ([]PendingResponse, error) {
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("review: invalid status filter %q", status)
	}
	query := `
		SELECT ` + pendingColumns + `
		FROM pending_responses
		WHERE assigned_counselor_id = $1 AND status = $2
		ORDER BY
			CASE priority WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 ELSE 3 END,
			created_at ASC
		LIMIT $3
	`
	return e.queryPending(ctx, query, counselorID, status, clampLimit(limit))
}

// OrgQueue returns the queue across an organization regardless of assignee.
// An empty orgID means all organizations (superuser view); an empty priority
// means no priority filter.
func (e *Engine) OrgQueue(ctx context.Context, orgID string, status Status, priority Priority, limit int) ([]PendingResponse, error) {
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("review: invalid status filter %q", status)
	}
	if priority != "" && !priority.Valid() {
		return nil, fmt.Errorf("review: invalid priority filter %q", priority)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + pendingColumns + ` FROM pending_responses WHERE status = $1`)
	args := []any{status}
	if orgID != "" {
		args = append(args, orgID)
		fmt.Fprintf(&sb, " AND org_id = $%d", len(args))
	}
	if priority != "" {
		args = append(args, priority)
		fmt.Fprintf(&sb, " AND priority = $%d", len(args))
	}
	args = append(args, clampLimit(limit))
	fmt.Fprintf(&sb, `
		ORDER BY
			CASE priority WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 ELSE 3 END,
			created_at ASC
		LIMIT $%d`, len(args))

	return e.queryPending(ctx, sb.String(), args...)
}

// Approve releases the drafted text unchanged.
func (e *Engine) Approve(ctx context.Context, id string, counselorID *string, notes string) (*PendingResponse, error) {
	ctx, span := tracer.Start(ctx, "review.approve")
	defer span.End()
	span.SetAttributes(attribute.String("review.pending_response_id", id))

	return e.decide(ctx, id, counselorID, ActionApprove, notes, func(p *PendingResponse) (string, string) {
		return string(StatusApproved), p.OriginalText
	})
}

// Modify releases a counselor-edited text in place of the draft.
func (e *Engine) Modify(ctx context.Context, id string, counselorID *string, modifiedText, notes string) (*PendingResponse, error) {
	ctx, span := tracer.Start(ctx, "review.modify")
	defer span.End()
	span.SetAttributes(attribute.String("review.pending_response_id", id))

	if strings.TrimSpace(modifiedText) == "" {
		return nil, ErrEmptyResponse
	}
	return e.decide(ctx, id, counselorID, ActionModify, notes, func(*PendingResponse) (string, string) {
		return string(StatusModified), modifiedText
	})
}

// Reject discards the draft and releases a replacement written by the
// counselor. Both the replacement and the reason are required.
func (e *Engine) Reject(ctx context.Context, id string, counselorID *string, replacementText, reason string) (*PendingResponse, error) {
	ctx, span := tracer.Start(ctx, "review.reject")
	defer span.End()
	span.SetAttributes(attribute.String("review.pending_response_id", id))

	if strings.TrimSpace(replacementText) == "" {
		return nil, ErrEmptyResponse
	}
	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}
	return e.decide(ctx, id, counselorID, ActionReject, reason, func(*PendingResponse) (string, string) {
		return string(StatusRejected), replacementText
	})
}

// decide runs the shared transactional decision flow: lock the row, verify it
// is still actionable, apply the status-guarded update, append the audit row.
func (e *Engine) decide(ctx context.Context, id string, counselorID *string, action ActionType, notes string, outcome func(*PendingResponse) (status, finalText string)) (*PendingResponse, error) {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("review: begin decision: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := lockPending(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !p.Status.actionable() {
		return nil, ErrConflict
	}

	newStatus, finalText := outcome(p)
	now := time.Now()

	update := `
		UPDATE pending_responses
		SET status = $1, decided_at = $2, decision_notes = $3, final_text = $4
		WHERE id = $5 AND status = $6
	`
	tag, err := tx.Exec(ctx, update, newStatus, now, notes, finalText, id, p.Status)
	if err != nil {
		return nil, fmt.Errorf("review: update pending response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrConflict
	}

	ttd := now.Sub(p.CreatedAt).Seconds()
	if err := insertAction(ctx, tx, &Action{
		ID:                uuid.New().String(),
		PendingResponseID: id,
		CounselorID:       counselorID,
		OrgID:             p.OrgID,
		Type:              action,
		Notes:             notes,
		CreatedAt:         now,
		TimeToDecision:    ttd,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("review: commit decision: %w", err)
	}

	e.metrics.ObserveDecision(string(action), ttd)
	e.logger.Info("pending response decided",
		"id", id,
		"action", action,
		"org_id", p.OrgID,
		"time_to_decision_seconds", ttd,
	)

	p.Status = Status(newStatus)
	p.DecidedAt = &now
	p.DecisionNotes = &notes
	p.FinalText = &finalText
	return p, nil
}

// Escalate hands the case to another counselor, or to the supervisor pool
// when no target is given. The item stays actionable for the new assignee.
func (e *Engine) Escalate(ctx context.Context, id string, counselorID *string, reason, targetCounselorID string) (*PendingResponse, error) {
	ctx, span := tracer.Start(ctx, "review.escalate")
	defer span.End()
	span.SetAttributes(attribute.String("review.pending_response_id", id))

	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("review: begin escalation: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := lockPending(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !p.Status.actionable() {
		return nil, ErrConflict
	}

	var target *string
	if targetCounselorID != "" {
		target = &targetCounselorID
	}
	now := time.Now()

	update := `
		UPDATE pending_responses
		SET status = $1, assigned_counselor_id = $2, decision_notes = $3
		WHERE id = $4 AND status = $5
	`
	tag, err := tx.Exec(ctx, update, StatusEscalated, target, reason, id, p.Status)
	if err != nil {
		return nil, fmt.Errorf("review: escalate pending response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrConflict
	}

	ttd := now.Sub(p.CreatedAt).Seconds()
	if err := insertAction(ctx, tx, &Action{
		ID:                uuid.New().String(),
		PendingResponseID: id,
		CounselorID:       counselorID,
		OrgID:             p.OrgID,
		Type:              ActionEscalate,
		Notes:             reason,
		CreatedAt:         now,
		TimeToDecision:    ttd,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("review: commit escalation: %w", err)
	}

	e.metrics.ObserveDecision(string(ActionEscalate), ttd)
	e.logger.Info("pending response escalated",
		"id", id,
		"org_id", p.OrgID,
		"target_counselor_id", targetCounselorID,
	)

	if e.notifier != nil {
		escalatedBy := ""
		if counselorID != nil {
			escalatedBy = *counselorID
		}
		notice := notify.EscalationNotice{
			PendingResponseID: id,
			OrgID:             p.OrgID,
			Priority:          string(p.Priority),
			Reason:            reason,
			EscalatedBy:       escalatedBy,
			TargetCounselorID: targetCounselorID,
			OriginalText:      p.OriginalText,
			CreatedAt:         p.CreatedAt,
		}
		// A failed notice must not fail the escalation itself.
		if err := e.notifier.NotifyEscalation(ctx, notice); err != nil {
			e.logger.Error("escalation notice failed", "error", err, "id", id)
		}
	}

	p.Status = StatusEscalated
	p.AssignedCounselorID = target
	p.DecisionNotes = &reason
	return p, nil
}

const autoApproveNote = "Auto-approved after review deadline"

// AutoApproveExpired approves every pending response older than ttl, releasing
// the original draft. Items already decided or freshly queued are untouched.
// Returns the number of rows mutated.
func (e *Engine) AutoApproveExpired(ctx context.Context, ttl time.Duration) (int, error) {
	ctx, span := tracer.Start(ctx, "review.auto_approve_expired")
	defer span.End()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("review: begin sweep: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	cutoff := now.Add(-ttl)
	update := `
		UPDATE pending_responses
		SET status = $1, decided_at = $2, decision_notes = $3, final_text = original_text
		WHERE status = $4 AND created_at < $5
		RETURNING id, org_id, created_at
	`
	rows, err := tx.Query(ctx, update, StatusApproved, now, autoApproveNote, StatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("review: sweep expired responses: %w", err)
	}

	type swept struct {
		id        string
		orgID     string
		createdAt time.Time
	}
	var mutated []swept
	for rows.Next() {
		var s swept
		if err := rows.Scan(&s.id, &s.orgID, &s.createdAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("review: scan swept row: %w", err)
		}
		mutated = append(mutated, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("review: sweep expired responses: %w", err)
	}

	for _, s := range mutated {
		if err := insertAction(ctx, tx, &Action{
			ID:                uuid.New().String(),
			PendingResponseID: s.id,
			OrgID:             s.orgID,
			Type:              ActionAutoApprove,
			Notes:             autoApproveNote,
			CreatedAt:         now,
			TimeToDecision:    now.Sub(s.createdAt).Seconds(),
		}); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("review: commit sweep: %w", err)
	}

	e.metrics.ObserveExpired(len(mutated))
	if len(mutated) > 0 {
		e.logger.Info("expired pending responses auto-approved", "count", len(mutated), "ttl", ttl)
	}
	return len(mutated), nil
}

// RefreshQueueDepth publishes the current pending backlog per priority tier.
// Tiers with no pending items are reported as zero so the gauge does not hold
// a stale value after a tier drains.
func (e *Engine) RefreshQueueDepth(ctx context.Context) error {
	rows, err := e.db.Query(ctx,
		`SELECT priority, COUNT(*) FROM pending_responses WHERE status = $1 GROUP BY priority`,
		StatusPending)
	if err != nil {
		return fmt.Errorf("review: count pending by priority: %w", err)
	}
	defer rows.Close()

	depths := map[Priority]int{PriorityUrgent: 0, PriorityHigh: 0, PriorityNormal: 0}
	for rows.Next() {
		var priority Priority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return fmt.Errorf("review: scan queue depth: %w", err)
		}
		depths[priority] = count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("review: count pending by priority: %w", err)
	}

	for priority, depth := range depths {
		e.metrics.SetQueueDepth(string(priority), depth)
	}
	return nil
}

func lockPending(ctx context.Context, tx pgx.Tx, id string) (*PendingResponse, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_responses WHERE id = $1 FOR UPDATE`
	p, err := scanPending(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("review: lock pending response: %w", err)
	}
	return p, nil
}

func insertAction(ctx context.Context, tx pgx.Tx, a *Action) error {
	query := `
		INSERT INTO counselor_actions (
			id, pending_response_id, counselor_id, org_id,
			action_type, notes, created_at, time_to_decision_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Exec(ctx, query,
		a.ID, a.PendingResponseID, a.CounselorID, a.OrgID,
		a.Type, a.Notes, a.CreatedAt, a.TimeToDecision,
	)
	if err != nil {
		return fmt.Errorf("review: record counselor action: %w", err)
	}
	return nil
}

func (e *Engine) queryPending(ctx context.Context, query string, args ...any) ([]PendingResponse, error) {
	rows, err := e.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("review: query queue: %w", err)
	}
	defer rows.Close()

	items := []PendingResponse{}
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("review: scan queue item: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("review: query queue: %w", err)
	}
	return items, nil
}

func scanPending(row pgx.Row) (*PendingResponse, error) {
	var p PendingResponse
	err := row.Scan(
		&p.ID,
		&p.ConversationID,
		&p.UserID,
		&p.SoulID,
		&p.OrgID,
		&p.OriginalText,
		&p.Status,
		&p.Priority,
		&p.AssignedCounselorID,
		&p.CreatedAt,
		&p.DecidedAt,
		&p.DecisionNotes,
		&p.FinalText,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// Package review implements the counselor review queue: pending AI-drafted
// responses held for human disposition, the decision workflow over them, and
// the audit trail every decision leaves behind.
package review

import (
	"time"

	"github.com/havenmind/counselor-platform/internal/risk"
)

// Status is the lifecycle state of a pending response. Transitions are
// one-way: pending moves to exactly one of the other states, except that an
// escalated item remains actionable by its new assignee.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusModified  Status = "modified"
	StatusRejected  Status = "rejected"
	StatusEscalated Status = "escalated"
	StatusExpired   Status = "expired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusModified, StatusRejected, StatusEscalated, StatusExpired:
		return true
	}
	return false
}

// actionable reports whether a decision may still be taken on an item in this
// state. Escalated items stay actionable for the new assignee.
func (s Status) actionable() bool {
	return s == StatusPending || s == StatusEscalated
}

// Priority orders the review queue: urgent before high before normal.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ActionType identifies the decision recorded in an audit row.
type ActionType string

const (
	ActionApprove     ActionType = "approve"
	ActionModify      ActionType = "modify"
	ActionReject      ActionType = "reject"
	ActionEscalate    ActionType = "escalate"
	ActionAutoApprove ActionType = "auto_approve"
)

// PendingResponse is a drafted AI reply awaiting human disposition. Rows are
// never physically deleted; every decision is retained for audit.
type PendingResponse struct {
	ID                  string     `json:"id"`
	ConversationID      string     `json:"conversation_id"`
	UserID              string     `json:"user_id"`
	SoulID              string     `json:"soul_id"`
	OrgID               string     `json:"organization_id"`
	OriginalText        string     `json:"original_text"`
	Status              Status     `json:"status"`
	Priority            Priority   `json:"priority"`
	AssignedCounselorID *string    `json:"assigned_counselor_id"`
	CreatedAt           time.Time  `json:"created_at"`
	DecidedAt           *time.Time `json:"decided_at"`
	DecisionNotes       *string    `json:"decision_notes"`
	FinalText           *string    `json:"final_text"`
}

// Action is the append-only audit record written for every decision event.
// CounselorID is nil for admin-performed and automatic actions.
type Action struct {
	ID                string     `json:"id"`
	PendingResponseID string     `json:"pending_response_id"`
	CounselorID       *string    `json:"counselor_id"`
	OrgID             string     `json:"organization_id"`
	Type              ActionType `json:"action_type"`
	Notes             string     `json:"notes"`
	CreatedAt         time.Time  `json:"timestamp"`
	TimeToDecision    float64    `json:"time_to_decision_seconds"`
}

// PriorityPolicy maps a risk level to a queue priority. It is injected rather
// than hard-coded so deployments can tune how aggressively elevated risk jumps
// the queue.
type PriorityPolicy func(risk.Level) Priority

// DefaultPriorityPolicy maps critical to urgent, high to high, and everything
// else to normal.
func DefaultPriorityPolicy(level risk.Level) Priority {
	switch level {
	case risk.LevelCritical:
		return PriorityUrgent
	case risk.LevelHigh:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// Metrics is the aggregate reported by the performance endpoints.
type Metrics struct {
	CounselorID              string  `json:"counselor_id,omitempty"`
	OrgID                    string  `json:"organization_id,omitempty"`
	PeriodDays               int     `json:"period_days"`
	TotalCasesReviewed       int     `json:"total_cases_reviewed"`
	Approvals                int     `json:"approvals"`
	Modifications            int     `json:"modifications"`
	Rejections               int     `json:"rejections"`
	Escalations              int     `json:"escalations"`
	ApprovalRate             float64 `json:"approval_rate"`
	AverageReviewTimeSeconds float64 `json:"average_review_time_seconds"`
	CurrentQueueSize         int     `json:"current_queue_size"`
	CasesPerDay              float64 `json:"cases_per_day"`
}

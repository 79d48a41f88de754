package risk

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Assessment is the persisted record of one classifier invocation. Records are
// immutable after creation and are read by the monitoring endpoints.
type Assessment struct {
	ID                  string    `json:"id"`
	OrgID               string    `json:"org_id"`
	UserID              string    `json:"user_id"`
	SoulID              string    `json:"soul_id"`
	Level               Level     `json:"risk_level"`
	Categories          []string  `json:"risk_categories"`
	Confidence          float64   `json:"confidence_score"`
	Reasoning           string    `json:"reasoning"`
	RequiresHumanReview bool      `json:"requires_human_review"`
	AutoResponseBlocked bool      `json:"auto_response_blocked"`
	AssessedAt          time.Time `json:"assessed_at"`
}

// HighRiskConversation summarizes recent elevated assessments for one
// user/persona pair.
type HighRiskConversation struct {
	UserID          string    `json:"user_id"`
	SoulID          string    `json:"soul_id"`
	MaxLevel        Level     `json:"max_risk_level"`
	AssessmentCount int       `json:"assessment_count"`
	LastAssessedAt  time.Time `json:"last_assessed_at"`
}

// Store persists risk assessments.
type Store struct {
	db *sql.DB
}

// NewStore creates a new assessment store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save persists an assessment. Confidence is clamped to [0,1] and the level is
// coerced to medium if it is not a known value.
func (s *Store) Save(ctx context.Context, a *Assessment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AssessedAt.IsZero() {
		a.AssessedAt = time.Now().UTC()
	}
	a.Confidence = clamp01(a.Confidence)
	if !a.Level.Valid() {
		a.Level = LevelMedium
	}
	a.Categories = dedupeStrings(a.Categories)

	categories, err := json.Marshal(a.Categories)
	if err != nil {
		return fmt.Errorf("risk: marshal categories: %w", err)
	}

	query := `
		INSERT INTO risk_assessments (
			id, org_id, user_id, soul_id, risk_level, risk_categories,
			confidence_score, reasoning, requires_human_review,
			auto_response_blocked, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		a.ID,
		a.OrgID,
		a.UserID,
		a.SoulID,
		a.Level,
		categories,
		a.Confidence,
		a.Reasoning,
		a.RequiresHumanReview,
		a.AutoResponseBlocked,
		a.AssessedAt,
	)
	if err != nil {
		return fmt.Errorf("risk: insert assessment: %w", err)
	}
	return nil
}

// ListByOrg returns assessments for an organization within the trailing
// window, newest first. An empty orgID returns assessments across all
// organizations (superuser view).
func (s *Store) ListByOrg(ctx context.Context, orgID string, window time.Duration, limit int) ([]Assessment, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	cutoff := time.Now().UTC().Add(-window)

	query := `
		SELECT id, org_id, user_id, soul_id, risk_level, risk_categories,
			   confidence_score, reasoning, requires_human_review,
			   auto_response_blocked, assessed_at
		FROM risk_assessments
		WHERE assessed_at >= $1
	`
	args := []any{cutoff}
	if orgID != "" {
		query += " AND org_id = $2"
		args = append(args, orgID)
	}
	query += fmt.Sprintf(" ORDER BY assessed_at DESC LIMIT %d", limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("risk: query assessments: %w", err)
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// HighRiskConversations returns user/persona pairs with high or critical
// assessments in the trailing window, most recent first.
func (s *Store) HighRiskConversations(ctx context.Context, orgID string, window time.Duration) ([]HighRiskConversation, error) {
	cutoff := time.Now().UTC().Add(-window)

	query := `
		SELECT user_id, soul_id,
			   MAX(CASE risk_level WHEN 'critical' THEN 2 ELSE 1 END),
			   COUNT(*),
			   MAX(assessed_at)
		FROM risk_assessments
		WHERE assessed_at >= $1 AND risk_level IN ('high', 'critical')
	`
	args := []any{cutoff}
	if orgID != "" {
		query += " AND org_id = $2"
		args = append(args, orgID)
	}
	query += " GROUP BY user_id, soul_id ORDER BY MAX(assessed_at) DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("risk: query high-risk conversations: %w", err)
	}
	defer rows.Close()

	var out []HighRiskConversation
	for rows.Next() {
		var c HighRiskConversation
		var levelRank int
		if err := rows.Scan(&c.UserID, &c.SoulID, &levelRank, &c.AssessmentCount, &c.LastAssessedAt); err != nil {
			return nil, fmt.Errorf("risk: scan high-risk conversation: %w", err)
		}
		c.MaxLevel = LevelHigh
		if levelRank == 2 {
			c.MaxLevel = LevelCritical
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanAssessment(rows *sql.Rows) (Assessment, error) {
	var a Assessment
	var categories []byte
	err := rows.Scan(
		&a.ID, &a.OrgID, &a.UserID, &a.SoulID, &a.Level, &categories,
		&a.Confidence, &a.Reasoning, &a.RequiresHumanReview,
		&a.AutoResponseBlocked, &a.AssessedAt,
	)
	if err != nil {
		return Assessment{}, fmt.Errorf("risk: scan assessment: %w", err)
	}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &a.Categories); err != nil {
			return Assessment{}, fmt.Errorf("risk: unmarshal categories: %w", err)
		}
	}
	return a, nil
}

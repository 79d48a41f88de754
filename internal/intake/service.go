// Package intake receives inbound user messages, runs them through the risk
// classifier and routes flagged drafts into the counselor review queue.
package intake

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/havenmind/counselor-platform/internal/observability/metrics"
	"github.com/havenmind/counselor-platform/internal/review"
	"github.com/havenmind/counselor-platform/internal/risk"
	"github.com/havenmind/counselor-platform/pkg/logging"
)

var tracer = otel.Tracer("haven/intake")

// ErrEmptyContent is returned when the message to assess is blank.
var ErrEmptyContent = errors.New("message content cannot be empty")

// Assessor scores a message for risk.
type Assessor interface {
	Assess(ctx context.Context, content, convContext string, analysisType risk.AnalysisType) risk.Verdict
}

// assessmentSaver persists assessment records for monitoring.
type assessmentSaver interface {
	Save(ctx context.Context, a *risk.Assessment) error
}

// queueCreator places a drafted reply into the review queue.
type queueCreator interface {
	CreatePending(ctx context.Context, req review.CreateRequest) (*review.PendingResponse, error)
}

// assigneePicker chooses an available counselor with free capacity.
type assigneePicker interface {
	PickAssignee(ctx context.Context, orgID string) (string, error)
}

// Service wires the classifier, the assessment store, the review queue and
// counselor assignment into the inbound message flow.
type Service struct {
	assessor    Assessor
	assessments assessmentSaver
	queue       queueCreator
	counselors  assigneePicker
	priority    review.PriorityPolicy
	metrics     *metrics.ReviewMetrics
	logger      *logging.Logger
}

// NewService creates the intake service. priority may be nil, in which case
// the default risk-to-priority mapping applies.
func NewService(assessor Assessor, assessments assessmentSaver, queue queueCreator, counselors assigneePicker, priority review.PriorityPolicy, m *metrics.ReviewMetrics, logger *logging.Logger) *Service {
	if priority == nil {
		priority = review.DefaultPriorityPolicy
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		assessor:    assessor,
		assessments: assessments,
		queue:       queue,
		counselors:  counselors,
		priority:    priority,
		metrics:     m,
		logger:      logger,
	}
}

// AssessRequest carries one inbound message plus the AI draft reply that is
// waiting on the verdict.
type AssessRequest struct {
	OrgID               string
	UserID              string
	SoulID              string
	ConversationID      string
	Content             string
	ConversationContext string
	AnalysisType        risk.AnalysisType
	DraftResponse       string
}

// AssessResult is what the caller gets back: the verdict, any crisis
// resources to surface immediately, and the queue item when one was created.
type AssessResult struct {
	Assessment        risk.Verdict    `json:"assessment"`
	CrisisResources   []string        `json:"crisis_resources,omitempty"`
	PendingResponseID string          `json:"pending_response_id,omitempty"`
	Priority          review.Priority `json:"priority,omitempty"`
	AssignedCounselor string          `json:"assigned_counselor_id,omitempty"`
}

// AssessMessage classifies the message, records the assessment and, when the
// verdict requires human review, queues the draft for a counselor.
func (s *Service) AssessMessage(ctx context.Context, req AssessRequest) (*AssessResult, error) {
	ctx, span := tracer.Start(ctx, "intake.assess_message")
	defer span.End()
	span.SetAttributes(attribute.String("haven.org_id", req.OrgID))

	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}

	verdict := s.assessor.Assess(ctx, req.Content, req.ConversationContext, req.AnalysisType)
	s.metrics.ObserveAssessment(string(verdict.Level), string(verdict.Source))
	span.SetAttributes(
		attribute.String("risk.level", string(verdict.Level)),
		attribute.String("risk.source", string(verdict.Source)),
	)

	if s.assessments != nil {
		record := &risk.Assessment{
			OrgID:               req.OrgID,
			UserID:              req.UserID,
			SoulID:              req.SoulID,
			Level:               verdict.Level,
			Categories:          verdict.Categories,
			Confidence:          verdict.Confidence,
			Reasoning:           verdict.Reasoning,
			RequiresHumanReview: verdict.RequiresHumanReview,
			AutoResponseBlocked: verdict.AutoResponseBlocked,
		}
		// The monitoring record must not block the safety response.
		if err := s.assessments.Save(ctx, record); err != nil {
			s.logger.Error("failed to persist risk assessment", "error", err, "org_id", req.OrgID)
		}
	}

	result := &AssessResult{Assessment: verdict}
	if verdict.CrisisResourcesNeeded {
		result.CrisisResources = risk.CrisisResourcesFor(verdict.Categories)
	}

	if s.needsReview(verdict) && strings.TrimSpace(req.DraftResponse) != "" {
		if err := s.queueDraft(ctx, req, verdict, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Service) needsReview(v risk.Verdict) bool {
	return v.RequiresHumanReview || v.AutoResponseBlocked
}

func (s *Service) queueDraft(ctx context.Context, req AssessRequest, verdict risk.Verdict, result *AssessResult) error {
	priority := s.priority(verdict.Level)

	assignee := ""
	if s.counselors != nil {
		picked, err := s.counselors.PickAssignee(ctx, req.OrgID)
		if err != nil {
			s.logger.Error("counselor assignment failed, queueing unassigned", "error", err, "org_id", req.OrgID)
		} else {
			assignee = picked
		}
	}

	p, err := s.queue.CreatePending(ctx, review.CreateRequest{
		ConversationID:      req.ConversationID,
		UserID:              req.UserID,
		SoulID:              req.SoulID,
		OrgID:               req.OrgID,
		OriginalText:        req.DraftResponse,
		Priority:            priority,
		AssignedCounselorID: assignee,
	})
	if err != nil {
		return err
	}

	result.PendingResponseID = p.ID
	result.Priority = p.Priority
	result.AssignedCounselor = assignee

	s.logger.Info("draft held for review",
		"pending_response_id", p.ID,
		"org_id", req.OrgID,
		"risk_level", verdict.Level,
		"priority", priority,
		"assigned_counselor_id", assignee,
	)
	return nil
}

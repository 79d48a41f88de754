package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/havenmind/counselor-platform/pkg/logging"
)

// EscalationNotice carries the context a supervisor needs when a case is
// escalated out of a counselor's queue.
type EscalationNotice struct {
	PendingResponseID string
	OrgID             string
	Priority          string
	Reason            string
	EscalatedBy       string
	TargetCounselorID string
	OriginalText      string
	CreatedAt         time.Time
}

// SupervisorDirectory resolves the supervising contact for an organization.
type SupervisorDirectory interface {
	SupervisorEmail(ctx context.Context, orgID string) (address, name string, err error)
}

// EscalationNotifier emails the org's supervising contact about escalations.
type EscalationNotifier struct {
	email     EmailSender
	directory SupervisorDirectory
	logger    *logging.Logger
}

// NewEscalationNotifier creates an escalation notifier. If email or directory
// is nil the notifier silently does nothing.
func NewEscalationNotifier(email EmailSender, directory SupervisorDirectory, logger *logging.Logger) *EscalationNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &EscalationNotifier{email: email, directory: directory, logger: logger}
}

// NotifyEscalation sends a notice for an escalated case. Failures are logged
// and returned for the caller to log again, but callers must never fail the
// escalation itself on a notification error.
func (n *EscalationNotifier) NotifyEscalation(ctx context.Context, notice EscalationNotice) error {
	if n == nil || n.email == nil || n.directory == nil {
		return nil
	}

	address, name, err := n.directory.SupervisorEmail(ctx, notice.OrgID)
	if err != nil {
		return fmt.Errorf("notify: resolve supervisor: %w", err)
	}
	if address == "" {
		n.logger.Debug("no supervisor contact configured, skipping escalation notice", "org_id", notice.OrgID)
		return nil
	}

	subject, body := formatEscalationEmail(notice)
	if err := n.email.Send(ctx, EmailMessage{To: address, ToName: name, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("notify: send escalation notice: %w", err)
	}

	n.logger.Info("escalation notice sent",
		"pending_response_id", notice.PendingResponseID,
		"org_id", notice.OrgID,
		"priority", notice.Priority,
	)
	return nil
}

func formatEscalationEmail(notice EscalationNotice) (subject, body string) {
	subject = fmt.Sprintf("[%s] Case escalated for supervisor review", strings.ToUpper(notice.Priority))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pending response: %s\n", notice.PendingResponseID))
	sb.WriteString(fmt.Sprintf("Priority: %s\n", notice.Priority))
	sb.WriteString(fmt.Sprintf("Queued since: %s\n", notice.CreatedAt.Format(time.RFC1123)))
	if notice.EscalatedBy != "" {
		sb.WriteString(fmt.Sprintf("Escalated by: %s\n", notice.EscalatedBy))
	}
	if notice.TargetCounselorID != "" {
		sb.WriteString(fmt.Sprintf("Reassigned to: %s\n", notice.TargetCounselorID))
	} else {
		sb.WriteString("Reassigned to: unassigned (supervisor pickup)\n")
	}

	sb.WriteString("\n--- Escalation reason ---\n")
	sb.WriteString(notice.Reason)
	sb.WriteString("\n")

	if notice.OriginalText != "" {
		sb.WriteString("\n--- Held draft ---\n")
		sb.WriteString(notice.OriginalText)
		sb.WriteString("\n")
	}

	return subject, sb.String()
}

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenmind/counselor-platform/pkg/logging"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

type staticDirectory struct {
	address string
	name    string
	err     error
}

func (d *staticDirectory) SupervisorEmail(context.Context, string) (string, string, error) {
	return d.address, d.name, d.err
}

func TestNotifyEscalationSendsNotice(t *testing.T) {
	sender := &recordingSender{}
	dir := &staticDirectory{address: "supervisor@haven.example", name: "On-call Supervisor"}
	n := NewEscalationNotifier(sender, dir, logging.Default())

	notice := EscalationNotice{
		PendingResponseID: "pr-123",
		OrgID:             "org-1",
		Priority:          "urgent",
		Reason:            "possible crisis, needs supervisor judgment",
		EscalatedBy:       "counselor-9",
		OriginalText:      "draft reply text",
		CreatedAt:         time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, n.NotifyEscalation(context.Background(), notice))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "supervisor@haven.example", msg.To)
	assert.Equal(t, "[URGENT] Case escalated for supervisor review", msg.Subject)
	assert.Contains(t, msg.Body, "pr-123")
	assert.Contains(t, msg.Body, "possible crisis, needs supervisor judgment")
	assert.Contains(t, msg.Body, "Reassigned to: unassigned (supervisor pickup)")
	assert.Contains(t, msg.Body, "draft reply text")
}

func TestNotifyEscalationTargetCounselorInBody(t *testing.T) {
	sender := &recordingSender{}
	dir := &staticDirectory{address: "supervisor@haven.example"}
	n := NewEscalationNotifier(sender, dir, nil)

	notice := EscalationNotice{
		PendingResponseID: "pr-7",
		Priority:          "high",
		Reason:            "outside my scope",
		TargetCounselorID: "counselor-2",
		CreatedAt:         time.Now(),
	}

	require.NoError(t, n.NotifyEscalation(context.Background(), notice))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Body, "Reassigned to: counselor-2")
	assert.False(t, strings.Contains(sender.sent[0].Body, "Held draft"))
}

func TestNotifyEscalationNoSupervisorConfigured(t *testing.T) {
	sender := &recordingSender{}
	n := NewEscalationNotifier(sender, &staticDirectory{}, nil)

	require.NoError(t, n.NotifyEscalation(context.Background(), EscalationNotice{OrgID: "org-1"}))
	assert.Empty(t, sender.sent)
}

func TestNotifyEscalationDirectoryError(t *testing.T) {
	sender := &recordingSender{}
	dir := &staticDirectory{err: errors.New("lookup down")}
	n := NewEscalationNotifier(sender, dir, nil)

	err := n.NotifyEscalation(context.Background(), EscalationNotice{OrgID: "org-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve supervisor")
}

func TestNotifyEscalationSendError(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp 554")}
	dir := &staticDirectory{address: "supervisor@haven.example"}
	n := NewEscalationNotifier(sender, dir, nil)

	err := n.NotifyEscalation(context.Background(), EscalationNotice{OrgID: "org-1"})
	require.Error(t, err)
}

func TestNotifyEscalationNilNotifierIsNoop(t *testing.T) {
	var n *EscalationNotifier
	require.NoError(t, n.NotifyEscalation(context.Background(), EscalationNotice{}))
}

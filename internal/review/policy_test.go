package review

import (
	"testing"

	"github.com/havenmind/counselor-platform/internal/risk"
)

func TestCanActOn(t *testing.T) {
	owner := "couns-1"
	assigned := &PendingResponse{AssignedCounselorID: &owner}
	unassigned := &PendingResponse{}

	tests := []struct {
		name        string
		counselorID string
		isAdmin     bool
		item        *PendingResponse
		want        bool
	}{
		{"owner allowed", "couns-1", false, assigned, true},
		{"non-owner denied", "couns-2", false, assigned, false},
		{"admin overrides ownership", "", true, assigned, true},
		{"admin on unassigned item", "", true, unassigned, true},
		{"counselor on unassigned item denied", "couns-1", false, unassigned, false},
		{"no counselor profile denied", "", false, assigned, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanActOn(tt.counselorID, tt.isAdmin, tt.item)
			if got.Allowed != tt.want {
				t.Errorf("CanActOn = %v (%q), want allowed=%v", got.Allowed, got.Reason, tt.want)
			}
			if !got.Allowed && got.Reason == "" {
				t.Error("denial must carry a reason")
			}
		})
	}
}

func TestCanEscalateMatchesOwnershipRule(t *testing.T) {
	owner := "couns-1"
	item := &PendingResponse{AssignedCounselorID: &owner}

	if d := CanEscalate("couns-1", false, item); !d.Allowed {
		t.Errorf("owner should escalate: %q", d.Reason)
	}
	if d := CanEscalate("couns-2", false, item); d.Allowed {
		t.Error("non-owner must not escalate")
	}
	if d := CanEscalate("", true, item); !d.Allowed {
		t.Errorf("admin should escalate: %q", d.Reason)
	}
}

func TestStatusActionable(t *testing.T) {
	actionable := []Status{StatusPending, StatusEscalated}
	terminal := []Status{StatusApproved, StatusModified, StatusRejected, StatusExpired}

	for _, s := range actionable {
		if !s.actionable() {
			t.Errorf("%q should be actionable", s)
		}
	}
	for _, s := range terminal {
		if s.actionable() {
			t.Errorf("%q should be terminal", s)
		}
	}
}

func TestDefaultPriorityPolicy(t *testing.T) {
	cases := map[string]Priority{
		"critical": PriorityUrgent,
		"high":     PriorityHigh,
		"medium":   PriorityNormal,
		"low":      PriorityNormal,
	}
	for level, want := range cases {
		if got := DefaultPriorityPolicy(risk.Level(level)); got != want {
			t.Errorf("DefaultPriorityPolicy(%s) = %q, want %q", level, got, want)
		}
	}
}

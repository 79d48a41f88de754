package review

// Decision is the outcome of an authorization check. Reason is safe to return
// to the caller when the action is denied.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// CanActOn decides whether the caller may approve, modify or reject the item.
// Admins may act on any item; counselors only on items assigned to them.
func CanActOn(counselorID string, isAdmin bool, p *PendingResponse) Decision {
	if isAdmin {
		return allow()
	}
	if counselorID == "" {
		return deny("caller has no counselor profile")
	}
	if p.AssignedCounselorID == nil || *p.AssignedCounselorID != counselorID {
		return deny("pending response is not assigned to you")
	}
	return allow()
}

// CanEscalate decides whether the caller may escalate the item. The same
// ownership rule applies: the current assignee, or an admin.
func CanEscalate(counselorID string, isAdmin bool, p *PendingResponse) Decision {
	return CanActOn(counselorID, isAdmin, p)
}

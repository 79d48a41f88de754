package review

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/havenmind/counselor-platform/internal/http/middleware"
	"github.com/havenmind/counselor-platform/pkg/logging"
)

// Handler translates HTTP requests into workflow-engine calls and enforces
// the ownership policy before any mutation.
type Handler struct {
	engine    *Engine
	reviewTTL time.Duration
	logger    *logging.Logger
}

// NewHandler creates the review HTTP handler. reviewTTL feeds the manual
// auto-approve trigger.
func NewHandler(engine *Engine, reviewTTL time.Duration, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, reviewTTL: reviewTTL, logger: logger}
}

// Queue handles GET /review/queue?status=&limit=
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	if session.CounselorID == "" {
		writeError(w, http.StatusForbidden, "caller has no counselor profile")
		return
	}

	status := Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	items, err := h.engine.CounselorQueue(r.Context(), session.CounselorID, status, queryLimit(r))
	if err != nil {
		h.logger.Error("failed to load counselor queue", "error", err, "counselor_id", session.CounselorID)
		writeError(w, http.StatusInternalServerError, "failed to load queue")
		return
	}

	urgent, high := 0, 0
	for _, item := range items {
		switch item.Priority {
		case PriorityUrgent:
			urgent++
		case PriorityHigh:
			high++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"queue_items":         items,
		"total_count":         len(items),
		"urgent_count":        urgent,
		"high_priority_count": high,
	})
}

// OrgQueue handles GET /review/organization-queue?status=&priority=&limit=
func (h *Handler) OrgQueue(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	status := Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	priority := Priority(r.URL.Query().Get("priority"))
	if priority != "" && !priority.Valid() {
		writeError(w, http.StatusBadRequest, "invalid priority filter")
		return
	}

	// A session bound to an org sees that org; an unbound admin sees all.
	orgID := session.OrgID

	items, err := h.engine.OrgQueue(r.Context(), orgID, status, priority, queryLimit(r))
	if err != nil {
		h.logger.Error("failed to load organization queue", "error", err, "org_id", orgID)
		writeError(w, http.StatusInternalServerError, "failed to load queue")
		return
	}

	effectiveStatus := status
	if effectiveStatus == "" {
		effectiveStatus = StatusPending
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_items": items,
		"total_count": len(items),
		"filters": map[string]any{
			"organization_id": orgID,
			"status":          effectiveStatus,
			"priority":        priority,
		},
	})
}

// Approve handles POST /review/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	decodeBody(r, &body)

	h.mutate(w, r, CanActOn, func(r *http.Request, id string, counselorID *string) (*PendingResponse, error) {
		return h.engine.Approve(r.Context(), id, counselorID, body.Notes)
	})
}

// Modify handles POST /review/{id}/modify
func (h *Handler) Modify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ModifiedResponse string `json:"modified_response"`
		Notes            string `json:"notes"`
	}
	decodeBody(r, &body)

	h.mutate(w, r, CanActOn, func(r *http.Request, id string, counselorID *string) (*PendingResponse, error) {
		return h.engine.Modify(r.Context(), id, counselorID, body.ModifiedResponse, body.Notes)
	})
}

// Reject handles POST /review/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReplacementResponse string `json:"replacement_response"`
		Reason              string `json:"reason"`
	}
	decodeBody(r, &body)

	h.mutate(w, r, CanActOn, func(r *http.Request, id string, counselorID *string) (*PendingResponse, error) {
		return h.engine.Reject(r.Context(), id, counselorID, body.ReplacementResponse, body.Reason)
	})
}

// Escalate handles POST /review/{id}/escalate
func (h *Handler) Escalate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EscalationReason  string `json:"escalation_reason"`
		TargetCounselorID string `json:"target_counselor_id"`
	}
	decodeBody(r, &body)

	h.mutate(w, r, CanEscalate, func(r *http.Request, id string, counselorID *string) (*PendingResponse, error) {
		return h.engine.Escalate(r.Context(), id, counselorID, body.EscalationReason, body.TargetCounselorID)
	})
}

// Performance handles GET /review/performance?days=
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = v
	}

	var (
		m   *Metrics
		err error
	)
	if session.CounselorID != "" {
		m, err = h.engine.CounselorPerformance(r.Context(), session.CounselorID, days)
	} else if session.IsAdmin() {
		m, err = h.engine.OrgPerformance(r.Context(), session.OrgID, days)
	} else {
		writeError(w, http.StatusForbidden, "caller has no counselor profile")
		return
	}
	if err != nil {
		h.logger.Error("failed to aggregate performance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to aggregate performance")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// AutoApproveExpired handles POST /admin/auto-approve-expired
func (h *Handler) AutoApproveExpired(w http.ResponseWriter, r *http.Request) {
	count, err := h.engine.AutoApproveExpired(r.Context(), h.reviewTTL)
	if err != nil {
		h.logger.Error("auto-approve sweep failed", "error", err)
		writeError(w, http.StatusInternalServerError, "auto-approve sweep failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "expired pending responses auto-approved",
		"approved_count": count,
	})
}

type policyCheck func(counselorID string, isAdmin bool, p *PendingResponse) Decision

type mutation func(r *http.Request, id string, counselorID *string) (*PendingResponse, error)

// mutate runs the shared flow for decision endpoints: load the item, apply
// the ownership policy, invoke the engine, map errors to status codes.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, check policyCheck, run mutation) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing pending response id")
		return
	}

	p, err := h.engine.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "pending response not found")
			return
		}
		h.logger.Error("failed to load pending response", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load pending response")
		return
	}

	if decision := check(session.CounselorID, session.IsAdmin(), p); !decision.Allowed {
		writeError(w, http.StatusForbidden, decision.Reason)
		return
	}

	var counselorID *string
	if session.CounselorID != "" {
		cid := session.CounselorID
		counselorID = &cid
	}

	updated, err := run(r, id, counselorID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "pending response not found")
		case errors.Is(err, ErrConflict):
			writeError(w, http.StatusConflict, "pending response already decided")
		case errors.Is(err, ErrEmptyResponse), errors.Is(err, ErrEmptyReason):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("decision failed", "error", err, "id", id)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func decodeBody(r *http.Request, dst any) {
	if r.Body == nil {
		return
	}
	_ = json.NewDecoder(r.Body).Decode(dst)
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

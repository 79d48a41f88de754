package risk

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/havenmind/counselor-platform/internal/http/middleware"
	"github.com/havenmind/counselor-platform/pkg/logging"
)

// Handler serves the risk-monitoring endpoints.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a monitoring handler over the assessment store.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// ListAssessments handles GET /risk/assessments?days=&limit=
func (h *Handler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}

	days := queryInt(r, "days", 7, 1, 90)
	limit := queryInt(r, "limit", 100, 1, 500)

	// Admins with no org binding see all organizations.
	orgID := session.OrgID
	assessments, err := h.store.ListByOrg(r.Context(), orgID, time.Duration(days)*24*time.Hour, limit)
	if err != nil {
		h.logger.Error("failed to list risk assessments", "error", err, "org_id", orgID)
		http.Error(w, "failed to list assessments", http.StatusInternalServerError)
		return
	}
	if assessments == nil {
		assessments = []Assessment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assessments": assessments,
		"total_count": len(assessments),
		"period_days": days,
	})
}

// HighRiskConversations handles GET /risk/high-risk-conversations?hours=
func (h *Handler) HighRiskConversations(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}

	hours := queryInt(r, "hours", 24, 1, 720)

	conversations, err := h.store.HighRiskConversations(r.Context(), session.OrgID, time.Duration(hours)*time.Hour)
	if err != nil {
		h.logger.Error("failed to list high-risk conversations", "error", err, "org_id", session.OrgID)
		http.Error(w, "failed to list high-risk conversations", http.StatusInternalServerError)
		return
	}
	if conversations == nil {
		conversations = []HighRiskConversation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": conversations,
		"total_count":   len(conversations),
		"period_hours":  hours,
	})
}

func queryInt(r *http.Request, key string, def, min, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

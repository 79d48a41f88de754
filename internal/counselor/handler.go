package counselor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havenmind/counselor-platform/pkg/logging"
)

// Handler serves the admin directory endpoints.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a directory handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListCounselors handles GET /admin/counselors?organization_id=
func (h *Handler) ListCounselors(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("organization_id")

	counselors, err := h.repo.ListByOrg(r.Context(), orgID)
	if err != nil {
		h.logger.Error("failed to list counselors", "error", err, "org_id", orgID)
		http.Error(w, "failed to list counselors", http.StatusInternalServerError)
		return
	}
	if counselors == nil {
		counselors = []*Counselor{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"counselors":  counselors,
		"total_count": len(counselors),
	})
}

// SetAvailability handles PATCH /admin/counselors/{counselorID}/availability
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	counselorID := chi.URLParam(r, "counselorID")

	var req struct {
		IsAvailable bool `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.SetAvailability(r.Context(), counselorID, req.IsAvailable); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "counselor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update availability", "error", err, "counselor_id", counselorID)
		http.Error(w, "failed to update availability", http.StatusInternalServerError)
		return
	}

	h.logger.Info("counselor availability updated", "counselor_id", counselorID, "is_available", req.IsAvailable)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"counselor_id": counselorID,
		"is_available": req.IsAvailable,
	})
}

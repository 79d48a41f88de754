package intake

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/havenmind/counselor-platform/internal/risk"
	"github.com/havenmind/counselor-platform/internal/tenancy"
	"github.com/havenmind/counselor-platform/pkg/logging"
)

// Handler serves the public message-assessment endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type assessBody struct {
	UserID              string `json:"user_id"`
	SoulID              string `json:"soul_id"`
	ConversationID      string `json:"conversation_id"`
	Content             string `json:"content"`
	ConversationContext string `json:"conversation_context"`
	AnalysisType        string `json:"analysis_type"`
	DraftResponse       string `json:"draft_response"`
}

// AssessMessage handles POST /messages/assess. The org comes from the tenancy
// middleware, not the body.
func (h *Handler) AssessMessage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "missing organization")
		return
	}

	var body assessBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	analysisType := risk.AnalysisType(body.AnalysisType)
	switch analysisType {
	case "", risk.AnalysisGeneral:
		analysisType = risk.AnalysisGeneral
	case risk.AnalysisContentFilter, risk.AnalysisCrisisDetection:
	default:
		writeError(w, http.StatusBadRequest, "unknown analysis_type")
		return
	}

	result, err := h.service.AssessMessage(r.Context(), AssessRequest{
		OrgID:               orgID,
		UserID:              body.UserID,
		SoulID:              body.SoulID,
		ConversationID:      body.ConversationID,
		Content:             body.Content,
		ConversationContext: body.ConversationContext,
		AnalysisType:        analysisType,
		DraftResponse:       body.DraftResponse,
	})
	if err != nil {
		if errors.Is(err, ErrEmptyContent) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("message assessment failed", "error", err, "org_id", orgID)
		writeError(w, http.StatusInternalServerError, "message assessment failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

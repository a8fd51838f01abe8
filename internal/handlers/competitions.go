package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/app"
)

type CompetitionHandler struct {
	service *app.Service
}

func NewCompetitionHandler(service *app.Service) *CompetitionHandler {
	return &CompetitionHandler{
		service: service,
	}
}

// HandleAdvancePhase moves a competition to its next phase. Only known
// competitions advance; the draw for the new phase is a separate call.
func (h *CompetitionHandler) HandleAdvancePhase(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Auth.SessionFromRequest(r)
	if err != nil || !session.CanJudge() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	competition := h.service.Canonicalize(r.PathValue("competition"))

	var req struct {
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phase == "" {
		http.Error(w, "phase is required", http.StatusBadRequest)
		return
	}

	existing, err := h.service.Store.GetCompetition(competition)
	if err != nil {
		logger.Error.Printf("Failed to load competition %s: %v", competition, err)
		http.Error(w, "Failed to load competition", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Unknown competition", http.StatusNotFound)
		return
	}

	if err := h.service.Store.SetCompetitionPhase(competition, req.Phase); err != nil {
		logger.Error.Printf("Failed to set phase for %s: %v", competition, err)
		http.Error(w, "Failed to set phase", http.StatusInternalServerError)
		return
	}

	logger.Info.Printf("Competition %s advanced from %q to %q by role %s", competition, existing.Phase, req.Phase, session.Role)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/app"
	"github.com/rbtx/arena/internal/draw"
	"github.com/rbtx/arena/internal/metrics"
	"github.com/rbtx/arena/internal/models"
)

type DrawHandler struct {
	service *app.Service
}

func NewDrawHandler(service *app.Service) *DrawHandler {
	return &DrawHandler{
		service: service,
	}
}

type drawRequest struct {
	Phase     string `json:"phase"`
	MatchSize int    `json:"match_size,omitempty"`
}

// HandleGenerate draws the match groups for a phase. POST generates into an
// empty phase, PUT regenerates an unlocked one; both are refused once any
// team has a finalized score for the phase.
func (h *DrawHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Auth.SessionFromRequest(r)
	if err != nil || !session.CanJudge() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	competition := h.service.Canonicalize(r.PathValue("competition"))

	var req drawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phase == "" {
		http.Error(w, "phase is required", http.StatusBadRequest)
		return
	}

	teams, err := h.service.EligibleTeams(competition)
	if err != nil {
		logger.Error.Printf("Failed to list teams for %s: %v", competition, err)
		http.Error(w, "Failed to fetch teams", http.StatusInternalServerError)
		return
	}

	matchSize := req.MatchSize
	if matchSize == 0 {
		matchSize = h.service.MatchSize(competition)
	}

	var groups []models.MatchGroup
	if r.Method == http.MethodPut {
		groups, err = h.service.Draws.Regenerate(competition, req.Phase, teams, matchSize)
	} else {
		groups, err = h.service.Draws.Generate(competition, req.Phase, teams, matchSize)
	}
	if err != nil {
		switch {
		case errors.Is(err, draw.ErrInsufficientEntrants):
			http.Error(w, "Draw requires at least 2 eligible teams", http.StatusUnprocessableEntity)
		case errors.Is(err, draw.ErrPhaseLocked):
			http.Error(w, "Phase already has finalized scores, draw is locked", http.StatusConflict)
		case errors.Is(err, draw.ErrDrawExists):
			http.Error(w, "Draw already exists for this phase, use PUT to regenerate", http.StatusConflict)
		default:
			logger.Error.Printf("Failed to generate draw for %s/%s: %v", competition, req.Phase, err)
			http.Error(w, "Failed to generate draw", http.StatusInternalServerError)
		}
		return
	}

	metrics.DrawsGeneratedTotal.WithLabelValues(competition, req.Phase).Inc()
	logger.Info.Printf("Draw for %s/%s requested by role %s", competition, req.Phase, session.Role)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"groups": groups,
	}); err != nil {
		logger.Error.Printf("Failed to encode draw: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *DrawHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	competition := h.service.Canonicalize(r.PathValue("competition"))
	phase := r.URL.Query().Get("phase")
	if phase == "" {
		http.Error(w, "phase query param is required", http.StatusBadRequest)
		return
	}

	groups, err := h.service.Store.ListMatchGroups(competition, phase)
	if err != nil {
		logger.Error.Printf("Failed to list match groups for %s/%s: %v", competition, phase, err)
		http.Error(w, "Failed to fetch draw", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"groups": groups,
	}); err != nil {
		logger.Error.Printf("Failed to encode draw: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/app"
	"github.com/rbtx/arena/internal/models"
)

type TeamHandler struct {
	service *app.Service
}

func NewTeamHandler(service *app.Service) *TeamHandler {
	return &TeamHandler{
		service: service,
	}
}

func (h *TeamHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	competition := h.service.Canonicalize(r.PathValue("competition"))

	teams, err := h.service.EligibleTeams(competition)
	if err != nil {
		logger.Error.Printf("Failed to list teams for %s: %v", competition, err)
		http.Error(w, "Failed to fetch teams", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"teams": teams,
	}); err != nil {
		logger.Error.Printf("Failed to encode teams: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleUpsert registers or updates a team. Roster validation runs before
// the write: at most one leader, member names present.
func (h *TeamHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Auth.SessionFromRequest(r)
	if err != nil || session.Role != app.RoleAdmin {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	competition := h.service.Canonicalize(r.PathValue("competition"))

	var team models.Team
	if err := json.NewDecoder(r.Body).Decode(&team); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	team.Competition = competition

	if err := team.Validate(); err != nil {
		logger.Debug.Printf("Rejected team %s: %v", team.ID, err)
		http.Error(w, "Invalid team: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Store.UpsertTeam(&team); err != nil {
		logger.Error.Printf("Failed to upsert team %s: %v", team.ID, err)
		http.Error(w, "Failed to save team", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

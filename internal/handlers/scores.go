package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/app"
	"github.com/rbtx/arena/internal/metrics"
	"github.com/rbtx/arena/internal/models"
	"github.com/rbtx/arena/internal/scoring"
)

type ScoreHandler struct {
	service *app.Service
}

func NewScoreHandler(service *app.Service) *ScoreHandler {
	return &ScoreHandler{
		service: service,
	}
}

// HandleSubmit finalizes a score record for a team's phase. The second
// submission for the same (team, phase) tuple is rejected, whatever its
// content.
func (h *ScoreHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "200"
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			status,
		).Observe(duration)
	}()

	session, err := h.service.Auth.SessionFromRequest(r)
	if err != nil || !session.CanJudge() {
		status = "401"
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	competition := h.service.Canonicalize(r.PathValue("competition"))

	var rec models.ScoreRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		status = "400"
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	rec.Competition = competition

	if err := h.service.Ledger.Submit(&rec); err != nil {
		if errors.Is(err, scoring.ErrDuplicatePhaseSubmission) {
			metrics.DuplicateSubmissionsTotal.WithLabelValues(competition, rec.Phase).Inc()
			status = "409"
			http.Error(w, "Team already has a finalized score for this phase", http.StatusConflict)
			return
		}
		logger.Error.Printf("Failed to submit score for %s/%s/%s: %v", competition, rec.Phase, rec.TeamID, err)
		status = "500"
		http.Error(w, "Failed to save score", http.StatusInternalServerError)
		return
	}

	metrics.ScoreSubmissionsTotal.WithLabelValues(competition, rec.Phase, rec.Status).Inc()

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleEdit updates an already finalized record. Requires an edit reason
// for the audit trail and skips the duplicate check on purpose.
func (h *ScoreHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Auth.SessionFromRequest(r)
	if err != nil || !session.CanJudge() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	competition := h.service.Canonicalize(r.PathValue("competition"))

	var payload struct {
		models.ScoreRecord
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Reason == "" {
		http.Error(w, "Edit reason is required", http.StatusBadRequest)
		return
	}
	payload.Competition = competition

	if err := h.service.Ledger.Update(&payload.ScoreRecord, payload.Reason); err != nil {
		logger.Error.Printf("Failed to edit score for %s/%s/%s: %v", competition, payload.Phase, payload.TeamID, err)
		http.Error(w, "Failed to edit score", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *ScoreHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Auth.SessionFromRequest(r)
	if err != nil || !session.CanJudge() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	competition := h.service.Canonicalize(r.PathValue("competition"))
	phase := r.URL.Query().Get("phase")
	teamID := r.URL.Query().Get("team_id")
	if phase == "" || teamID == "" {
		http.Error(w, "phase and team_id query params are required", http.StatusBadRequest)
		return
	}

	if err := h.service.Ledger.Delete(competition, phase, teamID); err != nil {
		logger.Error.Printf("Failed to delete score for %s/%s/%s: %v", competition, phase, teamID, err)
		http.Error(w, "Failed to delete score", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleHistory lists every score record of a competition grouped by team,
// newest record first within a team.
func (h *ScoreHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	competition := h.service.Canonicalize(r.PathValue("competition"))

	history, err := h.service.History(competition)
	if err != nil {
		logger.Error.Printf("Failed to fetch history for %s: %v", competition, err)
		http.Error(w, "Failed to fetch history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"teams": history,
	}); err != nil {
		logger.Error.Printf("Failed to encode history: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleTeamHistory lists one team's records across every competition and
// phase, newest first.
func (h *ScoreHandler) HandleTeamHistory(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("team_id")

	records, err := h.service.Store.ListTeamScores(teamID)
	if err != nil {
		logger.Error.Printf("Failed to fetch history for team %s: %v", teamID, err)
		http.Error(w, "Failed to fetch team history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"team_id": teamID,
		"records": records,
	}); err != nil {
		logger.Error.Printf("Failed to encode team history: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HandleStandings serves the per-team standings of a competition, computed
// by the store from finalized records only.
func (h *ScoreHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	competition := h.service.Canonicalize(r.PathValue("competition"))

	rows, err := h.service.Store.FetchStandings(competition)
	if err != nil {
		logger.Error.Printf("Failed to fetch standings for %s: %v", competition, err)
		http.Error(w, "Failed to fetch standings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"standings": rows,
	}); err != nil {
		logger.Error.Printf("Failed to encode standings: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

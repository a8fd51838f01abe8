package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/app"
	"github.com/rbtx/arena/internal/models"
	"github.com/rbtx/arena/internal/sync"
)

type SessionHandler struct {
	service *app.Service
}

func NewSessionHandler(service *app.Service) *SessionHandler {
	return &SessionHandler{
		service: service,
	}
}

type sessionRequest struct {
	TeamID string `json:"team_id"`
	Phase  string `json:"phase"`
}

// HandleStart marks a team as currently performing in a competition. Starts
// are last-writer-wins: a new start simply replaces the running session.
// The store write confirms before anything local or remote is told.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Auth.SessionFromRequest(r)
	if err != nil || !session.CanJudge() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	competition := h.service.Canonicalize(r.PathValue("competition"))

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TeamID == "" {
		http.Error(w, "team_id is required", http.StatusBadRequest)
		return
	}

	live := &models.LiveSession{
		Competition: competition,
		TeamID:      req.TeamID,
		Phase:       req.Phase,
	}
	if err := h.service.Store.StartLiveSession(live); err != nil {
		logger.Error.Printf("Failed to start live session for %s: %v", competition, err)
		http.Error(w, "Failed to start live session", http.StatusInternalServerError)
		return
	}

	if err := h.service.Coordinator.Publish(r.Context(), sync.ChannelLiveSessions, "start"); err != nil {
		// replicas catch up on the periodic refresh
		logger.Error.Printf("Failed to publish live session start: %v", err)
	}
	h.service.Coordinator.Kick()

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Auth.SessionFromRequest(r)
	if err != nil || !session.CanJudge() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	competition := h.service.Canonicalize(r.PathValue("competition"))

	if err := h.service.Store.EndLiveSession(competition); err != nil {
		logger.Error.Printf("Failed to end live session for %s: %v", competition, err)
		http.Error(w, "Failed to end live session", http.StatusInternalServerError)
		return
	}

	if err := h.service.Coordinator.Publish(r.Context(), sync.ChannelLiveSessions, "end"); err != nil {
		logger.Error.Printf("Failed to publish live session end: %v", err)
	}
	h.service.Coordinator.Kick()

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleLive serves the local live session snapshot. This reads the
// in-process store, not the database: it is what the venue screens poll.
func (h *SessionHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"sessions": h.service.Live.Snapshot(),
	}); err != nil {
		logger.Error.Printf("Failed to encode live sessions: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *SessionHandler) HandleAnnouncements(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Store.ListAnnouncements(20)
	if err != nil {
		logger.Error.Printf("Failed to list announcements: %v", err)
		http.Error(w, "Failed to fetch announcements", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"announcements": items,
	}); err != nil {
		logger.Error.Printf("Failed to encode announcements: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *SessionHandler) HandleAnnounce(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Auth.SessionFromRequest(r)
	if err != nil || session.Role != app.RoleAdmin {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var a models.Announcement
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if a.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.CreateAnnouncement(&a); err != nil {
		logger.Error.Printf("Failed to create announcement: %v", err)
		http.Error(w, "Failed to create announcement", http.StatusInternalServerError)
		return
	}

	if err := h.service.Coordinator.Publish(r.Context(), sync.ChannelAnnouncements, "create"); err != nil {
		logger.Error.Printf("Failed to publish announcement: %v", err)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

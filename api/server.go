package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/service"
	"github.com/MarshTheBacca/dotto/transport/websocket"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Server represents the read-only spectator API
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case /ws
// answers 503.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(logRequests)

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Hosted games
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/board", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/sessions/{id}/moves", s.handleLegalMoves).Methods("GET")

	// Settings, presets and scores
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets/{name}", s.handleGetPreset).Methods("GET")
	api.HandleFunc("/scores", s.handleListScores).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the router so callers can mount extra endpoints
func (s *Server) Router() *mux.Router {
	return s.router
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("api request")
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Session Handlers

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	status := query.Get("status") // "playing", "finished" or empty for both
	if status != "" {
		filtered := sessions[:0]
		for _, sess := range sessions {
			if string(sess.Status) == status {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := cast.ToIntE(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

// SessionResponse is a hosted game plus how many spectators are watching it.
// Spectators is left out when spectating is off.
type SessionResponse struct {
	*service.SessionInfo
	Spectators *int `json:"spectators,omitempty"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := SessionResponse{SessionInfo: session}
	if s.hub != nil {
		n, err := s.hub.SpectatorCount(r.Context(), session.ID)
		if err != nil {
			log.WithField("session", session.ID).WithError(err).Debug("spectator count unavailable")
		} else {
			resp.Spectators = &n
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// BoardResponse is a snapshot plus the labels players type coordinates with
type BoardResponse struct {
	Snapshot     *engine.Snapshot `json:"snapshot"`
	RowLabels    []string         `json:"row_labels"`
	ColumnLabels []string         `json:"column_labels"`
	Text         string           `json:"text"`
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.GetSnapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := BoardResponse{Snapshot: snap, Text: snap.Text()}
	for row := 0; row < snap.Length; row++ {
		resp.RowLabels = append(resp.RowLabels, engine.RowLabel(row))
	}
	for col := 0; col < snap.Width; col++ {
		resp.ColumnLabels = append(resp.ColumnLabels, engine.ColumnLabel(col, snap.Width))
	}
	respondJSON(w, http.StatusOK, resp)
}

// MoveOption is one movable dot with its destinations in player notation
type MoveOption struct {
	Dot          string            `json:"dot"`
	Destinations map[string]string `json:"destinations"`
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	step := 1
	if stepStr := r.URL.Query().Get("step"); stepStr != "" {
		n, err := cast.ToIntE(stepStr)
		if err != nil || n < 1 || n > 2 {
			respondError(w, http.StatusBadRequest, "step must be 1 or 2")
			return
		}
		step = n
	}

	snap, err := s.service.GetSnapshot(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	moves, err := s.service.LegalMoves(r.Context(), sessionID, step)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	options := make([]MoveOption, 0, len(moves))
	for _, m := range moves {
		option := MoveOption{
			Dot:          engine.FormatCoord(m.Dot, snap.Width),
			Destinations: make(map[string]string, len(m.Destinations)),
		}
		for d, dest := range m.Destinations {
			option.Destinations[d.Name()] = engine.FormatCoord(dest, snap.Width)
		}
		options = append(options, option)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"player": snap.Turn,
		"turn":   snap.TurnNumber,
		"step":   step,
		"moves":  options,
	})
}

// Settings Handlers

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.service.GetSettings(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"settings": settings,
		"density":  engine.DensityLabel(settings.BarrierDensity),
		"max_dots": engine.MaxDots(settings.Length, settings.Width),
	})
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if presets == nil {
		presets = []*service.PresetInfo{}
	}
	respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	preset, err := s.service.LoadPreset(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, preset)
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.service.ListScores(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if scores == nil {
		scores = []service.ScoreRecord{}
	}
	respondJSON(w, http.StatusOK, scores)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "spectating is not enabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	// Spectators join under the stored ID so broadcasts reach them whatever
	// case the ID was typed in
	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, session.ID, session.Snapshot)
}

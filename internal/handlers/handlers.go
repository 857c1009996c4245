package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nepcscore/services/live-scoring/internal/scoring"
	"github.com/nepcscore/services/live-scoring/internal/session"
	"github.com/nepcscore/services/live-scoring/pkg/models"
)

// SessionService is the scoring surface the handlers drive
type SessionService interface {
	Start(ctx context.Context, req models.StartSessionRequest) (session.Result, error)
	RecordRuns(ctx context.Context, sessionID, playerID string, runs int) (session.Result, error)
	RecordWicket(ctx context.Context, sessionID, playerID string) (session.Result, error)
	AdjustExtras(ctx context.Context, sessionID string, delta int) (session.Result, error)
	AddBatter(ctx context.Context, sessionID, playerID, name string) (session.Result, error)
	SetBowler(ctx context.Context, sessionID, playerID, name string) (session.Result, error)
	Display(sessionID string) (models.DisplayState, error)
	List() []string
	End(ctx context.Context, sessionID string) (session.Result, error)
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Handler contains dependencies for HTTP handlers
type Handler struct {
	sessions SessionService
	checks   map[string]HealthCheck
}

// NewHandler creates a new handler with dependencies
func NewHandler(sessions SessionService, checks map[string]HealthCheck) *Handler {
	return &Handler{
		sessions: sessions,
		checks:   checks,
	}
}

// Routes mounts the scoring API on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Get("/", h.ListSessions)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.EndSession)
			r.Post("/runs", h.RecordRuns)
			r.Post("/wicket", h.RecordWicket)
			r.Post("/extras", h.AdjustExtras)
			r.Post("/batters", h.AddBatter)
			r.Put("/bowler", h.SetBowler)
		})
	})
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, name+" unhealthy", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC(),
		"service":         "scoring-service",
		"active_sessions": len(h.sessions.List()),
	})
}

// StartSession opens a new score-entry session
// POST /api/v1/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	// An empty body starts a session with the placeholder lineup
	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	res, err := h.sessions.Start(r.Context(), req)
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toResponse(res))
}

// ListSessions returns the IDs of live sessions
// GET /api/v1/sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids := h.sessions.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": ids,
		"count":    len(ids),
	})
}

// GetSession returns the display state of a session
// GET /api/v1/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := h.sessions.Display(sessionID)
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.SessionResponse{SessionID: sessionID, State: state})
}

// EndSession discards a session
// DELETE /api/v1/sessions/{sessionID}
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.End(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toResponse(res))
}

// RecordRuns handles the 0/1/2/3/4/6 buttons
// POST /api/v1/sessions/{sessionID}/runs
func (h *Handler) RecordRuns(w http.ResponseWriter, r *http.Request) {
	var req models.RunsRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.sessions.RecordRuns(r.Context(), chi.URLParam(r, "sessionID"), req.PlayerID, req.Runs)
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toResponse(res))
}

// RecordWicket handles the wicket button
// POST /api/v1/sessions/{sessionID}/wicket
func (h *Handler) RecordWicket(w http.ResponseWriter, r *http.Request) {
	var req models.WicketRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.sessions.RecordWicket(r.Context(), chi.URLParam(r, "sessionID"), req.PlayerID)
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toResponse(res))
}

// AdjustExtras handles the extras +/- buttons
// POST /api/v1/sessions/{sessionID}/extras
func (h *Handler) AdjustExtras(w http.ResponseWriter, r *http.Request) {
	var req models.ExtrasRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.sessions.AdjustExtras(r.Context(), chi.URLParam(r, "sessionID"), req.Delta)
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toResponse(res))
}

// AddBatter brings the next batter in
// POST /api/v1/sessions/{sessionID}/batters
func (h *Handler) AddBatter(w http.ResponseWriter, r *http.Request) {
	var req models.PlayerRef
	if !decode(w, r, &req) {
		return
	}

	res, err := h.sessions.AddBatter(r.Context(), chi.URLParam(r, "sessionID"), req.PlayerID, req.Name)
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toResponse(res))
}

// SetBowler replaces the current bowler
// PUT /api/v1/sessions/{sessionID}/bowler
func (h *Handler) SetBowler(w http.ResponseWriter, r *http.Request) {
	var req models.PlayerRef
	if !decode(w, r, &req) {
		return
	}

	res, err := h.sessions.SetBowler(r.Context(), chi.URLParam(r, "sessionID"), req.PlayerID, req.Name)
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toResponse(res))
}

// Helper functions

func toResponse(res session.Result) models.SessionResponse {
	return models.SessionResponse{
		SessionID: res.SessionID,
		Sequence:  res.Sequence,
		Advisory:  res.Advisory,
		State:     res.State,
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

// respondScoringError maps session and scoring errors onto status codes
func respondScoringError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, scoring.ErrInvalidRuns),
		errors.Is(err, scoring.ErrInvalidDelta),
		errors.Is(err, scoring.ErrMissingPlayer):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, scoring.ErrUnknownPlayer),
		errors.Is(err, scoring.ErrPlayerOut),
		errors.Is(err, scoring.ErrDuplicatePlayer):
		respondError(w, http.StatusConflict, err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "scoring failed", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		log.Printf("error: %s - %v", message, err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		log.Printf("error encoding error response: %v", err)
	}
}

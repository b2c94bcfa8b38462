package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chargefleet/internal/engine"
	"chargefleet/internal/http/middleware"
)

// SessionsHandler serves the charging session flow.
type SessionsHandler struct {
	orchestrator *engine.Orchestrator
	logger       *zap.Logger
}

// NewSessionsHandler builds handler.
func NewSessionsHandler(orchestrator *engine.Orchestrator, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{orchestrator: orchestrator, logger: logger}
}

type startSessionRequest struct {
	PileID string `json:"pile_id"`
}

// HandleStart handles POST /sessions/start.
func (h *SessionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.PileID == "" {
		writeError(w, http.StatusBadRequest, "pile_id required")
		return
	}

	handle, err := h.orchestrator.StartSession(r.Context(), customerID, req.PileID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, handle)
}

type settleSessionRequest struct {
	SessionID string    `json:"session_id"`
	EnergyKWh float64   `json:"energy_kwh"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// HandleSettle handles POST /sessions/settle. Only the session's own
// customer may settle it.
func (h *SessionsHandler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}

	var req settleSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id required")
		return
	}

	rec, err := h.orchestrator.SettleSession(r.Context(), customerID, req.SessionID, req.EnergyKWh, engine.Window{
		Start: req.Start,
		End:   req.End,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type cancelSessionRequest struct {
	SessionID string `json:"session_id"`
}

// HandleCancel handles POST /sessions/cancel. Only the session's own
// customer may cancel it.
func (h *SessionsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}

	var req cancelSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id required")
		return
	}

	if err := h.orchestrator.CancelSession(r.Context(), customerID, req.SessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"chargefleet/internal/http/middleware"
	"chargefleet/internal/service"
)

// AuthHandlers serves signup and login.
type AuthHandlers struct {
	accounts *service.AccountsService
	logger   *zap.Logger
}

// NewAuthHandlers builds handlers.
func NewAuthHandlers(accounts *service.AccountsService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{accounts: accounts, logger: logger}
}

type signupRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Password string `json:"password"`
}

// HandleSignup handles POST /auth/signup.
func (h *AuthHandlers) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := h.accounts.Signup(r.Context(), service.SignupInput{
		UserID:   req.UserID,
		Name:     req.Name,
		Contact:  req.Contact,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login.
func (h *AuthHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	token, err := h.accounts.Login(r.Context(), req.UserID, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleBecomeMember handles POST /auth/member. Idempotent.
func (h *AuthHandlers) HandleBecomeMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}

	if err := h.accounts.EnsureMember(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "member": true})
}

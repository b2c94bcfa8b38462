package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chargefleet/internal/engine"
	"chargefleet/internal/repository"
	"chargefleet/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps engine and service sentinels onto HTTP statuses and
// keeps the identity-bearing message from the wrapped error.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFromError(err), err.Error())
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, engine.ErrPileNotFound),
		errors.Is(err, engine.ErrRecordNotFound),
		errors.Is(err, engine.ErrPricingNotFound),
		errors.Is(err, engine.ErrSessionNotFound),
		errors.Is(err, repository.ErrStationNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, engine.ErrPileUnavailable),
		errors.Is(err, engine.ErrInvalidToken),
		errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrRecordNotRefundable),
		errors.Is(err, service.ErrInvalidStationTransition),
		errors.Is(err, service.ErrStationNotOperable),
		errors.Is(err, service.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidEnergy),
		errors.Is(err, engine.ErrInvalidWindow),
		errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidEircode):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

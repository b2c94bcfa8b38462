package engine

import "errors"

// Sentinel errors returned by the engine. Callers match with errors.Is; the
// returned error always carries the pile, record or customer identity in its
// message via wrapping.
var (
	ErrPileNotFound        = errors.New("engine: pile not found")
	ErrPileUnavailable     = errors.New("engine: pile unavailable")
	ErrInvalidToken        = errors.New("engine: invalid release token")
	ErrInvalidTransition   = errors.New("engine: invalid pile transition")
	ErrPricingNotFound     = errors.New("engine: pricing standard not found")
	ErrInvalidEnergy       = errors.New("engine: energy amount must be positive")
	ErrInvalidWindow       = errors.New("engine: session window end precedes start")
	ErrInvalidAmount       = errors.New("engine: amount must be positive")
	ErrInsufficientBalance = errors.New("engine: insufficient balance")
	ErrRecordNotFound      = errors.New("engine: record not found")
	ErrRecordNotRefundable = errors.New("engine: record not in refundable state")
	ErrSessionNotFound     = errors.New("engine: session not found")
)

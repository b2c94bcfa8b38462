package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chargefleet/internal/models"
)

// Payment method recorded on engine-settled debits: sessions are always paid
// from the member balance.
const balancePaymentMethod = "balance"

// PileResolver looks up pile metadata (its pricing standard reference).
type PileResolver interface {
	PileByID(ctx context.Context, pileID string) (*models.Pile, error)
}

// PricingResolver looks up pricing standards.
type PricingResolver interface {
	PricingStandardByID(ctx context.Context, pricingID string) (*models.PricingStandard, error)
}

// SettlementGateway confirms a refund with the external settlement
// collaborator. A nil gateway confirms immediately.
type SettlementGateway interface {
	ConfirmRefund(ctx context.Context, orderID string) error
}

// SessionHandle identifies one open charging session and carries the
// capability token for its pile.
type SessionHandle struct {
	SessionID  string    `json:"session_id"`
	CustomerID string    `json:"customer_id"`
	PileID     string    `json:"pile_id"`
	Token      string    `json:"-"`
	StartedAt  time.Time `json:"started_at"`
}

// Orchestrator composes pile allocation, pricing and the ledger into the
// session, recharge and refund operations exposed to callers. Open sessions
// live in memory; a session never settled keeps its pile in_use until the
// administrative force-release path is taken.
type Orchestrator struct {
	piles      *PileRegistry
	ledger     *Ledger
	pileInfo   PileResolver
	pricing    PricingResolver
	settlement SettlementGateway

	mu       sync.RWMutex
	sessions map[string]*SessionHandle

	logger *zap.Logger
}

// NewOrchestrator builds the engine facade. settlement may be nil.
func NewOrchestrator(
	piles *PileRegistry,
	ledger *Ledger,
	pileInfo PileResolver,
	pricing PricingResolver,
	settlement SettlementGateway,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		piles:      piles,
		ledger:     ledger,
		pileInfo:   pileInfo,
		pricing:    pricing,
		settlement: settlement,
		sessions:   make(map[string]*SessionHandle),
		logger:     logger,
	}
}

// StartSession acquires the pile exclusively for the customer and opens a
// session. Contention surfaces as ErrPileUnavailable from the registry.
func (o *Orchestrator) StartSession(ctx context.Context, customerID, pileID string) (*SessionHandle, error) {
	if customerID == "" || pileID == "" {
		return nil, fmt.Errorf("start session: customer %q pile %q: %w", customerID, pileID, ErrSessionNotFound)
	}

	token, err := o.piles.TryAcquire(pileID)
	if err != nil {
		return nil, err
	}

	handle := &SessionHandle{
		SessionID:  newOrderID("ses"),
		CustomerID: customerID,
		PileID:     pileID,
		Token:      token,
		StartedAt:  time.Now().UTC(),
	}

	o.mu.Lock()
	o.sessions[handle.SessionID] = handle
	o.mu.Unlock()

	o.logger.Info("session started",
		zap.String("session_id", handle.SessionID),
		zap.String("customer_id", customerID),
		zap.String("pile_id", pileID),
	)
	return handle, nil
}

// SettleSession prices the delivered energy and posts the debit. The session
// is claimed exclusively up front, so of two racing settles for the same
// session exactly one proceeds and the other fails with ErrSessionNotFound:
// a session debits its customer at most once. On insufficient balance the
// pile is released and the session stays closed before the error surfaces:
// callers never clean up themselves, and no record is created. Other
// failures (unknown standard, invalid energy, persistence) reopen the
// session so it can be settled again with corrected input.
func (o *Orchestrator) SettleSession(ctx context.Context, customerID, sessionID string, energyKWh float64, window Window) (*models.ChargingRecord, error) {
	handle, err := o.claimSession(customerID, sessionID)
	if err != nil {
		return nil, err
	}

	// A force-released pile invalidates the token; the stale session must
	// fail before any money moves, not after.
	if !o.piles.Holds(handle.PileID, handle.Token) {
		o.logger.Warn("stale session rejected at settle",
			zap.String("session_id", handle.SessionID),
			zap.String("pile_id", handle.PileID),
		)
		return nil, fmt.Errorf("session %s: pile %s reclaimed: %w", sessionID, handle.PileID, ErrInvalidToken)
	}

	pile, err := o.pileInfo.PileByID(ctx, handle.PileID)
	if err != nil {
		o.reopenSession(handle)
		return nil, err
	}
	std, err := o.pricing.PricingStandardByID(ctx, pile.PricingID)
	if err != nil {
		o.reopenSession(handle)
		return nil, err
	}

	cost, err := SessionCost(std, energyKWh, window)
	if err != nil {
		o.reopenSession(handle)
		return nil, err
	}

	rec, err := o.ledger.PostCharge(ctx, ChargeInput{
		CustomerID:    handle.CustomerID,
		Amount:        cost,
		EnergyKWh:     energyKWh,
		PileID:        handle.PileID,
		PaymentMethod: balancePaymentMethod,
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			o.releasePile(handle)
			return nil, err
		}
		o.reopenSession(handle)
		return nil, err
	}

	o.releasePile(handle)
	o.logger.Info("session settled",
		zap.String("session_id", handle.SessionID),
		zap.String("order_id", rec.OrderID),
		zap.Float64("energy_kwh", energyKWh),
		zap.Float64("amount", cost),
	)
	return rec, nil
}

// CancelSession closes a session without settling it. The pile returns to
// available and no record is created.
func (o *Orchestrator) CancelSession(ctx context.Context, customerID, sessionID string) error {
	handle, err := o.claimSession(customerID, sessionID)
	if err != nil {
		return err
	}
	o.releasePile(handle)
	o.logger.Info("session cancelled",
		zap.String("session_id", handle.SessionID),
		zap.String("pile_id", handle.PileID),
	)
	return nil
}

// Recharge posts a balance top-up.
func (o *Orchestrator) Recharge(ctx context.Context, customerID string, amount float64, paymentMethod string) (*models.RechargeRecord, error) {
	return o.ledger.PostRecharge(ctx, customerID, amount, paymentMethod)
}

// Refund moves a completed record through refunding to refunded. Only the
// record's owner may refund it. The record stays refunding when the
// settlement collaborator declines; calling Refund again resumes from
// confirmation.
func (o *Orchestrator) Refund(ctx context.Context, customerID, orderID string) error {
	owner, err := o.ledger.RecordOwner(orderID)
	if err != nil {
		return err
	}
	if owner != customerID {
		return fmt.Errorf("record %s: %w", orderID, ErrRecordNotFound)
	}

	if err := o.ledger.RequestRefund(ctx, orderID); err != nil {
		// A record already in refunding resumes; anything else is fatal.
		if !errors.Is(err, ErrRecordNotRefundable) {
			return err
		}
	}
	if o.settlement != nil {
		if err := o.settlement.ConfirmRefund(ctx, orderID); err != nil {
			return fmt.Errorf("record %s: settlement: %w", orderID, err)
		}
	}
	return o.ledger.ConfirmRefund(ctx, orderID)
}

// Balance returns the customer's ledger balance.
func (o *Orchestrator) Balance(customerID string) float64 {
	return o.ledger.Balance(customerID)
}

// Statement returns the customer's settled event log.
func (o *Orchestrator) Statement(customerID string) []Entry {
	return o.ledger.Entries(customerID)
}

// claimSession removes the handle from the open set under the lock, giving
// the caller exclusive ownership of the session's lifecycle. A session that
// is missing, already claimed, or owned by another customer reports
// ErrSessionNotFound.
func (o *Orchestrator) claimSession(customerID, sessionID string) (*SessionHandle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	handle, ok := o.sessions[sessionID]
	if !ok || handle.CustomerID != customerID {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	delete(o.sessions, sessionID)
	return handle, nil
}

// reopenSession returns a claimed handle to the open set after a retryable
// settle failure.
func (o *Orchestrator) reopenSession(handle *SessionHandle) {
	o.mu.Lock()
	o.sessions[handle.SessionID] = handle
	o.mu.Unlock()
}

// releasePile frees a claimed session's pile. A release rejected for a stale
// token means an administrator force-released the pile mid-session; that is
// logged, not surfaced.
func (o *Orchestrator) releasePile(handle *SessionHandle) {
	if err := o.piles.Release(handle.PileID, handle.Token); err != nil {
		o.logger.Warn("pile release skipped",
			zap.String("session_id", handle.SessionID),
			zap.String("pile_id", handle.PileID),
			zap.Error(err),
		)
	}
}

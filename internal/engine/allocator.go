package engine

import (
	"fmt"
	"sync"

	"chargefleet/internal/models"
)

// StatusObserver is notified after every committed pile transition. Used to
// mirror status into the cache layer; failures there must not affect the
// transition, so observers are fire-and-forget.
type StatusObserver func(pileID string, status models.PileStatus)

// pileSlot holds one pile's state behind its own mutex so that piles are
// fully independent: contention on one pile never blocks another.
type pileSlot struct {
	mu     sync.Mutex
	status models.PileStatus
	token  string
}

// PileRegistry owns pile lifecycle state and serializes concurrent
// acquisition per pile. The first caller to observe available wins; losers
// get ErrPileUnavailable rather than queueing.
type PileRegistry struct {
	mu       sync.RWMutex
	slots    map[string]*pileSlot
	observer StatusObserver
}

// NewPileRegistry returns an empty registry. The observer may be nil.
func NewPileRegistry(observer StatusObserver) *PileRegistry {
	return &PileRegistry{
		slots:    make(map[string]*pileSlot),
		observer: observer,
	}
}

// Register adds a pile with the given status. Re-registering an existing pile
// is a no-op so startup seeding stays idempotent.
func (r *PileRegistry) Register(pileID string, status models.PileStatus) error {
	if !validPileStatus(status) {
		return fmt.Errorf("pile %s: unknown status %q: %w", pileID, status, ErrInvalidTransition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[pileID]; ok {
		return nil
	}
	r.slots[pileID] = &pileSlot{status: status}
	return nil
}

func (r *PileRegistry) slot(pileID string) (*pileSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.slots[pileID]
	if !ok {
		return nil, fmt.Errorf("pile %s: %w", pileID, ErrPileNotFound)
	}
	return slot, nil
}

// TryAcquire transitions available -> in_use and returns a capability token
// for the exclusive session. Any other current state fails with
// ErrPileUnavailable.
func (r *PileRegistry) TryAcquire(pileID string) (string, error) {
	slot, err := r.slot(pileID)
	if err != nil {
		return "", err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.status != models.PileAvailable {
		return "", fmt.Errorf("pile %s is %s: %w", pileID, slot.status, ErrPileUnavailable)
	}
	slot.status = models.PileInUse
	slot.token = idGenerator()
	r.notify(pileID, models.PileInUse)
	return slot.token, nil
}

// Release transitions in_use -> available. The token must match the last
// successful acquisition, which protects against double and stale releases.
func (r *PileRegistry) Release(pileID, token string) error {
	slot, err := r.slot(pileID)
	if err != nil {
		return err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.status != models.PileInUse || token == "" || token != slot.token {
		return fmt.Errorf("pile %s: %w", pileID, ErrInvalidToken)
	}
	slot.status = models.PileAvailable
	slot.token = ""
	r.notify(pileID, models.PileAvailable)
	return nil
}

// Holds reports whether token is still the current capability for an in_use
// pile. A force-release or admin transition invalidates the token, so a
// stale session observes false here.
func (r *PileRegistry) Holds(pileID, token string) bool {
	slot, err := r.slot(pileID)
	if err != nil {
		return false
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.status == models.PileInUse && token != "" && token == slot.token
}

// ForceRelease is the administrative override for a pile stuck in_use. It
// invalidates the outstanding token.
func (r *PileRegistry) ForceRelease(pileID string) error {
	slot, err := r.slot(pileID)
	if err != nil {
		return err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.status != models.PileInUse {
		return fmt.Errorf("pile %s is %s: %w", pileID, slot.status, ErrInvalidTransition)
	}
	slot.status = models.PileAvailable
	slot.token = ""
	r.notify(pileID, models.PileAvailable)
	return nil
}

// SetMaintenance takes an idle pile out of service.
func (r *PileRegistry) SetMaintenance(pileID string) error {
	return r.adminTransition(pileID, models.PileMaintenance)
}

// SetAbandoned decommissions a pile. Abandoned is terminal.
func (r *PileRegistry) SetAbandoned(pileID string) error {
	return r.adminTransition(pileID, models.PileAbandoned)
}

// SetAvailable returns a pile from maintenance to service.
func (r *PileRegistry) SetAvailable(pileID string) error {
	return r.adminTransition(pileID, models.PileAvailable)
}

func (r *PileRegistry) adminTransition(pileID string, to models.PileStatus) error {
	slot, err := r.slot(pileID)
	if err != nil {
		return err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if !canTransition(slot.status, to) {
		return fmt.Errorf("pile %s: %s -> %s: %w", pileID, slot.status, to, ErrInvalidTransition)
	}
	slot.status = to
	slot.token = ""
	r.notify(pileID, to)
	return nil
}

// Status returns the current lifecycle state of a pile.
func (r *PileRegistry) Status(pileID string) (models.PileStatus, error) {
	slot, err := r.slot(pileID)
	if err != nil {
		return "", err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.status, nil
}

// Snapshot returns a copy of all pile statuses.
func (r *PileRegistry) Snapshot() map[string]models.PileStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]models.PileStatus, len(r.slots))
	for id, slot := range r.slots {
		slot.mu.Lock()
		result[id] = slot.status
		slot.mu.Unlock()
	}
	return result
}

func (r *PileRegistry) notify(pileID string, status models.PileStatus) {
	if r.observer != nil {
		r.observer(pileID, status)
	}
}

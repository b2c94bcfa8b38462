package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"chargefleet/internal/models"
)

// EntryKind is the sign of a ledger entry.
type EntryKind string

// Entry kinds.
const (
	EntryCredit EntryKind = "credit"
	EntryDebit  EntryKind = "debit"
)

// Entry is one settled monetary event in a customer's log.
type Entry struct {
	Kind    EntryKind `json:"kind"`
	Amount  float64   `json:"amount"`
	OrderID string    `json:"order_id"`
	At      time.Time `json:"at"`
}

// RecordStore is the persistence collaborator for settled records. A nil
// store keeps the ledger purely in-memory (tests, local runs).
type RecordStore interface {
	SaveChargingRecord(ctx context.Context, rec *models.ChargingRecord) error
	SaveRechargeRecord(ctx context.Context, rec *models.RechargeRecord) error
	UpdateChargingStatus(ctx context.Context, orderID string, status models.TransactionStatus) error
	UpdateRechargeStatus(ctx context.Context, orderID string, status models.TransactionStatus) error
}

// account is one customer's append-only log. The balance is maintained
// incrementally but always equals the signed sum of entries; account.mu
// serializes every post for the customer so the insufficient-balance check
// is checked-and-applied atomically.
type account struct {
	mu      sync.Mutex
	balance float64
	entries []Entry
}

// Ledger applies recharge, charge and refund events per customer. Balance is
// a materialized view over the log, never an independently mutable field.
// Operations against different customers proceed independently.
type Ledger struct {
	mu        sync.RWMutex
	accounts  map[string]*account
	charges   map[string]*models.ChargingRecord
	recharges map[string]*models.RechargeRecord
	store     RecordStore
	logger    *zap.Logger
}

// NewLedger builds a ledger. store may be nil.
func NewLedger(store RecordStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		accounts:  make(map[string]*account),
		charges:   make(map[string]*models.ChargingRecord),
		recharges: make(map[string]*models.RechargeRecord),
		store:     store,
		logger:    logger,
	}
}

func (l *Ledger) account(customerID string) *account {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[customerID]
	if !ok {
		acc = &account{}
		l.accounts[customerID] = acc
	}
	return acc
}

// PostRecharge appends a completed credit event and returns the created record.
func (l *Ledger) PostRecharge(ctx context.Context, customerID string, amount float64, paymentMethod string) (*models.RechargeRecord, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("customer %s: recharge %.2f: %w", customerID, amount, ErrInvalidAmount)
	}

	acc := l.account(customerID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	rec := &models.RechargeRecord{
		OrderID:       newOrderID("rcg"),
		CustomerID:    customerID,
		PaymentMethod: paymentMethod,
		Amount:        amount,
		Status:        models.TransactionCompleted,
		CreatedAt:     time.Now().UTC(),
	}
	if l.store != nil {
		if err := l.store.SaveRechargeRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("customer %s: persist recharge: %w", customerID, err)
		}
	}

	l.append(acc, Entry{Kind: EntryCredit, Amount: amount, OrderID: rec.OrderID, At: rec.CreatedAt})
	l.mu.Lock()
	l.recharges[rec.OrderID] = rec
	l.mu.Unlock()

	l.logger.Info("recharge posted",
		zap.String("customer_id", customerID),
		zap.String("order_id", rec.OrderID),
		zap.Float64("amount", amount),
	)
	return rec, nil
}

// ChargeInput describes a session debit.
type ChargeInput struct {
	CustomerID    string
	Amount        float64
	EnergyKWh     float64
	PileID        string
	PaymentMethod string
}

// PostCharge appends a completed debit event only if the resulting balance
// stays non-negative; otherwise it fails with ErrInsufficientBalance and
// posts nothing. The check and the apply happen under the customer's lock,
// so concurrent charges cannot both spend the same balance.
func (l *Ledger) PostCharge(ctx context.Context, input ChargeInput) (*models.ChargingRecord, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("customer %s: charge %.2f: %w", input.CustomerID, input.Amount, ErrInvalidAmount)
	}

	acc := l.account(input.CustomerID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.balance < input.Amount {
		return nil, fmt.Errorf("customer %s: balance %.2f, charge %.2f: %w",
			input.CustomerID, acc.balance, input.Amount, ErrInsufficientBalance)
	}

	rec := &models.ChargingRecord{
		OrderID:       newOrderID("chg"),
		CustomerID:    input.CustomerID,
		PaymentMethod: input.PaymentMethod,
		Amount:        input.Amount,
		EnergyKWh:     input.EnergyKWh,
		PileID:        input.PileID,
		Status:        models.TransactionCompleted,
		CreatedAt:     time.Now().UTC(),
	}
	if l.store != nil {
		if err := l.store.SaveChargingRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("customer %s: persist charge: %w", input.CustomerID, err)
		}
	}

	l.append(acc, Entry{Kind: EntryDebit, Amount: input.Amount, OrderID: rec.OrderID, At: rec.CreatedAt})
	l.mu.Lock()
	l.charges[rec.OrderID] = rec
	l.mu.Unlock()

	l.logger.Info("charge posted",
		zap.String("customer_id", input.CustomerID),
		zap.String("order_id", rec.OrderID),
		zap.String("pile_id", input.PileID),
		zap.Float64("amount", input.Amount),
	)
	return rec, nil
}

// RequestRefund transitions a completed record to refunding. A recharge
// reversal is rejected up front when the customer has already spent the
// money, since its compensating debit may not drive the balance negative.
func (l *Ledger) RequestRefund(ctx context.Context, orderID string) error {
	kind, charge, recharge, acc, err := l.findRecord(orderID)
	if err != nil {
		return err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()

	status := recordStatus(kind, charge, recharge)
	if status != models.TransactionCompleted {
		return fmt.Errorf("record %s is %s: %w", orderID, status, ErrRecordNotRefundable)
	}
	if kind == recordRecharge && acc.balance < recharge.Amount {
		return fmt.Errorf("record %s: balance %.2f below recharge %.2f: %w",
			orderID, acc.balance, recharge.Amount, ErrInsufficientBalance)
	}

	if err := l.persistStatus(ctx, kind, orderID, models.TransactionRefunding); err != nil {
		return err
	}
	setRecordStatus(kind, charge, recharge, models.TransactionRefunding)
	return nil
}

// ConfirmRefund finalizes a refunding record: it becomes refunded and the
// compensating entry is appended — a credit for a charge refund, a debit for
// a recharge reversal. The balance check for reversals repeats here
// atomically; on failure the record stays refunding and may be confirmed
// again once the balance allows it.
func (l *Ledger) ConfirmRefund(ctx context.Context, orderID string) error {
	kind, charge, recharge, acc, err := l.findRecord(orderID)
	if err != nil {
		return err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()

	status := recordStatus(kind, charge, recharge)
	if status != models.TransactionRefunding {
		return fmt.Errorf("record %s is %s: %w", orderID, status, ErrRecordNotRefundable)
	}

	var entry Entry
	switch kind {
	case recordCharge:
		entry = Entry{Kind: EntryCredit, Amount: charge.Amount, OrderID: orderID, At: time.Now().UTC()}
	case recordRecharge:
		if acc.balance < recharge.Amount {
			return fmt.Errorf("record %s: balance %.2f below recharge %.2f: %w",
				orderID, acc.balance, recharge.Amount, ErrInsufficientBalance)
		}
		entry = Entry{Kind: EntryDebit, Amount: recharge.Amount, OrderID: orderID, At: time.Now().UTC()}
	}

	if err := l.persistStatus(ctx, kind, orderID, models.TransactionRefunded); err != nil {
		return err
	}
	l.append(acc, entry)
	setRecordStatus(kind, charge, recharge, models.TransactionRefunded)

	l.logger.Info("refund settled", zap.String("order_id", orderID))
	return nil
}

// Restore rebuilds accounts and record indexes from persisted records, in
// record creation order. Called once at startup before the ledger serves
// traffic. Refund compensations are replayed from the record status, so a
// restored balance equals completed recharges minus completed charges plus
// refunded compensations, exactly as it was before the restart.
func (l *Ledger) Restore(charges []models.ChargingRecord, recharges []models.RechargeRecord) {
	type item struct {
		at       time.Time
		charge   *models.ChargingRecord
		recharge *models.RechargeRecord
	}

	items := make([]item, 0, len(charges)+len(recharges))
	for i := range charges {
		items = append(items, item{at: charges[i].CreatedAt, charge: &charges[i]})
	}
	for i := range recharges {
		items = append(items, item{at: recharges[i].CreatedAt, recharge: &recharges[i]})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].at.Before(items[j].at) })

	for _, it := range items {
		switch {
		case it.charge != nil:
			rec := *it.charge
			acc := l.account(rec.CustomerID)
			acc.mu.Lock()
			l.append(acc, Entry{Kind: EntryDebit, Amount: rec.Amount, OrderID: rec.OrderID, At: rec.CreatedAt})
			if rec.Status == models.TransactionRefunded {
				l.append(acc, Entry{Kind: EntryCredit, Amount: rec.Amount, OrderID: rec.OrderID, At: rec.CreatedAt})
			}
			acc.mu.Unlock()
			l.mu.Lock()
			l.charges[rec.OrderID] = &rec
			l.mu.Unlock()
		case it.recharge != nil:
			rec := *it.recharge
			acc := l.account(rec.CustomerID)
			acc.mu.Lock()
			l.append(acc, Entry{Kind: EntryCredit, Amount: rec.Amount, OrderID: rec.OrderID, At: rec.CreatedAt})
			if rec.Status == models.TransactionRefunded {
				l.append(acc, Entry{Kind: EntryDebit, Amount: rec.Amount, OrderID: rec.OrderID, At: rec.CreatedAt})
			}
			acc.mu.Unlock()
			l.mu.Lock()
			l.recharges[rec.OrderID] = &rec
			l.mu.Unlock()
		}
	}
}

// Balance returns the customer's current balance: the signed sum of their
// settled entries. Unknown customers have an empty log, hence balance zero.
func (l *Ledger) Balance(customerID string) float64 {
	l.mu.RLock()
	acc, ok := l.accounts[customerID]
	l.mu.RUnlock()
	if !ok {
		return 0
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance
}

// Entries returns a copy of the customer's settled event log, oldest first.
func (l *Ledger) Entries(customerID string) []Entry {
	l.mu.RLock()
	acc, ok := l.accounts[customerID]
	l.mu.RUnlock()
	if !ok {
		return nil
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	out := make([]Entry, len(acc.entries))
	copy(out, acc.entries)
	return out
}

// ChargingRecord returns a copy of the charging record with the given order id.
func (l *Ledger) ChargingRecord(orderID string) (*models.ChargingRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.charges[orderID]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", orderID, ErrRecordNotFound)
	}
	cp := *rec
	return &cp, nil
}

// RecordOwner returns the customer a charging or recharge record belongs to.
func (l *Ledger) RecordOwner(orderID string) (string, error) {
	kind, charge, recharge, _, err := l.findRecord(orderID)
	if err != nil {
		return "", err
	}
	if kind == recordCharge {
		return charge.CustomerID, nil
	}
	return recharge.CustomerID, nil
}

// append applies an entry to an account held under acc.mu.
func (l *Ledger) append(acc *account, entry Entry) {
	acc.entries = append(acc.entries, entry)
	switch entry.Kind {
	case EntryCredit:
		acc.balance += entry.Amount
	case EntryDebit:
		acc.balance -= entry.Amount
	}
}

type recordKind int

const (
	recordCharge recordKind = iota
	recordRecharge
)

func (l *Ledger) findRecord(orderID string) (recordKind, *models.ChargingRecord, *models.RechargeRecord, *account, error) {
	l.mu.RLock()
	charge, isCharge := l.charges[orderID]
	recharge, isRecharge := l.recharges[orderID]
	l.mu.RUnlock()

	switch {
	case isCharge:
		return recordCharge, charge, nil, l.account(charge.CustomerID), nil
	case isRecharge:
		return recordRecharge, nil, recharge, l.account(recharge.CustomerID), nil
	default:
		return 0, nil, nil, nil, fmt.Errorf("record %s: %w", orderID, ErrRecordNotFound)
	}
}

func (l *Ledger) persistStatus(ctx context.Context, kind recordKind, orderID string, status models.TransactionStatus) error {
	if l.store == nil {
		return nil
	}
	if kind == recordCharge {
		if err := l.store.UpdateChargingStatus(ctx, orderID, status); err != nil {
			return fmt.Errorf("record %s: persist status: %w", orderID, err)
		}
		return nil
	}
	if err := l.store.UpdateRechargeStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("record %s: persist status: %w", orderID, err)
	}
	return nil
}

func recordStatus(kind recordKind, charge *models.ChargingRecord, recharge *models.RechargeRecord) models.TransactionStatus {
	if kind == recordCharge {
		return charge.Status
	}
	return recharge.Status
}

func setRecordStatus(kind recordKind, charge *models.ChargingRecord, recharge *models.RechargeRecord, status models.TransactionStatus) {
	if kind == recordCharge {
		charge.Status = status
		return
	}
	recharge.Status = status
}

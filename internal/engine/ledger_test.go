package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chargefleet/internal/models"
)

type fakeRecordStore struct {
	mu         sync.Mutex
	failSaves  bool
	charges    []models.ChargingRecord
	recharges  []models.RechargeRecord
	statusSets []string
}

var errStoreDown = errors.New("store down")

func (f *fakeRecordStore) SaveChargingRecord(_ context.Context, rec *models.ChargingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves {
		return errStoreDown
	}
	f.charges = append(f.charges, *rec)
	return nil
}

func (f *fakeRecordStore) SaveRechargeRecord(_ context.Context, rec *models.RechargeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves {
		return errStoreDown
	}
	f.recharges = append(f.recharges, *rec)
	return nil
}

func (f *fakeRecordStore) UpdateChargingStatus(_ context.Context, orderID string, status models.TransactionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusSets = append(f.statusSets, orderID+":"+string(status))
	return nil
}

func (f *fakeRecordStore) UpdateRechargeStatus(_ context.Context, orderID string, status models.TransactionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusSets = append(f.statusSets, orderID+":"+string(status))
	return nil
}

func signedSum(entries []Entry) float64 {
	var sum float64
	for _, e := range entries {
		if e.Kind == EntryCredit {
			sum += e.Amount
		} else {
			sum -= e.Amount
		}
	}
	return sum
}

func TestRechargeAndChargeBalance(t *testing.T) {
	ledger := NewLedger(nil, nil)
	ctx := context.Background()

	if _, err := ledger.PostRecharge(ctx, "M1", 50, "card"); err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if got := ledger.Balance("M1"); got != 50 {
		t.Fatalf("expected balance 50, got %v", got)
	}

	rec, err := ledger.PostCharge(ctx, ChargeInput{CustomerID: "M1", Amount: 35, EnergyKWh: 10, PileID: "P1", PaymentMethod: "balance"})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if rec.Status != models.TransactionCompleted {
		t.Fatalf("expected completed record, got %s", rec.Status)
	}
	if got := ledger.Balance("M1"); got != 15 {
		t.Fatalf("expected balance 15, got %v", got)
	}

	if sum := signedSum(ledger.Entries("M1")); sum != ledger.Balance("M1") {
		t.Fatalf("balance %v diverged from log sum %v", ledger.Balance("M1"), sum)
	}
}

func TestChargeRejectsNonPositiveAmounts(t *testing.T) {
	ledger := NewLedger(nil, nil)
	ctx := context.Background()

	if _, err := ledger.PostRecharge(ctx, "M1", 0, "card"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero recharge, got %v", err)
	}
	if _, err := ledger.PostCharge(ctx, ChargeInput{CustomerID: "M1", Amount: -3}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative charge, got %v", err)
	}
}

func TestChargeInsufficientBalancePostsNothing(t *testing.T) {
	ledger := NewLedger(nil, nil)
	ctx := context.Background()

	if _, err := ledger.PostRecharge(ctx, "M1", 10, "card"); err != nil {
		t.Fatalf("recharge: %v", err)
	}

	_, err := ledger.PostCharge(ctx, ChargeInput{CustomerID: "M1", Amount: 35, PileID: "P1"})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := ledger.Balance("M1"); got != 10 {
		t.Fatalf("balance changed on rejected charge: %v", got)
	}
	if entries := ledger.Entries("M1"); len(entries) != 1 {
		t.Fatalf("expected only the recharge entry, got %d", len(entries))
	}
}

func TestConcurrentChargesExactlyOneSucceeds(t *testing.T) {
	ledger := NewLedger(nil, nil)
	ctx := context.Background()

	// Balance supports exactly one of the attempted charges.
	if _, err := ledger.PostRecharge(ctx, "M1", 35, "card"); err != nil {
		t.Fatalf("recharge: %v", err)
	}

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, rejections int

	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := ledger.PostCharge(ctx, ChargeInput{CustomerID: "M1", Amount: 35, PileID: "P1"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrInsufficientBalance):
				rejections++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful charge, got %d", wins)
	}
	if rejections != attempts-1 {
		t.Fatalf("expected %d rejections, got %d", attempts-1, rejections)
	}
	if got := ledger.Balance("M1"); got != 0 {
		t.Fatalf("expected balance 0, got %v", got)
	}
}

func TestChargeRefundRoundTrip(t *testing.T) {
	store := &fakeRecordStore{}
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	ledger.PostRecharge(ctx, "M1", 50, "card")
	rec, err := ledger.PostCharge(ctx, ChargeInput{CustomerID: "M1", Amount: 35, EnergyKWh: 10, PileID: "P1"})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	before := ledger.Balance("M1")

	if err := ledger.RequestRefund(ctx, rec.OrderID); err != nil {
		t.Fatalf("request refund: %v", err)
	}
	got, err := ledger.ChargingRecord(rec.OrderID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Status != models.TransactionRefunding {
		t.Fatalf("expected refunding, got %s", got.Status)
	}

	if err := ledger.ConfirmRefund(ctx, rec.OrderID); err != nil {
		t.Fatalf("confirm refund: %v", err)
	}
	got, _ = ledger.ChargingRecord(rec.OrderID)
	if got.Status != models.TransactionRefunded {
		t.Fatalf("expected refunded, got %s", got.Status)
	}
	if after := ledger.Balance("M1"); after != before+35 {
		t.Fatalf("expected balance %v after refund, got %v", before+35, after)
	}
	if sum := signedSum(ledger.Entries("M1")); sum != ledger.Balance("M1") {
		t.Fatalf("balance diverged from log sum after refund")
	}
}

func TestRechargeReversalReturnsToPriorBalance(t *testing.T) {
	ledger := NewLedger(nil, nil)
	ctx := context.Background()

	ledger.PostRecharge(ctx, "M1", 20, "card")
	before := ledger.Balance("M1")

	rec, err := ledger.PostRecharge(ctx, "M1", 30, "card")
	if err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if err := ledger.RequestRefund(ctx, rec.OrderID); err != nil {
		t.Fatalf("request reversal: %v", err)
	}
	if err := ledger.ConfirmRefund(ctx, rec.OrderID); err != nil {
		t.Fatalf("confirm reversal: %v", err)
	}

	if after := ledger.Balance("M1"); after != before {
		t.Fatalf("expected balance back to %v, got %v", before, after)
	}
}

func TestRechargeReversalRejectedWhenSpent(t *testing.T) {
	ledger := NewLedger(nil, nil)
	ctx := context.Background()

	rec, _ := ledger.PostRecharge(ctx, "M1", 30, "card")
	if _, err := ledger.PostCharge(ctx, ChargeInput{CustomerID: "M1", Amount: 25, PileID: "P1"}); err != nil {
		t.Fatalf("charge: %v", err)
	}

	// Only 5 left; reversing the 30 recharge would drive the balance negative.
	if err := ledger.RequestRefund(ctx, rec.OrderID); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := ledger.Balance("M1"); got != 5 {
		t.Fatalf("balance changed on rejected reversal: %v", got)
	}
}

func TestRefundRejectsWrongState(t *testing.T) {
	ledger := NewLedger(nil, nil)
	ctx := context.Background()

	if err := ledger.RequestRefund(ctx, "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	ledger.PostRecharge(ctx, "M1", 50, "card")
	rec, _ := ledger.PostCharge(ctx, ChargeInput{CustomerID: "M1", Amount: 10, PileID: "P1"})

	if err := ledger.RequestRefund(ctx, rec.OrderID); err != nil {
		t.Fatalf("request refund: %v", err)
	}
	// Already refunding: a second request must fail.
	if err := ledger.RequestRefund(ctx, rec.OrderID); !errors.Is(err, ErrRecordNotRefundable) {
		t.Fatalf("expected ErrRecordNotRefundable, got %v", err)
	}

	if err := ledger.ConfirmRefund(ctx, rec.OrderID); err != nil {
		t.Fatalf("confirm refund: %v", err)
	}
	if err := ledger.ConfirmRefund(ctx, rec.OrderID); !errors.Is(err, ErrRecordNotRefundable) {
		t.Fatalf("expected ErrRecordNotRefundable on double confirm, got %v", err)
	}
}

func TestRestoreRebuildsBalancesFromRecords(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	recharges := []models.RechargeRecord{
		{OrderID: "r-1", CustomerID: "M1", Amount: 50, PaymentMethod: "card", Status: models.TransactionCompleted, CreatedAt: base},
		{OrderID: "r-2", CustomerID: "M1", Amount: 30, PaymentMethod: "card", Status: models.TransactionRefunded, CreatedAt: base.Add(time.Hour)},
		{OrderID: "r-3", CustomerID: "M2", Amount: 20, PaymentMethod: "card", Status: models.TransactionCompleted, CreatedAt: base.Add(2 * time.Hour)},
	}
	charges := []models.ChargingRecord{
		{OrderID: "c-1", CustomerID: "M1", Amount: 35, EnergyKWh: 10, PileID: "P1", Status: models.TransactionCompleted, CreatedAt: base.Add(30 * time.Minute)},
		{OrderID: "c-2", CustomerID: "M2", Amount: 12, EnergyKWh: 4, PileID: "P2", Status: models.TransactionRefunding, CreatedAt: base.Add(3 * time.Hour)},
	}

	ledger := NewLedger(nil, nil)
	ledger.Restore(charges, recharges)

	// M1: +50 -35 +30 -30 (refunded recharge replays both legs).
	if got := ledger.Balance("M1"); got != 15 {
		t.Fatalf("expected M1 balance 15, got %v", got)
	}
	// M2: +20 -12, refund still pending so no compensation yet.
	if got := ledger.Balance("M2"); got != 8 {
		t.Fatalf("expected M2 balance 8, got %v", got)
	}
	for _, customer := range []string{"M1", "M2"} {
		if sum := signedSum(ledger.Entries(customer)); sum != ledger.Balance(customer) {
			t.Fatalf("%s balance diverged from log sum", customer)
		}
	}

	// The restored refunding record resumes from confirmation.
	if err := ledger.ConfirmRefund(context.Background(), "c-2"); err != nil {
		t.Fatalf("confirm restored refund: %v", err)
	}
	if got := ledger.Balance("M2"); got != 20 {
		t.Fatalf("expected M2 balance 20 after refund, got %v", got)
	}

	// Restored records are live: a double refund is still rejected.
	if err := ledger.RequestRefund(context.Background(), "r-2"); !errors.Is(err, ErrRecordNotRefundable) {
		t.Fatalf("expected ErrRecordNotRefundable, got %v", err)
	}
}

func TestStoreFailureAbortsPost(t *testing.T) {
	store := &fakeRecordStore{failSaves: true}
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	if _, err := ledger.PostRecharge(ctx, "M1", 50, "card"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if got := ledger.Balance("M1"); got != 0 {
		t.Fatalf("entry applied despite store failure: balance %v", got)
	}
	if entries := ledger.Entries("M1"); len(entries) != 0 {
		t.Fatalf("expected empty log, got %d entries", len(entries))
	}
}

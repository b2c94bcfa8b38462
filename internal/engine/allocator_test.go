package engine

import (
	"errors"
	"sync"
	"testing"

	"chargefleet/internal/models"
)

func TestTryAcquireAndRelease(t *testing.T) {
	reg := NewPileRegistry(nil)
	if err := reg.Register("P1", models.PileAvailable); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := reg.TryAcquire("P1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	if status, _ := reg.Status("P1"); status != models.PileInUse {
		t.Fatalf("expected in_use, got %s", status)
	}

	if _, err := reg.TryAcquire("P1"); !errors.Is(err, ErrPileUnavailable) {
		t.Fatalf("expected ErrPileUnavailable, got %v", err)
	}

	if err := reg.Release("P1", token); err != nil {
		t.Fatalf("release: %v", err)
	}
	if status, _ := reg.Status("P1"); status != models.PileAvailable {
		t.Fatalf("expected available after release, got %s", status)
	}
}

func TestReleaseRejectsStaleToken(t *testing.T) {
	reg := NewPileRegistry(nil)
	reg.Register("P1", models.PileAvailable)

	first, err := reg.TryAcquire("P1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := reg.Release("P1", first); err != nil {
		t.Fatalf("release: %v", err)
	}

	// Double release with the consumed token must fail.
	if err := reg.Release("P1", first); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	second, err := reg.TryAcquire("P1")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if err := reg.Release("P1", first); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for stale token, got %v", err)
	}
	if err := reg.Release("P1", second); err != nil {
		t.Fatalf("release with current token: %v", err)
	}
}

func TestAcquireUnknownPile(t *testing.T) {
	reg := NewPileRegistry(nil)
	if _, err := reg.TryAcquire("missing"); !errors.Is(err, ErrPileNotFound) {
		t.Fatalf("expected ErrPileNotFound, got %v", err)
	}
}

func TestAdminTransitions(t *testing.T) {
	reg := NewPileRegistry(nil)
	reg.Register("P1", models.PileAvailable)

	if err := reg.SetMaintenance("P1"); err != nil {
		t.Fatalf("maintenance: %v", err)
	}
	if _, err := reg.TryAcquire("P1"); !errors.Is(err, ErrPileUnavailable) {
		t.Fatalf("expected unavailable while in maintenance, got %v", err)
	}
	if err := reg.SetAvailable("P1"); err != nil {
		t.Fatalf("return to service: %v", err)
	}
	if err := reg.SetAbandoned("P1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	// Abandoned is terminal.
	if err := reg.SetAvailable("P1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of abandoned, got %v", err)
	}
	if err := reg.SetMaintenance("P1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of abandoned, got %v", err)
	}
}

func TestAdminTransitionRejectedMidSession(t *testing.T) {
	reg := NewPileRegistry(nil)
	reg.Register("P1", models.PileAvailable)

	token, err := reg.TryAcquire("P1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if err := reg.SetMaintenance("P1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from in_use, got %v", err)
	}
	if err := reg.SetAbandoned("P1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from in_use, got %v", err)
	}

	if err := reg.ForceRelease("P1"); err != nil {
		t.Fatalf("force release: %v", err)
	}
	if err := reg.Release("P1", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected stale token after force release, got %v", err)
	}
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	reg := NewPileRegistry(nil)
	reg.Register("P1", models.PileAvailable)

	const attempts = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, losses int

	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := reg.TryAcquire("P1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrPileUnavailable):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if losses != attempts-1 {
		t.Fatalf("expected %d losers, got %d", attempts-1, losses)
	}
}

func TestDistinctPilesIndependent(t *testing.T) {
	reg := NewPileRegistry(nil)
	reg.Register("P1", models.PileAvailable)
	reg.Register("P2", models.PileAvailable)

	if _, err := reg.TryAcquire("P1"); err != nil {
		t.Fatalf("acquire P1: %v", err)
	}
	if _, err := reg.TryAcquire("P2"); err != nil {
		t.Fatalf("acquire P2 should not be blocked by P1: %v", err)
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string][]models.PileStatus)
	reg := NewPileRegistry(func(pileID string, status models.PileStatus) {
		mu.Lock()
		seen[pileID] = append(seen[pileID], status)
		mu.Unlock()
	})
	reg.Register("P1", models.PileAvailable)

	token, _ := reg.TryAcquire("P1")
	reg.Release("P1", token)

	mu.Lock()
	defer mu.Unlock()
	got := seen["P1"]
	if len(got) != 2 || got[0] != models.PileInUse || got[1] != models.PileAvailable {
		t.Fatalf("unexpected observer sequence: %v", got)
	}
}

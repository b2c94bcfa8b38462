package engine

import (
	"errors"
	"testing"
	"time"

	"chargefleet/internal/models"
)

func window(startHour, startMin int) Window {
	start := time.Date(2025, 6, 1, startHour, startMin, 0, 0, time.UTC)
	return Window{Start: start, End: start.Add(45 * time.Minute)}
}

func TestUnifiedCost(t *testing.T) {
	std := &models.PricingStandard{
		PricingID:      "PR-1",
		Type:           models.PricingUnified,
		ElectricityFee: 3.0,
		ServiceFee:     5.0,
	}

	cost, err := SessionCost(std, 10, window(14, 0))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != 35.0 {
		t.Fatalf("expected 35.0, got %v", cost)
	}
}

func TestCustomCostUsesPeriodOfSessionStart(t *testing.T) {
	std := &models.PricingStandard{
		PricingID:      "PR-2",
		Type:           models.PricingCustom,
		ElectricityFee: 2.0,
		ServiceFee:     1.0,
		Periods: []models.RatePeriod{
			{StartMinute: 8 * 60, EndMinute: 20 * 60, ElectricityFee: 4.0},  // daytime
			{StartMinute: 22 * 60, EndMinute: 6 * 60, ElectricityFee: 1.5},  // overnight, wraps midnight
		},
	}

	day, err := SessionCost(std, 10, window(9, 30))
	if err != nil {
		t.Fatalf("daytime cost: %v", err)
	}
	if day != 41.0 {
		t.Fatalf("expected 41.0 daytime, got %v", day)
	}

	night, err := SessionCost(std, 10, window(23, 15))
	if err != nil {
		t.Fatalf("overnight cost: %v", err)
	}
	if night != 16.0 {
		t.Fatalf("expected 16.0 overnight, got %v", night)
	}

	early, err := SessionCost(std, 10, window(2, 0))
	if err != nil {
		t.Fatalf("early-morning cost: %v", err)
	}
	if early != 16.0 {
		t.Fatalf("expected wrapped period to cover 02:00, got %v", early)
	}

	// 07:00 falls in no period: base electricity fee applies.
	gap, err := SessionCost(std, 10, window(7, 0))
	if err != nil {
		t.Fatalf("gap cost: %v", err)
	}
	if gap != 21.0 {
		t.Fatalf("expected base-fee fallback 21.0, got %v", gap)
	}
}

func TestCostRejectsNonPositiveEnergy(t *testing.T) {
	std := &models.PricingStandard{PricingID: "PR-1", Type: models.PricingUnified, ElectricityFee: 3.0}

	if _, err := SessionCost(std, 0, window(10, 0)); !errors.Is(err, ErrInvalidEnergy) {
		t.Fatalf("expected ErrInvalidEnergy for zero energy, got %v", err)
	}
	if _, err := SessionCost(std, -4, window(10, 0)); !errors.Is(err, ErrInvalidEnergy) {
		t.Fatalf("expected ErrInvalidEnergy for negative energy, got %v", err)
	}
}

func TestCostRejectsInvertedWindow(t *testing.T) {
	std := &models.PricingStandard{PricingID: "PR-1", Type: models.PricingUnified, ElectricityFee: 3.0}
	w := window(10, 0)
	w.End = w.Start.Add(-time.Hour)

	if _, err := SessionCost(std, 5, w); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestCostRejectsMissingStandard(t *testing.T) {
	if _, err := SessionCost(nil, 5, window(10, 0)); !errors.Is(err, ErrPricingNotFound) {
		t.Fatalf("expected ErrPricingNotFound, got %v", err)
	}
}

func TestCostIsIdempotent(t *testing.T) {
	std := &models.PricingStandard{
		PricingID:      "PR-3",
		Type:           models.PricingCustom,
		ElectricityFee: 2.5,
		ServiceFee:     0.5,
		Periods:        []models.RatePeriod{{StartMinute: 0, EndMinute: 24 * 60, ElectricityFee: 3.2}},
	}
	w := window(16, 45)

	first, err := SessionCost(std, 7.5, w)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := SessionCost(std, 7.5, w)
		if err != nil {
			t.Fatalf("repeat cost: %v", err)
		}
		if again != first {
			t.Fatalf("cost changed between identical calls: %v then %v", first, again)
		}
	}
}

package engine

import (
	"fmt"
	"time"

	"chargefleet/internal/models"
)

// Window is the wall-clock span of a charging session.
type Window struct {
	Start time.Time
	End   time.Time
}

// SessionCost converts delivered energy into monetary cost under the given
// standard: energy * electricity fee + service fee. For custom standards the
// electricity fee comes from the rate period containing the session start;
// sessions carry no sub-interval telemetry, so the whole energy amount is
// billed at that single rate. A custom standard with no period covering the
// start falls back to its base electricity fee.
//
// Pure and side-effect free: identical inputs always yield identical cost.
func SessionCost(std *models.PricingStandard, energyKWh float64, window Window) (float64, error) {
	if std == nil {
		return 0, ErrPricingNotFound
	}
	if energyKWh <= 0 {
		return 0, fmt.Errorf("pricing %s: energy %.3f kWh: %w", std.PricingID, energyKWh, ErrInvalidEnergy)
	}
	if !window.End.IsZero() && window.End.Before(window.Start) {
		return 0, fmt.Errorf("pricing %s: %w", std.PricingID, ErrInvalidWindow)
	}

	fee := std.ElectricityFee
	if std.Type == models.PricingCustom {
		if rate, ok := rateAt(std.Periods, window.Start); ok {
			fee = rate
		}
	}

	return energyKWh*fee + std.ServiceFee, nil
}

// rateAt resolves the electricity fee for the period containing t. Periods
// with StartMinute > EndMinute wrap past midnight.
func rateAt(periods []models.RatePeriod, t time.Time) (float64, bool) {
	minute := t.Hour()*60 + t.Minute()
	for _, p := range periods {
		if p.StartMinute <= p.EndMinute {
			if minute >= p.StartMinute && minute < p.EndMinute {
				return p.ElectricityFee, true
			}
		} else if minute >= p.StartMinute || minute < p.EndMinute {
			return p.ElectricityFee, true
		}
	}
	return 0, false
}

package service

import (
	"testing"

	"chargefleet/internal/models"
)

func TestStationTransitionAllowList(t *testing.T) {
	allowed := []struct {
		from, to models.StationStatus
	}{
		{models.StationPending, models.StationCreating},
		{models.StationPending, models.StationDeprecated},
		{models.StationCreating, models.StationAvailable},
		{models.StationCreating, models.StationDeprecated},
		{models.StationAvailable, models.StationDeprecated},
	}
	for _, tc := range allowed {
		if !stationTransitionAllowed(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct {
		from, to models.StationStatus
	}{
		{models.StationPending, models.StationAvailable},
		{models.StationAvailable, models.StationPending},
		{models.StationDeprecated, models.StationAvailable},
		{models.StationDeprecated, models.StationPending},
		{models.StationAvailable, models.StationCreating},
	}
	for _, tc := range forbidden {
		if stationTransitionAllowed(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestEircodeValidation(t *testing.T) {
	valid := []string{"D01ZZ13", "A65FF21"}
	for _, code := range valid {
		if !eircodePattern.MatchString(code) {
			t.Errorf("expected %q to be valid", code)
		}
	}

	invalid := []string{"", "d01zz13", "D01ZZ1", "101ZZ13", "D01ZZ134"}
	for _, code := range invalid {
		if eircodePattern.MatchString(code) {
			t.Errorf("expected %q to be rejected", code)
		}
	}
}

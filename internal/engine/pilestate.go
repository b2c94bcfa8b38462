package engine

import "chargefleet/internal/models"

// pileTransitions is the exhaustive allow-list of pile status transitions.
// Abandoned is terminal. A pile mid-session cannot be pulled from service:
// in_use only ever returns to available through release.
var pileTransitions = map[models.PileStatus][]models.PileStatus{
	models.PileAvailable:   {models.PileInUse, models.PileMaintenance, models.PileAbandoned},
	models.PileInUse:       {models.PileAvailable},
	models.PileMaintenance: {models.PileAvailable, models.PileAbandoned},
	models.PileAbandoned:   {},
}

func canTransition(from, to models.PileStatus) bool {
	for _, allowed := range pileTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// validPileStatus reports whether s is one of the known lifecycle states.
func validPileStatus(s models.PileStatus) bool {
	_, ok := pileTransitions[s]
	return ok
}

package models

import "time"

// PileType distinguishes fast and slow charging hardware.
type PileType string

// Pile types.
const (
	PileFast PileType = "fast"
	PileSlow PileType = "slow"
)

// PileStatus is the lifecycle state of a single pile. Transitions are owned
// by the engine pile registry; nothing else writes it.
type PileStatus string

// Pile statuses.
const (
	PileAvailable   PileStatus = "available"
	PileInUse       PileStatus = "in_use"
	PileMaintenance PileStatus = "maintenance"
	PileAbandoned   PileStatus = "abandoned"
)

// Pile is a single charging outlet belonging to a station.
type Pile struct {
	PileID    string     `db:"pile_id" json:"pile_id"`
	Name      string     `db:"name" json:"name"`
	Type      PileType   `db:"pile_type" json:"pile_type"`
	PowerKW   float64    `db:"power_kw" json:"power_kw"`
	StationID string     `db:"station_id" json:"station_id"`
	PricingID string     `db:"pricing_id" json:"pricing_id"`
	Status    PileStatus `db:"status" json:"status"`
	Remarks   string     `db:"remarks" json:"remarks,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

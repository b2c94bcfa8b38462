package models

import "time"

// StationAttribute marks who a station serves.
type StationAttribute string

// Station attributes.
const (
	StationShared   StationAttribute = "shared"
	StationPersonal StationAttribute = "personal"
)

// StationType marks vehicle compatibility.
type StationType string

// Station types.
const (
	StationExclusive StationType = "exclusive"
	StationMixed     StationType = "mixed"
)

// StationStatus is the administrative lifecycle state of a station.
type StationStatus string

// Station statuses.
const (
	StationAvailable  StationStatus = "available"
	StationPending    StationStatus = "pending"
	StationCreating   StationStatus = "creating"
	StationDeprecated StationStatus = "deprecated"
)

// Station is a physical site hosting charging piles. Its piles are resolved
// through the pile repository by station id, never held as a stored collection.
type Station struct {
	StationID  string           `db:"station_id" json:"station_id"`
	Name       string           `db:"name" json:"name"`
	Attribute  StationAttribute `db:"attribute" json:"attribute"`
	Type       StationType      `db:"station_type" json:"station_type"`
	Address    string           `db:"address" json:"address"`
	Eircode    string           `db:"eircode" json:"eircode"`
	Status     StationStatus    `db:"status" json:"status"`
	Remarks    string           `db:"remarks" json:"remarks,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

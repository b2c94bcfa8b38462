package models

import "time"

// PricingType selects how the electricity fee is resolved.
type PricingType string

// Pricing types.
const (
	PricingUnified PricingType = "unified"
	PricingCustom  PricingType = "custom"
)

// RatePeriod is one row of a custom standard's time-period table. Minutes are
// measured from midnight; a period with StartMinute > EndMinute wraps past
// midnight (e.g. 22:00-06:00).
type RatePeriod struct {
	StartMinute    int     `json:"start_minute"`
	EndMinute      int     `json:"end_minute"`
	ElectricityFee float64 `json:"electricity_fee"`
}

// PricingStandard converts delivered energy into monetary cost. Standards
// referenced by settled records are replaced, never edited, so historical
// costs stay auditable.
type PricingStandard struct {
	PricingID      string       `db:"pricing_id" json:"pricing_id"`
	Type           PricingType  `db:"pricing_type" json:"pricing_type"`
	ElectricityFee float64      `db:"electricity_fee" json:"electricity_fee"`
	ServiceFee     float64      `db:"service_fee" json:"service_fee"`
	Periods        []RatePeriod `db:"-" json:"periods,omitempty"`
	Remarks        string       `db:"remarks" json:"remarks,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

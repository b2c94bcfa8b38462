package models

import "time"

// TransactionStatus is the settlement state shared by charging and recharge
// records. Records are immutable once created except for this field.
type TransactionStatus string

// Transaction statuses.
const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionRefunding TransactionStatus = "refunding"
	TransactionRefunded  TransactionStatus = "refunded"
)

// ChargingRecord is the settled outcome of one charging session.
type ChargingRecord struct {
	OrderID       string            `db:"order_id" json:"order_id"`
	CustomerID    string            `db:"customer_id" json:"customer_id"`
	PaymentMethod string            `db:"payment_method" json:"payment_method"`
	Amount        float64           `db:"amount" json:"amount"`
	EnergyKWh     float64           `db:"energy_kwh" json:"energy_kwh"`
	PileID        string            `db:"pile_id" json:"pile_id"`
	Status        TransactionStatus `db:"status" json:"status"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
}

// RechargeRecord is a settled balance top-up.
type RechargeRecord struct {
	OrderID       string            `db:"order_id" json:"order_id"`
	CustomerID    string            `db:"customer_id" json:"customer_id"`
	PaymentMethod string            `db:"payment_method" json:"payment_method"`
	Amount        float64           `db:"amount" json:"amount"`
	Status        TransactionStatus `db:"status" json:"status"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
}

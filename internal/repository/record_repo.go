package repository

import (
	"context"
	"database/sql"
	"fmt"

	"chargefleet/internal/engine"
	"chargefleet/internal/models"
)

// RecordRepository persists settled charging and recharge records. It is the
// ledger's write-through store.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository returns repository.
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// SaveChargingRecord inserts a settled session record.
func (r *RecordRepository) SaveChargingRecord(ctx context.Context, rec *models.ChargingRecord) error {
	const query = `
		INSERT INTO charging_records (order_id, customer_id, payment_method, amount, energy_kwh, pile_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.OrderID,
		rec.CustomerID,
		rec.PaymentMethod,
		rec.Amount,
		rec.EnergyKWh,
		rec.PileID,
		rec.Status,
		rec.CreatedAt,
	)
	return err
}

// SaveRechargeRecord inserts a settled top-up record.
func (r *RecordRepository) SaveRechargeRecord(ctx context.Context, rec *models.RechargeRecord) error {
	const query = `
		INSERT INTO recharge_records (order_id, customer_id, payment_method, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.OrderID,
		rec.CustomerID,
		rec.PaymentMethod,
		rec.Amount,
		rec.Status,
		rec.CreatedAt,
	)
	return err
}

// UpdateChargingStatus advances a charging record through the refund flow.
func (r *RecordRepository) UpdateChargingStatus(ctx context.Context, orderID string, status models.TransactionStatus) error {
	return r.updateStatus(ctx, "charging_records", orderID, status)
}

// UpdateRechargeStatus advances a recharge record through the refund flow.
func (r *RecordRepository) UpdateRechargeStatus(ctx context.Context, orderID string, status models.TransactionStatus) error {
	return r.updateStatus(ctx, "recharge_records", orderID, status)
}

func (r *RecordRepository) updateStatus(ctx context.Context, table, orderID string, status models.TransactionStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $2 WHERE order_id = $1`, table)
	result, err := r.db.ExecContext(ctx, query, orderID, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("record %s: %w", orderID, engine.ErrRecordNotFound)
	}
	return nil
}

// ListAllCharging returns every charging record in creation order. Used to
// rebuild the in-memory ledger at startup.
func (r *RecordRepository) ListAllCharging(ctx context.Context) ([]models.ChargingRecord, error) {
	const query = `
		SELECT order_id, customer_id, payment_method, amount, energy_kwh, pile_id, status, created_at
		FROM charging_records
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ChargingRecord
	for rows.Next() {
		var rec models.ChargingRecord
		if err := rows.Scan(
			&rec.OrderID,
			&rec.CustomerID,
			&rec.PaymentMethod,
			&rec.Amount,
			&rec.EnergyKWh,
			&rec.PileID,
			&rec.Status,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListAllRecharges returns every recharge record in creation order.
func (r *RecordRepository) ListAllRecharges(ctx context.Context) ([]models.RechargeRecord, error) {
	const query = `
		SELECT order_id, customer_id, payment_method, amount, status, created_at
		FROM recharge_records
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.RechargeRecord
	for rows.Next() {
		var rec models.RechargeRecord
		if err := rows.Scan(
			&rec.OrderID,
			&rec.CustomerID,
			&rec.PaymentMethod,
			&rec.Amount,
			&rec.Status,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListChargingByCustomer returns latest session records for a customer.
func (r *RecordRepository) ListChargingByCustomer(ctx context.Context, customerID string, limit int) ([]models.ChargingRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT order_id, customer_id, payment_method, amount, energy_kwh, pile_id, status, created_at
		FROM charging_records
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ChargingRecord
	for rows.Next() {
		var rec models.ChargingRecord
		if err := rows.Scan(
			&rec.OrderID,
			&rec.CustomerID,
			&rec.PaymentMethod,
			&rec.Amount,
			&rec.EnergyKWh,
			&rec.PileID,
			&rec.Status,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListRechargesByCustomer returns latest top-up records for a customer.
func (r *RecordRepository) ListRechargesByCustomer(ctx context.Context, customerID string, limit int) ([]models.RechargeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT order_id, customer_id, payment_method, amount, status, created_at
		FROM recharge_records
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.RechargeRecord
	for rows.Next() {
		var rec models.RechargeRecord
		if err := rows.Scan(
			&rec.OrderID,
			&rec.CustomerID,
			&rec.PaymentMethod,
			&rec.Amount,
			&rec.Status,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

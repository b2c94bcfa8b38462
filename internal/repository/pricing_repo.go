package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"chargefleet/internal/engine"
	"chargefleet/internal/models"
)

// PricingRepository persists pricing standards. The time-period table of a
// custom standard is stored as a JSONB column.
type PricingRepository struct {
	db *sql.DB
}

// NewPricingRepository returns repository.
func NewPricingRepository(db *sql.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// Create inserts a new standard. Standards are never updated in place.
func (r *PricingRepository) Create(ctx context.Context, std *models.PricingStandard) error {
	periods, err := json.Marshal(std.Periods)
	if err != nil {
		return fmt.Errorf("pricing %s: encode periods: %w", std.PricingID, err)
	}

	const query = `
		INSERT INTO pricing_standards (pricing_id, pricing_type, electricity_fee, service_fee, periods, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query,
		std.PricingID,
		std.Type,
		std.ElectricityFee,
		std.ServiceFee,
		periods,
		std.Remarks,
	).Scan(&std.CreatedAt)
}

// PricingStandardByID returns a standard by its pricing id.
func (r *PricingRepository) PricingStandardByID(ctx context.Context, pricingID string) (*models.PricingStandard, error) {
	const query = `
		SELECT pricing_id, pricing_type, electricity_fee, service_fee, periods, remarks, created_at
		FROM pricing_standards
		WHERE pricing_id = $1
	`
	var std models.PricingStandard
	var periods []byte
	err := r.db.QueryRowContext(ctx, query, pricingID).Scan(
		&std.PricingID,
		&std.Type,
		&std.ElectricityFee,
		&std.ServiceFee,
		&periods,
		&std.Remarks,
		&std.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pricing %s: %w", pricingID, engine.ErrPricingNotFound)
	}
	if err != nil {
		return nil, err
	}
	if len(periods) > 0 {
		if err := json.Unmarshal(periods, &std.Periods); err != nil {
			return nil, fmt.Errorf("pricing %s: decode periods: %w", pricingID, err)
		}
	}
	return &std, nil
}

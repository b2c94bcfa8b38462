package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chargefleet/internal/engine"
	"chargefleet/internal/models"
)

// PileRepository persists charging piles. It backs the engine's PileResolver,
// so missing rows surface as the engine's not-found error.
type PileRepository struct {
	db *sql.DB
}

// NewPileRepository returns repository.
func NewPileRepository(db *sql.DB) *PileRepository {
	return &PileRepository{db: db}
}

// Create inserts a new pile.
func (r *PileRepository) Create(ctx context.Context, pile *models.Pile) error {
	const query = `
		INSERT INTO piles (pile_id, name, pile_type, power_kw, station_id, pricing_id, status, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		pile.PileID,
		pile.Name,
		pile.Type,
		pile.PowerKW,
		pile.StationID,
		pile.PricingID,
		pile.Status,
		pile.Remarks,
	).Scan(&pile.CreatedAt, &pile.UpdatedAt)
}

// PileByID returns pile by its pile id.
func (r *PileRepository) PileByID(ctx context.Context, pileID string) (*models.Pile, error) {
	const query = `
		SELECT pile_id, name, pile_type, power_kw, station_id, pricing_id, status, remarks, created_at, updated_at
		FROM piles
		WHERE pile_id = $1
	`
	var p models.Pile
	err := r.db.QueryRowContext(ctx, query, pileID).Scan(
		&p.PileID,
		&p.Name,
		&p.Type,
		&p.PowerKW,
		&p.StationID,
		&p.PricingID,
		&p.Status,
		&p.Remarks,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pile %s: %w", pileID, engine.ErrPileNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByStation returns piles belonging to a station.
func (r *PileRepository) ListByStation(ctx context.Context, stationID string) ([]models.Pile, error) {
	const query = `
		SELECT pile_id, name, pile_type, power_kw, station_id, pricing_id, status, remarks, created_at, updated_at
		FROM piles
		WHERE station_id = $1
		ORDER BY pile_id
	`
	return r.queryPiles(ctx, query, stationID)
}

// ListAll returns every pile; used to seed the engine registry at startup.
func (r *PileRepository) ListAll(ctx context.Context) ([]models.Pile, error) {
	const query = `
		SELECT pile_id, name, pile_type, power_kw, station_id, pricing_id, status, remarks, created_at, updated_at
		FROM piles
		ORDER BY pile_id
	`
	return r.queryPiles(ctx, query)
}

func (r *PileRepository) queryPiles(ctx context.Context, query string, args ...interface{}) ([]models.Pile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var piles []models.Pile
	for rows.Next() {
		var p models.Pile
		if err := rows.Scan(
			&p.PileID,
			&p.Name,
			&p.Type,
			&p.PowerKW,
			&p.StationID,
			&p.PricingID,
			&p.Status,
			&p.Remarks,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		piles = append(piles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return piles, nil
}

// UpdateStatus mirrors an engine transition into the durable row.
func (r *PileRepository) UpdateStatus(ctx context.Context, pileID string, status models.PileStatus) error {
	const query = `
		UPDATE piles
		SET status = $2,
		    updated_at = NOW()
		WHERE pile_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, pileID, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("pile %s: %w", pileID, engine.ErrPileNotFound)
	}
	return nil
}

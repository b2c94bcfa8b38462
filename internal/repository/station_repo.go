package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chargefleet/internal/models"
)

// ErrStationNotFound indicates a missing station row.
var ErrStationNotFound = errors.New("station not found")

// StationRepository persists charging stations.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

// Create inserts a new station.
func (r *StationRepository) Create(ctx context.Context, station *models.Station) error {
	const query = `
		INSERT INTO stations (station_id, name, attribute, station_type, address, eircode, status, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		station.StationID,
		station.Name,
		station.Attribute,
		station.Type,
		station.Address,
		station.Eircode,
		station.Status,
		station.Remarks,
	).Scan(&station.CreatedAt, &station.UpdatedAt)
}

// GetByID returns station by its station id.
func (r *StationRepository) GetByID(ctx context.Context, stationID string) (*models.Station, error) {
	const query = `
		SELECT station_id, name, attribute, station_type, address, eircode, status, remarks, created_at, updated_at
		FROM stations
		WHERE station_id = $1
	`
	var s models.Station
	err := r.db.QueryRowContext(ctx, query, stationID).Scan(
		&s.StationID,
		&s.Name,
		&s.Attribute,
		&s.Type,
		&s.Address,
		&s.Eircode,
		&s.Status,
		&s.Remarks,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("station %s: %w", stationID, ErrStationNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all stations, newest first.
func (r *StationRepository) List(ctx context.Context, limit int) ([]models.Station, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT station_id, name, attribute, station_type, address, eircode, status, remarks, created_at, updated_at
		FROM stations
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(
			&s.StationID,
			&s.Name,
			&s.Attribute,
			&s.Type,
			&s.Address,
			&s.Eircode,
			&s.Status,
			&s.Remarks,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

// UpdateStatus sets the administrative station status.
func (r *StationRepository) UpdateStatus(ctx context.Context, stationID string, status models.StationStatus) error {
	const query = `
		UPDATE stations
		SET status = $2,
		    updated_at = NOW()
		WHERE station_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, stationID, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("station %s: %w", stationID, ErrStationNotFound)
	}
	return nil
}

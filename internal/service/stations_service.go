package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"chargefleet/internal/engine"
	"chargefleet/internal/models"
	"chargefleet/internal/repository"
)

// Validation errors for administrative inputs.
var (
	ErrInvalidEircode           = errors.New("stations: invalid eircode format")
	ErrInvalidStationTransition = errors.New("stations: invalid station transition")
	ErrStationNotOperable       = errors.New("stations: station does not accept piles")
	ErrInvalidInput             = errors.New("stations: invalid input")
)

var eircodePattern = regexp.MustCompile(`^[A-Z]\d{2}[A-Z]{2}\d{2}$`)

// stationTransitions is the administrative station lifecycle allow-list.
// Station status is never session-driven.
var stationTransitions = map[models.StationStatus][]models.StationStatus{
	models.StationPending:    {models.StationCreating, models.StationDeprecated},
	models.StationCreating:   {models.StationAvailable, models.StationDeprecated},
	models.StationAvailable:  {models.StationDeprecated},
	models.StationDeprecated: {},
}

func stationTransitionAllowed(from, to models.StationStatus) bool {
	for _, allowed := range stationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StationsService handles station, pile and pricing administration. Pile
// lifecycle changes go through the engine registry first, which owns pile
// state; the repository row mirrors the committed transition.
type StationsService struct {
	stations *repository.StationRepository
	piles    *repository.PileRepository
	pricing  *repository.PricingRepository
	registry *engine.PileRegistry
	logger   *zap.Logger
}

// NewStationsService builds service.
func NewStationsService(
	stations *repository.StationRepository,
	piles *repository.PileRepository,
	pricing *repository.PricingRepository,
	registry *engine.PileRegistry,
	logger *zap.Logger,
) *StationsService {
	return &StationsService{
		stations: stations,
		piles:    piles,
		pricing:  pricing,
		registry: registry,
		logger:   logger,
	}
}

// RegisterStationInput is the registration payload.
type RegisterStationInput struct {
	StationID string
	Name      string
	Attribute models.StationAttribute
	Type      models.StationType
	Address   string
	Eircode   string
	Remarks   string
}

// RegisterStation creates a station in pending status.
func (s *StationsService) RegisterStation(ctx context.Context, input RegisterStationInput) (*models.Station, error) {
	if input.StationID == "" || input.Name == "" {
		return nil, fmt.Errorf("station id and name required: %w", ErrInvalidInput)
	}
	if !eircodePattern.MatchString(input.Eircode) {
		return nil, fmt.Errorf("eircode %q: %w", input.Eircode, ErrInvalidEircode)
	}

	station := &models.Station{
		StationID: input.StationID,
		Name:      input.Name,
		Attribute: input.Attribute,
		Type:      input.Type,
		Address:   input.Address,
		Eircode:   input.Eircode,
		Status:    models.StationPending,
		Remarks:   input.Remarks,
	}
	if err := s.stations.Create(ctx, station); err != nil {
		return nil, err
	}

	s.logger.Info("station registered", zap.String("station_id", station.StationID))
	return station, nil
}

// UpdateStationStatus applies an administrative station transition.
func (s *StationsService) UpdateStationStatus(ctx context.Context, stationID string, to models.StationStatus) error {
	station, err := s.stations.GetByID(ctx, stationID)
	if err != nil {
		return err
	}
	if !stationTransitionAllowed(station.Status, to) {
		return fmt.Errorf("station %s: %s -> %s: %w", stationID, station.Status, to, ErrInvalidStationTransition)
	}
	return s.stations.UpdateStatus(ctx, stationID, to)
}

// RegisterPileInput is the pile registration payload.
type RegisterPileInput struct {
	PileID    string
	Name      string
	Type      models.PileType
	PowerKW   float64
	StationID string
	PricingID string
	Remarks   string
}

// RegisterPile attaches a new pile to a station and makes it allocatable.
func (s *StationsService) RegisterPile(ctx context.Context, input RegisterPileInput) (*models.Pile, error) {
	if input.PileID == "" || input.StationID == "" {
		return nil, fmt.Errorf("pile id and station id required: %w", ErrInvalidInput)
	}
	if input.PowerKW <= 0 {
		return nil, fmt.Errorf("pile %s: power %.1f kW: %w", input.PileID, input.PowerKW, ErrInvalidInput)
	}

	station, err := s.stations.GetByID(ctx, input.StationID)
	if err != nil {
		return nil, err
	}
	if station.Status == models.StationDeprecated {
		return nil, fmt.Errorf("station %s is deprecated: %w", input.StationID, ErrStationNotOperable)
	}
	if _, err := s.pricing.PricingStandardByID(ctx, input.PricingID); err != nil {
		return nil, err
	}

	pile := &models.Pile{
		PileID:    input.PileID,
		Name:      input.Name,
		Type:      input.Type,
		PowerKW:   input.PowerKW,
		StationID: input.StationID,
		PricingID: input.PricingID,
		Status:    models.PileAvailable,
		Remarks:   input.Remarks,
	}
	if err := s.piles.Create(ctx, pile); err != nil {
		return nil, err
	}
	if err := s.registry.Register(pile.PileID, pile.Status); err != nil {
		return nil, err
	}

	s.logger.Info("pile registered",
		zap.String("pile_id", pile.PileID),
		zap.String("station_id", pile.StationID),
	)
	return pile, nil
}

// SetPileMaintenance takes a pile out of service.
func (s *StationsService) SetPileMaintenance(ctx context.Context, pileID string) error {
	return s.pileTransition(ctx, pileID, s.registry.SetMaintenance, models.PileMaintenance)
}

// ReturnPileToService brings a maintenance pile back.
func (s *StationsService) ReturnPileToService(ctx context.Context, pileID string) error {
	return s.pileTransition(ctx, pileID, s.registry.SetAvailable, models.PileAvailable)
}

// SetPileAbandoned decommissions a pile permanently.
func (s *StationsService) SetPileAbandoned(ctx context.Context, pileID string) error {
	return s.pileTransition(ctx, pileID, s.registry.SetAbandoned, models.PileAbandoned)
}

// ForceReleasePile frees a pile stuck in_use by an unfinished session.
func (s *StationsService) ForceReleasePile(ctx context.Context, pileID string) error {
	return s.pileTransition(ctx, pileID, s.registry.ForceRelease, models.PileAvailable)
}

func (s *StationsService) pileTransition(ctx context.Context, pileID string, apply func(string) error, to models.PileStatus) error {
	if err := apply(pileID); err != nil {
		return err
	}
	if err := s.piles.UpdateStatus(ctx, pileID, to); err != nil {
		s.logger.Warn("pile status not persisted",
			zap.String("pile_id", pileID),
			zap.String("status", string(to)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// ListStations returns registered stations.
func (s *StationsService) ListStations(ctx context.Context, limit int) ([]models.Station, error) {
	return s.stations.List(ctx, limit)
}

// StationPiles returns a station's piles with live status from the registry.
func (s *StationsService) StationPiles(ctx context.Context, stationID string) ([]models.Pile, error) {
	piles, err := s.piles.ListByStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	for i := range piles {
		if status, err := s.registry.Status(piles[i].PileID); err == nil {
			piles[i].Status = status
		}
	}
	return piles, nil
}

// CreatePricingStandardInput is the pricing creation payload.
type CreatePricingStandardInput struct {
	PricingID      string
	Type           models.PricingType
	ElectricityFee float64
	ServiceFee     float64
	Periods        []models.RatePeriod
	Remarks        string
}

// CreatePricingStandard registers a new standard. Existing standards are
// never edited; publish a replacement instead.
func (s *StationsService) CreatePricingStandard(ctx context.Context, input CreatePricingStandardInput) (*models.PricingStandard, error) {
	if input.PricingID == "" {
		return nil, fmt.Errorf("pricing id required: %w", ErrInvalidInput)
	}
	if input.Type != models.PricingUnified && input.Type != models.PricingCustom {
		return nil, fmt.Errorf("pricing %s: unknown type %q: %w", input.PricingID, input.Type, ErrInvalidInput)
	}
	if input.ElectricityFee < 0 || input.ServiceFee < 0 {
		return nil, fmt.Errorf("pricing %s: negative fee: %w", input.PricingID, ErrInvalidInput)
	}
	for _, p := range input.Periods {
		if p.StartMinute < 0 || p.StartMinute >= 24*60 || p.EndMinute < 0 || p.EndMinute > 24*60 || p.ElectricityFee < 0 {
			return nil, fmt.Errorf("pricing %s: malformed rate period: %w", input.PricingID, ErrInvalidInput)
		}
	}

	std := &models.PricingStandard{
		PricingID:      input.PricingID,
		Type:           input.Type,
		ElectricityFee: input.ElectricityFee,
		ServiceFee:     input.ServiceFee,
		Periods:        input.Periods,
		Remarks:        input.Remarks,
	}
	if err := s.pricing.Create(ctx, std); err != nil {
		return nil, err
	}
	return std, nil
}

// PricingStandard fetches a standard with its rate periods.
func (s *StationsService) PricingStandard(ctx context.Context, pricingID string) (*models.PricingStandard, error) {
	if pricingID == "" {
		return nil, fmt.Errorf("pricing id required: %w", ErrInvalidInput)
	}
	return s.pricing.PricingStandardByID(ctx, pricingID)
}

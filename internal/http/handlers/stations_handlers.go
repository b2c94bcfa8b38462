package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"chargefleet/internal/models"
	"chargefleet/internal/service"
)

// StationsHandlers serves station, pile and pricing administration.
type StationsHandlers struct {
	stations *service.StationsService
	logger   *zap.Logger
}

// NewStationsHandlers builds handlers.
func NewStationsHandlers(stations *service.StationsService, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{stations: stations, logger: logger}
}

type registerStationRequest struct {
	StationID string `json:"station_id"`
	Name      string `json:"name"`
	Attribute string `json:"attribute"`
	Type      string `json:"station_type"`
	Address   string `json:"address"`
	Eircode   string `json:"eircode"`
	Remarks   string `json:"remarks"`
}

// HandleRegisterStation handles POST /admin/stations.
func (h *StationsHandlers) HandleRegisterStation(w http.ResponseWriter, r *http.Request) {
	var req registerStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	station, err := h.stations.RegisterStation(r.Context(), service.RegisterStationInput{
		StationID: req.StationID,
		Name:      req.Name,
		Attribute: models.StationAttribute(req.Attribute),
		Type:      models.StationType(req.Type),
		Address:   req.Address,
		Eircode:   req.Eircode,
		Remarks:   req.Remarks,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

type stationStatusRequest struct {
	StationID string `json:"station_id"`
	Status    string `json:"status"`
}

// HandleStationStatus handles POST /admin/stations/status.
func (h *StationsHandlers) HandleStationStatus(w http.ResponseWriter, r *http.Request) {
	var req stationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.stations.UpdateStationStatus(r.Context(), req.StationID, models.StationStatus(req.Status)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"station_id": req.StationID, "status": req.Status})
}

// HandleListStations handles GET /stations.
func (h *StationsHandlers) HandleListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.ListStations(r.Context(), 100)
	if err != nil {
		h.logger.Error("failed to list stations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list stations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
}

// HandleStationPiles handles GET /stations/piles?station_id=.
func (h *StationsHandlers) HandleStationPiles(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station_id")
	if stationID == "" {
		writeError(w, http.StatusBadRequest, "station_id required")
		return
	}

	piles, err := h.stations.StationPiles(r.Context(), stationID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"piles": piles})
}

type registerPileRequest struct {
	PileID    string  `json:"pile_id"`
	Name      string  `json:"name"`
	Type      string  `json:"pile_type"`
	PowerKW   float64 `json:"power_kw"`
	StationID string  `json:"station_id"`
	PricingID string  `json:"pricing_id"`
	Remarks   string  `json:"remarks"`
}

// HandleRegisterPile handles POST /admin/piles.
func (h *StationsHandlers) HandleRegisterPile(w http.ResponseWriter, r *http.Request) {
	var req registerPileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	pile, err := h.stations.RegisterPile(r.Context(), service.RegisterPileInput{
		PileID:    req.PileID,
		Name:      req.Name,
		Type:      models.PileType(req.Type),
		PowerKW:   req.PowerKW,
		StationID: req.StationID,
		PricingID: req.PricingID,
		Remarks:   req.Remarks,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pile)
}

type pileRequest struct {
	PileID string `json:"pile_id"`
}

func (h *StationsHandlers) pileAction(action func(r *http.Request, pileID string) error, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.PileID == "" {
			writeError(w, http.StatusBadRequest, "pile_id required")
			return
		}
		if err := action(r, req.PileID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"pile_id": req.PileID, "status": status})
	}
}

// HandlePileMaintenance handles POST /admin/piles/maintenance.
func (h *StationsHandlers) HandlePileMaintenance() http.HandlerFunc {
	return h.pileAction(func(r *http.Request, pileID string) error {
		return h.stations.SetPileMaintenance(r.Context(), pileID)
	}, string(models.PileMaintenance))
}

// HandlePileReturn handles POST /admin/piles/return.
func (h *StationsHandlers) HandlePileReturn() http.HandlerFunc {
	return h.pileAction(func(r *http.Request, pileID string) error {
		return h.stations.ReturnPileToService(r.Context(), pileID)
	}, string(models.PileAvailable))
}

// HandlePileAbandon handles POST /admin/piles/abandon.
func (h *StationsHandlers) HandlePileAbandon() http.HandlerFunc {
	return h.pileAction(func(r *http.Request, pileID string) error {
		return h.stations.SetPileAbandoned(r.Context(), pileID)
	}, string(models.PileAbandoned))
}

// HandlePileForceRelease handles POST /admin/piles/force-release.
func (h *StationsHandlers) HandlePileForceRelease() http.HandlerFunc {
	return h.pileAction(func(r *http.Request, pileID string) error {
		return h.stations.ForceReleasePile(r.Context(), pileID)
	}, string(models.PileAvailable))
}

type createPricingRequest struct {
	PricingID      string              `json:"pricing_id"`
	Type           string              `json:"pricing_type"`
	ElectricityFee float64             `json:"electricity_fee"`
	ServiceFee     float64             `json:"service_fee"`
	Periods        []models.RatePeriod `json:"periods"`
	Remarks        string              `json:"remarks"`
}

// HandleCreatePricing handles POST /admin/pricing.
func (h *StationsHandlers) HandleCreatePricing(w http.ResponseWriter, r *http.Request) {
	var req createPricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	std, err := h.stations.CreatePricingStandard(r.Context(), service.CreatePricingStandardInput{
		PricingID:      req.PricingID,
		Type:           models.PricingType(req.Type),
		ElectricityFee: req.ElectricityFee,
		ServiceFee:     req.ServiceFee,
		Periods:        req.Periods,
		Remarks:        req.Remarks,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, std)
}

// HandleGetPricing handles GET /pricing?pricing_id=.
func (h *StationsHandlers) HandleGetPricing(w http.ResponseWriter, r *http.Request) {
	pricingID := r.URL.Query().Get("pricing_id")
	if pricingID == "" {
		writeError(w, http.StatusBadRequest, "pricing_id required")
		return
	}

	std, err := h.stations.PricingStandard(r.Context(), pricingID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, std)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"chargefleet/internal/engine"
	"chargefleet/internal/http/middleware"
	"chargefleet/internal/repository"
)

// WalletHandler serves balance, recharge, refund and record history.
type WalletHandler struct {
	orchestrator *engine.Orchestrator
	records      *repository.RecordRepository
	logger       *zap.Logger
}

// NewWalletHandler builds handler. records may be nil when running without a
// database; history then comes from the in-memory ledger statement only.
func NewWalletHandler(orchestrator *engine.Orchestrator, records *repository.RecordRepository, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{orchestrator: orchestrator, records: records, logger: logger}
}

type rechargeRequest struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// HandleRecharge handles POST /wallet/recharge.
func (h *WalletHandler) HandleRecharge(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}

	var req rechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	rec, err := h.orchestrator.Recharge(r.Context(), customerID, req.Amount, req.PaymentMethod)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type refundRequest struct {
	OrderID string `json:"order_id"`
}

// HandleRefund handles POST /wallet/refund. Only the record's own customer
// may refund it.
func (h *WalletHandler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "order_id required")
		return
	}

	if err := h.orchestrator.Refund(r.Context(), customerID, req.OrderID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"order_id": req.OrderID, "status": "refunded"})
}

// HandleBalance handles GET /wallet/balance.
func (h *WalletHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customer_id": customerID,
		"balance":     h.orchestrator.Balance(customerID),
		"statement":   h.orchestrator.Statement(customerID),
	})
}

// HandleRecords handles GET /wallet/records.
func (h *WalletHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}
	if h.records == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"statement": h.orchestrator.Statement(customerID)})
		return
	}

	charges, err := h.records.ListChargingByCustomer(r.Context(), customerID, 50)
	if err != nil {
		h.logger.Error("failed to load charging records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load records")
		return
	}
	recharges, err := h.records.ListRechargesByCustomer(r.Context(), customerID, 50)
	if err != nil {
		h.logger.Error("failed to load recharge records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"charging_records": charges,
		"recharge_records": recharges,
	})
}

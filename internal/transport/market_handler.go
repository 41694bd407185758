package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/freightledger/freightledger-backend/internal/auction"
	"github.com/freightledger/freightledger-backend/internal/demand"
	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/freightledger/freightledger-backend/internal/payment"
	"github.com/freightledger/freightledger-backend/internal/token"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MarketHandler serves the marketplace write path: demands, auctions,
// payments and token operations.
type MarketHandler struct {
	logger   *zap.Logger
	demands  *demand.Processor
	auctions *auction.Engine
	payments *payment.Engine
	tokens   *token.Ledger
}

// NewMarketHandler returns a MarketHandler instance.
func NewMarketHandler(demands *demand.Processor, auctions *auction.Engine, payments *payment.Engine, tokens *token.Ledger, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{
		logger:   logger.Named("market"),
		demands:  demands,
		auctions: auctions,
		payments: payments,
		tokens:   tokens,
	}
}

// RegisterRoutes mounts the marketplace endpoints.
func (h *MarketHandler) RegisterRoutes(r chi.Router) {
	r.Post("/demands", h.submitDemand)
	r.Get("/demands", h.listDemands)
	r.Get("/demands/{id}", h.getDemand)

	r.Post("/auctions", h.startAuction)
	r.Get("/auctions/{id}", h.getAuction)
	r.Post("/auctions/{id}/bids/first", h.firstRoundBid)
	r.Post("/auctions/{id}/advance", h.advanceAuction)
	r.Post("/auctions/{id}/bids/second", h.secondRoundBid)
	r.Post("/auctions/{id}/solutions", h.generateSolutions)

	r.Post("/payments", h.createPayment)
	r.Get("/payments/{id}", h.getPayment)
	r.Post("/payments/{id}/advance", h.advancePayment)
	r.Post("/payments/{id}/stages/{stage}", h.triggerStage)
	r.Post("/payments/{id}/refund", h.requestRefund)
	r.Post("/payments/{id}/refund/process", h.processRefund)

	r.Get("/tokens/{id}/balance", h.tokenBalance)
	r.Post("/tokens/transfer", h.tokenTransfer)
}

type demandRequest struct {
	MerchantID   string          `json:"merchant_id"`
	Weight       float64         `json:"weight"`
	Volume       float64         `json:"volume"`
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	CargoType    string          `json:"cargo_type"`
	DeliveryTime string          `json:"delivery_time"`
	CLPItems     []model.CLPItem `json:"clp_items"`
}

func (h *MarketHandler) submitDemand(w http.ResponseWriter, r *http.Request) {
	var req demandRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.demands.Process(demand.Request{
		MerchantID:   req.MerchantID,
		Weight:       req.Weight,
		Volume:       req.Volume,
		Origin:       req.Origin,
		Destination:  req.Destination,
		CargoType:    req.CargoType,
		DeliveryTime: req.DeliveryTime,
		CLPItems:     req.CLPItems,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *MarketHandler) listDemands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.demands.ListActive())
}

func (h *MarketHandler) getDemand(w http.ResponseWriter, r *http.Request) {
	d, ok := h.demands.Demand(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "demand not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *MarketHandler) startAuction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DemandID string `json:"demand_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	d, ok := h.demands.Demand(req.DemandID)
	if !ok {
		http.Error(w, "demand not found", http.StatusNotFound)
		return
	}
	id := h.auctions.Start(d)
	writeJSON(w, http.StatusCreated, map[string]string{"auction_id": id})
}

func (h *MarketHandler) getAuction(w http.ResponseWriter, r *http.Request) {
	a, ok := h.auctions.Auction(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "auction not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *MarketHandler) firstRoundBid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CarrierID string  `json:"carrier_id"`
		BasePrice float64 `json:"base_price"`
		Mode      string  `json:"mode"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	err := h.auctions.SubmitFirstRoundBid(chi.URLParam(r, "id"), req.CarrierID, req.BasePrice, model.TransportMode(req.Mode))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (h *MarketHandler) advanceAuction(w http.ResponseWriter, r *http.Request) {
	if err := h.auctions.AdvanceToSecondRound(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.AuctionSecondRound)})
}

func (h *MarketHandler) secondRoundBid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CarrierID          string  `json:"carrier_id"`
		FinalPrice         float64 `json:"final_price"`
		CarbonCompensation float64 `json:"carbon_compensation"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	err := h.auctions.SubmitSecondRoundBid(chi.URLParam(r, "id"), req.CarrierID, req.FinalPrice, req.CarbonCompensation)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (h *MarketHandler) generateSolutions(w http.ResponseWriter, r *http.Request) {
	solutions, err := h.auctions.GenerateSolutions(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, solutions)
}

func (h *MarketHandler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AuctionID string `json:"auction_id"`
		Label     string `json:"label"`
		PayerID   string `json:"payer_id"`
		Currency  string `json:"currency"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	a, ok := h.auctions.Auction(req.AuctionID)
	if !ok {
		http.Error(w, "auction not found", http.StatusNotFound)
		return
	}
	for _, solution := range a.Solutions {
		if solution.Label == model.SolutionLabel(req.Label) {
			id := h.payments.Create(solution, req.PayerID, req.Currency)
			writeJSON(w, http.StatusCreated, map[string]string{"payment_id": id})
			return
		}
	}
	http.Error(w, "solution not found", http.StatusNotFound)
}

func (h *MarketHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.payments.Payment(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "payment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *MarketHandler) advancePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.payments.Advance(id); err != nil {
		h.writeError(w, err)
		return
	}
	p, _ := h.payments.Payment(id)
	writeJSON(w, http.StatusOK, p)
}

func (h *MarketHandler) triggerStage(w http.ResponseWriter, r *http.Request) {
	var proof payment.Proof
	if !h.decode(w, r, &proof) {
		return
	}
	id := chi.URLParam(r, "id")
	stage := model.PaymentStage(chi.URLParam(r, "stage"))
	if err := h.payments.TriggerStagePayment(id, stage, proof); err != nil {
		h.writeError(w, err)
		return
	}
	p, _ := h.payments.Payment(id)
	writeJSON(w, http.StatusOK, p)
}

func (h *MarketHandler) requestRefund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.payments.RequestRefund(chi.URLParam(r, "id"), req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refund_pending"})
}

func (h *MarketHandler) processRefund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Approved bool `json:"approved"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.payments.ProcessRefund(id, req.Approved); err != nil {
		h.writeError(w, err)
		return
	}
	p, _ := h.payments.Payment(id)
	writeJSON(w, http.StatusOK, p)
}

func (h *MarketHandler) tokenBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]any{
		"node_id": id,
		"balance": h.tokens.Balance(id),
	})
}

func (h *MarketHandler) tokenTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string          `json:"from"`
		To     string          `json:"to"`
		Amount decimal.Decimal `json:"amount"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.tokens.Transfer(req.From, req.To, req.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (h *MarketHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "failed to parse request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps engine rejections onto HTTP status codes. Unknown ids
// map to 404, state machine rejections to 409, everything else to 400.
func (h *MarketHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, auction.ErrUnknownAuction),
		errors.Is(err, payment.ErrUnknownPayment),
		errors.Is(err, demand.ErrUnknownDemand),
		errors.Is(err, token.ErrUnknownAccount):
		status = http.StatusNotFound
	case errors.Is(err, auction.ErrWrongState),
		errors.Is(err, auction.ErrDeadlinePassed),
		errors.Is(err, auction.ErrTooFewBids),
		errors.Is(err, payment.ErrAlreadyCompleted),
		errors.Is(err, payment.ErrStageMismatch),
		errors.Is(err, payment.ErrWrongStage),
		errors.Is(err, payment.ErrWrongStatus),
		errors.Is(err, payment.ErrNotCompleted),
		errors.Is(err, payment.ErrNoRefundPending):
		status = http.StatusConflict
	case errors.Is(err, auction.ErrNotCompliant),
		errors.Is(err, payment.ErrNotCompliant),
		errors.Is(err, demand.ErrNotCompliant):
		status = http.StatusForbidden
	}
	h.logger.Debug("request rejected", zap.Error(err))
	http.Error(w, err.Error(), status)
}

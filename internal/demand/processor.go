// Package demand normalizes shipment requests into STU-denominated demands
// and validates container loading plans before an auction is opened.
package demand

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/freightledger/freightledger-backend/internal/clock"
	"github.com/freightledger/freightledger-backend/internal/ledger"
	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/freightledger/freightledger-backend/internal/oracle"
	"go.uber.org/zap"
)

var (
	ErrInvalidDimensions = errors.New("weight and volume must be positive")
	ErrUnknownCargoType  = errors.New("unknown cargo type")
	ErrUnknownTimeClass  = errors.New("unknown delivery time class")
	ErrNotCompliant      = errors.New("merchant failed compliance check")
	ErrUnknownDemand     = errors.New("unknown demand")
)

// Container hard limits for CLP validation.
const (
	maxContainerWeight = 28000
	maxContainerVolume = 67.7
)

var stuFactors = map[string]float64{
	"general":    1.0,
	"fragile":    1.2,
	"cold_chain": 1.3,
	"dangerous":  1.5,
}

var timeFactors = map[string]float64{
	"standard": 1.0,
	"express":  1.4,
	"rush":     2.0,
}

// Request is a raw shipment request from a merchant.
type Request struct {
	MerchantID   string
	Weight       float64
	Volume       float64
	Origin       string
	Destination  string
	CargoType    string
	DeliveryTime string
	CLPItems     []model.CLPItem
}

// Processor normalizes demands and journals accepted ones.
type Processor struct {
	logger     *zap.Logger
	journal    *ledger.Ledger
	costing    oracle.Costing
	compliance oracle.Compliance
	now        clock.NowFunc

	mu      sync.Mutex
	demands map[string]*model.Demand
}

// NewProcessor builds a demand processor.
func NewProcessor(journal *ledger.Ledger, costing oracle.Costing, compliance oracle.Compliance, logger *zap.Logger) *Processor {
	return &Processor{
		logger:     logger.Named("demand"),
		journal:    journal,
		costing:    costing,
		compliance: compliance,
		now:        time.Now,
		demands:    make(map[string]*model.Demand),
	}
}

// SetNow injects the clock used for timestamps and ids.
func (p *Processor) SetNow(now clock.NowFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Process validates and normalizes a request. The base STU is
// max(weight/1000, volume/3); the adjusted STU applies cargo-type and
// delivery-time factors.
func (p *Processor) Process(req Request) (model.Demand, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.Weight <= 0 || req.Volume <= 0 {
		return model.Demand{}, ErrInvalidDimensions
	}
	cargoFactor, ok := stuFactors[req.CargoType]
	if !ok {
		return model.Demand{}, fmt.Errorf("%w: %s", ErrUnknownCargoType, req.CargoType)
	}
	timeFactor, ok := timeFactors[req.DeliveryTime]
	if !ok {
		return model.Demand{}, fmt.Errorf("%w: %s", ErrUnknownTimeClass, req.DeliveryTime)
	}
	if !p.compliance.IsCompliant(req.MerchantID, req.Weight*0.1, oracle.OpDemandSubmission) {
		return model.Demand{}, ErrNotCompliant
	}

	baseSTU := req.Weight / 1000
	if v := req.Volume / 3; v > baseSTU {
		baseSTU = v
	}
	adjustedSTU := baseSTU * cargoFactor * timeFactor
	distance := p.costing.Distance(req.Origin, req.Destination)
	now := p.now()

	d := &model.Demand{
		ID:           demandID(req, now),
		MerchantID:   req.MerchantID,
		Status:       model.DemandPending,
		Weight:       req.Weight,
		Volume:       req.Volume,
		Origin:       req.Origin,
		Destination:  req.Destination,
		CargoType:    req.CargoType,
		DeliveryTime: req.DeliveryTime,
		BaseSTU:      baseSTU,
		AdjustedSTU:  adjustedSTU,
		Distance:     distance,
		BaseCost:     estimateBaseCost(adjustedSTU, distance),
		CLP:          p.buildCLP(req.CLPItems),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.demands[d.ID] = d
	p.journal.SubmitTransaction(model.Transaction{
		Kind:       model.TxDemand,
		DemandID:   d.ID,
		MerchantID: d.MerchantID,
		Amount:     d.BaseCost,
		Note:       fmt.Sprintf("%s->%s", d.Origin, d.Destination),
	})
	p.logger.Info("demand accepted",
		zap.String("demand", d.ID),
		zap.String("merchant", d.MerchantID),
		zap.Float64("adjusted_stu", adjustedSTU),
		zap.Float64("distance", distance),
	)
	return *d, nil
}

// UpdateStatus moves a demand through its lifecycle.
func (p *Processor) UpdateStatus(id string, status model.DemandStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.demands[id]
	if !ok {
		return ErrUnknownDemand
	}
	d.Status = status
	d.UpdatedAt = p.now()
	return nil
}

// Demand returns a snapshot of one demand.
func (p *Processor) Demand(id string) (model.Demand, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.demands[id]
	if !ok {
		return model.Demand{}, false
	}
	return *d, true
}

// ListActive returns demands still moving through the marketplace.
func (p *Processor) ListActive() []model.Demand {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []model.Demand
	for _, d := range p.demands {
		switch d.Status {
		case model.DemandPending, model.DemandBidding, model.DemandProcessing:
			out = append(out, *d)
		}
	}
	return out
}

// Stats aggregates STU volume across all demands.
func (p *Processor) Stats() (total int, active int, totalSTU float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, d := range p.demands {
		total++
		totalSTU += d.AdjustedSTU
		switch d.Status {
		case model.DemandPending, model.DemandBidding, model.DemandProcessing:
			active++
		}
	}
	return total, active, totalSTU
}

// buildCLP validates the loading plan against container limits and the
// dangerous-goods compliance gate, and signs the item list.
func (p *Processor) buildCLP(items []model.CLPItem) model.CLPData {
	if len(items) == 0 {
		return model.CLPData{Signature: "N/A"}
	}

	var totalWeight, totalVolume float64
	for _, item := range items {
		totalWeight += item.Weight * float64(item.Quantity)
		totalVolume += item.Volume * float64(item.Quantity)
	}
	valid := totalWeight > 0 && totalVolume > 0 &&
		totalWeight <= maxContainerWeight && totalVolume <= maxContainerVolume
	if valid {
		for _, item := range items {
			if item.Dangerous && !p.compliance.IsCompliant("system", totalWeight, oracle.OpDangerousGoods) {
				valid = false
				break
			}
		}
	}

	return model.CLPData{
		Valid:     valid,
		Items:     items,
		Signature: signCLP(items),
	}
}

func signCLP(items []model.CLPItem) string {
	payload, err := json.Marshal(items)
	if err != nil {
		return "N/A"
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func demandID(req Request, now time.Time) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%g%g%s%s%d",
		req.Weight, req.Volume, req.Origin, req.Destination, now.UnixNano()))
	return hex.EncodeToString(sum[:])[:16]
}

func estimateBaseCost(stu, distance float64) float64 {
	return stu*distance*0.1 + 50 + stu*10
}

// Package auction runs the per-demand two-round sealed-bid state machine
// that turns a shipment demand into ranked transport solutions.
package auction

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/freightledger/freightledger-backend/internal/clock"
	"github.com/freightledger/freightledger-backend/internal/ledger"
	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/freightledger/freightledger-backend/internal/oracle"
	"go.uber.org/zap"
)

// Business rejections. Callers distinguish these; none of them is fatal.
var (
	ErrUnknownAuction     = errors.New("unknown auction")
	ErrWrongState         = errors.New("auction is not in the required round")
	ErrDeadlinePassed     = errors.New("round deadline has passed")
	ErrNotCompliant       = errors.New("carrier failed compliance check")
	ErrUnknownMode        = errors.New("unknown transport mode")
	ErrTooFewBids         = errors.New("not enough first-round bids")
	ErrNoFirstRoundBid    = errors.New("no matching first-round bid for carrier")
	ErrPriceCapExceeded   = errors.New("final price exceeds allowed increase over base price")
	ErrCarbonBelowMinimum = errors.New("carbon compensation below minimum")
	ErrNoBids             = errors.New("no second-round bids to rank")
)

// Engine owns every auction record. It only ever appends transactions to the
// ledger; chain state is never touched directly.
type Engine struct {
	logger     *zap.Logger
	cfg        Config
	journal    *ledger.Ledger
	costing    oracle.Costing
	compliance oracle.Compliance
	now        clock.NowFunc

	mu       sync.Mutex
	auctions map[string]*model.Auction
}

// NewEngine builds an auction engine over the given ledger and oracles.
func NewEngine(cfg Config, journal *ledger.Ledger, costing oracle.Costing, compliance oracle.Compliance, logger *zap.Logger) *Engine {
	return &Engine{
		logger:     logger.Named("auction"),
		cfg:        cfg,
		journal:    journal,
		costing:    costing,
		compliance: compliance,
		now:        time.Now,
		auctions:   make(map[string]*model.Auction),
	}
}

// SetNow injects the clock used for deadline checks.
func (e *Engine) SetNow(now clock.NowFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Start opens a first-round auction for the demand and journals the event.
func (e *Engine) Start(demand model.Demand) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	id := fmt.Sprintf("bid_%d_%s", now.Unix(), demand.ID)
	e.auctions[id] = &model.Auction{
		ID:        id,
		Demand:    demand,
		Status:    model.AuctionFirstRound,
		StartTime: now,
	}
	e.journal.SubmitTransaction(model.Transaction{
		Kind:       model.TxBiddingStarted,
		AuctionID:  id,
		DemandID:   demand.ID,
		MerchantID: demand.MerchantID,
	})
	e.logger.Info("bidding started", zap.String("auction", id), zap.String("demand", demand.ID))
	return id
}

// SubmitFirstRoundBid records a carrier's opening offer with its costed
// route. Rejections come back as sentinel errors.
func (e *Engine) SubmitFirstRoundBid(auctionID, carrierID string, basePrice float64, mode model.TransportMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.auctions[auctionID]
	if !ok {
		return ErrUnknownAuction
	}
	if a.Status != model.AuctionFirstRound {
		return ErrWrongState
	}
	if e.now().Sub(a.StartTime) > e.cfg.FirstRoundWindow {
		return ErrDeadlinePassed
	}
	if _, ok := transportModes[mode]; !ok {
		return ErrUnknownMode
	}
	if !e.compliance.IsCompliant(carrierID, basePrice, oracle.OpBidding) {
		return ErrNotCompliant
	}

	bid := model.FirstRoundBid{
		CarrierID:   carrierID,
		BasePrice:   basePrice,
		Mode:        mode,
		Route:       e.computeRoute(a.Demand, mode, carrierID),
		SubmittedAt: e.now(),
	}
	a.FirstRoundBids = append(a.FirstRoundBids, bid)
	e.journal.SubmitTransaction(model.Transaction{
		Kind:      model.TxFirstRoundBid,
		AuctionID: auctionID,
		CarrierID: carrierID,
		Amount:    basePrice,
		Note:      string(mode),
	})
	e.logger.Debug("first-round bid accepted",
		zap.String("auction", auctionID),
		zap.String("carrier", carrierID),
		zap.Float64("base_price", basePrice),
		zap.String("mode", string(mode)),
	)
	return nil
}

// AdvanceToSecondRound transitions the auction once enough first-round bids
// exist. The second-round deadline is measured from this transition.
func (e *Engine) AdvanceToSecondRound(auctionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.auctions[auctionID]
	if !ok {
		return ErrUnknownAuction
	}
	if a.Status != model.AuctionFirstRound {
		return ErrWrongState
	}
	if len(a.FirstRoundBids) < e.cfg.MinBidders {
		return ErrTooFewBids
	}

	a.Status = model.AuctionSecondRound
	a.SecondRoundStart = e.now()
	a.SecondRoundBids = nil
	e.logger.Info("second round opened",
		zap.String("auction", auctionID),
		zap.Int("first_round_bids", len(a.FirstRoundBids)),
	)
	return nil
}

// SubmitSecondRoundBid records a carrier's final offer, enforcing the
// anti-gouging price cap and the carbon compensation floor.
func (e *Engine) SubmitSecondRoundBid(auctionID, carrierID string, finalPrice, carbonCompensation float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.auctions[auctionID]
	if !ok {
		return ErrUnknownAuction
	}
	if a.Status != model.AuctionSecondRound {
		return ErrWrongState
	}
	if e.now().Sub(a.SecondRoundStart) > e.cfg.SecondRoundWindow {
		return ErrDeadlinePassed
	}
	if !e.compliance.IsCompliant(carrierID, finalPrice, oracle.OpBidding) {
		return ErrNotCompliant
	}

	first, ok := firstBidFor(a, carrierID)
	if !ok {
		return ErrNoFirstRoundBid
	}
	if finalPrice > first.BasePrice*(1+e.cfg.MaxPriceIncrease) {
		return ErrPriceCapExceeded
	}
	if carbonCompensation < e.cfg.MinCarbonCompensation {
		return ErrCarbonBelowMinimum
	}

	a.SecondRoundBids = append(a.SecondRoundBids, model.SecondRoundBid{
		CarrierID:          carrierID,
		FinalPrice:         finalPrice,
		CarbonCompensation: carbonCompensation,
		SubmittedAt:        e.now(),
	})
	e.journal.SubmitTransaction(model.Transaction{
		Kind:      model.TxSecondRoundBid,
		AuctionID: auctionID,
		CarrierID: carrierID,
		Amount:    finalPrice,
	})
	e.logger.Debug("second-round bid accepted",
		zap.String("auction", auctionID),
		zap.String("carrier", carrierID),
		zap.Float64("final_price", finalPrice),
	)
	return nil
}

// GenerateSolutions ranks the second-round bids into the three labeled
// solutions and completes the auction. The balanced score normalizes carbon
// against the worst candidate in this auction, so the weighting is
// auction-relative. Ties go to the first bid in submission order.
func (e *Engine) GenerateSolutions(auctionID string) ([]model.Solution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.auctions[auctionID]
	if !ok {
		return nil, ErrUnknownAuction
	}
	if a.Status != model.AuctionSecondRound {
		return nil, ErrWrongState
	}
	if len(a.SecondRoundBids) == 0 {
		return nil, ErrNoBids
	}

	candidates := make([]model.Solution, 0, len(a.SecondRoundBids))
	maxCarbon := 0.0
	for _, second := range a.SecondRoundBids {
		first, ok := firstBidFor(a, second.CarrierID)
		if !ok {
			// Second-round admission requires a first-round bid; a miss here
			// is a programmer error.
			panic("auction: second-round bid without first-round bid: " + second.CarrierID)
		}
		candidates = append(candidates, model.Solution{
			CarrierID:          second.CarrierID,
			Mode:               first.Mode,
			Price:              second.FinalPrice,
			CarbonCompensation: second.CarbonCompensation,
			CarbonEstimate:     first.Route.CarbonEstimate,
			EstimatedDays:      int(math.Ceil(first.Route.EstimatedHours / 24)),
			Route:              first.Route,
		})
		if first.Route.CarbonEstimate > maxCarbon {
			maxCarbon = first.Route.CarbonEstimate
		}
	}

	economic := candidates[0]
	green := candidates[0]
	balanced := candidates[0]
	balancedScore := score(candidates[0], maxCarbon)
	for _, c := range candidates[1:] {
		if c.Price < economic.Price {
			economic = c
		}
		if c.CarbonEstimate < green.CarbonEstimate {
			green = c
		}
		if s := score(c, maxCarbon); s < balancedScore {
			balanced = c
			balancedScore = s
		}
	}
	economic.Label = model.SolutionEconomic
	green.Label = model.SolutionGreen
	balanced.Label = model.SolutionBalanced

	a.Solutions = []model.Solution{economic, green, balanced}
	a.Status = model.AuctionCompleted
	e.journal.SubmitTransaction(model.Transaction{
		Kind:      model.TxSolutionsGenerated,
		AuctionID: auctionID,
		Solutions: a.Solutions,
	})
	e.logger.Info("solutions generated",
		zap.String("auction", auctionID),
		zap.Float64("economic_price", economic.Price),
		zap.Float64("green_carbon", green.CarbonEstimate),
	)

	out := make([]model.Solution, len(a.Solutions))
	copy(out, a.Solutions)
	return out, nil
}

// Auction returns a snapshot of the auction state.
func (e *Engine) Auction(id string) (model.Auction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.auctions[id]
	if !ok {
		return model.Auction{}, false
	}
	snapshot := *a
	snapshot.FirstRoundBids = append([]model.FirstRoundBid(nil), a.FirstRoundBids...)
	snapshot.SecondRoundBids = append([]model.SecondRoundBid(nil), a.SecondRoundBids...)
	snapshot.Solutions = append([]model.Solution(nil), a.Solutions...)
	return snapshot, true
}

func (e *Engine) computeRoute(demand model.Demand, mode model.TransportMode, carrierID string) model.TransportRoute {
	params := transportModes[mode]
	distance := e.costing.Distance(demand.Origin, demand.Destination)
	return model.TransportRoute{
		Origin:         demand.Origin,
		Destination:    demand.Destination,
		Mode:           mode,
		CarrierID:      carrierID,
		Distance:       distance,
		EstimatedHours: distance / params.speed,
		CarbonEstimate: e.costing.CarbonEstimate(distance, mode, demand.BaseSTU),
		BasePrice:      distance * params.rate * demand.BaseSTU,
	}
}

func firstBidFor(a *model.Auction, carrierID string) (model.FirstRoundBid, bool) {
	for _, bid := range a.FirstRoundBids {
		if bid.CarrierID == carrierID {
			return bid, true
		}
	}
	return model.FirstRoundBid{}, false
}

func score(s model.Solution, maxCarbon float64) float64 {
	normalized := 0.0
	if maxCarbon > 0 {
		normalized = s.CarbonEstimate / maxCarbon
	}
	return s.Price*0.6 + normalized*0.4
}

package oracle

import (
	"math/rand"
	"sync"

	"github.com/freightledger/freightledger-backend/internal/model"
	"go.uber.org/zap"
)

// CreditSource exposes credit scores to compliance decisions.
type CreditSource interface {
	CreditScore(id string) float64
}

var randomCarbonFactors = map[model.TransportMode][2]float64{
	model.ModeSea:  {0.01, 0.02},
	model.ModeLand: {0.05, 0.08},
	model.ModeAir:  {0.45, 0.55},
}

var weatherMultipliers = []float64{1.0, 1.2, 1.5}

// Randomized simulates noisy real-world oracles for demo runs: unknown lanes
// get random multi-leg distances, carbon factors jitter within per-mode
// ranges and weather scales emissions. Tracking and compliance behave like
// Static.
type Randomized struct {
	logger *zap.Logger
	credit CreditSource

	mu        sync.Mutex
	rng       *rand.Rand
	distances map[[2]string]float64
	stages    map[string]model.PaymentStage
}

// NewRandomized builds a Randomized oracle. credit may be nil.
func NewRandomized(seed int64, credit CreditSource, logger *zap.Logger) *Randomized {
	return &Randomized{
		logger: logger.Named("oracle"),
		credit: credit,
		rng:    rand.New(rand.NewSource(seed)),
		distances: map[[2]string]float64{
			{"Shanghai", "Singapore"}:  4480,
			{"Shanghai", "Bangkok"}:    3780,
			{"Singapore", "Jakarta"}:   880,
			{"Bangkok", "Ho Chi Minh"}: 750,
		},
		stages: make(map[string]model.PaymentStage),
	}
}

// Distance answers from the lane table, otherwise simulates a route: either
// a random direct leg or two legs through a hub. Results are memoized so
// repeated queries stay consistent within a run.
func (r *Randomized) Distance(origin, destination string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if km, ok := r.distances[[2]string{origin, destination}]; ok {
		return km
	}
	if km, ok := r.distances[[2]string{destination, origin}]; ok {
		return km
	}

	km := 500 + r.rng.Float64()*4500
	if r.rng.Float64() > 0.5 {
		km += 500 + r.rng.Float64()*1000
	}
	r.distances[[2]string{origin, destination}] = km
	r.logger.Debug("simulated lane distance",
		zap.String("origin", origin),
		zap.String("destination", destination),
		zap.Float64("km", km),
	)
	return km
}

// CarbonEstimate draws the mode factor from its range and applies a random
// weather multiplier.
func (r *Randomized) CarbonEstimate(distance float64, mode model.TransportMode, weight float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	bounds, ok := randomCarbonFactors[mode]
	if !ok {
		return 0
	}
	factor := bounds[0] + r.rng.Float64()*(bounds[1]-bounds[0])
	weather := weatherMultipliers[r.rng.Intn(len(weatherMultipliers))]
	return distance * weight * factor * weather
}

// CurrentStage reports the stage last written for ref.
func (r *Randomized) CurrentStage(ref string) (model.PaymentStage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stage, ok := r.stages[ref]
	return stage, ok
}

// SetStage records the stage for ref.
func (r *Randomized) SetStage(ref string, stage model.PaymentStage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[ref] = stage
}

// IsCompliant always passes; it logs the actor's credit score the way a
// real check would consult it.
func (r *Randomized) IsCompliant(actorID string, amount float64, op Operation) bool {
	score := 0.0
	if r.credit != nil {
		score = r.credit.CreditScore(actorID)
	}
	r.logger.Debug("compliance check",
		zap.String("actor", actorID),
		zap.Float64("amount", amount),
		zap.String("operation", string(op)),
		zap.Float64("credit_score", score),
	)
	return true
}

package oracle

import (
	"sync"

	"github.com/freightledger/freightledger-backend/internal/model"
)

// Static is a deterministic oracle triple: fixed distance table, mid-range
// carbon factors, clear weather, explicit tracking stages and an optional
// compliance denylist. Fixed responses make engine behavior reproducible.
type Static struct {
	mu        sync.Mutex
	distances map[[2]string]float64
	stages    map[string]model.PaymentStage
	denied    map[string]bool

	// FallbackDistance answers pairs missing from the table.
	FallbackDistance float64
}

var staticCarbonFactors = map[model.TransportMode]float64{
	model.ModeSea:  0.015,
	model.ModeLand: 0.065,
	model.ModeAir:  0.5,
}

// NewStatic builds a Static oracle preloaded with the reference distance
// table for the simulated trade lanes.
func NewStatic() *Static {
	return &Static{
		distances: map[[2]string]float64{
			{"Shanghai", "Singapore"}:  4480,
			{"Shanghai", "Bangkok"}:    3780,
			{"Singapore", "Jakarta"}:   880,
			{"Bangkok", "Ho Chi Minh"}: 750,
		},
		stages:           make(map[string]model.PaymentStage),
		denied:           make(map[string]bool),
		FallbackDistance: 2500,
	}
}

// SetDistance overrides or extends the distance table.
func (s *Static) SetDistance(origin, destination string, km float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.distances[[2]string{origin, destination}] = km
}

// Distance looks the pair up in either direction, falling back to
// FallbackDistance for unknown lanes.
func (s *Static) Distance(origin, destination string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if km, ok := s.distances[[2]string{origin, destination}]; ok {
		return km
	}
	if km, ok := s.distances[[2]string{destination, origin}]; ok {
		return km
	}
	return s.FallbackDistance
}

// CarbonEstimate uses the mode's mid-range factor with a clear-weather
// multiplier of 1.
func (s *Static) CarbonEstimate(distance float64, mode model.TransportMode, weight float64) float64 {
	return distance * weight * staticCarbonFactors[mode]
}

// CurrentStage reports the scripted stage for ref.
func (s *Static) CurrentStage(ref string) (model.PaymentStage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stage, ok := s.stages[ref]
	return stage, ok
}

// SetStage records the stage for ref.
func (s *Static) SetStage(ref string, stage model.PaymentStage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[ref] = stage
}

// Deny makes IsCompliant fail for the actor from now on.
func (s *Static) Deny(actorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied[actorID] = true
}

// IsCompliant passes everyone except explicitly denied actors.
func (s *Static) IsCompliant(actorID string, _ float64, _ Operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.denied[actorID]
}

package auction

import (
	"time"

	"github.com/freightledger/freightledger-backend/internal/model"
)

// Config tunes the two-round bidding rules.
type Config struct {
	// MinBidders is the number of first-round bids required to open the
	// second round.
	MinBidders int
	// FirstRoundWindow bounds first-round submissions relative to auction
	// start.
	FirstRoundWindow time.Duration
	// SecondRoundWindow bounds second-round submissions relative to the
	// round transition, not to auction creation.
	SecondRoundWindow time.Duration
	// MaxPriceIncrease caps final prices at base × (1 + this).
	MaxPriceIncrease float64
	// MinCarbonCompensation is the smallest acceptable second-round
	// compensation commitment.
	MinCarbonCompensation float64
}

// DefaultConfig mirrors the marketplace defaults.
func DefaultConfig() Config {
	return Config{
		MinBidders:            1,
		FirstRoundWindow:      24 * time.Hour,
		SecondRoundWindow:     30 * time.Minute,
		MaxPriceIncrease:      0.2,
		MinCarbonCompensation: 50,
	}
}

// modeParams holds per-mode speed (km/h) and freight rate (per km-STU).
type modeParams struct {
	speed float64
	rate  float64
}

var transportModes = map[model.TransportMode]modeParams{
	model.ModeSea:  {speed: 30, rate: 0.5},
	model.ModeLand: {speed: 60, rate: 0.8},
	model.ModeAir:  {speed: 800, rate: 4.0},
}

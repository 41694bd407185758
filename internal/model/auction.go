package model

import "time"

// TransportMode enumerates supported transport legs.
type TransportMode string

var (
	ModeSea  TransportMode = "sea"
	ModeLand TransportMode = "land"
	ModeAir  TransportMode = "air"
)

// AuctionStatus tracks the two-round bidding state machine.
type AuctionStatus string

var (
	AuctionFirstRound  AuctionStatus = "first_round"
	AuctionSecondRound AuctionStatus = "second_round"
	AuctionCompleted   AuctionStatus = "completed"
)

// TransportRoute is the costed route attached to a first-round bid.
type TransportRoute struct {
	Origin         string        `json:"origin"`
	Destination    string        `json:"destination"`
	Mode           TransportMode `json:"mode"`
	CarrierID      string        `json:"carrier_id"`
	Distance       float64       `json:"distance"`
	EstimatedHours float64       `json:"estimated_hours"`
	CarbonEstimate float64       `json:"carbon_estimate"`
	BasePrice      float64       `json:"base_price"`
}

// FirstRoundBid is a carrier's opening offer with its computed route.
type FirstRoundBid struct {
	CarrierID   string         `json:"carrier_id"`
	BasePrice   float64        `json:"base_price"`
	Mode        TransportMode  `json:"mode"`
	Route       TransportRoute `json:"route"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// SecondRoundBid is a carrier's final offer. Valid only when the same
// carrier placed a first-round bid in the same auction.
type SecondRoundBid struct {
	CarrierID          string    `json:"carrier_id"`
	FinalPrice         float64   `json:"final_price"`
	CarbonCompensation float64   `json:"carbon_compensation"`
	SubmittedAt        time.Time `json:"submitted_at"`
}

// SolutionLabel classifies a ranked transport solution.
type SolutionLabel string

var (
	SolutionEconomic SolutionLabel = "economic"
	SolutionGreen    SolutionLabel = "green"
	SolutionBalanced SolutionLabel = "balanced"
)

// Solution is a priced, carbon-scored candidate transport plan. Read-only
// after generation.
type Solution struct {
	CarrierID          string         `json:"carrier_id"`
	Mode               TransportMode  `json:"mode"`
	Price              float64        `json:"price"`
	CarbonCompensation float64        `json:"carbon_compensation"`
	CarbonEstimate     float64        `json:"carbon_estimate"`
	EstimatedDays      int            `json:"estimated_days"`
	Route              TransportRoute `json:"route"`
	Label              SolutionLabel  `json:"label"`
}

// Auction holds the state of one demand's bidding process.
type Auction struct {
	ID               string           `json:"id"`
	Demand           Demand           `json:"demand"`
	Status           AuctionStatus    `json:"status"`
	StartTime        time.Time        `json:"start_time"`
	SecondRoundStart time.Time        `json:"second_round_start,omitempty"`
	FirstRoundBids   []FirstRoundBid  `json:"first_round_bids"`
	SecondRoundBids  []SecondRoundBid `json:"second_round_bids"`
	Solutions        []Solution       `json:"solutions,omitempty"`
}

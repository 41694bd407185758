package model

import "time"

// DemandStatus tracks a shipment request through the marketplace.
type DemandStatus string

var (
	DemandPending    DemandStatus = "pending"
	DemandBidding    DemandStatus = "bidding"
	DemandProcessing DemandStatus = "processing"
	DemandFulfilled  DemandStatus = "fulfilled"
)

// CLPItem is one line of a container loading plan.
type CLPItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Weight    float64 `json:"weight"`
	Volume    float64 `json:"volume"`
	Category  string  `json:"category"`
	Dangerous bool    `json:"dangerous,omitempty"`
}

// CLPData is the validated loading plan attached to a demand.
type CLPData struct {
	Valid     bool      `json:"valid"`
	Items     []CLPItem `json:"items,omitempty"`
	Signature string    `json:"signature"`
}

// Demand is a normalized shipment request that seeds an auction. STU is the
// standard transport unit: max(weight/1000, volume/3), scaled by cargo-type
// and delivery-time factors.
type Demand struct {
	ID           string       `json:"id"`
	MerchantID   string       `json:"merchant_id"`
	Status       DemandStatus `json:"status"`
	Weight       float64      `json:"weight"`
	Volume       float64      `json:"volume"`
	Origin       string       `json:"origin"`
	Destination  string       `json:"destination"`
	CargoType    string       `json:"cargo_type"`
	DeliveryTime string       `json:"delivery_time"`
	BaseSTU      float64      `json:"base_stu"`
	AdjustedSTU  float64      `json:"adjusted_stu"`
	Distance     float64      `json:"distance"`
	BaseCost     float64      `json:"estimated_base_cost"`
	CLP          CLPData      `json:"clp_data"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

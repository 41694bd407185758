package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStage is one milestone of the escrow schedule.
type PaymentStage string

var (
	StageWarehouse PaymentStage = "warehouse"
	StageCustoms   PaymentStage = "customs"
	StageTransport PaymentStage = "transport"
	StageDelivery  PaymentStage = "delivery"
)

// PaymentStages is the fixed stage order; current_stage only moves forward
// through it.
var PaymentStages = []PaymentStage{StageWarehouse, StageCustoms, StageTransport, StageDelivery}

// NextStage returns the stage following s, or s itself when s is terminal.
func NextStage(s PaymentStage) (PaymentStage, bool) {
	for i, stage := range PaymentStages {
		if stage == s && i < len(PaymentStages)-1 {
			return PaymentStages[i+1], true
		}
	}
	return s, false
}

// PaymentStatus tracks the escrow lifecycle.
type PaymentStatus string

var (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// RefundStatus tracks a refund record.
type RefundStatus string

var (
	RefundPending   RefundStatus = "pending"
	RefundCompleted RefundStatus = "completed"
	RefundRejected  RefundStatus = "rejected"
)

// Refund is a post-completion refund request attached to a payment.
type Refund struct {
	ID          string          `json:"id"`
	Reason      string          `json:"reason"`
	Amount      decimal.Decimal `json:"amount"`
	Status      RefundStatus    `json:"status"`
	RequestedAt time.Time       `json:"requested_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

// Payment is a staged escrow for one accepted solution. The payment id
// doubles as the tracking reference handed to the tracking oracle.
type Payment struct {
	ID              string                           `json:"id"`
	Solution        Solution                         `json:"solution"`
	PayerID         string                           `json:"payer_id"`
	CarrierID       string                           `json:"carrier_id"`
	TotalAmount     decimal.Decimal                  `json:"total_amount"`
	Currency        string                           `json:"currency"`
	StageAmounts    map[PaymentStage]decimal.Decimal `json:"stage_amounts"`
	PaidAmounts     map[PaymentStage]decimal.Decimal `json:"paid_amounts"`
	CurrentStage    PaymentStage                     `json:"current_stage"`
	Status          PaymentStatus                    `json:"status"`
	CreatedAt       time.Time                        `json:"created_at"`
	UpdatedAt       time.Time                        `json:"updated_at"`
	CompletedAt     *time.Time                       `json:"completed_at,omitempty"`
	StageTimestamps map[PaymentStage]time.Time       `json:"stage_timestamps"`
	Refund          *Refund                          `json:"refund,omitempty"`
}

// PaidTotal sums the released stage amounts.
func (p Payment) PaidTotal() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range p.PaidAmounts {
		total = total.Add(amount)
	}
	return total
}

// Remaining is the escrow balance not yet released.
func (p Payment) Remaining() decimal.Decimal {
	return p.TotalAmount.Sub(p.PaidTotal())
}

// Package oracle defines the external collaborator interfaces the core
// consumes: route costing, logistics tracking and compliance checks. A
// deterministic Static implementation backs tests, a Randomized one backs
// demo runs.
package oracle

import "github.com/freightledger/freightledger-backend/internal/model"

// Operation tags the business action a compliance check gates.
type Operation string

var (
	OpBidding          Operation = "bidding_participation"
	OpPayment          Operation = "payment"
	OpPaymentReceive   Operation = "payment_receive"
	OpDemandSubmission Operation = "demand_submission"
	OpDangerousGoods   Operation = "dangerous_goods"
)

type (
	// Costing prices routes. Implementations may be noisy; the core never
	// retries.
	Costing interface {
		Distance(origin, destination string) float64
		CarbonEstimate(distance float64, mode model.TransportMode, weight float64) float64
	}

	// Tracking is the ground truth for physical logistics progress. The
	// payment engine is its single writer.
	Tracking interface {
		CurrentStage(ref string) (model.PaymentStage, bool)
		SetStage(ref string, stage model.PaymentStage)
	}

	// Compliance gates bid submissions and stage payments.
	Compliance interface {
		IsCompliant(actorID string, amount float64, op Operation) bool
	}
)

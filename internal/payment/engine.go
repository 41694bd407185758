// Package payment implements the milestone-gated escrow state machine. Funds
// release stage by stage, and a stage can only be released while the tracking
// oracle reports that exact stage: payment never outruns physical logistics.
package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/freightledger/freightledger-backend/internal/clock"
	"github.com/freightledger/freightledger-backend/internal/ledger"
	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/freightledger/freightledger-backend/internal/oracle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Business rejections, distinguishable by the caller.
var (
	ErrUnknownPayment   = errors.New("unknown payment")
	ErrAlreadyCompleted = errors.New("payment already completed")
	ErrStageMismatch    = errors.New("tracking oracle disagrees with payment stage")
	ErrWrongStage       = errors.New("requested stage is not the current stage")
	ErrWrongStatus      = errors.New("payment is not pending")
	ErrNotCompliant     = errors.New("compliance check failed")
	ErrProofRejected    = errors.New("stage proof rejected")
	ErrNotCompleted     = errors.New("payment is not completed")
	ErrNoRefundPending  = errors.New("no pending refund")
)

// stageWeights are the fixed escrow percentages per milestone.
var stageWeights = map[model.PaymentStage]int64{
	model.StageWarehouse: 30,
	model.StageCustoms:   40,
	model.StageTransport: 20,
	model.StageDelivery:  10,
}

// Proof carries the stage-specific evidence for the proof-gated release
// path.
type Proof struct {
	WarehouseReceipt     bool   `json:"warehouse_receipt"`
	CustomsDeclaration   string `json:"customs_declaration"`
	InspectionCert       string `json:"inspection_cert"`
	TrackingStatus       string `json:"tracking_status"`
	DeliveryConfirmation bool   `json:"delivery_confirmation"`
}

// Engine owns every payment record. The engine is authoritative for
// current_stage; the tracking oracle is authoritative for physical progress.
// The two are compared, never merged.
type Engine struct {
	logger     *zap.Logger
	journal    *ledger.Ledger
	tracking   oracle.Tracking
	compliance oracle.Compliance
	now        clock.NowFunc

	mu       sync.Mutex
	payments map[string]*model.Payment
}

// NewEngine builds a payment engine over the given ledger and oracles.
func NewEngine(journal *ledger.Ledger, tracking oracle.Tracking, compliance oracle.Compliance, logger *zap.Logger) *Engine {
	return &Engine{
		logger:     logger.Named("payment"),
		journal:    journal,
		tracking:   tracking,
		compliance: compliance,
		now:        time.Now,
		payments:   make(map[string]*model.Payment),
	}
}

// SetNow injects the clock used for record timestamps.
func (e *Engine) SetNow(now clock.NowFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Create opens a pending escrow for an accepted solution, splitting the
// price 30/40/20/10 across the milestones, and seeds the tracking oracle at
// the warehouse stage.
func (e *Engine) Create(solution model.Solution, payerID, currency string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	id := paymentID(solution.CarrierID, payerID, now)
	total := decimal.NewFromFloat(solution.Price)

	amounts := make(map[model.PaymentStage]decimal.Decimal, len(stageWeights))
	for stage, pct := range stageWeights {
		amounts[stage] = total.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100))
	}

	e.payments[id] = &model.Payment{
		ID:              id,
		Solution:        solution,
		PayerID:         payerID,
		CarrierID:       solution.CarrierID,
		TotalAmount:     total,
		Currency:        currency,
		StageAmounts:    amounts,
		PaidAmounts:     make(map[model.PaymentStage]decimal.Decimal),
		CurrentStage:    model.StageWarehouse,
		Status:          model.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		StageTimestamps: make(map[model.PaymentStage]time.Time),
	}
	e.tracking.SetStage(id, model.StageWarehouse)
	e.journal.SubmitTransaction(model.Transaction{
		Kind:      model.TxPaymentCreated,
		PaymentID: id,
		From:      payerID,
		To:        solution.CarrierID,
		Amount:    solution.Price,
		Note:      currency,
	})
	e.logger.Info("payment created",
		zap.String("payment", id),
		zap.String("payer", payerID),
		zap.String("carrier", solution.CarrierID),
		zap.Float64("total", solution.Price),
	)
	return id
}

// Advance releases the current stage's funds when the tracking oracle
// reports exactly that stage, then moves to the next milestone (or
// completes). The new stage is written back to the oracle so the two
// systems cannot diverge.
func (e *Engine) Advance(paymentID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.payments[paymentID]
	if !ok {
		return ErrUnknownPayment
	}
	if p.Status == model.PaymentCompleted || p.Status == model.PaymentRefunded {
		return ErrAlreadyCompleted
	}

	reported, ok := e.tracking.CurrentStage(paymentID)
	if !ok || reported != p.CurrentStage {
		e.logger.Debug("stage mismatch, advance refused",
			zap.String("payment", paymentID),
			zap.String("payment_stage", string(p.CurrentStage)),
			zap.String("tracked_stage", string(reported)),
		)
		return ErrStageMismatch
	}

	released := p.CurrentStage
	e.releaseStage(p, released)
	e.journal.SubmitTransaction(model.Transaction{
		Kind:      model.TxPaymentAdvanced,
		PaymentID: paymentID,
		From:      p.PayerID,
		To:        p.CarrierID,
		Stage:     string(released),
		Amount:    p.StageAmounts[released].InexactFloat64(),
	})
	e.tracking.SetStage(paymentID, p.CurrentStage)
	return nil
}

// TriggerStagePayment is the proof-gated release path: the stage must be
// current, the payment pending, payer and carrier compliant, and the
// stage-specific proof must hold alongside oracle agreement.
func (e *Engine) TriggerStagePayment(paymentID string, stage model.PaymentStage, proof Proof) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.payments[paymentID]
	if !ok {
		return ErrUnknownPayment
	}
	if p.CurrentStage != stage {
		return ErrWrongStage
	}
	if p.Status != model.PaymentPending {
		return ErrWrongStatus
	}

	amount := p.StageAmounts[stage].InexactFloat64()
	if !e.compliance.IsCompliant(p.PayerID, amount, oracle.OpPayment) {
		return ErrNotCompliant
	}
	if !e.compliance.IsCompliant(p.CarrierID, amount, oracle.OpPaymentReceive) {
		return ErrNotCompliant
	}

	reported, ok := e.tracking.CurrentStage(paymentID)
	if !ok || reported != stage || !proofHolds(stage, proof) {
		return ErrProofRejected
	}

	p.StageTimestamps[stage] = e.now()
	e.releaseStage(p, stage)
	e.journal.SubmitTransaction(model.Transaction{
		Kind:      model.TxPaymentStage,
		PaymentID: paymentID,
		From:      p.PayerID,
		To:        p.CarrierID,
		Stage:     string(stage),
		Amount:    amount,
	})
	e.tracking.SetStage(paymentID, p.CurrentStage)
	return nil
}

// releaseStage books the stage amount as paid and advances the milestone,
// completing the payment after the final stage.
func (e *Engine) releaseStage(p *model.Payment, stage model.PaymentStage) {
	now := e.now()
	p.PaidAmounts[stage] = p.StageAmounts[stage]
	p.UpdatedAt = now

	if next, ok := model.NextStage(stage); ok {
		p.CurrentStage = next
	} else {
		p.Status = model.PaymentCompleted
		p.CompletedAt = &now
	}
	e.logger.Info("stage released",
		zap.String("payment", p.ID),
		zap.String("stage", string(stage)),
		zap.String("amount", p.StageAmounts[stage].String()),
		zap.String("status", string(p.Status)),
	)
}

// RequestRefund opens a pending refund record. Only completed payments can
// be refunded.
func (e *Engine) RequestRefund(paymentID, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.payments[paymentID]
	if !ok {
		return ErrUnknownPayment
	}
	if p.Status != model.PaymentCompleted {
		return ErrNotCompleted
	}

	p.Refund = &model.Refund{
		ID:          uuid.NewString(),
		Reason:      reason,
		Amount:      p.PaidTotal(),
		Status:      model.RefundPending,
		RequestedAt: e.now(),
	}
	e.journal.SubmitTransaction(model.Transaction{
		Kind:      model.TxRefundRequested,
		PaymentID: paymentID,
		From:      p.CarrierID,
		To:        p.PayerID,
		Amount:    p.Refund.Amount.InexactFloat64(),
		Note:      reason,
	})
	return nil
}

// ProcessRefund settles a pending refund. Approval moves the payment to
// refunded, the only transition allowed out of completed.
func (e *Engine) ProcessRefund(paymentID string, approved bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.payments[paymentID]
	if !ok {
		return ErrUnknownPayment
	}
	if p.Refund == nil || p.Refund.Status != model.RefundPending {
		return ErrNoRefundPending
	}

	now := e.now()
	p.Refund.ProcessedAt = &now
	if approved {
		p.Refund.Status = model.RefundCompleted
		p.Status = model.PaymentRefunded
	} else {
		p.Refund.Status = model.RefundRejected
	}
	p.UpdatedAt = now
	e.journal.SubmitTransaction(model.Transaction{
		Kind:      model.TxRefundProcessed,
		PaymentID: paymentID,
		Approved:  approved,
		Amount:    p.Refund.Amount.InexactFloat64(),
	})
	return nil
}

// Payment returns a snapshot of one escrow record.
func (e *Engine) Payment(id string) (model.Payment, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.payments[id]
	if !ok {
		return model.Payment{}, false
	}
	return snapshot(p), true
}

// History lists the payer's payments.
func (e *Engine) History(payerID string) []model.Payment {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []model.Payment
	for _, p := range e.payments {
		if p.PayerID == payerID {
			out = append(out, snapshot(p))
		}
	}
	return out
}

// StageStatistics aggregates released amounts per milestone.
func (e *Engine) StageStatistics() map[model.PaymentStage]decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := make(map[model.PaymentStage]decimal.Decimal, len(model.PaymentStages))
	for _, stage := range model.PaymentStages {
		stats[stage] = decimal.Zero
	}
	for _, p := range e.payments {
		for stage, amount := range p.PaidAmounts {
			stats[stage] = stats[stage].Add(amount)
		}
	}
	return stats
}

func proofHolds(stage model.PaymentStage, proof Proof) bool {
	switch stage {
	case model.StageWarehouse:
		return proof.WarehouseReceipt
	case model.StageCustoms:
		return proof.CustomsDeclaration != "" && proof.InspectionCert != ""
	case model.StageTransport:
		return proof.TrackingStatus == "in_transit"
	case model.StageDelivery:
		return proof.DeliveryConfirmation
	default:
		return false
	}
}

func paymentID(carrierID, payerID string, now time.Time) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s%s%d", carrierID, payerID, now.UnixNano()))
	return "pay_" + hex.EncodeToString(sum[:])[:8]
}

func snapshot(p *model.Payment) model.Payment {
	out := *p
	out.StageAmounts = cloneAmounts(p.StageAmounts)
	out.PaidAmounts = cloneAmounts(p.PaidAmounts)
	out.StageTimestamps = make(map[model.PaymentStage]time.Time, len(p.StageTimestamps))
	for k, v := range p.StageTimestamps {
		out.StageTimestamps[k] = v
	}
	if p.Refund != nil {
		refund := *p.Refund
		out.Refund = &refund
	}
	return out
}

func cloneAmounts(in map[model.PaymentStage]decimal.Decimal) map[model.PaymentStage]decimal.Decimal {
	out := make(map[model.PaymentStage]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

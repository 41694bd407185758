// Package token keeps the marketplace token balances and the carbon
// compensation bookkeeping. Every mutation is journaled to the block ledger;
// sealing is the sealer service's job, never this package's.
package token

import (
	"errors"
	"sync"
	"time"

	"github.com/freightledger/freightledger-backend/internal/ledger"
	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrUnknownAccount    = errors.New("unknown account")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// CarbonRecord is one compensation payout.
type CarbonRecord struct {
	CarrierID    string          `json:"carrier_id"`
	CarbonAmount float64         `json:"carbon_amount"`
	Compensation decimal.Decimal `json:"compensation"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Stats summarizes the token economy.
type Stats struct {
	TotalSupply   decimal.Decimal `json:"total_supply"`
	Circulation   decimal.Decimal `json:"circulation"`
	SystemReserve decimal.Decimal `json:"system_reserve"`
	CarbonPrice   decimal.Decimal `json:"carbon_price"`
	ActiveUsers   int             `json:"active_users"`
	CarbonOffset  float64         `json:"carbon_offset"`
}

// Ledger holds token balances. Distinct from the block ledger, which it only
// appends journal records to.
type Ledger struct {
	logger  *zap.Logger
	journal *ledger.Ledger

	mu          sync.Mutex
	balances    map[string]decimal.Decimal
	totalSupply decimal.Decimal
	carbonPrice decimal.Decimal
	records     []CarbonRecord
}

// New builds a token ledger with the default supply and carbon price.
func New(journal *ledger.Ledger, logger *zap.Logger) *Ledger {
	return &Ledger{
		logger:      logger.Named("token"),
		journal:     journal,
		balances:    make(map[string]decimal.Decimal),
		totalSupply: decimal.NewFromInt(1_000_000),
		carbonPrice: decimal.NewFromInt(8),
	}
}

// InitBalance opens an account; no-op when it already exists.
func (t *Ledger) InitBalance(nodeID string, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.balances[nodeID]; ok {
		return
	}
	t.balances[nodeID] = amount
}

// Balance returns the account balance, zero for unknown accounts.
func (t *Ledger) Balance(nodeID string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[nodeID]
}

// Transfer moves tokens between two open accounts.
func (t *Ledger) Transfer(from, to string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fromBalance, ok := t.balances[from]
	if !ok {
		return ErrUnknownAccount
	}
	if _, ok := t.balances[to]; !ok {
		return ErrUnknownAccount
	}
	if fromBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	t.balances[from] = fromBalance.Sub(amount)
	t.balances[to] = t.balances[to].Add(amount)
	t.journal.SubmitTransaction(model.Transaction{
		Kind:   model.TxTokenTransfer,
		From:   from,
		To:     to,
		Amount: amount.InexactFloat64(),
	})
	return nil
}

// RewardValidator credits a validator for sealed blocks.
func (t *Ledger) RewardValidator(nodeID string, blockCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	reward := decimal.NewFromInt(int64(blockCount) * 10)
	t.balances[nodeID] = t.balances[nodeID].Add(reward)
	t.journal.SubmitTransaction(model.Transaction{
		Kind:   model.TxTokenReward,
		To:     nodeID,
		Amount: reward.InexactFloat64(),
	})
	t.logger.Debug("validator rewarded",
		zap.String("node", nodeID),
		zap.Int("blocks", blockCount),
		zap.String("reward", reward.String()),
	)
}

// CompensateCarbon pays a carrier for committed carbon offsets at the
// current carbon price.
func (t *Ledger) CompensateCarbon(carrierID string, carbonAmount float64) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	compensation := decimal.NewFromFloat(carbonAmount).Mul(t.carbonPrice)
	t.balances[carrierID] = t.balances[carrierID].Add(compensation)
	t.records = append(t.records, CarbonRecord{
		CarrierID:    carrierID,
		CarbonAmount: carbonAmount,
		Compensation: compensation,
		Timestamp:    time.Now(),
	})
	t.journal.SubmitTransaction(model.Transaction{
		Kind:      model.TxCarbonCompensation,
		To:        carrierID,
		CarrierID: carrierID,
		Amount:    compensation.InexactFloat64(),
	})
	return compensation
}

// SetCarbonPrice updates the compensation rate.
func (t *Ledger) SetCarbonPrice(price decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.carbonPrice = price
}

// Burn removes tokens from the total supply.
func (t *Ledger) Burn(amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalSupply = t.totalSupply.Sub(amount)
	t.journal.SubmitTransaction(model.Transaction{
		Kind:   model.TxTokenBurn,
		Amount: amount.InexactFloat64(),
	})
}

// CarbonRecords returns a copy of the compensation history.
func (t *Ledger) CarbonRecords() []CarbonRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]CarbonRecord(nil), t.records...)
}

// Stats summarizes supply, circulation and carbon offsets.
func (t *Ledger) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	circulation := decimal.Zero
	for _, balance := range t.balances {
		circulation = circulation.Add(balance)
	}
	offset := 0.0
	for _, record := range t.records {
		offset += record.CarbonAmount
	}
	return Stats{
		TotalSupply:   t.totalSupply,
		Circulation:   circulation,
		SystemReserve: t.totalSupply.Sub(circulation),
		CarbonPrice:   t.carbonPrice,
		ActiveUsers:   len(t.balances),
		CarbonOffset:  offset,
	}
}

package token

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freightledger/freightledger-backend/internal/ledger"
	"github.com/freightledger/freightledger-backend/internal/model"
)

func newLedger(t *testing.T) (*Ledger, *ledger.Ledger) {
	t.Helper()

	chain := ledger.New(ledger.Config{Difficulty: 0, Seed: 1}, zap.NewNop())
	return New(chain, zap.NewNop()), chain
}

func TestLedger_InitBalance(t *testing.T) {
	t.Parallel()

	tokens, _ := newLedger(t)
	tokens.InitBalance("carrier-1", decimal.NewFromInt(1000))
	tokens.InitBalance("carrier-1", decimal.NewFromInt(5)) // no-op

	if got := tokens.Balance("carrier-1"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s", got)
	}
	if got := tokens.Balance("ghost"); !got.IsZero() {
		t.Errorf("unknown account balance = %s", got)
	}
}

func TestLedger_Transfer(t *testing.T) {
	t.Parallel()

	tokens, chain := newLedger(t)
	tokens.InitBalance("alice", decimal.NewFromInt(100))
	tokens.InitBalance("bob", decimal.NewFromInt(10))

	if err := tokens.Transfer("ghost", "bob", decimal.NewFromInt(1)); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("unknown sender: got %v", err)
	}
	if err := tokens.Transfer("alice", "ghost", decimal.NewFromInt(1)); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("unknown receiver: got %v", err)
	}
	if err := tokens.Transfer("alice", "bob", decimal.NewFromInt(101)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraft: got %v", err)
	}

	if err := tokens.Transfer("alice", "bob", decimal.NewFromInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := tokens.Balance("alice"); !got.Equal(decimal.NewFromInt(60)) {
		t.Errorf("alice = %s", got)
	}
	if got := tokens.Balance("bob"); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("bob = %s", got)
	}
	if chain.PendingCount() != 1 {
		t.Errorf("transfer not journaled, pending = %d", chain.PendingCount())
	}
}

func TestLedger_RewardValidator(t *testing.T) {
	t.Parallel()

	tokens, _ := newLedger(t)
	tokens.RewardValidator("validator-1", 3)

	if got := tokens.Balance("validator-1"); !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("reward balance = %s", got)
	}
}

func TestLedger_CompensateCarbon(t *testing.T) {
	t.Parallel()

	tokens, chain := newLedger(t)
	tokens.InitBalance("carrier-1", decimal.NewFromInt(100))

	cost := tokens.CompensateCarbon("carrier-1", 50)
	if !cost.Equal(decimal.NewFromInt(400)) { // 50 kg at price 8
		t.Errorf("compensation = %s", cost)
	}
	if got := tokens.Balance("carrier-1"); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance = %s", got)
	}

	records := tokens.CarbonRecords()
	if len(records) != 1 || records[0].CarbonAmount != 50 {
		t.Fatalf("records = %+v", records)
	}

	// The payout must be journaled as a carbon compensation record.
	found := false
	for _, tx := range pendingOf(chain) {
		if tx.Kind == model.TxCarbonCompensation && tx.CarrierID == "carrier-1" {
			found = true
		}
	}
	if !found {
		t.Error("compensation not journaled")
	}

	tokens.SetCarbonPrice(decimal.NewFromInt(10))
	if cost := tokens.CompensateCarbon("carrier-1", 10); !cost.Equal(decimal.NewFromInt(100)) {
		t.Errorf("compensation after price change = %s", cost)
	}
}

func TestLedger_Stats(t *testing.T) {
	t.Parallel()

	tokens, _ := newLedger(t)
	tokens.InitBalance("alice", decimal.NewFromInt(300))
	tokens.InitBalance("bob", decimal.NewFromInt(200))
	tokens.CompensateCarbon("alice", 25)
	tokens.Burn(decimal.NewFromInt(1000))

	stats := tokens.Stats()
	if !stats.TotalSupply.Equal(decimal.NewFromInt(999_000)) {
		t.Errorf("supply = %s", stats.TotalSupply)
	}
	if !stats.Circulation.Equal(decimal.NewFromInt(700)) { // 300 + 200 + 25×8
		t.Errorf("circulation = %s", stats.Circulation)
	}
	if !stats.SystemReserve.Equal(decimal.NewFromInt(998_300)) {
		t.Errorf("reserve = %s", stats.SystemReserve)
	}
	if stats.ActiveUsers != 2 {
		t.Errorf("active users = %d", stats.ActiveUsers)
	}
	if stats.CarbonOffset != 25 {
		t.Errorf("carbon offset = %v", stats.CarbonOffset)
	}
}

// pendingOf seals the pool through a throwaway validator so the journal
// records become visible on the chain.
func pendingOf(chain *ledger.Ledger) []model.Transaction {
	chain.RegisterNode("test-validator", model.RoleValidator, 1, "")
	block, err := chain.SealBlock("test-validator")
	if err != nil {
		return nil
	}
	return block.Transactions
}

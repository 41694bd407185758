// Package ledger implements the append-only, proof-of-work sealed journal
// of marketplace transactions together with the participant node registry.
package ledger

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/freightledger/freightledger-backend/internal/clock"
	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/freightledger/freightledger-backend/pkg/workerpool"
	"go.uber.org/zap"
)

var (
	// ErrEmptyPool is returned when sealing is requested with no pending
	// transactions. A caller error, not a fault.
	ErrEmptyPool = errors.New("pending transaction pool is empty")
	// ErrUnknownValidator is returned when the sealing node is not registered.
	ErrUnknownValidator = errors.New("unknown validator node")
)

const activeNodeWindow = 10

// Config tunes chain sealing.
type Config struct {
	// Difficulty is the required number of leading zero hex characters in a
	// sealed block hash. Zero disables the work requirement (tests only).
	Difficulty int
	// BaseReward is the mining reward before decay.
	BaseReward float64
	// ValidateWorkers bounds concurrency of chain validation.
	ValidateWorkers int
	// Seed fixes validator selection for deterministic runs. Zero seeds from
	// the clock.
	Seed int64
}

// DefaultConfig matches the production simulation parameters.
func DefaultConfig() Config {
	return Config{
		Difficulty:      4,
		BaseReward:      10.0,
		ValidateWorkers: 4,
	}
}

// Ledger owns the chain, the pending pool and the node registry. All
// mutations are serialized behind one mutex so no two seals can drain the
// same pool snapshot.
type Ledger struct {
	logger *zap.Logger

	mu      sync.Mutex
	chain   []model.Block
	pending []model.Transaction
	nodes   map[string]*model.Node

	cfg        Config
	workPrefix string
	now        clock.NowFunc
	rng        *rand.Rand
}

// New builds a ledger with a genesis block already sealed.
func New(cfg Config, logger *zap.Logger) *Ledger {
	if cfg.BaseReward == 0 {
		cfg.BaseReward = DefaultConfig().BaseReward
	}
	if cfg.ValidateWorkers <= 0 {
		cfg.ValidateWorkers = DefaultConfig().ValidateWorkers
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	l := &Ledger{
		logger:     logger.Named("ledger"),
		nodes:      make(map[string]*model.Node),
		cfg:        cfg,
		workPrefix: strings.Repeat("0", cfg.Difficulty),
		now:        time.Now,
		rng:        rand.New(rand.NewSource(seed)),
	}

	genesis := model.Block{
		Index:     0,
		Timestamp: l.now().UnixNano(),
		Transactions: []model.Transaction{
			{Kind: model.TxGenesis, Timestamp: l.now().UnixNano(), Note: "genesis block"},
		},
		PreviousHash: "0",
	}
	genesis.Hash = hashBlock(genesis)
	l.chain = append(l.chain, genesis)
	return l
}

// SetNow injects the clock used for timestamps and last-active bookkeeping.
func (l *Ledger) SetNow(now clock.NowFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// RegisterNode adds a participant to the registry. No-op when the id is
// already registered.
func (l *Ledger) RegisterNode(id string, role model.NodeRole, stake float64, location string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.nodes[id]; ok {
		return
	}
	l.nodes[id] = &model.Node{
		ID:          id,
		Role:        role,
		Stake:       stake,
		CreditScore: 8.0,
		Location:    location,
		LastActive:  l.now(),
	}
	l.logger.Debug("node registered",
		zap.String("node", id),
		zap.String("role", string(role)),
		zap.Float64("stake", stake),
	)
}

// SubmitTransaction stamps the record and appends it to the pending pool.
// Returns the index the record will occupy once sealed. Never fails.
func (l *Ledger) SubmitTransaction(tx model.Transaction) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx.Timestamp = l.now().UnixNano()
	l.pending = append(l.pending, tx)
	return l.chain[len(l.chain)-1].Index + 1
}

// SealBlock drains the pending pool into a new proof-of-work sealed block
// credited to validatorID. The mining reward decays 5% every 100 blocks.
func (l *Ledger) SealBlock(validatorID string) (model.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return model.Block{}, ErrEmptyPool
	}
	validator, ok := l.nodes[validatorID]
	if !ok || validator.Role != model.RoleValidator {
		return model.Block{}, ErrUnknownValidator
	}

	last := l.chain[len(l.chain)-1]
	txs := make([]model.Transaction, len(l.pending), len(l.pending)+1)
	copy(txs, l.pending)
	txs = append(txs, model.Transaction{
		Kind:      model.TxMiningReward,
		Timestamp: l.now().UnixNano(),
		Miner:     validatorID,
		Amount:    l.miningReward(),
	})

	block := model.Block{
		Index:        last.Index + 1,
		Timestamp:    l.now().UnixNano(),
		Transactions: txs,
		PreviousHash: last.Hash,
	}

	started := time.Now()
	l.proofOfWork(&block)

	validator.LastActive = l.now()
	l.chain = append(l.chain, block)
	l.pending = nil

	l.logger.Info("block sealed",
		zap.Uint64("index", block.Index),
		zap.Int("transactions", len(block.Transactions)),
		zap.Uint64("nonce", block.Nonce),
		zap.String("validator", validatorID),
		zap.Duration("work", time.Since(started)),
	)
	return block, nil
}

// proofOfWork brute-forces the nonce until the hash meets the difficulty
// target. Unbounded on purpose: the search cost is the admission gate.
func (l *Ledger) proofOfWork(block *model.Block) {
	block.Nonce = 0
	hash := hashBlock(*block)
	for !strings.HasPrefix(hash, l.workPrefix) {
		block.Nonce++
		hash = hashBlock(*block)
	}
	block.Hash = hash
}

// miningReward is base_reward × 0.95^(chain_length / 100), computed before
// the new block is appended.
func (l *Ledger) miningReward() float64 {
	reward := l.cfg.BaseReward
	for i := len(l.chain) / 100; i > 0; i-- {
		reward *= 0.95
	}
	return reward
}

// ValidateChain recomputes every block hash and checks the previous-hash
// links. Hash recomputation fans out over a worker pool; the link walk is
// sequential.
func (l *Ledger) ValidateChain(ctx context.Context) bool {
	chain := l.Blocks()

	var invalid sync.Map
	err := workerpool.Process(ctx, l.cfg.ValidateWorkers, chain[1:], func(_ context.Context, b model.Block) error {
		if hashBlock(b) != b.Hash {
			invalid.Store(b.Index, true)
		}
		return nil
	})
	if err != nil {
		return false
	}

	for i := 1; i < len(chain); i++ {
		if _, bad := invalid.Load(chain[i].Index); bad {
			return false
		}
		if chain[i].PreviousHash != chain[i-1].Hash {
			return false
		}
	}
	return true
}

// NodeBalance replays the full journal, summing the node's stake, mining
// rewards and transfers. O(chain length × block size); callers needing
// frequent balances should cache.
func (l *Ledger) NodeBalance(id string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	node, ok := l.nodes[id]
	if !ok {
		return 0
	}
	balance := node.Stake
	for _, block := range l.chain {
		for _, tx := range block.Transactions {
			switch {
			case tx.Kind == model.TxMiningReward && tx.Miner == id:
				balance += tx.Amount
			case tx.Kind == model.TxTransfer || tx.Kind == model.TxTokenTransfer:
				if tx.From == id {
					balance -= tx.Amount
				}
				if tx.To == id {
					balance += tx.Amount
				}
			}
		}
	}
	return balance
}

// CreditScore returns the node's current credit score, zero for unknown ids.
func (l *Ledger) CreditScore(id string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if node, ok := l.nodes[id]; ok {
		return node.CreditScore
	}
	return 0
}

// AdjustCreditScore applies delta and clamps the result to [0, 10].
func (l *Ledger) AdjustCreditScore(id string, delta float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	node, ok := l.nodes[id]
	if !ok {
		return
	}
	score := node.CreditScore + delta
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	node.CreditScore = score
}

// SelectValidator picks a validator-role node at random, weighted by
// stake × credit score. Reports false when no validators are registered.
func (l *Ledger) SelectValidator() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		ids     []string
		weights []float64
		total   float64
	)
	for id, node := range l.nodes {
		if node.Role != model.RoleValidator {
			continue
		}
		w := node.Stake * node.CreditScore
		ids = append(ids, id)
		weights = append(weights, w)
		total += w
	}
	if len(ids) == 0 {
		return "", false
	}
	if total <= 0 {
		return ids[l.rng.Intn(len(ids))], true
	}

	target := l.rng.Float64() * total
	for i, w := range weights {
		target -= w
		if target <= 0 {
			return ids[i], true
		}
	}
	return ids[len(ids)-1], true
}

// ActiveNodes unions every participant named by a transaction in the last
// ten blocks: miners, senders, receivers and embedded carrier/merchant ids.
func (l *Ledger) ActiveNodes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := 0
	if len(l.chain) > activeNodeWindow {
		start = len(l.chain) - activeNodeWindow
	}

	seen := make(map[string]struct{})
	for _, block := range l.chain[start:] {
		for _, tx := range block.Transactions {
			for _, id := range []string{tx.Miner, tx.From, tx.To, tx.CarrierID, tx.MerchantID} {
				if id != "" {
					seen[id] = struct{}{}
				}
			}
		}
	}

	active := make([]string, 0, len(seen))
	for id := range seen {
		active = append(active, id)
	}
	return active
}

package ledger

import "github.com/freightledger/freightledger-backend/internal/model"

// Blocks returns a copy of the sealed chain.
func (l *Ledger) Blocks() []model.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	chain := make([]model.Block, len(l.chain))
	copy(chain, l.chain)
	return chain
}

// Block returns the block at index, reporting false when out of range.
func (l *Ledger) Block(index uint64) (model.Block, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index >= uint64(len(l.chain)) {
		return model.Block{}, false
	}
	return l.chain[index], true
}

// LastBlock returns the chain tail.
func (l *Ledger) LastBlock() model.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chain[len(l.chain)-1]
}

// PendingCount reports the size of the unsealed pool.
func (l *Ledger) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Node returns a snapshot of one registry entry.
func (l *Ledger) Node(id string) (model.Node, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	node, ok := l.nodes[id]
	if !ok {
		return model.Node{}, false
	}
	return *node, true
}

// Nodes returns a snapshot of the registry.
func (l *Ledger) Nodes() []model.Node {
	l.mu.Lock()
	defer l.mu.Unlock()

	nodes := make([]model.Node, 0, len(l.nodes))
	for _, node := range l.nodes {
		nodes = append(nodes, *node)
	}
	return nodes
}

// Stats summarizes the chain for observability consumers.
func (l *Ledger) Stats() model.ChainStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := model.ChainStats{
		BlockCount: len(l.chain),
		NodeCount:  len(l.nodes),
	}
	for _, block := range l.chain {
		stats.TransactionCount += len(block.Transactions)
	}
	for _, node := range l.nodes {
		stats.TotalStake += node.Stake
		if node.Role == model.RoleValidator {
			stats.ValidatorCount++
		}
	}
	if len(l.chain) >= 2 {
		span := l.chain[len(l.chain)-1].Timestamp - l.chain[0].Timestamp
		stats.AverageBlockInterval = float64(span) / 1e9 / float64(len(l.chain)-1)
	}
	return stats
}

// NodeTransactions returns the most recent journal records naming the node,
// newest block first, up to limit.
func (l *Ledger) NodeTransactions(id string, limit int) []model.RecordedTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	var out []model.RecordedTransaction
	for i := len(l.chain) - 1; i >= 0; i-- {
		block := l.chain[i]
		for _, tx := range block.Transactions {
			if tx.Miner != id && tx.From != id && tx.To != id && tx.CarrierID != id && tx.MerchantID != id {
				continue
			}
			out = append(out, model.RecordedTransaction{
				Transaction: tx,
				BlockIndex:  block.Index,
				BlockHash:   block.Hash,
			})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/freightledger/freightledger-backend/internal/model"
)

// InsertNodes stores a registry snapshot. The table is ReplacingMergeTree
// keyed by node id, so repeated snapshots converge on the latest row.
func (r *Repository) InsertNodes(ctx context.Context, nodes []model.Node) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_nodes", err, start)
	}()

	if len(nodes) == 0 {
		return nil
	}

	const query = `
INSERT INTO ledger_nodes (
	id,
	role,
	stake,
	credit_score,
	location,
	last_active
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare nodes batch: %w", err)
	}

	for _, node := range nodes {
		if err = batch.Append(
			node.ID,
			string(node.Role),
			node.Stake,
			node.CreditScore,
			node.Location,
			node.LastActive,
		); err != nil {
			return fmt.Errorf("append node: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert nodes: %w", err)
	}
	return nil
}

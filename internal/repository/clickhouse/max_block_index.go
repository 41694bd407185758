package clickhouse

import (
	"context"
	"fmt"
	"time"
)

// MaxBlockIndex reports the highest archived block index, so a restarted
// archiver can resume without rewriting history.
func (r *Repository) MaxBlockIndex(ctx context.Context) (uint64, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("max_block_index", err, start)
	}()

	const query = `SELECT max(index) FROM ledger_blocks`

	var max uint64
	if err = r.conn.QueryRow(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("query max block index: %w", err)
	}
	return max, nil
}

package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/freightledger/freightledger-backend/pkg/safe"
)

// InsertBlocks stores sealed block rows. Transactions are archived as the
// block's canonical JSON payload.
func (r *Repository) InsertBlocks(ctx context.Context, blocks []model.Block) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_blocks", err, start)
	}()

	if len(blocks) == 0 {
		return nil
	}

	const query = `
INSERT INTO ledger_blocks (
	index,
	hash,
	previous_hash,
	nonce,
	timestamp,
	tx_count,
	transactions
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare blocks batch: %w", err)
	}

	for _, block := range blocks {
		txCount, convErr := safe.Uint32(len(block.Transactions))
		if convErr != nil {
			err = fmt.Errorf("transaction count for block %d: %w", block.Index, convErr)
			return err
		}
		payload, marshalErr := json.Marshal(block.Transactions)
		if marshalErr != nil {
			err = fmt.Errorf("encode transactions for block %d: %w", block.Index, marshalErr)
			return err
		}
		if err = batch.Append(
			block.Index,
			block.Hash,
			block.PreviousHash,
			block.Nonce,
			time.Unix(0, block.Timestamp),
			txCount,
			string(payload),
		); err != nil {
			return fmt.Errorf("append block: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert blocks: %w", err)
	}
	return nil
}

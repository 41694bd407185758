// Package archive streams sealed blocks and registry snapshots into the
// ClickHouse archive. Archival is best-effort persistence of the durable
// unit; the in-memory ledger stays authoritative.
package archive

import (
	"context"
	"time"

	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/freightledger/freightledger-backend/pkg/batcher"
	"go.uber.org/zap"
)

const (
	blockFlushSize     = 100
	blockFlushInterval = 5 * time.Second
	flushRPS           = 10
)

type (
	// Repository is the persistence surface the archiver writes to.
	Repository interface {
		InsertBlocks(ctx context.Context, blocks []model.Block) error
		InsertNodes(ctx context.Context, nodes []model.Node) error
	}

	// Registry supplies node snapshots for periodic persistence.
	Registry interface {
		Nodes() []model.Node
	}
)

// Archiver batches sealed blocks toward the repository and periodically
// snapshots the node registry.
type Archiver struct {
	logger   *zap.Logger
	repo     Repository
	registry Registry
	blocks   *batcher.Batcher[model.Block]
}

// NewArchiver builds an Archiver over the repository.
func NewArchiver(repo Repository, registry Registry, logger *zap.Logger) *Archiver {
	logger = logger.Named("archive")
	a := &Archiver{
		logger:   logger,
		repo:     repo,
		registry: registry,
	}
	a.blocks = batcher.New(logger, a.flushBlocks, batcher.Config{
		FlushSize:     blockFlushSize,
		FlushInterval: blockFlushInterval,
		RPS:           flushRPS,
	})
	return a
}

// Start begins background flushing.
func (a *Archiver) Start(ctx context.Context) {
	a.blocks.Start(ctx)
}

// Stop flushes outstanding blocks and writes a final registry snapshot.
func (a *Archiver) Stop() {
	a.blocks.Stop()
	a.snapshotNodes(context.Background())
}

// Archive queues one sealed block for persistence.
func (a *Archiver) Archive(ctx context.Context, block model.Block) error {
	return a.blocks.Add(ctx, block)
}

func (a *Archiver) flushBlocks(ctx context.Context, blocks []model.Block) error {
	if err := a.repo.InsertBlocks(ctx, blocks); err != nil {
		return err
	}
	a.snapshotNodes(ctx)
	return nil
}

func (a *Archiver) snapshotNodes(ctx context.Context) {
	if a.registry == nil {
		return
	}
	if err := a.repo.InsertNodes(ctx, a.registry.Nodes()); err != nil {
		a.logger.Error("node snapshot failed", zap.Error(err))
	}
}

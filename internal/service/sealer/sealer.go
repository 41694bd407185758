// Package sealer runs block production off the engines' call path: a
// background loop that picks a stake-weighted validator and seals the
// pending pool, so bid and payment submitters never mine themselves.
package sealer

import (
	"context"
	"errors"
	"time"

	"github.com/freightledger/freightledger-backend/internal/clock"
	"github.com/freightledger/freightledger-backend/internal/ledger"
	"go.uber.org/zap"
)

const (
	defaultInterval     = 2 * time.Second
	defaultIdleInterval = 10 * time.Second
)

// Service seals pending transactions on an interval.
type Service struct {
	logger       *zap.Logger
	chain        Chain
	archiver     BlockArchiver
	metrics      Metrics
	sleep        func(context.Context, time.Duration) error
	interval     time.Duration
	idleInterval time.Duration
}

// NewService builds a sealer. archiver may be nil when persistence is off.
func NewService(chain Chain, archiver BlockArchiver, metrics Metrics, logger *zap.Logger) (*Service, error) {
	if metrics == nil {
		return nil, errors.New("sealer metrics is required")
	}
	return &Service{
		logger:       logger.Named("sealer"),
		chain:        chain,
		archiver:     archiver,
		metrics:      metrics,
		sleep:        clock.SleepWithContext,
		interval:     defaultInterval,
		idleInterval: defaultIdleInterval,
	}, nil
}

// Run seals until the context is canceled. A started proof-of-work search
// always runs to completion; cancellation is only honored between rounds.
func (s *Service) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.run(ctx); err != nil {
			s.logger.Warn("seal iteration failed, backing off", zap.Error(err), zap.Duration("sleep", s.interval))
			if sleepErr := s.sleep(ctx, s.interval); sleepErr != nil {
				return sleepErr
			}
		}
	}
}

func (s *Service) run(ctx context.Context) error {
	if s.chain.PendingCount() == 0 {
		return s.sleep(ctx, s.idleInterval)
	}

	validator, ok := s.chain.SelectValidator()
	if !ok {
		s.logger.Warn("no validators registered, cannot seal")
		return s.sleep(ctx, s.idleInterval)
	}

	started := time.Now()
	block, err := s.chain.SealBlock(validator)
	if err != nil {
		// The pool can drain between the count check and the seal; an empty
		// pool is not a failure of this loop.
		if errors.Is(err, ledger.ErrEmptyPool) {
			s.metrics.ObserveSeal(nil, 0, started)
			return s.sleep(ctx, s.idleInterval)
		}
		s.metrics.ObserveSeal(err, 0, started)
		return err
	}
	s.metrics.ObserveSeal(nil, len(block.Transactions), started)

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, block); err != nil {
			s.logger.Error("block archive failed",
				zap.Uint64("index", block.Index),
				zap.Error(err),
			)
		}
	}
	return s.sleep(ctx, s.interval)
}

package sealer

import (
	"context"
	"time"

	"github.com/freightledger/freightledger-backend/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Chain is the ledger surface the sealer drives.
	Chain interface {
		PendingCount() int
		SelectValidator() (string, bool)
		SealBlock(validatorID string) (model.Block, error)
	}

	// BlockArchiver receives sealed blocks for persistence. Archive errors
	// are logged, never fatal to sealing.
	BlockArchiver interface {
		Archive(ctx context.Context, block model.Block) error
	}

	// Metrics observes sealing outcomes.
	Metrics interface {
		ObserveSeal(err error, transactions int, started time.Time)
	}
)

// Command simulator drives one scripted marketplace round end to end:
// registration, demand intake, two-round bidding, solution generation,
// staged escrow release and carbon compensation, with every action
// journaled and sealed on the chain.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freightledger/freightledger-backend/internal/auction"
	"github.com/freightledger/freightledger-backend/internal/demand"
	"github.com/freightledger/freightledger-backend/internal/ledger"
	"github.com/freightledger/freightledger-backend/internal/metrics"
	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/freightledger/freightledger-backend/internal/oracle"
	"github.com/freightledger/freightledger-backend/internal/payment"
	"github.com/freightledger/freightledger-backend/internal/repository/clickhouse"
	"github.com/freightledger/freightledger-backend/internal/service/archive"
	"github.com/freightledger/freightledger-backend/internal/token"
)

var config struct {
	Difficulty    int    `long:"difficulty" env:"SIMULATOR_DIFFICULTY" description:"proof-of-work difficulty" default:"2"`
	OracleSeed    int64  `long:"oracle-seed" env:"SIMULATOR_ORACLE_SEED" description:"oracle rng seed" default:"42"`
	ClickhouseDSN string `long:"clickhouse-dsn" env:"SIMULATOR_CLICKHOUSE_DSN" description:"ClickHouse DSN, archive disabled when empty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&config, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, logger); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	chainCfg := ledger.DefaultConfig()
	chainCfg.Difficulty = config.Difficulty
	chain := ledger.New(chainCfg, logger)

	oracles := oracle.NewRandomized(config.OracleSeed, chain, logger)
	demands := demand.NewProcessor(chain, oracles, oracles, logger)
	auctions := auction.NewEngine(auction.DefaultConfig(), chain, oracles, oracles, logger)
	payments := payment.NewEngine(chain, oracles, oracles, logger)
	tokens := token.New(chain, logger)

	var archiver *archive.Archiver
	if config.ClickhouseDSN != "" {
		repo, err := clickhouse.NewRepository(config.ClickhouseDSN, metrics.NewArchiveRepository())
		if err != nil {
			return err
		}
		archiver = archive.NewArchiver(repo, chain, logger)
		archiver.Start(ctx)
		defer archiver.Stop()
	}

	// Registration round.
	chain.RegisterNode("validator-1", model.RoleValidator, 1000, "Shanghai")
	chain.RegisterNode("validator-2", model.RoleValidator, 600, "Singapore")
	chain.RegisterNode("merchant-1", model.RoleMerchant, 200, "Shanghai")
	carriers := []string{"carrier-sea", "carrier-land", "carrier-air"}
	for _, id := range carriers {
		chain.RegisterNode(id, model.RoleCarrier, 300, "Singapore")
		tokens.InitBalance(id, decimal.NewFromInt(1000))
	}
	tokens.InitBalance("merchant-1", decimal.NewFromInt(5000))

	// Demand intake.
	d, err := demands.Process(demand.Request{
		MerchantID:   "merchant-1",
		Weight:       12000,
		Volume:       30,
		Origin:       "Shanghai",
		Destination:  "Singapore",
		CargoType:    "general",
		DeliveryTime: "standard",
		CLPItems: []model.CLPItem{
			{Name: "electronics", Quantity: 200, Weight: 8000, Volume: 18, Category: "general"},
			{Name: "textiles", Quantity: 400, Weight: 4000, Volume: 12, Category: "general"},
		},
	})
	if err != nil {
		return err
	}
	logger.Info("demand accepted",
		zap.String("demand", d.ID),
		zap.Float64("adjusted_stu", d.AdjustedSTU),
		zap.Float64("distance_km", d.Distance),
	)

	// Two-round auction.
	auctionID := auctions.Start(d)
	firstRound := []struct {
		carrier string
		price   float64
		mode    model.TransportMode
	}{
		{"carrier-sea", 1000, model.ModeSea},
		{"carrier-land", 1200, model.ModeLand},
		{"carrier-air", 1100, model.ModeAir},
	}
	for _, bid := range firstRound {
		if err := auctions.SubmitFirstRoundBid(auctionID, bid.carrier, bid.price, bid.mode); err != nil {
			return err
		}
	}
	if err := auctions.AdvanceToSecondRound(auctionID); err != nil {
		return err
	}
	secondRound := []struct {
		carrier      string
		price        float64
		compensation float64
	}{
		{"carrier-sea", 1100, 100},
		{"carrier-land", 1300, 100},
		{"carrier-air", 1150, 100},
	}
	for _, bid := range secondRound {
		if err := auctions.SubmitSecondRoundBid(auctionID, bid.carrier, bid.price, bid.compensation); err != nil {
			return err
		}
	}
	solutions, err := auctions.GenerateSolutions(auctionID)
	if err != nil {
		return err
	}
	for _, s := range solutions {
		logger.Info("solution",
			zap.String("label", string(s.Label)),
			zap.String("carrier", s.CarrierID),
			zap.Float64("price", s.Price),
			zap.Float64("carbon_kg", s.CarbonEstimate),
			zap.Int("estimated_days", s.EstimatedDays),
		)
	}

	// Escrow release over the economic solution, stage by stage.
	chosen := solutions[0]
	for _, s := range solutions {
		if s.Label == model.SolutionEconomic {
			chosen = s
		}
	}
	paymentID := payments.Create(chosen, "merchant-1", "USDT")
	proofs := map[model.PaymentStage]payment.Proof{
		model.StageWarehouse: {WarehouseReceipt: true},
		model.StageCustoms:   {CustomsDeclaration: "decl-2026-0831", InspectionCert: "cert-771"},
		model.StageTransport: {TrackingStatus: "in_transit"},
		model.StageDelivery:  {DeliveryConfirmation: true},
	}
	for _, stage := range model.PaymentStages {
		if err := payments.TriggerStagePayment(paymentID, stage, proofs[stage]); err != nil {
			return err
		}
	}
	p, _ := payments.Payment(paymentID)
	logger.Info("escrow settled",
		zap.String("payment", paymentID),
		zap.String("status", string(p.Status)),
		zap.String("paid", p.PaidTotal().String()),
	)

	// Carbon compensation and validator rewards on the token ledger.
	cost := tokens.CompensateCarbon(chosen.CarrierID, chosen.CarbonCompensation)
	logger.Info("carbon compensated",
		zap.String("carrier", chosen.CarrierID),
		zap.Float64("carbon_kg", chosen.CarbonCompensation),
		zap.String("token_cost", cost.String()),
	)

	// Seal everything the run journaled, then hand out token rewards for the
	// sealed blocks and seal those in a final round. Rewarding inside the
	// drain loop would feed the pool forever.
	sealedBy := map[string]int{}
	blocks, err := drainPool(ctx, chain, archiver, sealedBy, logger)
	if err != nil {
		return err
	}
	for validator, count := range sealedBy {
		tokens.RewardValidator(validator, count)
	}
	rewardBlocks, err := drainPool(ctx, chain, archiver, nil, logger)
	if err != nil {
		return err
	}
	blocks += rewardBlocks

	if !chain.ValidateChain(ctx) {
		return errors.New("chain validation failed after simulation")
	}
	stats := chain.Stats()
	logger.Info("simulation complete",
		zap.Int("blocks_sealed", blocks),
		zap.Int("block_count", stats.BlockCount),
		zap.Int("transactions", stats.TransactionCount),
		zap.Strings("active_nodes", chain.ActiveNodes()),
	)
	return nil
}

func drainPool(ctx context.Context, chain *ledger.Ledger, archiver *archive.Archiver, sealedBy map[string]int, logger *zap.Logger) (int, error) {
	blocks := 0
	for chain.PendingCount() > 0 {
		if err := ctx.Err(); err != nil {
			return blocks, err
		}
		validator, ok := chain.SelectValidator()
		if !ok {
			return blocks, errors.New("no validator available")
		}
		block, err := chain.SealBlock(validator)
		if err != nil {
			return blocks, err
		}
		blocks++
		if sealedBy != nil {
			sealedBy[validator]++
		}
		if archiver != nil {
			if err := archiver.Archive(ctx, block); err != nil {
				logger.Error("archive failed", zap.Uint64("index", block.Index), zap.Error(err))
			}
		}
	}
	return blocks, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/freightledger/freightledger-backend/internal/auction"
	"github.com/freightledger/freightledger-backend/internal/demand"
	"github.com/freightledger/freightledger-backend/internal/ledger"
	"github.com/freightledger/freightledger-backend/internal/metrics"
	"github.com/freightledger/freightledger-backend/internal/oracle"
	"github.com/freightledger/freightledger-backend/internal/payment"
	"github.com/freightledger/freightledger-backend/internal/repository/clickhouse"
	"github.com/freightledger/freightledger-backend/internal/service/archive"
	"github.com/freightledger/freightledger-backend/internal/service/sealer"
	"github.com/freightledger/freightledger-backend/internal/token"
	"github.com/freightledger/freightledger-backend/internal/transport"
)

var config struct {
	Addr          string `long:"addr" env:"API_GATEWAY_ADDR" description:"listen addr" default:":8000"`
	Difficulty    int    `long:"difficulty" env:"API_GATEWAY_DIFFICULTY" description:"proof-of-work difficulty" default:"4"`
	OracleSeed    int64  `long:"oracle-seed" env:"API_GATEWAY_ORACLE_SEED" description:"oracle rng seed" default:"1"`
	ClickhouseDSN string `long:"clickhouse-dsn" env:"API_GATEWAY_CLICKHOUSE_DSN" description:"ClickHouse DSN, archive disabled when empty"`
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
		logger.Fatal("Failed to parse arguments", zap.Error(err))
	}

	if err := run(ctx, logger); err != nil {
		logger.Fatal("api-gateway failed", zap.Error(err))
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

	sealSvc, err := newSealer(chain, archiver, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := sealSvc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sealer stopped", zap.Error(err))
		}
	}()

	router := chi.NewRouter()
	transport.NewExplorerHandler(chain, logger).RegisterRoutes(router)
	transport.NewMarketHandler(demands, auctions, payments, tokens, logger).RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	s := &http.Server{
		Addr:              config.Addr,
		Handler:           cors.Default().Handler(router),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting HTTP server", zap.String("addr", config.Addr))
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newSealer exists because archive.Archiver is a typed nil when the archive
// is disabled and must not be passed through the interface as such.
func newSealer(chain *ledger.Ledger, archiver *archive.Archiver, logger *zap.Logger) (*sealer.Service, error) {
	var blockSink sealer.BlockArchiver
	if archiver != nil {
		blockSink = archiver
	}
	return sealer.NewService(chain, blockSink, metrics.NewSealer(), logger)
}

package clickhouse

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/clickhouse"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/suite"

	"github.com/freightledger/freightledger-backend/internal/model"
)

// dsnEnv gates the suite: it runs only against a reachable ClickHouse, e.g.
// LEDGER_TEST_CLICKHOUSE_DSN=clickhouse://localhost:9000/default.
const dsnEnv = "LEDGER_TEST_CLICKHOUSE_DSN"

type nopMetrics struct{}

func (nopMetrics) Observe(string, error, time.Time) {}

type RepositorySuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	dsn    string
	repo   *Repository
}

func TestRepositorySuite(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping ClickHouse integration suite", dsnEnv)
	}
	s := new(RepositorySuite)
	s.dsn = dsn
	suite.Run(t, s)
}

func (s *RepositorySuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)

	s.Require().NoError(applyMigrations(s.dsn, false))

	repo, err := NewRepository(s.dsn, nopMetrics{})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RepositorySuite) TearDownTest() {
	s.Require().NoError(applyMigrations(s.dsn, true))
	s.cancel()
}

func (s *RepositorySuite) TestInsertBlocksAndMaxIndex() {
	blocks := []model.Block{
		{
			Index:        1,
			Timestamp:    time.Now().UnixNano(),
			PreviousHash: "0",
			Nonce:        17,
			Hash:         "0000aaaa",
			Transactions: []model.Transaction{
				{Kind: model.TxDemand, DemandID: "demand-1", MerchantID: "merchant-1"},
				{Kind: model.TxMiningReward, Miner: "validator-1", Amount: 10},
			},
		},
		{
			Index:        2,
			Timestamp:    time.Now().UnixNano(),
			PreviousHash: "0000aaaa",
			Nonce:        3,
			Hash:         "0000bbbb",
			Transactions: []model.Transaction{
				{Kind: model.TxPaymentCreated, PaymentID: "pay_1", Amount: 1000},
			},
		},
	}
	s.Require().NoError(s.repo.InsertBlocks(s.ctx, blocks))

	max, err := s.repo.MaxBlockIndex(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), max)
}

func (s *RepositorySuite) TestInsertBlocks_empty() {
	s.Require().NoError(s.repo.InsertBlocks(s.ctx, nil))
}

func (s *RepositorySuite) TestInsertNodes() {
	nodes := []model.Node{
		{ID: "validator-1", Role: model.RoleValidator, Stake: 1000, CreditScore: 8, Location: "Shanghai", LastActive: time.Now()},
		{ID: "carrier-1", Role: model.RoleCarrier, Stake: 300, CreditScore: 8, Location: "Singapore", LastActive: time.Now()},
	}
	s.Require().NoError(s.repo.InsertNodes(s.ctx, nodes))
	s.Require().NoError(s.repo.InsertNodes(s.ctx, nodes[:1])) // replacing engine tolerates re-inserts
}

func applyMigrations(dsn string, down bool) error {
	_, file, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations", "clickhouse")

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Package model defines domain records for the logistics marketplace ledger.
package model

import "time"

// NodeRole describes the function a registered node plays in the network.
type NodeRole string

var (
	// RoleValidator marks a node eligible to seal blocks.
	RoleValidator NodeRole = "validator"
	// RoleWarehouse marks a warehousing participant.
	RoleWarehouse NodeRole = "warehouse"
	// RoleCarrier marks a transport carrier.
	RoleCarrier NodeRole = "carrier"
	// RoleMerchant marks a demand-submitting merchant.
	RoleMerchant NodeRole = "merchant"
)

// Node is a registered ledger participant. Credit scores stay in [0, 10]
// and are mutated only through the ledger's scoring API.
type Node struct {
	ID          string    `json:"id"`
	Role        NodeRole  `json:"role"`
	Stake       float64   `json:"stake"`
	CreditScore float64   `json:"credit_score"`
	Location    string    `json:"location,omitempty"`
	LastActive  time.Time `json:"last_active"`
}

// TransactionKind identifies the closed set of journal record types.
type TransactionKind string

var (
	TxGenesis            TransactionKind = "genesis"
	TxMiningReward       TransactionKind = "mining_reward"
	TxTransfer           TransactionKind = "transfer"
	TxDemand             TransactionKind = "demand"
	TxBiddingStarted     TransactionKind = "bidding_started"
	TxFirstRoundBid      TransactionKind = "first_round_bid"
	TxSecondRoundBid     TransactionKind = "second_round_bid"
	TxSolutionsGenerated TransactionKind = "solutions_generated"
	TxPaymentCreated     TransactionKind = "payment_created"
	TxPaymentAdvanced    TransactionKind = "payment_advanced"
	TxPaymentStage       TransactionKind = "payment_stage"
	TxRefundRequested    TransactionKind = "refund_requested"
	TxRefundProcessed    TransactionKind = "refund_processed"
	TxTokenTransfer      TransactionKind = "token_transfer"
	TxTokenReward        TransactionKind = "token_reward"
	TxCarbonCompensation TransactionKind = "carbon_compensation"
	TxTokenBurn          TransactionKind = "token_burn"
)

// Transaction is a single journal record. The field set is closed so the
// canonical JSON used for block hashing is deterministic; unused fields are
// omitted per kind.
type Transaction struct {
	Kind       TransactionKind `json:"kind"`
	Timestamp  int64           `json:"timestamp"`
	Miner      string          `json:"miner,omitempty"`
	From       string          `json:"from,omitempty"`
	To         string          `json:"to,omitempty"`
	Amount     float64         `json:"amount,omitempty"`
	MerchantID string          `json:"merchant_id,omitempty"`
	CarrierID  string          `json:"carrier_id,omitempty"`
	DemandID   string          `json:"demand_id,omitempty"`
	AuctionID  string          `json:"auction_id,omitempty"`
	PaymentID  string          `json:"payment_id,omitempty"`
	Stage      string          `json:"stage,omitempty"`
	Approved   bool            `json:"approved,omitempty"`
	Note       string          `json:"note,omitempty"`
	Solutions  []Solution      `json:"solutions,omitempty"`
}

// Block is a sealed, hash-linked batch of transactions. Immutable once
// appended to the chain.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    int64         `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previous_hash"`
	Nonce        uint64        `json:"nonce"`
	Hash         string        `json:"hash"`
}

// RecordedTransaction pairs a journal record with the block that sealed it.
type RecordedTransaction struct {
	Transaction
	BlockIndex uint64 `json:"block_index"`
	BlockHash  string `json:"block_hash"`
}

// ChainStats summarizes the current chain for observability consumers.
type ChainStats struct {
	BlockCount           int     `json:"block_count"`
	TransactionCount     int     `json:"transaction_count"`
	NodeCount            int     `json:"node_count"`
	ValidatorCount       int     `json:"validator_count"`
	AverageBlockInterval float64 `json:"average_block_interval_seconds"`
	TotalStake           float64 `json:"total_stake"`
}

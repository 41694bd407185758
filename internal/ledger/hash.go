package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/freightledger/freightledger-backend/internal/model"
)

// hashPayload fixes the field set and order that feed the block hash. The
// stored hash itself is excluded.
type hashPayload struct {
	Index        uint64              `json:"index"`
	Timestamp    int64               `json:"timestamp"`
	Transactions []model.Transaction `json:"transactions"`
	PreviousHash string              `json:"previous_hash"`
	Nonce        uint64              `json:"nonce"`
}

// hashBlock computes the SHA-256 hex digest of the block's canonical JSON
// form. Struct field order keeps the encoding deterministic.
func hashBlock(b model.Block) string {
	payload, err := json.Marshal(hashPayload{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Transactions: b.Transactions,
		PreviousHash: b.PreviousHash,
		Nonce:        b.Nonce,
	})
	if err != nil {
		// Transaction is a closed struct of marshalable fields; this cannot
		// fail for well-formed blocks.
		panic("ledger: block hash encoding failed: " + err.Error())
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

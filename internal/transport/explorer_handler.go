// Package transport exposes the HTTP API of the gateway.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/freightledger/freightledger-backend/internal/model"
	"go.uber.org/zap"
)

// LedgerReader is the read-only chain surface the explorer serves.
type LedgerReader interface {
	Blocks() []model.Block
	Block(index uint64) (model.Block, bool)
	LastBlock() model.Block
	Stats() model.ChainStats
	ValidateChain(ctx context.Context) bool
	Nodes() []model.Node
	Node(id string) (model.Node, bool)
	NodeBalance(id string) float64
	CreditScore(id string) float64
	NodeTransactions(id string, limit int) []model.RecordedTransaction
	ActiveNodes() []string
}

// ExplorerHandler serves chain and registry reads.
type ExplorerHandler struct {
	logger *zap.Logger
	chain  LedgerReader
}

// NewExplorerHandler returns an ExplorerHandler instance.
func NewExplorerHandler(chain LedgerReader, logger *zap.Logger) *ExplorerHandler {
	return &ExplorerHandler{
		logger: logger.Named("explorer"),
		chain:  chain,
	}
}

// RegisterRoutes mounts the explorer endpoints.
func (h *ExplorerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/chain/stats", h.stats)
	r.Get("/chain/valid", h.valid)
	r.Get("/blocks", h.blocks)
	r.Get("/blocks/latest", h.lastBlock)
	r.Get("/blocks/{index}", h.block)
	r.Get("/nodes", h.nodes)
	r.Get("/nodes/active", h.activeNodes)
	r.Get("/nodes/{id}", h.node)
	r.Get("/nodes/{id}/balance", h.balance)
	r.Get("/nodes/{id}/transactions", h.transactions)
}

func (h *ExplorerHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *ExplorerHandler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.chain.Stats())
}

func (h *ExplorerHandler) valid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"valid": h.chain.ValidateChain(r.Context())})
}

func (h *ExplorerHandler) blocks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.chain.Blocks())
}

func (h *ExplorerHandler) lastBlock(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.chain.LastBlock())
}

func (h *ExplorerHandler) block(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		http.Error(w, "invalid block index", http.StatusBadRequest)
		return
	}
	block, ok := h.chain.Block(index)
	if !ok {
		http.Error(w, "block not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (h *ExplorerHandler) nodes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.chain.Nodes())
}

func (h *ExplorerHandler) activeNodes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.chain.ActiveNodes())
}

func (h *ExplorerHandler) node(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	node, ok := h.chain.Node(id)
	if !ok {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (h *ExplorerHandler) balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.chain.Node(id); !ok {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"node_id":      id,
		"balance":      h.chain.NodeBalance(id),
		"credit_score": h.chain.CreditScore(id),
	})
}

func (h *ExplorerHandler) transactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, h.chain.NodeTransactions(id, limit))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

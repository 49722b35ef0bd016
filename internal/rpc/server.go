package rpc

import (
	"context"
	"encoding/json"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperion-chain/hyperion/internal/core"
	"github.com/hyperion-chain/hyperion/internal/metrics"
	"github.com/hyperion-chain/hyperion/pkg/hash"
)

// MaxTemplateTx is the maximum number of pending transactions a single
// get_block_template call will peek from the mempool (spec.md §6.2).
const MaxTemplateTx = 100

// peerRateLimit bounds how often a single remote address may call an
// RPC method. Generous enough for a miner polling every
// work_update_interval, tight enough to blunt a local DoS from a
// misbehaving client.
const (
	peerRateLimit = 20 // requests per second
	peerBurst     = 40
)

// Persister writes the chain to durable storage after every accepted
// block. Persistence failures are logged but never roll back the
// append (spec.md §7) — so this returns nothing for the caller to act on.
type Persister func(*core.Blockchain)

// Server exposes the node's JSON-RPC 2.0 surface over HTTP
// (spec.md §6.2).
type Server struct {
	chain    *core.Blockchain
	mempool  *core.Mempool
	logger   *zap.Logger
	persist  Persister
	chainTag string

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter

	httpServer *http.Server
}

// NewServer constructs a JSON-RPC server bound to the given chain and
// mempool. persist may be nil, in which case accepted blocks are not
// written to disk (used by tests).
func NewServer(chain *core.Blockchain, mempool *core.Mempool, persist Persister, logger *zap.Logger) *Server {
	return &Server{
		chain:    chain,
		mempool:  mempool,
		logger:   logger,
		persist:  persist,
		chainTag: "hyperion",
		limiters: make(map[string]*rate.Limiter),
	}
}

// Handler returns the HTTP handler implementing the RPC surface on
// "/" and "/rpc" (spec.md §6.2), for embedding in a custom server or
// exercising directly in tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHTTP)
	mux.HandleFunc("/rpc", s.handleHTTP)
	return mux
}

// ListenAndServe starts the HTTP server on addr and blocks until it
// exits (on Shutdown or an unrecoverable listener error).
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	s.logger.Info("rpc server listening", zap.String("addr", addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) limiterFor(addr string) *rate.Limiter {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()
	lim, ok := s.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(peerRateLimit), peerBurst)
		s.limiters[host] = lim
	}
	return lim
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.limiterFor(r.RemoteAddr).Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, CodeInvalidParams, "malformed request body")
		return
	}

	result, rpcErr := s.dispatch(r.Context(), req.Method, req.Params)
	if rpcErr != nil {
		writeError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, *Error) {
	switch method {
	case "get_block_template":
		return s.getBlockTemplate()
	case "submit_block":
		return s.submitBlock(params)
	case "get_mining_info":
		return s.getMiningInfo(), nil
	case "get_blockchain_info":
		return s.getBlockchainInfo(), nil
	case "get_block_count":
		return BlockCountResult{Height: s.chain.Height()}, nil
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: "method not found: " + method}
	}
}

func (s *Server) getBlockTemplate() (*BlockTemplateResult, *Error) {
	tail := s.chain.Tail()
	prevHash := tail.Header.Hash()
	difficulty := s.chain.AdjustDifficulty()
	txs := s.mempool.Peek(MaxTemplateTx)

	timestamp := uint32(time.Now().Unix())
	block := core.BuildBlockTemplate(prevHash, txs, difficulty, timestamp)

	txJSON := make([]TxJSON, len(txs))
	for i, tx := range txs {
		txJSON[i] = txToJSON(tx)
	}

	root := block.Header.MerkleRoot
	return &BlockTemplateResult{
		Version:           block.Header.Version,
		PreviousBlockHash: hexEncode(prevHash),
		Transactions:      txJSON,
		DifficultyCompact: difficulty,
		Timestamp:         timestamp,
		Height:            s.chain.Height() + 1,
		MerkleRoot:        hexEncode(root),
	}, nil
}

func (s *Server) submitBlock(params json.RawMessage) (*SubmitBlockResult, *Error) {
	var p SubmitBlockParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "bad submit_block params: " + err.Error()}
	}

	block, err := blockFromHex(p.BlockHex)
	if err != nil {
		return &SubmitBlockResult{Accepted: false, Message: "decode: " + err.Error()}, nil
	}

	if err := s.chain.AddBlock(block, false); err != nil {
		metrics.BlocksAccepted.WithLabelValues("rejected").Inc()
		s.logger.Info("block rejected", zap.Error(err))
		return &SubmitBlockResult{Accepted: false, Message: err.Error()}, nil
	}

	s.mempool.Remove(block.Transactions)
	metrics.BlocksAccepted.WithLabelValues("accepted").Inc()
	metrics.ChainHeight.Set(float64(s.chain.Height()))
	s.logger.Info("block accepted", zap.Uint64("height", s.chain.Height()))

	if s.persist != nil {
		s.persist(s.chain)
	}

	return &SubmitBlockResult{Accepted: true}, nil
}

func (s *Server) getMiningInfo() *MiningInfoResult {
	tail := s.chain.Tail()
	return &MiningInfoResult{
		Blocks:           s.chain.Height(),
		CurrentBlockSize: len(tail.Encode()),
		CurrentBlockTx:   len(tail.Transactions),
		// spec.md §9 open question 2: literal raw-compact cast, not the
		// conventional max_target/current_target ratio.
		Difficulty:    float64(tail.Header.DifficultyCompact),
		NetworkHashPS: estimateNetworkHashPS(s.chain),
		PooledTx:      s.mempool.Len(),
		Chain:         s.chainTag,
	}
}

func (s *Server) getBlockchainInfo() *BlockchainInfoResult {
	tail := s.chain.Tail()
	return &BlockchainInfoResult{
		Chain:         s.chainTag,
		Blocks:        s.chain.Height(),
		Headers:       s.chain.Height(),
		BestBlockHash: hexEncode(tail.Header.Hash()),
		Difficulty:    float64(tail.Header.DifficultyCompact),
		MedianTime:    tail.Header.Time,
	}
}

// estimateNetworkHashPS sums the work represented by each block over
// the last retarget window and divides by the wall-clock time the
// window took, mirroring bitcoind's getnetworkhashps convention. The
// spec leaves this unspecified beyond "thin wrapper over chain", so
// this is our implementation's interface-level choice, not a protocol
// guarantee.
func estimateNetworkHashPS(chain *core.Blockchain) float64 {
	blocks := chain.Snapshot()
	window := core.AdjustmentInterval
	if len(blocks) <= 1 {
		return 0
	}
	if len(blocks) <= window {
		window = len(blocks) - 1
	}
	if window <= 0 {
		return 0
	}

	first := blocks[len(blocks)-1-window]
	last := blocks[len(blocks)-1]

	elapsed := int64(last.Header.Time) - int64(first.Header.Time)
	if elapsed <= 0 {
		return 0
	}

	totalWork := new(big.Int)
	maxPlusOne := new(big.Int).Add(core.MaxTarget256(), big.NewInt(1))
	for i := len(blocks) - window; i < len(blocks); i++ {
		target := core.CompactToTarget(blocks[i].Header.DifficultyCompact)
		if target.Sign() <= 0 {
			continue
		}
		work := new(big.Int).Div(maxPlusOne, new(big.Int).Add(target, big.NewInt(1)))
		totalWork.Add(totalWork, work)
	}

	hashps := new(big.Float).Quo(new(big.Float).SetInt(totalWork), big.NewFloat(float64(elapsed)))
	f, _ := hashps.Float64()
	return f
}

func hexEncode(h [32]byte) string {
	return hash.ToHex(h)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	body, err := json.Marshal(result)
	if err != nil {
		writeError(w, id, CodeInternal, "marshal result: "+err.Error())
		return
	}
	resp := Response{JSONRPC: "2.0", ID: id, Result: body}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

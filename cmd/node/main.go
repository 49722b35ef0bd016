// Command node runs the hyperion full node: it serves the JSON-RPC
// surface miners poll for work, accepts submitted blocks, persists the
// chain to disk, and listens for raw P2P block broadcasts.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperion-chain/hyperion/internal/core"
	"github.com/hyperion-chain/hyperion/internal/logging"
	"github.com/hyperion-chain/hyperion/internal/metrics"
	"github.com/hyperion-chain/hyperion/internal/p2p"
	"github.com/hyperion-chain/hyperion/internal/rpc"
	"github.com/hyperion-chain/hyperion/internal/storage"
)

func main() {
	rpcAddr := flag.String("rpc-addr", "127.0.0.1:6001", "JSON-RPC listen address")
	p2pAddr := flag.String("p2p-addr", "127.0.0.1:6000", "P2P listen address")
	healthAddr := flag.String("health-addr", "127.0.0.1:6002", "health/metrics listen address")
	chainFile := flag.String("chain-file", "blockchain.dat", "path to the persisted chain file")
	indexFile := flag.String("index-file", "chain-index.db", "path to the bbolt hash index file")
	logLevel := flag.String("log-level", "info", "log level (debug or info)")
	flag.Parse()

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	chain, err := loadOrCreateChain(*chainFile, logger)
	if err != nil {
		logger.Fatal("load chain", zap.Error(err))
	}

	index, err := storage.NewBoltStore(*indexFile, logger)
	if err != nil {
		logger.Fatal("open chain index", zap.Error(err))
	}
	defer index.Close()
	if err := index.Rebuild(chain); err != nil {
		logger.Fatal("rebuild chain index", zap.Error(err))
	}

	metrics.ChainHeight.Set(float64(chain.Height()))

	mempool := core.NewMempool()
	persist := func(c *core.Blockchain) {
		if err := storage.SaveChain(*chainFile, c); err != nil {
			metrics.PersistenceFailures.Inc()
			logger.Error("persist chain", zap.Error(err))
			return
		}
		if err := index.Rebuild(c); err != nil {
			logger.Error("rebuild chain index", zap.Error(err))
		}
	}

	rpcServer := rpc.NewServer(chain, mempool, persist, logger)

	// Binding failures on either socket are fatal at startup (spec.md
	// §7); checked synchronously before anything starts serving.
	if err := checkCanBind(*rpcAddr); err != nil {
		logger.Fatal("bind rpc socket", zap.Error(err))
	}
	if err := checkCanBind(*p2pAddr); err != nil {
		logger.Fatal("bind p2p socket", zap.Error(err))
	}

	p2pListener := p2p.New(logger, func(block *core.Block) {
		// skip_pow=true: the P2P listener's fast-path trusts a block
		// broadcast by a peer rather than re-verifying PoW (spec.md §4.7).
		if err := chain.AddBlock(block, true); err != nil {
			metrics.BlocksAccepted.WithLabelValues("rejected").Inc()
			logger.Info("p2p block rejected", zap.Error(err))
			return
		}

		mempool.Remove(block.Transactions)
		metrics.BlocksAccepted.WithLabelValues("accepted").Inc()
		metrics.ChainHeight.Set(float64(chain.Height()))
		logger.Info("p2p block accepted", zap.Uint64("height", chain.Height()))
		persist(chain)
	})
	if err := p2pListener.Start(*p2pAddr); err != nil {
		logger.Fatal("start p2p listener", zap.Error(err))
	}
	defer p2pListener.Stop()

	healthServer := &http.Server{
		Addr:              *healthAddr,
		Handler:           healthMux(chain),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	go func() {
		logger.Info("health/metrics server listening", zap.String("addr", *healthAddr))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", zap.Error(err))
		}
	}()

	go func() {
		if err := rpcServer.ListenAndServe(*rpcAddr); err != nil {
			logger.Error("rpc server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("rpc shutdown", zap.Error(err))
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown", zap.Error(err))
	}
	if err := p2pListener.Stop(); err != nil {
		logger.Warn("p2p shutdown", zap.Error(err))
	}

	// Final persist on the way out, beyond the per-block save already
	// done in submit_block, so nothing mined in the last moments before
	// a signal is lost (spec.md §12 supplemented feature 4).
	persist(chain)
}

func loadOrCreateChain(path string, logger *zap.Logger) (*core.Blockchain, error) {
	if storage.Exists(path) {
		chain, err := storage.LoadChain(path)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded persisted chain", zap.Uint64("height", chain.Height()))
		return chain, nil
	}

	genesis := core.MineGenesis(uint32(time.Now().Unix()))
	chain := core.NewBlockchain(genesis)
	if err := storage.SaveChain(path, chain); err != nil {
		return nil, fmt.Errorf("persist genesis: %w", err)
	}
	logger.Info("initialized new chain with a fresh genesis block")
	return chain, nil
}

// checkCanBind verifies a TCP address is free by binding and
// immediately releasing it. The server that actually serves on addr
// rebinds moments later; the brief window is an accepted race in
// exchange for a synchronous fatal-at-startup check.
func checkCanBind(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}

func healthMux(chain *core.Blockchain) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok height=%d\n", chain.Height())
	})
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

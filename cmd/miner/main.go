// Command miner runs the concurrent mining coordinator against a
// hyperion node's JSON-RPC surface (spec.md §6.3).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/hyperion-chain/hyperion/internal/config"
	"github.com/hyperion-chain/hyperion/internal/logging"
	"github.com/hyperion-chain/hyperion/internal/mining"
	"github.com/hyperion-chain/hyperion/internal/rpc"
)

// options are the miner's command-line flags (spec.md §6.3). Config
// file values are used for anything not given on the command line.
type options struct {
	ConfigFile string `short:"c" long:"config" description:"path to the TOML config file" default:"config.toml"`
	NodeURL    string `short:"n" long:"node-url" description:"node JSON-RPC URL"`
	Threads    int    `short:"t" long:"threads" description:"number of mining worker goroutines"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if opts.NodeURL != "" {
		cfg.NodeURL = opts.NodeURL
	}
	if opts.Threads > 0 {
		cfg.Threads = opts.Threads
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		return 1
	}
	defer logger.Sync()

	client := rpc.NewClient(cfg.NodeURL)
	coordinator := mining.New(
		client,
		cfg.Threads,
		cfg.ReconnectDelayDuration(),
		cfg.WorkUpdateIntervalDuration(),
		cfg.StatsIntervalDuration(),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("miner starting",
		zap.String("node_url", cfg.NodeURL),
		zap.Int("threads", cfg.Threads),
	)
	coordinator.Run(ctx)
	logger.Info("miner shut down cleanly")
	return 0
}

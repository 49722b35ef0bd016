package mining

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hako/durafmt"
	"go.uber.org/zap"

	"github.com/hyperion-chain/hyperion/internal/core"
	"github.com/hyperion-chain/hyperion/internal/rpc"
)

const (
	// stalenessCheckInterval is how often the coordinator checks for a
	// stale template.
	stalenessCheckInterval = 30 * time.Second
	// stalenessThreshold is how old the last successful template fetch
	// may get before the coordinator forces a refresh.
	stalenessThreshold = 60 * time.Second
	// heartbeat keeps the coordinator's select loop responsive even when
	// nothing else fires, per spec.md §5 suspension points.
	heartbeat = 100 * time.Millisecond
)

// generation is the shared cancellation machinery for one work_id
// epoch (spec.md glossary "work generation").
type generation struct {
	workID        uint64
	cancel        chan struct{}
	closeOnce     sync.Once
	solutionFound atomic.Bool
}

func newGeneration(workID uint64) *generation {
	return &generation{workID: workID, cancel: make(chan struct{})}
}

func (g *generation) close() {
	g.closeOnce.Do(func() { close(g.cancel) })
}

// Coordinator partitions the nonce space across N workers, reacts to
// the first valid solution, and re-fetches work on a new block or a
// stale template (spec.md §4.8).
type Coordinator struct {
	node    rpc.NodeClient
	workers []*Worker
	logger  *zap.Logger

	reconnectDelay     time.Duration
	workUpdateInterval time.Duration
	statsInterval      time.Duration

	resultCh chan *MiningResult

	workIDSeq     atomic.Uint64
	blocksFound   atomic.Uint64
	lastFetch     time.Time
	lastStatsTime time.Time
	current       *generation
	lastTemplate  templateKey

	consecutiveFailures int
	nextRetryAt         time.Time
}

// backoffDuration grows from the configured reconnect delay with
// consecutive RPC failures, capped at 60s, so a node outage doesn't turn
// the miner into a tight retry loop.
func backoffDuration(base time.Duration, failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= 60*time.Second {
			return 60 * time.Second
		}
	}
	if d > 60*time.Second {
		return 60 * time.Second
	}
	return d
}

// templateKey identifies a block template's content, ignoring its
// nonce. Two fetches that produce the same key describe the same
// candidate block — dispatching a new generation for it would cancel
// and restart every worker's in-progress search for nothing.
type templateKey struct {
	prevHash   [32]byte
	merkleRoot [32]byte
	difficulty uint32
}

func keyOf(header *core.Header) templateKey {
	return templateKey{prevHash: header.PrevHash, merkleRoot: header.MerkleRoot, difficulty: header.DifficultyCompact}
}

// New constructs a coordinator with numWorkers worker goroutines.
func New(node rpc.NodeClient, numWorkers int, reconnectDelay, workUpdateInterval, statsInterval time.Duration, logger *zap.Logger) *Coordinator {
	if numWorkers < 1 {
		numWorkers = 1
	}
	resultCh := make(chan *MiningResult, numWorkers)
	workers := make([]*Worker, numWorkers)
	for i := range workers {
		workers[i] = NewWorker(i, resultCh, logger)
	}
	activeWorkers.Set(float64(numWorkers))

	return &Coordinator{
		node:               node,
		workers:            workers,
		logger:             logger,
		reconnectDelay:     reconnectDelay,
		workUpdateInterval: workUpdateInterval,
		statsInterval:      statsInterval,
		resultCh:           resultCh,
	}
}

// Run starts all workers and the coordinator's event loop. It blocks
// until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context) {
	for _, w := range c.workers {
		w.Start(ctx)
	}
	c.lastStatsTime = time.Now()

	c.tryFetchAndDispatch(ctx)

	stalenessTicker := time.NewTicker(stalenessCheckInterval)
	defer stalenessTicker.Stop()
	statsTicker := time.NewTicker(c.statsIntervalOrDefault())
	defer statsTicker.Stop()
	heartbeatTicker := time.NewTicker(heartbeat)
	defer heartbeatTicker.Stop()

	updateTicker := time.NewTicker(c.workUpdateIntervalOrDefault())
	defer updateTicker.Stop()

	var lastHashes uint64

	for {
		select {
		case <-ctx.Done():
			c.stopWorkers()
			return

		case result := <-c.resultCh:
			c.handleResult(ctx, result)

		case <-stalenessTicker.C:
			if time.Since(c.lastFetch) > stalenessThreshold {
				c.logger.Warn("template stale, refetching", zap.Duration("age", time.Since(c.lastFetch)))
				c.tryFetchAndDispatch(ctx)
			}

		case <-updateTicker.C:
			c.tryFetchAndDispatch(ctx)

		case <-statsTicker.C:
			lastHashes = c.reportStats(lastHashes)

		case <-heartbeatTicker.C:
			// Keeps the select loop responsive; no action needed.
		}
	}
}

func (c *Coordinator) handleResult(ctx context.Context, result *MiningResult) {
	gen := c.current
	// A result from a superseded generation, or a second winner racing
	// within the same generation, is dropped here: the node's own
	// stale-prev_hash rejection is the backstop the spec tolerates
	// (spec.md §4.8 cancellation semantics).
	if gen == nil || result.WorkID != gen.workID || gen.solutionFound.Swap(true) {
		return
	}
	gen.close()

	c.logger.Info("candidate solution found",
		zap.Int("worker_id", result.WorkerID),
		zap.Uint64("work_id", result.WorkID),
		zap.Uint64("nonce", result.Nonce),
	)

	submitted, err := c.node.SubmitBlock(ctx, result.Block)
	switch {
	case err != nil:
		blocksSubmitted.WithLabelValues("error").Inc()
		c.logger.Warn("submit_block failed", zap.Error(err))
	case submitted.Accepted:
		blocksSubmitted.WithLabelValues("accepted").Inc()
		blocksFound.Inc()
		c.blocksFound.Add(1)
		c.logger.Info("block accepted by node")
	default:
		blocksSubmitted.WithLabelValues("rejected").Inc()
		c.logger.Info("block rejected by node", zap.String("message", submitted.Message))
	}

	c.tryFetchAndDispatch(ctx)
}

// tryFetchAndDispatch fetches and dispatches a fresh template, skipping
// the attempt entirely while a prior failure's backoff window is still
// open, and logging+backing off further on a new failure.
func (c *Coordinator) tryFetchAndDispatch(ctx context.Context) {
	if now := time.Now(); now.Before(c.nextRetryAt) {
		return
	}

	if err := c.fetchAndDispatch(ctx); err != nil {
		c.consecutiveFailures++
		delay := backoffDuration(c.reconnectDelayOrDefault(), c.consecutiveFailures)
		c.nextRetryAt = time.Now().Add(delay)
		c.logger.Warn("work fetch failed", zap.Error(err), zap.Duration("retry_in", delay))
		return
	}

	c.consecutiveFailures = 0
	c.nextRetryAt = time.Time{}
}

// fetchAndDispatch fetches a fresh template, builds a new work
// generation, and redistributes it across all workers.
func (c *Coordinator) fetchAndDispatch(ctx context.Context) error {
	tmpl, err := c.node.GetBlockTemplate(ctx)
	if err != nil {
		return err
	}
	block, err := rpc.TemplateToBlock(tmpl)
	if err != nil {
		return err
	}

	c.lastFetch = time.Now()

	key := keyOf(&block.Header)
	if c.current != nil && !c.current.solutionFound.Load() && key == c.lastTemplate {
		// Identical candidate block already being worked (and no
		// worker has found a solution for it yet); a fresh dispatch
		// would only cancel and restart every worker for no gain
		// (spec.md §12 supplemented feature 1). If the current
		// generation already has a solution, workers are stuck
		// waiting on a cancel that will never come from an identical
		// key, so a redispatch is required even though the key
		// matches.
		return nil
	}
	c.lastTemplate = key
	c.dispatch(&block.Header, block.Transactions)
	workGenerations.Inc()
	return nil
}

func (c *Coordinator) dispatch(header *core.Header, txs []*core.Transaction) {
	workID := c.workIDSeq.Add(1)
	gen := newGeneration(workID)

	ranges := partitionNonceRange(len(c.workers))
	for i, w := range c.workers {
		item := &WorkItem{
			Header:        *header,
			RangeStart:    ranges[i].start,
			RangeEnd:      ranges[i].end,
			Transactions:  txs,
			WorkID:        workID,
			Cancel:        gen.cancel,
			SolutionFound: &gen.solutionFound,
		}
		w.Submit(item)
	}

	// The previous generation's cancel channel is dropped here; any
	// worker still holding a stale receiver observes the close as
	// cancellation (spec.md §5).
	if c.current != nil {
		c.current.close()
	}
	c.current = gen
}

func (c *Coordinator) reportStats(lastHashes uint64) uint64 {
	var total uint64
	for _, w := range c.workers {
		total += w.HashesComputed()
	}
	elapsed := time.Since(c.lastStatsTime)
	c.lastStatsTime = time.Now()

	delta := total - lastHashes
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(delta) / elapsed.Seconds()
	}
	hashRate.Set(rate)

	c.logger.Info("mining stats",
		zap.Float64("hashes_per_sec", rate),
		zap.Uint64("blocks_found", c.blocksFound.Load()),
		zap.String("elapsed", durafmt.Parse(elapsed).LimitFirstN(2).String()),
	)
	return total
}

func (c *Coordinator) stopWorkers() {
	for _, w := range c.workers {
		w.Stop()
	}
}

func (c *Coordinator) reconnectDelayOrDefault() time.Duration {
	if c.reconnectDelay <= 0 {
		return 5 * time.Second
	}
	return c.reconnectDelay
}

func (c *Coordinator) workUpdateIntervalOrDefault() time.Duration {
	if c.workUpdateInterval <= 0 {
		return 500 * time.Millisecond
	}
	return c.workUpdateInterval
}

func (c *Coordinator) statsIntervalOrDefault() time.Duration {
	if c.statsInterval <= 0 {
		return 10 * time.Second
	}
	return c.statsInterval
}

package mining

import (
	"context"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hyperion-chain/hyperion/internal/core"
)

// Worker searches its assigned nonce range for one work generation at
// a time, batching cancellation checks per spec.md §4.8.
type Worker struct {
	id     int
	logger *zap.Logger

	running       atomic.Bool
	currentWorkID atomic.Uint64
	hashesComputed atomic.Uint64

	workCh   chan *WorkItem
	resultCh chan<- *MiningResult
}

// NewWorker creates a worker that reports results on resultCh.
func NewWorker(id int, resultCh chan<- *MiningResult, logger *zap.Logger) *Worker {
	return &Worker{
		id:       id,
		logger:   logger,
		workCh:   make(chan *WorkItem, 1),
		resultCh: resultCh,
	}
}

// Start launches the worker's loop; it runs until ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	w.running.Store(true)
	go w.loop(ctx)
}

// Stop clears the running flag: the item in progress is abandoned at
// its next cancellation check and items received afterwards are not
// mined. The loop goroutine itself exits only when ctx is canceled.
func (w *Worker) Stop() {
	w.running.Store(false)
}

// Submit hands a new work item to the worker, replacing any item
// still pending in its single-slot queue (a stale item the worker
// hasn't started on yet is simply superseded).
func (w *Worker) Submit(item *WorkItem) {
	select {
	case <-w.workCh:
	default:
	}
	w.workCh <- item
}

// HashesComputed returns the cumulative attempt counter (spec.md §5's
// per-worker atomic hashes_computed).
func (w *Worker) HashesComputed() uint64 {
	return w.hashesComputed.Load()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-w.workCh:
			if item == nil {
				continue
			}
			w.currentWorkID.Store(item.WorkID)
			w.mineItem(ctx, item)
		}
	}
}

func (w *Worker) mineItem(ctx context.Context, item *WorkItem) {
	header := item.Header
	nonce := item.RangeStart

	for nonce < item.RangeEnd {
		if !w.stillValid(item) {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		batchEnd := nonce + batchSize
		if batchEnd > item.RangeEnd {
			batchEnd = item.RangeEnd
		}

		for n := nonce; n < batchEnd; n++ {
			header.Nonce = n
			w.hashesComputed.Add(1)

			if core.ValidatePoW(&header) {
				if !w.stillValid(item) {
					return
				}
				block := &core.Block{Header: header, Transactions: item.Transactions}
				result := &MiningResult{Block: block, Nonce: n, WorkerID: w.id, WorkID: item.WorkID}
				select {
				case w.resultCh <- result:
				case <-item.Cancel:
				case <-ctx.Done():
				}
				return
			}
		}

		nonce = batchEnd
		runtime.Gosched()
	}
}

// stillValid reports whether this work item is still the worker's
// current generation: running, not canceled, and no solution found
// yet for this generation (spec.md §4.8 batch-boundary checks).
func (w *Worker) stillValid(item *WorkItem) bool {
	if !w.running.Load() {
		return false
	}
	if w.currentWorkID.Load() != item.WorkID {
		return false
	}
	if item.SolutionFound.Load() {
		return false
	}
	select {
	case <-item.Cancel:
		return false
	default:
	}
	return true
}

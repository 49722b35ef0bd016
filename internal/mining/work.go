package mining

import (
	"sync/atomic"

	"github.com/hyperion-chain/hyperion/internal/core"
)

// batchSize is the number of nonces a worker evaluates between
// cancellation checks (spec.md §4.8).
const batchSize = 10000

// WorkItem is the bundle a coordinator hands to one worker for one
// work generation: a header skeleton, this worker's slice of the
// nonce space, the transaction list, and the generation's shared
// cancellation machinery (spec.md glossary "work item").
type WorkItem struct {
	Header       core.Header
	RangeStart   uint64
	RangeEnd     uint64
	Transactions []*core.Transaction

	WorkID        uint64
	Cancel        <-chan struct{}
	SolutionFound *atomic.Bool
}

// MiningResult is what a worker sends back on finding a valid nonce.
type MiningResult struct {
	Block    *core.Block
	Nonce    uint64
	WorkerID int
	WorkID   uint64
}

// partitionNonceRange splits the full u64 nonce space into n
// contiguous half-open ranges [start, end) of equal width, per spec.md
// §4.8. The final range absorbs any remainder and ends at u64::MAX, so
// the partition covers [0, u64::MAX); the nonce u64::MAX itself is not
// searched.
func partitionNonceRange(n int) []struct{ start, end uint64 } {
	if n <= 0 {
		n = 1
	}
	width := ^uint64(0) / uint64(n)
	ranges := make([]struct{ start, end uint64 }, n)
	for i := 0; i < n; i++ {
		start := uint64(i) * width
		end := start + width
		if i == n-1 {
			end = ^uint64(0)
		}
		ranges[i] = struct{ start, end uint64 }{start, end}
	}
	return ranges
}

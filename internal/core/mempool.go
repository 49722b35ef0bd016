package core

import "sync"

// Mempool holds pending transactions in insertion order. Uniqueness by
// hash is not enforced — duplicates are allowed (spec.md §3).
type Mempool struct {
	mu  sync.Mutex
	txs []*Transaction
}

// NewMempool returns an empty mempool.
func NewMempool() *Mempool {
	return &Mempool{}
}

// Add appends a transaction to the pool.
func (m *Mempool) Add(tx *Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, tx)
}

// Len returns the number of pending transactions.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// Peek returns up to max pending transactions without removing them.
// get_block_template uses Peek rather than a destructive drain: per
// spec.md §9 open question 1, this implementation resolves the
// drain/accept race by choice (a) — template building never removes
// transactions from the pool, only an accepted block does (via
// Remove). This avoids losing transactions to a template that is never
// submitted, or submitted and rejected.
func (m *Mempool) Peek(max int) []*Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max > len(m.txs) {
		max = len(m.txs)
	}
	out := make([]*Transaction, max)
	copy(out, m.txs[:max])
	return out
}

// Remove deletes every pending transaction whose hash matches one in
// the accepted block's transaction list.
func (m *Mempool) Remove(txs []*Transaction) {
	if len(txs) == 0 {
		return
	}
	remove := make(map[[32]byte]struct{}, len(txs))
	for _, tx := range txs {
		remove[tx.Hash()] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.txs[:0:0]
	for _, tx := range m.txs {
		if _, found := remove[tx.Hash()]; !found {
			kept = append(kept, tx)
		}
	}
	m.txs = kept
}

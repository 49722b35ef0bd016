package core

import "github.com/hyperion-chain/hyperion/pkg/hash"

// MerkleRoot computes the Merkle root of a transaction list following
// Bitcoin's odd-layer duplication rule (spec.md §4.3): an empty list
// hashes to the all-zero root; a single transaction's hash is the root
// itself; otherwise layers are built pairwise, duplicating the last
// element of any odd-length layer, until one hash remains.
//
// The duplication rule is inherited from Bitcoin and carries a known
// second-preimage weakness (CVE-2012-2459-style) — reproduced faithfully
// here for hash compatibility, not "fixed".
func MerkleRoot(txs []*Transaction) [32]byte {
	if len(txs) == 0 {
		return [32]byte{}
	}

	layer := make([][32]byte, len(txs))
	for i, tx := range txs {
		layer[i] = tx.Hash()
	}

	for len(layer) > 1 {
		if len(layer)%2 != 0 {
			layer = append(layer, layer[len(layer)-1])
		}
		next := make([][32]byte, 0, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			next = append(next, hash.Concat(layer[i], layer[i+1]))
		}
		layer = next
	}

	return layer[0]
}

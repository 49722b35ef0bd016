package core

import (
	"bytes"
	"math/big"
	"sync"
)

// TargetBlockTime is the desired spacing between blocks, in seconds.
const TargetBlockTime = 600

// AdjustmentInterval is the number of blocks between retargets. Kept
// deliberately small (10, rather than Bitcoin's 2016) to let tests
// exercise difficulty changes end-to-end (spec.md §4.6).
const AdjustmentInterval = 10

// Blockchain is an ordered, append-only sequence of blocks, guarded by
// a single-writer/many-reader lock. Height i is blocks[i]; height 0 is
// genesis.
type Blockchain struct {
	mu     sync.RWMutex
	blocks []*Block
}

// NewBlockchain creates a chain seeded with the given genesis block.
// Genesis is created once and never re-validated against a predecessor.
func NewBlockchain(genesis *Block) *Blockchain {
	return &Blockchain{blocks: []*Block{genesis}}
}

// NewBlockchainFromBlocks rebuilds a chain from an already-ordered block
// slice, as read back from the persisted chain file. The caller is
// responsible for having validated it (e.g. via ValidateWithOptions).
func NewBlockchainFromBlocks(blocks []*Block) *Blockchain {
	return &Blockchain{blocks: blocks}
}

// Encode produces the persisted chain-file encoding: a varint block
// count followed by each block's canonical encoding (spec.md §6.5).
func (c *Blockchain) Encode() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var buf bytes.Buffer
	buf.Write(writeVarInt(uint64(len(c.blocks))))
	for _, b := range c.blocks {
		buf.Write(b.Encode())
	}
	return buf.Bytes()
}

// DecodeBlockchain reverses Encode. The first block in data becomes
// genesis.
func DecodeBlockchain(data []byte) (*Blockchain, error) {
	count, off, err := readVarInt(data)
	if err != nil {
		return nil, wrapErr(Deserialization, "read block count", err)
	}
	if count == 0 {
		return nil, newErr(Deserialization, "chain file contains zero blocks")
	}

	blocks := make([]*Block, 0, count)
	for i := uint64(0); i < count; i++ {
		block, consumed, err := decodeBlockPrefix(data[off:])
		if err != nil {
			return nil, wrapErr(Deserialization, "decode block", err)
		}
		off += consumed
		blocks = append(blocks, block)
	}
	if off != len(data) {
		return nil, newErr(Deserialization, "trailing bytes after chain")
	}

	return &Blockchain{blocks: blocks}, nil
}

// Height returns len(blocks) - 1, the height of the tail block.
func (c *Blockchain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.heightLocked()
}

func (c *Blockchain) heightLocked() uint64 {
	if len(c.blocks) == 0 {
		return 0
	}
	return uint64(len(c.blocks) - 1)
}

// Len returns the number of blocks in the chain.
func (c *Blockchain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Tail returns the last block in the chain.
func (c *Blockchain) Tail() *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[len(c.blocks)-1]
}

// At returns the block at the given height.
func (c *Blockchain) At(height uint64) (*Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if height >= uint64(len(c.blocks)) {
		return nil, false
	}
	return c.blocks[height], true
}

// Snapshot returns a shallow copy of the current block slice, safe for
// the caller to range over without holding the chain lock.
func (c *Blockchain) Snapshot() []*Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// AddBlock validates and appends a block to the tail under the writer
// lock, which is the serialization point for consensus (spec.md §4.7,
// §9). skipPoW bypasses the proof-of-work check; it must be true only
// for internal tests and the P2P listener fast-path, never for miner
// submissions.
func (c *Blockchain) AddBlock(block *Block, skipPoW bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tail := c.blocks[len(c.blocks)-1]
	tailHash := tail.Header.Hash()
	if block.Header.PrevHash != tailHash {
		return newErr(InvalidPreviousHash, "block.header.prev_hash does not match chain tail hash")
	}

	if !block.ValidateMerkleRoot() {
		return newErr(InvalidMerkleRoot, "block.header.merkle_root does not match recomputed Merkle root")
	}

	if !skipPoW && !ValidatePoW(&block.Header) {
		return newErr(InvalidPoW, "block header hash exceeds target for its difficulty_compact")
	}

	c.blocks = append(c.blocks, block)
	return nil
}

// ValidateWithOptions replays steps 1-3 of AddBlock over every block in
// the chain in order, skipping the previous-hash check for index 0
// (genesis has no predecessor). Returns nil if the whole chain is
// valid, or the first validation error encountered.
func (c *Blockchain) ValidateWithOptions(skipPoW bool) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i, block := range c.blocks {
		if i > 0 {
			prevHash := c.blocks[i-1].Header.Hash()
			if block.Header.PrevHash != prevHash {
				return newErr(InvalidPreviousHash, "chain linkage broken")
			}
		}
		if !block.ValidateMerkleRoot() {
			return newErr(InvalidMerkleRoot, "merkle root mismatch")
		}
		if !skipPoW && !ValidatePoW(&block.Header) {
			return newErr(InvalidPoW, "proof-of-work check failed")
		}
	}
	return nil
}

// AdjustDifficulty computes the next block's difficulty_compact per
// spec.md §4.6. It returns the tail's current difficulty unchanged
// unless the chain length is a non-zero multiple of AdjustmentInterval.
func (c *Blockchain) AdjustDifficulty() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.blocks)
	tail := c.blocks[n-1]
	if n < AdjustmentInterval || n%AdjustmentInterval != 0 {
		return tail.Header.DifficultyCompact
	}

	first := c.blocks[n-AdjustmentInterval]
	last := tail

	actual := int64(last.Header.Time) - int64(first.Header.Time)
	if actual < 1 {
		actual = 1
	}
	expected := int64(TargetBlockTime * AdjustmentInterval)

	currentTarget := CompactToTarget(last.Header.DifficultyCompact)
	newTarget := new(big.Int).Mul(currentTarget, big.NewInt(actual))
	newTarget.Div(newTarget, big.NewInt(expected))

	maxTarget := MaxTarget256()
	if newTarget.Cmp(maxTarget) > 0 {
		newTarget = maxTarget
	}

	return TargetToCompact(newTarget)
}

package core

import (
	"bytes"
)

// Block is a header paired with its ordered transaction list.
type Block struct {
	Header       Header
	Transactions []*Transaction
}

// Encode produces the canonical wire/disk encoding: encode(Header) ∥
// encode(Vec<Transaction>) (spec.md §6.1). This is also the P2P and
// disk representation — deliberately the same bytes in every context.
func (b *Block) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(b.Header.Encode())
	buf.Write(writeVarInt(uint64(len(b.Transactions))))
	for _, tx := range b.Transactions {
		buf.Write(tx.Encode())
	}
	return buf.Bytes()
}

// DecodeBlock decodes a Block from its canonical encoding, rejecting
// trailing garbage or truncated input.
func DecodeBlock(data []byte) (*Block, error) {
	block, off, err := decodeBlockPrefix(data)
	if err != nil {
		return nil, err
	}
	if off != len(data) {
		return nil, newErr(Deserialization, "trailing bytes after block")
	}
	return block, nil
}

// decodeBlockPrefix decodes one block from the start of data and
// returns the number of bytes consumed, leaving any trailing bytes for
// the caller to interpret (used to decode a sequence of concatenated
// blocks, as in the persisted chain file).
func decodeBlockPrefix(data []byte) (*Block, int, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, 0, err
	}
	off := HeaderSize

	if off > len(data) {
		return nil, 0, newErr(Deserialization, "truncated block: missing tx count")
	}
	count, n, err := readVarInt(data[off:])
	if err != nil {
		return nil, 0, wrapErr(Deserialization, "read tx count", err)
	}
	off += n

	txs := make([]*Transaction, 0, count)
	for i := uint64(0); i < count; i++ {
		tx, n, err := DecodeTransaction(data[off:])
		if err != nil {
			return nil, 0, wrapErr(Deserialization, "decode transaction", err)
		}
		off += n
		txs = append(txs, tx)
	}

	return &Block{Header: *header, Transactions: txs}, off, nil
}

// Hash returns the header hash of the block.
func (b *Block) Hash() [32]byte {
	return b.Header.Hash()
}

// ValidateMerkleRoot reports whether the block's declared merkle_root
// matches the recomputed Merkle root of its transaction list.
func (b *Block) ValidateMerkleRoot() bool {
	return MerkleRoot(b.Transactions) == b.Header.MerkleRoot
}

// Equal reports whether two blocks have identical header and
// transaction content.
func (b *Block) Equal(other *Block) bool {
	if b == nil || other == nil {
		return b == other
	}
	if !b.Header.Equal(&other.Header) {
		return false
	}
	if len(b.Transactions) != len(other.Transactions) {
		return false
	}
	for i := range b.Transactions {
		if !b.Transactions[i].Equal(other.Transactions[i]) {
			return false
		}
	}
	return true
}

// GenesisCoinbase is the fixed coinbase-like transaction used to seed
// the genesis block (spec.md §3 Lifecycle).
func GenesisCoinbase() *Transaction {
	tx, err := NewTransaction([][]byte{[]byte("genesis")}, [][]byte{[]byte("genesis_out")})
	if err != nil {
		// Unreachable: the literal above is always non-empty on both sides.
		panic(err)
	}
	return tx
}

// GenesisDifficultyCompact is the fixed starting difficulty for genesis
// (easy enough to mine within milliseconds in tests).
const GenesisDifficultyCompact uint32 = 0x207fffff

// MineGenesis builds and mines the genesis block: fixed coinbase
// transaction, difficulty 0x207fffff, zero prev_hash, timestamp as
// given by the caller.
func MineGenesis(timestamp uint32) *Block {
	txs := []*Transaction{GenesisCoinbase()}
	header := Header{
		Version:           1,
		Time:              timestamp,
		DifficultyCompact: GenesisDifficultyCompact,
		Nonce:             0,
		PrevHash:          [32]byte{},
		MerkleRoot:        MerkleRoot(txs),
	}
	Mine(&header)
	return &Block{Header: header, Transactions: txs}
}

// BuildBlockTemplate assembles a candidate block from a previous header,
// mempool transactions, a target timestamp, and a difficulty_compact,
// with merkle_root computed over txs so the result already satisfies
// ValidateMerkleRoot (spec.md §8 invariant 4). The returned header has
// nonce zero and is not yet mined.
func BuildBlockTemplate(prevHash [32]byte, txs []*Transaction, difficultyCompact uint32, timestamp uint32) *Block {
	header := Header{
		Version:           1,
		Time:              timestamp,
		DifficultyCompact: difficultyCompact,
		Nonce:             0,
		PrevHash:          prevHash,
		MerkleRoot:        MerkleRoot(txs),
	}
	return &Block{Header: header, Transactions: txs}
}
